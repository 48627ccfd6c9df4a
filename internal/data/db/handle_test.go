package db

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/yungbote/brandprompt-backend/internal/domain/brand"
	"github.com/yungbote/brandprompt-backend/internal/pkg/logger"
)

func testHandle(t *testing.T, cfg Config) *Handle {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	h := NewHandle(cfg, log)
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func memoryConfig(t *testing.T) Config {
	return Config{
		Driver:      "sqlite",
		DSN:         fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()),
		AutoMigrate: true,
	}
}

func TestHandleConnectsLazilyOnce(t *testing.T) {
	h := testHandle(t, memoryConfig(t))
	if h.State() != StateDisconnected {
		t.Fatalf("initial state: want=%s got=%s", StateDisconnected, h.State())
	}

	first, err := h.DB(context.Background())
	if err != nil {
		t.Fatalf("DB: %v", err)
	}
	second, err := h.DB(context.Background())
	if err != nil {
		t.Fatalf("DB (second): %v", err)
	}
	if first != second {
		t.Fatalf("DB should reuse the existing connection")
	}
	if !h.Connected() {
		t.Fatalf("state: want=%s got=%s", StateConnected, h.State())
	}
	if !first.Migrator().HasTable(&brand.BrandRecord{}) {
		t.Fatalf("auto-migrate did not create brand_record")
	}
}

func TestHandleFailedConnectIsNotCached(t *testing.T) {
	h := testHandle(t, Config{Driver: "mongodb"})
	for i := 0; i < 2; i++ {
		if _, err := h.DB(context.Background()); err == nil {
			t.Fatalf("DB #%d: expected error for unsupported driver", i)
		}
		if h.State() != StateDisconnected {
			t.Fatalf("state after failure: want=%s got=%s", StateDisconnected, h.State())
		}
	}
}

func TestHandleCloseIsIdempotentAndReconnects(t *testing.T) {
	h := testHandle(t, memoryConfig(t))
	if err := h.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("Close (second): %v", err)
	}
	if h.State() != StateDisconnected {
		t.Fatalf("state after close: want=%s got=%s", StateDisconnected, h.State())
	}
	if _, err := h.DB(context.Background()); err != nil {
		t.Fatalf("DB after close: %v", err)
	}
}

func TestWaitReadyGivesUpWithContext(t *testing.T) {
	h := testHandle(t, Config{Driver: "mongodb"})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := h.WaitReady(ctx, 10*time.Millisecond); err == nil {
		t.Fatalf("WaitReady: expected error")
	}
}

func TestPostgresDSN(t *testing.T) {
	cfg := Config{User: "u", Password: "p", Host: "db", Port: "6543", Name: "brands"}.withDefaults()
	want := "postgres://u:p@db:6543/brands?sslmode=disable"
	if got := cfg.postgresDSN(); got != want {
		t.Fatalf("postgresDSN: want=%q got=%q", want, got)
	}
	cfg.DSN = "postgres://override"
	if got := cfg.postgresDSN(); got != "postgres://override" {
		t.Fatalf("postgresDSN override: got=%q", got)
	}
}

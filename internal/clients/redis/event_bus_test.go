package redis

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/yungbote/brandprompt-backend/internal/domain/brand"
	"github.com/yungbote/brandprompt-backend/internal/pkg/logger"
)

func TestNoopEventBus(t *testing.T) {
	bus := NewNoopEventBus()
	if err := bus.Publish(context.Background(), brand.Event{Type: brand.EventOnboarded}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := bus.StartForwarder(context.Background(), func(brand.Event) {}); err == nil {
		t.Fatalf("StartForwarder: expected error without redis")
	}
	if Client(bus) != nil {
		t.Fatalf("Client: want nil for noop bus")
	}
}

func TestNewEventBusRequiresAddr(t *testing.T) {
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	if _, err := NewEventBus(context.Background(), log, Config{}); err == nil {
		t.Fatalf("expected error for missing addr")
	}
}

func TestEventBusRoundTrip(t *testing.T) {
	addr := strings.TrimSpace(os.Getenv("TEST_REDIS_ADDR"))
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	bus, err := NewEventBus(ctx, log, Config{Addr: addr, Channel: "brand-events-test"})
	if err != nil {
		t.Fatalf("NewEventBus: %v", err)
	}
	defer bus.Close()

	got := make(chan brand.Event, 1)
	if err := bus.StartForwarder(ctx, func(evt brand.Event) { got <- evt }); err != nil {
		t.Fatalf("StartForwarder: %v", err)
	}
	want := brand.Event{Type: brand.EventPromptsCommitted, RecordID: "rec-1", Categories: 10, Questions: 50}
	if err := bus.Publish(ctx, want); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	select {
	case evt := <-got:
		if evt.Type != want.Type || evt.RecordID != want.RecordID || evt.Questions != want.Questions {
			t.Fatalf("event mismatch: want=%+v got=%+v", want, evt)
		}
	case <-ctx.Done():
		t.Fatalf("timed out waiting for event")
	}
}

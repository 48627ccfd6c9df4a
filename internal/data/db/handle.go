package db

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/brandprompt-backend/internal/pkg/httpx"
	"github.com/yungbote/brandprompt-backend/internal/pkg/logger"
)

// State is the connection state of a Handle.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
)

// Conn hands out the underlying *gorm.DB, connecting on first use.
type Conn interface {
	DB(ctx context.Context) (*gorm.DB, error)
}

// Handle is the Record Store connection. It connects on first use, reuses
// the connection afterwards, and forgets a failed attempt so the next call
// retries. Close tears it down.
type Handle struct {
	cfg Config
	log *logger.Logger

	mu    sync.Mutex
	db    *gorm.DB
	state atomic.Value
}

func NewHandle(cfg Config, log *logger.Logger) *Handle {
	h := &Handle{cfg: cfg.withDefaults(), log: log.With("service", "RecordStore")}
	h.state.Store(StateDisconnected)
	return h
}

func (h *Handle) DB(ctx context.Context) (*gorm.DB, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.db != nil {
		return h.db, nil
	}

	h.state.Store(StateConnecting)
	start := time.Now()
	gdb, err := open(ctx, h.cfg)
	if err != nil {
		h.state.Store(StateDisconnected)
		h.log.Warn("record store connect failed", "driver", h.cfg.Driver, "error", err)
		return nil, err
	}
	h.db = gdb
	h.state.Store(StateConnected)
	h.log.Info("record store connected", "driver", h.cfg.Driver, "duration_ms", time.Since(start).Milliseconds())
	return h.db, nil
}

func (h *Handle) State() State {
	return h.state.Load().(State)
}

func (h *Handle) Connected() bool {
	return h.State() == StateConnected
}

// Ping connects if needed and checks the connection is alive.
func (h *Handle) Ping(ctx context.Context) error {
	gdb, err := h.DB(ctx)
	if err != nil {
		return err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// WaitReady retries the connection every interval until it succeeds or ctx ends.
func (h *Handle) WaitReady(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	for {
		_, err := h.DB(ctx)
		if err == nil {
			return nil
		}
		if sleepErr := httpx.Sleep(ctx, interval); sleepErr != nil {
			return fmt.Errorf("record store not ready: %w", errors.Join(sleepErr, err))
		}
	}
}

// Close releases the connection. It is safe to call more than once.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.db == nil {
		h.state.Store(StateDisconnected)
		return nil
	}
	sqlDB, err := h.db.DB()
	h.db = nil
	h.state.Store(StateDisconnected)
	if err != nil {
		return err
	}
	h.log.Info("record store closed")
	return sqlDB.Close()
}

type staticConn struct{ db *gorm.DB }

func (s staticConn) DB(context.Context) (*gorm.DB, error) {
	if s.db == nil {
		return nil, errors.New("record store not configured")
	}
	return s.db, nil
}

// Static wraps an already-open *gorm.DB.
func Static(gdb *gorm.DB) Conn { return staticConn{db: gdb} }

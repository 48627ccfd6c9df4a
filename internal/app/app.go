package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/yungbote/brandprompt-backend/internal/clients/redis"
	"github.com/yungbote/brandprompt-backend/internal/data/db"
	"github.com/yungbote/brandprompt-backend/internal/http"
	"github.com/yungbote/brandprompt-backend/internal/observability"
	"github.com/yungbote/brandprompt-backend/internal/pkg/logger"
)

type App struct {
	Log      *logger.Logger
	Cfg      Config
	Store    *db.Handle
	Clients  Clients
	Repos    Repos
	Services Services
	Server   *http.Server
	Metrics  *observability.Metrics

	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New(ctx context.Context) (*App, error) {
	bootLog, err := logger.New(envLogMode())
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	bootLog.Info("Loading configuration...")
	cfg, err := LoadConfig(bootLog)
	if err != nil {
		bootLog.Sync()
		return nil, fmt.Errorf("load config: %w", err)
	}
	log := bootLog
	if cfg.Env != envLogMode() {
		if log, err = logger.New(cfg.Env); err != nil {
			return nil, fmt.Errorf("init logger: %w", err)
		}
	}

	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		Enabled:     cfg.Otel.Enabled,
		ServiceName: cfg.ServiceName,
		Environment: cfg.Env,
		Version:     cfg.Version,
		Endpoint:    cfg.Otel.Endpoint,
		Headers:     observability.ParseHeaders(cfg.Otel.Headers),
		Insecure:    cfg.Otel.Insecure,
		SampleRatio: cfg.Otel.SampleRatio,
	})

	var metrics *observability.Metrics
	if cfg.Metrics {
		metrics = observability.NewMetrics(0)
	}

	store := db.NewHandle(db.Config{
		Driver:      cfg.Store.Driver,
		DSN:         cfg.Store.DSN,
		Host:        cfg.Store.Host,
		Port:        cfg.Store.Port,
		User:        cfg.Store.User,
		Password:    cfg.Store.Password,
		Name:        cfg.Store.Name,
		SSLMode:     cfg.Store.SSLMode,
		AutoMigrate: cfg.Store.AutoMigrate,
	}, log)

	clients, err := wireClients(ctx, log, cfg, metrics)
	if err != nil {
		_ = otelShutdown(ctx)
		log.Sync()
		return nil, err
	}

	reposet := wireRepos(store, log)
	serviceset := wireServices(log, cfg, reposet, clients, metrics)
	handlerset := wireHandlers(log, serviceset, store)
	server := wireServer(log, cfg, handlerset, metrics)

	return &App{
		Log:          log,
		Cfg:          cfg,
		Store:        store,
		Clients:      clients,
		Repos:        reposet,
		Services:     serviceset,
		Server:       server,
		Metrics:      metrics,
		otelShutdown: otelShutdown,
	}, nil
}

// Run waits for the record store, starts collectors and serves HTTP until ctx
// is cancelled, then shuts the server down gracefully.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	defer cancel()

	if wait := a.Cfg.Store.WaitReady.Duration; wait > 0 {
		readyCtx, readyCancel := context.WithTimeout(runCtx, wait)
		err := a.Store.WaitReady(readyCtx, 0)
		readyCancel()
		if err != nil {
			// Not fatal: the handle connects lazily on the next request.
			a.Log.Warn("record store not ready at startup", "error", err)
		}
	}

	a.Metrics.StartStoreCollector(runCtx, a.Log, a.Store)
	a.Metrics.StartRedisCollector(runCtx, a.Log, redis.Client(a.Clients.Events))

	errCh := make(chan error, 1)
	go func() {
		a.Log.Info("HTTP server listening", "addr", a.Cfg.HTTP.Addr)
		errCh <- a.Server.Run(a.Cfg.HTTP.Addr)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-runCtx.Done():
	}

	a.Log.Info("Shutting down HTTP server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.WithoutCancel(ctx), a.Cfg.HTTP.ShutdownTimeout.Duration)
	defer shutdownCancel()
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return <-errCh
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	var errs []error
	a.Clients.Close()
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	if a.otelShutdown != nil {
		errs = append(errs, a.otelShutdown(context.Background()))
	}
	if err := errors.Join(errs...); err != nil && a.Log != nil {
		a.Log.Warn("shutdown finished with errors", "error", err)
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}

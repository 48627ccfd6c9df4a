package observability

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/brandprompt-backend/internal/pkg/logger"
)

const namespace = "brandprompt"

// StoreStatsSource is what the store collector samples. DB is only called
// once Connected reports true, so scraping never forces a connection.
type StoreStatsSource interface {
	Connected() bool
	DB(ctx context.Context) (*gorm.DB, error)
}

// Metrics owns a private Prometheus registry. All methods are no-ops on a nil
// receiver so callers can run with metrics disabled.
type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge

	onboardStage   *prometheus.HistogramVec
	onboardOutcome *prometheus.CounterVec
	commitOutcome  *prometheus.CounterVec

	generatorRequests *prometheus.CounterVec
	generatorLatency  *prometheus.HistogramVec
	generatorTokens   *prometheus.CounterVec

	fetcherRequests *prometheus.CounterVec

	eventsPublished *prometheus.CounterVec

	storeConnected prometheus.Gauge
	storeStats     *prometheus.GaugeVec
	redisUp        prometheus.Gauge
	redisPing      prometheus.Gauge

	scrapeInterval time.Duration
}

func NewMetrics(scrapeInterval time.Duration) *Metrics {
	if scrapeInterval <= 0 {
		scrapeInterval = 10 * time.Second
	}
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Total API requests by method/route/status.",
		}, []string{"method", "route", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "API request latency in seconds by method/route/status.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"method", "route", "status"}),
		apiInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "api_inflight_requests",
			Help:      "In-flight API requests.",
		}),
		onboardStage: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "onboard_stage_duration_seconds",
			Help:      "Onboarding stage duration in seconds by stage/status.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"stage", "status"}),
		onboardOutcome: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "onboard_total",
			Help:      "Onboarding attempts by outcome (ok or error kind).",
		}, []string{"outcome"}),
		commitOutcome: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prompt_commits_total",
			Help:      "Prompt set commits by outcome (ok or error kind).",
		}, []string{"outcome"}),
		generatorRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generator_requests_total",
			Help:      "Structured generator requests by provider/model/status.",
		}, []string{"provider", "model", "status"}),
		generatorLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generator_request_duration_seconds",
			Help:      "Structured generator latency in seconds by provider/model/status.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"provider", "model", "status"}),
		generatorTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generator_tokens_total",
			Help:      "Structured generator tokens by provider/model/direction.",
		}, []string{"provider", "model", "direction"}),
		fetcherRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetcher_requests_total",
			Help:      "Content fetcher requests by provider/status.",
		}, []string{"provider", "status"}),
		eventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Brand events published by type/status.",
		}, []string{"type", "status"}),
		storeConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "store_connected",
			Help:      "Record store connectivity (1=connected, 0=not).",
		}),
		storeStats: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "store_stats",
			Help:      "Record store connection pool stats.",
		}, []string{"metric"}),
		redisUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "redis_up",
			Help:      "Redis connectivity (1=up, 0=down).",
		}),
		redisPing: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "redis_ping_seconds",
			Help:      "Redis ping latency in seconds.",
		}),
		scrapeInterval: scrapeInterval,
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.onboardStage, m.onboardOutcome, m.commitOutcome,
		m.generatorRequests, m.generatorLatency, m.generatorTokens,
		m.fetcherRequests, m.eventsPublished,
		m.storeConnected, m.storeStats, m.redisUp, m.redisPing,
	)
	return m
}

// Handler serves the Prometheus exposition for this registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveAPI(method, route string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	code := strconv.Itoa(status)
	m.apiRequests.WithLabelValues(method, route, code).Inc()
	m.apiLatency.WithLabelValues(method, route, code).Observe(dur.Seconds())
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveOnboardStage(stage, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.onboardStage.WithLabelValues(orUnknown(stage), orUnknown(status)).Observe(dur.Seconds())
}

func (m *Metrics) IncOnboardOutcome(outcome string) {
	if m == nil {
		return
	}
	m.onboardOutcome.WithLabelValues(orUnknown(outcome)).Inc()
}

func (m *Metrics) IncCommitOutcome(outcome string) {
	if m == nil {
		return
	}
	m.commitOutcome.WithLabelValues(orUnknown(outcome)).Inc()
}

func (m *Metrics) ObserveGeneratorRequest(provider, model, status string, dur time.Duration, inputTokens, outputTokens int) {
	if m == nil {
		return
	}
	provider, model, status = orUnknown(provider), orUnknown(model), orUnknown(status)
	m.generatorRequests.WithLabelValues(provider, model, status).Inc()
	m.generatorLatency.WithLabelValues(provider, model, status).Observe(dur.Seconds())
	if inputTokens > 0 {
		m.generatorTokens.WithLabelValues(provider, model, "input").Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		m.generatorTokens.WithLabelValues(provider, model, "output").Add(float64(outputTokens))
	}
}

func (m *Metrics) IncFetcherRequest(provider, status string) {
	if m == nil {
		return
	}
	m.fetcherRequests.WithLabelValues(orUnknown(provider), orUnknown(status)).Inc()
}

func (m *Metrics) IncEventPublished(eventType, status string) {
	if m == nil {
		return
	}
	m.eventsPublished.WithLabelValues(orUnknown(eventType), orUnknown(status)).Inc()
}

// StartStoreCollector samples connection pool stats until ctx ends.
func (m *Metrics) StartStoreCollector(ctx context.Context, log *logger.Logger, src StoreStatsSource) {
	if m == nil || src == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(m.scrapeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.sampleStore(ctx, log, src)
			}
		}
	}()
}

func (m *Metrics) sampleStore(ctx context.Context, log *logger.Logger, src StoreStatsSource) {
	if !src.Connected() {
		m.storeConnected.Set(0)
		return
	}
	m.storeConnected.Set(1)
	gdb, err := src.DB(ctx)
	if err != nil {
		return
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		if log != nil {
			log.Warn("metrics: store stats unavailable", "error", err)
		}
		return
	}
	stats := sqlDB.Stats()
	m.storeStats.WithLabelValues("open_connections").Set(float64(stats.OpenConnections))
	m.storeStats.WithLabelValues("in_use").Set(float64(stats.InUse))
	m.storeStats.WithLabelValues("idle").Set(float64(stats.Idle))
	m.storeStats.WithLabelValues("wait_count").Set(float64(stats.WaitCount))
	m.storeStats.WithLabelValues("wait_duration_seconds").Set(stats.WaitDuration.Seconds())
	m.storeStats.WithLabelValues("max_open_connections").Set(float64(stats.MaxOpenConnections))
}

// StartRedisCollector pings rdb until ctx ends. The client is not closed here.
func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb redis.UniversalClient) {
	if m == nil || rdb == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(m.scrapeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil && ctx.Err() == nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}

func orUnknown(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "unknown"
	}
	return v
}

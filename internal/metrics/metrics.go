package metrics

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the analysis engine.
type Metrics struct {
	AnalysesTotal  *prometheus.CounterVec // labels: symbol
	AnalysisDur    prometheus.Histogram
	AnalysisErrors prometheus.Counter

	PatternsDetected *prometheus.CounterVec // labels: pattern
	SignalsTotal     *prometheus.CounterVec // labels: signal

	BarsFetched prometheus.Counter
	FetchErrors prometheus.Counter

	ReportsSaved  prometheus.Counter
	ReportsCached prometheus.Counter
	CacheErrors   prometheus.Counter

	// Redis circuit breaker
	RedisBreakerState   prometheus.Gauge // 0=closed, 1=open, 2=half-open
	RedisBreakerTrips   prometheus.Counter
	RedisBufferedWrites prometheus.Counter

	// Gateway fan-out
	WSClients      prometheus.Gauge
	WSMessagesSent prometheus.Counter

	// Market session state
	MarketState prometheus.Gauge // 0=closed, 1=open
}

// NewMetrics registers and returns all Prometheus metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		AnalysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taengine_analyses_total",
			Help: "Completed analysis runs (by symbol)",
		}, []string{"symbol"}),
		AnalysisDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "taengine_analysis_duration_seconds",
			Help:    "Full pipeline latency per analysis run",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
		AnalysisErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taengine_analysis_errors_total",
			Help: "Analysis runs failed before producing a report",
		}),

		PatternsDetected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taengine_patterns_detected_total",
			Help: "Chart patterns detected (by family)",
		}, []string{"pattern"}),
		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taengine_signals_total",
			Help: "Overall verdicts emitted (by signal)",
		}, []string{"signal"}),

		BarsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taengine_bars_fetched_total",
			Help: "Bars backfilled from the provider",
		}),
		FetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taengine_fetch_errors_total",
			Help: "Provider fetch failures",
		}),

		ReportsSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taengine_reports_saved_total",
			Help: "Reports persisted to SQLite",
		}),
		ReportsCached: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taengine_reports_cached_total",
			Help: "Reports cached and published via Redis",
		}),
		CacheErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taengine_cache_errors_total",
			Help: "Redis cache write failures",
		}),

		RedisBreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "taengine_redis_circuit_breaker_state",
			Help: "Redis circuit breaker state (0=closed, 1=open, 2=half-open)",
		}),
		RedisBreakerTrips: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taengine_redis_circuit_breaker_trips_total",
			Help: "Times the Redis circuit breaker tripped open",
		}),
		RedisBufferedWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taengine_redis_buffered_writes_total",
			Help: "Reports buffered locally during Redis circuit breaker open state",
		}),

		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "taengine_ws_clients",
			Help: "Connected WebSocket clients",
		}),
		WSMessagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taengine_ws_messages_sent_total",
			Help: "Report messages pushed to WebSocket clients",
		}),

		MarketState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "taengine_market_state",
			Help: "Market session state (0=closed, 1=open)",
		}),
	}

	prometheus.MustRegister(
		m.AnalysesTotal,
		m.AnalysisDur,
		m.AnalysisErrors,
		m.PatternsDetected,
		m.SignalsTotal,
		m.BarsFetched,
		m.FetchErrors,
		m.ReportsSaved,
		m.ReportsCached,
		m.CacheErrors,
		m.RedisBreakerState,
		m.RedisBreakerTrips,
		m.RedisBufferedWrites,
		m.WSClients,
		m.WSMessagesSent,
		m.MarketState,
	)

	return m
}

// HealthStatus represents the system health.
type HealthStatus struct {
	mu sync.RWMutex

	ProviderReady    bool      `json:"provider_ready"`
	LastAnalysisTime time.Time `json:"last_analysis_time"`
	RedisConnected   bool      `json:"redis_connected"`
	SQLiteOK         bool      `json:"sqlite_ok"`
	WatchlistSize    int       `json:"watchlist_size"`

	// Liveness probe results
	RedisLatencyMs  float64   `json:"redis_latency_ms"`
	SQLiteLatencyMs float64   `json:"sqlite_latency_ms"`
	LastCheckAt     time.Time `json:"last_check_at"`
	StartedAt       time.Time `json:"started_at"`
}

// NewHealthStatus returns a default health status.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{
		StartedAt: time.Now(),
	}
}

func (h *HealthStatus) SetProviderReady(v bool) {
	h.mu.Lock()
	h.ProviderReady = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetLastAnalysisTime(t time.Time) {
	h.mu.Lock()
	h.LastAnalysisTime = t
	h.mu.Unlock()
}

func (h *HealthStatus) SetRedisConnected(v bool) {
	h.mu.Lock()
	h.RedisConnected = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetSQLiteOK(v bool) {
	h.mu.Lock()
	h.SQLiteOK = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetWatchlistSize(n int) {
	h.mu.Lock()
	h.WatchlistSize = n
	h.mu.Unlock()
}

// CheckRedis pings Redis and records latency + connectivity.
func (h *HealthStatus) CheckRedis(ctx context.Context, rdb *goredis.Client) {
	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start)

	h.mu.Lock()
	h.RedisConnected = err == nil
	h.RedisLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// CheckSQLite runs a trivial query and records latency + health.
func (h *HealthStatus) CheckSQLite(ctx context.Context, db *sql.DB) {
	start := time.Now()
	err := db.PingContext(ctx)
	latency := time.Since(start)

	h.mu.Lock()
	h.SQLiteOK = err == nil
	h.SQLiteLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// StartLivenessChecker runs periodic dependency checks.
func (h *HealthStatus) StartLivenessChecker(ctx context.Context, rdb *goredis.Client, sqlDB *sql.DB, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
				if rdb != nil {
					h.CheckRedis(probeCtx, rdb)
				}
				if sqlDB != nil {
					h.CheckSQLite(probeCtx, sqlDB)
				}
				cancel()
			}
		}
	}()
}

// ServeHTTP handles the /healthz endpoint. The provider is optional, so it
// degrades the report but never fails it; storage losing both legs does.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	overallStatus := "healthy"
	httpCode := http.StatusOK

	if !h.RedisConnected || !h.SQLiteOK {
		overallStatus = "degraded"
		httpCode = http.StatusServiceUnavailable
	}
	if !h.RedisConnected && !h.SQLiteOK {
		overallStatus = "unhealthy"
	}

	analysisAge := ""
	if !h.LastAnalysisTime.IsZero() {
		analysisAge = time.Since(h.LastAnalysisTime).Round(time.Millisecond).String()
	}

	status := struct {
		Status           string  `json:"status"`
		Uptime           string  `json:"uptime"`
		ProviderReady    bool    `json:"provider_ready"`
		LastAnalysisTime string  `json:"last_analysis_time"`
		AnalysisAge      string  `json:"analysis_age"`
		RedisConnected   bool    `json:"redis_connected"`
		RedisLatencyMs   float64 `json:"redis_latency_ms"`
		SQLiteOK         bool    `json:"sqlite_ok"`
		SQLiteLatencyMs  float64 `json:"sqlite_latency_ms"`
		WatchlistSize    int     `json:"watchlist_size"`
		LastCheckAt      string  `json:"last_check_at"`
	}{
		Status:           overallStatus,
		Uptime:           time.Since(h.StartedAt).Round(time.Second).String(),
		ProviderReady:    h.ProviderReady,
		LastAnalysisTime: h.LastAnalysisTime.Format(time.RFC3339),
		AnalysisAge:      analysisAge,
		RedisConnected:   h.RedisConnected,
		RedisLatencyMs:   h.RedisLatencyMs,
		SQLiteOK:         h.SQLiteOK,
		SQLiteLatencyMs:  h.SQLiteLatencyMs,
		WatchlistSize:    h.WatchlistSize,
		LastCheckAt:      h.LastCheckAt.Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if httpCode != http.StatusOK {
		w.WriteHeader(httpCode)
	}
	json.NewEncoder(w).Encode(status)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	health *HealthStatus
	addr   string
	srv    *http.Server
}

// NewServer creates a metrics and health server.
func NewServer(addr string, health *HealthStatus) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", health.ServeHTTP)

	return &Server{
		health: health,
		addr:   addr,
		srv: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[metrics] server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}

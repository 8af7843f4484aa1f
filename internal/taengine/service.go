// Package taengine runs the periodic analysis service: it sweeps the
// watchlist, backfills bar history from the provider, runs the analysis
// pipeline, and distributes the resulting reports through SQLite, Redis and
// the alert notifiers.
package taengine

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"ta-enginev1/internal/analysis"
	"ta-enginev1/internal/logger"
	"ta-enginev1/internal/marketdata"
	"ta-enginev1/internal/markethours"
	"ta-enginev1/internal/metrics"
	"ta-enginev1/internal/model"
	"ta-enginev1/internal/notification"
	redisstore "ta-enginev1/internal/store/redis"
	sqlitestore "ta-enginev1/internal/store/sqlite"
	"ta-enginev1/pkg/smartconnect"
)

const (
	// maxClosedDelay caps the sweep pause while the market is closed, so
	// store-only refreshes keep happening overnight and on weekends.
	maxClosedDelay = time.Hour

	livenessEvery = 15 * time.Second
)

// HistoryProvider backfills bar history from the market data vendor.
type HistoryProvider interface {
	Bars(exchange, token string, from, to time.Time) ([]model.Bar, error)
	ResolveToken(exchange, symbol string) (string, error)
	Close() error
}

// BarStore combines the read and write legs of bar persistence.
type BarStore interface {
	model.BarReader
	model.BarWriter
}

// Service is the top-level orchestrator for the analysis engine.
// It wires all dependencies, manages lifecycle, and runs the sweep loop.
type Service struct {
	cfg Config

	engine   *analysis.Engine
	bars     BarStore
	reports  model.ReportWriter
	cache    model.ReportCache
	provider HistoryProvider
	alerter  *notification.Alerter

	// Concrete handles for liveness probes; nil when the leg is down.
	store *sqlitestore.Store
	rc    *redisstore.Cache

	prom   *metrics.Metrics
	health *metrics.HealthStatus

	instruments []Instrument
}

// New creates a Service from the given Config. It opens SQLite, connects to
// Redis, and configures the provider when credentials are present.
func New(cfg Config) (*Service, error) {
	if cfg.RefreshEvery <= 0 {
		cfg.RefreshEvery = 5 * time.Minute
	}
	if cfg.HistoryDays <= 0 {
		cfg.HistoryDays = 100
	}
	if cfg.Interval == "" {
		cfg.Interval = "ONE_DAY"
	}

	svc := &Service{
		cfg:         cfg,
		engine:      analysis.NewEngine(analysis.DefaultOptions()),
		prom:        metrics.NewMetrics(),
		health:      metrics.NewHealthStatus(),
		instruments: cfg.Instruments,
	}

	// ---- Open SQLite ----
	store, err := sqlitestore.New(sqlitestore.Config{DBPath: cfg.SQLitePath})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	svc.store = store
	svc.bars = store
	svc.reports = store

	// ---- Connect to Redis ----
	cache, err := redisstore.NewCache(redisstore.CacheConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		TTL:      cfg.CacheTTL,
	})
	if err != nil {
		log.Printf("[taengine] WARNING: redis unavailable: %v (reports will not be cached or published)", err)
	} else {
		cache.OnBuffer = func() { svc.prom.RedisBufferedWrites.Inc() }
		cache.OnFlush = func(n int) { svc.prom.ReportsCached.Add(float64(n)) }
		cache.OnBreakerChange = func(from, to redisstore.State) {
			svc.prom.RedisBreakerState.Set(float64(to))
			if to == redisstore.Open {
				svc.prom.RedisBreakerTrips.Inc()
			}
		}
		svc.rc = cache
		svc.cache = cache
	}

	// ---- Provider ----
	if cfg.hasProviderCreds() {
		sc := smartconnect.NewSmartConnect(smartconnect.Config{APIKey: cfg.AngelAPIKey})
		svc.provider = marketdata.NewProvider(sc, marketdata.ProviderConfig{
			ClientCode: cfg.AngelClientCode,
			Password:   cfg.AngelPassword,
			TOTPSecret: cfg.AngelTOTPSecret,
			Interval:   cfg.Interval,
		})
		log.Println("[taengine] provider configured (Angel One historical data)")
	} else {
		log.Println("[taengine] no provider credentials, running store-only")
	}

	// ---- Alert notifiers ----
	notifiers := []notification.Notifier{notification.NewLogNotifier()}
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		notifiers = append(notifiers, notification.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID))
		log.Println("[taengine] telegram alerts enabled")
	}
	if cfg.AlertWebhookURL != "" {
		notifiers = append(notifiers, notification.NewWebhookNotifier(cfg.AlertWebhookURL))
		log.Println("[taengine] webhook alerts enabled")
	}
	svc.alerter = notification.NewAlerter(cfg.AlertMinConfidence, notifiers...)

	return svc, nil
}

// Health exposes the liveness state for the metrics server.
func (s *Service) Health() *metrics.HealthStatus { return s.health }

// Run starts the sweep loop and blocks until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	log.Println("[taengine] starting analysis engine service...")

	s.resolveTokens()
	s.health.SetWatchlistSize(len(s.instruments))

	var rdb *goredis.Client
	if s.rc != nil {
		rdb = s.rc.Client()
	}
	var db *sql.DB
	if s.store != nil {
		db = s.store.DB()
	}
	s.health.StartLivenessChecker(ctx, rdb, db, livenessEvery)

	log.Println("[taengine] ╔═══════════════════════════════════════════════════════════╗")
	log.Println("[taengine] ║  Technical Analysis Engine Active                         ║")
	log.Println("[taengine] ║                                                           ║")
	log.Println("[taengine] ║  [SQLite history] → [Indicators+Patterns] → [Redis pub]   ║")
	log.Printf("[taengine] ║  Watchlist: %-3d symbols, sweep every %-8v             ║", len(s.instruments), s.cfg.RefreshEvery)
	log.Println("[taengine] ╚═══════════════════════════════════════════════════════════╝")
	log.Printf("[taengine] %s", markethours.StatusString(time.Now()))

	// First sweep runs immediately so dashboards fill right after deploy.
	s.sweep(ctx)

	for {
		now := time.Now()
		delay := s.nextDelay(now)
		if !markethours.IsMarketOpen(now) {
			log.Printf("[taengine] ⏸ %s; next sweep in %v", markethours.StatusString(now), delay.Truncate(time.Second))
		}

		select {
		case <-ctx.Done():
			s.shutdown()
			return nil
		case <-time.After(delay):
			s.sweep(ctx)
		}
	}
}

// shutdown logs out of the provider and closes storage.
func (s *Service) shutdown() {
	log.Println("[taengine] shutdown signal received, cleaning up...")

	if s.provider != nil {
		if err := s.provider.Close(); err != nil {
			log.Printf("[taengine] provider logout: %v", err)
		}
	}
	if s.rc != nil {
		s.rc.Close()
	}
	if s.store != nil {
		s.store.Close()
	}

	log.Println("[taengine] shutdown complete.")
}

// resolveTokens fills missing instrument tokens through the provider's
// scrip search.
func (s *Service) resolveTokens() {
	if s.provider == nil {
		return
	}
	for i := range s.instruments {
		inst := &s.instruments[i]
		if inst.Token != "" {
			continue
		}
		token, err := s.provider.ResolveToken(inst.Exchange, inst.Symbol)
		if err != nil {
			log.Printf("[taengine] token lookup for %s failed: %v (no backfill for this symbol)", inst.Symbol, err)
			continue
		}
		inst.Token = token
		log.Printf("[taengine] resolved %s to token %s", inst.Symbol, token)
	}
}

// nextDelay picks the wait before the next sweep: the configured cadence
// while the market is open, otherwise until the next open, capped at
// maxClosedDelay.
func (s *Service) nextDelay(now time.Time) time.Duration {
	if markethours.IsMarketOpen(now) {
		return s.cfg.RefreshEvery
	}
	wait := markethours.NextOpen(now).Sub(now)
	if wait > maxClosedDelay {
		wait = maxClosedDelay
	}
	if wait < s.cfg.RefreshEvery {
		wait = s.cfg.RefreshEvery
	}
	return wait
}

// sweep analyzes every watchlist instrument once.
func (s *Service) sweep(ctx context.Context) {
	now := time.Now()
	if s.prom != nil {
		if markethours.IsMarketOpen(now) {
			s.prom.MarketState.Set(1)
		} else {
			s.prom.MarketState.Set(0)
		}
	}

	done := 0
	for _, inst := range s.instruments {
		if ctx.Err() != nil {
			return
		}
		if err := s.analyzeOne(ctx, inst); err != nil {
			log.Printf("[taengine] %s: %v", inst.Symbol, err)
			if s.prom != nil {
				s.prom.AnalysisErrors.Inc()
			}
			continue
		}
		done++
	}

	if s.health != nil {
		s.health.SetLastAnalysisTime(time.Now())
	}
	log.Printf("[taengine] sweep complete: %d/%d symbols analyzed in %v",
		done, len(s.instruments), time.Since(now).Truncate(time.Millisecond))
}

// analyzeOne refreshes one instrument end to end: backfill, analysis,
// persistence, cache publish and alert evaluation.
func (s *Service) analyzeOne(ctx context.Context, inst Instrument) error {
	now := time.Now()
	ctx = logger.WithTraceID(ctx, logger.GenerateTraceID(inst.Symbol, now))
	from := now.AddDate(0, 0, -s.cfg.HistoryDays)

	if s.provider != nil && inst.Token != "" {
		s.backfill(inst, from, now)
	}

	bars, err := s.bars.ReadBars(inst.Symbol, s.cfg.Interval, from, now)
	if err != nil {
		return fmt.Errorf("load bars: %w", err)
	}
	if len(bars) == 0 {
		return fmt.Errorf("no bar history for interval %s", s.cfg.Interval)
	}

	start := time.Now()
	rep := s.engine.Analyze(bars, model.Request{
		Symbol:     inst.Symbol,
		Interval:   s.cfg.Interval,
		PeriodDays: s.cfg.HistoryDays,
	})
	if s.prom != nil {
		s.prom.AnalysisDur.Observe(time.Since(start).Seconds())
		s.prom.AnalysesTotal.WithLabelValues(inst.Symbol).Inc()
		s.prom.SignalsTotal.WithLabelValues(string(rep.Signals.Overall.Signal)).Inc()
		if rep.Patterns != nil {
			for _, name := range rep.Patterns.Summary.DetectedPatterns {
				s.prom.PatternsDetected.WithLabelValues(name).Inc()
			}
		}
	}

	if err := s.reports.SaveReport(&rep); err != nil {
		log.Printf("[taengine] save report for %s: %v", inst.Symbol, err)
	} else if s.prom != nil {
		s.prom.ReportsSaved.Inc()
	}

	if s.cache != nil {
		if err := s.cache.CacheReport(ctx, &rep); err != nil {
			log.Printf("[taengine] cache report for %s: %v", inst.Symbol, err)
			if s.prom != nil {
				s.prom.CacheErrors.Inc()
			}
		} else if s.prom != nil {
			s.prom.ReportsCached.Inc()
		}
	}

	if s.alerter != nil {
		s.alerter.Evaluate(ctx, &rep)
	}
	return nil
}

// backfill pulls missing history from the provider when the stored series
// is stale by at least one bar span.
func (s *Service) backfill(inst Instrument, from, to time.Time) {
	last, err := s.bars.LatestBarTime(inst.Symbol, s.cfg.Interval)
	if err != nil {
		log.Printf("[taengine] latest bar time for %s: %v", inst.Symbol, err)
	}

	span := marketdata.IntervalDuration(s.cfg.Interval)
	if !last.IsZero() && to.Sub(last) < span {
		return
	}

	fetchFrom := from
	if last.After(from) {
		fetchFrom = last
	}

	bars, err := s.provider.Bars(inst.Exchange, inst.Token, fetchFrom, to)
	if err != nil {
		log.Printf("[taengine] provider fetch for %s: %v", inst.Symbol, err)
		if s.prom != nil {
			s.prom.FetchErrors.Inc()
		}
		if s.health != nil {
			s.health.SetProviderReady(false)
		}
		return
	}
	if s.health != nil {
		s.health.SetProviderReady(true)
	}
	if len(bars) == 0 {
		return
	}

	if err := s.bars.WriteBars(inst.Symbol, s.cfg.Interval, bars); err != nil {
		log.Printf("[taengine] store bars for %s: %v", inst.Symbol, err)
		return
	}
	if s.prom != nil {
		s.prom.BarsFetched.Add(float64(len(bars)))
	}
	log.Printf("[taengine] backfilled %d %s bars for %s", len(bars), s.cfg.Interval, inst.Symbol)
}

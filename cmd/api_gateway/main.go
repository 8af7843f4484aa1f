package main

import (
	"context"
	"database/sql"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ta-enginev1/config"
	"ta-enginev1/internal/analysis"
	"ta-enginev1/internal/api"
	"ta-enginev1/internal/gateway"
	"ta-enginev1/internal/logger"
	"ta-enginev1/internal/metrics"
	redisstore "ta-enginev1/internal/store/redis"
	sqlitestore "ta-enginev1/internal/store/sqlite"
)

func main() {
	logger.Init("api_gateway", slog.LevelInfo)
	log.Println("[api_gateway] starting...")

	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- Redis: live report stream + cache reads ----
	cache, err := redisstore.NewCache(redisstore.CacheConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		log.Fatalf("[api_gateway] redis init failed: %v", err)
	}
	defer cache.Close()

	// ---- SQLite: report fallback for REST reads ----
	store, err := sqlitestore.New(sqlitestore.Config{DBPath: cfg.SQLitePath})
	if err != nil {
		log.Printf("[api_gateway] WARNING: sqlite unavailable: %v (REST serves cache only)", err)
	} else {
		defer store.Close()
	}

	// ---- Metrics & health ----
	prom := metrics.NewMetrics()
	health := metrics.NewHealthStatus()
	health.SetRedisConnected(true)
	var db *sql.DB
	if store != nil {
		health.SetSQLiteOK(true)
		db = store.DB()
	}
	health.StartLivenessChecker(ctx, cache.Client(), db, 15*time.Second)
	metricsSrv := metrics.NewServer(cfg.MetricsAddr, health)
	metricsSrv.Start()

	// ---- WS hub fed by published reports ----
	hub := gateway.NewHub(cache.Client(), prom)
	go hub.Run(ctx)

	// ---- HTTP routes ----
	deps := api.Deps{
		Engine: analysis.NewEngine(analysis.DefaultOptions()),
		Cache:  cache,
	}
	if store != nil {
		deps.Reports = store
	}
	mux := api.NewRouter(deps)
	mux.HandleFunc("/ws", hub.ServeWS)

	srv := &http.Server{Addr: cfg.APIAddr, Handler: mux}
	go func() {
		log.Printf("[api_gateway] listening on %s (REST /api/v1, WS /ws)", cfg.APIAddr)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("[api_gateway] server error: %v", err)
		}
	}()

	// ---- Wait for shutdown signal ----
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Println("[api_gateway] shutdown signal received, cleaning up...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)
	metricsSrv.Stop(shutdownCtx)
	log.Println("[api_gateway] shutdown complete.")
}

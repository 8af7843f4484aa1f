package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"ta-enginev1/config"
	"ta-enginev1/internal/logger"
	"ta-enginev1/internal/metrics"
	"ta-enginev1/internal/taengine"
)

func main() {
	logger.Init("taengine", slog.LevelInfo)

	app := config.Load()
	cfg, err := taengine.ConfigFromApp(app)
	if err != nil {
		log.Fatalf("[taengine] config: %v", err)
	}
	log.Printf("[taengine] watchlist: %d symbols, interval %s, refresh %v",
		len(cfg.Instruments), cfg.Interval, cfg.RefreshEvery)

	os.MkdirAll(filepath.Dir(app.SQLitePath), 0o755)

	svc, err := taengine.New(cfg)
	if err != nil {
		log.Fatalf("[taengine] init failed: %v", err)
	}

	metricsSrv := metrics.NewServer(app.MetricsAddr, svc.Health())
	metricsSrv.Start()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := svc.Run(ctx); err != nil {
		log.Fatalf("[taengine] fatal: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	metricsSrv.Stop(shutdownCtx)
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"workshop/internal/estimate"
	"workshop/internal/httpapi"
	"workshop/internal/notify"
	"workshop/pkg/config"
	"workshop/pkg/db"
	"workshop/pkg/logger"
	"workshop/pkg/metrics"
)

func main() {
	cfg := config.Load()
	log := logger.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, cfg)
	if err != nil {
		log.Fatal("db open", "err", err)
	}
	defer conn.Close()

	if cfg.MigrationsPath != "" {
		if err := db.MigrateConfig(cfg.MigrationsPath, cfg); err != nil {
			log.Fatal("migrate", "err", err)
		}
	}

	m := metrics.New("workshop")

	notifier := &notify.Dispatcher{
		BaseURL: cfg.Notifier.BaseURL,
		Timeout: cfg.Notifier.Timeout,
		Log:     log,
		Metrics: m,
	}

	sweeper := &estimate.Sweeper{
		Estimates: estimate.NewRepository(conn),
		Notifier:  notifier,
		Log:       log,
		Metrics:   m,
		Interval:  cfg.EstimateSweepInterval,
	}
	go sweeper.Run(ctx)

	router := httpapi.NewRouter(httpapi.Dependencies{
		Cfg:      cfg,
		DB:       conn,
		Log:      log,
		Metrics:  m,
		Notifier: notifier,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("http listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http serve", "err", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(shutdownCtx)
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cinsua/masirep-sub002/internal/config"
	"github.com/cinsua/masirep-sub002/internal/infra"
	"github.com/cinsua/masirep-sub002/internal/repository"
	"github.com/cinsua/masirep-sub002/internal/router"
	"github.com/cinsua/masirep-sub002/internal/service"
	"github.com/cinsua/masirep-sub002/internal/worker"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Console output in development, JSON in production.
	if cfg.Env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	var rdb *redis.Client
	if cfg.RedisDisabled {
		log.Warn().Msg("REDIS_DISABLED: no stock cache, no alert queue, per-process rate limits")
	} else if rdb, err = infra.NewRedis(cfg.RedisURL); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Alert pipeline: services enqueue, the pool mails through the breaker.
	// Without redis there is no queue and alerts are dropped.
	smtpCB := infra.NewCircuitBreaker("smtp", infra.DefaultCBConfig())
	var (
		alertas service.AlertaDispatcher
		pool    *worker.Pool
	)
	if rdb != nil {
		mailer := infra.NewMailer(cfg)
		if !mailer.Configurado() {
			log.Warn().Msg("SMTP_HOST not set: stock alerts will be queued but not delivered")
		}
		defer mailer.Close()
		dispatcher := worker.NewDispatcher(rdb)
		alertas = dispatcher
		alertaWorker := worker.NewAlertaWorker(mailer, smtpCB, cfg.AlertasEmail, cfg.PDFStoragePath)
		pool = worker.NewPool(rdb, alertaWorker.Handlers())
		pool.Start(ctx, cfg.WorkerPoolSize)

		stockSvc := service.NewStockService(
			repository.NewItemRepository(db),
			repository.NewJerarquiaRepository(db),
			rdb, cfg.StockCacheTTL, cfg.StockIncluirInactivos,
		)
		worker.StartReporteCron(ctx, worker.ReporteCronConfig{
			Stock:      stockSvc,
			Dispatcher: dispatcher,
			Intervalo:  cfg.ReporteStockIntervalo,
		})
	}

	r, err := router.New(cfg, db, rdb, alertas, smtpCB)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build router")
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("masirep backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	cancel()
	if pool != nil {
		pool.Wait()
	}
	log.Info().Msg("server exited")
}

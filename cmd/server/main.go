package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lojahub/internal/config"
	"lojahub/internal/infra"
	"lojahub/internal/repository"
	"lojahub/internal/router"
	"lojahub/internal/service"
	"lojahub/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Structured logger — dev: pretty, prod: JSON
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	// Circuit breaker shared between the HTTP layer and the health check —
	// one breaker per process guards the Focus gateway.
	focusCB := infra.NewCircuitBreaker(infra.DefaultCBConfig())

	// Async workers are wired here (composition root) so the pool has full
	// access to the infrastructure dependencies.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pedidoRepo := repository.NewPedidoRepository(db)
	estoqueRepo := repository.NewEstoqueRepository(db)
	jobRepo := repository.NewInventoryJobRepository(db)
	estoqueSvc := service.NewEstoqueService(pedidoRepo, estoqueRepo)
	estoqueWorker := worker.NewEstoqueWorker(jobRepo, estoqueSvc, rdb, cfg.JobMaxAttempts)

	workerHandlers := &worker.WorkerHandlers{
		Reconciliacao: worker.NewReconciliacaoWorker(cfg.MLReconcileURL, cfg.ShopeeReconcileURL),
	}
	worker.StartWorkerPool(ctx, rdb, workerHandlers, cfg.WorkerPoolSize)
	worker.StartJobCron(ctx, estoqueWorker, time.Duration(cfg.JobPollIntervalSec)*time.Second)

	r := router.New(cfg, db, rdb, focusCB)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 120 * time.Second, // emission batches poll the gateway
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("lojahub backend listening on :%d", cfg.Port)
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
	log.Info().Msg("server exited")
}

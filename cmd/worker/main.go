package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/loan-intake/internal/bootstrap"
	"github.com/kirillkom/loan-intake/internal/config"
	"github.com/kirillkom/loan-intake/internal/core/domain"
	"github.com/kirillkom/loan-intake/internal/observability/logging"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("loan-intake-worker", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	worker, err := bootstrap.NewWorker(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer worker.Close()

	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: worker.Metrics.Handler(),
	}
	go func() {
		log.Printf("worker metrics listening on :%s", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("worker metrics server error: %v", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	log.Printf("worker subscribed to %s", cfg.NATSSubject)
	err = worker.Queue.SubscribeApplicationEvents(ctx, func(handlerCtx context.Context, event domain.ApplicationEvent) error {
		archiveCtx, cancel := context.WithTimeout(handlerCtx, 1*time.Minute)
		defer cancel()

		worker.Metrics.StartEvent()
		worker.Metrics.ObserveEventLag("loan-intake-worker", time.Since(event.OccurredAt))
		start := time.Now()
		archiveErr := worker.ArchiveUC.HandleEvent(archiveCtx, event)
		worker.Metrics.FinishEvent("loan-intake-worker", event.Action, time.Since(start), archiveErr)
		return archiveErr
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}

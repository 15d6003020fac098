package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/document-extraction/internal/bootstrap"
	"github.com/kirillkom/document-extraction/internal/config"
	"github.com/kirillkom/document-extraction/internal/core/domain"
)

const serviceName = "extraction-worker"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, serviceName)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: app.Metrics.Handler(),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server error: %v", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	log.Printf("worker subscribed to %s and %s", cfg.DocumentsSubject, cfg.CompletionsSubject)
	err = app.Queue.SubscribeTriggers(ctx, func(handlerCtx context.Context, record domain.TriggerRecord) error {
		processCtx, cancel := context.WithTimeout(handlerCtx, 5*time.Minute)
		defer cancel()

		app.Metrics.StartItem()
		start := time.Now()
		_, dispatchErr := app.DispatchUC.DispatchBatch(processCtx, []domain.TriggerRecord{record})
		app.Metrics.FinishItem(serviceName, string(record.Source), time.Since(start), dispatchErr)
		return dispatchErr
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}

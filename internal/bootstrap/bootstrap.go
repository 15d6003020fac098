package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirillkom/document-extraction/internal/config"
	"github.com/kirillkom/document-extraction/internal/core/ports"
	"github.com/kirillkom/document-extraction/internal/core/usecase"
	"github.com/kirillkom/document-extraction/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/document-extraction/internal/infrastructure/ocr"
	"github.com/kirillkom/document-extraction/internal/infrastructure/queue/nats"
	"github.com/kirillkom/document-extraction/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/document-extraction/internal/infrastructure/resilience"
	"github.com/kirillkom/document-extraction/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/document-extraction/internal/observability/logging"
	"github.com/kirillkom/document-extraction/internal/observability/metrics"
)

type App struct {
	Config  config.Config
	Logger  *slog.Logger
	Metrics *metrics.WorkerMetrics

	Queue      *nats.Queue
	Store      ports.DocumentStore
	IngestUC   ports.DocumentIngestor
	DispatchUC ports.TriggerDispatcher

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, service string) (*App, error) {
	logger := logging.NewJSONLogger(service, cfg.LogLevel)
	slog.SetDefault(logger)

	workerMetrics := metrics.NewWorkerMetrics(service)

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.DocumentsSubject, cfg.CompletionsSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	llm := ollama.NewInferenceService(
		ollama.New(cfg.OllamaURL, cfg.OllamaVisionModel, cfg.OllamaGenModel).WithExecutor(executor),
	)

	ocrClient := ocr.New(cfg.OCRBaseURL, ocr.Options{
		PageFetchRate:      cfg.OCRPageFetchRate,
		PageFetchBurst:     cfg.OCRPageFetchBurst,
		ResilienceExecutor: executor,
		OnPageFetched:      workerMetrics.ObserveOCRPage,
	})

	imagesUC := usecase.NewImageExtractionUseCase(storage, llm)
	jobsUC := usecase.NewDocumentJobUseCase(repo, ocrClient, llm, cfg.CompletionsSubject, logger)
	dispatchUC := usecase.NewDispatchUseCase(repo, imagesUC, jobsUC, logger)
	ingestUC := usecase.NewIngestDocumentUseCase(repo, storage, queue)

	return &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: workerMetrics,

		Queue:      queue,
		Store:      repo,
		IngestUC:   ingestUC,
		DispatchUC: dispatchUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

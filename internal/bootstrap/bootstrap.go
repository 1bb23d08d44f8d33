package bootstrap

import (
	"context"
	"fmt"

	"github.com/kirillkom/loan-intake/internal/config"
	"github.com/kirillkom/loan-intake/internal/core/ports"
	"github.com/kirillkom/loan-intake/internal/core/usecase"
	"github.com/kirillkom/loan-intake/internal/infrastructure/archive/localfs"
	"github.com/kirillkom/loan-intake/internal/infrastructure/archive/postgres"
	"github.com/kirillkom/loan-intake/internal/infrastructure/idgen"
	"github.com/kirillkom/loan-intake/internal/infrastructure/inspector/pdfinspect"
	"github.com/kirillkom/loan-intake/internal/infrastructure/provider/gemini"
	"github.com/kirillkom/loan-intake/internal/infrastructure/queue/nats"
	"github.com/kirillkom/loan-intake/internal/infrastructure/report/excel"
	"github.com/kirillkom/loan-intake/internal/infrastructure/resilience"
	"github.com/kirillkom/loan-intake/internal/infrastructure/store/memory"
	"github.com/kirillkom/loan-intake/internal/observability/metrics"
)

// API wires the applicant/reviewer-facing service: in-memory store, decision
// provider, event queue, use cases.
type API struct {
	Config config.Config

	SubmitUC   ports.ApplicationSubmitter
	OverrideUC ports.DecisionOverrider
	ReviewUC   ports.ReviewQueue
	Reader     ports.ApplicationReader
	Exporter   *excel.Exporter
	Metrics    *metrics.HTTPServerMetrics

	closeFn func()
}

func NewAPI(_ context.Context, cfg config.Config) (*API, error) {
	rules, err := gemini.LoadRules(cfg.DecisionRulesPath)
	if err != nil {
		return nil, fmt.Errorf("load decision rules: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultPolicy())
	provider := gemini.New(cfg.GeminiURL, cfg.GeminiModel, cfg.GeminiAPIKey, rules, executor)

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init event queue: %w", err)
	}

	store := memory.New()
	inspector := pdfinspect.New(cfg.PreviewMaxChars)

	submitUC := usecase.NewSubmitApplicationUseCase(store, provider, idgen.UUID{}, inspector, queue)
	overrideUC := usecase.NewOverrideDecisionUseCase(store, queue)
	reviewUC := usecase.NewReviewQueueUseCase(store)

	return &API{
		Config: cfg,

		SubmitUC:   submitUC,
		OverrideUC: overrideUC,
		ReviewUC:   reviewUC,
		Reader:     store,
		Exporter:   excel.New(),
		Metrics:    metrics.NewHTTPServerMetrics("loan-intake-api"),

		closeFn: func() {
			queue.Close()
		},
	}, nil
}

func (a *API) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

// Worker wires the archive consumer: event queue subscription, Postgres
// audit archive, filesystem payload retention.
type Worker struct {
	Config config.Config

	Queue     ports.EventSubscriber
	ArchiveUC *usecase.ArchiveEventUseCase
	Metrics   *metrics.WorkerMetrics

	closeFn func()
}

func NewWorker(ctx context.Context, cfg config.Config) (*Worker, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	archive := postgres.NewEventArchive(db)
	if err := archive.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	payloads, err := localfs.New(cfg.DocumentArchivePath)
	if err != nil {
		return nil, fmt.Errorf("init payload archive: %w", err)
	}

	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject)
	if err != nil {
		return nil, fmt.Errorf("init event queue: %w", err)
	}

	return &Worker{
		Config: cfg,

		Queue:     queue,
		ArchiveUC: usecase.NewArchiveEventUseCase(archive, payloads),
		Metrics:   metrics.NewWorkerMetrics("loan-intake-worker"),

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (w *Worker) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

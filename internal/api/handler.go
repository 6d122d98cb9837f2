package api

import (
	"context"
	"log/slog"

	"github.com/shaiso/stepflow/internal/chain"
	"github.com/shaiso/stepflow/internal/repo"
	"github.com/shaiso/stepflow/internal/telemetry"
	"github.com/shaiso/stepflow/internal/worker"
)

// InvocationReader — чтение журнала вызовов.
// Реализуется *repo.InvocationRepo.
type InvocationReader interface {
	ListByGUID(ctx context.Context, guid string) ([]repo.Invocation, error)
	ListRecent(ctx context.Context, limit int) ([]repo.Invocation, error)
}

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	executor    *worker.Executor
	runner      *chain.Runner
	invocations InvocationReader
	metrics     *telemetry.Metrics
	logger      *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Executor *worker.Executor

	// Runner — исполнитель цепочек (default: поверх Executor).
	Runner *chain.Runner

	// Invocations — журнал для чтения (опционально).
	Invocations InvocationReader

	Metrics *telemetry.Metrics
	Logger  *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	executor := cfg.Executor
	if executor == nil {
		executor = worker.NewExecutor(worker.ExecutorConfig{Metrics: cfg.Metrics, Logger: logger})
	}

	runner := cfg.Runner
	if runner == nil {
		runner = chain.NewRunner(chain.RunnerConfig{
			Invoker: executor,
			Metrics: cfg.Metrics,
			Logger:  logger,
		})
	}

	return &Handler{
		executor:    executor,
		runner:      runner,
		invocations: cfg.Invocations,
		metrics:     cfg.Metrics,
		logger:      logger,
	}
}

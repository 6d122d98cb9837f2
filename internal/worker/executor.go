package worker

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/shaiso/stepflow/internal/envelope"
	"github.com/shaiso/stepflow/internal/repo"
	"github.com/shaiso/stepflow/internal/steps"
	"github.com/shaiso/stepflow/internal/telemetry"
)

// Executor вызывает шаги из реестра для всех транспортов (HTTP, AMQP, цепочки).
//
// Помимо вызова:
//   - проверяет конверт ответа; нарушение протокола заменяется на Exception
//   - паника шага тоже становится Exception
//   - пишет метрики
//   - записывает вызов в журнал (если он задан)
//
// Ошибка журнала логируется и никогда не меняет ответ.
type Executor struct {
	registry *steps.Registry
	journal  repo.Journal
	metrics  *telemetry.Metrics
	logger   *slog.Logger
}

// ExecutorConfig — конфигурация Executor.
type ExecutorConfig struct {
	Registry *steps.Registry
	Journal  repo.Journal // опционально
	Metrics  *telemetry.Metrics
	Logger   *slog.Logger
}

// NewExecutor создаёт Executor. Registry == nil — стандартные шаги.
func NewExecutor(cfg ExecutorConfig) *Executor {
	registry := cfg.Registry
	if registry == nil {
		registry = steps.DefaultRegistry(steps.Options{})
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Executor{
		registry: registry,
		journal:  cfg.Journal,
		metrics:  cfg.Metrics,
		logger:   logger,
	}
}

// Registry возвращает реестр шагов.
func (e *Executor) Registry() *steps.Registry {
	return e.registry
}

// Execute вызывает шаг.
//
// Возвращает steps.ErrStepNotFound, если шаг не зарегистрирован:
// транспорт сам решает, как сообщить об этом вызывающему.
func (e *Executor) Execute(ctx context.Context, transport, step string, req envelope.Request) (envelope.Response, time.Duration, error) {
	unit, err := e.registry.Get(step)
	if err != nil {
		return envelope.Response{}, 0, err
	}

	logger := telemetry.WithStep(telemetry.WithGUID(e.logger, req.GUID), step)

	start := time.Now()
	resp := e.process(unit, step, req, logger)
	elapsed := time.Since(start)

	if err := envelope.Validate(resp); err != nil {
		e.metrics.ProtocolViolation(step)
		logger.Error("step returned invalid envelope", "error", err, "transport", transport)
		resp = envelope.Exception("internal error: " + err.Error())
	}

	e.metrics.ObserveInvocation(step, string(resp.Result), elapsed)

	logger.Debug("step invoked",
		"transport", transport,
		"result", resp.Result,
		"status_code", resp.StatusCode,
		"duration", elapsed,
	)

	if e.journal != nil {
		inv := repo.NewInvocation(step, transport, req, resp, elapsed)
		if err := e.journal.Record(ctx, inv); err != nil {
			logger.Warn("failed to journal invocation", "error", err)
		}
	}

	return resp, elapsed, nil
}

// process вызывает шаг; паника шага не выходит за пределы хоста.
func (e *Executor) process(unit steps.Unit, step string, req envelope.Request, logger *slog.Logger) (resp envelope.Response) {
	defer func() {
		if r := recover(); r != nil {
			e.metrics.ProtocolViolation(step)
			logger.Error("step panicked", "panic", r, "stack", string(debug.Stack()))
			resp = envelope.Exception(fmt.Sprintf("internal error: %v", r))
		}
	}()

	return unit.Process(req)
}

// Invoke реализует chain.Invoker поверх Execute.
func (e *Executor) Invoke(ctx context.Context, step string, req envelope.Request) (envelope.Response, error) {
	resp, _, err := e.Execute(ctx, repo.TransportChain, step, req)
	return resp, err
}

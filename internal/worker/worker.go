package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/shaiso/stepflow/internal/mq"
)

const defaultPrefetch = 5

// CompletionPublisher публикует результаты вызовов.
// Реализуется *mq.Publisher.
type CompletionPublisher interface {
	PublishStepCompleted(ctx context.Context, replyTo string, payload mq.StepCompletedPayload) error
}

// Worker обслуживает вызовы шагов из очереди steps.invoke.
//
// Worker — stateless компонент: несколько экземпляров могут
// потреблять из одной очереди.
type Worker struct {
	executor  *Executor
	publisher CompletionPublisher
	conn      *mq.Connection
	consumer  *mq.Consumer
	prefetch  int

	// Lifecycle
	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	stopped    bool
	stoppedMu  sync.RWMutex
}

// Config — конфигурация Worker.
type Config struct {
	Executor  *Executor
	Publisher CompletionPublisher
	Conn      *mq.Connection

	// Prefetch — сообщений на канал (default: 5).
	Prefetch int

	Logger *slog.Logger
}

// New создаёт новый Worker.
func New(cfg Config) *Worker {
	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = defaultPrefetch
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	executor := cfg.Executor
	if executor == nil {
		executor = NewExecutor(ExecutorConfig{Logger: logger})
	}

	return &Worker{
		executor:  executor,
		publisher: cfg.Publisher,
		conn:      cfg.Conn,
		prefetch:  prefetch,
		logger:    logger,
	}
}

// Start запускает consumer для steps.invoke.
func (w *Worker) Start(ctx context.Context) error {
	if w.IsStopped() {
		return ErrWorkerStopped
	}

	ctx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel

	w.logger.Info("starting worker",
		"queue", mq.QueueStepsInvoke,
		"prefetch", w.prefetch,
		"steps", w.executor.Registry().Names(),
	)

	w.consumer = mq.NewConsumer(w.conn, w.logger, mq.ConsumerConfig{
		Queue:    string(mq.QueueStepsInvoke),
		Handler:  w.handleStepInvoke,
		Prefetch: w.prefetch,
	})

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if err := w.consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.Error("step consumer error", "error", err)
		}
	}()

	w.logger.Info("worker started")
	return nil
}

// Stop останавливает Worker.
func (w *Worker) Stop() {
	w.stoppedMu.Lock()
	w.stopped = true
	w.stoppedMu.Unlock()

	w.logger.Info("stopping worker...")

	if w.cancelFunc != nil {
		w.cancelFunc()
	}

	if w.consumer != nil {
		w.consumer.Stop()
	}

	w.wg.Wait()

	w.logger.Info("worker stopped")
}

// IsStopped проверяет, остановлен ли Worker.
func (w *Worker) IsStopped() bool {
	w.stoppedMu.RLock()
	defer w.stoppedMu.RUnlock()
	return w.stopped
}

package worker

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/shaiso/stepflow/internal/envelope"
	"github.com/shaiso/stepflow/internal/mq"
	"github.com/shaiso/stepflow/internal/repo"
	"github.com/shaiso/stepflow/internal/steps"
)

// handleStepInvoke обрабатывает сообщение step.invoke.
//
// Некорректный payload отклоняется в DLQ. Неизвестный шаг — не ошибка
// доставки: вызывающий получает Failure 404. Ошибка публикации
// возвращает сообщение в очередь.
func (w *Worker) handleStepInvoke(ctx context.Context, delivery *mq.Delivery) error {
	if delivery.Message.Type != "" && delivery.Message.Type != mq.MessageTypeStepInvoke {
		return fmt.Errorf("%w: %w: unexpected type %q", mq.ErrReject, ErrInvalidPayload, delivery.Message.Type)
	}

	payload, err := mq.ParsePayload[mq.StepInvokePayload](&delivery.Message)
	if err != nil {
		return fmt.Errorf("%w: %w: %v", mq.ErrReject, ErrInvalidPayload, err)
	}
	if payload.Step == "" {
		return fmt.Errorf("%w: %w: step is required", mq.ErrReject, ErrInvalidPayload)
	}

	w.logger.Debug("received step.invoke",
		"message_id", delivery.Message.ID,
		"step", payload.Step,
		"guid", payload.Request.GUID,
	)

	completed := w.process(ctx, payload)

	if err := w.publisher.PublishStepCompleted(ctx, payload.ReplyTo, completed); err != nil {
		return fmt.Errorf("publish step.completed: %w", err)
	}

	return nil
}

// process вызывает шаг и формирует payload step.completed.
func (w *Worker) process(ctx context.Context, payload mq.StepInvokePayload) mq.StepCompletedPayload {
	resp, elapsed, err := w.executor.Execute(ctx, repo.TransportAMQP, payload.Step, payload.Request)
	switch {
	case errors.Is(err, steps.ErrStepNotFound):
		resp = envelope.Failure(http.StatusNotFound, err.Error())
	case err != nil:
		w.logger.Error("step execution failed", "step", payload.Step, "error", err)
		resp = envelope.Failure(http.StatusServiceUnavailable, err.Error())
	}

	return mq.StepCompletedPayload{
		Step:       payload.Step,
		GUID:       payload.Request.GUID,
		Response:   resp,
		DurationMs: elapsed.Milliseconds(),
	}
}

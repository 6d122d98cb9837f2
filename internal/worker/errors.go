package worker

import "errors"

// Ошибки воркера.
var (
	// ErrInvalidPayload — сообщение step.invoke не разбирается.
	ErrInvalidPayload = errors.New("invalid step.invoke payload")

	// ErrWorkerStopped — воркер остановлен.
	ErrWorkerStopped = errors.New("worker stopped")
)

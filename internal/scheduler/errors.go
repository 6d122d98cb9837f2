package scheduler

import "errors"

var (
	// ErrInvalidCron — cron-выражение не разбирается.
	ErrInvalidCron = errors.New("invalid cron expression")

	// ErrNoNextRun — расписание больше не срабатывает.
	ErrNoNextRun = errors.New("schedule has no next run")

	// ErrNoJob — у Prober нет задачи.
	ErrNoJob = errors.New("prober job is not set")
)

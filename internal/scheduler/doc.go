// Package scheduler запускает периодические проверки по cron-расписанию.
//
// Prober выполняет задачу (обычно toolkit.Harness.Run) по расписанию
// до отмены контекста. Ошибка запуска логируется и учитывается в метриках,
// следующий запуск происходит по расписанию.
//
// Структура:
//   - prober.go — Prober (Tick, Run)
//   - cron.go   — разбор cron-выражений и вычисление следующего времени
//
// Использование:
//
//	p, err := scheduler.New(scheduler.Config{
//	    Name:    "smoke",
//	    Spec:    "*/5 * * * *",
//	    Job:     func(ctx context.Context) error { _, err := harness.Run(ctx); return err },
//	    Metrics: metrics,
//	    Logger:  logger,
//	})
//	if err != nil {
//	    return err
//	}
//	err = p.Run(ctx) // блокирует до отмены ctx
package scheduler

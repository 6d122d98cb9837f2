package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/shaiso/stepflow/internal/telemetry"
)

// Job — периодическая задача.
type Job func(ctx context.Context) error

// Prober — периодический запуск Job по cron-расписанию.
type Prober struct {
	name       string
	spec       string
	schedule   cron.Schedule
	job        Job
	timeout    time.Duration
	runOnStart bool
	metrics    *telemetry.Metrics
	logger     *slog.Logger
}

// Config — конфигурация Prober.
type Config struct {
	// Name — имя проверки в логах и метриках (default: "probe").
	Name string

	// Spec — cron-выражение. Игнорируется, если задан Schedule.
	Spec string

	// Schedule — готовое расписание (опционально).
	Schedule cron.Schedule

	Job Job

	// Timeout — предел одного запуска (0 — без предела).
	Timeout time.Duration

	// RunOnStart — выполнить Job сразу при старте Run.
	RunOnStart bool

	Metrics *telemetry.Metrics
	Logger  *slog.Logger
}

// New создаёт Prober.
func New(cfg Config) (*Prober, error) {
	if cfg.Job == nil {
		return nil, ErrNoJob
	}

	schedule := cfg.Schedule
	if schedule == nil {
		s, err := ParseSchedule(cfg.Spec)
		if err != nil {
			return nil, err
		}
		schedule = s
	}

	name := cfg.Name
	if name == "" {
		name = "probe"
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Prober{
		name:       name,
		spec:       cfg.Spec,
		schedule:   schedule,
		job:        cfg.Job,
		timeout:    cfg.Timeout,
		runOnStart: cfg.RunOnStart,
		metrics:    cfg.Metrics,
		logger:     logger.With("probe", name),
	}, nil
}

// Tick выполняет один запуск Job.
//
// Паника задачи превращается в ошибку. Ошибка логируется и учитывается
// в метриках, но расписание не останавливает.
func (p *Prober) Tick(ctx context.Context) (err error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("probe panic: %v", r)
		}

		if err != nil {
			p.metrics.ProbeRun(p.name, "error")
			p.logger.Error("probe failed", "duration", time.Since(start), "error", err)
			return
		}
		p.metrics.ProbeRun(p.name, "ok")
		p.logger.Info("probe completed", "duration", time.Since(start))
	}()

	return p.job(ctx)
}

// Run запускает Job по расписанию до отмены ctx.
//
// Возвращает ctx.Err() при остановке или ErrNoNextRun,
// если расписание больше не срабатывает.
func (p *Prober) Run(ctx context.Context) error {
	p.logger.Info("prober started", "spec", p.spec)

	if p.runOnStart {
		_ = p.Tick(ctx)
	}

	for {
		now := time.Now()
		next := p.schedule.Next(now)
		if next.IsZero() {
			return ErrNoNextRun
		}

		p.logger.Debug("next probe scheduled", "at", next)

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			p.logger.Info("prober stopped")
			return ctx.Err()

		case <-timer.C:
			_ = p.Tick(ctx)
		}
	}
}

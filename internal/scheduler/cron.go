package scheduler

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser — парсер cron-выражений: 5 полей или дескриптор (@hourly, @every 5m).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSchedule разбирает cron-выражение.
func ParseSchedule(cronExpr string) (cron.Schedule, error) {
	expr := strings.TrimSpace(cronExpr)
	if expr == "" {
		return nil, fmt.Errorf("%w: empty expression", ErrInvalidCron)
	}

	schedule, err := cronParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidCron, expr, err)
	}
	return schedule, nil
}

// ValidateCronExpr проверяет валидность cron-выражения.
func ValidateCronExpr(cronExpr string) error {
	_, err := ParseSchedule(cronExpr)
	return err
}

// NextRun вычисляет следующее время запуска после from.
//
// Выражение вычисляется в timezone tz; пустой или неизвестный tz — UTC.
// Результат возвращается в UTC.
func NextRun(cronExpr string, from time.Time, tz string) (time.Time, error) {
	schedule, err := ParseSchedule(cronExpr)
	if err != nil {
		return time.Time{}, err
	}

	loc := time.UTC
	if tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		}
	}

	next := schedule.Next(from.In(loc))
	if next.IsZero() {
		return time.Time{}, fmt.Errorf("%w: %q", ErrNoNextRun, cronExpr)
	}
	return next.UTC(), nil
}

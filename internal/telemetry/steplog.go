package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// ErrInvalidSeverity — уровень не входит в шкалу журнала шагов.
var ErrInvalidSeverity = errors.New("invalid severity")

// StepTimestampFormat — ISO-8601 с микросекундами, всегда UTC.
const StepTimestampFormat = "2006-01-02T15:04:05.000000"

// Severity — уровень записи журнала шагов.
type Severity string

// Шкала уровней журнала шагов (по возрастанию).
const (
	SeverityDebug     Severity = "Debug"
	SeverityInfo      Severity = "Info"
	SeverityWarn      Severity = "Warn"
	SeverityError     Severity = "Error"
	SeverityAlert     Severity = "Alert"
	SeverityCritical  Severity = "Critical"
	SeverityEmergency Severity = "Emergency"
)

// Severities возвращает все уровни по возрастанию.
func Severities() []Severity {
	return []Severity{
		SeverityDebug,
		SeverityInfo,
		SeverityWarn,
		SeverityError,
		SeverityAlert,
		SeverityCritical,
		SeverityEmergency,
	}
}

// IsValid возвращает true для уровней из шкалы.
func (s Severity) IsValid() bool {
	_, ok := severityLevels[s]
	return ok
}

// Level возвращает соответствующий slog.Level.
// Alert, Critical и Emergency лежат выше slog.LevelError.
func (s Severity) Level() slog.Level {
	return severityLevels[s]
}

var severityLevels = map[Severity]slog.Level{
	SeverityDebug:     slog.LevelDebug,
	SeverityInfo:      slog.LevelInfo,
	SeverityWarn:      slog.LevelWarn,
	SeverityError:     slog.LevelError,
	SeverityAlert:     slog.LevelError + 2,
	SeverityCritical:  slog.LevelError + 4,
	SeverityEmergency: slog.LevelError + 8,
}

// ParseSeverity разбирает уровень. Сравнение регистрозависимое,
// как и в записях журнала.
func ParseSeverity(s string) (Severity, error) {
	sev := Severity(s)
	if !sev.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidSeverity, s)
	}
	return sev, nil
}

// StepRecord — одна запись журнала шагов.
type StepRecord struct {
	TimestampUtc string   `json:"TimestampUtc"`
	Severity     Severity `json:"Severity"`
	Message      string   `json:"Message"`
}

// StepLogOptions — настройки журнала шагов.
type StepLogOptions struct {
	// Out — sink для JSON-строк. nil — записи не пишутся.
	Out io.Writer

	// Mirror — дублирование записей в логгер процесса. nil — без дублирования.
	Mirror *slog.Logger

	// Now — источник времени (для тестов). По умолчанию time.Now.
	Now func() time.Time
}

// StepLogger пишет журнал одного шага.
//
// Каждое сообщение получает префикс "[step] ". Логгеры, полученные через
// Named, делят sink и mutex с родителем. Журнал носит рекомендательный
// характер: ошибки записи не должны влиять на ответ шага.
type StepLogger struct {
	step   string
	out    io.Writer
	mirror *slog.Logger
	now    func() time.Time
	mu     *sync.Mutex
}

// NewStepLogger создаёт журнал для шага.
func NewStepLogger(step string, opts StepLogOptions) *StepLogger {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &StepLogger{
		step:   step,
		out:    opts.Out,
		mirror: opts.Mirror,
		now:    now,
		mu:     &sync.Mutex{},
	}
}

// DiscardStepLogger возвращает журнал, который только валидирует уровни.
func DiscardStepLogger(step string) *StepLogger {
	return NewStepLogger(step, StepLogOptions{})
}

// Named возвращает журнал другого шага с теми же sink'ами.
func (l *StepLogger) Named(step string) *StepLogger {
	if l == nil {
		return DiscardStepLogger(step)
	}
	return &StepLogger{
		step:   step,
		out:    l.out,
		mirror: l.mirror,
		now:    l.now,
		mu:     l.mu,
	}
}

// Step возвращает имя шага.
func (l *StepLogger) Step() string {
	return l.step
}

// Header возвращает префикс сообщений.
func (l *StepLogger) Header() string {
	return "[" + l.step + "] "
}

// Log пишет запись.
//
// Невалидный уровень — ErrInvalidSeverity, даже если сообщение пустое.
// Пустые и пробельные сообщения пропускаются.
func (l *StepLogger) Log(sev Severity, msg string) error {
	if !sev.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidSeverity, sev)
	}
	if l == nil || strings.TrimSpace(msg) == "" {
		return nil
	}

	rec := StepRecord{
		TimestampUtc: l.now().UTC().Format(StepTimestampFormat),
		Severity:     sev,
		Message:      l.Header() + msg,
	}

	if l.mirror != nil {
		l.mirror.Log(context.Background(), sev.Level(), rec.Message,
			"step", l.step,
			"severity", sev,
		)
	}

	if l.out == nil {
		return nil
	}

	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal step record: %w", err)
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.out.Write(line); err != nil {
		return fmt.Errorf("write step record: %w", err)
	}
	return nil
}

// Debug пишет запись уровня Debug.
func (l *StepLogger) Debug(msg string) { _ = l.Log(SeverityDebug, msg) }

// Info пишет запись уровня Info.
func (l *StepLogger) Info(msg string) { _ = l.Log(SeverityInfo, msg) }

// Warn пишет запись уровня Warn.
func (l *StepLogger) Warn(msg string) { _ = l.Log(SeverityWarn, msg) }

// Error пишет запись уровня Error.
func (l *StepLogger) Error(msg string) { _ = l.Log(SeverityError, msg) }

// Critical пишет запись уровня Critical.
func (l *StepLogger) Critical(msg string) { _ = l.Log(SeverityCritical, msg) }

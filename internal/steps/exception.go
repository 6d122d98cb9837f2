package steps

import (
	"github.com/shaiso/stepflow/internal/envelope"
	"github.com/shaiso/stepflow/internal/telemetry"
)

const (
	// StepException — шаг-обработчик исключений.
	StepException = "exception"

	exceptionMessage = "Exception raised"
)

// ExceptionStep — цель Exception-ребра цепочки.
//
// Пишет в журнал пришедшие данные и всегда отвечает Success,
// завершая цепочку. Data не декодируется: обработчик должен
// принять даже невалидный вход.
type ExceptionStep struct {
	log *telemetry.StepLogger
}

// NewExceptionStep создаёт ExceptionStep.
func NewExceptionStep(log *telemetry.StepLogger) *ExceptionStep {
	return &ExceptionStep{log: log.Named(StepException)}
}

// Name возвращает имя шага.
func (s *ExceptionStep) Name() string {
	return StepException
}

// Process фиксирует исключение.
func (s *ExceptionStep) Process(req envelope.Request) envelope.Response {
	return Run(s.log, req, func() (envelope.Response, error) {
		if text, err := req.Text(); err == nil && req.HasData() {
			s.log.Error("exception data: " + text)
		} else {
			s.log.Error("exception data (raw): " + req.Data)
		}
		return envelope.SuccessText(exceptionMessage), nil
	})
}

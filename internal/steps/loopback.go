package steps

import (
	"github.com/shaiso/stepflow/internal/envelope"
	"github.com/shaiso/stepflow/internal/telemetry"
)

const (
	// StepLoopbackGet — шаг loopback GET.
	StepLoopbackGet = "loopback-get"

	loopbackMessage = "Hello from the loopback GET method"
)

// LoopbackGetStep отвечает фиксированным приветствием. Data игнорируется.
type LoopbackGetStep struct {
	log *telemetry.StepLogger
}

// NewLoopbackGetStep создаёт LoopbackGetStep.
func NewLoopbackGetStep(log *telemetry.StepLogger) *LoopbackGetStep {
	return &LoopbackGetStep{log: log.Named(StepLoopbackGet)}
}

// Name возвращает имя шага.
func (s *LoopbackGetStep) Name() string {
	return StepLoopbackGet
}

// Process возвращает приветствие.
func (s *LoopbackGetStep) Process(req envelope.Request) envelope.Response {
	return Run(s.log, req, func() (envelope.Response, error) {
		s.log.Debug("request received " + req.GUID + " data: " + req.Data)
		return envelope.SuccessText(loopbackMessage), nil
	})
}

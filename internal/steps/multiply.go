package steps

import (
	"math/big"

	"github.com/shaiso/stepflow/internal/envelope"
	"github.com/shaiso/stepflow/internal/telemetry"
)

const (
	// StepMultiply — шаг умножения.
	StepMultiply = "multiply"

	defaultMultiplyFactor int64 = 5
)

// MultiplyStep умножает целое из Data на фиксированный множитель.
//
// Вход: base64("10"). Выход: base64("50").
type MultiplyStep struct {
	factor int64
	log    *telemetry.StepLogger
}

// NewMultiplyStep создаёт MultiplyStep. factor <= 0 — множитель по умолчанию (5).
func NewMultiplyStep(factor int64, log *telemetry.StepLogger) *MultiplyStep {
	if factor <= 0 {
		factor = defaultMultiplyFactor
	}
	return &MultiplyStep{
		factor: factor,
		log:    log.Named(StepMultiply),
	}
}

// Name возвращает имя шага.
func (s *MultiplyStep) Name() string {
	return StepMultiply
}

// Process умножает вход.
func (s *MultiplyStep) Process(req envelope.Request) envelope.Response {
	return Run(s.log, req, func() (envelope.Response, error) {
		val, err := DecodeInt(req)
		if err != nil {
			return envelope.Response{}, err
		}

		product := val.Mul(val, big.NewInt(s.factor))
		return envelope.SuccessText(product.String()), nil
	})
}

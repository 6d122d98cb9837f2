package steps

import (
	"math"
	"math/big"

	"github.com/shaiso/stepflow/internal/envelope"
	"github.com/shaiso/stepflow/internal/telemetry"
)

// StepSqrt — шаг квадратного корня.
const StepSqrt = "sqrt"

// SqrtStep возвращает квадратный корень целого из Data, округлённый до целого.
//
// Корень считается в float64, округление банковское (половина — к чётному).
// Отрицательный вход и вход вне диапазона float64 — DomainError, ответ Exception.
type SqrtStep struct {
	log *telemetry.StepLogger
}

// NewSqrtStep создаёт SqrtStep.
func NewSqrtStep(log *telemetry.StepLogger) *SqrtStep {
	return &SqrtStep{log: log.Named(StepSqrt)}
}

// Name возвращает имя шага.
func (s *SqrtStep) Name() string {
	return StepSqrt
}

// Process вычисляет корень.
func (s *SqrtStep) Process(req envelope.Request) envelope.Response {
	return Run(s.log, req, func() (envelope.Response, error) {
		val, err := DecodeInt(req)
		if err != nil {
			return envelope.Response{}, err
		}

		if val.Sign() < 0 {
			return envelope.Response{}, NewDomainError("math domain error: sqrt of "+val.String(), "")
		}

		f, _ := new(big.Float).SetInt(val).Float64()
		if math.IsInf(f, 0) {
			return envelope.Response{}, NewDomainError("int too large to convert to float", "")
		}

		rounded, _ := big.NewFloat(math.RoundToEven(math.Sqrt(f))).Int(nil)
		return envelope.SuccessText(rounded.String()), nil
	})
}

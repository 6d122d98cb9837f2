package steps

import (
	"math/rand/v2"
	"strconv"

	"github.com/shaiso/stepflow/internal/envelope"
	"github.com/shaiso/stepflow/internal/telemetry"
)

const (
	// StepGenerator — шаг-генератор случайного числа.
	StepGenerator = "generator"

	generatorMax = 100
)

// DrawFunc возвращает случайное целое в [0, n).
// Должна быть безопасна для конкурентного вызова.
type DrawFunc func(n int) int

// GeneratorStep генерирует случайное число в [0, 100].
//
// Data запроса игнорируется. Если число делится на 3 — DomainError,
// ответ Exception с этим числом в Data; иначе Success с числом.
type GeneratorStep struct {
	draw DrawFunc
	log  *telemetry.StepLogger
}

// NewGeneratorStep создаёт GeneratorStep. draw == nil — math/rand/v2.
func NewGeneratorStep(draw DrawFunc, log *telemetry.StepLogger) *GeneratorStep {
	if draw == nil {
		draw = rand.IntN
	}
	return &GeneratorStep{
		draw: draw,
		log:  log.Named(StepGenerator),
	}
}

// Name возвращает имя шага.
func (s *GeneratorStep) Name() string {
	return StepGenerator
}

// Process генерирует число.
func (s *GeneratorStep) Process(req envelope.Request) envelope.Response {
	return Run(s.log, req, func() (envelope.Response, error) {
		val := s.draw(generatorMax + 1)
		text := strconv.Itoa(val)
		s.log.Info("generated " + text)

		if val%3 == 0 {
			return envelope.Response{}, NewDomainError("generated number was evenly divisible by 3", text)
		}

		return envelope.SuccessText(text), nil
	})
}

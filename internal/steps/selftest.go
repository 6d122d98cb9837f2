package steps

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strconv"

	"github.com/shaiso/stepflow/internal/envelope"
)

// SelfTestGUID — GUID синтетических запросов self-test.
const SelfTestGUID = "abcd"

// SelfTest — ручная проверка шага без сети.
//
// Строит синтетический Request, вызывает Process и печатает сырой ответ
// и декодированный Data. Выключен по умолчанию; включается конфигурацией,
// оркестратор его не вызывает.
type SelfTest struct {
	Enabled bool
	Out     io.Writer
}

// Run выполняет self-test шага с указанным запросом.
func (t SelfTest) Run(unit Unit, req envelope.Request) (envelope.Response, error) {
	if !t.Enabled {
		return envelope.Response{}, ErrSelfTestDisabled
	}

	out := t.Out
	if out == nil {
		out = os.Stdout
	}

	resp := unit.Process(req)

	raw, err := json.Marshal(resp)
	if err != nil {
		return resp, fmt.Errorf("marshal response: %w", err)
	}

	decoded, err := resp.Text()
	if err != nil {
		decoded = "<undecodable: " + err.Error() + ">"
	}

	fmt.Fprintf(out, "Response      : %s\n", raw)
	fmt.Fprintf(out, "Decoded data  : %s\n", decoded)

	return resp, nil
}

// RunDefault выполняет self-test со стандартным запросом шага.
func (t SelfTest) RunDefault(unit Unit) (envelope.Response, error) {
	return t.Run(unit, DefaultSelfTestRequest(unit.Name()))
}

// DefaultSelfTestRequest возвращает синтетический запрос для шага:
//
//	generator    — без Data
//	multiply     — случайное число в [0, 100]
//	sqrt         — случайное число в [20, 200]
//	exception    — "42"
//	loopback-get — "Hello, world!"
//
// Для неизвестных шагов — запрос без Data.
func DefaultSelfTestRequest(name string) envelope.Request {
	switch name {
	case StepMultiply:
		return envelope.NewRequestText(SelfTestGUID, strconv.Itoa(rand.IntN(101)))
	case StepSqrt:
		return envelope.NewRequestText(SelfTestGUID, strconv.Itoa(20+rand.IntN(181)))
	case StepException:
		return envelope.NewRequestText(SelfTestGUID, "42")
	case StepLoopbackGet:
		return envelope.NewRequestText(SelfTestGUID, "Hello, world!")
	default:
		return envelope.Request{GUID: SelfTestGUID}
	}
}

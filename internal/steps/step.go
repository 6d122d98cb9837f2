package steps

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shaiso/stepflow/internal/envelope"
)

// Ошибки шагов.
var (
	// ErrStepNotFound — шаг не найден в реестре.
	ErrStepNotFound = errors.New("step not found")

	// ErrInvalidInput — Data декодирован, но не интерпретируется как значение домена.
	ErrInvalidInput = errors.New("invalid step input")

	// ErrSelfTestDisabled — self-test выключен в конфигурации.
	ErrSelfTestDisabled = errors.New("self-test is disabled")
)

// DomainError — нарушение бизнес-правила шага.
//
// Diagnostic попадает в Data ответа Exception; если пуст — используется Message.
type DomainError struct {
	Message    string
	Diagnostic string
}

// Error реализует интерфейс error.
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError создаёт DomainError.
func NewDomainError(message, diagnostic string) *DomainError {
	return &DomainError{Message: message, Diagnostic: diagnostic}
}

// Unit — независимо вызываемая единица вычислений.
//
// Process синхронный и не принимает context: шаг выполняет ровно одну
// ограниченную in-memory операцию. Process никогда не паникует наружу и
// всегда возвращает корректный конверт (см. envelope.Validate).
// Unit не хранит состояние между вызовами.
type Unit interface {
	// Name возвращает имя шага в реестре.
	Name() string

	// Process обрабатывает один запрос и возвращает ровно один ответ.
	Process(req envelope.Request) envelope.Response
}

// DecodeInt декодирует Data запроса как десятичное целое произвольной длины.
//
// Пробелы по краям и знак допускаются.
func DecodeInt(req envelope.Request) (*big.Int, error) {
	if !req.HasData() {
		return nil, fmt.Errorf("%w: data is required", ErrInvalidInput)
	}

	text, err := req.Text()
	if err != nil {
		return nil, err
	}

	val, ok := new(big.Int).SetString(strings.TrimSpace(text), 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not an integer", ErrInvalidInput, text)
	}

	return val, nil
}

package chain

import "errors"

// Ошибки валидации графа.
var (
	// ErrEmptyGraph — граф не содержит узлов.
	ErrEmptyGraph = errors.New("chain graph has no steps")

	// ErrEmptyNodeID — узел не имеет ID.
	ErrEmptyNodeID = errors.New("node has empty ID")

	// ErrDuplicateNodeID — несколько узлов с одинаковым ID.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrEmptyUnit — узел не ссылается на шаг.
	ErrEmptyUnit = errors.New("node has empty unit")

	// ErrUnknownUnit — шаг узла не зарегистрирован.
	ErrUnknownUnit = errors.New("unknown unit")

	// ErrUnknownSuccessor — переход ссылается на несуществующий узел.
	ErrUnknownSuccessor = errors.New("edge points to unknown node")

	// ErrUnknownEntry — точка входа не найдена.
	ErrUnknownEntry = errors.New("entry node not found")

	// ErrSelfLoop — узел переходит сам в себя.
	ErrSelfLoop = errors.New("node routes to itself")

	// ErrCyclicGraph — обнаружен цикл.
	ErrCyclicGraph = errors.New("cyclic chain graph")
)

// Ошибки выполнения.
var (
	// ErrGraphNotFound — встроенный граф не найден.
	ErrGraphNotFound = errors.New("chain graph not found")

	// ErrProtocolViolation — шаг вернул некорректный конверт.
	ErrProtocolViolation = errors.New("step violated envelope protocol")

	// ErrMaxHops — превышено число переходов.
	ErrMaxHops = errors.New("chain exceeded max hops")

	// ErrInvoke — транспорт не смог вызвать шаг.
	ErrInvoke = errors.New("step invocation failed")
)

// ValidationError — ошибка валидации с контекстом.
type ValidationError struct {
	NodeID  string // ID узла, где произошла ошибка
	Field   string // поле, вызвавшее ошибку
	Message string // описание ошибки
	Err     error  // базовая ошибка
}

// Error реализует интерфейс error.
func (e *ValidationError) Error() string {
	if e.NodeID != "" {
		return "node " + e.NodeID + ": " + e.Message
	}
	return e.Message
}

// Unwrap возвращает базовую ошибку.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError создаёт новую ошибку валидации.
func NewValidationError(nodeID, field, message string, err error) *ValidationError {
	return &ValidationError{
		NodeID:  nodeID,
		Field:   field,
		Message: message,
		Err:     err,
	}
}

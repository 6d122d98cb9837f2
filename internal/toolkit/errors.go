package toolkit

import (
	"errors"
	"fmt"
)

// Ошибки toolkit.
var (
	// ErrUnknownProvider — провайдер LLM не поддерживается.
	ErrUnknownProvider = errors.New("unknown llm provider")

	// ErrMissingAPIKey — для провайдера не задан API ключ.
	ErrMissingAPIKey = errors.New("missing api key")

	// ErrEmptyQuery — пустой поисковый запрос или prompt.
	ErrEmptyQuery = errors.New("empty query")

	// ErrEmptyResponse — модель вернула пустой ответ.
	ErrEmptyResponse = errors.New("empty llm response")
)

// ConfigurationError — клиент не может быть использован с текущей конфигурацией.
type ConfigurationError struct {
	Provider string
	Reason   string
	Err      error
}

// Error реализует интерфейс error.
func (e *ConfigurationError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("configuration error (%s): %s", e.Provider, e.Reason)
	}
	return "configuration error: " + e.Reason
}

// Unwrap возвращает базовую ошибку.
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// FetchError — запрос к внешнему ресурсу не удался.
//
// StatusCode == 0 — сетевая ошибка (Err не nil).
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

// Error реализует интерфейс error.
func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: http status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

// Unwrap возвращает базовую ошибку.
func (e *FetchError) Unwrap() error {
	return e.Err
}

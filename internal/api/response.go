package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shaiso/stepflow/internal/chain"
	"github.com/shaiso/stepflow/internal/envelope"
	"github.com/shaiso/stepflow/internal/repo"
	"github.com/shaiso/stepflow/internal/steps"
)

// ErrorCode — код ошибки API.
type ErrorCode string

const (
	ErrCodeBadRequest    ErrorCode = "BAD_REQUEST"
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeInvalidState  ErrorCode = "INVALID_STATE"
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
	ErrCodeUnavailable   ErrorCode = "UNAVAILABLE"
)

// ErrorResponse — структура ответа с ошибкой.
//
// Data — частичный результат, полученный до ошибки (например, трасса цепочки).
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
	Data  any         `json:"data,omitempty"`
}

// ErrorDetail — детали ошибки.
type ErrorDetail struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// DataResponse — структура успешного ответа.
type DataResponse struct {
	Data any `json:"data"`
}

// ListResponse — структура ответа со списком.
type ListResponse struct {
	Data  any `json:"data"`
	Total int `json:"total,omitempty"`
}

// JSON отправляет JSON ответ.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Success отправляет успешный ответ с данными.
func Success(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, DataResponse{Data: data})
}

// List отправляет ответ со списком.
func List(w http.ResponseWriter, data any, total int) {
	JSON(w, http.StatusOK, ListResponse{Data: data, Total: total})
}

// Error отправляет ответ с ошибкой.
func Error(w http.ResponseWriter, status int, code ErrorCode, message string) {
	JSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// BadRequest отправляет ошибку 400.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// InvalidState отправляет ошибку 422.
func InvalidState(w http.ResponseWriter, message string) {
	Error(w, http.StatusUnprocessableEntity, ErrCodeInvalidState, message)
}

// InternalError отправляет ошибку 500.
func InternalError(w http.ResponseWriter, logger *slog.Logger, err error) {
	logger.Error("internal error", "error", err)
	Error(w, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
}

// Unavailable отправляет ошибку 503.
func Unavailable(w http.ResponseWriter, message string) {
	Error(w, http.StatusServiceUnavailable, ErrCodeUnavailable, message)
}

// HandleError преобразует ошибку домена в HTTP ответ.
// Возвращает true, если ответ уже отправлен.
func HandleError(w http.ResponseWriter, logger *slog.Logger, err error) bool {
	return HandleErrorWithData(w, logger, err, nil)
}

// HandleErrorWithData — HandleError с частичным результатом в поле data.
func HandleErrorWithData(w http.ResponseWriter, logger *slog.Logger, err error, data any) bool {
	if err == nil {
		return false
	}

	status, code, message := classifyError(err)
	if status == http.StatusInternalServerError {
		logger.Error("internal error", "error", err)
	}

	JSON(w, status, ErrorResponse{
		Error: ErrorDetail{Code: code, Message: message},
		Data:  data,
	})
	return true
}

// classifyError сопоставляет ошибку домена со статусом и кодом API.
func classifyError(err error) (int, ErrorCode, string) {
	switch {
	case errors.Is(err, steps.ErrStepNotFound),
		errors.Is(err, chain.ErrGraphNotFound),
		errors.Is(err, repo.ErrNotFound):
		return http.StatusNotFound, ErrCodeNotFound, err.Error()

	case errors.Is(err, envelope.ErrMalformedEnvelope):
		return http.StatusBadRequest, ErrCodeBadRequest, err.Error()

	case errors.Is(err, chain.ErrProtocolViolation),
		errors.Is(err, chain.ErrMaxHops),
		errors.Is(err, chain.ErrEmptyGraph):
		return http.StatusUnprocessableEntity, ErrCodeInvalidState, err.Error()

	default:
		return http.StatusInternalServerError, ErrCodeInternalError, "internal server error"
	}
}

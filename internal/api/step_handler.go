package api

import (
	"io"
	"net/http"

	"github.com/shaiso/stepflow/internal/envelope"
	"github.com/shaiso/stepflow/internal/repo"
)

// maxEnvelopeBytes — предел тела запроса с конвертом.
const maxEnvelopeBytes = 1 << 20

// ListSteps возвращает зарегистрированные шаги.
// GET /api/v1/steps
func (h *Handler) ListSteps(w http.ResponseWriter, r *http.Request) {
	names := h.executor.Registry().Names()

	result := make([]StepResponse, len(names))
	for i, name := range names {
		result[i] = StepResponse{
			Name:    name,
			Process: "/api/v1/steps/" + name + "/process",
		}
	}

	List(w, result, len(result))
}

// ProcessStep вызывает шаг с конвертом из тела запроса.
// POST /api/v1/steps/{name}/process
//
// Отвечает конвертом Response с HTTP 200. Некорректный base64 в Data
// не ошибка запроса: шаг сам превращает его в Exception.
func (h *Handler) ProcessStep(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxEnvelopeBytes))
	if err != nil {
		BadRequest(w, "failed to read request body")
		return
	}

	req, err := envelope.ParseRequest(body)
	if err != nil {
		BadRequest(w, "invalid request envelope")
		return
	}

	resp, _, err := h.executor.Execute(r.Context(), repo.TransportHTTP, name, req)
	if HandleError(w, h.logger, err) {
		return
	}

	JSON(w, http.StatusOK, resp)
}

package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/shaiso/stepflow/internal/chain"
	"github.com/shaiso/stepflow/internal/envelope"
)

// ListChains возвращает встроенные графы.
// GET /api/v1/chains
func (h *Handler) ListChains(w http.ResponseWriter, r *http.Request) {
	names := chain.BuiltinNames()

	result := make([]ChainResponse, 0, len(names))
	for _, name := range names {
		g, err := chain.Builtin(name)
		if err != nil {
			continue
		}
		result = append(result, ChainResponse{Name: g.Name, Entry: g.Entry, Steps: g.Steps})
	}

	List(w, result, len(result))
}

// RunChain выполняет встроенный граф.
// POST /api/v1/chains/{name}/run
//
// Тело — конверт Request для первого шага; пустое тело — запрос без Data.
func (h *Handler) RunChain(w http.ResponseWriter, r *http.Request) {
	g, err := chain.Builtin(r.PathValue("name"))
	if HandleError(w, h.logger, err) {
		return
	}

	if err := chain.Validate(g, h.executor.Registry().Has); err != nil {
		InvalidState(w, err.Error())
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxEnvelopeBytes))
	if err != nil {
		BadRequest(w, "failed to read request body")
		return
	}

	var req envelope.Request
	if len(body) > 0 {
		req, err = envelope.ParseRequest(body)
		if err != nil {
			BadRequest(w, "invalid request envelope")
			return
		}
	}

	trace, err := h.runner.Run(r.Context(), g, req)
	if err != nil {
		if errors.Is(err, chain.ErrProtocolViolation) || errors.Is(err, chain.ErrMaxHops) {
			h.logger.Warn("chain aborted", "chain", g.Name, "error", err)
		}

		// Пройденные до ошибки шаги возвращаются вместе с ней.
		var partial any
		if trace != nil {
			partial = ChainRunFromTrace(trace)
		}
		HandleErrorWithData(w, h.logger, err, partial)
		return
	}

	Success(w, ChainRunFromTrace(trace))
}

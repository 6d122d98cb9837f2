package api

import (
	"net/http"
	"strconv"
)

const (
	defaultInvocationLimit = 50
	maxInvocationLimit     = 500
)

// ListInvocations возвращает записи журнала вызовов.
// GET /api/v1/invocations?guid=...&limit=...
func (h *Handler) ListInvocations(w http.ResponseWriter, r *http.Request) {
	if h.invocations == nil {
		Unavailable(w, "invocation journal is not configured")
		return
	}

	if guid := r.URL.Query().Get("guid"); guid != "" {
		list, err := h.invocations.ListByGUID(r.Context(), guid)
		if HandleError(w, h.logger, err) {
			return
		}
		List(w, list, len(list))
		return
	}

	limit := defaultInvocationLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			BadRequest(w, "invalid limit")
			return
		}
		limit = min(n, maxInvocationLimit)
	}

	list, err := h.invocations.ListRecent(r.Context(), limit)
	if HandleError(w, h.logger, err) {
		return
	}
	List(w, list, len(list))
}

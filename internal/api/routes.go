package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Middleware chain
	chain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
		Metrics(h.metrics),
	)

	// Steps
	mux.Handle("GET /api/v1/steps", chain(http.HandlerFunc(h.ListSteps)))
	mux.Handle("POST /api/v1/steps/{name}/process", chain(http.HandlerFunc(h.ProcessStep)))

	// Chains
	mux.Handle("GET /api/v1/chains", chain(http.HandlerFunc(h.ListChains)))
	mux.Handle("POST /api/v1/chains/{name}/run", chain(http.HandlerFunc(h.RunChain)))

	// Journal
	mux.Handle("GET /api/v1/invocations", chain(http.HandlerFunc(h.ListInvocations)))
}

package api

import (
	"github.com/shaiso/stepflow/internal/chain"
	"github.com/shaiso/stepflow/internal/envelope"
)

// StepResponse — описание зарегистрированного шага.
type StepResponse struct {
	Name    string `json:"name"`
	Process string `json:"process"`
}

// ChainResponse — описание встроенного графа.
type ChainResponse struct {
	Name  string       `json:"name"`
	Entry string       `json:"entry"`
	Steps []chain.Node `json:"steps"`
}

// ChainRunResponse — результат выполнения цепочки.
type ChainRunResponse struct {
	Trace   *chain.Trace       `json:"trace"`
	Outcome *envelope.Response `json:"outcome,omitempty"`
	Routed  bool               `json:"routed"`
}

// ChainRunFromTrace создаёт ChainRunResponse из Trace.
func ChainRunFromTrace(trace *chain.Trace) ChainRunResponse {
	resp := ChainRunResponse{
		Trace:  trace,
		Routed: trace.Routed(),
	}
	if outcome, ok := trace.Outcome(); ok {
		resp.Outcome = &outcome
	}
	return resp
}

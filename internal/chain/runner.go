package chain

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/stepflow/internal/envelope"
	"github.com/shaiso/stepflow/internal/steps"
	"github.com/shaiso/stepflow/internal/telemetry"
)

const defaultMaxHops = 64

// Invoker вызывает шаг по имени.
//
// Ошибка означает отказ транспорта, а не исход шага: исход всегда
// передаётся в Response.
type Invoker interface {
	Invoke(ctx context.Context, unit string, req envelope.Request) (envelope.Response, error)
}

// LocalInvoker вызывает шаги in-process из реестра.
type LocalInvoker struct {
	Registry *steps.Registry
}

// Invoke реализует Invoker. Паника шага возвращается как Exception.
func (l LocalInvoker) Invoke(ctx context.Context, unit string, req envelope.Request) (resp envelope.Response, err error) {
	if err := ctx.Err(); err != nil {
		return envelope.Response{}, err
	}

	u, err := l.Registry.Get(unit)
	if err != nil {
		return envelope.Response{}, err
	}

	defer func() {
		if r := recover(); r != nil {
			resp, err = envelope.Exception(fmt.Sprintf("internal error: %v", r)), nil
		}
	}()

	return u.Process(req), nil
}

// Edge — переход, выбранный после шага.
type Edge string

const (
	EdgeSuccess   Edge = "success"
	EdgeException Edge = "exception"
	EdgeEnd       Edge = "end"
)

// Hop — один вызов шага в цепочке.
type Hop struct {
	NodeID   string            `json:"node_id"`
	Unit     string            `json:"unit"`
	Request  envelope.Request  `json:"request"`
	Response envelope.Response `json:"response"`
	Edge     Edge              `json:"edge"`
	Next     string            `json:"next,omitempty"`
	Duration time.Duration     `json:"duration_ns"`
}

// Trace — журнал выполнения цепочки.
type Trace struct {
	Graph string `json:"graph"`
	GUID  string `json:"guid"`
	Hops  []Hop  `json:"hops"`
}

// Outcome возвращает ответ последнего шага.
func (t *Trace) Outcome() (envelope.Response, bool) {
	if t == nil || len(t.Hops) == 0 {
		return envelope.Response{}, false
	}
	return t.Hops[len(t.Hops)-1].Response, true
}

// Routed сообщает, был ли выбран хотя бы один Exception-переход.
func (t *Trace) Routed() bool {
	if t == nil {
		return false
	}
	for _, h := range t.Hops {
		if h.Edge == EdgeException && h.Next != "" {
			return true
		}
	}
	return false
}

// RunnerConfig — конфигурация Runner.
type RunnerConfig struct {
	Invoker Invoker

	// MaxHops — предел переходов (default: 64).
	MaxHops int

	Metrics *telemetry.Metrics
	Logger  *slog.Logger
}

// Runner выполняет цепочки.
type Runner struct {
	invoker Invoker
	maxHops int
	metrics *telemetry.Metrics
	logger  *slog.Logger
}

// NewRunner создаёт Runner.
func NewRunner(cfg RunnerConfig) *Runner {
	maxHops := cfg.MaxHops
	if maxHops <= 0 {
		maxHops = defaultMaxHops
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{
		invoker: cfg.Invoker,
		maxHops: maxHops,
		metrics: cfg.Metrics,
		logger:  logger,
	}
}

// Run проходит граф от точки входа.
//
// Пустой GUID запроса заменяется новым UUID. Trace возвращается
// и при ошибке: в нём все переходы, выполненные до неё.
func (r *Runner) Run(ctx context.Context, g *Graph, req envelope.Request) (*Trace, error) {
	if err := Validate(g, nil); err != nil {
		return nil, err
	}

	if req.GUID == "" {
		req.GUID = uuid.NewString()
	}

	trace := &Trace{Graph: g.Name, GUID: req.GUID}
	logger := telemetry.WithGUID(r.logger, req.GUID).With("graph", g.Name)

	nodeID := g.Entry
	for nodeID != "" {
		if len(trace.Hops) >= r.maxHops {
			return trace, fmt.Errorf("%w: %d", ErrMaxHops, r.maxHops)
		}

		if err := ctx.Err(); err != nil {
			return trace, err
		}

		node, ok := g.Node(nodeID)
		if !ok {
			return trace, fmt.Errorf("%w: %s", ErrUnknownSuccessor, nodeID)
		}

		start := time.Now()
		resp, err := r.invoker.Invoke(ctx, node.Unit, req)
		elapsed := time.Since(start)
		if err != nil {
			logger.Error("step invocation failed", "node", node.ID, "unit", node.Unit, "error", err)
			return trace, fmt.Errorf("%w: node %s: %w", ErrInvoke, node.ID, err)
		}

		if err := envelope.Validate(resp); err != nil {
			r.metrics.ProtocolViolation(node.Unit)
			logger.Error("protocol violation", "node", node.ID, "unit", node.Unit, "error", err)
			return trace, fmt.Errorf("%w: node %s: %w", ErrProtocolViolation, node.ID, err)
		}

		edge, next := route(node, resp)
		trace.Hops = append(trace.Hops, Hop{
			NodeID:   node.ID,
			Unit:     node.Unit,
			Request:  req,
			Response: resp,
			Edge:     edge,
			Next:     next,
			Duration: elapsed,
		})
		r.metrics.ChainHop(string(edge))

		logger.Info("step completed",
			"node", node.ID,
			"unit", node.Unit,
			"result", resp.Result,
			"status_code", resp.StatusCode,
			"next", next,
			"duration", elapsed,
		)

		req = envelope.Request{GUID: req.GUID, Data: resp.Data}
		nodeID = next
	}

	return trace, nil
}

// route выбирает переход по исходу ответа.
func route(n Node, resp envelope.Response) (Edge, string) {
	switch resp.Result {
	case envelope.ResultSuccess:
		return EdgeSuccess, n.OnSuccess
	case envelope.ResultException:
		return EdgeException, n.OnException
	default:
		return EdgeEnd, ""
	}
}

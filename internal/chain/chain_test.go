package chain

import (
	"context"
	"errors"
	"testing"

	"github.com/shaiso/stepflow/internal/envelope"
	"github.com/shaiso/stepflow/internal/steps"
)

// scriptedInvoker возвращает заранее заданные ответы по имени шага.
type scriptedInvoker struct {
	responses map[string]envelope.Response
	err       error
	calls     []string
}

func (s *scriptedInvoker) Invoke(_ context.Context, unit string, _ envelope.Request) (envelope.Response, error) {
	s.calls = append(s.calls, unit)
	if s.err != nil {
		return envelope.Response{}, s.err
	}
	return s.responses[unit], nil
}

// nilMapUnit падает на записи в nil map.
type nilMapUnit struct{}

func (nilMapUnit) Name() string { return "boom" }

func (nilMapUnit) Process(envelope.Request) envelope.Response {
	var m map[string]int
	m["x"]++
	return envelope.SuccessText("unreachable")
}

func localRunner(draw int) *Runner {
	reg := steps.DefaultRegistry(steps.Options{
		Draw: func(int) int { return draw },
	})
	return NewRunner(RunnerConfig{Invoker: LocalInvoker{Registry: reg}})
}

func outcomeText(t *testing.T, trace *Trace) string {
	t.Helper()
	resp, ok := trace.Outcome()
	if !ok {
		t.Fatal("trace has no hops")
	}
	text, err := resp.Text()
	if err != nil {
		t.Fatalf("outcome is not base64: %v", err)
	}
	return text
}

// --- Validate Tests ---

func TestValidate_EmptyGraph(t *testing.T) {
	for _, g := range []*Graph{nil, {Name: "empty"}} {
		if err := Validate(g, nil); !errors.Is(err, ErrEmptyGraph) {
			t.Errorf("expected ErrEmptyGraph, got %v", err)
		}
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name  string
		graph *Graph
		want  error
	}{
		{
			name:  "empty id",
			graph: &Graph{Entry: "a", Steps: []Node{{ID: "", Unit: "sqrt"}}},
			want:  ErrEmptyNodeID,
		},
		{
			name: "duplicate id",
			graph: &Graph{Entry: "a", Steps: []Node{
				{ID: "a", Unit: "sqrt"},
				{ID: "a", Unit: "multiply"},
			}},
			want: ErrDuplicateNodeID,
		},
		{
			name:  "empty unit",
			graph: &Graph{Entry: "a", Steps: []Node{{ID: "a"}}},
			want:  ErrEmptyUnit,
		},
		{
			name:  "unknown unit",
			graph: &Graph{Entry: "a", Steps: []Node{{ID: "a", Unit: "divide"}}},
			want:  ErrUnknownUnit,
		},
		{
			name:  "unknown successor",
			graph: &Graph{Entry: "a", Steps: []Node{{ID: "a", Unit: "sqrt", OnException: "b"}}},
			want:  ErrUnknownSuccessor,
		},
		{
			name:  "self loop",
			graph: &Graph{Entry: "a", Steps: []Node{{ID: "a", Unit: "sqrt", OnSuccess: "a"}}},
			want:  ErrSelfLoop,
		},
		{
			name:  "unknown entry",
			graph: &Graph{Entry: "z", Steps: []Node{{ID: "a", Unit: "sqrt"}}},
			want:  ErrUnknownEntry,
		},
		{
			name: "cycle",
			graph: &Graph{Entry: "a", Steps: []Node{
				{ID: "a", Unit: "sqrt", OnSuccess: "b"},
				{ID: "b", Unit: "multiply", OnException: "c"},
				{ID: "c", Unit: "exception", OnSuccess: "a"},
			}},
			want: ErrCyclicGraph,
		},
	}

	has := steps.DefaultRegistry(steps.Options{}).Has

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.graph, has)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}

			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Errorf("expected ValidationError, got %T", err)
			}
		})
	}
}

func TestValidate_Builtins(t *testing.T) {
	has := steps.DefaultRegistry(steps.Options{}).Has

	for _, name := range BuiltinNames() {
		g, err := Builtin(name)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := Validate(g, has); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}

	if _, err := Builtin("nope"); !errors.Is(err, ErrGraphNotFound) {
		t.Errorf("expected ErrGraphNotFound, got %v", err)
	}
}

func TestValidate_SharedSuccessor(t *testing.T) {
	// Оба перехода в один узел — не цикл
	g := &Graph{Entry: "a", Steps: []Node{
		{ID: "a", Unit: "sqrt", OnSuccess: "b", OnException: "b"},
		{ID: "b", Unit: "exception"},
	}}
	if err := Validate(g, nil); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// --- ParseGraph Tests ---

func TestParseGraph(t *testing.T) {
	data := []byte(`{
		"name": "custom",
		"steps": [
			{"id": "mul", "unit": "multiply", "on_success": "root"},
			{"id": "root", "unit": "sqrt", "on_exception": "err"},
			{"id": "err", "unit": "exception"}
		]
	}`)

	g, err := ParseGraph(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if g.Entry != "mul" {
		t.Errorf("entry should default to first node, got %q", g.Entry)
	}
	if n, ok := g.Node("root"); !ok || n.OnException != "err" {
		t.Errorf("unexpected node: %+v", n)
	}

	if _, err := ParseGraph([]byte("{")); err == nil {
		t.Error("expected parse error")
	}
}

// --- Runner Tests ---

func TestRunner_MultistepSuccess(t *testing.T) {
	g, _ := Builtin(GraphMultistep)

	trace, err := localRunner(7).Run(context.Background(), g, envelope.Request{GUID: "guid-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(trace.Hops) != 2 {
		t.Fatalf("expected 2 hops, got %d", len(trace.Hops))
	}
	if trace.Hops[1].Unit != steps.StepLoopbackGet {
		t.Errorf("expected loopback-get, got %s", trace.Hops[1].Unit)
	}
	if got := outcomeText(t, trace); got != "Hello from the loopback GET method" {
		t.Errorf("unexpected outcome: %q", got)
	}
	if trace.Routed() {
		t.Error("success path should not be routed")
	}
}

func TestRunner_MultistepException(t *testing.T) {
	g, _ := Builtin(GraphMultistep)

	trace, err := localRunner(9).Run(context.Background(), g, envelope.Request{GUID: "guid-2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !trace.Routed() {
		t.Error("expected exception edge")
	}
	if trace.Hops[0].Edge != EdgeException || trace.Hops[0].Next != "handler" {
		t.Errorf("unexpected first hop: %+v", trace.Hops[0])
	}

	// Обработчик получает Data исключения и тот же GUID
	handlerReq := trace.Hops[1].Request
	if handlerReq.GUID != "guid-2" {
		t.Errorf("GUID not preserved: %s", handlerReq.GUID)
	}
	if text, _ := handlerReq.Text(); text != "9" {
		t.Errorf("handler should receive 9, got %q", text)
	}

	if got := outcomeText(t, trace); got != "Exception raised" {
		t.Errorf("unexpected outcome: %q", got)
	}
}

func TestRunner_SqrtChain(t *testing.T) {
	g, _ := Builtin(GraphMultistepException)
	runner := localRunner(1)

	// Успех: ребра on_success нет — цепочка завершается
	trace, err := runner.Run(context.Background(), g, envelope.NewRequestText("abcd", "144"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trace.Hops) != 1 || outcomeText(t, trace) != "12" {
		t.Errorf("unexpected trace: %+v", trace)
	}

	// Исключение: маршрут в обработчик
	trace, err = runner.Run(context.Background(), g, envelope.NewRequestText("abcd", "-1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trace.Hops) != 2 || !trace.Routed() {
		t.Errorf("expected routed trace, got %+v", trace)
	}
}

func TestRunner_FailureEndsChain(t *testing.T) {
	inv := &scriptedInvoker{responses: map[string]envelope.Response{
		"a": envelope.Failure(404, "not found"),
		"b": envelope.SuccessText("unreachable"),
	}}
	g := &Graph{Entry: "1", Steps: []Node{
		{ID: "1", Unit: "a", OnSuccess: "2", OnException: "2"},
		{ID: "2", Unit: "b"},
	}}

	trace, err := NewRunner(RunnerConfig{Invoker: inv}).Run(context.Background(), g, envelope.Request{GUID: "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(inv.calls) != 1 {
		t.Errorf("expected one call, got %v", inv.calls)
	}
	if trace.Hops[0].Edge != EdgeEnd {
		t.Errorf("expected end edge, got %s", trace.Hops[0].Edge)
	}
}

func TestRunner_ProtocolViolation(t *testing.T) {
	inv := &scriptedInvoker{responses: map[string]envelope.Response{
		"bad": {Result: envelope.ResultSuccess, StatusCode: 500, ContentType: envelope.ContentTypeText},
	}}
	g := &Graph{Entry: "1", Steps: []Node{{ID: "1", Unit: "bad"}}}

	_, err := NewRunner(RunnerConfig{Invoker: inv}).Run(context.Background(), g, envelope.Request{})
	if !errors.Is(err, ErrProtocolViolation) {
		t.Errorf("expected ErrProtocolViolation, got %v", err)
	}
}

func TestRunner_InvokeError(t *testing.T) {
	inv := &scriptedInvoker{err: steps.ErrStepNotFound}
	g := &Graph{Entry: "1", Steps: []Node{{ID: "1", Unit: "gone"}}}

	trace, err := NewRunner(RunnerConfig{Invoker: inv}).Run(context.Background(), g, envelope.Request{})
	if !errors.Is(err, ErrInvoke) || !errors.Is(err, steps.ErrStepNotFound) {
		t.Errorf("expected wrapped ErrStepNotFound, got %v", err)
	}
	if trace == nil || len(trace.Hops) != 0 {
		t.Errorf("expected empty trace, got %+v", trace)
	}
}

func TestRunner_MaxHops(t *testing.T) {
	g, _ := Builtin(GraphMultistep)
	reg := steps.DefaultRegistry(steps.Options{Draw: func(int) int { return 1 }})
	runner := NewRunner(RunnerConfig{Invoker: LocalInvoker{Registry: reg}, MaxHops: 1})

	trace, err := runner.Run(context.Background(), g, envelope.Request{})
	if !errors.Is(err, ErrMaxHops) {
		t.Errorf("expected ErrMaxHops, got %v", err)
	}
	if len(trace.Hops) != 1 {
		t.Errorf("expected 1 hop before limit, got %d", len(trace.Hops))
	}
}

func TestLocalInvoker_PanicBecomesException(t *testing.T) {
	reg := steps.NewRegistry()
	reg.Register(nilMapUnit{})
	g := &Graph{Entry: "1", Steps: []Node{{ID: "1", Unit: "boom"}}}

	trace, err := NewRunner(RunnerConfig{Invoker: LocalInvoker{Registry: reg}}).Run(context.Background(), g, envelope.Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp, _ := trace.Outcome()
	if resp.Result != envelope.ResultException || resp.StatusCode != 500 {
		t.Errorf("expected Exception/500, got %s/%d", resp.Result, resp.StatusCode)
	}
}

func TestRunner_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g, _ := Builtin(GraphMultistep)
	_, err := localRunner(1).Run(ctx, g, envelope.Request{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRunner_GeneratesGUID(t *testing.T) {
	g, _ := Builtin(GraphMultistep)

	trace, err := localRunner(1).Run(context.Background(), g, envelope.Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trace.GUID == "" {
		t.Fatal("expected generated GUID")
	}
	for _, h := range trace.Hops {
		if h.Request.GUID != trace.GUID {
			t.Errorf("hop %s has GUID %s, want %s", h.NodeID, h.Request.GUID, trace.GUID)
		}
	}
}

func TestRunner_InvalidGraph(t *testing.T) {
	_, err := localRunner(1).Run(context.Background(), &Graph{}, envelope.Request{})
	if !errors.Is(err, ErrEmptyGraph) {
		t.Errorf("expected ErrEmptyGraph, got %v", err)
	}
}

func TestTrace_Empty(t *testing.T) {
	var trace *Trace
	if _, ok := trace.Outcome(); ok {
		t.Error("nil trace has no outcome")
	}
	if trace.Routed() {
		t.Error("nil trace is not routed")
	}
}

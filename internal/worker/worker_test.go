package worker

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/shaiso/stepflow/internal/envelope"
	"github.com/shaiso/stepflow/internal/mq"
	"github.com/shaiso/stepflow/internal/repo"
	"github.com/shaiso/stepflow/internal/steps"
	"github.com/shaiso/stepflow/internal/telemetry"
)

// --- Fakes ---

type fakePublisher struct {
	mu        sync.Mutex
	replyTo   []string
	completed []mq.StepCompletedPayload
	err       error
}

func (f *fakePublisher) PublishStepCompleted(_ context.Context, replyTo string, p mq.StepCompletedPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.replyTo = append(f.replyTo, replyTo)
	f.completed = append(f.completed, p)
	return nil
}

type fakeJournal struct {
	mu   sync.Mutex
	recs []*repo.Invocation
	err  error
}

func (f *fakeJournal) Record(_ context.Context, inv *repo.Invocation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recs = append(f.recs, inv)
	return f.err
}

// brokenUnit возвращает некорректный конверт.
type brokenUnit struct{}

func (brokenUnit) Name() string { return "broken" }

func (brokenUnit) Process(envelope.Request) envelope.Response {
	return envelope.Response{Result: envelope.ResultSuccess, StatusCode: 500}
}

// panickyUnit падает на записи в nil map.
type panickyUnit struct{}

func (panickyUnit) Name() string { return "boom" }

func (panickyUnit) Process(envelope.Request) envelope.Response {
	var m map[string]int
	m["x"] = 1
	return envelope.SuccessText("unreachable")
}

// delivery строит доставку так, как её увидит обработчик после JSON round-trip.
func delivery(t *testing.T, msgType mq.MessageType, payload any) *mq.Delivery {
	t.Helper()
	body, err := json.Marshal(mq.NewMessage(msgType, payload))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var msg mq.Message
	if err := json.Unmarshal(body, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return &mq.Delivery{Message: msg}
}

func newTestWorker(pub CompletionPublisher, journal repo.Journal) *Worker {
	exec := NewExecutor(ExecutorConfig{Journal: journal})
	return New(Config{Executor: exec, Publisher: pub})
}

// --- Executor Tests ---

func TestExecutor_Execute(t *testing.T) {
	journal := &fakeJournal{}
	exec := NewExecutor(ExecutorConfig{Journal: journal})

	resp, _, err := exec.Execute(context.Background(), repo.TransportHTTP, "multiply", envelope.NewRequestText("abcd", "10"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text, _ := resp.Text(); text != "50" {
		t.Errorf("expected 50, got %q", text)
	}

	if len(journal.recs) != 1 {
		t.Fatalf("expected 1 journal record, got %d", len(journal.recs))
	}
	rec := journal.recs[0]
	if rec.Step != "multiply" || rec.GUID != "abcd" || rec.Transport != repo.TransportHTTP {
		t.Errorf("unexpected record: %+v", rec)
	}
}

func TestExecutor_UnknownStep(t *testing.T) {
	exec := NewExecutor(ExecutorConfig{})

	_, _, err := exec.Execute(context.Background(), repo.TransportHTTP, "divide", envelope.Request{})
	if !errors.Is(err, steps.ErrStepNotFound) {
		t.Errorf("expected ErrStepNotFound, got %v", err)
	}
}

func TestExecutor_JournalFailureKeepsResponse(t *testing.T) {
	journal := &fakeJournal{err: errors.New("db down")}
	exec := NewExecutor(ExecutorConfig{Journal: journal})

	resp, _, err := exec.Execute(context.Background(), repo.TransportHTTP, "sqrt", envelope.NewRequestText("abcd", "144"))
	if err != nil {
		t.Fatalf("journal error must not surface: %v", err)
	}
	if text, _ := resp.Text(); text != "12" {
		t.Errorf("expected 12, got %q", text)
	}
}

func TestExecutor_ProtocolViolation(t *testing.T) {
	reg := steps.NewRegistry()
	reg.Register(brokenUnit{})

	metrics := telemetry.NewMetrics(prometheus.NewRegistry())
	exec := NewExecutor(ExecutorConfig{Registry: reg, Metrics: metrics})

	resp, _, err := exec.Execute(context.Background(), repo.TransportHTTP, "broken", envelope.Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Result != envelope.ResultException || resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("violation should become Exception/500, got %s/%d", resp.Result, resp.StatusCode)
	}
	if err := envelope.Validate(resp); err != nil {
		t.Errorf("replacement must be valid: %v", err)
	}
}

func TestExecutor_PanicBecomesException(t *testing.T) {
	reg := steps.NewRegistry()
	reg.Register(panickyUnit{})

	journal := &fakeJournal{}
	exec := NewExecutor(ExecutorConfig{
		Registry: reg,
		Journal:  journal,
		Metrics:  telemetry.NewMetrics(prometheus.NewRegistry()),
	})

	resp, _, err := exec.Execute(context.Background(), repo.TransportAMQP, "boom", envelope.Request{GUID: "g"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Result != envelope.ResultException || resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("panic should become Exception/500, got %s/%d", resp.Result, resp.StatusCode)
	}
	text, _ := resp.Text()
	if !strings.Contains(text, "internal error") || !strings.Contains(text, "nil map") {
		t.Errorf("unexpected diagnostic: %q", text)
	}
	if len(journal.recs) != 1 {
		t.Errorf("panicking call should still be journaled, got %d records", len(journal.recs))
	}
}

func TestWorker_PanickingStepPublishesException(t *testing.T) {
	reg := steps.NewRegistry()
	reg.Register(panickyUnit{})
	pub := &fakePublisher{}
	w := New(Config{Executor: NewExecutor(ExecutorConfig{Registry: reg}), Publisher: pub})

	d := delivery(t, mq.MessageTypeStepInvoke, mq.StepInvokePayload{
		Step:    "boom",
		Request: envelope.Request{GUID: "g"},
	})
	if err := w.handleStepInvoke(context.Background(), d); err != nil {
		t.Fatalf("handler should not fail: %v", err)
	}

	if len(pub.completed) != 1 {
		t.Fatalf("expected 1 completion, got %d", len(pub.completed))
	}
	if got := pub.completed[0].Response.Result; got != envelope.ResultException {
		t.Errorf("expected Exception, got %s", got)
	}
}

func TestExecutor_Invoke(t *testing.T) {
	journal := &fakeJournal{}
	exec := NewExecutor(ExecutorConfig{Journal: journal})

	resp, err := exec.Invoke(context.Background(), "loopback-get", envelope.Request{GUID: "g"})
	if err != nil || !resp.IsSuccess() {
		t.Fatalf("unexpected result: %+v, %v", resp, err)
	}
	if journal.recs[0].Transport != repo.TransportChain {
		t.Errorf("expected chain transport, got %s", journal.recs[0].Transport)
	}
}

// --- Worker Tests ---

func TestWorker_HandleStepInvoke(t *testing.T) {
	pub := &fakePublisher{}
	journal := &fakeJournal{}
	w := newTestWorker(pub, journal)

	d := delivery(t, mq.MessageTypeStepInvoke, mq.StepInvokePayload{
		Step:    "sqrt",
		Request: envelope.NewRequestText("guid-9", "-1"),
		ReplyTo: "rpc.reply",
	})

	if err := w.handleStepInvoke(context.Background(), d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(pub.completed) != 1 {
		t.Fatalf("expected 1 completion, got %d", len(pub.completed))
	}
	got := pub.completed[0]
	if got.Step != "sqrt" || got.GUID != "guid-9" {
		t.Errorf("unexpected completion: %+v", got)
	}
	if got.Response.Result != envelope.ResultException {
		t.Errorf("expected Exception, got %s", got.Response.Result)
	}
	if pub.replyTo[0] != "rpc.reply" {
		t.Errorf("expected reply_to to be honoured, got %q", pub.replyTo[0])
	}
	if len(journal.recs) != 1 || journal.recs[0].Transport != repo.TransportAMQP {
		t.Errorf("expected amqp journal record, got %+v", journal.recs)
	}
}

func TestWorker_UnknownStepPublishesFailure(t *testing.T) {
	pub := &fakePublisher{}
	w := newTestWorker(pub, nil)

	d := delivery(t, mq.MessageTypeStepInvoke, mq.StepInvokePayload{
		Step:    "divide",
		Request: envelope.Request{GUID: "g"},
	})

	// Неизвестный шаг — ack, а не nack-цикл
	if err := w.handleStepInvoke(context.Background(), d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resp := pub.completed[0].Response
	if resp.Result != envelope.ResultFailure || resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected Failure/404, got %s/%d", resp.Result, resp.StatusCode)
	}
}

func TestWorker_MalformedPayloadRejected(t *testing.T) {
	pub := &fakePublisher{}
	w := newTestWorker(pub, nil)

	tests := []struct {
		name string
		d    *mq.Delivery
	}{
		{"not an object", delivery(t, mq.MessageTypeStepInvoke, "garbage")},
		{"missing step", delivery(t, mq.MessageTypeStepInvoke, map[string]any{"request": map[string]any{}})},
		{"wrong type", delivery(t, mq.MessageTypeStepCompleted, mq.StepCompletedPayload{Step: "sqrt"})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := w.handleStepInvoke(context.Background(), tt.d)
			if !errors.Is(err, mq.ErrReject) || !errors.Is(err, ErrInvalidPayload) {
				t.Errorf("expected rejection, got %v", err)
			}
		})
	}

	if len(pub.completed) != 0 {
		t.Errorf("nothing should be published, got %d", len(pub.completed))
	}
}

func TestWorker_PublishErrorRequeues(t *testing.T) {
	pub := &fakePublisher{err: errors.New("channel closed")}
	w := newTestWorker(pub, nil)

	d := delivery(t, mq.MessageTypeStepInvoke, mq.StepInvokePayload{Step: "loopback-get"})

	err := w.handleStepInvoke(context.Background(), d)
	if err == nil || errors.Is(err, mq.ErrReject) {
		t.Errorf("publish error should requeue, got %v", err)
	}
}

func TestNew_DefaultConfig(t *testing.T) {
	w := New(Config{})

	if w.prefetch != defaultPrefetch {
		t.Errorf("expected prefetch %d, got %d", defaultPrefetch, w.prefetch)
	}
	if w.executor == nil || w.executor.Registry().Count() != 5 {
		t.Error("default executor should carry the standard steps")
	}
}

func TestWorker_IsStopped(t *testing.T) {
	w := New(Config{})

	if w.IsStopped() {
		t.Error("new worker should not be stopped")
	}

	w.Stop()

	if !w.IsStopped() {
		t.Error("worker should be stopped after Stop()")
	}
	if err := w.Start(context.Background()); !errors.Is(err, ErrWorkerStopped) {
		t.Errorf("expected ErrWorkerStopped, got %v", err)
	}
}

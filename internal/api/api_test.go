package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/shaiso/stepflow/internal/chain"
	"github.com/shaiso/stepflow/internal/envelope"
	"github.com/shaiso/stepflow/internal/repo"
	"github.com/shaiso/stepflow/internal/steps"
	"github.com/shaiso/stepflow/internal/telemetry"
	"github.com/shaiso/stepflow/internal/worker"
)

type fakeInvocations struct {
	byGUID map[string][]repo.Invocation
	recent []repo.Invocation
	limit  int
}

func (f *fakeInvocations) ListByGUID(_ context.Context, guid string) ([]repo.Invocation, error) {
	return f.byGUID[guid], nil
}

func (f *fakeInvocations) ListRecent(_ context.Context, limit int) ([]repo.Invocation, error) {
	f.limit = limit
	return f.recent, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, cfg Config) *httptest.Server {
	t.Helper()

	if cfg.Logger == nil {
		cfg.Logger = quietLogger()
	}
	if cfg.Executor == nil {
		reg := steps.DefaultRegistry(steps.Options{Draw: func(int) int { return 9 }})
		cfg.Executor = worker.NewExecutor(worker.ExecutorConfig{Registry: reg, Metrics: cfg.Metrics, Logger: cfg.Logger})
	}

	mux := http.NewServeMux()
	NewHandler(cfg).RegisterRoutes(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// --- Steps ---

func TestProcessStep_Success(t *testing.T) {
	srv := newTestServer(t, Config{})

	resp := post(t, srv.URL+"/api/v1/steps/multiply/process", `{"GUID":"abcd","Data":"MTA="}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var raw map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		t.Fatalf("decode: %v", err)
	}

	// Конверт отдаётся как есть, без обёртки data
	if len(raw) != 4 {
		t.Errorf("expected exactly four envelope keys, got %v", raw)
	}
	if raw["Result"] != "Success" || raw["StatusCode"] != float64(200) {
		t.Errorf("unexpected outcome: %v", raw)
	}
	if raw["Data"] != "NTA=" {
		t.Errorf("expected base64(50), got %v", raw["Data"])
	}
}

func TestProcessStep_ExceptionIsHTTP200(t *testing.T) {
	srv := newTestServer(t, Config{})

	resp := post(t, srv.URL+"/api/v1/steps/sqrt/process", `{"GUID":"abcd","Data":"LTE="}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var env envelope.Response
	json.NewDecoder(resp.Body).Decode(&env)
	if env.Result != envelope.ResultException || env.StatusCode != 500 {
		t.Errorf("expected Exception/500 in body, got %s/%d", env.Result, env.StatusCode)
	}
}

func TestProcessStep_InvalidBase64(t *testing.T) {
	srv := newTestServer(t, Config{})

	resp := post(t, srv.URL+"/api/v1/steps/multiply/process", `{"GUID":"abcd","Data":"%%%"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var env envelope.Response
	json.NewDecoder(resp.Body).Decode(&env)
	if env.Result != envelope.ResultException {
		t.Errorf("expected Exception, got %s", env.Result)
	}
}

func TestProcessStep_MalformedJSON(t *testing.T) {
	srv := newTestServer(t, Config{})

	resp := post(t, srv.URL+"/api/v1/steps/multiply/process", `{"GUID":`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	var body ErrorResponse
	json.NewDecoder(resp.Body).Decode(&body)
	if body.Error.Code != ErrCodeBadRequest {
		t.Errorf("expected BAD_REQUEST, got %s", body.Error.Code)
	}
}

func TestProcessStep_UnknownStep(t *testing.T) {
	srv := newTestServer(t, Config{})

	resp := post(t, srv.URL+"/api/v1/steps/divide/process", `{"GUID":"abcd"}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestListSteps(t *testing.T) {
	srv := newTestServer(t, Config{})

	resp, err := http.Get(srv.URL + "/api/v1/steps")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		Data  []StepResponse `json:"data"`
		Total int            `json:"total"`
	}
	json.NewDecoder(resp.Body).Decode(&body)

	if body.Total != 5 {
		t.Errorf("expected 5 steps, got %d", body.Total)
	}
	if body.Data[0].Name != "exception" || body.Data[0].Process != "/api/v1/steps/exception/process" {
		t.Errorf("unexpected first step: %+v", body.Data[0])
	}
}

// --- Chains ---

func TestRunChain_Routed(t *testing.T) {
	srv := newTestServer(t, Config{})

	// generator всегда выдаёт 9 → Exception → обработчик
	resp := post(t, srv.URL+"/api/v1/chains/multistep/run", `{"GUID":"chain-1"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Data ChainRunResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if !body.Data.Routed {
		t.Error("expected routed chain")
	}
	if len(body.Data.Trace.Hops) != 2 || body.Data.Trace.GUID != "chain-1" {
		t.Errorf("unexpected trace: %+v", body.Data.Trace)
	}
	if text, _ := body.Data.Outcome.Text(); text != "Exception raised" {
		t.Errorf("unexpected outcome: %q", text)
	}
}

func TestRunChain_EmptyBody(t *testing.T) {
	srv := newTestServer(t, Config{})

	resp := post(t, srv.URL+"/api/v1/chains/multistep-exception/run", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestRunChain_Unknown(t *testing.T) {
	srv := newTestServer(t, Config{})

	resp := post(t, srv.URL+"/api/v1/chains/nope/run", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestRunChain_MissingUnit(t *testing.T) {
	reg := steps.NewRegistry()
	reg.Register(steps.NewSqrtStep(nil))
	exec := worker.NewExecutor(worker.ExecutorConfig{Registry: reg})
	srv := newTestServer(t, Config{Executor: exec})

	resp := post(t, srv.URL+"/api/v1/chains/multistep-exception/run", "")
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", resp.StatusCode)
	}
}

func TestRunChain_MaxHopsReturnsPartialTrace(t *testing.T) {
	reg := steps.DefaultRegistry(steps.Options{Draw: func(int) int { return 9 }})
	exec := worker.NewExecutor(worker.ExecutorConfig{Registry: reg})
	runner := chain.NewRunner(chain.RunnerConfig{Invoker: exec, MaxHops: 1})
	srv := newTestServer(t, Config{Executor: exec, Runner: runner})

	resp := post(t, srv.URL+"/api/v1/chains/multistep/run", `{"GUID":"chain-2"}`)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}

	var body struct {
		Error ErrorDetail      `json:"error"`
		Data  ChainRunResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if body.Error.Code != ErrCodeInvalidState {
		t.Errorf("expected INVALID_STATE, got %s", body.Error.Code)
	}
	if body.Data.Trace == nil || len(body.Data.Trace.Hops) != 1 {
		t.Fatalf("expected partial trace with 1 hop, got %+v", body.Data.Trace)
	}
	if body.Data.Trace.GUID != "chain-2" || body.Data.Outcome == nil {
		t.Errorf("unexpected partial result: %+v", body.Data)
	}
}

func TestRunChain_ErrorWithoutTraceOmitsData(t *testing.T) {
	srv := newTestServer(t, Config{})

	resp := post(t, srv.URL+"/api/v1/chains/nope/run", "")

	var body map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := body["data"]; ok {
		t.Errorf("unexpected data field: %s", body["data"])
	}
}

// --- Journal ---

func TestListInvocations_NotConfigured(t *testing.T) {
	srv := newTestServer(t, Config{})

	resp, err := http.Get(srv.URL + "/api/v1/invocations")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", resp.StatusCode)
	}
}

func TestListInvocations(t *testing.T) {
	inv := &fakeInvocations{
		byGUID: map[string][]repo.Invocation{
			"g1": {{Step: "sqrt"}, {Step: "exception"}},
		},
		recent: []repo.Invocation{{Step: "multiply"}},
	}
	srv := newTestServer(t, Config{Invocations: inv})

	var body struct {
		Data  []repo.Invocation `json:"data"`
		Total int               `json:"total"`
	}

	resp, _ := http.Get(srv.URL + "/api/v1/invocations?guid=g1")
	json.NewDecoder(resp.Body).Decode(&body)
	resp.Body.Close()
	if body.Total != 2 || body.Data[1].Step != "exception" {
		t.Errorf("unexpected list: %+v", body)
	}

	resp, _ = http.Get(srv.URL + "/api/v1/invocations?limit=10000")
	resp.Body.Close()
	if inv.limit != maxInvocationLimit {
		t.Errorf("limit should be capped at %d, got %d", maxInvocationLimit, inv.limit)
	}

	resp, _ = http.Get(srv.URL + "/api/v1/invocations?limit=abc")
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

// --- Middleware ---

func TestRecovery(t *testing.T) {
	h := Recovery(quietLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

func TestMetricsMiddleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	srv := newTestServer(t, Config{Metrics: telemetry.NewMetrics(reg)})

	post(t, srv.URL+"/api/v1/steps/multiply/process", `{"GUID":"abcd","Data":"MTA="}`)
	post(t, srv.URL+"/api/v1/steps/divide/process", `{"GUID":"abcd"}`)

	count, err := testutil.GatherAndCount(reg, "stepflow_http_requests_total")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 label sets (200, 404), got %d", count)
	}

	count, _ = testutil.GatherAndCount(reg, "stepflow_step_invocations_total")
	if count != 1 {
		t.Errorf("expected 1 invocation series, got %d", count)
	}
}

func TestChain(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(mw("first"), mw("second"))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if strings.Join(order, ",") != "first,second" {
		t.Errorf("unexpected order: %v", order)
	}
}

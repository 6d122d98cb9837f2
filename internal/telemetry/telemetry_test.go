package telemetry

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func fixedNow() time.Time {
	return time.Date(2026, 3, 14, 9, 26, 53, 589793000, time.UTC)
}

// --- StepLogger Tests ---

func TestStepLogger_Record(t *testing.T) {
	var buf bytes.Buffer
	l := NewStepLogger("LoopbackGet", StepLogOptions{Out: &buf, Now: fixedNow})

	if err := l.Log(SeverityDebug, "request received"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var rec StepRecord
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("record is not JSON: %v (%s)", err, buf.String())
	}

	if rec.TimestampUtc != "2026-03-14T09:26:53.589793" {
		t.Errorf("unexpected timestamp: %s", rec.TimestampUtc)
	}
	if rec.Severity != SeverityDebug {
		t.Errorf("unexpected severity: %s", rec.Severity)
	}
	if rec.Message != "[LoopbackGet] request received" {
		t.Errorf("unexpected message: %s", rec.Message)
	}
}

func TestStepLogger_InvalidSeverity(t *testing.T) {
	var buf bytes.Buffer
	l := NewStepLogger("step1", StepLogOptions{Out: &buf})

	err := l.Log(Severity("Verbose"), "hello")
	if !errors.Is(err, ErrInvalidSeverity) {
		t.Errorf("expected ErrInvalidSeverity, got %v", err)
	}

	// Невалидный уровень — ошибка даже для пустого сообщения
	err = l.Log(Severity("info"), "")
	if !errors.Is(err, ErrInvalidSeverity) {
		t.Errorf("expected ErrInvalidSeverity, got %v", err)
	}

	if buf.Len() != 0 {
		t.Errorf("nothing should be written, got %q", buf.String())
	}
}

func TestStepLogger_SkipsBlankMessages(t *testing.T) {
	var buf bytes.Buffer
	l := NewStepLogger("step1", StepLogOptions{Out: &buf})

	for _, msg := range []string{"", "   ", "\t\n"} {
		if err := l.Log(SeverityInfo, msg); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	}

	if buf.Len() != 0 {
		t.Errorf("blank messages should be skipped, got %q", buf.String())
	}
}

func TestStepLogger_Named(t *testing.T) {
	var buf bytes.Buffer
	base := NewStepLogger("base", StepLogOptions{Out: &buf, Now: fixedNow})

	base.Named("step3").Info("entering")
	base.Named("step2").Info("entering")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], `"[step3] entering"`) {
		t.Errorf("unexpected first line: %s", lines[0])
	}
	if !strings.Contains(lines[1], `"[step2] entering"`) {
		t.Errorf("unexpected second line: %s", lines[1])
	}
}

func TestStepLogger_Mirror(t *testing.T) {
	var buf bytes.Buffer
	mirror := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	l := NewStepLogger("step1", StepLogOptions{Mirror: mirror})

	l.Critical("unexpected fault")

	out := buf.String()
	if !strings.Contains(out, "[step1] unexpected fault") {
		t.Errorf("mirror should receive message, got %q", out)
	}
	if !strings.Contains(out, `"severity":"Critical"`) {
		t.Errorf("mirror should receive severity, got %q", out)
	}
}

func TestStepLogger_Nil(t *testing.T) {
	var l *StepLogger

	// nil журнал не паникует и всё равно валидирует уровни
	l.Info("hello")
	if err := l.Log(SeverityWarn, "hello"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := l.Log("bogus", "hello"); !errors.Is(err, ErrInvalidSeverity) {
		t.Errorf("expected ErrInvalidSeverity, got %v", err)
	}
}

func TestParseSeverity(t *testing.T) {
	for _, sev := range Severities() {
		got, err := ParseSeverity(string(sev))
		if err != nil || got != sev {
			t.Errorf("ParseSeverity(%s) = %s, %v", sev, got, err)
		}
	}

	if _, err := ParseSeverity("Fatal"); !errors.Is(err, ErrInvalidSeverity) {
		t.Errorf("expected ErrInvalidSeverity, got %v", err)
	}
}

func TestSeverity_LevelOrder(t *testing.T) {
	sevs := Severities()
	for i := 1; i < len(sevs); i++ {
		if sevs[i].Level() <= sevs[i-1].Level() {
			t.Errorf("%s should be above %s", sevs[i], sevs[i-1])
		}
	}
}

// --- Logger Tests ---

func TestNewLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: "WARN", Format: "text", Output: &buf})

	logger.Info("hidden")
	logger.Warn("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info should be filtered")
	}
	if !strings.Contains(out, "visible") {
		t.Error("warn should be written")
	}
}

// --- Metrics Tests ---

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveInvocation("multiply", "Success", time.Millisecond)
	m.ObserveInvocation("multiply", "Success", time.Millisecond)
	m.ObserveInvocation("sqrt", "Exception", time.Millisecond)
	m.ChainHop("exception")

	if got := testutil.ToFloat64(m.invocations.WithLabelValues("multiply", "Success")); got != 2 {
		t.Errorf("expected 2 multiply invocations, got %v", got)
	}
	if got := testutil.ToFloat64(m.chainHops.WithLabelValues("exception")); got != 1 {
		t.Errorf("expected 1 exception hop, got %v", got)
	}
}

func TestMetrics_Nil(t *testing.T) {
	var m *Metrics
	m.ObserveInvocation("multiply", "Success", time.Millisecond)
	m.ProtocolViolation("multiply")
	m.ChainHop("success")
	m.SmokeCheck("search", "ok")
	m.HTTPRequest("GET /api/v1/steps", 200)
	m.ProbeRun("smoke", "ok")
}

func TestMetrics_HTTPRequest(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.HTTPRequest("POST /api/v1/steps/{name}/process", 200)
	m.HTTPRequest("POST /api/v1/steps/{name}/process", 404)

	if got := testutil.ToFloat64(m.httpRequests.WithLabelValues("POST /api/v1/steps/{name}/process", "404")); got != 1 {
		t.Errorf("expected 1 not-found request, got %v", got)
	}
}

func TestMetrics_ProbeRun(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ProbeRun("smoke", "ok")
	m.ProbeRun("smoke", "error")
	m.ProbeRun("smoke", "error")

	if got := testutil.ToFloat64(m.probeRuns.WithLabelValues("smoke", "error")); got != 2 {
		t.Errorf("expected 2 failed probe runs, got %v", got)
	}
}

package telemetry

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "stepflow"

// Metrics — Prometheus метрики step host.
//
// Все методы безопасны для nil-получателя: компоненты, собранные
// без метрик (тесты, CLI), просто ничего не считают.
type Metrics struct {
	invocations        *prometheus.CounterVec
	invocationDuration *prometheus.HistogramVec
	protocolViolations *prometheus.CounterVec
	chainHops          *prometheus.CounterVec
	smokeChecks        *prometheus.CounterVec
	httpRequests       *prometheus.CounterVec
	probeRuns          *prometheus.CounterVec
}

// NewMetrics создаёт и регистрирует метрики.
// reg == nil — регистрация в prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "step_invocations_total",
			Help:      "Количество вызовов шагов по исходу.",
		}, []string{"step", "result"}),

		invocationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "step_invocation_duration_seconds",
			Help:      "Длительность вызова шага.",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		}, []string{"step"}),

		protocolViolations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "step_protocol_violations_total",
			Help:      "Ответы шагов, нарушившие контракт конверта.",
		}, []string{"step"}),

		chainHops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "chain_hops_total",
			Help:      "Переходы по рёбрам цепочек шагов.",
		}, []string{"outcome"}),

		smokeChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "smoke_checks_total",
			Help:      "Результаты smoke-проверок API-клиентов.",
		}, []string{"check", "status"}),

		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "HTTP запросы к step host по маршруту и статусу.",
		}, []string{"route", "status"}),

		probeRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "probe_runs_total",
			Help:      "Запуски периодических проверок по исходу.",
		}, []string{"probe", "status"}),
	}

	reg.MustRegister(
		m.invocations,
		m.invocationDuration,
		m.protocolViolations,
		m.chainHops,
		m.smokeChecks,
		m.httpRequests,
		m.probeRuns,
	)

	return m
}

// ObserveInvocation учитывает один вызов шага.
func (m *Metrics) ObserveInvocation(step, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.invocations.WithLabelValues(step, result).Inc()
	m.invocationDuration.WithLabelValues(step).Observe(d.Seconds())
}

// ProtocolViolation учитывает ответ, нарушивший контракт.
func (m *Metrics) ProtocolViolation(step string) {
	if m == nil {
		return
	}
	m.protocolViolations.WithLabelValues(step).Inc()
}

// ChainHop учитывает переход по ребру цепочки (success, exception, end).
func (m *Metrics) ChainHop(outcome string) {
	if m == nil {
		return
	}
	m.chainHops.WithLabelValues(outcome).Inc()
}

// SmokeCheck учитывает результат smoke-проверки (ok, error).
func (m *Metrics) SmokeCheck(check, status string) {
	if m == nil {
		return
	}
	m.smokeChecks.WithLabelValues(check, status).Inc()
}

// HTTPRequest учитывает HTTP запрос. route — шаблон маршрута ServeMux.
func (m *Metrics) HTTPRequest(route string, status int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

// ProbeRun учитывает запуск периодической проверки (ok, error).
func (m *Metrics) ProbeRun(probe, status string) {
	if m == nil {
		return
	}
	m.probeRuns.WithLabelValues(probe, status).Inc()
}

package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "lobsterwork"

// Metrics holds the Prometheus collectors for the API. A nil *Metrics is a
// valid no-op recorder.
type Metrics struct {
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	intentsIssued  *prometheus.CounterVec
	webhookEvents  *prometheus.CounterVec
	tasksCreated   *prometheus.CounterVec
	reconciled     *prometheus.CounterVec
	feeResolutions *prometheus.CounterVec
}

// MustNewMetrics registers the collectors with reg, reusing any that are
// already registered. Other registration errors panic.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		intentsIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "payments",
			Name:      "intents_issued_total",
			Help:      "Posting-fee payment intents issued, by outcome.",
		}, []string{"outcome"}),
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "payments",
			Name:      "webhook_events_total",
			Help:      "Verified webhook events by type and outcome.",
		}, []string{"type", "outcome"}),
		tasksCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tasks",
			Name:      "paid_creations_total",
			Help:      "Paid task creation attempts by outcome.",
		}, []string{"outcome"}),
		reconciled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "payments",
			Name:      "reconciled_total",
			Help:      "Pending payment attempts resolved by the reconciler, by resulting status.",
		}, []string{"status"}),
		feeResolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "payments",
			Name:      "fee_resolutions_total",
			Help:      "Posting fee resolutions by source.",
		}, []string{"source"}),
	}

	m.httpRequests = register(reg, m.httpRequests)
	m.httpDuration = register(reg, m.httpDuration)
	m.intentsIssued = register(reg, m.intentsIssued)
	m.webhookEvents = register(reg, m.webhookEvents)
	m.tasksCreated = register(reg, m.tasksCreated)
	m.reconciled = register(reg, m.reconciled)
	m.feeResolutions = register(reg, m.feeResolutions)
	return m
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

func (m *Metrics) ObserveHTTP(route, method, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, status).Inc()
	m.httpDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

func (m *Metrics) IntentIssued(outcome string) {
	if m == nil {
		return
	}
	m.intentsIssued.WithLabelValues(outcome).Inc()
}

func (m *Metrics) WebhookEvent(eventType, outcome string) {
	if m == nil {
		return
	}
	m.webhookEvents.WithLabelValues(eventType, outcome).Inc()
}

func (m *Metrics) TaskCreation(outcome string) {
	if m == nil {
		return
	}
	m.tasksCreated.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Reconciled(status string) {
	if m == nil {
		return
	}
	m.reconciled.WithLabelValues(status).Inc()
}

func (m *Metrics) FeeResolved(source string) {
	if m == nil {
		return
	}
	m.feeResolutions.WithLabelValues(source).Inc()
}

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMustNewMetricsReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()

	first := MustNewMetrics(reg)
	second := MustNewMetrics(reg)

	first.TaskCreation("created")
	second.TaskCreation("created")

	assert.Equal(t, 2.0, testutil.ToFloat64(first.tasksCreated.WithLabelValues("created")))
}

func TestRecorders(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := MustNewMetrics(reg)

	m.ObserveHTTP("/tasks", "POST", "200", 25*time.Millisecond)
	m.WebhookEvent("payment_intent.succeeded", "recorded")
	m.IntentIssued("ok")
	m.Reconciled("succeeded")
	m.FeeResolved("default")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("/tasks", "POST", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.webhookEvents.WithLabelValues("payment_intent.succeeded", "recorded")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveHTTP("/", "GET", "200", time.Second)
		m.TaskCreation("created")
		m.WebhookEvent("x", "y")
	})
}

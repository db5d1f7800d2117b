package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.SiteProcessed("written")
	m.SiteProcessed("written")
	m.SiteProcessed("blank")
	m.StrategyHit("breadcrumb")
	m.AssistantRequest("openai", "staff", time.Second, nil)
	m.AssistantRequest("openai", "staff", time.Second, errors.New("boom"))
	m.SheetWrite(nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SitesProcessed.WithLabelValues("written")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SitesProcessed.WithLabelValues("blank")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NavStrategy.WithLabelValues("breadcrumb")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AssistantRequests.WithLabelValues("openai", "staff", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AssistantRequests.WithLabelValues("openai", "staff", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SheetWrites.WithLabelValues("ok")))
}

func TestJobGauge(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.JobStarted()
	m.JobStarted()
	m.JobFinished("completed")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.JobsRunning))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.JobsFinished.WithLabelValues("completed")))
}

func TestNilReceiver(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.SiteProcessed("written")
		m.StrategyHit("x")
		m.AssistantRequest("web", "nav", time.Second, nil)
		m.JobStarted()
		m.JobFinished("stopped")
		m.SheetWrite(nil)
	})
}

// Package metrics описывает Prometheus-метрики агента.
// Все методы допускают nil-получатель: без метрик код работает так же.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const Namespace = "clinic_agent"

type Metrics struct {
	SitesProcessed    *prometheus.CounterVec
	NavStrategy       *prometheus.CounterVec
	AssistantRequests *prometheus.CounterVec
	AssistantDuration *prometheus.HistogramVec
	JobsFinished      *prometheus.CounterVec
	JobsRunning       prometheus.Gauge
	SheetWrites       *prometheus.CounterVec
}

// New регистрирует метрики в reg (nil - глобальный регистратор).
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		SitesProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "sites_processed_total",
			Help:      "Processed sites by outcome",
		}, []string{"outcome"}),
		NavStrategy: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "nav_strategy_hits_total",
			Help:      "Staff page found, by navigation strategy",
		}, []string{"strategy"}),
		AssistantRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "assistant_requests_total",
			Help:      "Assistant requests by backend, kind and result",
		}, []string{"backend", "kind", "result"}),
		AssistantDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "assistant_request_duration_seconds",
			Help:      "Assistant request latency",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 9), // 0.5s .. ~2m
		}, []string{"backend"}),
		JobsFinished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "jobs_finished_total",
			Help:      "Finished jobs by final status",
		}, []string{"status"}),
		JobsRunning: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "jobs_running",
			Help:      "Jobs holding the browser right now",
		}),
		SheetWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "sheet_writes_total",
			Help:      "Spreadsheet row writes by result",
		}, []string{"result"}),
	}
}

func (m *Metrics) SiteProcessed(outcome string) {
	if m == nil {
		return
	}
	m.SitesProcessed.WithLabelValues(outcome).Inc()
}

func (m *Metrics) StrategyHit(strategy string) {
	if m == nil {
		return
	}
	m.NavStrategy.WithLabelValues(strategy).Inc()
}

// AssistantRequest учитывает один запрос к ассистенту.
func (m *Metrics) AssistantRequest(backend, kind string, d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.AssistantRequests.WithLabelValues(backend, kind, result).Inc()
	m.AssistantDuration.WithLabelValues(backend).Observe(d.Seconds())
}

func (m *Metrics) JobStarted() {
	if m == nil {
		return
	}
	m.JobsRunning.Inc()
}

func (m *Metrics) JobFinished(status string) {
	if m == nil {
		return
	}
	m.JobsRunning.Dec()
	m.JobsFinished.WithLabelValues(status).Inc()
}

func (m *Metrics) SheetWrite(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.SheetWrites.WithLabelValues("error").Inc()
		return
	}
	m.SheetWrites.WithLabelValues("ok").Inc()
}

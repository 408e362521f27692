// Package metrics registers the concierge Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry      *prometheus.Registry
	intents       *prometheus.CounterVec
	leads         *prometheus.CounterVec
	turnsRejected *prometheus.CounterVec
	voiceErrors   *prometheus.CounterVec
	mortgageTotal prometheus.Histogram
}

// New creates a registry with process, Go runtime and concierge collectors
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		intents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "concierge_intents_total",
			Help: "Classified chat turns by response category.",
		}, []string{"category"}),
		leads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "concierge_leads_submitted_total",
			Help: "Lead submissions by result.",
		}, []string{"result"}),
		turnsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "concierge_turns_rejected_total",
			Help: "Chat turns dropped before processing, by reason.",
		}, []string{"reason"}),
		voiceErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "concierge_voice_errors_total",
			Help: "Speech recognition errors reported by voice hosts, by code.",
		}, []string{"code"}),
		mortgageTotal: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "concierge_mortgage_monthly_total_dollars",
			Help:    "Monthly totals of computed mortgage quotes.",
			Buckets: prometheus.ExponentialBuckets(10_000, 2, 8),
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.intents, m.leads, m.turnsRejected, m.voiceErrors, m.mortgageTotal,
	)
	return m
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) IntentClassified(category string) {
	if m == nil {
		return
	}
	m.intents.WithLabelValues(category).Inc()
}

func (m *Metrics) LeadSubmitted(success bool) {
	if m == nil {
		return
	}
	result := "success"
	if !success {
		result = "failure"
	}
	m.leads.WithLabelValues(result).Inc()
}

func (m *Metrics) TurnRejected(reason string) {
	if m == nil {
		return
	}
	m.turnsRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) VoiceError(code string) {
	if m == nil {
		return
	}
	m.voiceErrors.WithLabelValues(code).Inc()
}

func (m *Metrics) MortgageQuoted(monthlyTotal float64) {
	if m == nil {
		return
	}
	m.mortgageTotal.Observe(monthlyTotal)
}

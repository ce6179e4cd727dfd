// Package metrics provides prometheus instrumentation for the application.
// This is part of the platform layer and contains no business logic.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gin-gonic/gin"
)

// Metrics holds the application's prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	// MatchDuration observes match aggregation runs, labeled by direction
	// ("buyers_for_property" or "properties_for_buyer").
	MatchDuration *prometheus.HistogramVec
	// PairsScored counts scored buyer/property pairs.
	PairsScored prometheus.Counter
	// Transitions counts stage transitions by outcome ("ok", "failed",
	// "conflict", "noop").
	Transitions *prometheus.CounterVec
	// CRMCalls counts outbound CRM API calls by operation and outcome.
	CRMCalls *prometheus.CounterVec
}

// New creates and registers the application collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		MatchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dealdesk",
			Name:      "match_duration_seconds",
			Help:      "Duration of match aggregation runs.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}, []string{"direction"}),
		PairsScored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dealdesk",
			Name:      "pairs_scored_total",
			Help:      "Total number of buyer/property pairs scored.",
		}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dealdesk",
			Name:      "stage_transitions_total",
			Help:      "Deal stage transitions by outcome.",
		}, []string{"outcome"}),
		CRMCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dealdesk",
			Name:      "crm_calls_total",
			Help:      "Outbound CRM API calls by operation and outcome.",
		}, []string{"operation", "outcome"}),
	}

	reg.MustRegister(m.MatchDuration, m.PairsScored, m.Transitions, m.CRMCalls)
	return m
}

// Handler returns a gin handler serving the /metrics endpoint.
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

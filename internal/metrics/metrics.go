// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CatalogReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "propscope_catalog_reloads_total",
			Help: "Dataset load attempts by outcome",
		},
		[]string{"outcome"},
	)

	CatalogSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "propscope_catalog_properties",
			Help: "Number of properties in the active catalog snapshot",
		},
	)

	AssistantRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "propscope_assistant_requests_total",
			Help: "Questions answered by the assistant, by result",
		},
		[]string{"result"},
	)

	AssistantDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "propscope_assistant_duration_seconds",
			Help:    "Time spent producing an assistant answer",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"result"},
	)

	AssistantContextItems = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "propscope_assistant_context_items",
			Help:    "Properties forwarded as context per question",
			Buckets: []float64{0, 1, 5, 10, 20, 30, 40, 50},
		},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "propscope_assistant_cache_lookups_total",
			Help: "Assistant answer cache lookups by outcome",
		},
		[]string{"outcome"},
	)

	SSEClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "propscope_sse_clients",
			Help: "Connected event stream subscribers",
		},
	)
)

// Result labels shared by the assistant collectors.
const (
	ResultAnswered      = "answered"
	ResultCached        = "cached"
	ResultParseFallback = "parse_fallback"
	ResultErrorFallback = "error_fallback"
)

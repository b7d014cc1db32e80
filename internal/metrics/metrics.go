// README: Prometheus collectors for classification, provider lookups, generation and the event stream.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ClassificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wondura_classifications_total",
			Help: "Routing decisions produced, by routing label and source (model, prepass, fallback)",
		},
		[]string{"routing", "source"},
	)

	ProviderLookupDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wondura_provider_lookup_duration_seconds",
			Help:    "Duration of data provider lookups in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 15, 20, 25, 30},
		},
		[]string{"provider"},
	)

	ProviderLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wondura_provider_lookups_total",
			Help: "Data provider lookups by outcome: ok, failed, timeout, cancelled or unavailable",
		},
		[]string{"provider", "outcome"},
	)

	SearchCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wondura_search_cache_total",
			Help: "Search cache lookups by result (hit, miss)",
		},
		[]string{"result"},
	)

	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "wondura_generation_duration_seconds",
			Help: "Duration of model generation calls in seconds",
		},
		[]string{"purpose"},
	)

	GenerationFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wondura_generation_fallbacks_total",
			Help: "Generations whose output could not be parsed and fell back",
		},
		[]string{"purpose"},
	)

	StreamEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wondura_stream_events_total",
			Help: "Lifecycle events written to event streams, by kind",
		},
		[]string{"kind"},
	)

	StreamsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wondura_streams_active",
			Help: "Number of open event streams",
		},
	)
)

package metrics

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "civic_request_duration_seconds",
			Help:    "End-to-end civic request duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"endpoint"},
	)

	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "civic_request_total",
			Help: "Total civic requests by endpoint and status",
		},
		[]string{"endpoint", "status"},
	)

	IntentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "civic_intent_total",
			Help: "Classified queries by intent",
		},
		[]string{"intent"},
	)

	LanguageTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "civic_language_total",
			Help: "Requests by resolved response language",
		},
		[]string{"language"},
	)

	ProviderCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "civic_evidence_provider_calls_total",
			Help: "Evidence provider calls by outcome (ok, empty, failed)",
		},
		[]string{"provider", "outcome"},
	)

	ProviderDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "civic_evidence_provider_duration_seconds",
			Help:    "Evidence provider call latency in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"provider"},
	)

	AggregationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "civic_evidence_aggregation_duration_seconds",
			Help:    "Evidence aggregation latency for cache misses",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"intent"},
	)

	FallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "civic_evidence_fallback_total",
			Help: "Aggregations where no provider contributed evidence",
		},
		[]string{"intent"},
	)

	SingleFlightShared = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "civic_evidence_singleflight_shared_total",
			Help: "Cache misses served by another request's in-flight aggregation",
		},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "civic_cache_hits_total",
			Help: "Evidence cache hits",
		},
		[]string{"backend"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "civic_cache_misses_total",
			Help: "Evidence cache misses",
		},
		[]string{"backend"},
	)

	CircuitState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "civic_circuit_state",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)

	LLMCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "civic_llm_calls_total",
			Help: "Generation calls by provider and status",
		},
		[]string{"provider", "status"},
	)

	TranscriptWriteErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "civic_transcript_write_errors_total",
			Help: "Failed transcript inserts by kind",
		},
		[]string{"kind"},
	)
)

var initOnce sync.Once

// Init registers every collector with the default registry. Safe to call
// more than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			RequestDuration,
			RequestTotal,
			IntentTotal,
			LanguageTotal,
			ProviderCalls,
			ProviderDuration,
			AggregationDuration,
			FallbackTotal,
			SingleFlightShared,
			CacheHits,
			CacheMisses,
			CircuitState,
			LLMCalls,
			TranscriptWriteErrors,
		)
	})
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}

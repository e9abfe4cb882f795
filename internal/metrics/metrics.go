package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	providerAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jarvis",
			Name:      "provider_attempts_total",
			Help:      "Provider attempts by provider and result (success, transient, quota-exceeded)",
		},
		[]string{"provider", "result"},
	)

	providerLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jarvis",
			Name:      "provider_attempt_duration_seconds",
			Help:      "Duration of single provider attempts",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	fallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "jarvis",
			Name:      "generation_fallback_total",
			Help:      "Generations answered with the synthetic fallback after every provider failed",
		},
	)

	requests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jarvis",
			Name:      "requests_total",
			Help:      "Orchestrated requests by mode and result",
		},
		[]string{"mode", "result"},
	)

	stageLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jarvis",
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage duration by stage and result",
			Buckets:   []float64{.1, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"stage", "result"},
	)

	searchAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jarvis",
			Name:      "search_attempts_total",
			Help:      "Web search attempts by backend and result",
		},
		[]string{"backend", "result"},
	)

	initOnce sync.Once
)

// Init registers collectors with the default registry. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(providerAttempts, providerLatency, fallbacks, requests, stageLatency, searchAttempts)
	})
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

func ObserveAttempt(provider, result string, dur time.Duration) {
	providerAttempts.WithLabelValues(provider, result).Inc()
	providerLatency.WithLabelValues(provider).Observe(dur.Seconds())
}

func IncFallback() { fallbacks.Inc() }

func IncRequest(mode, result string) { requests.WithLabelValues(mode, result).Inc() }

func ObserveStage(stage string, ok bool, dur time.Duration) {
	stageLatency.WithLabelValues(stage, okToStr(ok)).Observe(dur.Seconds())
}

func ObserveSearch(backend string, ok bool) {
	searchAttempts.WithLabelValues(backend, okToStr(ok)).Inc()
}

// SearchCounter exposes a search attempt counter for tests.
func SearchCounter(backend string, ok bool) prometheus.Counter {
	return searchAttempts.WithLabelValues(backend, okToStr(ok))
}

// AttemptCount reads the attempt counter; intended for tests and diagnostics.
func AttemptCount(provider, result string) prometheus.Counter {
	return providerAttempts.WithLabelValues(provider, result)
}

// FallbackCounter exposes the fallback counter for tests.
func FallbackCounter() prometheus.Counter { return fallbacks }

// RequestCounter exposes a request counter for tests.
func RequestCounter(mode, result string) prometheus.Counter {
	return requests.WithLabelValues(mode, result)
}

func okToStr(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

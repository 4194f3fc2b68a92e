// Package metrics exposes prometheus instrumentation for the HTTP
// surface and the render pipeline.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	renderCacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stackshelf",
			Name:      "render_cache_hits_total",
			Help:      "Derived-asset requests served from the file cache",
		},
		[]string{"kind"},
	)

	renderCacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stackshelf",
			Name:      "render_cache_misses_total",
			Help:      "Derived-asset requests that required a render",
		},
		[]string{"kind"},
	)

	renderDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "stackshelf",
			Name:      "render_duration_seconds",
			Help:      "Time spent rendering one derived asset",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"kind"},
	)

	renderFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stackshelf",
			Name:      "render_failures_total",
			Help:      "Renders that ended in an error",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(renderCacheHits)
	prometheus.MustRegister(renderCacheMisses)
	prometheus.MustRegister(renderDuration)
	prometheus.MustRegister(renderFailures)
}

// RenderCacheHit records a file-cache hit for one derivative kind.
func RenderCacheHit(kind string) {
	renderCacheHits.WithLabelValues(kind).Inc()
}

// RenderCacheMiss records a file-cache miss for one derivative kind.
func RenderCacheMiss(kind string) {
	renderCacheMisses.WithLabelValues(kind).Inc()
}

// ObserveRender records the duration of one render.
func ObserveRender(kind string, seconds float64) {
	renderDuration.WithLabelValues(kind).Observe(seconds)
}

// RenderFailure records a failed render.
func RenderFailure(kind string) {
	renderFailures.WithLabelValues(kind).Inc()
}

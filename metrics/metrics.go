// Package metrics exposes Prometheus metrics for blog rendering, provider
// calls and the GitHub response cache.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records madea metrics. It satisfies blog.Recorder and
// httpcache.Observer.
type Collector struct {
	outcomes        *prometheus.CounterVec
	providerCalls   *prometheus.CounterVec
	providerLatency *prometheus.HistogramVec
	cacheRequests   *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "madea_outcomes_total",
			Help: "Blog requests by resolved outcome.",
		}, []string{"kind"}),
		providerCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "madea_provider_calls_total",
			Help: "Data provider calls by operation and result.",
		}, []string{"op", "result"}),
		providerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "madea_provider_latency_seconds",
			Help:    "Data provider call latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		cacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "madea_cache_requests_total",
			Help: "Cacheable upstream requests by cache result.",
		}, []string{"result"}),
	}

	reg.MustRegister(c.outcomes, c.providerCalls, c.providerLatency, c.cacheRequests)
	return c
}

// ObserveOutcome counts one resolved blog request.
func (c *Collector) ObserveOutcome(kind string) {
	c.outcomes.WithLabelValues(kind).Inc()
}

// ObserveProviderCall records the result and latency of a provider call.
func (c *Collector) ObserveProviderCall(op, result string, d time.Duration) {
	c.providerCalls.WithLabelValues(op, result).Inc()
	c.providerLatency.WithLabelValues(op).Observe(d.Seconds())
}

// ObserveCache counts a response cache hit or miss.
func (c *Collector) ObserveCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	c.cacheRequests.WithLabelValues(result).Inc()
}

// Handler returns the HTTP handler Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

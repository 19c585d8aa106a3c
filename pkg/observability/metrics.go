package observability

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the Prometheus metrics of the application. It implements
// every hook interface of this package, so one collector can be registered
// for all of them.
type Collector struct {
	registry *prometheus.Registry

	// Knowledge lookups
	Lookups        *prometheus.CounterVec
	LookupDuration *prometheus.HistogramVec
	PathPairs      prometheus.Histogram
	Loaded         *prometheus.CounterVec

	// Cache
	CacheOps *prometheus.CounterVec

	// Outgoing requests
	Upstream         *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec

	// Served requests
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// NewCollector creates a collector whose metrics live in their own registry
// under namespace.
func NewCollector(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		Lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "knowledge_lookups_total",
			Help:      "Knowledge lookups by origin and outcome",
		}, []string{"origin", "status"}),
		LookupDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "knowledge_lookup_duration_seconds",
			Help:      "Knowledge lookup duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"origin"}),
		PathPairs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "connectivity_pairs",
			Help:      "Connectivity pairs per parsed neuron path",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		Loaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "load_records_total",
			Help:      "Records handled by bulk loads",
		}, []string{"status"}),
		CacheOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_operations_total",
			Help:      "Cache operations by key type and result",
		}, []string{"key_type", "op"}),
		Upstream: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Outgoing HTTP requests by host and status",
		}, []string{"host", "status"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Outgoing HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"host"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	c.registry.MustRegister(
		c.Lookups, c.LookupDuration, c.PathPairs, c.Loaded,
		c.CacheOps,
		c.Upstream, c.UpstreamDuration,
		c.HTTPRequests, c.HTTPDuration,
	)
	return c
}

// Registry returns the collector's Prometheus registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the collector's metrics in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records a served HTTP request.
func (c *Collector) ObserveRequest(method, route string, status int, duration time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (c *Collector) OnKnowledgeStart(context.Context, string) {}

func (c *Collector) OnKnowledgeComplete(_ context.Context, _, origin string, d time.Duration, err error) {
	c.Lookups.WithLabelValues(origin, status(err)).Inc()
	c.LookupDuration.WithLabelValues(origin).Observe(d.Seconds())
}

func (c *Collector) OnConnectivity(_ context.Context, pairs int, _ time.Duration) {
	c.PathPairs.Observe(float64(pairs))
}

func (c *Collector) OnLoadComplete(_ context.Context, loaded, failed int, _ time.Duration) {
	c.Loaded.WithLabelValues("ok").Add(float64(loaded))
	c.Loaded.WithLabelValues("error").Add(float64(failed))
}

func (c *Collector) OnCacheHit(_ context.Context, keyType string) {
	c.CacheOps.WithLabelValues(keyType, "hit").Inc()
}

func (c *Collector) OnCacheMiss(_ context.Context, keyType string) {
	c.CacheOps.WithLabelValues(keyType, "miss").Inc()
}

func (c *Collector) OnCacheSet(_ context.Context, keyType string, _ int) {
	c.CacheOps.WithLabelValues(keyType, "set").Inc()
}

func (c *Collector) OnRequest(context.Context, string, string, string) {}

func (c *Collector) OnResponse(_ context.Context, _, host, _ string, code int, d time.Duration) {
	c.Upstream.WithLabelValues(host, strconv.Itoa(code)).Inc()
	c.UpstreamDuration.WithLabelValues(host).Observe(d.Seconds())
}

func (c *Collector) OnError(_ context.Context, _, host, _ string, _ error) {
	c.Upstream.WithLabelValues(host, "error").Inc()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

var (
	_ PipelineHooks = (*Collector)(nil)
	_ CacheHooks    = (*Collector)(nil)
	_ HTTPHooks     = (*Collector)(nil)
)

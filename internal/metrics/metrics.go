// Package metrics exposes the server's Prometheus collectors.
//
// Each Collector owns its own registry, so tests can build as many as they
// like without colliding on the global default registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "canvaid"

// Entity kinds used as the "kind" label.
const (
	KindBoard      = "board"
	KindSection    = "section"
	KindCard       = "card"
	KindConnection = "connection"
	KindNote       = "note"
)

type Collector struct {
	registry *prometheus.Registry

	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
	EntitiesCreated *prometheus.CounterVec
	EntitiesDeleted *prometheus.CounterVec
}

func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		EntitiesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entities_created_total",
			Help:      "Boards, sections, cards, connections and notes created.",
		}, []string{"kind"}),
		EntitiesDeleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entities_deleted_total",
			Help:      "Boards, sections, cards and connections deleted.",
		}, []string{"kind"}),
	}

	c.registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.EntitiesCreated,
		c.EntitiesDeleted,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Created counts one new entity of kind. Safe to call on a nil Collector.
func (c *Collector) Created(kind string) {
	if c == nil {
		return
	}
	c.EntitiesCreated.WithLabelValues(kind).Inc()
}

// Deleted counts one removed entity of kind. Safe to call on a nil Collector.
func (c *Collector) Deleted(kind string) {
	if c == nil {
		return
	}
	c.EntitiesDeleted.WithLabelValues(kind).Inc()
}

// ObserveRequest records one served request. route is the router pattern,
// not the raw path, to keep label cardinality bounded.
func (c *Collector) ObserveRequest(method, route string, status int, d time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

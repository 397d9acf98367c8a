package tumbleweed

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	registry      *prometheus.Registry
	views         *prometheus.CounterVec
	renderSeconds *prometheus.HistogramVec
	indexedItems  prometheus.Gauge
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		views: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tumbleweed",
			Name:      "views_total",
			Help:      "Views served, by route name and status code.",
		}, []string{"route", "code"}),
		renderSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tumbleweed",
			Name:      "render_seconds",
			Help:      "Time spent querying and rendering a view.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		indexedItems: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tumbleweed",
			Name:      "indexed_items",
			Help:      "Items written to the index by the last reindex.",
		}),
	}
	m.registry.MustRegister(
		m.views,
		m.renderSeconds,
		m.indexedItems,
		collectors.NewGoCollector(),
	)
	return m
}

func (s *Site) metricsHandler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))
}

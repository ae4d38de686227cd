package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the server's Prometheus metrics.
type Collector struct {
	registry *prometheus.Registry

	uploadsTotal       *prometheus.CounterVec
	recordsPartitioned prometheus.Counter
	dateParseFailures  prometheus.Counter
	processingDuration prometheus.Histogram
}

// NewCollector creates a collector on its own registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Collector{
		registry: reg,
		uploadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "setsplit_uploads_total",
				Help: "Uploads handled, by outcome",
			},
			[]string{"outcome"},
		),
		recordsPartitioned: factory.NewCounter(prometheus.CounterOpts{
			Name: "setsplit_records_partitioned_total",
			Help: "Student records assigned to a set",
		}),
		dateParseFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "setsplit_date_parse_failures_total",
			Help: "Dates of birth rendered as NULL because they could not be parsed",
		}),
		processingDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "setsplit_processing_duration_seconds",
			Help:    "Time spent partitioning and serializing one dataset",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// UploadSucceeded counts a processed upload.
func (c *Collector) UploadSucceeded() { c.uploadsTotal.WithLabelValues("ok").Inc() }

// UploadFailed counts a rejected upload. reason is a short fixed label.
func (c *Collector) UploadFailed(reason string) { c.uploadsTotal.WithLabelValues(reason).Inc() }

// RecordsPartitioned adds n assigned records.
func (c *Collector) RecordsPartitioned(n int) { c.recordsPartitioned.Add(float64(n)) }

// DateParseFailed counts one NULL-degraded date.
func (c *Collector) DateParseFailed() { c.dateParseFailures.Inc() }

// ObserveProcessing records pipeline duration in seconds.
func (c *Collector) ObserveProcessing(seconds float64) { c.processingDuration.Observe(seconds) }

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

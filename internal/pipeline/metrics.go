package pipeline

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dgallion1/fundgest/internal/dataset"
)

// Metrics holds the pipeline's Prometheus collectors on a private registry.
type Metrics struct {
	reg *prometheus.Registry

	documents *prometheus.CounterVec
	records   *prometheus.CounterVec
	skipped   *prometheus.CounterVec
	stores    *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fundgest",
			Name:      "documents_processed_total",
			Help:      "Documents processed, by dataset and outcome.",
		}, []string{"dataset", "status"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fundgest",
			Name:      "records_total",
			Help:      "Extracted funding records, by dataset and decision.",
		}, []string{"dataset", "decision"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fundgest",
			Name:      "sections_skipped_total",
			Help:      "Configured sections not found in a document.",
		}, []string{"dataset"}),
		stores: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fundgest",
			Name:      "sink_writes_total",
			Help:      "Output writes, by sink and outcome.",
		}, []string{"sink", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fundgest",
			Name:      "processing_seconds",
			Help:      "Time spent extracting one document.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"dataset"}),
	}
	m.reg.MustRegister(
		m.documents, m.records, m.skipped, m.stores, m.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// ObserveOutput counts a successful extraction.
func (m *Metrics) ObserveOutput(out dataset.Output, seconds float64) {
	m.documents.WithLabelValues(out.Dataset, "ok").Inc()
	m.duration.WithLabelValues(out.Dataset).Observe(seconds)
	for _, r := range out.Records {
		m.records.WithLabelValues(out.Dataset, r.Decision.String()).Inc()
	}
	if n := len(out.Skipped); n > 0 {
		m.skipped.WithLabelValues(out.Dataset).Add(float64(n))
	}
}

// ObserveFailure counts a document that could not be processed.
func (m *Metrics) ObserveFailure(ds string) {
	m.documents.WithLabelValues(ds, "failed").Inc()
}

// ObserveStore counts one sink write.
func (m *Metrics) ObserveStore(sink string, err error) {
	status := "ok"
	if err != nil {
		status = "failed"
	}
	m.stores.WithLabelValues(sink, status).Inc()
}

package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	extractionTotal    *prometheus.CounterVec
	extractionDuration *prometheus.HistogramVec
	extractionInFlight prometheus.Gauge
	ocrPagesFetched    prometheus.Counter
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	extractionTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docext",
			Subsystem: "worker",
			Name:      "extraction_total",
			Help:      "Total dispatched trigger items by source and outcome.",
		},
		[]string{"service", "source", "outcome"},
	)
	extractionDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docext",
			Subsystem: "worker",
			Name:      "extraction_duration_seconds",
			Help:      "Trigger item processing duration in seconds by outcome.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "outcome"},
	)
	extractionInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "docext",
			Subsystem: "worker",
			Name:      "extraction_in_flight",
			Help:      "Number of in-flight trigger items.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	ocrPagesFetched := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "docext",
			Subsystem: "worker",
			Name:      "ocr_pages_fetched_total",
			Help:      "Total OCR result pages retrieved during completion handling.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(extractionTotal, extractionDuration, extractionInFlight, ocrPagesFetched)

	return &WorkerMetrics{
		registry:           registry,
		extractionTotal:    extractionTotal,
		extractionDuration: extractionDuration,
		extractionInFlight: extractionInFlight,
		ocrPagesFetched:    ocrPagesFetched,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartItem() {
	m.extractionInFlight.Inc()
}

func (m *WorkerMetrics) FinishItem(service, source string, duration time.Duration, err error) {
	m.extractionInFlight.Dec()

	outcome := "success"
	if err != nil {
		outcome = "error"
	}

	m.extractionTotal.WithLabelValues(service, source, outcome).Inc()
	m.extractionDuration.WithLabelValues(service, outcome).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveOCRPage() {
	m.ocrPagesFetched.Inc()
}

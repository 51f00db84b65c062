package alert

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"weblog-hunter/internal/model"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"
)

// Metrics holds the counters of one hunter process on a private registry
type Metrics struct {
	registry *prometheus.Registry

	LinesParsed       prometheus.Counter
	Requests          *prometheus.CounterVec
	Findings          *prometheus.CounterVec
	DetectionDuration prometheus.Histogram
	PeakBucketCount   *prometheus.GaugeVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		LinesParsed: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "weblog_hunter_lines_parsed_total",
				Help: "Total number of access log lines parsed",
			},
		),

		Requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "weblog_hunter_requests_total",
				Help: "Total number of parsed requests by status class",
			},
			[]string{"class"},
		),

		Findings: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "weblog_hunter_findings_total",
				Help: "Total number of findings by type and severity",
			},
			[]string{"type", "severity"},
		),

		DetectionDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "weblog_hunter_detection_duration_seconds",
				Help:    "Time spent running detection over a log",
				Buckets: prometheus.DefBuckets,
			},
		),

		PeakBucketCount: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "weblog_hunter_peak_bucket_count",
				Help: "Largest per-window count for a host by rate finding type",
			},
			[]string{"type", "host"},
		),
	}
}

// RecordRecords counts parsed lines and their status classes
func (m *Metrics) RecordRecords(records []model.Record) {
	m.LinesParsed.Add(float64(len(records)))
	for i := range records {
		class := records[i].StatusClass()
		if class < 1 || class > 5 {
			continue
		}
		m.Requests.WithLabelValues(strconv.Itoa(class) + "xx").Inc()
	}
}

// SendFinding implements Notifier so metrics can be registered like any other sink
func (m *Metrics) SendFinding(finding model.Finding) error {
	m.Findings.WithLabelValues(finding.Type.String(), finding.Severity.String()).Inc()
	return nil
}

func (m *Metrics) ObserveDetection(d time.Duration) {
	m.DetectionDuration.Observe(d.Seconds())
}

// SetPeaks publishes the per-host peak window counts of a rate finding type
func (m *Metrics) SetPeaks(kind model.FindingType, peaks map[string]int) {
	for host, peak := range peaks {
		m.PeakBucketCount.WithLabelValues(kind.String(), host).Set(float64(peak))
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// WriteText encodes every gathered family in the text exposition format
func (m *Metrics) WriteText(w io.Writer) error {
	families, err := m.registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("failed to encode metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// WriteTextfile atomically writes the metrics for the node exporter textfile collector
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile %s: %w", path, err)
	}
	return nil
}

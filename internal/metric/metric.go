package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the parse counters for one process. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	documents    *prometheus.CounterVec
	events       *prometheus.CounterVec
	skipped      *prometheus.CounterVec
	parseSeconds *prometheus.HistogramVec
}

// New registers the pentasched collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		documents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pentasched_documents_total",
			Help: "Schedule documents parsed, by source and result",
		}, []string{"source", "result"}),
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pentasched_events_total",
			Help: "Events produced by the schedule parser",
		}, []string{"source"}),
		skipped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pentasched_skipped_elements_total",
			Help: "Unknown elements skipped while parsing",
		}, []string{"source"}),
		parseSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pentasched_parse_duration_seconds",
			Help:    "Wall time from first read to end of a schedule document",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"source"}),
	}
}

func (m *Metrics) EventParsed(source string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(source).Inc()
}

func (m *Metrics) ElementSkipped(source string) {
	if m == nil {
		return
	}
	m.skipped.WithLabelValues(source).Inc()
}

// DocumentDone records a finished document. err is the terminal error, nil
// on a clean end of stream.
func (m *Metrics) DocumentDone(source string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.documents.WithLabelValues(source, result).Inc()
	m.parseSeconds.WithLabelValues(source).Observe(elapsed.Seconds())
}

// WriteTextfile writes the current values in the node_exporter textfile
// format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.Registry)
}

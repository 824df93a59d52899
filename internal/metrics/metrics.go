package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"shufflebench/internal/benchmark"
	"shufflebench/internal/relation"
	"shufflebench/internal/report"
)

var (
	_ relation.Observer    = (*Metrics)(nil)
	_ report.ChartObserver = (*Metrics)(nil)
)

// Metrics holds the collectors of one pipeline run.
type Metrics struct {
	RelationsTotal       *prometheus.CounterVec
	TuplesWrittenTotal   *prometheus.CounterVec
	RelationSeconds      *prometheus.HistogramVec
	RecordsParsedTotal   prometheus.Counter
	ParseIssuesTotal     *prometheus.CounterVec
	ChartsWrittenTotal   *prometheus.CounterVec
	WriteOutsParsedTotal prometheus.Counter
}

// NewMetrics creates all collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{}

	m.RelationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shufflebench_relations_total",
			Help: "Relations generated, by data type and outcome",
		},
		[]string{"type", "status"},
	)

	m.TuplesWrittenTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shufflebench_tuples_written_total",
			Help: "Tuples written to relation files",
		},
		[]string{"type"},
	)

	m.RelationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shufflebench_relation_seconds",
			Help:    "Time spent generating one relation",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
		},
		[]string{"type"},
	)

	m.RecordsParsedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "shufflebench_records_parsed_total",
			Help: "Benchmark log rows parsed",
		},
	)

	m.ParseIssuesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shufflebench_parse_issues_total",
			Help: "Cells or rows that could not be parsed, by reason",
		},
		[]string{"reason"},
	)

	m.WriteOutsParsedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "shufflebench_writeouts_parsed_total",
			Help: "Write-out measurements extracted from free-text logs",
		},
	)

	m.ChartsWrittenTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shufflebench_charts_written_total",
			Help: "Chart files written, by metric",
		},
		[]string{"metric"},
	)

	if reg != nil {
		reg.MustRegister(
			m.RelationsTotal,
			m.TuplesWrittenTotal,
			m.RelationSeconds,
			m.RecordsParsedTotal,
			m.ParseIssuesTotal,
			m.WriteOutsParsedTotal,
			m.ChartsWrittenTotal,
		)
	}
	return m
}

// ObserveRelation records the outcome of one relation generation.
func (m *Metrics) ObserveRelation(t relation.DataType, tuples int64, elapsed time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "failed"
	}
	m.RelationsTotal.WithLabelValues(t.String(), status).Inc()
	if err == nil {
		m.TuplesWrittenTotal.WithLabelValues(t.String()).Add(float64(tuples))
	}
	m.RelationSeconds.WithLabelValues(t.String()).Observe(elapsed.Seconds())
}

// ObserveTable counts the records and issues of a parsed benchmark log.
func (m *Metrics) ObserveTable(t *benchmark.Table) {
	m.RecordsParsedTotal.Add(float64(len(t.Records)))
	for _, is := range t.Issues {
		m.ParseIssuesTotal.WithLabelValues(issueReason(is)).Inc()
	}
}

// ObserveWriteOuts counts extracted write-out rows.
func (m *Metrics) ObserveWriteOuts(rows []benchmark.WriteOut) {
	m.WriteOutsParsedTotal.Add(float64(len(rows)))
}

// ObserveChart counts one written chart file.
func (m *Metrics) ObserveChart(metric string) {
	m.ChartsWrittenTotal.WithLabelValues(metric).Inc()
}

// issueReason keeps the label set small: row-level issues carry their
// field counts in the reason text.
func issueReason(is benchmark.Issue) string {
	if is.Column == "" {
		return "row"
	}
	return is.Reason
}

package repair

import (
	"github.com/prometheus/client_golang/prometheus"
)

type repairMetrics struct {
	fetchDuration  prometheus.Histogram
	repairDuration prometheus.Histogram
	outcomes       *prometheus.CounterVec
}

func makeMetrics(labels prometheus.Labels) repairMetrics {
	return repairMetrics{
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "feedfix_fetch_duration",
			Help:        "Document fetch duration",
			ConstLabels: labels,
			Buckets:     []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),

		repairDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "feedfix_repair_duration",
			Help:        "Feed entry processing duration including retries and discovery",
			ConstLabels: labels,
			Buckets:     []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),

		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "feedfix_repair_outcomes",
			Help:        "Feed entry processing outcomes",
			ConstLabels: labels,
		}, []string{"outcome"}),
	}
}

var _ prometheus.Collector = &repairMetrics{}

func (m *repairMetrics) Describe(descs chan<- *prometheus.Desc) {
	m.fetchDuration.Describe(descs)
	m.repairDuration.Describe(descs)
	m.outcomes.Describe(descs)
}

func (m *repairMetrics) Collect(metrics chan<- prometheus.Metric) {
	m.fetchDuration.Collect(metrics)
	m.repairDuration.Collect(metrics)
	m.outcomes.Collect(metrics)
}

package metrics

import (
	"context"

	logging "github.com/KonishchevDmitry/go-easy-logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/mo"
)

// Registry collects metrics of a single job run. The tools are not daemons, so instead of being scraped the
// metrics may be dumped in node exporter's textfile collector format when the job finishes.
type Registry struct {
	*prometheus.Registry
	job string

	startTime  prometheus.Gauge
	finishTime prometheus.Gauge
	success    prometheus.Gauge
}

func New(job string) *Registry {
	labels := prometheus.Labels{"job": job}

	r := &Registry{
		Registry: prometheus.NewRegistry(),
		job:      job,

		startTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "feedfix_start_time",
			Help:        "Job start time",
			ConstLabels: labels,
		}),
		finishTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "feedfix_finish_time",
			Help:        "Job finish time",
			ConstLabels: labels,
		}),
		success: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "feedfix_success",
			Help:        "Whether the job has completed successfully",
			ConstLabels: labels,
		}),
	}
	r.startTime.SetToCurrentTime()
	r.MustRegister(r.startTime, r.finishTime, r.success)

	return r
}

// ConstLabels returns labels which job-specific metrics should carry.
func (r *Registry) ConstLabels() prometheus.Labels {
	return prometheus.Labels{"job": r.job}
}

func (r *Registry) Finish(ctx context.Context, path mo.Option[string], success bool) {
	r.finishTime.SetToCurrentTime()
	if success {
		r.success.Set(1)
	}

	file, ok := path.Get()
	if !ok {
		return
	}

	if err := prometheus.WriteToTextfile(file, r.Registry); err != nil {
		logging.L(ctx).Errorf("Failed to write metrics to %s: %s.", file, err)
		return
	}

	logging.L(ctx).Debugf("Metrics are written to %s.", file)
}

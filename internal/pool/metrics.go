package pool

import (
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	submitted   prometheus.Counter
	completed   prometheus.Counter
	outstanding prometheus.Gauge
	busy        prometheus.Gauge
	duration    prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		submitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "einsim", Subsystem: "pool", Name: "jobs_submitted_total",
			Help: "Jobs submitted to the pool.",
		}),
		completed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "einsim", Subsystem: "pool", Name: "jobs_completed_total",
			Help: "Jobs that finished, including failed ones.",
		}),
		outstanding: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "einsim", Subsystem: "pool", Name: "jobs_outstanding",
			Help: "Jobs queued or running.",
		}),
		busy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "einsim", Subsystem: "pool", Name: "workers_busy",
			Help: "Workers currently running a job.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "einsim", Subsystem: "pool", Name: "job_duration_seconds",
			Help:    "Wall time per job.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.submitted, m.completed, m.outstanding, m.busy, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

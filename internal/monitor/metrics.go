package monitor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics instruments the run pipeline. All methods are nil-safe so tests
// can pass a nil *Metrics without stubbing.
type Metrics struct {
	runsTotal       *prometheus.CounterVec
	runDuration     prometheus.Histogram
	alertsTriggered prometheus.Counter
	alertsResolved  prometheus.Counter
	leaseSkips      prometheus.Counter
}

// NewMetrics creates and registers the engine's prometheus instruments.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kpiwatch",
			Name:      "indicator_runs_total",
			Help:      "Indicator executions by outcome.",
		}, []string{"outcome"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "kpiwatch",
			Name:      "indicator_run_duration_seconds",
			Help:      "Wall time of a single indicator run.",
			Buckets:   prometheus.DefBuckets,
		}),
		alertsTriggered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kpiwatch",
			Name:      "alerts_triggered_total",
			Help:      "New alert episodes.",
		}),
		alertsResolved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kpiwatch",
			Name:      "alerts_resolved_total",
			Help:      "Alerts that returned to normal.",
		}),
		leaseSkips: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kpiwatch",
			Name:      "lease_contention_skips_total",
			Help:      "Dispatches skipped because a prior run still held the lease.",
		}),
	}
	reg.MustRegister(m.runsTotal, m.runDuration, m.alertsTriggered, m.alertsResolved, m.leaseSkips)
	return m
}

func (m *Metrics) observeRun(success bool, d time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.runsTotal.WithLabelValues(outcome).Inc()
	m.runDuration.Observe(d.Seconds())
}

func (m *Metrics) alertTriggered() {
	if m == nil {
		return
	}
	m.alertsTriggered.Inc()
}

func (m *Metrics) alertResolved() {
	if m == nil {
		return
	}
	m.alertsResolved.Inc()
}

func (m *Metrics) leaseSkipped() {
	if m == nil {
		return
	}
	m.leaseSkips.Inc()
}

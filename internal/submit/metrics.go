package submit

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	submitCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "popchain",
			Subsystem: "submit",
			Name:      "outcome_total",
			Help:      "the total number of submissions by request kind and outcome category",
		},
		[]string{"kind", "outcome"},
	)

	submitDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "popchain",
			Subsystem: "submit",
			Name:      "duration_seconds",
			Help:      "the duration from build to finality or failure",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"kind"},
	)

	fundingGateBlocked = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "popchain",
			Subsystem: "submit",
			Name:      "funding_gate_blocked_total",
			Help:      "the total number of sponsored submissions stopped before execution for lack of funds",
		},
	)
)

func init() {
	prometheus.MustRegister(submitCounter)
	prometheus.MustRegister(submitDuration)
	prometheus.MustRegister(fundingGateBlocked)
}

func traceOutcome(out *Outcome, start time.Time) {
	outcome := "finalized"
	if out.Error != nil {
		outcome = out.Error.Category.String()
	}
	submitCounter.With(prometheus.Labels{"kind": string(out.Kind), "outcome": outcome}).Inc()
	submitDuration.With(prometheus.Labels{"kind": string(out.Kind)}).Observe(time.Since(start).Seconds())
}

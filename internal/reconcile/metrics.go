package reconcile

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	reconcileWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "popchain",
			Subsystem: "reconcile",
			Name:      "writes_total",
			Help:      "the total number of off-chain rows written after finality",
		},
		[]string{"kind"},
	)

	reconcileWarnings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "popchain",
			Subsystem: "reconcile",
			Name:      "warnings_total",
			Help:      "the total number of off-chain writes that failed after finality",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(reconcileWrites)
	prometheus.MustRegister(reconcileWarnings)
}

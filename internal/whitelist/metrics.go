package whitelist

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	itemCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "popchain",
			Subsystem: "whitelist",
			Name:      "items_total",
			Help:      "the total number of bulk whitelist candidates by result",
		},
		[]string{"result"},
	)

	activeRuns = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "popchain",
			Subsystem: "whitelist",
			Name:      "active_runs",
			Help:      "the number of bulk whitelist runs in progress",
		},
	)
)

func init() {
	prometheus.MustRegister(itemCounter)
	prometheus.MustRegister(activeRuns)
}

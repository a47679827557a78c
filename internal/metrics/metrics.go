// Package metrics exposes the Prometheus instruments shared by the API
// and worker binaries.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeOK       = "ok"
	OutcomeDeclined = "declined"
	OutcomeError    = "error"
)

var (
	operations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lootbot_operations_total",
		Help: "Economy operations by name and outcome.",
	}, []string{"op", "outcome"})

	interestCredited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lootbot_interest_credited_total",
		Help: "Total interest coins credited by accrual runs.",
	})
)

func Operation(op, outcome string) {
	operations.WithLabelValues(op, outcome).Inc()
}

func InterestCredited(amount int64) {
	if amount > 0 {
		interestCredited.Add(float64(amount))
	}
}

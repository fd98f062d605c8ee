package database

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	storeOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "calendo_store_operations_total",
			Help: "Total number of key-value store operations by result",
		},
		[]string{"op", "result"},
	)

	storeOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "calendo_store_operation_duration_seconds",
			Help:    "Key-value store round trip duration in seconds",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"op"},
	)
)

// observe records the outcome of one round trip and returns err unchanged.
func observe(op string, start time.Time, err error) error {
	result := "ok"
	if err != nil {
		result = "error"
	}
	storeOpsTotal.WithLabelValues(op, result).Inc()
	storeOpDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	return err
}

package queue

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// QueueEnqueuedTotal counts tasks handed to the broker by type and outcome.
	QueueEnqueuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_enqueued_total",
			Help: "Total tasks enqueued grouped by status",
		},
		[]string{"kind", "status"},
	)
	// QueueProcessedTotal counts handled tasks by type and outcome.
	QueueProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_processed_total",
			Help: "Total tasks processed grouped by status",
		},
		[]string{"kind", "status"},
	)
	// QueueDepth mirrors the pending task count last observed by the admin endpoint.
	QueueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "queue_depth",
			Help: "Approximate number of pending tasks per queue",
		},
		[]string{"queue"},
	)
)

func init() {
	QueueEnqueuedTotal = register(QueueEnqueuedTotal)
	QueueProcessedTotal = register(QueueProcessedTotal)
	QueueDepth = register(QueueDepth)
}

func register[T prometheus.Collector](c T) T {
	if err := prometheus.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

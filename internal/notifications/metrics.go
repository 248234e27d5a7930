package notifications

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	deliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_deliveries_total",
			Help: "Notification deliveries by channel and outcome",
		},
		[]string{"channel", "outcome"},
	)

	dispatchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_dispatch_failures_total",
			Help: "Asynchronous dispatches that ended in an error",
		},
		[]string{"type"},
	)

	cleanupDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notifications_cleanup_deleted_total",
			Help: "Read notifications removed by retention cleanup",
		},
	)
)

package matching

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	actionsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_actions_total",
			Help: "Like and pass actions recorded",
		},
		[]string{"action"},
	)

	mutualMatches = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matching_mutual_total",
			Help: "Pairs that became mutual",
		},
	)

	compatibilityScores = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matching_compatibility_score",
			Help:    "Compatibility scores computed on likes",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	nearbyResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matching_nearby_results",
			Help:    "Number of users returned by a nearby query",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
		},
	)

	conflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matching_persistence_conflicts_total",
			Help: "Match record writes that lost a race and were retried",
		},
	)
)

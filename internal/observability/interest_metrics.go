package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	InterestApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "account_interest",
			Name:      "applied_total",
			Help:      "Accounts with interest successfully applied",
		},
		[]string{"account_type"},
	)

	InterestSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "account_interest",
			Name:      "skipped_total",
			Help:      "Accounts skipped during a batch interest run, by reason",
		},
		[]string{"reason"},
	)

	InterestRunLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "account_interest",
			Name:      "run_duration_seconds",
			Help:      "End-to-end latency of a batch interest run",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

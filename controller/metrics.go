package controller

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeOK    = "ok"
	outcomeError = "error"
	outcomeStale = "stale"
)

var (
	fetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_fetches_total",
			Help: "Total remote page fetches by outcome.",
		},
		[]string{"outcome"},
	)
	fetchDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feed_fetch_duration_seconds",
			Help:    "Remote page fetch latency in seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func incFetch(outcome string) {
	fetchesTotal.WithLabelValues(outcome).Inc()
}

func observeFetch(d time.Duration) {
	fetchDurationSeconds.Observe(d.Seconds())
}

package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultHit  = "hit"
	resultMiss = "miss"
)

var (
	cacheResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_cache_results_total",
			Help: "Total result cache lookups by outcome.",
		},
		[]string{"result"},
	)
	cacheEvictionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_cache_evictions_total",
			Help: "Total result cache entries evicted by the capacity bound.",
		},
	)
)

func incCacheResult(result string) {
	cacheResultsTotal.WithLabelValues(result).Inc()
}

func incEviction() {
	cacheEvictionsTotal.Inc()
}

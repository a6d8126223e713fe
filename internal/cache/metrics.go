package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linalg_cache_hits_total",
		Help: "Total number of result cache hits",
	})
	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linalg_cache_misses_total",
		Help: "Total number of result cache misses",
	})
	cacheEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linalg_cache_evictions_total",
		Help: "Total number of results evicted to make room",
	})
	cacheCollisions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linalg_cache_collisions_total",
		Help: "Total number of lookups whose hash matched an entry for a different operation or shape",
	})
	cacheEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "linalg_cache_entries",
		Help: "Number of results currently cached",
	})
)

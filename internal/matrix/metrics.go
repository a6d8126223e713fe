package matrix

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	poolHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linalg_matrix_pool_hits_total",
		Help: "Total number of dense buffers served from the pool",
	})

	poolMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linalg_matrix_pool_misses_total",
		Help: "Total number of dense buffers allocated because the pool had none large enough",
	})
)

package par

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	opDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "linalg_par_op_duration_seconds",
		Help:    "Time spent in top-level parallel operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	mulSplits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linalg_par_mul_splits_total",
		Help: "Total number of 8-way subdivisions performed by the parallel multiply",
	})

	blocksBuilt = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linalg_par_blocks_total",
		Help: "Total number of grid blocks built by the parallel constructor",
	})
)

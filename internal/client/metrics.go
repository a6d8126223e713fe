package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	breakerTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linalg_client_breaker_transitions_total",
		Help: "Circuit breaker state changes by new state",
	}, []string{"state"})

	computeCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linalg_client_compute_total",
		Help: "Remote compute calls by operation and outcome",
	}, []string{"op", "outcome"})
)

package workers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	modeGoroutine = "goroutine"
	modeInline    = "inline"
)

var (
	tasksStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linalg_worker_tasks_total",
		Help: "Total number of fork-join tasks, by how they were run",
	}, []string{"mode"})

	tasksInflight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "linalg_worker_tasks_inflight",
		Help: "Number of tasks currently running on pool goroutines",
	})

	taskFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linalg_worker_task_failures_total",
		Help: "Total number of tasks that returned an error or panicked",
	})
)

// Package workers provides a bounded fork-join pool. A task is started on
// its own goroutine when a slot is free and otherwise runs inline on the
// caller, so recursive fork-join code never deadlocks waiting for slots.
package workers

import (
	"runtime"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

// Pool limits the number of goroutines started for tasks.
type Pool struct {
	// maxParallelism: 0 runs every task inline, < 0 is unlimited.
	maxParallelism int
	sem            *semaphore.Weighted
	logger         zerolog.Logger
}

// Option configures a Pool.
type Option func(*Pool)

// WithMaxParallelism sets the number of tasks that may run on their own
// goroutines at once. 0 disables parallelism, a negative value removes the
// limit.
func WithMaxParallelism(n int) Option {
	return func(p *Pool) { p.maxParallelism = n }
}

// WithLogger sets the logger used for task failures.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Pool) { p.logger = l }
}

// New returns a Pool sized to runtime.NumCPU() unless overridden.
func New(opts ...Option) *Pool {
	p := &Pool{
		maxParallelism: runtime.NumCPU(),
		logger:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.maxParallelism > 0 {
		p.sem = semaphore.NewWeighted(int64(p.maxParallelism))
	}
	return p
}

// MaxParallelism returns the configured limit.
func (p *Pool) MaxParallelism() int {
	if p == nil {
		return 0
	}
	return p.maxParallelism
}

// StartIfAvailable runs task on a new goroutine if a slot is free and
// reports whether it did. It's up to the caller to wait for the task.
func (p *Pool) StartIfAvailable(task func()) bool {
	switch {
	case p == nil || p.maxParallelism == 0:
		return false
	case p.maxParallelism < 0:
		p.launch(task, nil)
		return true
	}
	if !p.sem.TryAcquire(1) {
		return false
	}
	p.launch(task, func() { p.sem.Release(1) })
	return true
}

func (p *Pool) launch(task func(), release func()) {
	tasksStarted.WithLabelValues(modeGoroutine).Inc()
	tasksInflight.Inc()
	go func() {
		defer func() {
			tasksInflight.Dec()
			if release != nil {
				release()
			}
		}()
		task()
	}()
}

// Go runs task on a pool goroutine when one is available, or inline.
func (p *Pool) Go(task func()) {
	if p.StartIfAvailable(task) {
		return
	}
	tasksStarted.WithLabelValues(modeInline).Inc()
	task()
}

package workers

import (
	"fmt"

	"github.com/gomlx/exceptions"
)

// Future is the typed join handle of a spawned task.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Spawn runs fn through p and returns a handle to its result. A panic in
// fn is recovered and reported by Join as an error. A nil pool runs fn
// inline.
func Spawn[T any](p *Pool, fn func() (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	p.Go(func() {
		defer close(f.done)
		exception := exceptions.Try(func() { f.val, f.err = fn() })
		if exception != nil {
			if err, ok := exception.(error); ok {
				f.err = err
			} else {
				f.err = fmt.Errorf("workers: task panicked: %v", exception)
			}
		}
		if f.err != nil {
			taskFailures.Inc()
			if p != nil {
				p.logger.Debug().Err(f.err).Msg("task failed")
			}
		}
	})
	return f
}

// Join blocks until the task finishes and returns its result.
func (f *Future[T]) Join() (T, error) {
	<-f.done
	return f.val, f.err
}

// JoinAll waits for every future and returns their values in order. If any
// task failed, the error of the first failed future is returned.
func JoinAll[T any](fs ...*Future[T]) ([]T, error) {
	vals := make([]T, len(fs))
	var firstErr error
	for i, f := range fs {
		v, err := f.Join()
		if err != nil && firstErr == nil {
			firstErr = err
		}
		vals[i] = v
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return vals, nil
}

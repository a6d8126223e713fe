package par

import (
	"context"
	"time"

	"github.com/23skdu/longbow-linalg/internal/algorithms"
	"github.com/23skdu/longbow-linalg/internal/matrix"
)

// Inverse runs the blockwise inverse with every product computed by Mul.
func Inverse[T matrix.Element](ctx context.Context, e *Executor, m matrix.Matrix[T]) (*matrix.Dense[T], error) {
	start := time.Now()
	defer func() {
		opDuration.WithLabelValues("inverse").Observe(time.Since(start).Seconds())
	}()
	return algorithms.InverseWith[T](ctx, matrix.Share(m), MulFunc[T](e))
}

// CholeskyBlocked runs the blocked Cholesky factorization with the
// executor's Cholesky block size and every product computed by Mul.
func CholeskyBlocked[T matrix.Float](ctx context.Context, e *Executor, m matrix.Matrix[T]) (*matrix.Dense[T], error) {
	start := time.Now()
	defer func() {
		opDuration.WithLabelValues("cholesky").Observe(time.Since(start).Seconds())
	}()
	return algorithms.CholeskyBlockedWith[T](ctx, matrix.Share(m), MulFunc[T](e), algorithms.WithBlockSize(e.cholBlock))
}

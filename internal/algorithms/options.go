package algorithms

import (
	"context"
	"fmt"

	"github.com/23skdu/longbow-linalg/internal/matrix"
)

// DefaultBlockSize is the size at or below which the blocked Cholesky
// factorization switches to the sequential in-place kernel.
const DefaultBlockSize = 1

// MulFunc computes lhs·rhs. The recursive factorizations call it for every
// product so callers can substitute a parallel implementation.
type MulFunc[T matrix.Element] func(ctx context.Context, lhs, rhs matrix.Matrix[T]) (*matrix.Dense[T], error)

// SeqMul is the sequential MulFunc.
func SeqMul[T matrix.Element](_ context.Context, lhs, rhs matrix.Matrix[T]) (*matrix.Dense[T], error) {
	return Mul(lhs, rhs)
}

// Option configures the blocked factorizations.
type Option func(*options)

type options struct {
	blockSize int
}

// WithBlockSize sets the Cholesky base-case size. Values below 1 make the
// factorization fail with matrix.ErrInvalidBlockSize.
func WithBlockSize(n int) Option {
	return func(o *options) { o.blockSize = n }
}

func gatherOptions(opts []Option) (options, error) {
	o := options{blockSize: DefaultBlockSize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.blockSize < 1 {
		return o, fmt.Errorf("%w: %d", matrix.ErrInvalidBlockSize, o.blockSize)
	}
	return o, nil
}

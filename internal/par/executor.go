// Package par holds the fork-join parallel algorithms: the block-grid
// constructor, the 8-way divide-and-conquer multiply, and the parallel
// variants of blockwise inversion and blocked Cholesky factorization.
package par

import (
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"

	"github.com/23skdu/longbow-linalg/internal/matrix"
	"github.com/23skdu/longbow-linalg/internal/workers"
)

const (
	// DefaultBlockSize is the edge length of the blocks built by Create.
	DefaultBlockSize = 128

	// DefaultMulCutoff is the operand area at or below which Mul stops
	// subdividing.
	DefaultMulCutoff = 1 << 13
)

var tracer = otel.Tracer("linalg-par")

// Executor carries the pool and tuning shared by the parallel algorithms.
// It is safe for concurrent use.
type Executor struct {
	pool      *workers.Pool
	poolSet   bool
	blockSize int
	mulCutoff int
	cholBlock int
	logger    zerolog.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithPool sets the worker pool. A nil pool runs everything inline.
func WithPool(p *workers.Pool) Option {
	return func(e *Executor) {
		e.pool = p
		e.poolSet = true
	}
}

// WithBlockSize sets the block edge used by Create and the multiply base case.
func WithBlockSize(n int) Option {
	return func(e *Executor) { e.blockSize = n }
}

// WithMulCutoff sets the operand area at or below which Mul stops subdividing.
func WithMulCutoff(n int) Option {
	return func(e *Executor) { e.mulCutoff = n }
}

// WithCholeskyBlockSize sets the Cholesky base-case size.
func WithCholeskyBlockSize(n int) Option {
	return func(e *Executor) { e.cholBlock = n }
}

// WithLogger sets the executor logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Executor) { e.logger = l }
}

// NewExecutor returns an Executor. Without WithPool it creates a pool
// sized to the number of CPUs.
func NewExecutor(opts ...Option) (*Executor, error) {
	e := &Executor{
		blockSize: DefaultBlockSize,
		mulCutoff: DefaultMulCutoff,
		cholBlock: 1,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if !e.poolSet {
		e.pool = workers.New(workers.WithLogger(e.logger))
	}
	if e.blockSize < 1 {
		return nil, fmt.Errorf("par: block size %d: %w", e.blockSize, matrix.ErrInvalidBlockSize)
	}
	if e.cholBlock < 1 {
		return nil, fmt.Errorf("par: cholesky block size %d: %w", e.cholBlock, matrix.ErrInvalidBlockSize)
	}
	if e.mulCutoff < 0 {
		return nil, fmt.Errorf("par: negative multiply cutoff %d", e.mulCutoff)
	}
	return e, nil
}

// Pool returns the executor's worker pool.
func (e *Executor) Pool() *workers.Pool { return e.pool }

// BlockSize returns the default block edge.
func (e *Executor) BlockSize() int { return e.blockSize }

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"
	"google.golang.org/grpc/codes"

	"github.com/23skdu/longbow-linalg/internal/algorithms"
	"github.com/23skdu/longbow-linalg/internal/cache"
	"github.com/23skdu/longbow-linalg/internal/codec"
	"github.com/23skdu/longbow-linalg/internal/matrix"
	"github.com/23skdu/longbow-linalg/internal/par"
)

var (
	ErrUnknownOp    = errors.New("unknown operation")
	ErrOperandCount = errors.New("wrong number of operands")
	ErrTooLarge     = errors.New("request exceeds admission limit")
)

var (
	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linalg_operations_total",
		Help: "Operations served by outcome",
	}, []string{"op", "outcome"})

	cellsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linalg_cells_processed_total",
		Help: "Total number of operand cells admitted",
	})
)

var tracer = otel.Tracer("linalg-server")

// Computer runs a named operation on float64 operands.
type Computer interface {
	Compute(ctx context.Context, op string, operands ...*matrix.Dense[float64]) (*matrix.Dense[float64], error)
}

type operation struct {
	arity  int
	cached bool
	run    func(ctx context.Context, x *par.Executor, m []*matrix.Dense[float64]) (*matrix.Dense[float64], error)
}

var operations = map[string]operation{
	"mul": {arity: 2, run: func(ctx context.Context, x *par.Executor, m []*matrix.Dense[float64]) (*matrix.Dense[float64], error) {
		return par.Mul[float64](ctx, x, m[0], m[1])
	}},
	"add": {arity: 2, run: func(_ context.Context, _ *par.Executor, m []*matrix.Dense[float64]) (*matrix.Dense[float64], error) {
		return algorithms.Add[float64](m[0], m[1])
	}},
	"sub": {arity: 2, run: func(_ context.Context, _ *par.Executor, m []*matrix.Dense[float64]) (*matrix.Dense[float64], error) {
		return algorithms.Sub[float64](m[0], m[1])
	}},
	"transpose": {arity: 1, run: func(_ context.Context, _ *par.Executor, m []*matrix.Dense[float64]) (*matrix.Dense[float64], error) {
		return algorithms.Transpose[float64](m[0])
	}},
	"inverse": {arity: 1, cached: true, run: func(ctx context.Context, x *par.Executor, m []*matrix.Dense[float64]) (*matrix.Dense[float64], error) {
		return par.Inverse[float64](ctx, x, m[0])
	}},
	"cholesky": {arity: 1, cached: true, run: func(ctx context.Context, x *par.Executor, m []*matrix.Dense[float64]) (*matrix.Dense[float64], error) {
		return par.CholeskyBlocked[float64](ctx, x, m[0])
	}},
}

// opLabel bounds metric label values to known operations.
func opLabel(op string) string {
	if _, ok := operations[op]; ok {
		return op
	}
	return "unknown"
}

// Engine runs operations on a parallel executor behind admission control
// weighted by operand cells.
type Engine struct {
	exec     *par.Executor
	cache    cache.ResultCache
	sem      *semaphore.Weighted
	maxCells int64
}

// NewEngine creates an engine admitting at most maxCells operand cells at
// once. A nil cache disables result caching.
func NewEngine(exec *par.Executor, c cache.ResultCache, maxCells int64) *Engine {
	return &Engine{
		exec:     exec,
		cache:    c,
		sem:      semaphore.NewWeighted(maxCells),
		maxCells: maxCells,
	}
}

func (e *Engine) Compute(ctx context.Context, op string, operands ...*matrix.Dense[float64]) (*matrix.Dense[float64], error) {
	out, err := e.compute(ctx, op, operands)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	operationsTotal.WithLabelValues(opLabel(op), outcome).Inc()
	return out, err
}

func (e *Engine) compute(ctx context.Context, op string, operands []*matrix.Dense[float64]) (*matrix.Dense[float64], error) {
	def, ok := operations[op]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOp, op)
	}
	if len(operands) != def.arity {
		return nil, fmt.Errorf("%w: %s takes %d, got %d", ErrOperandCount, op, def.arity, len(operands))
	}

	weight, err := e.weigh(operands)
	if err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "Compute", trace.WithAttributes(
		attribute.String("op", op),
		attribute.Int64("cells", weight),
	))
	defer span.End()

	// Admission Control
	if err := e.sem.Acquire(ctx, weight); err != nil {
		log.Error().Err(err).Msg("Failed to acquire semaphore")
		return nil, err
	}
	defer e.sem.Release(weight)
	cellsProcessed.Add(float64(weight))

	var key cache.Key
	useCache := def.cached && e.cache != nil
	if useCache {
		ms := make([]matrix.Matrix[float64], len(operands))
		for i, m := range operands {
			ms[i] = m
		}
		key = cache.Fingerprint(op, ms...)
		if out, ok := e.cache.Get(key); ok {
			span.SetAttributes(attribute.Bool("cache_hit", true))
			return out, nil
		}
	}

	start := time.Now()
	out, err := def.run(ctx, e.exec, operands)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	log.Debug().Str("op", op).Int64("cells", weight).Dur("elapsed", time.Since(start)).Msg("Computed")

	if useCache {
		e.cache.Put(key, out)
	}
	return out, nil
}

// weigh returns the total operand cell count, at least 1, or ErrTooLarge
// once it passes maxCells. Every step is checked so that oversized shapes
// cannot wrap around the limit.
func (e *Engine) weigh(operands []*matrix.Dense[float64]) (int64, error) {
	var weight int64
	for _, m := range operands {
		rows, cols := int64(m.Rows()), int64(m.Cols())
		if rows < 0 || cols < 0 {
			return 0, fmt.Errorf("%w: %dx%d", matrix.ErrInvalidShape, rows, cols)
		}
		if cols != 0 && rows > (e.maxCells-weight)/cols {
			return 0, fmt.Errorf("%w: %dx%d operand, limit %d cells", ErrTooLarge, rows, cols, e.maxCells)
		}
		weight += rows * cols
	}
	weight = max(weight, 1)
	if weight > e.maxCells {
		return 0, fmt.Errorf("%w: %d cells, limit %d", ErrTooLarge, weight, e.maxCells)
	}
	return weight, nil
}

// errorStatus maps an operation error to the HTTP and gRPC status reported
// to the caller.
func errorStatus(err error) (int, codes.Code) {
	switch {
	case errors.Is(err, ErrUnknownOp):
		return http.StatusNotFound, codes.NotFound
	case errors.Is(err, ErrTooLarge):
		return http.StatusRequestEntityTooLarge, codes.ResourceExhausted
	case errors.Is(err, matrix.ErrSingular), errors.Is(err, matrix.ErrNotPositiveDefinite):
		return http.StatusUnprocessableEntity, codes.FailedPrecondition
	case errors.Is(err, ErrOperandCount),
		errors.Is(err, matrix.ErrDimensionMismatch),
		errors.Is(err, matrix.ErrNonSquare),
		errors.Is(err, matrix.ErrInvalidShape),
		errors.Is(err, matrix.ErrIndexOutOfBounds),
		errors.Is(err, matrix.ErrInvalidVectorLength),
		errors.Is(err, matrix.ErrInvalidWindow),
		errors.Is(err, matrix.ErrInvalidBlockSize),
		errors.Is(err, codec.ErrInvalidRecord),
		errors.Is(err, codec.ErrMissingOperand):
		return http.StatusBadRequest, codes.InvalidArgument
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, codes.Unavailable
	}
	return http.StatusInternalServerError, codes.Internal
}

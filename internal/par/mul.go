package par

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/23skdu/longbow-linalg/internal/algorithms"
	"github.com/23skdu/longbow-linalg/internal/matrix"
	"github.com/23skdu/longbow-linalg/internal/simd"
	"github.com/23skdu/longbow-linalg/internal/workers"
)

// rect is a sub-rectangle of one of the shared operands.
type rect struct {
	i, j       int
	rows, cols int
}

func (r rect) area() int { return r.rows * r.cols }

// quadrants splits r into A B / C D. The top and left halves get the
// floor of the split.
func (r rect) quadrants() (a, b, c, d rect) {
	n2, m2 := r.rows/2, r.cols/2
	n2a, m2a := r.rows-n2, r.cols-m2
	a = rect{r.i, r.j, n2, m2}
	b = rect{r.i, r.j + m2, n2, m2a}
	c = rect{r.i + n2, r.j, n2a, m2}
	d = rect{r.i + n2, r.j + m2, n2a, m2a}
	return
}

// operand is a shared matrix plus, when the storage underneath is a
// Dense, direct access to its row-major buffer.
type operand[T matrix.Element] struct {
	m      *matrix.Shared[T]
	data   []T
	stride int
	i0, j0 int
}

func newOperand[T matrix.Element](m matrix.Matrix[T]) operand[T] {
	s := matrix.Share(m)
	op := operand[T]{m: s}
	var base matrix.Matrix[T] = s
	for {
		switch v := base.(type) {
		case *matrix.Shared[T]:
			base = v.Base()
		case *matrix.Window[T]:
			i0, j0 := v.Offset()
			op.i0 += i0
			op.j0 += j0
			base = v.Base()
		case *matrix.Dense[T]:
			op.data, op.stride = v.Data(), v.Cols()
			return op
		default:
			return op
		}
	}
}

func (o operand[T]) dense() bool { return o.data != nil }

// Mul multiplies lhs by rhs, splitting both operands into quadrants and
// computing the eight sub-products concurrently until an operand's area
// drops to the executor's cutoff. Both operands are read through shared
// handles for the whole call.
func Mul[T matrix.Element](ctx context.Context, e *Executor, lhs, rhs matrix.Matrix[T]) (*matrix.Dense[T], error) {
	if lhs.Cols() != rhs.Rows() {
		return nil, fmt.Errorf("Mul: %w", matrix.NewDimensionError("Mul", lhs, rhs))
	}
	// every output cell is a dot product, and those need a non-empty inner
	// dimension
	if lhs.Cols() == 0 && lhs.Rows() > 0 && rhs.Cols() > 0 {
		return nil, fmt.Errorf("Mul: %w", &matrix.VectorLengthError{})
	}
	ctx, span := tracer.Start(ctx, "Mul", trace.WithAttributes(
		attribute.Int("rows", lhs.Rows()),
		attribute.Int("inner", lhs.Cols()),
		attribute.Int("cols", rhs.Cols()),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		opDuration.WithLabelValues("mul").Observe(time.Since(start).Seconds())
	}()

	l, r := newOperand(lhs), newOperand(rhs)
	out, err := subMul(ctx, e, l, rect{0, 0, lhs.Rows(), lhs.Cols()}, r, rect{0, 0, rhs.Rows(), rhs.Cols()})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("Mul: %w", err)
	}
	return out, nil
}

// MulFunc adapts the parallel multiply to the factorizations in algorithms.
func MulFunc[T matrix.Element](e *Executor) algorithms.MulFunc[T] {
	return func(ctx context.Context, lhs, rhs matrix.Matrix[T]) (*matrix.Dense[T], error) {
		return Mul(ctx, e, lhs, rhs)
	}
}

func subMul[T matrix.Element](ctx context.Context, e *Executor, l operand[T], lr rect, r operand[T], rr rect) (*matrix.Dense[T], error) {
	if lr.area() <= e.mulCutoff || rr.area() <= e.mulCutoff ||
		lr.rows < 2 || lr.cols < 2 || rr.cols < 2 {
		return baseMul(ctx, e, l, lr, r, rr)
	}
	mulSplits.Inc()
	e.logger.Trace().
		Int("rows", lr.rows).Int("inner", lr.cols).Int("cols", rr.cols).
		Msg("splitting multiply")

	a, b, c, d := lr.quadrants()
	ee, f, g, h := rr.quadrants()

	spawn := func(x, y rect) *workers.Future[*matrix.Dense[T]] {
		return workers.Spawn(e.pool, func() (*matrix.Dense[T], error) {
			return subMul(ctx, e, l, x, r, y)
		})
	}
	futures := []*workers.Future[*matrix.Dense[T]]{
		spawn(a, ee), spawn(b, g),
		spawn(a, f), spawn(b, h),
		spawn(c, ee), spawn(d, g),
		spawn(c, f), spawn(d, h),
	}
	parts, err := workers.JoinAll(futures...)
	if err != nil {
		return nil, err
	}

	pool := poolFor[T]()
	sums := make([]*matrix.Dense[T], 4)
	for q := range sums {
		acc, addend := parts[2*q], parts[2*q+1]
		if err := algorithms.AddInPlace[T](acc, addend); err != nil {
			return nil, err
		}
		pool.Put(addend)
		sums[q] = acc
	}

	top, err := algorithms.ConcatCols[T](sums[0], sums[1])
	if err != nil {
		return nil, err
	}
	bottom, err := algorithms.ConcatCols[T](sums[2], sums[3])
	if err != nil {
		return nil, err
	}
	for _, s := range sums {
		pool.Put(s)
	}
	out, err := algorithms.ConcatRows[T](top, bottom)
	pool.Put(top)
	pool.Put(bottom)
	return out, err
}

// baseMul computes one product with the block-grid constructor, each cell
// being a dot product of a row of lr with a column of rr.
func baseMul[T matrix.Element](ctx context.Context, e *Executor, l operand[T], lr rect, r operand[T], rr rect) (*matrix.Dense[T], error) {
	inner := lr.cols
	if inner == 0 || lr.rows == 0 || rr.cols == 0 {
		return matrix.Zeros[T](lr.rows, rr.cols), nil
	}
	if l.dense() && r.dense() {
		return createBlocked(ctx, e, lr.rows, rr.cols, e.blockSize, func(i, j int) T {
			lo := (l.i0+lr.i+i)*l.stride + l.j0 + lr.j
			ro := (r.i0+rr.i)*r.stride + r.j0 + rr.j + j
			return simd.DotStrided(l.data[lo:lo+inner], r.data[ro:], r.stride)
		})
	}
	lw := matrix.MustSub[T](l.m, lr.i, lr.j, lr.rows, lr.cols)
	rw := matrix.MustSub[T](r.m, rr.i, rr.j, rr.rows, rr.cols)
	return createBlocked(ctx, e, lr.rows, rr.cols, e.blockSize, func(i, j int) T {
		var sum T
		for k := 0; k < inner; k++ {
			sum += lw.Get(i, k) * rw.Get(k, j)
		}
		return sum
	})
}

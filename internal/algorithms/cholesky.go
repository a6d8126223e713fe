package algorithms

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/23skdu/longbow-linalg/internal/matrix"
)

// CholeskySeqInPlace overwrites the symmetric positive-definite matrix a
// with its lower-triangular Cholesky factor.
func CholeskySeqInPlace[T matrix.Float](a matrix.Matrix[T]) error {
	return CholeskySeqInPlaceFrom(a, 0)
}

// CholeskySeqInPlaceFrom runs the in-place factorization starting at
// column start. Columns before start are taken as already factored.
func CholeskySeqInPlaceFrom[T matrix.Float](a matrix.Matrix[T], start int) error {
	return matrix.Catch("CholeskySeqInPlace", func() { choleskySeq(a, start) })
}

func choleskySeq[T matrix.Float](a matrix.Matrix[T], start int) {
	n := a.Rows()
	if n != a.Cols() {
		panic(&matrix.NonSquareError{Op: "Cholesky", Rows: n, Cols: a.Cols()})
	}
	for k := start; k < n; k++ {
		akk := a.Get(k, k)
		if !(akk > 0) {
			panic(fmt.Errorf("%w: pivot %d is %v", matrix.ErrNotPositiveDefinite, k, akk))
		}
		akk = T(math.Sqrt(float64(akk)))
		a.Set(k, k, akk)

		for i := k + 1; i < n; i++ {
			a.Set(i, k, a.Get(i, k)/akk)
		}

		for i := k + 1; i < n; i++ {
			aik := a.Get(i, k)
			for j := k + 1; j <= i; j++ {
				a.Set(i, j, a.Get(i, j)-aik*a.Get(j, k))
			}
		}
	}

	for i := start; i < n; i++ {
		for j := i + 1; j < n; j++ {
			a.Set(i, j, 0)
		}
	}
}

// CholeskyBlocked returns the lower-triangular factor L of the symmetric
// positive-definite matrix m, with L·Lᵀ = m, by recursive blocking.
func CholeskyBlocked[T matrix.Float](ctx context.Context, m matrix.Matrix[T], opts ...Option) (*matrix.Dense[T], error) {
	return CholeskyBlockedWith(ctx, m, SeqMul[T], opts...)
}

// CholeskyBlockedWith is CholeskyBlocked using mul for every product.
func CholeskyBlockedWith[T matrix.Float](ctx context.Context, m matrix.Matrix[T], mul MulFunc[T], opts ...Option) (*matrix.Dense[T], error) {
	o, err := gatherOptions(opts)
	if err != nil {
		return nil, fmt.Errorf("CholeskyBlocked: %w", err)
	}
	var out *matrix.Dense[T]
	err = matrix.Catch("CholeskyBlocked", func() { out = choleskyBlocked[T](ctx, m, mul, o.blockSize) })
	return out, err
}

func choleskyBlocked[T matrix.Float](ctx context.Context, m matrix.Matrix[T], mul MulFunc[T], blockSize int) *matrix.Dense[T] {
	n := m.Rows()
	if n != m.Cols() {
		panic(&matrix.NonSquareError{Op: "CholeskyBlocked", Rows: n, Cols: m.Cols()})
	}
	ctx, span := tracer.Start(ctx, "CholeskyBlocked", trace.WithAttributes(attribute.Int("n", n)))
	defer span.End()
	zerolog.Ctx(ctx).Trace().Int("n", n).Msg("cholesky")

	if n <= blockSize {
		out := convert(m)
		choleskySeq[T](out, 0)
		return out
	}

	n2 := n / 2
	n2a := n - n2

	a := convert[T](matrix.MustSub(m, 0, 0, n2, n2))
	c := convert[T](matrix.MustSub(m, n2, 0, n2a, n2))
	d := convert[T](matrix.MustSub(m, n2, n2, n2a, n2a))

	ac := choleskyBlocked[T](ctx, a, mul, blockSize)
	aci := inverse[T](ctx, transpose[T](ac), mul)
	caci := must(mul(ctx, c, aci))

	dn := must(mul(ctx, caci, matrix.T[T](caci)))
	dn = sub[T](d, dn)
	dn = choleskyBlocked[T](ctx, dn, mul, blockSize)

	top := concatCols[T](ac, matrix.Zeros[T](n2, n2a))
	bot := concatCols[T](caci, dn)
	return concatRows[T](top, bot)
}

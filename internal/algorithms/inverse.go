package algorithms

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/23skdu/longbow-linalg/internal/matrix"
)

var tracer = otel.Tracer("linalg-algorithms")

// Inverse returns m⁻¹ computed by recursive blockwise inversion.
//
// m is split at N2 = N/2 with the odd row and column going to the second
// half. A zero 1×1 pivot anywhere in the recursion yields ErrSingular.
func Inverse[T matrix.Element](ctx context.Context, m matrix.Matrix[T]) (*matrix.Dense[T], error) {
	return InverseWith(ctx, m, SeqMul[T])
}

// InverseWith is Inverse using mul for every product.
func InverseWith[T matrix.Element](ctx context.Context, m matrix.Matrix[T], mul MulFunc[T]) (*matrix.Dense[T], error) {
	var out *matrix.Dense[T]
	err := matrix.Catch("Inverse", func() { out = inverse(ctx, m, mul) })
	return out, err
}

func must[T matrix.Element](m *matrix.Dense[T], err error) *matrix.Dense[T] {
	if err != nil {
		panic(err)
	}
	return m
}

func negOne[T matrix.Element]() T {
	var one T = 1
	return -one
}

func inverse[T matrix.Element](ctx context.Context, m matrix.Matrix[T], mul MulFunc[T]) *matrix.Dense[T] {
	n := m.Rows()
	if n != m.Cols() {
		panic(&matrix.NonSquareError{Op: "Inverse", Rows: n, Cols: m.Cols()})
	}
	ctx, span := tracer.Start(ctx, "Inverse", trace.WithAttributes(attribute.Int("n", n)))
	defer span.End()
	zerolog.Ctx(ctx).Trace().Int("n", n).Msg("inverse")

	switch n {
	case 0:
		return matrix.Zeros[T](0, 0)
	case 1:
		x := m.Get(0, 0)
		if x == 0 {
			panic(fmt.Errorf("%w: zero pivot", matrix.ErrSingular))
		}
		return matrix.New(1, 1, func(int, int) T { return 1 / x })
	}

	n2 := n / 2
	n2a := n - n2

	a := convert[T](matrix.MustSub(m, 0, 0, n2, n2))
	b := matrix.MustSub(m, 0, n2, n2, n2a)
	c := matrix.MustSub(m, n2, 0, n2a, n2)
	d := matrix.MustSub(m, n2, n2, n2a, n2a)

	ai := inverse[T](ctx, a, mul)

	// Schur complement D - C·Ai·B
	t := must(mul(ctx, c, ai))
	t = must(mul(ctx, t, b))
	t = sub[T](d, t)

	dn := inverse[T](ctx, t, mul)

	aib := must(mul(ctx, ai, b))
	cai := must(mul(ctx, c, ai))

	cn := must(mul(ctx, dn, cai))
	scaleInPlace[T](cn, negOne[T]())

	// Bn is negated only after it has been used for An.
	bn := must(mul(ctx, aib, dn))

	an := must(mul(ctx, bn, cai))
	an = add[T](ai, an)

	scaleInPlace[T](bn, negOne[T]())

	top := concatCols[T](an, bn)
	bot := concatCols[T](cn, dn)
	return concatRows[T](top, bot)
}

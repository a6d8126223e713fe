package algorithms

import (
	"context"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/23skdu/longbow-linalg/internal/matrix"
)

// spd returns a random well-conditioned symmetric positive-definite matrix.
func spd(n int, rng *rand.Rand) *matrix.Dense[float64] {
	m := matrix.Random(n, n, rng)
	return matrix.New(n, n, func(i, j int) float64 {
		var sum float64
		for k := 0; k < n; k++ {
			sum += m.Get(i, k) * m.Get(j, k)
		}
		if i == j {
			sum += float64(n)
		}
		return sum
	})
}

func assertLowerTriangular(t *testing.T, l matrix.Matrix[float64]) {
	t.Helper()
	for i := 0; i < l.Rows(); i++ {
		for j := i + 1; j < l.Cols(); j++ {
			require.Zero(t, l.Get(i, j), "(%d, %d)", i, j)
		}
	}
}

func assertReconstructs(t *testing.T, a, l matrix.Matrix[float64], tol float64) {
	t.Helper()
	llt, err := Mul(l, matrix.T(l))
	require.NoError(t, err)
	assertApproxEqual(t, a, llt, tol)
}

func TestCholesky_TwoByTwo(t *testing.T) {
	want := [][]float64{{2, 0}, {1, math.Sqrt2}}

	a := fromRows(t, [][]float64{{4, 2}, {2, 3}})
	require.NoError(t, CholeskySeqInPlace[float64](a))
	assertApproxEqual(t, fromRows(t, want), a, eps)
	assertReconstructs(t, fromRows(t, [][]float64{{4, 2}, {2, 3}}), a, eps)

	b, err := CholeskyBlocked[float64](context.Background(), fromRows(t, [][]float64{{4, 2}, {2, 3}}))
	require.NoError(t, err)
	assertApproxEqual(t, fromRows(t, want), b, eps)
}

func TestCholesky_SPD(t *testing.T) {
	rng := rand.New(rand.NewPCG(21, 22))
	ctx := context.Background()

	for _, n := range []int{1, 2, 3, 5, 8, 17, 30} {
		a := spd(n, rng)

		seqL := a.Clone()
		require.NoError(t, CholeskySeqInPlace[float64](seqL))
		assertLowerTriangular(t, seqL)
		assertReconstructs(t, a, seqL, 1e-8)

		for _, bs := range []int{1, 2, 4, 64} {
			l, err := CholeskyBlocked[float64](ctx, a, WithBlockSize(bs))
			require.NoError(t, err)
			assertLowerTriangular(t, l)
			assertReconstructs(t, a, l, 1e-8)
			assertApproxEqual(t, seqL, l, 1e-8)
		}
	}
}

func TestCholesky_MatchesGonum(t *testing.T) {
	a := spd(10, rand.New(rand.NewPCG(8, 9)))

	var chol mat.Cholesky
	require.True(t, chol.Factorize(mat.NewSymDense(10, matrix.ToGonum[float64](a).RawMatrix().Data)))
	var want mat.TriDense
	chol.LTo(&want)

	got, err := CholeskyBlocked[float64](context.Background(), a, WithBlockSize(3))
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(&want, matrix.Gonum{M: got}, 1e-9))
}

func TestCholeskySeqInPlaceFrom(t *testing.T) {
	const n, k = 6, 3
	a := spd(n, rand.New(rand.NewPCG(2, 2)))
	full := a.Clone()
	require.NoError(t, CholeskySeqInPlace[float64](full))

	// State after the first k steps: factored columns on the left, the
	// Schur complement in the trailing lower triangle.
	x := a.Clone()
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			if j < k {
				x.Set(i, j, full.Get(i, j))
				continue
			}
			s := a.Get(i, j)
			for p := 0; p < k; p++ {
				s -= full.Get(i, p) * full.Get(j, p)
			}
			x.Set(i, j, s)
		}
	}

	require.NoError(t, CholeskySeqInPlaceFrom[float64](x, k))
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			switch {
			case j <= i:
				assert.InDelta(t, full.Get(i, j), x.Get(i, j), 1e-9, "(%d, %d)", i, j)
			case i >= k:
				assert.Zero(t, x.Get(i, j), "(%d, %d)", i, j)
			default:
				assert.Equal(t, a.Get(i, j), x.Get(i, j), "(%d, %d)", i, j)
			}
		}
	}

	// start == n is a no-op
	untouched := a.Clone()
	require.NoError(t, CholeskySeqInPlaceFrom[float64](untouched, n))
	assert.Equal(t, a.Data(), untouched.Data())
}

func TestCholesky_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := CholeskyBlocked[float64](ctx, matrix.Zeros[float64](2, 3))
	assert.ErrorIs(t, err, matrix.ErrNonSquare)
	assert.ErrorIs(t, CholeskySeqInPlace[float64](matrix.Zeros[float64](3, 2)), matrix.ErrNonSquare)

	notPD := fromRows(t, [][]float64{{1, 2}, {2, 1}})
	_, err = CholeskyBlocked[float64](ctx, notPD)
	assert.ErrorIs(t, err, matrix.ErrNotPositiveDefinite)
	assert.ErrorIs(t, CholeskySeqInPlace[float64](notPD.Clone()), matrix.ErrNotPositiveDefinite)

	_, err = CholeskyBlocked[float32](ctx, fromRows(t, [][]float32{{-4}}))
	assert.ErrorIs(t, err, matrix.ErrNotPositiveDefinite)

	for _, bs := range []int{0, -3} {
		var l *matrix.Dense[float64]
		require.NotPanics(t, func() {
			l, err = CholeskyBlocked[float64](ctx, matrix.Identity[float64](4), WithBlockSize(bs))
		})
		assert.Nil(t, l)
		assert.ErrorIs(t, err, matrix.ErrInvalidBlockSize)
	}
}

func TestCholesky_Float32(t *testing.T) {
	l, err := CholeskyBlocked[float32](context.Background(), fromRows(t, [][]float32{{4, 2}, {2, 3}}))
	require.NoError(t, err)
	assert.Equal(t, float32(2), l.Get(0, 0))
	assert.Equal(t, float32(1), l.Get(1, 0))
	assert.InDelta(t, math.Sqrt2, float64(l.Get(1, 1)), 1e-6)
	assert.Zero(t, l.Get(0, 1))
}

package par

import (
	"math/rand/v2"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/23skdu/longbow-linalg/internal/algorithms"
	"github.com/23skdu/longbow-linalg/internal/matrix"
	"github.com/23skdu/longbow-linalg/internal/workers"
)

func randInts(rows, cols int, rng *rand.Rand) *matrix.Dense[int64] {
	return matrix.New(rows, cols, func(int, int) int64 { return rng.Int64N(21) - 10 })
}

func TestRect_Quadrants(t *testing.T) {
	a, b, c, d := rect{1, 2, 5, 3}.quadrants()
	assert.Equal(t, rect{1, 2, 2, 1}, a)
	assert.Equal(t, rect{1, 3, 2, 2}, b)
	assert.Equal(t, rect{3, 2, 3, 1}, c)
	assert.Equal(t, rect{3, 3, 3, 2}, d)
}

func TestMul_MatchesSequentialExactly(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	shapes := [][3]int{{1, 1, 1}, {2, 2, 2}, {3, 5, 4}, {8, 8, 8}, {13, 7, 11}, {32, 17, 9}}
	for _, cutoff := range []int{0, 4, 64} {
		for _, bs := range []int{1, 3, 16} {
			e := newTestExecutor(t, WithMulCutoff(cutoff), WithBlockSize(bs))
			for _, s := range shapes {
				lhs := randInts(s[0], s[1], rng)
				rhs := randInts(s[1], s[2], rng)
				want, err := algorithms.Mul[int64](lhs, rhs)
				require.NoError(t, err)

				got, err := Mul[int64](t.Context(), e, lhs, rhs)
				require.NoError(t, err)
				assert.True(t, matrix.Equal[int64](want, got),
					"cutoff=%d block=%d shape=%v", cutoff, bs, s)
			}
		}
	}
}

func TestMul_FloatAgreesWithGonum(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	e := newTestExecutor(t, WithMulCutoff(16), WithBlockSize(4))
	lhs := matrix.Random(23, 19, rng)
	rhs := matrix.Random(19, 21, rng)

	got, err := Mul[float64](t.Context(), e, lhs, rhs)
	require.NoError(t, err)

	var want mat.Dense
	want.Mul(matrix.ToGonum[float64](lhs), matrix.ToGonum[float64](rhs))
	assert.True(t, mat.EqualApprox(&want, matrix.ToGonum[float64](got), 1e-9))
}

func TestMul_Views(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 8))
	e := newTestExecutor(t, WithMulCutoff(0), WithBlockSize(2))
	base := randInts(9, 9, rng)

	w := matrix.MustSub[int64](base, 1, 2, 6, 5)
	tr := matrix.T[int64](w)

	want, err := algorithms.Mul[int64](tr, w)
	require.NoError(t, err)
	got, err := Mul[int64](t.Context(), e, tr, w)
	require.NoError(t, err)
	assert.True(t, matrix.Equal[int64](want, got))

	want, err = algorithms.Mul[int64](w, tr)
	require.NoError(t, err)
	got, err = Mul[int64](t.Context(), e, w, matrix.Share[int64](tr))
	require.NoError(t, err)
	assert.True(t, matrix.Equal[int64](want, got))

	// windows over dense bases read the buffers directly
	w2 := matrix.MustSub[int64](base, 3, 0, 5, 4)
	want, err = algorithms.Mul[int64](w, w2)
	require.NoError(t, err)
	got, err = Mul[int64](t.Context(), e, matrix.Share[int64](w), w2)
	require.NoError(t, err)
	assert.True(t, matrix.Equal[int64](want, got))
}

func TestMul_SplitsAboveCutoff(t *testing.T) {
	rng := rand.New(rand.NewPCG(9, 10))
	lhs := randInts(8, 8, rng)
	rhs := randInts(8, 8, rng)

	e := newTestExecutor(t, WithMulCutoff(64))
	before := getMetricValue(mulSplits)
	_, err := Mul[int64](t.Context(), e, lhs, rhs)
	require.NoError(t, err)
	assert.Equal(t, 0.0, getMetricValue(mulSplits)-before)

	e = newTestExecutor(t, WithMulCutoff(16))
	before = getMetricValue(mulSplits)
	_, err = Mul[int64](t.Context(), e, lhs, rhs)
	require.NoError(t, err)
	// one split at 8×8, then eight 4×4 leaves
	assert.Equal(t, 1.0, getMetricValue(mulSplits)-before)
}

func TestMul_DimensionMismatch(t *testing.T) {
	e := newTestExecutor(t)
	_, err := Mul[int](t.Context(), e, matrix.Zeros[int](2, 3), matrix.Zeros[int](2, 2))
	require.Error(t, err)
	assert.ErrorIs(t, err, matrix.ErrDimensionMismatch)
	var de *matrix.DimensionError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, 3, de.LCols)
}

func TestMul_EmptyShapesMatchSequential(t *testing.T) {
	e := newTestExecutor(t, WithMulCutoff(0), WithBlockSize(1))

	tests := []struct {
		name              string
		rows, inner, cols int
		wantErr           bool
	}{
		{"empty inner", 2, 0, 2, true},
		{"empty rows", 0, 3, 2, false},
		{"empty cols", 2, 3, 0, false},
		{"all empty", 0, 0, 0, false},
		{"empty inner and rows", 0, 0, 2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lhs := matrix.Zeros[int](tt.rows, tt.inner)
			rhs := matrix.Zeros[int](tt.inner, tt.cols)

			want, seqErr := algorithms.Mul[int](lhs, rhs)
			got, parErr := Mul[int](t.Context(), e, lhs, rhs)
			if tt.wantErr {
				require.ErrorIs(t, seqErr, matrix.ErrInvalidVectorLength)
				require.ErrorIs(t, parErr, matrix.ErrInvalidVectorLength)
				assert.Equal(t, seqErr.Error(), parErr.Error())
				return
			}
			require.NoError(t, seqErr)
			require.NoError(t, parErr)
			assert.Equal(t, want.Rows(), got.Rows())
			assert.Equal(t, want.Cols(), got.Cols())
		})
	}
}

func TestMul_SingleWorkerDoesNotDeadlock(t *testing.T) {
	rng := rand.New(rand.NewPCG(11, 12))
	e := newTestExecutor(t,
		WithPool(workers.New(workers.WithMaxParallelism(1))),
		WithMulCutoff(0),
		WithBlockSize(1),
	)
	lhs := randInts(16, 16, rng)
	rhs := randInts(16, 16, rng)
	want, err := algorithms.Mul[int64](lhs, rhs)
	require.NoError(t, err)
	got, err := Mul[int64](t.Context(), e, lhs, rhs)
	require.NoError(t, err)
	assert.True(t, matrix.Equal[int64](want, got))
}

func TestMul_RecordsDuration(t *testing.T) {
	e := newTestExecutor(t)
	h := opDuration.WithLabelValues("mul").(prometheus.Histogram)
	before := getMetricValue(h)
	_, err := Mul[int](t.Context(), e, matrix.Zeros[int](3, 3), matrix.Zeros[int](3, 3))
	require.NoError(t, err)
	assert.Equal(t, 1.0, getMetricValue(h)-before)
}

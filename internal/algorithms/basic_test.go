package algorithms

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/23skdu/longbow-linalg/internal/matrix"
)

func fromRows[T matrix.Element](t *testing.T, rows [][]T) *matrix.Dense[T] {
	t.Helper()
	m, err := matrix.FromRows(rows)
	require.NoError(t, err)
	return m
}

func seq(rows, cols int) *matrix.Dense[int] {
	return matrix.New(rows, cols, func(i, j int) int { return i*cols + j + 1 })
}

func TestDot(t *testing.T) {
	got, err := Dot[int](matrix.Slice[int]{1, 2, 3}, matrix.Slice[int]{4, 5, 6})
	require.NoError(t, err)
	assert.Equal(t, 32, got)

	_, err = Dot[int](matrix.Slice[int]{1, 2}, matrix.Slice[int]{1})
	assert.ErrorIs(t, err, matrix.ErrInvalidVectorLength)

	_, err = Dot[int](matrix.Slice[int]{}, matrix.Slice[int]{})
	assert.ErrorIs(t, err, matrix.ErrInvalidVectorLength)

	m := seq(2, 3)
	got, err = Dot[int](matrix.Row[int](m, 1), matrix.Col[int](matrix.T[int](m), 1))
	require.NoError(t, err)
	assert.Equal(t, 16+25+36, got)
}

func TestMul_Identity(t *testing.T) {
	b := fromRows(t, [][]float64{{1, 2}, {3, 4}})
	got, err := Mul[float64](matrix.Identity[float64](2), b)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 2}, {3, 4}}, got.ToRows())
}

func TestMul_DimensionMismatch(t *testing.T) {
	a := seq(2, 3)
	b := seq(2, 2)
	_, err := Mul[int](a, b)
	require.ErrorIs(t, err, matrix.ErrDimensionMismatch)

	var de *matrix.DimensionError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, matrix.DimensionError{Op: "Mul", LRows: 2, LCols: 3, RRows: 2, RCols: 2}, *de)
}

func TestMul_Shapes(t *testing.T) {
	for _, dims := range [][3]int{{1, 1, 1}, {2, 3, 4}, {5, 1, 3}, {4, 7, 1}} {
		a := seq(dims[0], dims[1])
		b := seq(dims[1], dims[2])
		got, err := Mul[int](a, b)
		require.NoError(t, err)
		assert.Equal(t, dims[0], got.Rows())
		assert.Equal(t, dims[2], got.Cols())
	}
}

func TestMul_DenseAndViewPathsAgree(t *testing.T) {
	a := seq(5, 4)
	b := seq(4, 6)

	dense, err := Mul[int](a, b)
	require.NoError(t, err)

	viewA := matrix.MustSub[int](a, 0, 0, 5, 4)
	viewB := matrix.T(matrix.T[int](b))
	generic, err := Mul[int](viewA, matrix.Share[int](viewB))
	require.NoError(t, err)

	assert.Equal(t, dense.Data(), generic.Data())
	assert.Equal(t, 1*1+2*7+3*13+4*19, dense.Get(0, 0))
}

func TestAddSub(t *testing.T) {
	a := fromRows(t, [][]int{{1, 2}, {3, 4}})
	b := fromRows(t, [][]int{{10, 20}, {30, 40}})

	sum, err := Add[int](a, b)
	require.NoError(t, err)
	assert.Equal(t, []int{11, 22, 33, 44}, sum.Data())

	diff, err := Sub[int](b, matrix.T[int](a))
	require.NoError(t, err)
	assert.Equal(t, []int{9, 17, 28, 36}, diff.Data())

	_, err = Add[int](a, seq(2, 3))
	assert.ErrorIs(t, err, matrix.ErrDimensionMismatch)
	_, err = Sub[int](a, seq(3, 2))
	assert.ErrorIs(t, err, matrix.ErrDimensionMismatch)

	// inputs are untouched
	assert.Equal(t, []int{1, 2, 3, 4}, a.Data())
}

func TestAddInPlace(t *testing.T) {
	a := fromRows(t, [][]int{{1, 2}, {3, 4}})
	require.NoError(t, AddInPlace[int](a, matrix.Identity[int](2)))
	assert.Equal(t, []int{2, 2, 3, 5}, a.Data())

	base := seq(3, 3)
	w := matrix.MustSub[int](base, 1, 1, 2, 2)
	require.NoError(t, AddInPlace[int](w, matrix.Fill(2, 2, 100)))
	assert.Equal(t, []int{1, 2, 3, 4, 105, 106, 7, 108, 109}, base.Data())

	assert.ErrorIs(t, AddInPlace[int](a, seq(1, 2)), matrix.ErrDimensionMismatch)
	assert.ErrorIs(t, AddInPlace[int](matrix.Share[int](a), a), matrix.ErrSharedMutation)
}

func TestScaleInPlace(t *testing.T) {
	a := fromRows(t, [][]float64{{1, -2}, {3, 0.5}})
	require.NoError(t, ScaleInPlace[float64](a, -2))
	assert.Equal(t, []float64{-2, 4, -6, -1}, a.Data())

	base := seq(2, 2)
	require.NoError(t, ScaleInPlace(matrix.T[int](base), 3))
	assert.Equal(t, []int{3, 6, 9, 12}, base.Data())
}

func TestForEach(t *testing.T) {
	a := matrix.Zeros[int](2, 3)
	var order [][2]int
	require.NoError(t, ForEach[int](a, func(i, j, v int) int {
		order = append(order, [2]int{i, j})
		return v + i*10 + j
	}))
	assert.Equal(t, []int{0, 1, 2, 10, 11, 12}, a.Data())
	assert.Equal(t, [2]int{1, 2}, order[len(order)-1])
}

func TestTranspose(t *testing.T) {
	a := seq(2, 3)
	at, err := Transpose[int](a)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{1, 4}, {2, 5}, {3, 6}}, at.ToRows())

	back, err := Transpose[int](at)
	require.NoError(t, err)
	assert.True(t, matrix.Equal[int](a, back))
}

func TestTranspose_TwiceIsIdentity(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 7))
	for _, shape := range [][2]int{{1, 1}, {1, 5}, {4, 1}, {3, 7}, {6, 6}} {
		a := matrix.Random(shape[0], shape[1], rng)
		at, err := Transpose[float64](a)
		require.NoError(t, err)
		att, err := Transpose[float64](at)
		require.NoError(t, err)
		assert.Equal(t, a.Data(), att.Data())
	}
}

func TestConcat(t *testing.T) {
	a := seq(2, 2)
	b := seq(1, 2)
	c := seq(2, 1)

	rows, err := ConcatRows[int](a, b)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{1, 2}, {3, 4}, {1, 2}}, rows.ToRows())

	cols, err := ConcatCols[int](a, c)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{1, 2, 1}, {3, 4, 2}}, cols.ToRows())

	_, err = ConcatRows[int](a, c)
	assert.ErrorIs(t, err, matrix.ErrDimensionMismatch)
	_, err = ConcatCols[int](a, b)
	assert.ErrorIs(t, err, matrix.ErrDimensionMismatch)

	viewRows, err := ConcatRows(matrix.T[int](c), matrix.MustSub[int](a, 1, 0, 1, 2))
	require.NoError(t, err)
	assert.Equal(t, [][]int{{1, 2}, {3, 4}}, viewRows.ToRows())
}

func TestQuadrantRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 99))
	for _, n := range []int{2, 3, 5, 8, 11} {
		m := matrix.Random(n, n+1, rng)
		n2, n2a := n/2, n-n/2
		c2, c2a := (n+1)/2, n+1-(n+1)/2

		a := matrix.MustSub[float64](m, 0, 0, n2, c2)
		b := matrix.MustSub[float64](m, 0, c2, n2, c2a)
		c := matrix.MustSub[float64](m, n2, 0, n2a, c2)
		d := matrix.MustSub[float64](m, n2, c2, n2a, c2a)

		top, err := ConcatCols[float64](a, b)
		require.NoError(t, err)
		bot, err := ConcatCols[float64](c, d)
		require.NoError(t, err)
		whole, err := ConcatRows[float64](top, bot)
		require.NoError(t, err)

		assert.Equal(t, m.Data(), whole.Data(), "n=%d", n)
	}
}

func TestConvert(t *testing.T) {
	base := seq(4, 4)

	win, err := Convert[int](matrix.MustSub[int](base, 1, 2, 3, 2))
	require.NoError(t, err)
	assert.Equal(t, [][]int{{7, 8}, {11, 12}, {15, 16}}, win.ToRows())

	tr, err := Convert(matrix.T[int](matrix.MustSub[int](base, 0, 0, 2, 3)))
	require.NoError(t, err)
	assert.Equal(t, [][]int{{1, 5}, {2, 6}, {3, 7}}, tr.ToRows())

	cp, err := Convert[int](base)
	require.NoError(t, err)
	cp.Set(0, 0, -1)
	assert.Equal(t, 1, base.Get(0, 0))
}

package matrix

import (
	"fmt"
	"math"
)

// ensure interface compliance
var _ Matrix[float64] = (*Dense[float64])(nil)

// Dense is a row-major matrix that owns its storage.
type Dense[T Element] struct {
	rows int
	cols int
	data []T
}

// New returns a rows×cols matrix whose cell (i, j) is gen(i, j).
// gen is called exactly once per cell in row-major order.
func New[T Element](rows, cols int, gen func(i, j int) T) *Dense[T] {
	m := Zeros[T](rows, cols)
	k := 0
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			m.data[k] = gen(i, j)
			k++
		}
	}
	return m
}

// Zeros returns a rows×cols matrix filled with zero.
func Zeros[T Element](rows, cols int) *Dense[T] {
	if err := checkShape(rows, cols); err != nil {
		panic(err)
	}
	return &Dense[T]{rows: rows, cols: cols, data: make([]T, rows*cols)}
}

// NewFromSlice wraps data, which must hold rows*cols values in row-major
// order. The slice is used directly, not copied.
func NewFromSlice[T Element](rows, cols int, data []T) (*Dense[T], error) {
	if err := checkShape(rows, cols); err != nil {
		return nil, err
	}
	if len(data) != rows*cols {
		return nil, fmt.Errorf("%w: %d values for %dx%d matrix", ErrInvalidShape, len(data), rows, cols)
	}
	return &Dense[T]{rows: rows, cols: cols, data: data}, nil
}

// checkShape rejects negative dimensions and shapes whose cell count does
// not fit in an int.
func checkShape(rows, cols int) error {
	if rows < 0 || cols < 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidShape, rows, cols)
	}
	if cols != 0 && rows > math.MaxInt/cols {
		return fmt.Errorf("%w: %dx%d overflows cell count", ErrInvalidShape, rows, cols)
	}
	return nil
}

// FromRows builds a matrix from a slice of equally sized rows.
func FromRows[T Element](rows [][]T) (*Dense[T], error) {
	if len(rows) == 0 {
		return Zeros[T](0, 0), nil
	}
	cols := len(rows[0])
	m := Zeros[T](len(rows), cols)
	for i, r := range rows {
		if len(r) != cols {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrInvalidShape, i, len(r), cols)
		}
		copy(m.data[i*cols:(i+1)*cols], r)
	}
	return m, nil
}

func (m *Dense[T]) Rows() int { return m.rows }
func (m *Dense[T]) Cols() int { return m.cols }

func (m *Dense[T]) Get(i, j int) T {
	checkIndex(i, j, m.rows, m.cols)
	return m.data[i*m.cols+j]
}

func (m *Dense[T]) Set(i, j int, v T) {
	checkIndex(i, j, m.rows, m.cols)
	m.data[i*m.cols+j] = v
}

// Data returns the row-major backing slice.
func (m *Dense[T]) Data() []T { return m.data }

// RawRow returns row i of the backing slice without copying.
func (m *Dense[T]) RawRow(i int) []T {
	checkIndex(i, 0, m.rows, max(m.cols, 1))
	return m.data[i*m.cols : (i+1)*m.cols]
}

// Clone returns a deep copy of m.
func (m *Dense[T]) Clone() *Dense[T] {
	data := make([]T, len(m.data))
	copy(data, m.data)
	return &Dense[T]{rows: m.rows, cols: m.cols, data: data}
}

// ToRows copies m into a slice of rows.
func (m *Dense[T]) ToRows() [][]T {
	out := make([][]T, m.rows)
	for i := range out {
		out[i] = make([]T, m.cols)
		copy(out[i], m.data[i*m.cols:(i+1)*m.cols])
	}
	return out
}

func (m *Dense[T]) String() string {
	return Format[T](m)
}

// Equal reports whether a and b have the same shape and identical cells.
func Equal[T Element](a, b Matrix[T]) bool {
	if a.Rows() != b.Rows() || a.Cols() != b.Cols() {
		return false
	}
	for i := 0; i < a.Rows(); i++ {
		for j := 0; j < a.Cols(); j++ {
			if a.Get(i, j) != b.Get(i, j) {
				return false
			}
		}
	}
	return true
}

// Package matrix defines the capability interface shared by every matrix
// representation in this module, plus dense storage and the zero-copy views
// (sub-window, transpose, row and column vectors) built on top of it.
//
// Accessors panic with a typed error (*IndexError, *MutationError) when an
// invariant is violated. Algorithm entry points recover those panics and
// return them as ordinary errors, so callers only ever see error values.
package matrix

import "golang.org/x/exp/constraints"

// Element is the set of numeric types a matrix can hold.
type Element interface {
	constraints.Integer | constraints.Float
}

// Float restricts algorithms that need square roots to floating-point types.
type Float interface {
	constraints.Float
}

// Matrix is the capability set consumed by all algorithms.
type Matrix[T Element] interface {
	// Get returns the value at (i, j).
	Get(i, j int) T

	// Set stores v at (i, j).
	Set(i, j int, v T)

	// Rows returns the number of rows.
	Rows() int

	// Cols returns the number of columns.
	Cols() int
}

// Vector is a one-dimensional indexable sequence.
type Vector[T Element] interface {
	Len() int
	Get(k int) T
	Set(k int, v T)
}

// Slice adapts a plain Go slice to the Vector interface.
type Slice[T Element] []T

func (s Slice[T]) Len() int { return len(s) }

func (s Slice[T]) Get(k int) T {
	if k < 0 || k >= len(s) {
		panic(&IndexError{I: k, J: 0, Rows: len(s), Cols: 1})
	}
	return s[k]
}

func (s Slice[T]) Set(k int, v T) {
	if k < 0 || k >= len(s) {
		panic(&IndexError{I: k, J: 0, Rows: len(s), Cols: 1})
	}
	s[k] = v
}

// Shape returns (m.Rows(), m.Cols()).
func Shape[T Element](m Matrix[T]) (int, int) {
	return m.Rows(), m.Cols()
}

// IsSquare reports whether m has as many rows as columns.
func IsSquare[T Element](m Matrix[T]) bool {
	return m.Rows() == m.Cols()
}

func checkIndex(i, j, rows, cols int) {
	if i < 0 || j < 0 || i >= rows || j >= cols {
		panic(&IndexError{I: i, J: j, Rows: rows, Cols: cols})
	}
}

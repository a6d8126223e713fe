package matrix

import "fmt"

var (
	_ Matrix[float64] = (*Window[float64])(nil)
	_ Matrix[float64] = (*Transposed[float64])(nil)
	_ Vector[float64] = RowVec[float64]{}
	_ Vector[float64] = ColVec[float64]{}
)

// Window is a rectangular view into a base matrix. It owns no storage.
type Window[T Element] struct {
	base       Matrix[T]
	i0, j0     int
	rows, cols int
}

// Sub returns the rows×cols window of base whose top-left corner is (i0, j0).
// The window must be non-empty and lie entirely inside base. A window of a
// window refers directly to the innermost base.
func Sub[T Element](base Matrix[T], i0, j0, rows, cols int) (*Window[T], error) {
	br, bc := base.Rows(), base.Cols()
	if rows <= 0 || cols <= 0 || i0 < 0 || j0 < 0 ||
		i0 >= br || j0 >= bc || i0+rows > br || j0+cols > bc {
		return nil, fmt.Errorf("%w: %dx%d at (%d, %d) in %dx%d", ErrInvalidWindow, rows, cols, i0, j0, br, bc)
	}
	if w, ok := base.(*Window[T]); ok {
		return &Window[T]{base: w.base, i0: w.i0 + i0, j0: w.j0 + j0, rows: rows, cols: cols}, nil
	}
	return &Window[T]{base: base, i0: i0, j0: j0, rows: rows, cols: cols}, nil
}

// MustSub is like Sub but panics with the construction error.
func MustSub[T Element](base Matrix[T], i0, j0, rows, cols int) *Window[T] {
	w, err := Sub(base, i0, j0, rows, cols)
	if err != nil {
		panic(err)
	}
	return w
}

func (w *Window[T]) Rows() int { return w.rows }
func (w *Window[T]) Cols() int { return w.cols }

func (w *Window[T]) Get(i, j int) T {
	checkIndex(i, j, w.rows, w.cols)
	return w.base.Get(i+w.i0, j+w.j0)
}

func (w *Window[T]) Set(i, j int, v T) {
	checkIndex(i, j, w.rows, w.cols)
	w.base.Set(i+w.i0, j+w.j0, v)
}

// Base returns the matrix the window reads from.
func (w *Window[T]) Base() Matrix[T] { return w.base }

// Offset returns the window's top-left corner in base coordinates.
func (w *Window[T]) Offset() (int, int) { return w.i0, w.j0 }

// Transposed swaps the coordinates of every access to its base.
type Transposed[T Element] struct {
	base Matrix[T]
}

// T returns the transpose view of m. Transposing a transpose view returns
// the underlying matrix.
func T[E Element](m Matrix[E]) Matrix[E] {
	if t, ok := m.(*Transposed[E]); ok {
		return t.base
	}
	return &Transposed[E]{base: m}
}

func (t *Transposed[T]) Rows() int         { return t.base.Cols() }
func (t *Transposed[T]) Cols() int         { return t.base.Rows() }
func (t *Transposed[T]) Get(i, j int) T    { return t.base.Get(j, i) }
func (t *Transposed[T]) Set(i, j int, v T) { t.base.Set(j, i, v) }

// Base returns the untransposed matrix.
func (t *Transposed[T]) Base() Matrix[T] { return t.base }

// RowVec is row i of a base matrix.
type RowVec[T Element] struct {
	base Matrix[T]
	i    int
}

// Row returns row i of m as a vector.
func Row[T Element](m Matrix[T], i int) RowVec[T] {
	checkIndex(i, 0, m.Rows(), max(m.Cols(), 1))
	return RowVec[T]{base: m, i: i}
}

func (r RowVec[T]) Len() int       { return r.base.Cols() }
func (r RowVec[T]) Get(k int) T    { return r.base.Get(r.i, k) }
func (r RowVec[T]) Set(k int, v T) { r.base.Set(r.i, k, v) }

// ColVec is column j of a base matrix.
type ColVec[T Element] struct {
	base Matrix[T]
	j    int
}

// Col returns column j of m as a vector.
func Col[T Element](m Matrix[T], j int) ColVec[T] {
	checkIndex(0, j, max(m.Rows(), 1), m.Cols())
	return ColVec[T]{base: m, j: j}
}

func (c ColVec[T]) Len() int       { return c.base.Rows() }
func (c ColVec[T]) Get(k int) T    { return c.base.Get(k, c.j) }
func (c ColVec[T]) Set(k int, v T) { c.base.Set(k, c.j, v) }

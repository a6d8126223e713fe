// Package algorithms implements the sequential matrix algorithms: products,
// elementwise arithmetic, concatenation, recursive blockwise inversion and
// recursive blocked Cholesky factorization.
//
// Every exported function accepts any matrix.Matrix and returns a fresh
// *matrix.Dense (or mutates its argument, for the InPlace variants). Index
// and shape violations are returned as typed errors from package matrix.
package algorithms

import (
	"github.com/23skdu/longbow-linalg/internal/matrix"
	"github.com/23skdu/longbow-linalg/internal/simd"
)

// Dot returns the sum of u[k]*v[k] for k in ascending order. u and v must
// have the same, non-zero length.
func Dot[T matrix.Element](u, v matrix.Vector[T]) (T, error) {
	var out T
	err := matrix.Catch("Dot", func() { out = dot(u, v) })
	return out, err
}

// Mul returns lhs·rhs.
func Mul[T matrix.Element](lhs, rhs matrix.Matrix[T]) (*matrix.Dense[T], error) {
	var out *matrix.Dense[T]
	err := matrix.Catch("Mul", func() { out = mul(lhs, rhs) })
	return out, err
}

// Add returns lhs+rhs.
func Add[T matrix.Element](lhs, rhs matrix.Matrix[T]) (*matrix.Dense[T], error) {
	var out *matrix.Dense[T]
	err := matrix.Catch("Add", func() { out = add(lhs, rhs) })
	return out, err
}

// Sub returns lhs-rhs.
func Sub[T matrix.Element](lhs, rhs matrix.Matrix[T]) (*matrix.Dense[T], error) {
	var out *matrix.Dense[T]
	err := matrix.Catch("Sub", func() { out = sub(lhs, rhs) })
	return out, err
}

// AddInPlace performs a += b.
func AddInPlace[T matrix.Element](a, b matrix.Matrix[T]) error {
	return matrix.Catch("AddInPlace", func() { addInPlace(a, b) })
}

// ScaleInPlace multiplies every cell of a by x.
func ScaleInPlace[T matrix.Element](a matrix.Matrix[T], x T) error {
	return matrix.Catch("ScaleInPlace", func() { scaleInPlace(a, x) })
}

// ForEach replaces every cell a(i, j) with f(i, j, a(i, j)), row by row.
func ForEach[T matrix.Element](a matrix.Matrix[T], f func(i, j int, v T) T) error {
	return matrix.Catch("ForEach", func() {
		for i := 0; i < a.Rows(); i++ {
			for j := 0; j < a.Cols(); j++ {
				a.Set(i, j, f(i, j, a.Get(i, j)))
			}
		}
	})
}

// Transpose returns a materialized transpose of m.
func Transpose[T matrix.Element](m matrix.Matrix[T]) (*matrix.Dense[T], error) {
	var out *matrix.Dense[T]
	err := matrix.Catch("Transpose", func() { out = transpose(m) })
	return out, err
}

// ConcatRows stacks b below a.
func ConcatRows[T matrix.Element](a, b matrix.Matrix[T]) (*matrix.Dense[T], error) {
	var out *matrix.Dense[T]
	err := matrix.Catch("ConcatRows", func() { out = concatRows(a, b) })
	return out, err
}

// ConcatCols places b to the right of a.
func ConcatCols[T matrix.Element](a, b matrix.Matrix[T]) (*matrix.Dense[T], error) {
	var out *matrix.Dense[T]
	err := matrix.Catch("ConcatCols", func() { out = concatCols(a, b) })
	return out, err
}

// Convert materializes any matrix into dense storage.
func Convert[T matrix.Element](m matrix.Matrix[T]) (*matrix.Dense[T], error) {
	var out *matrix.Dense[T]
	err := matrix.Catch("Convert", func() { out = convert(m) })
	return out, err
}

func dot[T matrix.Element](u, v matrix.Vector[T]) T {
	n := u.Len()
	if n != v.Len() || n == 0 {
		panic(&matrix.VectorLengthError{Left: n, Right: v.Len()})
	}
	var sum T
	for k := 0; k < n; k++ {
		sum += u.Get(k) * v.Get(k)
	}
	return sum
}

func mul[T matrix.Element](lhs, rhs matrix.Matrix[T]) *matrix.Dense[T] {
	if lhs.Cols() != rhs.Rows() {
		panic(matrix.NewDimensionError("Mul", lhs, rhs))
	}
	rows, inner, cols := lhs.Rows(), lhs.Cols(), rhs.Cols()
	l, lok := lhs.(*matrix.Dense[T])
	r, rok := rhs.(*matrix.Dense[T])
	if lok && rok && inner > 0 {
		ld, rd := l.Data(), r.Data()
		return matrix.New(rows, cols, func(i, j int) T {
			return simd.DotStrided(ld[i*inner:(i+1)*inner], rd[j:], cols)
		})
	}
	return matrix.New(rows, cols, func(i, j int) T {
		return dot[T](matrix.Row(lhs, i), matrix.Col(rhs, j))
	})
}

func checkSameShape[T matrix.Element](op string, a, b matrix.Matrix[T]) {
	if a.Rows() != b.Rows() || a.Cols() != b.Cols() {
		panic(matrix.NewDimensionError(op, a, b))
	}
}

func add[T matrix.Element](lhs, rhs matrix.Matrix[T]) *matrix.Dense[T] {
	checkSameShape("Add", lhs, rhs)
	out := convert(lhs)
	addInPlace[T](out, rhs)
	return out
}

func sub[T matrix.Element](lhs, rhs matrix.Matrix[T]) *matrix.Dense[T] {
	checkSameShape("Sub", lhs, rhs)
	if r, ok := rhs.(*matrix.Dense[T]); ok {
		out := convert(lhs)
		simd.VecSub(out.Data(), r.Data())
		return out
	}
	return matrix.New(lhs.Rows(), lhs.Cols(), func(i, j int) T {
		return lhs.Get(i, j) - rhs.Get(i, j)
	})
}

func addInPlace[T matrix.Element](a, b matrix.Matrix[T]) {
	checkSameShape("AddInPlace", a, b)
	ad, aok := a.(*matrix.Dense[T])
	bd, bok := b.(*matrix.Dense[T])
	if aok && bok {
		simd.VecAdd(ad.Data(), bd.Data())
		return
	}
	for i := 0; i < a.Rows(); i++ {
		for j := 0; j < a.Cols(); j++ {
			a.Set(i, j, a.Get(i, j)+b.Get(i, j))
		}
	}
}

func scaleInPlace[T matrix.Element](a matrix.Matrix[T], x T) {
	if d, ok := a.(*matrix.Dense[T]); ok {
		simd.VecScale(d.Data(), x)
		return
	}
	for i := 0; i < a.Rows(); i++ {
		for j := 0; j < a.Cols(); j++ {
			a.Set(i, j, a.Get(i, j)*x)
		}
	}
}

func transpose[T matrix.Element](m matrix.Matrix[T]) *matrix.Dense[T] {
	return matrix.New(m.Cols(), m.Rows(), func(i, j int) T { return m.Get(j, i) })
}

func concatRows[T matrix.Element](a, b matrix.Matrix[T]) *matrix.Dense[T] {
	if a.Cols() != b.Cols() {
		panic(matrix.NewDimensionError("ConcatRows", a, b))
	}
	ad, aok := a.(*matrix.Dense[T])
	bd, bok := b.(*matrix.Dense[T])
	if aok && bok {
		data := make([]T, 0, len(ad.Data())+len(bd.Data()))
		data = append(data, ad.Data()...)
		data = append(data, bd.Data()...)
		out, _ := matrix.NewFromSlice(a.Rows()+b.Rows(), a.Cols(), data)
		return out
	}
	n := a.Rows()
	return matrix.New(n+b.Rows(), a.Cols(), func(i, j int) T {
		if i < n {
			return a.Get(i, j)
		}
		return b.Get(i-n, j)
	})
}

func concatCols[T matrix.Element](a, b matrix.Matrix[T]) *matrix.Dense[T] {
	if a.Rows() != b.Rows() {
		panic(matrix.NewDimensionError("ConcatCols", a, b))
	}
	ad, aok := a.(*matrix.Dense[T])
	bd, bok := b.(*matrix.Dense[T])
	if aok && bok {
		rows, ac, bc := a.Rows(), a.Cols(), b.Cols()
		data := make([]T, 0, rows*(ac+bc))
		for i := 0; i < rows; i++ {
			data = append(data, ad.Data()[i*ac:(i+1)*ac]...)
			data = append(data, bd.Data()[i*bc:(i+1)*bc]...)
		}
		out, _ := matrix.NewFromSlice(rows, ac+bc, data)
		return out
	}
	n := a.Cols()
	return matrix.New(a.Rows(), n+b.Cols(), func(i, j int) T {
		if j < n {
			return a.Get(i, j)
		}
		return b.Get(i, j-n)
	})
}

func convert[T matrix.Element](m matrix.Matrix[T]) *matrix.Dense[T] {
	switch v := m.(type) {
	case *matrix.Dense[T]:
		return v.Clone()
	case *matrix.Window[T]:
		if base, ok := v.Base().(*matrix.Dense[T]); ok {
			i0, j0 := v.Offset()
			bc := base.Cols()
			data := make([]T, 0, v.Rows()*v.Cols())
			for i := 0; i < v.Rows(); i++ {
				start := (i0+i)*bc + j0
				data = append(data, base.Data()[start:start+v.Cols()]...)
			}
			out, _ := matrix.NewFromSlice(v.Rows(), v.Cols(), data)
			return out
		}
	}
	return matrix.New(m.Rows(), m.Cols(), m.Get)
}

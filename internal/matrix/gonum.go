package matrix

import "gonum.org/v1/gonum/mat"

// ToGonum copies m into a gonum dense matrix.
func ToGonum[T Element](m Matrix[T]) *mat.Dense {
	r, c := m.Rows(), m.Cols()
	data := make([]float64, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			data[i*c+j] = float64(m.Get(i, j))
		}
	}
	return mat.NewDense(r, c, data)
}

// FromGonum copies a gonum matrix into a Dense, converting each value to T.
func FromGonum[T Element](g mat.Matrix) *Dense[T] {
	r, c := g.Dims()
	return New(r, c, func(i, j int) T { return T(g.At(i, j)) })
}

// Gonum exposes a float64 matrix through gonum's read-only mat.Matrix
// interface without copying.
type Gonum struct {
	M Matrix[float64]
}

var _ mat.Matrix = Gonum{}

func (g Gonum) Dims() (int, int)    { return g.M.Rows(), g.M.Cols() }
func (g Gonum) At(i, j int) float64 { return g.M.Get(i, j) }
func (g Gonum) T() mat.Matrix       { return mat.Transpose{Matrix: g} }

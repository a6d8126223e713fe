package codec

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/fxamacker/cbor/v2"

	"github.com/23skdu/longbow-linalg/internal/matrix"
)

// ErrMissingOperand is returned when a request lacks a required matrix.
var ErrMissingOperand = errors.New("codec: missing operand")

// Matrix is the CBOR form of a float64 matrix, stored row-major.
type Matrix struct {
	Rows int       `cbor:"rows"`
	Cols int       `cbor:"cols"`
	Data []float64 `cbor:"data"`
}

// Request carries the operands of one operation. B is omitted for unary
// operations.
type Request struct {
	A *Matrix `cbor:"a"`
	B *Matrix `cbor:"b,omitempty"`
}

// Matrices includes the operands that are present, A first.
func (r *Request) Matrices() ([]*matrix.Dense[float64], error) {
	if r.A == nil {
		return nil, fmt.Errorf("%w: a", ErrMissingOperand)
	}
	a, err := r.A.Dense()
	if err != nil {
		return nil, fmt.Errorf("a: %w", err)
	}
	if r.B == nil {
		return []*matrix.Dense[float64]{a}, nil
	}
	b, err := r.B.Dense()
	if err != nil {
		return nil, fmt.Errorf("b: %w", err)
	}
	return []*matrix.Dense[float64]{a, b}, nil
}

// FromMatrix copies m into its CBOR form.
func FromMatrix(m matrix.Matrix[float64]) *Matrix {
	out := &Matrix{Rows: m.Rows(), Cols: m.Cols()}
	if d, ok := m.(*matrix.Dense[float64]); ok {
		out.Data = d.Data()
		return out
	}
	out.Data = make([]float64, 0, out.Rows*out.Cols)
	for i := 0; i < out.Rows; i++ {
		for j := 0; j < out.Cols; j++ {
			out.Data = append(out.Data, m.Get(i, j))
		}
	}
	return out
}

// Dense validates the shape, including cell-count overflow, and wraps Data
// without copying.
func (m *Matrix) Dense() (*matrix.Dense[float64], error) {
	if m.Data == nil {
		m.Data = []float64{}
	}
	return matrix.NewFromSlice(m.Rows, m.Cols, m.Data)
}

// The default limit of 131072 array elements is below a 400×400 matrix.
var decMode = func() cbor.DecMode {
	dm, err := cbor.DecOptions{MaxArrayElements: math.MaxInt32}.DecMode()
	if err != nil {
		panic(err)
	}
	return dm
}()

// DecodeRequest reads one CBOR request from r.
func DecodeRequest(r io.Reader) (*Request, error) {
	var req Request
	if err := decMode.NewDecoder(r).Decode(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

// DecodeMatrix reads one CBOR matrix from r.
func DecodeMatrix(r io.Reader) (*Matrix, error) {
	var m Matrix
	if err := decMode.NewDecoder(r).Decode(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Encode writes v to w as CBOR.
func Encode(w io.Writer, v any) error {
	return cbor.NewEncoder(w).Encode(v)
}

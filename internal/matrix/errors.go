package matrix

import (
	"errors"
	"fmt"

	"github.com/gomlx/exceptions"
)

// Sentinel errors. Typed errors below unwrap to one of these, so callers
// match them with errors.Is.
var (
	// ErrIndexOutOfBounds reports a Get/Set outside the declared shape.
	ErrIndexOutOfBounds = errors.New("matrix: index out of bounds")

	// ErrDimensionMismatch reports incompatible operand shapes.
	ErrDimensionMismatch = errors.New("matrix: dimension mismatch")

	// ErrNonSquare reports a square-only operation applied to a non-square input.
	ErrNonSquare = errors.New("matrix: matrix is not square")

	// ErrInvalidVectorLength reports a dot product over vectors of different or zero length.
	ErrInvalidVectorLength = errors.New("matrix: invalid vector length")

	// ErrSharedMutation reports a write through a read-only shared handle.
	ErrSharedMutation = errors.New("matrix: attempt to mutate shared matrix")

	// ErrInvalidWindow reports a sub-window that does not fit inside its base.
	ErrInvalidWindow = errors.New("matrix: invalid window")

	// ErrInvalidShape reports a negative row or column count.
	ErrInvalidShape = errors.New("matrix: invalid shape")

	// ErrSingular reports a zero pivot during blockwise inversion.
	ErrSingular = errors.New("matrix: singular matrix")

	// ErrNotPositiveDefinite reports a non-positive pivot during Cholesky factorization.
	ErrNotPositiveDefinite = errors.New("matrix: matrix is not positive definite")

	// ErrInvalidBlockSize reports a non-positive block size.
	ErrInvalidBlockSize = errors.New("matrix: invalid block size")
)

// IndexError carries the requested coordinates and the shape they violated.
type IndexError struct {
	I, J       int
	Rows, Cols int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("matrix: index (%d, %d) out of bounds for %dx%d matrix", e.I, e.J, e.Rows, e.Cols)
}

func (e *IndexError) Unwrap() error { return ErrIndexOutOfBounds }

// DimensionError carries both operand shapes of a failed binary operation.
type DimensionError struct {
	Op           string
	LRows, LCols int
	RRows, RCols int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("matrix: %s: incompatible shapes %dx%d and %dx%d", e.Op, e.LRows, e.LCols, e.RRows, e.RCols)
}

func (e *DimensionError) Unwrap() error { return ErrDimensionMismatch }

// NonSquareError carries the shape of a matrix that had to be square.
type NonSquareError struct {
	Op         string
	Rows, Cols int
}

func (e *NonSquareError) Error() string {
	return fmt.Sprintf("matrix: %s: %dx%d matrix is not square", e.Op, e.Rows, e.Cols)
}

func (e *NonSquareError) Unwrap() error { return ErrNonSquare }

// VectorLengthError carries the lengths passed to a dot product.
type VectorLengthError struct {
	Left, Right int
}

func (e *VectorLengthError) Error() string {
	return fmt.Sprintf("matrix: invalid vector lengths %d and %d", e.Left, e.Right)
}

func (e *VectorLengthError) Unwrap() error { return ErrInvalidVectorLength }

// MutationError is raised by Set on a Shared matrix.
type MutationError struct {
	I, J int
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("matrix: attempt to mutate shared matrix at (%d, %d)", e.I, e.J)
}

func (e *MutationError) Unwrap() error { return ErrSharedMutation }

// NewDimensionError builds a *DimensionError from two operands.
func NewDimensionError[T Element](op string, lhs, rhs Matrix[T]) *DimensionError {
	return &DimensionError{
		Op:    op,
		LRows: lhs.Rows(), LCols: lhs.Cols(),
		RRows: rhs.Rows(), RCols: rhs.Cols(),
	}
}

// Catch runs fn and returns any error it panicked with, tagged with op.
// Panics whose value is not an error are re-raised.
func Catch(op string, fn func()) error {
	if err := exceptions.TryCatch[error](fn); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

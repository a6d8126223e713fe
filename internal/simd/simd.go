// Package simd holds unrolled kernels over flat row-major slices. Every
// reduction accumulates left to right into a single sum so results match
// the element-by-element algorithms exactly.
package simd

import "golang.org/x/exp/constraints"

// Number is the element type accepted by the kernels.
type Number interface {
	constraints.Integer | constraints.Float
}

// VecAdd performs dst += src.
func VecAdd[T Number](dst, src []T) {
	src = src[:len(dst)]
	// Unrolled loop for better pipelining
	i := 0
	for ; i <= len(dst)-4; i += 4 {
		dst[i] += src[i]
		dst[i+1] += src[i+1]
		dst[i+2] += src[i+2]
		dst[i+3] += src[i+3]
	}
	// Handle remainder
	for ; i < len(dst); i++ {
		dst[i] += src[i]
	}
}

// VecSub performs dst -= src.
func VecSub[T Number](dst, src []T) {
	src = src[:len(dst)]
	i := 0
	for ; i <= len(dst)-4; i += 4 {
		dst[i] -= src[i]
		dst[i+1] -= src[i+1]
		dst[i+2] -= src[i+2]
		dst[i+3] -= src[i+3]
	}
	for ; i < len(dst); i++ {
		dst[i] -= src[i]
	}
}

// VecScale performs dst *= scale.
func VecScale[T Number](dst []T, scale T) {
	i := 0
	for ; i <= len(dst)-4; i += 4 {
		dst[i] *= scale
		dst[i+1] *= scale
		dst[i+2] *= scale
		dst[i+3] *= scale
	}
	for ; i < len(dst); i++ {
		dst[i] *= scale
	}
}

// Dot returns the sum of a[k]*b[k] for k in ascending order.
func Dot[T Number](a, b []T) T {
	b = b[:len(a)]
	var sum T
	i := 0
	for ; i <= len(a)-4; i += 4 {
		sum += a[i] * b[i]
		sum += a[i+1] * b[i+1]
		sum += a[i+2] * b[i+2]
		sum += a[i+3] * b[i+3]
	}
	for ; i < len(a); i++ {
		sum += a[i] * b[i]
	}
	return sum
}

// DotStrided returns the sum of a[k]*b[k*stride] for k in ascending order.
// It reads a column of a row-major matrix when b starts at the column's
// first cell and stride is the row length.
func DotStrided[T Number](a, b []T, stride int) T {
	var sum T
	off := 0
	for k := range a {
		sum += a[k] * b[off]
		off += stride
	}
	return sum
}

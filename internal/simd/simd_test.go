package simd

import (
	"testing"
)

func TestVecAdd(t *testing.T) {
	dst := []float64{1, 2, 3, 4, 5}
	src := []float64{10, 20, 30, 40, 50}
	expected := []float64{11, 22, 33, 44, 55}

	VecAdd(dst, src)

	for i, v := range dst {
		if v != expected[i] {
			t.Errorf("VecAdd(%d) = %f, want %f", i, v, expected[i])
		}
	}
}

func TestVecSub(t *testing.T) {
	dst := []int{10, 20, 30, 40, 50, 60}
	src := []int{1, 2, 3, 4, 5, 6}
	expected := []int{9, 18, 27, 36, 45, 54}

	VecSub(dst, src)

	for i, v := range dst {
		if v != expected[i] {
			t.Errorf("VecSub(%d) = %d, want %d", i, v, expected[i])
		}
	}
}

func TestVecScale(t *testing.T) {
	dst := []float32{1, -2, 3, 4, 5}
	expected := []float32{-1, 2, -3, -4, -5}

	VecScale(dst, -1)

	for i, v := range dst {
		if v != expected[i] {
			t.Errorf("VecScale(%d) = %f, want %f", i, v, expected[i])
		}
	}
}

func TestDot(t *testing.T) {
	a := []float64{1, 2, 3, 4, 5}
	b := []float64{2, 3, 4, 5, 6}
	// 2 + 6 + 12 + 20 + 30 = 70
	expected := 70.0

	result := Dot(a, b)

	if result != expected {
		t.Errorf("Dot = %f, want %f", result, expected)
	}
}

func TestDot_MatchesSequentialSum(t *testing.T) {
	a := make([]float64, 37)
	b := make([]float64, 37)
	for i := range a {
		a[i] = float64(i) / 8
		b[i] = float64(37-i) / 4
	}

	var want float64
	for k := range a {
		want += a[k] * b[k]
	}

	if got := Dot(a, b); got != want {
		t.Errorf("Dot = %v, want bit-identical %v", got, want)
	}
}

func TestDotStrided(t *testing.T) {
	// 3x2 matrix, column 1 is {2, 4, 6}
	mat := []int{
		1, 2,
		3, 4,
		5, 6,
	}
	vec := []int{1, 2, 3}

	// 2*1 + 4*2 + 6*3 = 28
	if got := DotStrided(vec, mat[1:], 2); got != 28 {
		t.Errorf("DotStrided = %d, want 28", got)
	}
}

// Benchmarks

func BenchmarkDot(b *testing.B) {
	size := 128
	v1 := make([]float64, size)
	v2 := make([]float64, size)
	for i := range v1 {
		v1[i] = float64(i)
		v2[i] = float64(i)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Dot(v1, v2)
	}
}

func BenchmarkDotStrided(b *testing.B) {
	size := 128
	v := make([]float64, size)
	m := make([]float64, size*size)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		DotStrided(v, m, size)
	}
}

func BenchmarkVecAdd(b *testing.B) {
	size := 128
	v1 := make([]float64, size)
	v2 := make([]float64, size)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		VecAdd(v1, v2)
	}
}

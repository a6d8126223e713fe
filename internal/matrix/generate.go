package matrix

import "math/rand/v2"

// Identity returns the n×n identity matrix.
func Identity[T Element](n int) *Dense[T] {
	m := Zeros[T](n, n)
	for i := 0; i < n; i++ {
		m.data[i*n+i] = 1
	}
	return m
}

// Fill returns a rows×cols matrix with every cell set to v.
func Fill[T Element](rows, cols int, v T) *Dense[T] {
	m := Zeros[T](rows, cols)
	for k := range m.data {
		m.data[k] = v
	}
	return m
}

// RandL1 returns a random n×n lower-triangular matrix with unit diagonal.
// Entries below the diagonal are uniform in [0, 1).
func RandL1(n int, rng *rand.Rand) *Dense[float64] {
	return New(n, n, func(i, j int) float64 {
		switch {
		case i == j:
			return 1
		case i > j:
			return rng.Float64()
		default:
			return 0
		}
	})
}

// Random returns a rows×cols matrix with entries uniform in [0, 1).
func Random(rows, cols int, rng *rand.Rand) *Dense[float64] {
	return New(rows, cols, func(int, int) float64 { return rng.Float64() })
}

// SPD returns the symmetric positive-definite matrix L·Lᵀ for L = RandL1(n).
func SPD(n int, rng *rand.Rand) *Dense[float64] {
	l := RandL1(n, rng)
	return New(n, n, func(i, j int) float64 {
		var sum float64
		for k := 0; k <= min(i, j); k++ {
			sum += l.data[i*n+k] * l.data[j*n+k]
		}
		return sum
	})
}

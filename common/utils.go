package common

// CeilDiv returns ceil(n / d) for positive integers.
//
// Parameters:
//   - n: the dividend (must be >= 0)
//   - d: the divisor (must be > 0)
//
// Returns:
//   - int: the rounded-up quotient
func CeilDiv(n, d int) int {
	return (n + d - 1) / d
}

// Clamp limits v to the inclusive range [lo, hi].
func Clamp[T int | uint32 | float32 | float64](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

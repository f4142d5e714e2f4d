// Package floatutils implements utility functions for float64 slices
package floatutils

import "math"

// Ones returns a slice of n ones
func Ones(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1.0
	}
	return out
}

// MaxAbs returns the largest absolute value in values, or 0 if values
// is empty
func MaxAbs(values []float64) float64 {
	max := 0.0
	for _, v := range values {
		max = math.Max(max, math.Abs(v))
	}
	return max
}

// AllFinite returns whether no element of values is NaN or infinite
func AllFinite(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

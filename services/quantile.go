package services

import (
	"math"
	"sort"
)

// quantile returns the q-th quantile of sorted values using linear
// interpolation between closest ranks: position (n-1)*q. This is the
// estimator spreadsheet tools and pandas use by default. sorted must be
// ascending and non-empty.
func quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	h := float64(n-1) * q
	lo := math.Floor(h)
	i := int(lo)
	if i >= n-1 {
		return sorted[n-1]
	}
	return sorted[i] + (h-lo)*(sorted[i+1]-sorted[i])
}

// sortedCopy returns an ascending copy of values.
func sortedCopy(values []float64) []float64 {
	s := append([]float64(nil), values...)
	sort.Float64s(s)
	return s
}

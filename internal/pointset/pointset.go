// Package pointset implements the data-model layer of spec 3/4.2: a
// point set owns the raw data in dimension-major layout and exposes
// indexed access plus metric-aware distance computation.
package pointset

import "fmt"

// PointSet is the capability contract required of any concrete point
// representation (spec 9: "capability-bound interface"). Indices are
// 1-based throughout, matching the permutation table convention.
type PointSet interface {
	// Size reports the number of points N and their dimension D.
	Size() (n, d int)
	// Point returns the D-length vector for 1-based index i. Callers must
	// not mutate the returned slice.
	Point(i int) []float64
	// Distance computes the exact distance from point i to an external
	// query vector.
	Distance(i int, query []float64) float64
	// DistanceT computes the early-terminating distance from point i to
	// an external query vector, per the Metric contract.
	DistanceT(i int, query []float64, threshold float64) float64
}

// validateIndex panics on a programmer error (out-of-range index), matching
// spec 4.2's "programmer error, may be detected or undefined" contract for
// dimension mismatches; here we choose to detect it.
func validateIndex(i, n int) {
	if i < 1 || i > n {
		panic(fmt.Sprintf("pointset: index %d out of range [1, %d]", i, n))
	}
}

package pointset

import (
	"fmt"

	"github.com/xDarkicex/atria/internal/metric"
)

// Delay is the delay-embedding PointSet variant (spec 3): it owns a 1-D
// time series s of length L and parameters (m, tau), exposing
// N = L - (m-1)*tau points where point i is
// (s[i], s[i+tau], ..., s[i+(m-1)*tau]) (0-based series offsets, derived
// from the 1-based point index below). No embedded matrix is ever
// materialized for bulk operations; distance computations read directly
// from s via a small per-call buffer, and Point(i) lazily materializes a
// single D-length vector for callers that need a borrowed view.
type Delay struct {
	s      []float64
	m, tau int
	n, d   int
	metric metric.Metric
	scratch []float64 // reused materialization buffer, Point(i) owner-only
}

// NewDelay builds a Delay point set. L must satisfy L >= (m-1)*tau + 1.
func NewDelay(s []float64, m, tau int, met metric.Metric) (*Delay, error) {
	if m < 1 {
		return nil, fmt.Errorf("pointset: m must be >= 1, got %d", m)
	}
	if tau < 1 {
		return nil, fmt.Errorf("pointset: tau must be >= 1, got %d", tau)
	}
	l := len(s)
	minLen := (m-1)*tau + 1
	if l < minLen {
		return nil, fmt.Errorf("pointset: series length %d too short for m=%d tau=%d (need >= %d)", l, m, tau, minLen)
	}
	n := l - (m-1)*tau
	return &Delay{s: s, m: m, tau: tau, n: n, d: m, metric: met, scratch: make([]float64, m)}, nil
}

func (p *Delay) Size() (int, int) { return p.n, p.d }

// offset returns the 0-based index into s of the first coordinate of
// 1-based point i.
func (p *Delay) offset(i int) int {
	validateIndex(i, p.n)
	return i - 1
}

// Point materializes the D-length embedded vector for point i into the
// point set's reusable scratch buffer. The returned slice is only valid
// until the next call to Point on this PointSet.
func (p *Delay) Point(i int) []float64 {
	base := p.offset(i)
	for k := 0; k < p.m; k++ {
		p.scratch[k] = p.s[base+k*p.tau]
	}
	return p.scratch
}

// vectorAt fills dst (len == m) with the embedded coordinates of point i
// without touching the shared scratch buffer, used by Distance/DistanceT so
// concurrent-looking call patterns within a single search still see
// consistent values.
func (p *Delay) vectorAt(i int, dst []float64) {
	base := p.offset(i)
	for k := 0; k < p.m; k++ {
		dst[k] = p.s[base+k*p.tau]
	}
}

func (p *Delay) Distance(i int, query []float64) float64 {
	buf := make([]float64, p.m)
	p.vectorAt(i, buf)
	return p.metric.Distance(buf, query)
}

func (p *Delay) DistanceT(i int, query []float64, threshold float64) float64 {
	buf := make([]float64, p.m)
	p.vectorAt(i, buf)
	return p.metric.DistanceT(buf, query, threshold)
}

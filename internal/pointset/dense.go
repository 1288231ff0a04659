package pointset

import "github.com/xDarkicex/atria/internal/metric"

// Dense is the dense-matrix PointSet variant: it owns a D x N array
// directly, stored dimension-major (one contiguous D-length slice per
// point) for distance-loop cache behavior, per spec 3.
type Dense struct {
	n, d   int
	data   []float64 // length n*d, point i (1-based) occupies data[(i-1)*d : i*d]
	metric metric.Metric
}

// NewDense builds a Dense point set from a D x N contiguous array already
// laid out dimension-major: data[(i-1)*d:i*d] must be point i.
func NewDense(data []float64, n, d int, m metric.Metric) (*Dense, error) {
	if n <= 0 || d <= 0 {
		return nil, errEmptyOrInvalid(n, d)
	}
	if len(data) != n*d {
		return nil, errLength(len(data), n*d)
	}
	return &Dense{n: n, d: d, data: data, metric: m}, nil
}

func (p *Dense) Size() (int, int) { return p.n, p.d }

func (p *Dense) Point(i int) []float64 {
	validateIndex(i, p.n)
	return p.data[(i-1)*p.d : i*p.d]
}

func (p *Dense) Distance(i int, query []float64) float64 {
	return p.metric.Distance(p.Point(i), query)
}

func (p *Dense) DistanceT(i int, query []float64, threshold float64) float64 {
	return p.metric.DistanceT(p.Point(i), query, threshold)
}

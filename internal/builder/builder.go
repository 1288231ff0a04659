// Package builder implements the tree construction algorithm of spec 4.5:
// recursive farthest-pair partitioning of a permutation of the point set,
// reusing distances across the partition pass wherever possible.
package builder

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/xDarkicex/atria/internal/cluster"
	"github.com/xDarkicex/atria/internal/metric"
	"github.com/xDarkicex/atria/internal/neighbor"
	"github.com/xDarkicex/atria/internal/pointset"
)

// Options configures a single Build call.
type Options struct {
	// MinPoints is the target leaf size; a span at or below this size
	// always becomes a leaf. Must be >= 1.
	MinPoints int
	// Seed drives the deterministic RNG used to pick split seeds, so
	// that building twice with the same seed and inputs yields an
	// identical tree shape (spec 8).
	Seed int64
}

// Result is everything Build produces: the arena holding every cluster
// node, the arena index of the root, and the final permutation table.
type Result struct {
	Arena *cluster.Arena
	Root  uint32
	Perm  []neighbor.Neighbor

	// Stats are construction-time diagnostics, always populated; cheap
	// to compute, unconditionally returned (unlike the per-query
	// instrumentation in internal/obs, which is opt-in).
	Stats Stats
}

// Stats reports construction diagnostics.
type Stats struct {
	DistanceEvals int64
	LeafCount     int
	InternalCount int
	DegenerateLeaves int // leaves created by a failed split attempt, not by the min_points rule
}

// Build constructs the cluster tree over the given point set under the
// given metric. The metric must be admissible (satisfy the triangle
// inequality); Build does not check this, since brute-force callers may
// legitimately construct a PointSet/Metric pair without ever calling
// Build.
func Build(ps pointset.PointSet, met metric.Metric, opts Options) (*Result, error) {
	if opts.MinPoints < 1 {
		return nil, fmt.Errorf("builder: min_points must be >= 1, got %d", opts.MinPoints)
	}
	n, d := ps.Size()
	if n <= 0 {
		return nil, fmt.Errorf("builder: empty point set")
	}

	b := &builder{
		ps:        ps,
		met:       met,
		d:         d,
		minPoints: opts.MinPoints,
		rng:       rand.New(rand.NewSource(opts.Seed)),
		arena:     cluster.NewArena(2 * (n/opts.MinPoints + 1)),
	}

	perm := make([]neighbor.Neighbor, n)
	for i := 0; i < n; i++ {
		perm[i] = neighbor.Neighbor{Index: i + 1}
	}

	if n == 1 {
		// The only point is the root's center, so the root's span is
		// empty, as every cluster's span excludes its own center.
		root := b.arena.NewLeaf(perm[0].Index, 0, 0, 0)
		b.stats.LeafCount = 1
		return &Result{Arena: b.arena, Root: root, Perm: perm, Stats: b.stats}, nil
	}

	// Root construction (spec 4.5): pick an arbitrary seed, let the root
	// center be the farthest point from it, then fill the whole
	// permutation table with distances to the root center.
	seedPos := b.rng.Intn(n)
	seedVec := b.snapshot(perm[seedPos].Index)
	rootCenter := b.argFarthest(perm, 0, n-1, seedVec)
	rootVec := b.snapshot(rootCenter)
	for i := range perm {
		perm[i].Distance = b.distance(perm[i].Index, rootVec)
	}

	// Exclude the root's own center from the span handed to the
	// recursive algorithm by swapping it to the last slot.
	rootPos := indexOf(perm, rootCenter, 0, n-1)
	perm[rootPos], perm[n-1] = perm[n-1], perm[rootPos]

	root := b.build(perm, 0, n-2, rootCenter)
	return &Result{Arena: b.arena, Root: root, Perm: perm, Stats: b.stats}, nil
}

type builder struct {
	ps        pointset.PointSet
	met       metric.Metric
	d         int
	minPoints int
	rng       *rand.Rand
	arena     *cluster.Arena
	stats     Stats
}

func (b *builder) snapshot(idx int) []float64 {
	v := make([]float64, b.d)
	copy(v, b.ps.Point(idx))
	return v
}

func (b *builder) distance(idx int, query []float64) float64 {
	b.stats.DistanceEvals++
	return b.ps.Distance(idx, query)
}

// argFarthest returns the point index in perm[lo..hi] maximizing distance
// to query, discarding the individual distances once the argmax is found.
func (b *builder) argFarthest(perm []neighbor.Neighbor, lo, hi int, query []float64) int {
	best := perm[lo].Index
	bestDist := -1.0
	for i := lo; i <= hi; i++ {
		dist := b.distance(perm[i].Index, query)
		if dist > bestDist {
			bestDist = dist
			best = perm[i].Index
		}
	}
	return best
}

func indexOf(perm []neighbor.Neighbor, pointIndex, lo, hi int) int {
	for i := lo; i <= hi; i++ {
		if perm[i].Index == pointIndex {
			return i
		}
	}
	panic("builder: point index not found in expected span")
}

// build recursively constructs the cluster rooted at center over span
// [lo, hi] of perm, which must NOT contain center itself (the caller has
// already set center's own slot aside), and for which
// perm[i].Distance == distance(point(perm[i].Index), point(center)) holds
// for every i in [lo, hi] (the invariant maintained by every partition
// step, established for the whole array by Build's root pass).
func (b *builder) build(perm []neighbor.Neighbor, lo, hi, center int) uint32 {
	length := hi - lo + 1
	if length <= b.minPoints {
		b.stats.LeafCount++
		return b.arena.NewLeaf(center, maxDistance(perm, lo, hi), lo, length)
	}

	leafOnDegenerate := func() uint32 {
		b.stats.LeafCount++
		b.stats.DegenerateLeaves++
		return b.arena.NewLeaf(center, maxDistance(perm, lo, hi), lo, length)
	}

	// Farthest-pair heuristic (spec 4.5 step 2).
	seedPos := lo + b.rng.Intn(length)
	seedVec := b.snapshot(perm[seedPos].Index)
	cL := b.argFarthest(perm, lo, hi, seedVec)
	cLVec := b.snapshot(cL)

	dL := make([]float64, length) // distance to cL for every position, reused below as the "d_L" side of the partition
	cR := -1
	dCenters := -1.0
	for i := lo; i <= hi; i++ {
		dist := b.distance(perm[i].Index, cLVec)
		dL[i-lo] = dist
		if dist > dCenters {
			dCenters = dist
			cR = perm[i].Index
		}
	}
	if dCenters == 0 {
		// All candidate farthest-pair distances are zero: the span is
		// degenerate (spec 4.4a).
		return leafOnDegenerate()
	}
	cRVec := b.snapshot(cR)

	// Partition (spec 4.5 step 4): d_L is already known from the pass
	// above: the partition pass itself only needs one fresh distance
	// computation per point, to c_R.
	left := make([]neighbor.Neighbor, 0, length)
	right := make([]neighbor.Neighbor, 0, length)
	gMin := math.Inf(1)
	for i := lo; i <= hi; i++ {
		idx := perm[i].Index
		if idx == cL || idx == cR {
			continue
		}
		dl := dL[i-lo]
		dr := b.distance(idx, cRVec)
		if dl <= dr {
			left = append(left, neighbor.Neighbor{Index: idx, Distance: dl})
			if gap := dr - dl; gap < gMin {
				gMin = gap
			}
		} else {
			right = append(right, neighbor.Neighbor{Index: idx, Distance: dr})
			if gap := dl - dr; gap < gMin {
				gMin = gap
			}
		}
	}
	if len(left) == 0 || len(right) == 0 {
		// One side got nothing: partitioning failed to make progress
		// (spec 4.4b).
		return leafOnDegenerate()
	}

	// Reorder the span in place: left block, then right block, then the
	// two centers in the final two slots (excluded from both children's
	// spans, spec 4.5 step 5).
	pos := lo
	for _, n := range left {
		perm[pos] = n
		pos++
	}
	leftStart, leftLen := lo, len(left)
	for _, n := range right {
		perm[pos] = n
		pos++
	}
	rightStart, rightLen := leftStart+leftLen, len(right)
	perm[hi-1] = neighbor.Neighbor{Index: cL, Distance: 0}
	perm[hi] = neighbor.Neighbor{Index: cR, Distance: 0}

	centerVec := b.snapshot(center)
	dCenterL := b.distance(cL, centerVec)
	dCenterR := b.distance(cR, centerVec)

	leftChild := b.build(perm, leftStart, leftStart+leftLen-1, cL)
	rightChild := b.build(perm, rightStart, rightStart+rightLen-1, cR)

	rmaxL := dCenterL + b.arena.At(leftChild).Rmax
	rmaxR := dCenterR + b.arena.At(rightChild).Rmax
	rmax := math.Max(rmaxL, rmaxR)

	b.stats.InternalCount++
	return b.arena.NewInternal(center, rmax, gMin, leftChild, rightChild)
}

func maxDistance(perm []neighbor.Neighbor, lo, hi int) float64 {
	m := 0.0
	for i := lo; i <= hi; i++ {
		if perm[i].Distance > m {
			m = perm[i].Distance
		}
	}
	return m
}

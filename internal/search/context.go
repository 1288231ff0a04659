// Package search implements the three query algorithms of spec 4.7/4.8
// (k-NN, range, count-range) plus the reusable per-search scratch buffer
// (spec 3, "SearchContext") that repeated calls reuse.
package search

import (
	"container/heap"

	"github.com/xDarkicex/atria/internal/cluster"
	"github.com/xDarkicex/atria/internal/metric"
	"github.com/xDarkicex/atria/internal/neighbor"
	"github.com/xDarkicex/atria/internal/pointset"
)

// ExcludeRange excludes point indices in the closed interval [Lo, Hi] from
// a query: they are neither offered to results nor counted (spec 9). Any
// range with Lo > Hi excludes nothing, and so does the zero value
// (Lo = Hi = 0), since point indices start at 1.
type ExcludeRange struct {
	Lo, Hi int
}

func (r ExcludeRange) excludes(idx int) bool {
	return r.Lo <= r.Hi && idx >= r.Lo && idx <= r.Hi
}

// Stats accumulates per-query instrumentation (spec 6, "track_stats").
// Zero value is the "disabled" state: accumulation still happens (the
// counters are cheap integer increments) but callers that never read
// Stats pay nothing beyond that.
type Stats struct {
	DistanceEvals   int64
	ClustersVisited int64
}

// FK returns the fraction of full-distance evaluations relative to brute
// force (distance_calcs / N), the principal pruning-effectiveness metric
// of spec 4.7.
func (s Stats) FK(n int) float64 {
	if n == 0 {
		return 0
	}
	return float64(s.DistanceEvals) / float64(n)
}

// Context is the preallocated per-search scratch described in spec 3 and
// 9: a priority queue of pending clusters plus a result NeighborTable.
// Callers that perform more than one query should hold a Context for the
// lifetime of their query loop; each query resets it on entry and reuses
// its queue and table storage. Queries are not allocation-free: each
// returns a freshly allocated result slice, and pushing onto the pending
// queue goes through container/heap's interface{} boxing.
// A Context is mutable and must not be shared across concurrent queries;
// each goroutine in a parallel batch owns its own Context (spec 5).
type Context struct {
	pending pendingQueue
	table   *neighbor.Table
	stats   Stats
}

// NewContext creates a reusable Context. kHint sizes internal buffers; it
// need not be exact since both the table and queue grow as needed.
func NewContext(kHint int) *Context {
	if kHint < 1 {
		kHint = 1
	}
	return &Context{
		pending: make(pendingQueue, 0, 64),
		table:   neighbor.NewTable(kHint),
	}
}

// Stats returns the instrumentation accumulated by the most recent query
// run against this Context.
func (c *Context) Stats() Stats { return c.stats }

func (c *Context) resetPending() {
	c.pending = c.pending[:0]
}

// tree bundles the immutable pieces a search needs to read: the arena,
// the root, the backing permutation table, the point set, and the
// metric. Search functions take this plus a *Context so the same
// arguments don't have to be threaded through every helper by hand.
type tree struct {
	arena *cluster.Arena
	root  uint32
	perm  []neighbor.Neighbor
	ps    pointset.PointSet
	met   metric.Metric
}

// Tree is the public constructor other packages use to describe an
// immutable, built index to the search algorithms.
type Tree struct {
	Arena *cluster.Arena
	Root  uint32
	Perm  []neighbor.Neighbor
	PS    pointset.PointSet
	Met   metric.Metric
}

func (t Tree) internal() tree {
	return tree{arena: t.Arena, root: t.Root, perm: t.Perm, ps: t.PS, met: t.Met}
}

func (c *Context) pushRoot(tr tree, query []float64) item {
	root := tr.arena.At(tr.root)
	dist := tr.ps.Distance(root.Center, query)
	c.stats.DistanceEvals++
	it := rootItem(tr.root, root, dist)
	heap.Push(&c.pending, it)
	return it
}

func (c *Context) pushChildren(tr tree, parentIt item, parentNode *cluster.Node, query []float64, worst float64, full bool) {
	left := tr.arena.At(parentNode.Left)
	right := tr.arena.At(parentNode.Right)

	distL := tr.ps.Distance(left.Center, query)
	c.stats.DistanceEvals++
	distR := tr.ps.Distance(right.Center, query)
	c.stats.DistanceEvals++

	leftItem := childItem(parentNode.Left, left, distL, distR, parentIt, parentNode.GMin)
	rightItem := childItem(parentNode.Right, right, distR, distL, parentIt, parentNode.GMin)

	if !(full && leftItem.dMin > worst) {
		heap.Push(&c.pending, leftItem)
	}
	if !(full && rightItem.dMin > worst) {
		heap.Push(&c.pending, rightItem)
	}
}

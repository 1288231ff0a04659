package search

import "github.com/xDarkicex/atria/internal/cluster"

// item names a cluster that may still contain candidates, carrying
// precomputed bounds on the query-to-cluster distance (spec 4.6).
type item struct {
	node uint32  // arena index of the cluster
	dist float64 // d(query, center(cluster))
	dMin float64 // lower bound on d(query, p) for any p in the subtree
	dMax float64 // upper bound on d(query, p) for any p in the subtree
}

// rootItem builds the SearchItem for the root cluster.
func rootItem(idx uint32, node *cluster.Node, dist float64) item {
	dMin := dist - node.Rmax
	if dMin < 0 {
		dMin = 0
	}
	return item{node: idx, dist: dist, dMin: dMin, dMax: dist + node.Rmax}
}

// childItem builds the SearchItem for a child cluster given its own
// center-to-query distance, its sibling's center-to-query distance, the
// parent item's bounds, and the parent's partition gap (spec 4.6).
func childItem(idx uint32, node *cluster.Node, dist, siblingDist float64, parent item, parentGMin float64) item {
	dMin := dist - node.Rmax
	if dMin < 0 {
		dMin = 0
	}
	if parent.dMin > dMin {
		dMin = parent.dMin
	}
	if gapMin := 0.5 * (dist - siblingDist + parentGMin); gapMin > dMin {
		dMin = gapMin
	}
	if dMin < 0 {
		dMin = 0
	}

	dMax := dist + node.Rmax
	if parent.dMax < dMax {
		dMax = parent.dMax
	}

	return item{node: idx, dist: dist, dMin: dMin, dMax: dMax}
}

// pendingQueue is a container/heap min-heap of items ordered by dMin
// ascending: the most promising subtree is expanded first.
type pendingQueue []item

func (q pendingQueue) Len() int            { return len(q) }
func (q pendingQueue) Less(i, j int) bool  { return q[i].dMin < q[j].dMin }
func (q pendingQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *pendingQueue) Push(x interface{}) { *q = append(*q, x.(item)) }
func (q *pendingQueue) Pop() interface{} {
	old := *q
	n := len(old)
	it := old[n-1]
	*q = old[:n-1]
	return it
}

package search

import (
	"container/heap"
	"math"

	"github.com/xDarkicex/atria/internal/cluster"
	"github.com/xDarkicex/atria/internal/neighbor"
)

// Knn performs k-nearest-neighbor search (spec 4.7). ctx is reset and
// reused; its Stats reflect only this call on return.
func Knn(t Tree, ctx *Context, query []float64, k int, exclude ExcludeRange) []neighbor.Neighbor {
	ctx.stats = Stats{}
	ctx.table.Reset(k)
	ctx.resetPending()

	tr := t.internal()
	ctx.pushRoot(tr, query)

	for ctx.pending.Len() > 0 {
		full := ctx.table.Len() >= k
		if full && ctx.pending[0].dMin > ctx.table.Worst() {
			break
		}
		it := heap.Pop(&ctx.pending).(item)

		node := tr.arena.At(it.node)
		ctx.stats.ClustersVisited++

		if !exclude.excludes(node.Center) {
			ctx.table.Offer(neighbor.Neighbor{Index: node.Center, Distance: it.dist})
		}

		if node.IsLeaf() {
			scanLeafKnn(tr, ctx, query, node, it.dist, k, exclude)
			continue
		}

		full = ctx.table.Len() >= k
		ctx.pushChildren(tr, it, node, query, ctx.table.Worst(), full)
	}

	return ctx.table.DrainSorted()
}

// scanLeafKnn applies the triangle-inequality skip of spec 4.7 to every
// point in a leaf's permutation span before falling back to an early
// terminating distance call.
func scanLeafKnn(tr tree, ctx *Context, query []float64, node *cluster.Node, dist float64, k int, exclude ExcludeRange) {
	for i := node.Start; i < node.Start+node.Length; i++ {
		entry := tr.perm[i]
		if exclude.excludes(entry.Index) {
			continue
		}
		full := ctx.table.Len() >= k
		worst := ctx.table.Worst()
		if full && math.Abs(dist-entry.Distance) > worst {
			continue
		}
		ctx.stats.DistanceEvals++
		d := tr.ps.DistanceT(entry.Index, query, worst)
		if d <= worst {
			ctx.table.Offer(neighbor.Neighbor{Index: entry.Index, Distance: d})
		}
	}
}

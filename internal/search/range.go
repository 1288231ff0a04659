package search

import (
	"container/heap"
	"math"
	"sort"

	"github.com/xDarkicex/atria/internal/cluster"
	"github.com/xDarkicex/atria/internal/neighbor"
)

// Range returns every point within radius r of query (spec 4.8), sorted
// ascending by distance with index as the tie-break. Unlike Knn there is
// no bounded table: any cluster whose dMin exceeds r is pruned, and
// everything else is scanned to completion.
func Range(t Tree, ctx *Context, query []float64, r float64, exclude ExcludeRange) []neighbor.Neighbor {
	ctx.stats = Stats{}
	ctx.resetPending()

	tr := t.internal()
	root := ctx.pushRoot(tr, query)
	if root.dMin > r {
		ctx.pending.Pop()
	}

	var out []neighbor.Neighbor
	for ctx.pending.Len() > 0 {
		it := heap.Pop(&ctx.pending).(item)
		if it.dMin > r {
			continue
		}

		node := tr.arena.At(it.node)
		ctx.stats.ClustersVisited++

		if !exclude.excludes(node.Center) && it.dist <= r {
			out = append(out, neighbor.Neighbor{Index: node.Center, Distance: it.dist})
		}

		if node.IsLeaf() {
			scanLeafRange(tr, ctx, query, node, it.dist, r, exclude, &out)
			continue
		}

		pushChildrenRange(tr, ctx, it, node, query, r)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

func scanLeafRange(tr tree, ctx *Context, query []float64, node *cluster.Node, dist, r float64, exclude ExcludeRange, out *[]neighbor.Neighbor) {
	for i := node.Start; i < node.Start+node.Length; i++ {
		entry := tr.perm[i]
		if exclude.excludes(entry.Index) {
			continue
		}
		if math.Abs(dist-entry.Distance) > r {
			continue
		}
		ctx.stats.DistanceEvals++
		d := tr.ps.DistanceT(entry.Index, query, r)
		if d <= r {
			*out = append(*out, neighbor.Neighbor{Index: entry.Index, Distance: d})
		}
	}
}

// pushChildrenRange mirrors Context.pushChildren but prunes against a
// fixed radius instead of the k-NN table's current worst.
func pushChildrenRange(tr tree, ctx *Context, parentIt item, parentNode *cluster.Node, query []float64, r float64) {
	left := tr.arena.At(parentNode.Left)
	right := tr.arena.At(parentNode.Right)

	distL := tr.ps.Distance(left.Center, query)
	ctx.stats.DistanceEvals++
	distR := tr.ps.Distance(right.Center, query)
	ctx.stats.DistanceEvals++

	leftItem := childItem(parentNode.Left, left, distL, distR, parentIt, parentNode.GMin)
	rightItem := childItem(parentNode.Right, right, distR, distL, parentIt, parentNode.GMin)

	if leftItem.dMin <= r {
		heap.Push(&ctx.pending, leftItem)
	}
	if rightItem.dMin <= r {
		heap.Push(&ctx.pending, rightItem)
	}
}

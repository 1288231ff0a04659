package search

import (
	"container/heap"
	"math"

	"github.com/xDarkicex/atria/internal/cluster"
)

// CountRange counts the points within radius r of query without
// materializing them (spec 4.8). In addition to the dMin > r prune shared
// with Range, when exclude has Lo > Hi any cluster whose dMax <= r is known
// to lie entirely within the radius and contributes its full size without
// being descended into or distance-scanned at all. With any other exclude
// (the zero value included) every such cluster is scanned point by point.
func CountRange(t Tree, ctx *Context, query []float64, r float64, exclude ExcludeRange) int64 {
	ctx.stats = Stats{}
	ctx.resetPending()

	tr := t.internal()
	root := ctx.pushRoot(tr, query)
	if root.dMin > r {
		ctx.pending.Pop()
	}

	var count int64
	for ctx.pending.Len() > 0 {
		it := heap.Pop(&ctx.pending).(item)
		if it.dMin > r {
			continue
		}

		node := tr.arena.At(it.node)
		ctx.stats.ClustersVisited++

		if it.dMax <= r && exclude.Lo > exclude.Hi {
			count += int64(clusterSize(tr, node))
			continue
		}

		if !exclude.excludes(node.Center) && it.dist <= r {
			count++
		}

		if node.IsLeaf() {
			count += countLeafRange(tr, ctx, query, node, it.dist, r, exclude)
			continue
		}

		pushChildrenRange(tr, ctx, it, node, query, r)
	}

	return count
}

// clusterSize returns the number of points owned by a subtree rooted at
// node: its leaf span length if a leaf, or the sum of both children's
// spans otherwise. Internal nodes don't store a span directly, so this
// walks down to the leaves; it is only called when a whole subtree is
// accepted wholesale, which is rare relative to the total traversal.
func clusterSize(tr tree, node *cluster.Node) int {
	if node.IsLeaf() {
		return node.Length + 1 // +1 for the cluster's own center, excluded from its span
	}
	left := tr.arena.At(node.Left)
	right := tr.arena.At(node.Right)
	return 1 + clusterSize(tr, left) + clusterSize(tr, right)
}

func countLeafRange(tr tree, ctx *Context, query []float64, node *cluster.Node, dist, r float64, exclude ExcludeRange) int64 {
	var n int64
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
			n++
		}
	}
	return n
}

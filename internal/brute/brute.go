// Package brute implements the exhaustive reference searches of spec 8,
// used to cross-validate the cluster tree's pruning logic: every
// algorithm here visits all N points and never consults a tree.
package brute

import (
	"sort"

	"github.com/xDarkicex/atria/internal/neighbor"
	"github.com/xDarkicex/atria/internal/pointset"
)

// Knn returns the k nearest points to query by brute force, sorted
// ascending by distance with index as the tie-break.
func Knn(ps pointset.PointSet, query []float64, k int, exclude func(int) bool) []neighbor.Neighbor {
	n, _ := ps.Size()
	all := make([]neighbor.Neighbor, 0, n)
	for i := 1; i <= n; i++ {
		if exclude != nil && exclude(i) {
			continue
		}
		all = append(all, neighbor.Neighbor{Index: i, Distance: ps.Distance(i, query)})
	}
	sort.Slice(all, func(a, b int) bool { return all[a].Less(all[b]) })
	if k > len(all) {
		k = len(all)
	}
	return all[:k]
}

// Range returns every point within radius r of query by brute force,
// sorted ascending by distance with index as the tie-break.
func Range(ps pointset.PointSet, query []float64, r float64, exclude func(int) bool) []neighbor.Neighbor {
	n, _ := ps.Size()
	var out []neighbor.Neighbor
	for i := 1; i <= n; i++ {
		if exclude != nil && exclude(i) {
			continue
		}
		d := ps.Distance(i, query)
		if d <= r {
			out = append(out, neighbor.Neighbor{Index: i, Distance: d})
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Less(out[b]) })
	return out
}

// CountRange counts the points within radius r of query by brute force.
func CountRange(ps pointset.PointSet, query []float64, r float64, exclude func(int) bool) int64 {
	n, _ := ps.Size()
	var count int64
	for i := 1; i <= n; i++ {
		if exclude != nil && exclude(i) {
			continue
		}
		if ps.Distance(i, query) <= r {
			count++
		}
	}
	return count
}

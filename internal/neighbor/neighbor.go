// Package neighbor implements the Neighbor value type and the bounded
// NeighborTable priority structure used by k-NN search (spec 3, 4.3).
package neighbor

// Neighbor is a (index, distance) pair with lexicographic ordering on
// distance then index, used both as a search result and as an entry in
// the tree's permutation table.
type Neighbor struct {
	Index    int
	Distance float64
}

// Less reports whether n should sort before other: by distance ascending,
// ties broken by index ascending for deterministic output (spec 4.7).
func (n Neighbor) Less(other Neighbor) bool {
	if n.Distance != other.Distance {
		return n.Distance < other.Distance
	}
	return n.Index < other.Index
}

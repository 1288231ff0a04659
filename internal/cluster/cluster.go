// Package cluster implements the binary tree node of spec 3/4.4: each
// Cluster is either an internal split with two children or a leaf owning a
// contiguous span of the permutation table.
//
// Clusters are stored in a flat, append-only Arena during construction and
// referenced by each other via 32-bit indices rather than pointers, per the
// recursive-cluster-graph design note in spec 9 — this keeps the tree free
// of per-node allocations and improves traversal cache behavior, the same
// tradeoff the teacher makes for its HNSW graph's adjacency storage.
package cluster

// noChild marks an unset child reference in an Arena.
const noChild uint32 = ^uint32(0)

// Node is a single cluster in the tree.
type Node struct {
	Center int     // point-set index of this cluster's representative
	Rmax   float64 // bound on the distance from Center to any owned point (exact max for leaves)

	// Internal node fields. Left/Right are Arena indices, noChild if unset.
	Left, Right uint32
	GMin        float64 // partition gap: min over split points of d(p, other center) - d(p, own center)

	// Leaf fields: contiguous span [Start, Start+Length) in the
	// permutation table.
	Start, Length int
}

// IsLeaf reports whether n is a terminal (leaf) cluster.
func (n *Node) IsLeaf() bool {
	return n.Left == noChild && n.Right == noChild
}

// Arena is a flat, append-only store of Nodes referenced by index. Children
// are appended before their parent, so the root is the last node appended;
// Builder reports its index alongside the arena.
type Arena struct {
	nodes []Node
}

// NewArena creates an empty arena with room for roughly n/minPoints
// internal nodes plus leaves, matching spec 4.5's O(N/min_points) bound.
func NewArena(capacityHint int) *Arena {
	if capacityHint < 1 {
		capacityHint = 1
	}
	return &Arena{nodes: make([]Node, 0, capacityHint)}
}

// NewLeaf appends a leaf node and returns its arena index.
func (a *Arena) NewLeaf(center int, rmax float64, start, length int) uint32 {
	idx := uint32(len(a.nodes))
	a.nodes = append(a.nodes, Node{
		Center: center,
		Rmax:   rmax,
		Left:   noChild,
		Right:  noChild,
		Start:  start,
		Length: length,
	})
	return idx
}

// NewInternal appends an internal node and returns its arena index. left
// and right must already exist in the arena.
func (a *Arena) NewInternal(center int, rmax, gMin float64, left, right uint32) uint32 {
	idx := uint32(len(a.nodes))
	a.nodes = append(a.nodes, Node{
		Center: center,
		Rmax:   rmax,
		Left:   left,
		Right:  right,
		GMin:   gMin,
	})
	return idx
}

// At returns a pointer to the node at idx. The pointer is valid only until
// the next call to NewLeaf/NewInternal, since Arena may reallocate its
// backing slice; callers that must hold a stable reference across
// insertions should re-fetch via At after the arena stops growing (true
// for all of Builder's recursion, which finishes one subtree before
// touching the next).
func (a *Arena) At(idx uint32) *Node {
	return &a.nodes[idx]
}

// Len returns the number of nodes currently stored.
func (a *Arena) Len() int { return len(a.nodes) }

// NoChild exposes the sentinel "unset child" value to other packages
// (search needs it to recognize leaves without importing internals).
func NoChild() uint32 { return noChild }

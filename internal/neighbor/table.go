package neighbor

import (
	"container/heap"
	"math"
	"sort"
)

// smallKThreshold is the capacity below which the flat sorted-array
// strategy is used in place of a heap, per spec 4.3 ("When k is small (say
// <= 32), a flat sorted array with insertion sort is optimal").
const smallKThreshold = 32

// Table is a bounded container of size at most k, offering insert-if-better
// semantics and always able to report the current worst (k-th best)
// distance in O(1). Two interchangeable strategies back it depending on k;
// observable behavior is identical either way.
type Table struct {
	k     int
	small bool

	// small-k strategy: ascending-sorted flat array, insertion sort.
	arr []Neighbor

	// large-k strategy: bounded max-heap keyed on distance, worst on top.
	h maxHeap
}

// NewTable creates a Table with capacity k. k must be >= 1.
func NewTable(k int) *Table {
	t := &Table{}
	t.Reset(k)
	return t
}

// Reset empties the table and sets its capacity to k.
func (t *Table) Reset(k int) {
	t.k = k
	t.small = k <= smallKThreshold
	if t.small {
		if cap(t.arr) < k {
			t.arr = make([]Neighbor, 0, k)
		} else {
			t.arr = t.arr[:0]
		}
	} else {
		if cap(t.h) < k {
			t.h = make(maxHeap, 0, k)
		} else {
			t.h = t.h[:0]
		}
	}
}

// Len returns the number of entries currently held.
func (t *Table) Len() int {
	if t.small {
		return len(t.arr)
	}
	return len(t.h)
}

// Worst returns the largest stored distance, or +Inf if the table is not
// yet full (count < k).
func (t *Table) Worst() float64 {
	if t.Len() < t.k {
		return math.Inf(1)
	}
	if t.small {
		return t.arr[len(t.arr)-1].Distance
	}
	return t.h[0].Distance
}

// Offer inserts n if the table is not full, or if n improves on the
// current worst, dropping the worst on overflow. Returns true if n was
// accepted into the table.
func (t *Table) Offer(n Neighbor) bool {
	if t.k <= 0 {
		return false
	}
	if t.small {
		return t.offerSmall(n)
	}
	return t.offerHeap(n)
}

func (t *Table) offerSmall(n Neighbor) bool {
	if len(t.arr) < t.k {
		pos := sort.Search(len(t.arr), func(i int) bool { return n.Less(t.arr[i]) })
		t.arr = append(t.arr, Neighbor{})
		copy(t.arr[pos+1:], t.arr[pos:len(t.arr)-1])
		t.arr[pos] = n
		return true
	}
	if !n.Less(t.arr[len(t.arr)-1]) {
		return false
	}
	pos := sort.Search(len(t.arr), func(i int) bool { return n.Less(t.arr[i]) })
	copy(t.arr[pos+1:], t.arr[pos:len(t.arr)-1])
	t.arr[pos] = n
	return true
}

func (t *Table) offerHeap(n Neighbor) bool {
	if len(t.h) < t.k {
		heap.Push(&t.h, n)
		return true
	}
	if !n.Less(t.h[0]) {
		return false
	}
	t.h[0] = n
	heap.Fix(&t.h, 0)
	return true
}

// DrainSorted returns the held entries in ascending distance order,
// ties broken by ascending index. The table is left in an unspecified but
// valid, reset-able state; callers that need to reuse it should call Reset.
func (t *Table) DrainSorted() []Neighbor {
	if t.small {
		out := make([]Neighbor, len(t.arr))
		copy(out, t.arr)
		return out
	}
	out := make([]Neighbor, len(t.h))
	copy(out, t.h)
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// maxHeap is a container/heap max-heap of Neighbor keyed by distance
// (worst first), mirroring the teacher's util.MaxHeap candidate pattern.
type maxHeap []Neighbor

func (h maxHeap) Len() int            { return len(h) }
func (h maxHeap) Less(i, j int) bool  { return h[j].Less(h[i]) } // reversed: max at root
func (h maxHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *maxHeap) Push(x interface{}) { *h = append(*h, x.(Neighbor)) }
func (h *maxHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

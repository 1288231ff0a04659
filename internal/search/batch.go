package search

import (
	"runtime"
	"sync"

	"github.com/xDarkicex/atria/internal/neighbor"
)

// Query is one query vector plus its exclusion range for a batch k-NN
// search (spec 4.9).
type Query struct {
	Vector  []float64
	K       int
	Exclude ExcludeRange
}

// BatchKnn runs Knn for every query in qs and returns results in the same
// order as qs, regardless of how work is scheduled across workers.
//
// When workers <= 1 the batch runs serially on a single Context, reusing
// scratch across queries exactly as a caller doing its own loop would.
// When workers > 1 the batch is split across up to that many goroutines
// (capped at len(qs) and at runtime.NumCPU()), each
// with its own Context (spec 5: a Context is not safe for concurrent
// queries, so parallelism is achieved by giving each worker its own,
// never by sharing one across goroutines).
func BatchKnn(t Tree, qs []Query, workers int) [][]neighbor.Neighbor {
	out := make([][]neighbor.Neighbor, len(qs))
	if len(qs) == 0 {
		return out
	}

	if workers <= 1 {
		ctx := NewContext(maxK(qs))
		for i, q := range qs {
			out[i] = cloneNeighbors(Knn(t, ctx, q.Vector, q.K, q.Exclude))
		}
		return out
	}

	if workers > len(qs) {
		workers = len(qs)
	}
	if workers > runtime.NumCPU() {
		workers = runtime.NumCPU()
	}

	jobs := make(chan int, len(qs))
	for i := range qs {
		jobs <- i
	}
	close(jobs)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			ctx := NewContext(maxK(qs))
			for i := range jobs {
				q := qs[i]
				out[i] = cloneNeighbors(Knn(t, ctx, q.Vector, q.K, q.Exclude))
			}
		}()
	}
	wg.Wait()

	return out
}

func maxK(qs []Query) int {
	m := 1
	for _, q := range qs {
		if q.K > m {
			m = q.K
		}
	}
	return m
}

// cloneNeighbors defends against a future Table.DrainSorted implementation
// that returns a slice backed by reusable storage; today it already
// allocates fresh, but batch correctness must not depend on that detail
// surviving unnoticed across the table package.
func cloneNeighbors(ns []neighbor.Neighbor) []neighbor.Neighbor {
	out := make([]neighbor.Neighbor, len(ns))
	copy(out, ns)
	return out
}

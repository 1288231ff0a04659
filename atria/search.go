package atria

import (
	"time"

	"github.com/xDarkicex/atria/internal/neighbor"
	"github.com/xDarkicex/atria/internal/search"
)

// Neighbor is a (index, distance) query result pair.
type Neighbor = neighbor.Neighbor

// ExcludeRange excludes point indices in the closed interval [Lo, Hi]
// from a query (spec 9); the zero value excludes nothing.
type ExcludeRange = search.ExcludeRange

// SearchContext is reusable per-query scratch whose queue and table
// storage repeated queries against the same Index reuse. Queries through
// it still allocate (each returns a freshly allocated result slice). It
// is not safe for concurrent use; give each goroutine its own.
type SearchContext struct {
	inner *search.Context
}

// NewSearchContext creates a SearchContext sized for queries around k.
func (idx *Index) NewSearchContext(k int) *SearchContext {
	return &SearchContext{inner: search.NewContext(k)}
}

// Stats reports the distance-evaluation counters from the most recent
// query run through this context (spec 4.7's FK pruning-effectiveness
// metric).
func (sc *SearchContext) Stats() search.Stats { return sc.inner.Stats() }

// Knn returns the k nearest points to query, sorted ascending by
// distance with index as the tie-break.
func (idx *Index) Knn(sc *SearchContext, query []float64, k int, exclude ExcludeRange) ([]Neighbor, error) {
	if !idx.Ready() {
		return nil, newError(ErrCodeNotBuilt, "Knn", "index has not been built").WithCause(ErrNotBuilt)
	}
	if err := idx.validateQuery(query); err != nil {
		return nil, err
	}
	if k < 1 {
		return nil, newError(ErrCodeInvalidParameter, "Knn", "k must be >= 1")
	}

	start := time.Now()
	out := search.Knn(idx.tree, sc.inner, query, k, exclude)
	idx.observeQuery("knn", start, sc.inner.Stats())
	return out, nil
}

// Range returns every point within radius r of query, sorted ascending
// by distance with index as the tie-break.
func (idx *Index) Range(sc *SearchContext, query []float64, r float64, exclude ExcludeRange) ([]Neighbor, error) {
	if !idx.Ready() {
		return nil, newError(ErrCodeNotBuilt, "Range", "index has not been built").WithCause(ErrNotBuilt)
	}
	if err := idx.validateQuery(query); err != nil {
		return nil, err
	}
	if r < 0 {
		return nil, newError(ErrCodeInvalidParameter, "Range", "radius must be >= 0")
	}

	start := time.Now()
	out := search.Range(idx.tree, sc.inner, query, r, exclude)
	idx.observeQuery("range", start, sc.inner.Stats())
	return out, nil
}

// CountRange counts the points within radius r of query without
// materializing them.
func (idx *Index) CountRange(sc *SearchContext, query []float64, r float64, exclude ExcludeRange) (int64, error) {
	if !idx.Ready() {
		return 0, newError(ErrCodeNotBuilt, "CountRange", "index has not been built").WithCause(ErrNotBuilt)
	}
	if err := idx.validateQuery(query); err != nil {
		return 0, err
	}
	if r < 0 {
		return 0, newError(ErrCodeInvalidParameter, "CountRange", "radius must be >= 0")
	}

	start := time.Now()
	count := search.CountRange(idx.tree, sc.inner, query, r, exclude)
	idx.observeQuery("count_range", start, sc.inner.Stats())
	return count, nil
}

// Query is one query vector plus its k and exclusion range for a batch
// k-NN search.
type Query = search.Query

// BatchKnn runs Knn for every query in qs, returning results in the same
// order as qs. workers <= 1 runs serially on a single internal context;
// workers > 1 spreads the batch across up to that many goroutines
// (capped at len(qs) and runtime.NumCPU()), each with its own context
// (spec 4.9, spec 5).
func (idx *Index) BatchKnn(qs []Query, workers int) ([][]Neighbor, error) {
	if !idx.Ready() {
		return nil, newError(ErrCodeNotBuilt, "BatchKnn", "index has not been built").WithCause(ErrNotBuilt)
	}
	for _, q := range qs {
		if err := idx.validateQuery(q.Vector); err != nil {
			return nil, err
		}
		if q.K < 1 {
			return nil, newError(ErrCodeInvalidParameter, "BatchKnn", "k must be >= 1")
		}
	}
	return search.BatchKnn(idx.tree, qs, workers), nil
}

func (idx *Index) observeQuery(kind string, start time.Time, stats search.Stats) {
	if idx.metrics == nil {
		return
	}
	idx.metrics.ObserveQuery(kind, time.Since(start).Seconds(), stats.FK(idx.n))
}

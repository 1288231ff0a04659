package search_test

import (
	"math"
	"testing"

	"github.com/xDarkicex/atria/internal/brute"
	"github.com/xDarkicex/atria/internal/builder"
	"github.com/xDarkicex/atria/internal/metric"
	"github.com/xDarkicex/atria/internal/neighbor"
	"github.com/xDarkicex/atria/internal/pointset"
	"github.com/xDarkicex/atria/internal/search"
)

// gridPoints lays out a simple 2-D grid so distances and neighbors are
// easy to reason about independent of any randomness.
func gridPoints(side int) ([]float64, int, int) {
	n := side * side
	data := make([]float64, 0, n*2)
	for x := 0; x < side; x++ {
		for y := 0; y < side; y++ {
			data = append(data, float64(x), float64(y))
		}
	}
	return data, n, 2
}

func mustEuclidean(t *testing.T) metric.Metric {
	t.Helper()
	m, err := metric.New(metric.Config{Kind: metric.Euclidean})
	if err != nil {
		t.Fatalf("metric.New: %v", err)
	}
	return m
}

func buildTestTree(t *testing.T, data []float64, n, d, minPoints int) search.Tree {
	t.Helper()
	met := mustEuclidean(t)
	ps, err := pointset.NewDense(data, n, d, met)
	if err != nil {
		t.Fatalf("pointset.NewDense: %v", err)
	}
	res, err := builder.Build(ps, met, builder.Options{MinPoints: minPoints, Seed: 1})
	if err != nil {
		t.Fatalf("builder.Build: %v", err)
	}
	return search.Tree{Arena: res.Arena, Root: res.Root, Perm: res.Perm, PS: ps, Met: met}
}

func neighborsEqual(t *testing.T, got, want []neighbor.Neighbor) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d want %d (got=%v want=%v)", len(got), len(want), got, want)
	}
	for i := range got {
		if got[i].Index != want[i].Index {
			t.Fatalf("index mismatch at %d: got %+v want %+v", i, got[i], want[i])
		}
		if math.Abs(got[i].Distance-want[i].Distance) > 1e-9 {
			t.Fatalf("distance mismatch at %d: got %+v want %+v", i, got[i], want[i])
		}
	}
}

var noExclude = search.ExcludeRange{Lo: 1, Hi: 0}

func TestKnnMatchesBruteForce(t *testing.T) {
	data, n, d := gridPoints(6)
	tree := buildTestTree(t, data, n, d, 4)
	ps, err := pointset.NewDense(data, n, d, mustEuclidean(t))
	if err != nil {
		t.Fatalf("pointset.NewDense: %v", err)
	}

	ctx := search.NewContext(8)
	queries := [][]float64{{0, 0}, {2.5, 2.5}, {5, 5}, {-1, -1}, {3, 0}}
	for _, q := range queries {
		for _, k := range []int{1, 5, 10, n, n + 5} {
			got := search.Knn(tree, ctx, q, k, noExclude)
			want := brute.Knn(ps, q, k, nil)
			neighborsEqual(t, got, want)
		}
	}
}

func TestKnnRespectsExcludeRange(t *testing.T) {
	data, n, d := gridPoints(5)
	tree := buildTestTree(t, data, n, d, 3)
	ps, err := pointset.NewDense(data, n, d, mustEuclidean(t))
	if err != nil {
		t.Fatalf("pointset.NewDense: %v", err)
	}

	ctx := search.NewContext(5)
	excl := search.ExcludeRange{Lo: 1, Hi: 3}
	got := search.Knn(tree, ctx, []float64{0, 0}, 5, excl)
	want := brute.Knn(ps, []float64{0, 0}, 5, func(i int) bool { return i >= 1 && i <= 3 })
	neighborsEqual(t, got, want)
}

func TestKnnSortedAndNoDuplicates(t *testing.T) {
	data, n, d := gridPoints(7)
	tree := buildTestTree(t, data, n, d, 5)
	ctx := search.NewContext(12)
	got := search.Knn(tree, ctx, []float64{3, 4}, 12, noExclude)
	seen := make(map[int]bool)
	for i, nb := range got {
		if seen[nb.Index] {
			t.Fatalf("duplicate index %d in result %v", nb.Index, got)
		}
		seen[nb.Index] = true
		if i > 0 && got[i-1].Distance > nb.Distance {
			t.Fatalf("result not sorted ascending: %v", got)
		}
	}
	if len(got) != 12 {
		t.Fatalf("expected 12 results, got %d", len(got))
	}
}

func TestSelfQueryReturnsZeroDistance(t *testing.T) {
	data, n, d := gridPoints(4)
	tree := buildTestTree(t, data, n, d, 2)
	ctx := search.NewContext(1)
	q := tree.PS.Point(5)
	got := search.Knn(tree, ctx, q, 1, noExclude)
	if len(got) != 1 || got[0].Index != 5 || got[0].Distance != 0 {
		t.Fatalf("expected self-match at index 5 with distance 0, got %v", got)
	}
}

func TestRangeMatchesBruteForce(t *testing.T) {
	data, n, d := gridPoints(6)
	tree := buildTestTree(t, data, n, d, 4)
	ps, err := pointset.NewDense(data, n, d, mustEuclidean(t))
	if err != nil {
		t.Fatalf("pointset.NewDense: %v", err)
	}
	ctx := search.NewContext(8)

	for _, q := range [][]float64{{0, 0}, {2.5, 2.5}, {5, 5}} {
		for _, r := range []float64{0.5, 1.0, 2.5, 7.5, 100} {
			got := search.Range(tree, ctx, q, r, noExclude)
			want := brute.Range(ps, q, r, nil)
			neighborsEqual(t, got, want)
		}
	}
}

func TestCountRangeAgreesWithRange(t *testing.T) {
	data, n, d := gridPoints(6)
	tree := buildTestTree(t, data, n, d, 4)
	ctx := search.NewContext(8)

	for _, q := range [][]float64{{0, 0}, {3, 3}, {5, 0}} {
		for _, r := range []float64{0.5, 2.0, 4.0, 10.0} {
			rangeResult := search.Range(tree, ctx, q, r, noExclude)
			count := search.CountRange(tree, ctx, q, r, noExclude)
			if int64(len(rangeResult)) != count {
				t.Fatalf("q=%v r=%v: range returned %d but count returned %d", q, r, len(rangeResult), count)
			}
		}
	}
}

func TestCountRangeMatchesBruteForce(t *testing.T) {
	data, n, d := gridPoints(5)
	tree := buildTestTree(t, data, n, d, 3)
	ps, err := pointset.NewDense(data, n, d, mustEuclidean(t))
	if err != nil {
		t.Fatalf("pointset.NewDense: %v", err)
	}
	ctx := search.NewContext(5)

	for _, q := range [][]float64{{0, 0}, {2, 2}, {4, 4}} {
		for _, r := range []float64{0.5, 1.5, 3.0, 50.0} {
			got := search.CountRange(tree, ctx, q, r, noExclude)
			want := brute.CountRange(ps, q, r, nil)
			if got != want {
				t.Fatalf("q=%v r=%v: got %d want %d", q, r, got, want)
			}
		}
	}
}

func TestBatchKnnMatchesSerialAndPreservesOrder(t *testing.T) {
	data, n, d := gridPoints(6)
	tree := buildTestTree(t, data, n, d, 4)

	qs := make([]search.Query, 0, n)
	for i := 1; i <= n; i++ {
		qs = append(qs, search.Query{Vector: tree.PS.Point(i), K: 3})
	}

	serial := search.BatchKnn(tree, qs, 1)
	parallel := search.BatchKnn(tree, qs, 4)

	if len(serial) != len(parallel) {
		t.Fatalf("length mismatch: serial=%d parallel=%d", len(serial), len(parallel))
	}
	for i := range serial {
		neighborsEqual(t, parallel[i], serial[i])
	}
}

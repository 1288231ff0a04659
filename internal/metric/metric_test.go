package metric

import (
	"math"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		cfg         Config
		expectError bool
	}{
		{name: "euclidean", cfg: Config{Kind: Euclidean}},
		{name: "maximum", cfg: Config{Kind: Maximum}},
		{name: "squared euclidean", cfg: Config{Kind: SquaredEuclidean}},
		{name: "weighted valid", cfg: Config{Kind: ExponentiallyWeightedEuclidean, Lambda: 0.5, Dimension: 4}},
		{name: "weighted lambda zero", cfg: Config{Kind: ExponentiallyWeightedEuclidean, Lambda: 0, Dimension: 4}, expectError: true},
		{name: "weighted lambda too big", cfg: Config{Kind: ExponentiallyWeightedEuclidean, Lambda: 1.5, Dimension: 4}, expectError: true},
		{name: "weighted missing dimension", cfg: Config{Kind: ExponentiallyWeightedEuclidean, Lambda: 0.5}, expectError: true},
		{name: "unknown kind", cfg: Config{Kind: Kind(99)}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := New(tt.cfg)
			if tt.expectError {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if m.Kind() != tt.cfg.Kind {
				t.Fatalf("kind mismatch: got %v want %v", m.Kind(), tt.cfg.Kind)
			}
		})
	}
}

func TestEuclideanDistance(t *testing.T) {
	m, _ := New(Config{Kind: Euclidean})
	a := []float64{0, 0}
	b := []float64{3, 4}
	if got := m.Distance(a, b); math.Abs(got-5.0) > 1e-9 {
		t.Fatalf("got %v want 5.0", got)
	}
	if got := m.Distance(a, a); got != 0 {
		t.Fatalf("identical points should have distance 0, got %v", got)
	}
	if got := m.Distance(a, b); got != m.Distance(b, a) {
		t.Fatalf("distance is not symmetric")
	}
}

func TestEuclideanDistanceTEarlyTermination(t *testing.T) {
	m, _ := New(Config{Kind: Euclidean})
	a := make([]float64, 32)
	b := make([]float64, 32)
	for i := range b {
		b[i] = 10
	}
	exact := m.Distance(a, b)

	if got := m.DistanceT(a, b, exact+1); math.Abs(got-exact) > 1e-9 {
		t.Fatalf("threshold above exact distance should return exact value, got %v want %v", got, exact)
	}
	if got := m.DistanceT(a, b, exact-1); got <= exact-1 {
		t.Fatalf("threshold below exact distance must return a value strictly greater than threshold, got %v", got)
	}
}

func TestMaximumDistance(t *testing.T) {
	m, _ := New(Config{Kind: Maximum})
	a := []float64{0, 0, 0}
	b := []float64{1, 5, 2}
	if got := m.Distance(a, b); got != 5 {
		t.Fatalf("got %v want 5", got)
	}
}

func TestOnlySquaredEuclideanIsNotAdmissible(t *testing.T) {
	euclid, _ := New(Config{Kind: Euclidean})
	maximum, _ := New(Config{Kind: Maximum})
	squared, _ := New(Config{Kind: SquaredEuclidean})
	weighted, _ := New(Config{Kind: ExponentiallyWeightedEuclidean, Lambda: 0.5, Dimension: 2})

	if !euclid.Admissible() || !maximum.Admissible() || !weighted.Admissible() {
		t.Fatal("euclidean, maximum, and weighted-euclidean must be admissible")
	}
	if squared.Admissible() {
		t.Fatal("squared euclidean must not be admissible")
	}
}

func TestExpWeightedLaterCoordinatesWeighLess(t *testing.T) {
	m, _ := New(Config{Kind: ExponentiallyWeightedEuclidean, Lambda: 0.1, Dimension: 2})
	// A difference in the first coordinate must count for more than the
	// same-sized difference in the second.
	front := m.Distance([]float64{0, 0}, []float64{1, 0})
	back := m.Distance([]float64{0, 0}, []float64{0, 1})
	if front <= back {
		t.Fatalf("expected front-weighted distance %v > back-weighted distance %v", front, back)
	}
}

func TestSquaredEuclideanIsSquareOfEuclidean(t *testing.T) {
	sq, _ := New(Config{Kind: SquaredEuclidean})
	eu, _ := New(Config{Kind: Euclidean})
	a := []float64{1, 2, 3}
	b := []float64{4, 5, 6}
	got := sq.Distance(a, b)
	want := eu.Distance(a, b) * eu.Distance(a, b)
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("got %v want %v", got, want)
	}
}

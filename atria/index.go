// Package atria builds and queries a metric-space nearest-neighbor index
// over a fixed point set, using a recursively partitioned binary cluster
// tree to prune candidates via the triangle inequality (spec 3).
//
// An Index is built once from a complete point set and is immutable and
// safe for concurrent queries thereafter; there is no insert or delete
// after Build (spec 5, Non-goals).
package atria

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/xDarkicex/atria/internal/builder"
	"github.com/xDarkicex/atria/internal/metric"
	"github.com/xDarkicex/atria/internal/obs"
	"github.com/xDarkicex/atria/internal/pointset"
	"github.com/xDarkicex/atria/internal/search"
)

// guards holds one construction guard per GuardName, so that repeated
// Build calls sharing a name accumulate failures against the same
// *obs.CircuitBreaker instead of each call getting a fresh, single-use
// one (spec 6: the guard must open after MaxFailures *consecutive*
// Build failures, which requires it to outlive a single Build call).
var guards sync.Map // map[string]*obs.CircuitBreaker

// guardFor returns the construction guard named cfg.GuardName,
// registering it on first use. Returns nil if the guard is disabled.
func guardFor(cfg *Config) *obs.CircuitBreaker {
	if cfg.GuardMaxFailures <= 0 {
		return nil
	}
	if g, ok := guards.Load(cfg.GuardName); ok {
		return g.(*obs.CircuitBreaker)
	}
	guardCfg := obs.DefaultCircuitBreakerConfig(cfg.GuardName)
	guardCfg.MaxFailures = cfg.GuardMaxFailures
	g, _ := guards.LoadOrStore(cfg.GuardName, obs.NewCircuitBreaker(guardCfg))
	return g.(*obs.CircuitBreaker)
}

// Index is a built, queryable cluster tree over a point set.
type Index struct {
	ps   pointset.PointSet
	met  metric.Metric
	tree search.Tree

	n, d int

	cfg     *Config
	metrics *obs.Metrics
	guard   *obs.CircuitBreaker
	health  *obs.HealthChecker

	buildStats builder.Stats
}

// Build constructs an Index over a dense D-major point set: data must have
// length n*d, with point i (1-based) occupying data[(i-1)*d : i*d].
func Build(data []float64, n, d int, opts ...Option) (*Index, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("atria: applying option: %w", err)
		}
	}

	if n <= 0 {
		return nil, newError(ErrCodeInvalidParameter, "Build", "point set is empty").WithCause(ErrEmptyPointSet)
	}

	met, err := metric.New(metric.Config{Kind: cfg.MetricKind, Lambda: cfg.Lambda, Dimension: d})
	if err != nil {
		return nil, newError(ErrCodeInvalidParameter, "Build", "invalid metric configuration").WithCause(err)
	}

	ps, err := pointset.NewDense(data, n, d, met)
	if err != nil {
		return nil, newError(ErrCodeInvalidParameter, "Build", "invalid point set").WithCause(err)
	}

	return build(ps, met, n, d, cfg)
}

// BuildFromSeries constructs an Index over a lazily delay-embedded 1-D
// time series (spec 3: the Delay PointSet variant), exposing
// N = len(series) - (m-1)*tau points of dimension m without ever
// materializing the full embedded matrix.
func BuildFromSeries(series []float64, m, tau int, opts ...Option) (*Index, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("atria: applying option: %w", err)
		}
	}

	met, err := metric.New(metric.Config{Kind: cfg.MetricKind, Lambda: cfg.Lambda, Dimension: m})
	if err != nil {
		return nil, newError(ErrCodeInvalidParameter, "BuildFromSeries", "invalid metric configuration").WithCause(err)
	}

	ps, err := pointset.NewDelay(series, m, tau, met)
	if err != nil {
		return nil, newError(ErrCodeInvalidParameter, "BuildFromSeries", "invalid delay embedding parameters").WithCause(err)
	}

	n, _ := ps.Size()
	return build(ps, met, n, m, cfg)
}

func build(ps pointset.PointSet, met metric.Metric, n, d int, cfg *Config) (*Index, error) {
	var metrics *obs.Metrics
	if cfg.MetricsEnabled {
		metrics = obs.NewMetrics()
	}

	guard := guardFor(cfg)
	if guard != nil && guard.State() == obs.CircuitOpen {
		return nil, newError(ErrCodeGuardOpen, "Build", "construction guard is open").WithCause(ErrGuardOpen)
	}

	idx := &Index{ps: ps, met: met, n: n, d: d, cfg: cfg, metrics: metrics, guard: guard}
	idx.health = obs.NewHealthChecker(idx, guard)

	start := time.Now()
	var res *builder.Result
	buildErr := idx.runGuarded(func() error {
		var err error
		res, err = builder.Build(ps, met, builder.Options{MinPoints: cfg.MinPoints, Seed: cfg.Seed})
		return err
	})
	elapsed := time.Since(start)

	if buildErr != nil {
		metrics.ObserveBuild(elapsed.Seconds(), 0)
		return nil, newError(ErrCodeDegenerate, "Build", "tree construction failed").WithCause(buildErr)
	}

	idx.buildStats = res.Stats
	idx.tree = search.Tree{Arena: res.Arena, Root: res.Root, Perm: res.Perm, PS: ps, Met: met}
	metrics.ObserveBuild(elapsed.Seconds(), res.Stats.DegenerateLeaves)

	if cfg.Logger != nil && res.Stats.DegenerateLeaves > 0 {
		cfg.Logger.Printf("atria: build completed with %d degenerate leaf split(s) out of %d leaves (N=%d); "+
			"this is expected for heavily duplicated or collinear data", res.Stats.DegenerateLeaves, res.Stats.LeafCount, n)
	}

	return idx, nil
}

// runGuarded executes fn through the construction guard when one is
// configured. A rejection by the guard is returned as the guard's own
// error; build reports an already-open guard as ErrGuardOpen before
// calling this.
func (idx *Index) runGuarded(fn func() error) error {
	if idx.guard == nil {
		return fn()
	}
	return idx.guard.Execute(context.Background(), fn)
}

// Ready implements obs.Checkable.
func (idx *Index) Ready() bool { return idx.tree.Arena != nil }

// Size implements obs.Checkable, returning the point count backing the
// built tree.
func (idx *Index) Size() int { return idx.n }

// Dimension returns the point dimension.
func (idx *Index) Dimension() int { return idx.d }

// Metric returns the metric kind this index was built with.
func (idx *Index) Metric() metric.Kind { return idx.met.Kind() }

// BuildStats reports construction-time diagnostics.
func (idx *Index) BuildStats() builder.Stats { return idx.buildStats }

// Point returns the D-length vector for 1-based point index i. Callers
// must not mutate the returned slice.
func (idx *Index) Point(i int) []float64 { return idx.ps.Point(i) }

func (idx *Index) validateQuery(query []float64) error {
	if len(query) != idx.d {
		return newError(ErrCodeDimensionMismatch, "query", fmt.Sprintf("query has dimension %d, index has dimension %d", len(query), idx.d)).WithCause(ErrDimensionMismatch)
	}
	return nil
}

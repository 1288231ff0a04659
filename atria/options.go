package atria

import (
	"fmt"
	"log"

	"github.com/xDarkicex/atria/internal/metric"
)

// Config holds the fully-resolved configuration for a Build call.
type Config struct {
	MetricKind metric.Kind
	Lambda     float64 // ExponentiallyWeightedEuclidean only
	MinPoints  int
	Seed       int64

	MetricsEnabled bool
	Logger         *log.Logger

	// GuardMaxFailures is the number of consecutive Build failures the
	// construction guard tolerates before opening (spec 6). 0 disables
	// the guard entirely.
	GuardMaxFailures int

	// GuardName identifies which construction guard this Build call
	// shares. Guards are held in a package-level registry keyed by this
	// name, so repeated Build calls using the same GuardName accumulate
	// failures against the same guard instead of each getting a fresh
	// one (a long-running host re-indexing a sliding window should pass
	// a stable name so a run of failed tree constructions trips the
	// guard). Degenerate data does not count as a failure: it builds a
	// shallow tree. Input errors such as an empty point set are returned
	// before the guard runs and are not counted either.
	GuardName string
}

func defaultConfig() *Config {
	return &Config{
		MetricKind:       metric.Euclidean,
		MinPoints:        64,
		Seed:             1,
		MetricsEnabled:   false,
		GuardMaxFailures: 5,
		GuardName:        "default",
	}
}

// Option configures a Build call, following the same functional-options
// idiom used throughout this package's public surface.
type Option func(*Config) error

// WithMetric selects the distance metric. lambda is only consulted for
// ExponentiallyWeightedEuclidean.
func WithMetric(kind metric.Kind, lambda float64) Option {
	return func(c *Config) error {
		c.MetricKind = kind
		c.Lambda = lambda
		return nil
	}
}

// WithMinPoints sets the leaf-size threshold for tree construction.
func WithMinPoints(n int) Option {
	return func(c *Config) error {
		if n < 1 {
			return fmt.Errorf("%w: got %d", ErrInvalidMinPoints, n)
		}
		c.MinPoints = n
		return nil
	}
}

// WithSeed sets the deterministic RNG seed used to pick split seeds
// during construction, so building twice with identical inputs and seed
// produces an identical tree (spec 8).
func WithSeed(seed int64) Option {
	return func(c *Config) error {
		c.Seed = seed
		return nil
	}
}

// WithMetrics enables Prometheus instrumentation for this index.
func WithMetrics(enabled bool) Option {
	return func(c *Config) error {
		c.MetricsEnabled = enabled
		return nil
	}
}

// WithLogger sets the logger used for construction diagnostics (spec 6:
// degenerate-data warnings). A nil logger (the default) disables logging.
func WithLogger(l *log.Logger) Option {
	return func(c *Config) error {
		c.Logger = l
		return nil
	}
}

// WithGuardMaxFailures configures the construction guard's failure
// threshold. 0 disables the guard.
func WithGuardMaxFailures(n int) Option {
	return func(c *Config) error {
		if n < 0 {
			return fmt.Errorf("atria: guard max failures cannot be negative, got %d", n)
		}
		c.GuardMaxFailures = n
		return nil
	}
}

// WithGuardName sets the name of the construction guard this Build call
// shares with other Build calls using the same name. Callers that
// rebuild the same logical index repeatedly (e.g. re-indexing a sliding
// window on a timer) should pass a stable name so failures accumulate
// against one guard; callers building unrelated one-off indexes should
// give each a distinct name so they don't share failure counts.
func WithGuardName(name string) Option {
	return func(c *Config) error {
		if name == "" {
			return fmt.Errorf("atria: guard name cannot be empty")
		}
		c.GuardName = name
		return nil
	}
}

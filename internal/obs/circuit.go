// Circuit breaking here guards repeated Build() failures (spec 6's
// "construction guard"): a point set that keeps failing to build (for
// instance, one that is degenerate in a way Build can't recover from)
// trips the guard so a long-running host re-indexing a sliding window
// stops retrying a doomed construction on every attempt, rather than
// guarding a remote dependency as a breaker usually does. The states and
// generation bookkeeping below are the teacher's breaker state machine
// unchanged; only the surface actually exercised by the construction
// guard is kept.
package obs

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// CircuitState is the state of a construction guard.
type CircuitState int

const (
	// CircuitClosed - Build attempts are allowed through.
	CircuitClosed CircuitState = iota
	// CircuitOpen - Build attempts are rejected without running.
	CircuitOpen
	// CircuitHalfOpen - testing whether Build has started succeeding again.
	CircuitHalfOpen
)

// String returns the string representation of the guard's state.
func (cs CircuitState) String() string {
	switch cs {
	case CircuitClosed:
		return "CLOSED"
	case CircuitOpen:
		return "OPEN"
	case CircuitHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// CircuitBreakerConfig configures a construction guard.
type CircuitBreakerConfig struct {
	// Name identifies the guard, used in its rejection error message.
	Name string

	// MaxFailures is the number of consecutive Build failures before the
	// guard opens.
	MaxFailures int

	// Timeout is how long the guard stays open before allowing a
	// half-open probe Build.
	Timeout time.Duration

	// MaxRequests is the number of probe Build calls allowed through
	// while half-open before the guard closes again.
	MaxRequests int

	// FailureThreshold is the failure rate (0.0-1.0) that opens the
	// guard once MinRequests Build attempts have been observed, even
	// below MaxFailures consecutive failures.
	FailureThreshold float64

	// MinRequests is the minimum number of Build attempts observed
	// before FailureThreshold is evaluated.
	MinRequests int

	// ResetTimeout is the length of a closed guard's counting window:
	// its failure/success counters reset once this much time has passed
	// since the window began, whatever the Build activity in between.
	ResetTimeout time.Duration
}

// DefaultCircuitBreakerConfig returns sensible defaults for a
// construction guard named name.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		MaxFailures:      5,
		Timeout:          30 * time.Second,
		MaxRequests:      3,
		FailureThreshold: 0.6, // 60% of Build attempts failing
		MinRequests:      10,
		ResetTimeout:     60 * time.Second,
	}
}

// CircuitBreaker guards repeated Build failures behind the classic
// closed/open/half-open breaker state machine (spec 6).
type CircuitBreaker struct {
	mu     sync.RWMutex
	config CircuitBreakerConfig
	state  CircuitState

	// Counters, over the current generation (since the last state
	// transition or ResetTimeout expiry).
	failures   int
	successes  int
	requests   int
	generation int64

	// Timing
	lastFailureTime time.Time
	lastSuccessTime time.Time
	expiry          time.Time
}

// NewCircuitBreaker creates a construction guard, closed by default.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{
		config:     config,
		state:      CircuitClosed,
		expiry:     time.Now().Add(config.ResetTimeout),
		generation: 0,
	}
}

// Execute runs fn (a Build attempt) through the guard, rejecting it
// outright if the guard is open.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func() error) error {
	generation, err := cb.beforeRequest()
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			cb.afterRequest(generation, fmt.Errorf("panic: %v", r))
			panic(r)
		}
	}()

	err = fn()
	cb.afterRequest(generation, err)
	return err
}

// beforeRequest checks whether a Build attempt should be allowed.
func (cb *CircuitBreaker) beforeRequest() (int64, error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := time.Now()
	state, generation := cb.currentState(now)

	if state == CircuitOpen {
		return generation, fmt.Errorf("construction guard '%s' is open: too many recent Build failures", cb.config.Name)
	}

	if state == CircuitHalfOpen && cb.requests >= cb.config.MaxRequests {
		return generation, fmt.Errorf("construction guard '%s' is half-open and probe limit exceeded", cb.config.Name)
	}

	cb.requests++
	return generation, nil
}

// afterRequest records the outcome of a Build attempt.
func (cb *CircuitBreaker) afterRequest(generation int64, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := time.Now()
	state, currentGeneration := cb.currentState(now)

	if generation != currentGeneration {
		return // attempt belonged to a previous generation, ignore
	}

	if err != nil {
		cb.onFailure(state, now)
	} else {
		cb.onSuccess(state, now)
	}
}

// onFailure handles a failed Build attempt.
func (cb *CircuitBreaker) onFailure(state CircuitState, now time.Time) {
	cb.failures++
	cb.lastFailureTime = now

	switch state {
	case CircuitClosed:
		if cb.shouldOpen(now) {
			cb.setState(CircuitOpen, now)
		}
	case CircuitHalfOpen:
		cb.setState(CircuitOpen, now)
	}
}

// onSuccess handles a successful Build attempt.
func (cb *CircuitBreaker) onSuccess(state CircuitState, now time.Time) {
	cb.successes++
	cb.lastSuccessTime = now

	switch state {
	case CircuitHalfOpen:
		if cb.successes >= cb.config.MaxRequests {
			cb.setState(CircuitClosed, now)
		}
	}
}

// shouldOpen determines whether the guard should open.
func (cb *CircuitBreaker) shouldOpen(now time.Time) bool {
	if cb.failures >= cb.config.MaxFailures {
		return true
	}

	if cb.requests >= cb.config.MinRequests {
		failureRate := float64(cb.failures) / float64(cb.requests)
		return failureRate >= cb.config.FailureThreshold
	}

	return false
}

// currentState returns the current state and generation, advancing the
// state machine past any expired timeout first.
func (cb *CircuitBreaker) currentState(now time.Time) (CircuitState, int64) {
	switch cb.state {
	case CircuitClosed:
		if cb.expiry.Before(now) {
			cb.toNewGeneration(now)
		}
	case CircuitOpen:
		if cb.expiry.Before(now) {
			cb.setState(CircuitHalfOpen, now)
		}
	}
	return cb.state, cb.generation
}

// setState transitions the guard to state.
func (cb *CircuitBreaker) setState(state CircuitState, now time.Time) {
	if cb.state == state {
		return
	}

	cb.state = state
	cb.toNewGeneration(now)
}

// toNewGeneration resets counters and starts a new generation.
func (cb *CircuitBreaker) toNewGeneration(now time.Time) {
	cb.generation++
	cb.requests = 0
	cb.failures = 0
	cb.successes = 0

	var timeout time.Duration
	switch cb.state {
	case CircuitClosed:
		timeout = cb.config.ResetTimeout
	case CircuitOpen:
		timeout = cb.config.Timeout
	case CircuitHalfOpen:
		timeout = cb.config.Timeout
	}

	cb.expiry = now.Add(timeout)
}

// State returns the guard's current state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	state, _ := cb.currentState(time.Now())
	return state
}

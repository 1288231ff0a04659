package obs

import (
	"context"
	"time"
)

// CheckResult is the outcome of a single named health check.
type CheckResult struct {
	Healthy bool
	Message string
	Latency time.Duration
}

// HealthStatus aggregates every check run against an index.
type HealthStatus struct {
	Status string // "healthy" or "unhealthy"
	Checks map[string]*CheckResult
}

// Checkable is the capability an index exposes to the health checker,
// kept minimal so obs never imports the top-level package (that package
// imports obs for Metrics and the construction guard, so the reverse
// import would cycle).
type Checkable interface {
	// Ready reports whether a tree has been built and is queryable.
	Ready() bool
	// Size returns the point count backing the built tree, or 0 if none.
	Size() int
}

// HealthChecker runs a fixed battery of structural checks against an
// index (spec 6).
type HealthChecker struct {
	target Checkable
	guard  *CircuitBreaker
}

// NewHealthChecker creates a health checker against target. guard may be
// nil; when set, its current state is folded into the "guard" check.
func NewHealthChecker(target Checkable, guard *CircuitBreaker) *HealthChecker {
	return &HealthChecker{target: target, guard: guard}
}

// Check runs every registered check and aggregates the result.
func (hc *HealthChecker) Check(ctx context.Context) (*HealthStatus, error) {
	checks := map[string]*CheckResult{
		"built": hc.checkBuilt(),
	}
	if hc.guard != nil {
		checks["guard"] = hc.checkGuard()
	}

	status := "healthy"
	for _, c := range checks {
		if !c.Healthy {
			status = "unhealthy"
			break
		}
	}

	return &HealthStatus{Status: status, Checks: checks}, nil
}

func (hc *HealthChecker) checkBuilt() *CheckResult {
	if !hc.target.Ready() {
		return &CheckResult{Healthy: false, Message: "index has not been built"}
	}
	return &CheckResult{Healthy: true, Message: "index built and queryable"}
}

func (hc *HealthChecker) checkGuard() *CheckResult {
	state := hc.guard.State()
	if state == CircuitOpen {
		return &CheckResult{Healthy: false, Message: "construction guard is open: too many recent Build failures"}
	}
	return &CheckResult{Healthy: true, Message: "construction guard " + state.String()}
}

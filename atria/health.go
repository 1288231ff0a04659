package atria

import (
	"context"

	"github.com/xDarkicex/atria/internal/obs"
)

// HealthStatus aggregates every structural check run against an Index.
type HealthStatus = obs.HealthStatus

// Health runs the index's structural health checks: whether it has been
// built, and whether its construction guard is open.
func (idx *Index) Health(ctx context.Context) (*HealthStatus, error) {
	return idx.health.Check(ctx)
}

// GuardState reports the construction guard's current state. Returns
// obs.CircuitClosed if no guard was configured for this Index.
func (idx *Index) GuardState() obs.CircuitState {
	if idx.guard == nil {
		return obs.CircuitClosed
	}
	return idx.guard.State()
}

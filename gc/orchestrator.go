package gc

import (
	"context"
	"fmt"
	"strings"

	"github.com/projecteru2/core/log"
)

// Orchestrator runs GC across all registered modules.
type Orchestrator struct {
	modules []runner
}

// New creates an empty Orchestrator.
func New() *Orchestrator { return &Orchestrator{} }

// Register adds a typed Module to the Orchestrator.
// Package-level because methods cannot have type parameters.
func Register[S any](o *Orchestrator, m Module[S]) {
	o.modules = append(o.modules, m)
}

// Run executes one GC cycle. Each module is handled independently:
// TryLock, snapshot, resolve, collect, unlock. A busy module is skipped and
// picked up by the next cycle; it is not an error.
// It returns the number of collected IDs.
func (o *Orchestrator) Run(ctx context.Context) (int, error) {
	logger := log.WithFunc("gc.Run")

	var total int
	var errs []string
	for _, m := range o.modules {
		ok, err := m.locker().TryLock(ctx)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: trylock: %v", m.name(), err))
			continue
		}
		if !ok {
			logger.Warnf(ctx, "skip %s: lock held by another operation", m.name())
			continue
		}
		n, runErr := m.run(ctx)
		if unlockErr := m.locker().Unlock(ctx); unlockErr != nil {
			logger.Warnf(ctx, "unlock %s: %v", m.name(), unlockErr)
		}
		total += n
		if runErr != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", m.name(), runErr))
		}
	}
	if len(errs) > 0 {
		return total, fmt.Errorf("gc errors: %s", strings.Join(errs, "; "))
	}
	return total, nil
}

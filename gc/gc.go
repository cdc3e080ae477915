package gc

import (
	"context"

	"github.com/projecteru2/easydoc/lock"
)

// Module is a storage backend taking part in garbage collection.
// S is the snapshot type its ReadDB produces.
type Module[S any] struct {
	Name string

	// Locker is the lock writers of the backend hold. GC only runs against a
	// module whose lock it could take without waiting.
	Locker lock.Locker

	// ReadDB captures the state GC decides on. Called with the lock held.
	ReadDB func(ctx context.Context) (S, error)

	// Resolve returns the IDs to collect from the snapshot.
	Resolve func(snap S) []string

	// Collect removes ids. Called with the lock held.
	Collect func(ctx context.Context, ids []string) error
}

// runner erases S so the Orchestrator can hold heterogeneous modules.
type runner interface {
	name() string
	locker() lock.Locker
	run(ctx context.Context) (int, error)
}

func (m Module[S]) name() string        { return m.Name }
func (m Module[S]) locker() lock.Locker { return m.Locker }

func (m Module[S]) run(ctx context.Context) (int, error) {
	snap, err := m.ReadDB(ctx)
	if err != nil {
		return 0, err
	}
	ids := m.Resolve(snap)
	if len(ids) == 0 {
		return 0, nil
	}
	return len(ids), m.Collect(ctx, ids)
}

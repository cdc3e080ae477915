package document

import (
	"context"
	"errors"

	"github.com/looplab/fsm"
)

// State is the lifecycle position of a Document.
type State string

const (
	// StateUninitialized is a constructed document nobody has loaded or saved.
	StateUninitialized State = "uninitialized"
	// StateLoaded means Data was last loaded from or written to storage.
	StateLoaded State = "loaded"
	// StateDeleted means the record was removed and Data reset. A later save
	// recreates it.
	StateDeleted State = "deleted"
)

const (
	eventLoad   = "load"
	eventSave   = "save"
	eventDelete = "delete"
)

var allStates = []string{string(StateUninitialized), string(StateLoaded), string(StateDeleted)}

func newLifecycle() *fsm.FSM {
	return fsm.NewFSM(
		string(StateUninitialized),
		fsm.Events{
			{Name: eventLoad, Src: allStates, Dst: string(StateLoaded)},
			{Name: eventSave, Src: allStates, Dst: string(StateLoaded)},
			{Name: eventDelete, Src: allStates, Dst: string(StateDeleted)},
		},
		fsm.Callbacks{},
	)
}

// transition moves the lifecycle; staying in the same state is not an error.
func transition(ctx context.Context, machine *fsm.FSM, event string) error {
	err := machine.Event(ctx, event)
	var same fsm.NoTransitionError
	if err == nil || errors.As(err, &same) {
		return nil
	}
	return err
}

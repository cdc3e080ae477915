// Package document coordinates access to a single persisted value.
//
// A Document owns one in-memory value of type T addressed by a reference.
// Init, Save, SyncUpdate and Delete each run inside one exclusive critical
// section per Document, entered with a bounded wait; a caller that cannot
// enter in time gets ErrTimeout and no I/O happens. Storage and codec errors
// from inside the critical section are returned as-is and the Document stays
// usable. Exclusion is per Document instance and in-process only: two
// Documents with the same reference do not exclude each other.
package document

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/looplab/fsm"
	"github.com/projecteru2/core/log"

	"github.com/projecteru2/easydoc/lock"
	"github.com/projecteru2/easydoc/lock/mutex"
	"github.com/projecteru2/easydoc/metrics"
	"github.com/projecteru2/easydoc/serializer"
	"github.com/projecteru2/easydoc/storage"
)

// ErrTimeout is returned when exclusive access could not be obtained within
// the document's timeout. Retrying is left to the caller.
var ErrTimeout = errors.New("timeout: can't get exclusive access to document")

const (
	opInit       = "init"
	opSave       = "save"
	opSyncUpdate = "sync_update"
	opDelete     = "delete"
)

// Document is the access unit for one stored record.
type Document[T any] struct {
	ref     string
	store   storage.Storage
	codec   serializer.Serializer
	locker  lock.Locker
	timeout time.Duration
	factory func() T

	// Only touched inside the critical section.
	onSave   hook[T]
	onDelete hook[T]

	// mu guards data. Writers take it only inside the critical section.
	mu   sync.RWMutex
	data *T

	lifecycle *fsm.FSM
}

// New creates a Document for ref holding a fresh default value.
// Nothing is read from storage until Init.
func New[T any](ref string, store storage.Storage, codec serializer.Serializer, opts ...Option[T]) *Document[T] {
	d := &Document[T]{
		ref:       ref,
		store:     store,
		codec:     codec,
		locker:    mutex.New(ref),
		timeout:   DefaultTimeout,
		lifecycle: newLifecycle(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.data = d.fresh()
	return d
}

// Ref returns the reference the document is stored under.
func (d *Document[T]) Ref() string { return d.ref }

// Timeout returns the bounded wait for exclusive access.
func (d *Document[T]) Timeout() time.Duration { return d.timeout }

// State returns the current lifecycle state.
func (d *Document[T]) State() State { return State(d.lifecycle.Current()) }

// Data returns a shallow copy of the current value. Reference-typed fields
// (maps, slices, pointers) are shared with the document: treat them as
// read-only and use View to read them while updates may run.
func (d *Document[T]) Data() T {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return *d.data
}

// View calls fn with the current value without copying. fn must not modify
// the value or retain the pointer.
func (d *Document[T]) View(fn func(*T)) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	fn(d.data)
}

// Init replaces Data with the stored value. When nothing is stored, or the
// codec reports the content as absent, Data becomes a fresh default.
// Malformed content is an error and leaves Data unchanged.
func (d *Document[T]) Init(ctx context.Context) error {
	return d.synchronize(ctx, opInit, func(ctx context.Context) error {
		content, err := d.store.Read(ctx, d.ref)
		if err != nil {
			return err
		}
		next := d.fresh()
		ok, err := d.codec.Deserialize(content, next)
		if err != nil {
			return err
		}
		if ok {
			initValue(next)
		}
		d.publish(next)
		return transition(ctx, d.lifecycle, eventLoad)
	})
}

// Save writes the current value to storage.
func (d *Document[T]) Save(ctx context.Context) error {
	return d.synchronize(ctx, opSave, d.persist)
}

// SyncUpdate applies mutate to Data in place and saves it. Fields mutate
// does not touch are kept as they are. The mutation stays even if the write
// fails, so a later Save can retry.
// mutate runs with Data write-locked: it must not call Data or View, and a
// call to Init, Save, SyncUpdate or Delete on this document fails with
// ErrTimeout.
func (d *Document[T]) SyncUpdate(ctx context.Context, mutate func(*T)) error {
	return d.synchronize(ctx, opSyncUpdate, func(ctx context.Context) error {
		d.update(mutate)
		return d.persist(ctx)
	})
}

// Delete removes the record from storage and resets Data to a fresh default.
// The storage delete is issued on every call, even if nothing is stored.
func (d *Document[T]) Delete(ctx context.Context) error {
	return d.synchronize(ctx, opDelete, func(ctx context.Context) error {
		if err := d.store.Delete(ctx, d.ref); err != nil {
			return err
		}
		d.onDelete.fire(d)
		d.publish(d.fresh())
		log.WithFunc("document.Delete").Infof(ctx, "deleted %s", d.ref)
		return transition(ctx, d.lifecycle, eventDelete)
	})
}

// persist serializes Data, writes it and fires onSave on success.
// Caller holds the critical section, so Data cannot change underneath.
func (d *Document[T]) persist(ctx context.Context) error {
	content, err := d.codec.Serialize(d.data)
	if err != nil {
		return err
	}
	if err := d.store.Write(ctx, d.ref, content); err != nil {
		return err
	}
	if err := transition(ctx, d.lifecycle, eventSave); err != nil {
		return err
	}
	d.onSave.fire(d)
	return nil
}

// synchronize runs body inside the critical section. Acquisition waits at
// most d.timeout; the lock is released whatever body returns.
func (d *Document[T]) synchronize(ctx context.Context, op string, body func(context.Context) error) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation(op, time.Since(start), err, ErrTimeout) }()

	waitCtx, cancel := context.WithTimeout(ctx, d.timeout)
	lockErr := d.locker.Lock(waitCtx)
	cancel()
	metrics.ObserveLockWait(op, time.Since(start))
	if lockErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s %s: %w", op, d.ref, ctxErr)
		}
		log.WithFunc("document."+op).Warnf(ctx, "no exclusive access to %s within %s", d.ref, d.timeout)
		return fmt.Errorf("%s %s: %w", op, d.ref, ErrTimeout)
	}
	defer func() {
		if unlockErr := d.locker.Unlock(ctx); unlockErr != nil && err == nil {
			err = fmt.Errorf("%s %s: %w", op, d.ref, unlockErr)
		}
	}()
	return body(ctx)
}

func (d *Document[T]) update(mutate func(*T)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	mutate(d.data)
}

func (d *Document[T]) publish(next *T) {
	d.mu.Lock()
	d.data = next
	d.mu.Unlock()
}

// fresh builds a new default value.
func (d *Document[T]) fresh() *T {
	v := new(T)
	if d.factory != nil {
		*v = d.factory()
	}
	initValue(v)
	return v
}

func initValue[T any](v *T) {
	if initer, ok := any(v).(storage.Initer); ok {
		initer.Init()
	}
}

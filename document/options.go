package document

import "time"

// DefaultTimeout bounds the wait for exclusive access to a document.
const DefaultTimeout = 2 * time.Second

// Callback receives the document an event happened to. It runs inside the
// critical section, so it must not call Init, Save, SyncUpdate or Delete on
// that document.
type Callback[T any] func(*Document[T])

// Option configures a Document at construction.
type Option[T any] func(*Document[T])

// WithOnSave sets a callback fired once, after the first successful save.
func WithOnSave[T any](fn func(*Document[T])) Option[T] {
	return func(d *Document[T]) { d.onSave = hook[T]{fn: fn} }
}

// WithOnDelete sets a callback fired once, after the first successful delete.
func WithOnDelete[T any](fn func(*Document[T])) Option[T] {
	return func(d *Document[T]) { d.onDelete = hook[T]{fn: fn} }
}

// WithTimeout overrides DefaultTimeout. Non-positive values are ignored.
func WithTimeout[T any](timeout time.Duration) Option[T] {
	return func(d *Document[T]) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// WithFactory sets how fresh default values are built. Without it the zero
// value of T is used.
func WithFactory[T any](fn func() T) Option[T] {
	return func(d *Document[T]) { d.factory = fn }
}

// hook holds a callback that fires at most once. Firing clears it before the
// call, so a panicking callback does not fire again either.
type hook[T any] struct {
	fn Callback[T]
}

func (h *hook[T]) fire(d *Document[T]) {
	fn := h.fn
	if fn == nil {
		return
	}
	h.fn = nil
	fn(d)
}

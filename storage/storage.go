package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRef is returned for references a backend cannot address.
var ErrInvalidRef = errors.New("invalid reference")

// Initer is optionally implemented by document values to initialize zero-value
// fields (e.g., nil maps) after deserialization or when nothing is stored.
type Initer interface {
	Init()
}

// Storage persists raw serialized content by reference.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Read returns the content stored under ref, or (nil, nil) if there is none.
	Read(ctx context.Context, ref string) ([]byte, error)
	// Write stores content under ref, replacing any previous content.
	Write(ctx context.Context, ref string, content []byte) error
	// Delete removes ref. Deleting an absent ref succeeds.
	Delete(ctx context.Context, ref string) error
}

// Lister is optionally implemented by backends that can enumerate stored refs.
type Lister interface {
	List(ctx context.Context) ([]string, error)
}

// ValidateRef rejects references that are empty or could escape a namespace
// when mapped to a path or key: separators, NUL and a leading dot.
func ValidateRef(ref string) error {
	switch {
	case ref == "":
		return fmt.Errorf("%w: empty", ErrInvalidRef)
	case strings.ContainsAny(ref, "/\\\x00"):
		return fmt.Errorf("%w %q: contains a separator", ErrInvalidRef, ref)
	case strings.HasPrefix(ref, "."):
		return fmt.Errorf("%w %q: leading dot", ErrInvalidRef, ref)
	}
	return nil
}

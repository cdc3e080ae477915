package serializer

import (
	"bytes"
	"errors"
)

// ErrMalformed wraps decode failures of content that is present but unreadable.
var ErrMalformed = errors.New("malformed content")

// Serializer converts document values to raw content and back.
// Implementations must be safe for concurrent use.
type Serializer interface {
	// Name identifies the codec, e.g. in configuration.
	Name() string
	// Serialize encodes v.
	Serialize(v any) ([]byte, error)
	// Deserialize decodes raw into v, which must be a non-nil pointer.
	// It returns false, leaving v untouched, when raw holds no value (empty
	// content or an explicit null document).
	Deserialize(raw []byte, v any) (bool, error)
}

// Blank reports whether raw carries nothing but whitespace.
func Blank(raw []byte) bool {
	return len(bytes.TrimSpace(raw)) == 0
}

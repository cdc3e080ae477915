// Package json is the JSON codec, built on goccy/go-json.
package json

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/projecteru2/easydoc/serializer"
)

// Name is the codec name used in configuration.
const Name = "json"

var null = []byte("null")

// compile-time interface check.
var _ serializer.Serializer = Codec{}

// Codec encodes documents as indented JSON.
type Codec struct{}

// New returns the JSON codec.
func New() Codec { return Codec{} }

func (Codec) Name() string { return Name }

// Serialize marshals v as indented JSON with a trailing newline.
func (Codec) Serialize(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// Deserialize unmarshals raw into v; blank content and a bare null are absent.
func (Codec) Deserialize(raw []byte, v any) (bool, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, null) {
		return false, nil
	}
	if err := json.Unmarshal(trimmed, v); err != nil {
		return false, fmt.Errorf("%w: unmarshal JSON: %w", serializer.ErrMalformed, err)
	}
	return true, nil
}

// Package bson is the BSON codec, built on the MongoDB driver's bson package.
// Values must encode to a BSON document: structs, maps or bson.D.
package bson

import (
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/projecteru2/easydoc/serializer"
)

// Name is the codec name used in configuration.
const Name = "bson"

// compile-time interface check.
var _ serializer.Serializer = Codec{}

// Codec encodes documents as BSON.
type Codec struct{}

// New returns the BSON codec.
func New() Codec { return Codec{} }

func (Codec) Name() string { return Name }

// Serialize marshals v into a BSON document.
func (Codec) Serialize(v any) ([]byte, error) {
	data, err := bson.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal BSON: %w", err)
	}
	return data, nil
}

// Deserialize unmarshals raw into v. Empty content is absent.
func (Codec) Deserialize(raw []byte, v any) (bool, error) {
	if len(raw) == 0 {
		return false, nil
	}
	if err := bson.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("%w: unmarshal BSON: %w", serializer.ErrMalformed, err)
	}
	return true, nil
}

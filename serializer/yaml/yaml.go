// Package yaml is the YAML codec, built on gopkg.in/yaml.v3.
package yaml

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/projecteru2/easydoc/serializer"
)

// Name is the codec name used in configuration.
const Name = "yaml"

// compile-time interface check.
var _ serializer.Serializer = Codec{}

// Codec encodes documents as YAML.
type Codec struct{}

// New returns the YAML codec.
func New() Codec { return Codec{} }

func (Codec) Name() string { return Name }

// Serialize marshals v as YAML.
func (Codec) Serialize(v any) ([]byte, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal YAML: %w", err)
	}
	return data, nil
}

// Deserialize decodes raw into v. An empty stream or a document that is only
// null (`~`, `null`) counts as absent.
func (Codec) Deserialize(raw []byte, v any) (bool, error) {
	if serializer.Blank(raw) {
		return false, nil
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return false, fmt.Errorf("%w: unmarshal YAML: %w", serializer.ErrMalformed, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return false, nil
	}
	if root := doc.Content[0]; root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		return false, nil
	}
	if err := doc.Decode(v); err != nil {
		return false, fmt.Errorf("%w: decode YAML: %w", serializer.ErrMalformed, err)
	}
	return true, nil
}

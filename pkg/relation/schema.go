package relation

import (
	"fmt"

	"simjoin/pkg/types"
)

// Schema describes the attributes of a relation: their names, their order
// and their inferred types.
type Schema struct {
	// Attrs contains the attribute names in column order
	Attrs []string
	// Types contains the inferred type of each attribute in column order
	Types []types.Type

	index map[string]int
}

// NewSchema creates a new Schema given attribute names and types. If attrTypes
// is nil, every attribute defaults to StringType.
//
// Parameters:
//   - attrs: slice of attribute names (must contain at least one element,
//     names must be unique)
//   - attrTypes: optional slice of attribute types (must match attrs length
//     if provided)
//
// Returns:
//   - *Schema: newly created schema
//   - error: if attrs is empty, contains duplicates, or attrTypes length
//     doesn't match
func NewSchema(attrs []string, attrTypes []types.Type) (*Schema, error) {
	if len(attrs) < 1 {
		return nil, fmt.Errorf("must provide at least one attribute")
	}

	if attrTypes != nil && len(attrTypes) != len(attrs) {
		return nil, fmt.Errorf("attribute types length (%d) must match attribute names length (%d)",
			len(attrTypes), len(attrs))
	}

	attrsCopy := make([]string, len(attrs))
	copy(attrsCopy, attrs)

	typesCopy := make([]types.Type, len(attrs))
	if attrTypes != nil {
		copy(typesCopy, attrTypes)
	}

	index := make(map[string]int, len(attrs))
	for i, name := range attrsCopy {
		if _, dup := index[name]; dup {
			return nil, fmt.Errorf("duplicate attribute name %q", name)
		}
		index[name] = i
	}

	return &Schema{Attrs: attrsCopy, Types: typesCopy, index: index}, nil
}

// NumAttrs returns the number of attributes in this schema.
func (s *Schema) NumAttrs() int {
	return len(s.Attrs)
}

// AttrIndex returns the column index of the named attribute.
//
// Returns:
//   - int: zero-based column index
//   - bool: whether the attribute exists in the schema
func (s *Schema) AttrIndex(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// HasAttr reports whether the named attribute exists in the schema.
func (s *Schema) HasAttr(name string) bool {
	_, ok := s.index[name]
	return ok
}

// TypeOf returns the type of the named attribute.
//
// Returns:
//   - types.Type: inferred attribute type
//   - error: if the attribute does not exist
func (s *Schema) TypeOf(name string) (types.Type, error) {
	i, ok := s.index[name]
	if !ok {
		return 0, fmt.Errorf("attribute %q not found in schema", name)
	}
	return s.Types[i], nil
}

// Equals reports whether two schemas have identical attribute names in
// identical order. Types are not compared: two relations with the same
// column layout are concatenation-compatible regardless of inference.
func (s *Schema) Equals(other *Schema) bool {
	if other == nil || len(s.Attrs) != len(other.Attrs) {
		return false
	}
	for i, name := range s.Attrs {
		if other.Attrs[i] != name {
			return false
		}
	}
	return true
}

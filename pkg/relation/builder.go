package relation

import (
	"fmt"

	"simjoin/pkg/types"
)

// RowBuilder provides a fluent interface for constructing rows
type RowBuilder struct {
	schema       *Schema
	row          []types.Value
	currentIndex int
	err          error
}

// NewRowBuilder creates a new row builder for the given schema
func NewRowBuilder(schema *Schema) *RowBuilder {
	return &RowBuilder{
		schema: schema,
		row:    make([]types.Value, schema.NumAttrs()),
	}
}

// Add appends a present value at the current index
func (b *RowBuilder) Add(v types.Value) *RowBuilder {
	if b.err != nil {
		return b
	}
	if b.currentIndex >= len(b.row) {
		b.err = fmt.Errorf("attribute index %d out of bounds [0, %d)", b.currentIndex, len(b.row))
		return b
	}
	b.row[b.currentIndex] = v
	b.currentIndex++
	return b
}

// AddString adds a string value at the current index
func (b *RowBuilder) AddString(value string) *RowBuilder {
	return b.Add(types.NewValue(value))
}

// AddInt adds an integer value at the current index
func (b *RowBuilder) AddInt(value int64) *RowBuilder {
	return b.Add(types.NewIntValue(value))
}

// AddFloat adds a float value at the current index
func (b *RowBuilder) AddFloat(value float64) *RowBuilder {
	return b.Add(types.NewFloatValue(value))
}

// AddMissing adds a missing (NULL) value at the current index
func (b *RowBuilder) AddMissing() *RowBuilder {
	return b.Add(types.MissingValue())
}

// Build returns the constructed row.
//
// Returns:
//   - []types.Value: the row, with schema arity
//   - error: if any Add call failed or the row is incomplete
func (b *RowBuilder) Build() ([]types.Value, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.currentIndex != len(b.row) {
		return nil, fmt.Errorf("row incomplete: %d of %d attributes set", b.currentIndex, len(b.row))
	}
	return b.row, nil
}

package relation

import (
	"fmt"

	"simjoin/pkg/types"
)

// Relation represents an ordered collection of rows sharing a schema.
// Row order is significant and preserved by every operation.
type Relation struct {
	Schema *Schema
	Rows   [][]types.Value
}

// New creates an empty relation with the given schema.
func New(schema *Schema) *Relation {
	return &Relation{Schema: schema}
}

// Len returns the number of rows in the relation.
func (r *Relation) Len() int {
	return len(r.Rows)
}

// AppendRow appends a row to the relation.
//
// Returns:
//   - error: if the row arity does not match the schema
func (r *Relation) AppendRow(row []types.Value) error {
	if len(row) != r.Schema.NumAttrs() {
		return fmt.Errorf("row arity %d does not match schema arity %d",
			len(row), r.Schema.NumAttrs())
	}
	r.Rows = append(r.Rows, row)
	return nil
}

// Value returns the cell at the given row index and attribute name.
//
// Returns:
//   - types.Value: the cell value
//   - error: if the row index is out of bounds or the attribute is unknown
func (r *Relation) Value(row int, attr string) (types.Value, error) {
	if row < 0 || row >= len(r.Rows) {
		return types.Value{}, fmt.Errorf("row index %d out of bounds [0, %d)", row, len(r.Rows))
	}
	i, ok := r.Schema.AttrIndex(attr)
	if !ok {
		return types.Value{}, fmt.Errorf("attribute %q not found in schema", attr)
	}
	return r.Rows[row][i], nil
}

// Project returns a new relation containing only the named attributes, in
// the given order. Rows are shared column-wise but the projected row slices
// are freshly allocated, so appending to either relation does not disturb
// the other.
//
// Returns:
//   - *Relation: projected relation
//   - error: if any named attribute does not exist
func (r *Relation) Project(attrs []string) (*Relation, error) {
	indices := make([]int, len(attrs))
	projTypes := make([]types.Type, len(attrs))
	for i, name := range attrs {
		idx, ok := r.Schema.AttrIndex(name)
		if !ok {
			return nil, fmt.Errorf("attribute %q not found in schema", name)
		}
		indices[i] = idx
		projTypes[i] = r.Schema.Types[idx]
	}

	schema, err := NewSchema(attrs, projTypes)
	if err != nil {
		return nil, err
	}

	out := New(schema)
	out.Rows = make([][]types.Value, 0, len(r.Rows))
	for _, row := range r.Rows {
		projected := make([]types.Value, len(indices))
		for i, idx := range indices {
			projected[i] = row[idx]
		}
		out.Rows = append(out.Rows, projected)
	}
	return out, nil
}

// Concat appends every row of other to r. The schemas must have identical
// attribute layouts.
//
// Returns:
//   - error: if the schemas differ
func (r *Relation) Concat(other *Relation) error {
	if !r.Schema.Equals(other.Schema) {
		return fmt.Errorf("cannot concat relations with different schemas")
	}
	r.Rows = append(r.Rows, other.Rows...)
	return nil
}

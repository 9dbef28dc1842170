package join

import (
	"fmt"

	"simjoin/pkg/relation"
	"simjoin/pkg/types"
)

// Row layout of a snapshot: key value, join-attribute value, then the
// projected output attribute values.
const (
	snapKeyCol  = 0
	snapJoinCol = 1
	snapOutBase = 2
)

// snapshot is an immutable projected view of a relation, holding only rows
// whose join attribute is present. Rows with a missing join attribute never
// reach the kernel; they are handled exclusively by the missing-value
// completion pass.
type snapshot struct {
	rows [][]types.Value
	nOut int
}

// buildSnapshot projects the relation down to key, join attribute and
// output attributes, dropping rows with a missing join-attribute value.
// Pure: the input relation is not modified.
func buildSnapshot(rel *relation.Relation, keyAttr, joinAttr string, outAttrs []string) (*snapshot, error) {
	keyIdx, ok := rel.Schema.AttrIndex(keyAttr)
	if !ok {
		return nil, fmt.Errorf("key attribute %q not found", keyAttr)
	}
	joinIdx, ok := rel.Schema.AttrIndex(joinAttr)
	if !ok {
		return nil, fmt.Errorf("join attribute %q not found", joinAttr)
	}
	outIdx := make([]int, len(outAttrs))
	for i, attr := range outAttrs {
		idx, ok := rel.Schema.AttrIndex(attr)
		if !ok {
			return nil, fmt.Errorf("output attribute %q not found", attr)
		}
		outIdx[i] = idx
	}

	snap := &snapshot{nOut: len(outAttrs)}
	snap.rows = make([][]types.Value, 0, rel.Len())
	for _, src := range rel.Rows {
		if src[joinIdx].Missing {
			continue
		}
		row := make([]types.Value, snapOutBase+len(outIdx))
		row[snapKeyCol] = src[keyIdx]
		row[snapJoinCol] = src[joinIdx]
		for i, idx := range outIdx {
			row[snapOutBase+i] = src[idx]
		}
		snap.rows = append(snap.rows, row)
	}
	return snap, nil
}

// Len returns the number of rows in the snapshot.
func (s *snapshot) Len() int {
	return len(s.rows)
}

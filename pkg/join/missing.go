package join

import (
	"log/slog"

	"simjoin/pkg/relation"
	"simjoin/pkg/sjerr"
	"simjoin/pkg/types"
)

// missingPairer produces the pairs where the left or right join-attribute
// value is missing. It works on the unfiltered input relations: such
// rows were excluded from the snapshots and never reached the kernel.
type missingPairer struct {
	lKeyIdx, lJoinIdx int
	rKeyIdx, rJoinIdx int
	lOutIdx, rOutIdx  []int
	outSimScore       bool
	outSchema         *relation.Schema
}

func newMissingPairer(lrel, rrel *relation.Relation, lKeyAttr, rKeyAttr, lJoinAttr, rJoinAttr string,
	lOutAttrs, rOutAttrs []string, outSimScore bool, outSchema *relation.Schema) (*missingPairer, error) {

	m := &missingPairer{outSimScore: outSimScore, outSchema: outSchema}

	var ok bool
	if m.lKeyIdx, ok = lrel.Schema.AttrIndex(lKeyAttr); !ok {
		return nil, sjerr.New(sjerr.CategoryValidation, "ATTR_NOT_FOUND", "attribute not found").
			WithDetail("key attribute %q", lKeyAttr)
	}
	if m.lJoinIdx, ok = lrel.Schema.AttrIndex(lJoinAttr); !ok {
		return nil, sjerr.New(sjerr.CategoryValidation, "ATTR_NOT_FOUND", "attribute not found").
			WithDetail("join attribute %q", lJoinAttr)
	}
	if m.rKeyIdx, ok = rrel.Schema.AttrIndex(rKeyAttr); !ok {
		return nil, sjerr.New(sjerr.CategoryValidation, "ATTR_NOT_FOUND", "attribute not found").
			WithDetail("key attribute %q", rKeyAttr)
	}
	if m.rJoinIdx, ok = rrel.Schema.AttrIndex(rJoinAttr); !ok {
		return nil, sjerr.New(sjerr.CategoryValidation, "ATTR_NOT_FOUND", "attribute not found").
			WithDetail("join attribute %q", rJoinAttr)
	}
	for _, attr := range lOutAttrs {
		idx, ok := lrel.Schema.AttrIndex(attr)
		if !ok {
			return nil, sjerr.New(sjerr.CategoryValidation, "ATTR_NOT_FOUND", "attribute not found").
				WithDetail("output attribute %q", attr)
		}
		m.lOutIdx = append(m.lOutIdx, idx)
	}
	for _, attr := range rOutAttrs {
		idx, ok := rrel.Schema.AttrIndex(attr)
		if !ok {
			return nil, sjerr.New(sjerr.CategoryValidation, "ATTR_NOT_FOUND", "attribute not found").
				WithDetail("output attribute %q", attr)
		}
		m.rOutIdx = append(m.rOutIdx, idx)
	}
	return m, nil
}

// pairs computes the missing-value pairs, once per run. A row with a
// missing join attribute matches every row of the other table. Pairs where
// both sides are missing arise only from the left-missing sweep; the
// right-missing sweep skips missing left rows, so such pairs are emitted
// exactly once. With sink == nil the pairs are returned as a table;
// otherwise they are appended to the run's spool file.
func (m *missingPairer) pairs(lrel, rrel *relation.Relation, sink *spoolWriter, log *slog.Logger) (*relation.Relation, error) {
	var result *relation.Relation
	if sink == nil {
		result = relation.New(m.outSchema)
	}

	emitted := 0
	emit := func(lRow, rRow []types.Value) error {
		b := relation.NewRowBuilder(m.outSchema).
			Add(lRow[m.lKeyIdx]).
			Add(rRow[m.rKeyIdx])
		for _, idx := range m.lOutIdx {
			b.Add(lRow[idx])
		}
		for _, idx := range m.rOutIdx {
			b.Add(rRow[idx])
		}
		if m.outSimScore {
			// No similarity is defined when a join attribute is absent.
			b.AddMissing()
		}
		row, err := b.Build()
		if err != nil {
			return sjerr.Wrap(err, sjerr.CategoryWorker, "MISSING_PAIR_FAILED", "MissingPairs", "Completer")
		}
		emitted++
		if sink != nil {
			return sink.appendRecord(recordOf(row))
		}
		return result.AppendRow(row)
	}

	for _, lRow := range lrel.Rows {
		if !lRow[m.lJoinIdx].Missing {
			continue
		}
		for _, rRow := range rrel.Rows {
			if err := emit(lRow, rRow); err != nil {
				return nil, err
			}
		}
	}

	for _, rRow := range rrel.Rows {
		if !rRow[m.rJoinIdx].Missing {
			continue
		}
		for _, lRow := range lrel.Rows {
			if lRow[m.lJoinIdx].Missing {
				continue
			}
			if err := emit(lRow, rRow); err != nil {
				return nil, err
			}
		}
	}

	log.Debug("missing-value completion finished", "pairs", emitted)
	return result, nil
}

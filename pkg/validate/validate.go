// Package validate checks join inputs before any partitioning or dispatch
// happens. Every check returns a validation-category error from pkg/sjerr;
// a run that fails validation has produced no output and no temp files.
package validate

import (
	"simjoin/pkg/relation"
	"simjoin/pkg/similarity"
	"simjoin/pkg/sjerr"
	"simjoin/pkg/tokenize"
)

// InputRelation checks that a relation is usable as a join input.
func InputRelation(rel *relation.Relation, side string) error {
	if rel == nil || rel.Schema == nil {
		return sjerr.New(sjerr.CategoryValidation, "INVALID_TABLE", "input table is nil").
			WithDetail("%s table", side).
			WithContext("Validate", "Validator")
	}
	return nil
}

// Attr checks that the named attribute exists in the relation's schema.
// role describes what the attribute is used as ("key attribute",
// "join attribute", "output attribute") and side names the table.
func Attr(rel *relation.Relation, attr, role, side string) error {
	if !rel.Schema.HasAttr(attr) {
		return sjerr.New(sjerr.CategoryValidation, "ATTR_NOT_FOUND", "attribute not found").
			WithDetail("%s %q missing from %s table", role, attr, side).
			WithContext("Validate", "Validator")
	}
	return nil
}

// JoinAttrType checks that the join attribute is not numeric: similarity is
// defined over token sets of strings.
func JoinAttrType(rel *relation.Relation, attr, side string) error {
	attrType, err := rel.Schema.TypeOf(attr)
	if err != nil {
		return sjerr.Wrap(err, sjerr.CategoryValidation, "ATTR_NOT_FOUND", "Validate", "Validator")
	}
	if attrType.Numeric() {
		return sjerr.New(sjerr.CategoryValidation, "ATTR_BAD_TYPE", "join attribute must not be numeric").
			WithDetail("join attribute %q in %s table has type %s", attr, side, attrType).
			WithContext("Validate", "Validator")
	}
	return nil
}

// OutputAttrs checks that every requested output attribute exists in its
// relation's schema.
func OutputAttrs(lAttrs []string, lRel *relation.Relation, rAttrs []string, rRel *relation.Relation) error {
	for _, attr := range lAttrs {
		if err := Attr(lRel, attr, "output attribute", "left"); err != nil {
			return err
		}
	}
	for _, attr := range rAttrs {
		if err := Attr(rRel, attr, "output attribute", "right"); err != nil {
			return err
		}
	}
	return nil
}

// KeyAttr checks that the key attribute exists, is unique across rows and
// contains no missing values.
func KeyAttr(rel *relation.Relation, attr, side string) error {
	if err := Attr(rel, attr, "key attribute", side); err != nil {
		return err
	}

	idx, _ := rel.Schema.AttrIndex(attr)
	seen := make(map[string]struct{}, rel.Len())
	for _, row := range rel.Rows {
		v := row[idx]
		if v.Missing {
			return sjerr.New(sjerr.CategoryValidation, "KEY_MISSING_VALUE", "key attribute contains missing values").
				WithDetail("key attribute %q in %s table", attr, side).
				WithContext("Validate", "Validator")
		}
		if _, dup := seen[v.Raw]; dup {
			return sjerr.New(sjerr.CategoryValidation, "KEY_NOT_UNIQUE", "key attribute is not unique").
				WithDetail("key attribute %q in %s table has duplicate value %q", attr, side, v.Raw).
				WithContext("Validate", "Validator")
		}
		seen[v.Raw] = struct{}{}
	}
	return nil
}

// Threshold checks that the threshold lies in the valid range for the
// measure.
func Threshold(m similarity.Measure, threshold float64) error {
	lo, hi := m.ThresholdBounds()
	if threshold <= lo || threshold > hi {
		return sjerr.New(sjerr.CategoryValidation, "THRESHOLD_OUT_OF_RANGE", "threshold out of range").
			WithDetail("threshold %v not in (%v, %v] for measure %s", threshold, lo, hi, m).
			WithContext("Validate", "Validator")
	}
	return nil
}

// CompOp checks that the comparison operator is supported for the measure.
func CompOp(m similarity.Measure, op similarity.CompOp) error {
	if !op.SupportedFor(m) {
		return sjerr.New(sjerr.CategoryValidation, "COMP_OP_UNSUPPORTED", "comparison operator not supported").
			WithDetail("operator %s for measure %s", op, m).
			WithContext("Validate", "Validator")
	}
	return nil
}

// Tokenizer checks that a tokenizer was supplied.
func Tokenizer(tk tokenize.Tokenizer) error {
	if tk == nil {
		return sjerr.New(sjerr.CategoryValidation, "TOKENIZER_NIL", "tokenizer must not be nil").
			WithContext("Validate", "Validator")
	}
	return nil
}

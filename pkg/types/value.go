package types

import (
	"strconv"
)

// Value represents a single cell of a relation: a raw string payload plus a
// missing flag. A missing value carries no payload; its Raw field is always
// the empty string.
type Value struct {
	Raw     string // The textual value stored in this cell
	Missing bool   // Whether the cell holds no value (NULL)
}

// NewValue creates a present (non-missing) value holding the given string.
func NewValue(raw string) Value {
	return Value{Raw: raw}
}

// NewIntValue creates a present value holding the decimal rendering of v.
func NewIntValue(v int64) Value {
	return Value{Raw: strconv.FormatInt(v, 10)}
}

// NewFloatValue creates a present value holding the shortest rendering of v
// that round-trips through ParseFloat.
func NewFloatValue(v float64) Value {
	return Value{Raw: strconv.FormatFloat(v, 'g', -1, 64)}
}

// MissingValue creates a missing (NULL) value.
func MissingValue() Value {
	return Value{Missing: true}
}

// String returns the raw payload, or the empty string for a missing value.
func (v Value) String() string {
	if v.Missing {
		return ""
	}
	return v.Raw
}

// Equals compares two values. Two missing values are equal to each other and
// unequal to every present value.
func (v Value) Equals(other Value) bool {
	if v.Missing || other.Missing {
		return v.Missing && other.Missing
	}
	return v.Raw == other.Raw
}

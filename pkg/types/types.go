package types

// Type identifies the inferred data type of a relation attribute.
type Type int

const (
	StringType Type = iota
	IntType
	FloatType
)

// String returns a string representation of the type
func (t Type) String() string {
	switch t {
	case StringType:
		return "STRING_TYPE"
	case IntType:
		return "INT_TYPE"
	case FloatType:
		return "FLOAT_TYPE"
	default:
		return "UNKNOWN_TYPE"
	}
}

// Numeric reports whether the type is a numeric type. Join attributes must
// not be numeric: similarity is defined over token sets of strings.
func (t Type) Numeric() bool {
	return t == IntType || t == FloatType
}

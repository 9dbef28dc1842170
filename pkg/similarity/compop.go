package similarity

import "fmt"

// CompOp is the relational operator applied between a computed similarity
// score and the configured threshold.
type CompOp int

const (
	GreaterEqual CompOp = iota
	Greater
	Equal
)

// String returns the operator's symbol.
func (op CompOp) String() string {
	switch op {
	case GreaterEqual:
		return ">="
	case Greater:
		return ">"
	case Equal:
		return "="
	default:
		return "UNKNOWN"
	}
}

// ParseCompOp resolves an operator from its symbol.
func ParseCompOp(symbol string) (CompOp, error) {
	switch symbol {
	case ">=":
		return GreaterEqual, nil
	case ">":
		return Greater, nil
	case "=", "==":
		return Equal, nil
	default:
		return 0, fmt.Errorf("unknown comparison operator %q", symbol)
	}
}

// Satisfies reports whether score op threshold holds.
func (op CompOp) Satisfies(score, threshold float64) bool {
	switch op {
	case GreaterEqual:
		return score >= threshold
	case Greater:
		return score > threshold
	case Equal:
		return score == threshold
	default:
		return false
	}
}

// SupportedFor reports whether the operator is valid for the measure. Every
// set measure supports the same operator family.
func (op CompOp) SupportedFor(m Measure) bool {
	switch op {
	case GreaterEqual, Greater, Equal:
		return true
	default:
		return false
	}
}

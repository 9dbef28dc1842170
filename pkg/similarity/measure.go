// Package similarity defines the set-similarity measures and the threshold
// comparison operators the join supports.
package similarity

import (
	"fmt"
	"math"
	"strings"
)

// Measure identifies a set-similarity measure.
type Measure int

const (
	Jaccard Measure = iota
	Dice
	Cosine
)

// String returns the canonical upper-case name of the measure.
func (m Measure) String() string {
	switch m {
	case Jaccard:
		return "JACCARD"
	case Dice:
		return "DICE"
	case Cosine:
		return "COSINE"
	default:
		return "UNKNOWN"
	}
}

// ParseMeasure resolves a measure from its name, case-insensitively.
func ParseMeasure(name string) (Measure, error) {
	switch strings.ToUpper(name) {
	case "JACCARD":
		return Jaccard, nil
	case "DICE":
		return Dice, nil
	case "COSINE":
		return Cosine, nil
	default:
		return 0, fmt.Errorf("unknown similarity measure %q", name)
	}
}

// ThresholdBounds returns the half-open valid threshold range (lo, hi] for
// the measure. All supported set measures score in (0, 1].
func (m Measure) ThresholdBounds() (lo, hi float64) {
	return 0, 1
}

// Overlap returns the size of the intersection of two token sets. The inputs
// must already be deduplicated (set-mode tokenizer output).
func Overlap(x, y []string) int {
	if len(x) > len(y) {
		x, y = y, x
	}
	small := make(map[string]struct{}, len(x))
	for _, tok := range x {
		small[tok] = struct{}{}
	}
	overlap := 0
	for _, tok := range y {
		if _, ok := small[tok]; ok {
			overlap++
		}
	}
	return overlap
}

// Score computes the similarity of two token sets under the measure.
// Two empty sets score exactly 1.0 under every supported measure.
func Score(m Measure, x, y []string) float64 {
	if len(x) == 0 && len(y) == 0 {
		return 1.0
	}
	if len(x) == 0 || len(y) == 0 {
		return 0.0
	}

	overlap := Overlap(x, y)
	switch m {
	case Jaccard:
		return float64(overlap) / float64(len(x)+len(y)-overlap)
	case Dice:
		return 2 * float64(overlap) / float64(len(x)+len(y))
	case Cosine:
		return float64(overlap) / math.Sqrt(float64(len(x))*float64(len(y)))
	default:
		return 0.0
	}
}

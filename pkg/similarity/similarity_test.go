package similarity

import (
	"math"
	"testing"
)

func TestJaccardScore(t *testing.T) {
	tests := []struct {
		name     string
		x, y     []string
		expected float64
	}{
		{"partial overlap", []string{"a", "b", "c"}, []string{"a", "b"}, 2.0 / 3.0},
		{"no overlap", []string{"a", "b", "c"}, []string{"x", "y"}, 0.0},
		{"identical", []string{"a", "b"}, []string{"a", "b"}, 1.0},
		{"both empty", nil, nil, 1.0},
		{"one empty", []string{"a"}, nil, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(Jaccard, tt.x, tt.y)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("Score = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestDiceScore(t *testing.T) {
	got := Score(Dice, []string{"a", "b", "c"}, []string{"a", "b"})
	expected := 2 * 2.0 / 5.0
	if math.Abs(got-expected) > 1e-9 {
		t.Errorf("Score = %v, expected %v", got, expected)
	}
}

func TestCosineScore(t *testing.T) {
	got := Score(Cosine, []string{"a", "b"}, []string{"a", "c"})
	expected := 1.0 / 2.0
	if math.Abs(got-expected) > 1e-9 {
		t.Errorf("Score = %v, expected %v", got, expected)
	}
}

func TestOverlap(t *testing.T) {
	if got := Overlap([]string{"a", "b", "c"}, []string{"b", "c", "d"}); got != 2 {
		t.Errorf("Overlap = %d, expected 2", got)
	}
}

func TestParseMeasure(t *testing.T) {
	m, err := ParseMeasure("jaccard")
	if err != nil || m != Jaccard {
		t.Errorf("ParseMeasure(jaccard) = (%v, %v)", m, err)
	}
	if _, err := ParseMeasure("levenshtein"); err == nil {
		t.Error("expected error for unsupported measure")
	}
}

func TestCompOpSatisfies(t *testing.T) {
	tests := []struct {
		name      string
		op        CompOp
		score     float64
		threshold float64
		expected  bool
	}{
		{"ge true at boundary", GreaterEqual, 0.5, 0.5, true},
		{"ge false below", GreaterEqual, 0.49, 0.5, false},
		{"gt false at boundary", Greater, 0.5, 0.5, false},
		{"gt true above", Greater, 0.51, 0.5, true},
		{"eq true", Equal, 0.5, 0.5, true},
		{"eq false", Equal, 0.6, 0.5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.op.Satisfies(tt.score, tt.threshold); got != tt.expected {
				t.Errorf("Satisfies(%v, %v) = %v, expected %v", tt.score, tt.threshold, got, tt.expected)
			}
		})
	}
}

func TestParseCompOp(t *testing.T) {
	for symbol, expected := range map[string]CompOp{">=": GreaterEqual, ">": Greater, "=": Equal} {
		got, err := ParseCompOp(symbol)
		if err != nil || got != expected {
			t.Errorf("ParseCompOp(%q) = (%v, %v), expected %v", symbol, got, err, expected)
		}
	}
	if _, err := ParseCompOp("<"); err == nil {
		t.Error("expected error for unsupported operator")
	}
}

package validate

import (
	"strings"
	"testing"

	"simjoin/pkg/relation"
	"simjoin/pkg/similarity"
	"simjoin/pkg/sjerr"
	"simjoin/pkg/tokenize"
)

func mustReadCSV(t *testing.T, data string) *relation.Relation {
	t.Helper()
	rel, err := relation.ReadCSVFrom(strings.NewReader(data))
	if err != nil {
		t.Fatalf("failed to read test relation: %v", err)
	}
	return rel
}

func TestAttr(t *testing.T) {
	rel := mustReadCSV(t, "id,name\n1,a\n")

	if err := Attr(rel, "name", "join attribute", "left"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	err := Attr(rel, "missing", "join attribute", "left")
	if err == nil {
		t.Fatal("expected error for unknown attribute")
	}
	if !sjerr.IsValidation(err) {
		t.Error("expected validation category")
	}
}

func TestJoinAttrType(t *testing.T) {
	rel := mustReadCSV(t, "id,name\n1,a\n")

	if err := JoinAttrType(rel, "name", "left"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := JoinAttrType(rel, "id", "left"); err == nil {
		t.Error("expected error for numeric join attribute")
	}
}

func TestKeyAttr(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		expectErr bool
	}{
		{"valid key", "id,name\n1,a\n2,b\n", false},
		{"duplicate key", "id,name\n1,a\n1,b\n", true},
		{"missing key value", "id,name\n1,a\n,b\n", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rel := mustReadCSV(t, tt.data)
			err := KeyAttr(rel, "id", "left")
			if tt.expectErr && err == nil {
				t.Error("expected error but got none")
			}
			if !tt.expectErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestThreshold(t *testing.T) {
	tests := []struct {
		name      string
		threshold float64
		expectErr bool
	}{
		{"valid", 0.5, false},
		{"upper bound inclusive", 1.0, false},
		{"zero", 0.0, true},
		{"negative", -0.1, true},
		{"above one", 1.1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Threshold(similarity.Jaccard, tt.threshold)
			if tt.expectErr && err == nil {
				t.Error("expected error but got none")
			}
			if !tt.expectErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestCompOp(t *testing.T) {
	if err := CompOp(similarity.Jaccard, similarity.GreaterEqual); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := CompOp(similarity.Jaccard, similarity.CompOp(99)); err == nil {
		t.Error("expected error for unsupported operator")
	}
}

func TestTokenizer(t *testing.T) {
	if err := Tokenizer(tokenize.NewWhitespace(true)); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := Tokenizer(nil); err == nil {
		t.Error("expected error for nil tokenizer")
	}
}

func TestOutputAttrs(t *testing.T) {
	l := mustReadCSV(t, "id,name\n1,a\n")
	r := mustReadCSV(t, "id,addr\n1,x\n")

	if err := OutputAttrs([]string{"name"}, l, []string{"addr"}, r); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := OutputAttrs([]string{"nope"}, l, nil, r); err == nil {
		t.Error("expected error for unknown left output attribute")
	}
	if err := OutputAttrs(nil, l, []string{"nope"}, r); err == nil {
		t.Error("expected error for unknown right output attribute")
	}
}

func TestInputRelation(t *testing.T) {
	if err := InputRelation(nil, "left"); err == nil {
		t.Error("expected error for nil relation")
	}
	rel := mustReadCSV(t, "id\n1\n")
	if err := InputRelation(rel, "left"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

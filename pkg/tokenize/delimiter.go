package tokenize

import "strings"

// Delimiter splits the input on any rune of a delimiter set.
type Delimiter struct {
	delims    string
	returnSet bool
}

// NewDelimiter creates a delimiter tokenizer splitting on any rune found in
// delims. An empty delims falls back to a single comma.
func NewDelimiter(delims string, returnSet bool) *Delimiter {
	if delims == "" {
		delims = ","
	}
	return &Delimiter{delims: delims, returnSet: returnSet}
}

func (t *Delimiter) Tokenize(input string) []string {
	tokens := strings.FieldsFunc(input, func(r rune) bool {
		return strings.ContainsRune(t.delims, r)
	})
	if t.returnSet {
		return dedup(tokens)
	}
	return tokens
}

func (t *Delimiter) ReturnsSet() bool {
	return t.returnSet
}

func (t *Delimiter) AsSet() Tokenizer {
	return &Delimiter{delims: t.delims, returnSet: true}
}

func (t *Delimiter) Name() string {
	return "delimiter"
}

package tokenize

import "strings"

// Whitespace splits the input on runs of Unicode whitespace.
type Whitespace struct {
	returnSet bool
}

// NewWhitespace creates a whitespace tokenizer. returnSet selects set mode.
func NewWhitespace(returnSet bool) *Whitespace {
	return &Whitespace{returnSet: returnSet}
}

func (t *Whitespace) Tokenize(input string) []string {
	tokens := strings.Fields(input)
	if t.returnSet {
		return dedup(tokens)
	}
	return tokens
}

func (t *Whitespace) ReturnsSet() bool {
	return t.returnSet
}

func (t *Whitespace) AsSet() Tokenizer {
	return &Whitespace{returnSet: true}
}

func (t *Whitespace) Name() string {
	return "whitespace"
}

package tokenize

import "unicode"

// Alphanumeric extracts maximal runs of letters and digits; every other rune
// is a separator.
type Alphanumeric struct {
	returnSet bool
}

// NewAlphanumeric creates an alphanumeric tokenizer.
func NewAlphanumeric(returnSet bool) *Alphanumeric {
	return &Alphanumeric{returnSet: returnSet}
}

func (t *Alphanumeric) Tokenize(input string) []string {
	var tokens []string
	start := -1
	for i, r := range input {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			tokens = append(tokens, input[start:i])
			start = -1
		}
	}
	if start >= 0 {
		tokens = append(tokens, input[start:])
	}
	if t.returnSet {
		return dedup(tokens)
	}
	return tokens
}

func (t *Alphanumeric) ReturnsSet() bool {
	return t.returnSet
}

func (t *Alphanumeric) AsSet() Tokenizer {
	return &Alphanumeric{returnSet: true}
}

func (t *Alphanumeric) Name() string {
	return "alphanumeric"
}

// Package tokenize provides the tokenizers used to derive token sets from
// string attribute values. Every tokenizer can operate in bag mode (tokens
// repeat) or set mode (first occurrence kept, order preserved). AsSet
// derives a set-mode tokenizer as a new value: the receiver is never
// mutated, so a caller-held tokenizer is unaffected by a join run.
package tokenize

// Tokenizer turns a string into an ordered sequence of tokens.
type Tokenizer interface {
	// Tokenize splits the input into tokens. In set mode, duplicates are
	// removed keeping the first occurrence.
	Tokenize(input string) []string

	// ReturnsSet reports whether the tokenizer is in set mode.
	ReturnsSet() bool

	// AsSet returns a set-mode copy of the tokenizer. The receiver is not
	// modified.
	AsSet() Tokenizer

	// Name identifies the tokenizer kind, for logs and error messages.
	Name() string
}

// dedup removes duplicate tokens keeping the first occurrence of each.
func dedup(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := tokens[:0:0]
	for _, tok := range tokens {
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}

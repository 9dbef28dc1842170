package tokenize

// QGram slides a window of q runes over the input. With padding enabled the
// input is wrapped in q-1 leading '#' and trailing '$' runes, so every rune
// of the input appears in exactly q grams.
type QGram struct {
	q         int
	padding   bool
	returnSet bool
}

const (
	qgramPrefixPad = '#'
	qgramSuffixPad = '$'
)

// NewQGram creates a q-gram tokenizer. q values below 1 are clamped to 2,
// the common default.
func NewQGram(q int, padding, returnSet bool) *QGram {
	if q < 1 {
		q = 2
	}
	return &QGram{q: q, padding: padding, returnSet: returnSet}
}

func (t *QGram) Tokenize(input string) []string {
	runes := []rune(input)
	if t.padding {
		padded := make([]rune, 0, len(runes)+2*(t.q-1))
		for i := 0; i < t.q-1; i++ {
			padded = append(padded, qgramPrefixPad)
		}
		padded = append(padded, runes...)
		for i := 0; i < t.q-1; i++ {
			padded = append(padded, qgramSuffixPad)
		}
		runes = padded
	}

	if len(runes) < t.q {
		return nil
	}

	tokens := make([]string, 0, len(runes)-t.q+1)
	for i := 0; i+t.q <= len(runes); i++ {
		tokens = append(tokens, string(runes[i:i+t.q]))
	}
	if t.returnSet {
		return dedup(tokens)
	}
	return tokens
}

func (t *QGram) ReturnsSet() bool {
	return t.returnSet
}

func (t *QGram) AsSet() Tokenizer {
	return &QGram{q: t.q, padding: t.padding, returnSet: true}
}

func (t *QGram) Name() string {
	return "qgram"
}

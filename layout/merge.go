package layout

import "strings"

// Merge joins adjacent Text and Whitespace tokens into single Text tokens,
// recursively inside elements. It runs on finished lines only: the breaker
// relies on whitespace tokens staying separate.
func Merge(tokens []Token) []Token {
	out := make([]Token, 0, len(tokens))
	var pending []Token
	flush := func() {
		switch len(pending) {
		case 0:
			return
		case 1:
			out = append(out, pending[0])
		default:
			var b strings.Builder
			for _, tok := range pending {
				b.WriteString(tok.Plaintext())
			}
			first := pending[0]
			out = append(out, &Text{Value: b.String(), font: first.Font(), m: meterOf(first)})
		}
		pending = pending[:0]
	}
	for _, tok := range tokens {
		switch t := tok.(type) {
		case *Text, *Whitespace:
			pending = append(pending, tok)
		case *Element:
			flush()
			out = append(out, t.withChildren(Merge(t.Children)))
		default:
			flush()
			out = append(out, tok)
		}
	}
	flush()
	return out
}

func meterOf(tok Token) *Meter {
	switch t := tok.(type) {
	case *Text:
		return t.m
	case *Whitespace:
		return t.m
	case *PlainURL:
		return t.m
	case *Superscript:
		return t.m
	case *Element:
		return t.m
	}
	return nil
}

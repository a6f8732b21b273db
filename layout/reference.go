package layout

import "strconv"

// AppendReferenceSuperscripts returns a copy of lines where every detail
// reference whose term appears in terms ends with a Superscript holding the
// term's 1-based position. A reference broken across lines is numbered on its
// last fragment only. Lines are expected to be the output of BreakIntoLines.
func AppendReferenceSuperscripts(lines [][]Token, terms []string) [][]Token {
	index := make(map[string]int, len(terms))
	for i, term := range terms {
		if _, dup := index[term]; !dup {
			index[term] = i
		}
	}

	// 跨行的 DoD 片段：本行末尾与下一行开头来自同一个元素时，本行不加角标
	continued := map[*Element]bool{}
	for i := 0; i+1 < len(lines); i++ {
		tail := trailingDetail(lines[i])
		if tail == nil {
			continue
		}
		if head := leadingDetail(lines[i+1]); head != nil && head.source() == tail.source() {
			continued[tail] = true
		}
	}

	out := make([][]Token, len(lines))
	for i, line := range lines {
		out[i] = appendSuperscripts(line, index, continued)
	}
	return out
}

func appendSuperscripts(tokens []Token, index map[string]int, continued map[*Element]bool) []Token {
	out := make([]Token, len(tokens))
	for i, tok := range tokens {
		e, ok := tok.(*Element)
		if !ok {
			out[i] = tok
			continue
		}
		children := appendSuperscripts(e.Children, index, continued)
		if e.Kind == KindDetailOnDemand && !continued[e] {
			if n, found := index[e.Term]; found {
				children = append(children, &Superscript{
					Value: strconv.Itoa(n + 1),
					font:  e.font.scaled(SuperscriptScale),
					m:     e.m,
				})
			}
		}
		out[i] = e.withChildren(children)
	}
	return out
}

func trailingDetail(tokens []Token) *Element {
	for len(tokens) > 0 {
		e, ok := tokens[len(tokens)-1].(*Element)
		if !ok {
			return nil
		}
		if e.Kind == KindDetailOnDemand {
			return e
		}
		tokens = e.Children
	}
	return nil
}

func leadingDetail(tokens []Token) *Element {
	for len(tokens) > 0 {
		e, ok := tokens[0].(*Element)
		if !ok {
			return nil
		}
		if e.Kind == KindDetailOnDemand {
			return e
		}
		tokens = e.Children
	}
	return nil
}

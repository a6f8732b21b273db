package layout

// 断行分两步：先按硬换行切分（包括嵌套元素内部），再对每一行按宽度贪心切分。

// SplitOnNewlines cuts tokens at every Newline, descending into elements. An
// element spanning a newline becomes one clone per segment; segments without
// children produce no clone. Blank lines are kept as empty lines. An empty
// input yields no lines.
func SplitOnNewlines(tokens []Token) [][]Token {
	if len(tokens) == 0 {
		return nil
	}
	lines := [][]Token{nil}
	for _, tok := range tokens {
		switch t := tok.(type) {
		case *Newline:
			lines = append(lines, nil)
		case *Element:
			segments := SplitOnNewlines(t.Children)
			if len(segments) == 1 {
				last := len(lines) - 1
				lines[last] = append(lines[last], t)
				continue
			}
			for i, seg := range segments {
				if i > 0 {
					lines = append(lines, nil)
				}
				if len(seg) > 0 {
					last := len(lines) - 1
					lines[last] = append(lines[last], t.withChildren(seg))
				}
			}
		default:
			last := len(lines) - 1
			lines[last] = append(lines[last], tok)
		}
	}
	return lines
}

// BreakpointBefore finds the last breakpoint in tokens that still keeps the
// text before it within maxWidth. If the first breakpoint already overflows it
// is returned anyway; ok is false only when tokens hold no breakpoint at all.
// Scanning stops at the first token that ends past maxWidth once a breakpoint
// is known.
func BreakpointBefore(tokens []Token, maxWidth float64) (bp Breakpoint, ok bool) {
	var offset float64
	for i, tok := range tokens {
		if inner, found := tokenBreakpoint(tok, maxWidth-offset); found {
			candidate := Breakpoint{
				TokenIndex:       i,
				TokenStartOffset: offset,
				BreakOffset:      offset + inner.BreakOffset,
			}
			// 空白断点带一个 epsilon 偏移，恰好填满宽度的断点不被接受
			if ok && candidate.BreakOffset > maxWidth {
				return bp, true
			}
			bp, ok = candidate, true
		}
		if ok {
			offset += boundedWidth(tok, maxWidth-offset)
			if offset > maxWidth {
				return bp, true
			}
			continue
		}
		offset += tok.Width()
	}
	return bp, ok
}

func tokenBreakpoint(tok Token, maxWidth float64) (Breakpoint, bool) {
	switch t := tok.(type) {
	case *Whitespace:
		return Breakpoint{BreakOffset: BreakpointEpsilon}, true
	case *Element:
		return BreakpointBefore(t.Children, maxWidth)
	default:
		return Breakpoint{}, false
	}
}

// boundedWidth is tok.Width() for results up to limit. Elements stop summing
// their children as soon as the sum passes limit, so the result is only exact
// when it is <= limit.
func boundedWidth(tok Token, limit float64) float64 {
	e, ok := tok.(*Element)
	if !ok {
		return tok.Width()
	}
	var w float64
	for _, c := range e.Children {
		w += boundedWidth(c, limit-w)
		if w > limit {
			break
		}
	}
	return w
}

// fits reports whether tokens are at most maxWidth wide, looking no further
// than the first token that crosses maxWidth.
func fits(tokens []Token, maxWidth float64) bool {
	var w float64
	for _, tok := range tokens {
		w += boundedWidth(tok, maxWidth-w)
		if w > maxWidth {
			return false
		}
	}
	return true
}

// SplitBefore splits tokens at BreakpointBefore. The whitespace at the break
// is dropped. Without a breakpoint everything ends up in before. tokens is
// not modified; after may share its backing array.
func SplitBefore(tokens []Token, maxWidth float64) (before, after []Token) {
	bp, ok := BreakpointBefore(tokens, maxWidth)
	if !ok {
		return tokens, nil
	}
	head, tail := splitToken(tokens[bp.TokenIndex], maxWidth-bp.TokenStartOffset)

	before = tokens[:bp.TokenIndex:bp.TokenIndex]
	if head != nil {
		before = append(before, head)
	}
	after = tokens[bp.TokenIndex+1:]
	if tail != nil {
		after = append([]Token{tail}, after...)
	}
	return before, after
}

// splitToken splits a single token that holds the chosen breakpoint.
func splitToken(tok Token, maxWidth float64) (head, tail Token) {
	switch t := tok.(type) {
	case *Whitespace:
		return nil, nil
	case *Element:
		b, a := SplitBefore(t.Children, maxWidth)
		if len(b) > 0 {
			head = t.withChildren(b)
		}
		if len(a) > 0 {
			tail = t.withChildren(a)
		}
		return head, tail
	default:
		return nil, tok
	}
}

// trimLeadingWhitespace drops whitespace at the start of tokens, including
// inside a leading element. tokens is not modified.
func trimLeadingWhitespace(tokens []Token) []Token {
	return trimLeading(tokens, false)
}

// trimLeading is trimLeadingWhitespace; with inPlace set a trimmed leading
// element replaces tokens[0] instead of being copied into a new slice.
func trimLeading(tokens []Token, inPlace bool) []Token {
	for len(tokens) > 0 {
		switch t := tokens[0].(type) {
		case *Whitespace:
			tokens = tokens[1:]
		case *Element:
			children := trimLeadingWhitespace(t.Children)
			switch {
			case len(children) == len(t.Children):
				return tokens
			case len(children) == 0:
				tokens = tokens[1:]
			case inPlace:
				tokens[0] = t.withChildren(children)
				return tokens
			default:
				return append([]Token{t.withChildren(children)}, tokens[1:]...)
			}
		default:
			return tokens
		}
	}
	return tokens
}

// BreakIntoLines wraps tokens greedily to maxWidth. Hard newlines always
// break. A line without any breakpoint is emitted as is and may overflow.
// Each step only looks at the tokens of the line being filled, so the cost
// grows linearly with the input.
func BreakIntoLines(tokens []Token, maxWidth float64) [][]Token {
	var lines [][]Token
	for _, line := range SplitOnNewlines(tokens) {
		// line 由 SplitOnNewlines 新建，这里可以原地替换其中的记号
		rest := line
		emitted := len(lines)
		for {
			if fits(rest, maxWidth) {
				lines = append(lines, rest)
				break
			}
			bp, ok := BreakpointBefore(rest, maxWidth)
			if !ok {
				// 没有可断点：整行溢出输出
				lines = append(lines, rest)
				break
			}
			head, tail := splitToken(rest[bp.TokenIndex], maxWidth-bp.TokenStartOffset)
			before := rest[:bp.TokenIndex:bp.TokenIndex]
			if head != nil {
				before = append(before, head)
			}
			if tail != nil {
				rest[bp.TokenIndex] = tail
				rest = rest[bp.TokenIndex:]
			} else {
				rest = rest[bp.TokenIndex+1:]
			}
			rest = trimLeading(rest, true)
			if len(before) > 0 {
				lines = append(lines, before)
			}
			if len(rest) == 0 {
				break
			}
		}
		if len(lines) == emitted {
			// 只有空白的行仍占一行
			lines = append(lines, nil)
		}
	}
	return lines
}

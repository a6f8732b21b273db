package markdown

import (
	"regexp"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// DefaultMaxStyledInput is the input size (in bytes) above which Parse stops
// trying styled constructs and only produces text, whitespace and newlines.
const DefaultMaxStyledInput = 1 << 17

var hrefURLPattern = regexp.MustCompile(`^(?:https?|ftp)://[\w-]+(?:\.[\w-]+)+\S*$`)

// Options tunes Parse.
type Options struct {
	// MaxStyledInput caps the size of inputs parsed with the full grammar.
	// Zero means DefaultMaxStyledInput, a negative value disables styling.
	MaxStyledInput int
}

// Parse turns input into a list of inline nodes. It never fails: anything that
// is not a well formed construct comes back as literal Text.
func Parse(input string) []Node {
	return ParseWithOptions(input, Options{})
}

// ParseWithOptions is Parse with explicit limits.
func ParseWithOptions(input string, opts Options) []Node {
	if input == "" {
		return nil
	}
	tokens, err := tokenize(input)
	if err != nil {
		return []Node{Text{Value: input}}
	}
	limit := opts.MaxStyledInput
	if limit == 0 {
		limit = DefaultMaxStyledInput
	}
	p := &parser{
		tokens:   tokens,
		leafOnly: limit < 0 || len(input) > limit,
		items:    map[itemKey]match{},
		rules:    map[ruleKey]match{},
		runEnds:  map[itemKey]int{},
	}
	return p.document()
}

// scope selects which alternatives are legal at a position.
type scope uint8

const (
	scopeTop scope = iota
	scopeBold
	scopeItalic
	scopeUnstyled
	scopeLink
	scopePlain
)

type rule uint8

const (
	ruleDetailOnDemand rule = iota
	ruleLink
	ruleBold
	ruleItalic
	rulePlainBold
	rulePlainItalic
	ruleBoldWithoutItalic
	ruleItalicWithoutBold
)

type itemKey struct {
	scope scope
	pos   int
}

type ruleKey struct {
	rule rule
	pos  int
}

type match struct {
	node Node
	end  int
	ok   bool
}

var noMatch = match{}

// parser is an ordered-choice recursive descent parser over leaf tokens.
// Composite rules are memoised by position and content runs remember where
// they stop, so every (scope, position) pair is evaluated at most once.
type parser struct {
	tokens   []lexer.Token
	leafOnly bool

	items   map[itemKey]match
	rules   map[ruleKey]match
	runEnds map[itemKey]int
}

func (p *parser) document() []Node {
	nodes := make([]Node, 0, len(p.tokens))
	for pos := 0; pos < len(p.tokens); {
		m := p.item(scopeTop, pos)
		if !m.ok {
			// fallback 总能匹配非空白记号，这里只是兜底
			m = match{node: Text{Value: p.tokens[pos].Value}, end: pos + 1, ok: true}
		}
		nodes = append(nodes, m.node)
		pos = m.end
	}
	return nodes
}

func (p *parser) is(pos int, tt lexer.TokenType) bool {
	return pos < len(p.tokens) && p.tokens[pos].Type == tt
}

// item tries the alternatives of scope at pos, in order.
func (p *parser) item(sc scope, pos int) match {
	if pos >= len(p.tokens) {
		return noMatch
	}
	key := itemKey{sc, pos}
	if m, ok := p.items[key]; ok {
		return m
	}
	m := p.tryItem(sc, pos)
	p.items[key] = m
	return m
}

func (p *parser) tryItem(sc scope, pos int) match {
	if m := p.leaf(pos); m.ok {
		return m
	}
	if p.leafOnly {
		if sc == scopeTop {
			return p.fallbackText(pos)
		}
		return noMatch
	}

	switch sc {
	case scopeLink, scopePlain:
		if sc == scopeLink {
			if m := p.rule(rulePlainBold, pos); m.ok {
				return m
			}
			if m := p.rule(rulePlainItalic, pos); m.ok {
				return m
			}
		}
		return p.run(pos, true)
	}

	if m := p.rule(ruleDetailOnDemand, pos); m.ok {
		return m
	}
	if m := p.rule(ruleLink, pos); m.ok {
		return m
	}
	if p.is(pos, urlToken) {
		return match{node: PlainURL{Href: p.tokens[pos].Value}, end: pos + 1, ok: true}
	}
	switch sc {
	case scopeTop:
		if m := p.rule(ruleBold, pos); m.ok {
			return m
		}
		if m := p.rule(ruleItalic, pos); m.ok {
			return m
		}
	case scopeBold:
		if m := p.rule(ruleItalicWithoutBold, pos); m.ok {
			return m
		}
	case scopeItalic:
		if m := p.rule(ruleBoldWithoutItalic, pos); m.ok {
			return m
		}
	}
	if m := p.run(pos, false); m.ok {
		return m
	}
	if sc == scopeTop {
		return p.fallbackText(pos)
	}
	return noMatch
}

// leaf matches newline, non-breaking space and whitespace, legal in every scope.
func (p *parser) leaf(pos int) match {
	switch p.tokens[pos].Type {
	case newlineToken:
		return match{node: Newline{}, end: pos + 1, ok: true}
	case nbspToken:
		return match{node: Text{Value: p.tokens[pos].Value}, end: pos + 1, ok: true}
	case whitespaceToken:
		return match{node: Whitespace{}, end: pos + 1, ok: true}
	}
	return noMatch
}

// run consumes characters up to the next styling delimiter or whitespace.
// Inside links the closing bracket also ends the run.
func (p *parser) run(pos int, inLink bool) match {
	end := pos
	for end < len(p.tokens) && isRunToken(p.tokens[end].Type, inLink) {
		end++
	}
	if end == pos {
		return noMatch
	}
	return match{node: Text{Value: p.join(pos, end)}, end: end, ok: true}
}

func isRunToken(tt lexer.TokenType, inLink bool) bool {
	switch tt {
	case wordToken, urlToken, lparenToken, rparenToken:
		return true
	case lbracketToken, rbracketToken:
		return !inLink
	}
	return false
}

// fallbackText takes the longest run of non-whitespace as literal text.
func (p *parser) fallbackText(pos int) match {
	end := pos
	for end < len(p.tokens) && !isBreakToken(p.tokens[end].Type) {
		end++
	}
	if end == pos {
		return noMatch
	}
	return match{node: Text{Value: p.join(pos, end)}, end: end, ok: true}
}

func isBreakToken(tt lexer.TokenType) bool {
	return tt == whitespaceToken || tt == newlineToken || tt == nbspToken
}

func (p *parser) join(start, end int) string {
	if end-start == 1 {
		return p.tokens[start].Value
	}
	var b strings.Builder
	for _, tok := range p.tokens[start:end] {
		b.WriteString(tok.Value)
	}
	return b.String()
}

// runEnd returns the first position at or after start where no item of scope
// matches. Every position passed on the way shares the same answer.
func (p *parser) runEnd(sc scope, start int) int {
	if end, ok := p.runEnds[itemKey{sc, start}]; ok {
		return end
	}
	var visited []int
	pos := start
	for {
		if end, ok := p.runEnds[itemKey{sc, pos}]; ok {
			pos = end
			break
		}
		m := p.item(sc, pos)
		if !m.ok {
			break
		}
		visited = append(visited, pos)
		pos = m.end
	}
	p.runEnds[itemKey{sc, start}] = pos
	for _, v := range visited {
		p.runEnds[itemKey{sc, v}] = pos
	}
	return pos
}

func (p *parser) rule(r rule, pos int) match {
	key := ruleKey{r, pos}
	if m, ok := p.rules[key]; ok {
		return m
	}
	var m match
	switch r {
	case ruleDetailOnDemand:
		m = p.detailOnDemand(pos)
	case ruleLink:
		m = p.link(pos)
	case ruleBold:
		m = p.delimited(pos, strongToken, scopeBold, func(s, e int) Node {
			return Bold{Children: collect[BoldContent](p, scopeBold, s, e)}
		})
	case ruleItalic:
		m = p.delimited(pos, underscoreToken, scopeItalic, func(s, e int) Node {
			return Italic{Children: collect[ItalicContent](p, scopeItalic, s, e)}
		})
	case rulePlainBold:
		m = p.delimited(pos, strongToken, scopePlain, func(s, e int) Node {
			return PlainBold{Children: collect[PlainContent](p, scopePlain, s, e)}
		})
	case rulePlainItalic:
		m = p.delimited(pos, underscoreToken, scopePlain, func(s, e int) Node {
			return PlainItalic{Children: collect[PlainContent](p, scopePlain, s, e)}
		})
	case ruleBoldWithoutItalic:
		m = p.delimited(pos, strongToken, scopeUnstyled, func(s, e int) Node {
			return BoldWithoutItalic{Children: collect[UnstyledContent](p, scopeUnstyled, s, e)}
		})
	case ruleItalicWithoutBold:
		m = p.delimited(pos, underscoreToken, scopeUnstyled, func(s, e int) Node {
			return ItalicWithoutBold{Children: collect[UnstyledContent](p, scopeUnstyled, s, e)}
		})
	}
	p.rules[key] = m
	return m
}

// delimited matches delim, at least one item of sc, and delim again.
func (p *parser) delimited(pos int, delim lexer.TokenType, sc scope, build func(start, end int) Node) match {
	if !p.is(pos, delim) {
		return noMatch
	}
	end := p.runEnd(sc, pos+1)
	if end == pos+1 || !p.is(end, delim) {
		return noMatch
	}
	return match{node: build(pos+1, end), end: end + 1, ok: true}
}

// bracketed matches `[content](target)` and returns the content bounds and the
// raw target.
func (p *parser) bracketed(pos int) (start, end int, target string, next int, ok bool) {
	if !p.is(pos, lbracketToken) {
		return 0, 0, "", 0, false
	}
	start = pos + 1
	end = p.runEnd(scopeLink, start)
	if end == start || !p.is(end, rbracketToken) || !p.is(end+1, lparenToken) {
		return 0, 0, "", 0, false
	}
	i := end + 2
	for i < len(p.tokens) && !p.is(i, rparenToken) {
		switch p.tokens[i].Type {
		case whitespaceToken, newlineToken, nbspToken, lparenToken:
			return 0, 0, "", 0, false
		}
		i++
	}
	if !p.is(i, rparenToken) || i == end+2 {
		return 0, 0, "", 0, false
	}
	return start, end, p.join(end+2, i), i + 1, true
}

func (p *parser) link(pos int) match {
	start, end, href, next, ok := p.bracketed(pos)
	if !ok || !isHref(href) {
		return noMatch
	}
	return match{
		node: Link{Href: href, Children: collect[LinkContent](p, scopeLink, start, end)},
		end:  next,
		ok:   true,
	}
}

func (p *parser) detailOnDemand(pos int) match {
	start, end, target, next, ok := p.bracketed(pos)
	if !ok {
		return noMatch
	}
	term, category, ok := ParseDetailTarget(target)
	if !ok {
		return noMatch
	}
	return match{
		node: DetailOnDemand{
			Term:     term,
			Category: category,
			Children: collect[LinkContent](p, scopeLink, start, end),
		},
		end: next,
		ok:  true,
	}
}

func isHref(href string) bool {
	return strings.HasPrefix(href, "/") || hrefURLPattern.MatchString(href)
}

// ParseDetailTarget resolves both detail reference syntaxes:
//
//	#dod:term
//	hover::category::term
//
// The second form may omit the category.
func ParseDetailTarget(target string) (term, category string, ok bool) {
	if rest, found := strings.CutPrefix(target, "#dod:"); found {
		if rest == "" || strings.Contains(rest, "::") {
			return "", "", false
		}
		return rest, "", true
	}
	rest, found := strings.CutPrefix(target, "hover::")
	if !found {
		return "", "", false
	}
	parts := strings.Split(rest, "::")
	switch len(parts) {
	case 1:
		if parts[0] == "" {
			return "", "", false
		}
		return parts[0], "", true
	case 2:
		if parts[0] == "" || parts[1] == "" {
			return "", "", false
		}
		return parts[1], parts[0], true
	default:
		return "", "", false
	}
}

// collect rebuilds the items between start and end. Every item there already
// matched during runEnd, so the lookups hit the memo table.
func collect[T Node](p *parser, sc scope, start, end int) []T {
	out := make([]T, 0, end-start)
	for pos := start; pos < end; {
		m := p.item(sc, pos)
		out = append(out, m.node.(T))
		pos = m.end
	}
	return out
}

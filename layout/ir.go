package layout

import (
	"strings"
	"sync"
)

// Token is a node of the intermediate representation. Every token knows its
// font and its own rendered width. The set of token types is closed.
type Token interface {
	Width() float64
	Font() FontParams
	Plaintext() string
	token()
}

// Kind enumerates the element types. It mirrors the markdown element nodes.
type Kind uint8

const (
	KindBold Kind = iota + 1
	KindItalic
	KindPlainBold
	KindPlainItalic
	KindBoldWithoutItalic
	KindItalicWithoutBold
	KindLink
	KindDetailOnDemand
)

var kindNames = map[Kind]string{
	KindBold:              "bold",
	KindItalic:            "italic",
	KindPlainBold:         "plain-bold",
	KindPlainItalic:       "plain-italic",
	KindBoldWithoutItalic: "bold-without-italic",
	KindItalicWithoutBold: "italic-without-bold",
	KindLink:              "link",
	KindDetailOnDemand:    "detail-on-demand",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// IsBold reports whether the kind switches to the bold weight.
func (k Kind) IsBold() bool {
	return k == KindBold || k == KindPlainBold || k == KindBoldWithoutItalic
}

// IsItalic reports whether the kind switches to italic.
func (k Kind) IsItalic() bool {
	return k == KindItalic || k == KindPlainItalic || k == KindItalicWithoutBold
}

// Text is a literal run.
type Text struct {
	Value string
	font  FontParams
	m     *Meter
}

// Whitespace is a breakable space.
type Whitespace struct {
	font FontParams
	m    *Meter
}

// Newline is a hard break. It has no width.
type Newline struct {
	font FontParams
}

// PlainURL is a bare URL rendered as a link to itself.
type PlainURL struct {
	Href string
	font FontParams
	m    *Meter
}

// Superscript is a reference marker appended after a detail reference.
type Superscript struct {
	Value string
	font  FontParams
	m     *Meter
}

// Element wraps styled or linked children.
type Element struct {
	Kind     Kind
	Href     string
	Term     string
	Category string
	Children []Token

	font FontParams
	m    *Meter
	// origin 指向编译时产生的元素，断行得到的各个片段共享同一个 origin
	origin *Element
	once   sync.Once
	width  float64
}

func (*Text) token()        {}
func (*Whitespace) token()  {}
func (*Newline) token()     {}
func (*PlainURL) token()    {}
func (*Superscript) token() {}
func (*Element) token()     {}

func (t *Text) Width() float64        { return t.m.Width(t.Value, t.font) }
func (t *Whitespace) Width() float64  { return t.m.Width(" ", t.font) }
func (t *Newline) Width() float64     { return 0 }
func (t *PlainURL) Width() float64    { return t.m.Width(t.Href, t.font) }
func (t *Superscript) Width() float64 { return t.m.Width(t.Value, t.font) }

func (e *Element) Width() float64 {
	e.once.Do(func() {
		e.width = TotalWidth(e.Children)
	})
	return e.width
}

func (t *Text) Font() FontParams        { return t.font }
func (t *Whitespace) Font() FontParams  { return t.font }
func (t *Newline) Font() FontParams     { return t.font }
func (t *PlainURL) Font() FontParams    { return t.font }
func (t *Superscript) Font() FontParams { return t.font }
func (e *Element) Font() FontParams     { return e.font }

func (t *Text) Plaintext() string        { return t.Value }
func (t *Whitespace) Plaintext() string  { return " " }
func (t *Newline) Plaintext() string     { return "\n" }
func (t *PlainURL) Plaintext() string    { return t.Href }
func (t *Superscript) Plaintext() string { return t.Value }
func (e *Element) Plaintext() string     { return Plaintext(e.Children) }

// Height is the marker's font size; renderers use it to raise the marker.
func (t *Superscript) Height() float64 { return t.font.Size }

// withChildren returns a copy of e holding children instead. The original is
// left untouched.
func (e *Element) withChildren(children []Token) *Element {
	return &Element{
		Kind:     e.Kind,
		Href:     e.Href,
		Term:     e.Term,
		Category: e.Category,
		Children: children,
		font:     e.font,
		m:        e.m,
		origin:   e.source(),
	}
}

// source returns the element e was cloned from, or e itself.
func (e *Element) source() *Element {
	if e.origin != nil {
		return e.origin
	}
	return e
}

// TotalWidth sums the widths of tokens.
func TotalWidth(tokens []Token) float64 {
	var w float64
	for _, tok := range tokens {
		w += tok.Width()
	}
	return w
}

// Plaintext concatenates the plaintext of tokens.
func Plaintext(tokens []Token) string {
	var b strings.Builder
	for _, tok := range tokens {
		b.WriteString(tok.Plaintext())
	}
	return b.String()
}

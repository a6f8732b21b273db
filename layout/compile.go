package layout

import (
	"github.com/ByLCY/markwrap/markdown"
)

// Compile converts parsed nodes into IR tokens in one depth-first pass. Fonts
// change only at bold and italic boundaries; widths are measured lazily
// through m.
func Compile(nodes []markdown.Node, base FontParams, m *Meter) []Token {
	out := make([]Token, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, compileNode(n, base, m))
	}
	return out
}

func compileNode(n markdown.Node, font FontParams, m *Meter) Token {
	switch n := n.(type) {
	case markdown.Text:
		return &Text{Value: n.Value, font: font, m: m}
	case markdown.Whitespace:
		return &Whitespace{font: font, m: m}
	case markdown.Newline:
		return &Newline{font: font}
	case markdown.PlainURL:
		return &PlainURL{Href: n.Href, font: font, m: m}
	case markdown.Link:
		return compileElement(&Element{Kind: KindLink, Href: n.Href}, markdown.Children(n), font, m)
	case markdown.DetailOnDemand:
		return compileElement(&Element{Kind: KindDetailOnDemand, Term: n.Term, Category: n.Category}, markdown.Children(n), font, m)
	case markdown.Bold:
		return compileElement(&Element{Kind: KindBold}, markdown.Children(n), font, m)
	case markdown.Italic:
		return compileElement(&Element{Kind: KindItalic}, markdown.Children(n), font, m)
	case markdown.PlainBold:
		return compileElement(&Element{Kind: KindPlainBold}, markdown.Children(n), font, m)
	case markdown.PlainItalic:
		return compileElement(&Element{Kind: KindPlainItalic}, markdown.Children(n), font, m)
	case markdown.BoldWithoutItalic:
		return compileElement(&Element{Kind: KindBoldWithoutItalic}, markdown.Children(n), font, m)
	case markdown.ItalicWithoutBold:
		return compileElement(&Element{Kind: KindItalicWithoutBold}, markdown.Children(n), font, m)
	default:
		// 未知节点按纯文本处理
		return &Text{Value: markdown.Plaintext([]markdown.Node{n}), font: font, m: m}
	}
}

func compileElement(e *Element, children []markdown.Node, font FontParams, m *Meter) *Element {
	if e.Kind.IsBold() {
		font = font.withBold()
	}
	if e.Kind.IsItalic() {
		font = font.withItalic()
	}
	e.font = font
	e.m = m
	e.Children = Compile(children, font, m)
	return e
}

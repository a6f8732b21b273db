// Package markup converts laid out lines into a nested markup tree and
// serialises it as HTML.
package markup

import (
	"bytes"
	"fmt"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/ByLCY/markwrap/layout"
	"github.com/ByLCY/markwrap/renderer"
)

// DetailClass is the class attribute of detail reference spans.
const DetailClass = "dod-span"

// Node is a markup tree node: *Element, Text or LineBreak.
type Node interface {
	node()
}

// Element is a wrapper such as strong, em, a or span.
type Element struct {
	Tag      atom.Atom
	Attrs    []html.Attribute
	Children []Node
}

// Text is literal text.
type Text struct {
	Value string
}

// LineBreak separates two lines.
type LineBreak struct{}

func (*Element) node()  {}
func (Text) node()      {}
func (LineBreak) node() {}

// Attr returns the value of the named attribute.
func (e *Element) Attr(key string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// Render builds the markup tree of res, with a LineBreak between lines.
func Render(res *layout.Result) []Node {
	return RenderLines(res.Lines)
}

// RenderLines is Render for bare lines.
func RenderLines(lines [][]layout.Token) []Node {
	var out []Node
	for i, line := range lines {
		if i > 0 {
			out = append(out, LineBreak{})
		}
		out = append(out, convert(line)...)
	}
	return out
}

func convert(tokens []layout.Token) []Node {
	out := make([]Node, 0, len(tokens))
	for _, tok := range tokens {
		switch t := tok.(type) {
		case *layout.Element:
			out = append(out, element(t))
		case *layout.PlainURL:
			out = append(out, anchor(t.Href, []Node{Text{Value: t.Href}}))
		case *layout.Superscript:
			out = append(out, &Element{Tag: atom.Sup, Children: []Node{Text{Value: t.Value}}})
		case *layout.Newline:
			out = append(out, LineBreak{})
		default:
			out = append(out, Text{Value: tok.Plaintext()})
		}
	}
	return out
}

func element(e *layout.Element) Node {
	children := convert(e.Children)
	switch {
	case e.Kind.IsBold():
		return &Element{Tag: atom.Strong, Children: children}
	case e.Kind.IsItalic():
		return &Element{Tag: atom.Em, Children: children}
	case e.Kind == layout.KindLink:
		return anchor(e.Href, children)
	case e.Kind == layout.KindDetailOnDemand:
		attrs := []html.Attribute{
			{Key: "class", Val: DetailClass},
			{Key: "data-id", Val: e.Term},
		}
		if e.Category != "" {
			attrs = append(attrs, html.Attribute{Key: "data-category", Val: e.Category})
		}
		return &Element{Tag: atom.Span, Attrs: attrs, Children: children}
	default:
		return &Element{Tag: atom.Span, Children: children}
	}
}

func anchor(href string, children []Node) *Element {
	return &Element{
		Tag: atom.A,
		Attrs: []html.Attribute{
			{Key: "href", Val: href},
			{Key: "target", Val: "_blank"},
			{Key: "rel", Val: "noopener"},
		},
		Children: children,
	}
}

// HTMLNodes converts the tree into x/net/html nodes.
func HTMLNodes(nodes []Node) []*html.Node {
	out := make([]*html.Node, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, htmlNode(n))
	}
	return out
}

func htmlNode(n Node) *html.Node {
	switch n := n.(type) {
	case *Element:
		hn := &html.Node{
			Type:     html.ElementNode,
			DataAtom: n.Tag,
			Data:     n.Tag.String(),
			Attr:     append([]html.Attribute(nil), n.Attrs...),
		}
		for _, c := range n.Children {
			hn.AppendChild(htmlNode(c))
		}
		return hn
	case Text:
		return &html.Node{Type: html.TextNode, Data: n.Value}
	default:
		return &html.Node{Type: html.ElementNode, DataAtom: atom.Br, Data: atom.Br.String()}
	}
}

// HTML serialises nodes. Text is escaped by x/net/html.
func HTML(nodes []Node) (string, error) {
	var buf bytes.Buffer
	for _, hn := range HTMLNodes(nodes) {
		if err := html.Render(&buf, hn); err != nil {
			return "", fmt.Errorf("markup: render html: %w", err)
		}
	}
	return buf.String(), nil
}

// Renderer 输出 HTML 片段，实现 renderer.Renderer。
type Renderer struct{}

var _ renderer.Renderer = Renderer{}

func (Renderer) Render(res *layout.Result) ([]byte, error) {
	if res == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	s, err := HTML(Render(res))
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

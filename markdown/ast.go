package markdown

import "strings"

// Node is an inline node produced by Parse. The set of node types is closed:
// every consumer switches over the concrete types below.
type Node interface {
	node()
}

// LinkContent may appear inside a Link or a DetailOnDemand.
type LinkContent interface {
	Node
	linkContent()
}

// BoldContent may appear inside a Bold.
type BoldContent interface {
	Node
	boldContent()
}

// ItalicContent may appear inside an Italic.
type ItalicContent interface {
	Node
	italicContent()
}

// UnstyledContent may appear inside BoldWithoutItalic and ItalicWithoutBold,
// the second nesting level where neither style can be opened again.
type UnstyledContent interface {
	Node
	unstyledContent()
}

// PlainContent may appear inside PlainBold and PlainItalic.
type PlainContent interface {
	Node
	plainContent()
}

// Text is a literal run of characters.
type Text struct {
	Value string
}

// Whitespace is a breakable run of horizontal whitespace.
type Whitespace struct{}

// Newline is a hard line break.
type Newline struct{}

// PlainURL is a bare URL detected in running text.
type PlainURL struct {
	Href string
}

// Link is `[children](href)`.
type Link struct {
	Href     string
	Children []LinkContent
}

// DetailOnDemand is `[children](#dod:term)` or `[children](hover::category::term)`.
type DetailOnDemand struct {
	Term     string
	Category string
	Children []LinkContent
}

// Bold is `**children**`.
type Bold struct {
	Children []BoldContent
}

// Italic is `_children_`.
type Italic struct {
	Children []ItalicContent
}

// PlainBold is bold text inside a link or detail reference.
type PlainBold struct {
	Children []PlainContent
}

// PlainItalic is italic text inside a link or detail reference.
type PlainItalic struct {
	Children []PlainContent
}

// BoldWithoutItalic is bold nested inside an Italic.
type BoldWithoutItalic struct {
	Children []UnstyledContent
}

// ItalicWithoutBold is italic nested inside a Bold.
type ItalicWithoutBold struct {
	Children []UnstyledContent
}

func (Text) node()              {}
func (Whitespace) node()        {}
func (Newline) node()           {}
func (PlainURL) node()          {}
func (Link) node()              {}
func (DetailOnDemand) node()    {}
func (Bold) node()              {}
func (Italic) node()            {}
func (PlainBold) node()         {}
func (PlainItalic) node()       {}
func (BoldWithoutItalic) node() {}
func (ItalicWithoutBold) node() {}

func (Text) linkContent()        {}
func (Whitespace) linkContent()  {}
func (Newline) linkContent()     {}
func (PlainBold) linkContent()   {}
func (PlainItalic) linkContent() {}

func (Text) boldContent()              {}
func (Whitespace) boldContent()        {}
func (Newline) boldContent()           {}
func (PlainURL) boldContent()          {}
func (Link) boldContent()              {}
func (DetailOnDemand) boldContent()    {}
func (ItalicWithoutBold) boldContent() {}

func (Text) italicContent()              {}
func (Whitespace) italicContent()        {}
func (Newline) italicContent()           {}
func (PlainURL) italicContent()          {}
func (Link) italicContent()              {}
func (DetailOnDemand) italicContent()    {}
func (BoldWithoutItalic) italicContent() {}

func (Text) unstyledContent()           {}
func (Whitespace) unstyledContent()     {}
func (Newline) unstyledContent()        {}
func (PlainURL) unstyledContent()       {}
func (Link) unstyledContent()           {}
func (DetailOnDemand) unstyledContent() {}

func (Text) plainContent()       {}
func (Whitespace) plainContent() {}
func (Newline) plainContent()    {}

// Children returns the child nodes of n, or nil for leaves.
func Children(n Node) []Node {
	switch n := n.(type) {
	case Link:
		return upcast(n.Children)
	case DetailOnDemand:
		return upcast(n.Children)
	case Bold:
		return upcast(n.Children)
	case Italic:
		return upcast(n.Children)
	case PlainBold:
		return upcast(n.Children)
	case PlainItalic:
		return upcast(n.Children)
	case BoldWithoutItalic:
		return upcast(n.Children)
	case ItalicWithoutBold:
		return upcast(n.Children)
	default:
		return nil
	}
}

// KindOf returns a stable name for the node type.
func KindOf(n Node) string {
	switch n.(type) {
	case Text:
		return "text"
	case Whitespace:
		return "whitespace"
	case Newline:
		return "newline"
	case PlainURL:
		return "plain-url"
	case Link:
		return "link"
	case DetailOnDemand:
		return "detail-on-demand"
	case Bold:
		return "bold"
	case Italic:
		return "italic"
	case PlainBold:
		return "plain-bold"
	case PlainItalic:
		return "plain-italic"
	case BoldWithoutItalic:
		return "bold-without-italic"
	case ItalicWithoutBold:
		return "italic-without-bold"
	default:
		return "unknown"
	}
}

// Plaintext flattens nodes into the text a reader would see, with every
// whitespace run collapsed into one space.
func Plaintext(nodes []Node) string {
	var b strings.Builder
	writePlaintext(&b, nodes)
	return b.String()
}

func writePlaintext(b *strings.Builder, nodes []Node) {
	for _, n := range nodes {
		switch n := n.(type) {
		case Text:
			b.WriteString(n.Value)
		case Whitespace:
			b.WriteByte(' ')
		case Newline:
			b.WriteByte('\n')
		case PlainURL:
			b.WriteString(n.Href)
		default:
			writePlaintext(b, Children(n))
		}
	}
}

// TreeNode is a JSON friendly view of a Node.
type TreeNode struct {
	Type     string     `json:"type"`
	Value    string     `json:"value,omitempty"`
	Href     string     `json:"href,omitempty"`
	Term     string     `json:"term,omitempty"`
	Category string     `json:"category,omitempty"`
	Children []TreeNode `json:"children,omitempty"`
}

// Tree converts nodes into TreeNode values for debugging output.
func Tree(nodes []Node) []TreeNode {
	out := make([]TreeNode, 0, len(nodes))
	for _, n := range nodes {
		tn := TreeNode{Type: KindOf(n)}
		switch n := n.(type) {
		case Text:
			tn.Value = n.Value
		case PlainURL:
			tn.Href = n.Href
		case Link:
			tn.Href = n.Href
		case DetailOnDemand:
			tn.Term = n.Term
			tn.Category = n.Category
		}
		if children := Children(n); len(children) > 0 {
			tn.Children = Tree(children)
		}
		out = append(out, tn)
	}
	return out
}

func upcast[T Node](children []T) []Node {
	out := make([]Node, len(children))
	for i, c := range children {
		out[i] = c
	}
	return out
}

package layout

import (
	"encoding/json"
	"os"
)

// TokenView is a JSON friendly view of a Token.
type TokenView struct {
	Type     string      `json:"type"`
	Text     string      `json:"text,omitempty"`
	Href     string      `json:"href,omitempty"`
	Term     string      `json:"term,omitempty"`
	Width    float64     `json:"width"`
	Font     FontParams  `json:"font"`
	Children []TokenView `json:"children,omitempty"`
}

// DebugView 是 WriteDebugJSON 输出的顶层结构。
type DebugView struct {
	*Result
	LineWidths []float64     `json:"lineWidths"`
	Lines      [][]TokenView `json:"lines"`
}

// Tokens converts tokens into TokenView values.
func Tokens(tokens []Token) []TokenView {
	out := make([]TokenView, 0, len(tokens))
	for _, tok := range tokens {
		v := TokenView{Width: tok.Width(), Font: tok.Font()}
		switch t := tok.(type) {
		case *Text:
			v.Type, v.Text = "text", t.Value
		case *Whitespace:
			v.Type = "whitespace"
		case *Newline:
			v.Type = "newline"
		case *PlainURL:
			v.Type, v.Href = "plain-url", t.Href
		case *Superscript:
			v.Type, v.Text = "superscript", t.Value
		case *Element:
			v.Type, v.Href, v.Term = t.Kind.String(), t.Href, t.Term
			v.Children = Tokens(t.Children)
		}
		out = append(out, v)
	}
	return out
}

// NewDebugView builds the debug view of res, with reference markers applied.
func NewDebugView(res *Result) DebugView {
	lines := res.LinesWithReferences()
	view := DebugView{Result: res, LineWidths: res.LineWidths(), Lines: make([][]TokenView, len(lines))}
	for i, line := range lines {
		view.Lines[i] = Tokens(line)
	}
	return view
}

// WriteDebugJSON 将布局结果输出为 JSON，便于调试或可视化。
func WriteDebugJSON(res *Result, path string) error {
	if res == nil {
		return nil
	}
	data, err := json.MarshalIndent(NewDebugView(res), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

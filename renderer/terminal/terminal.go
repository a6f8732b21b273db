// Package terminal lays out text in character cells and previews it with
// ANSI styling.
package terminal

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/ansi"

	"github.com/ByLCY/markwrap/layout"
	"github.com/ByLCY/markwrap/renderer"
)

// Measurer measures text in terminal cells. Font parameters are ignored, every
// cell is one unit wide and one unit high, so a Build with FontSize 1 and
// LineHeight 1 breaks lines at MaxWidth columns.
type Measurer struct{}

var _ layout.Measurer = Measurer{}

func (Measurer) Measure(text string, _ layout.FontParams) (layout.Metrics, error) {
	return layout.Metrics{Width: float64(ansi.PrintableRuneWidth(text)), Height: 1}, nil
}

// Input returns a layout input that fits text into cols terminal columns.
func Input(text string, cols int) layout.Input {
	return layout.Input{Text: text, FontSize: 1, LineHeight: 1, MaxWidth: float64(cols)}
}

// Styles used by the preview.
type Styles struct {
	Bold        lipgloss.Style
	Italic      lipgloss.Style
	Link        lipgloss.Style
	Detail      lipgloss.Style
	Superscript lipgloss.Style
}

// DefaultStyles returns the styles used when colour is enabled.
func DefaultStyles() Styles {
	return Styles{
		Bold:        lipgloss.NewStyle().Bold(true),
		Italic:      lipgloss.NewStyle().Italic(true),
		Link:        lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Underline(true),
		Detail:      lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Underline(true),
		Superscript: lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// Renderer writes lines as ANSI text, one terminal row per line.
type Renderer struct {
	Styles Styles
	// NoColor 为 true 时输出纯文本，上标仍转换为 Unicode 上标字符
	NoColor bool
	// ReferenceTerms overrides the result's terms; nil keeps them.
	ReferenceTerms []string
}

var _ renderer.Renderer = (*Renderer)(nil)

// NewRenderer returns a renderer with DefaultStyles.
func NewRenderer(noColor bool) *Renderer {
	return &Renderer{Styles: DefaultStyles(), NoColor: noColor}
}

func (r *Renderer) Render(res *layout.Result) ([]byte, error) {
	if res == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	if err := res.Err(); err != nil {
		return nil, err
	}
	terms := r.ReferenceTerms
	if terms == nil {
		terms = res.ReferenceTerms
	}
	lines := res.Lines
	if len(terms) > 0 {
		lines = layout.AppendReferenceSuperscripts(lines, terms)
	}
	out := r.RenderLines(lines)
	if out == "" {
		return nil, nil
	}
	return []byte(out + "\n"), nil
}

// RenderLines joins the styled lines with "\n".
func (r *Renderer) RenderLines(lines [][]layout.Token) string {
	rows := make([]string, len(lines))
	for i, line := range lines {
		var b strings.Builder
		r.write(&b, line)
		rows[i] = b.String()
	}
	return strings.Join(rows, "\n")
}

func (r *Renderer) write(b *strings.Builder, tokens []layout.Token) {
	for _, tok := range tokens {
		switch t := tok.(type) {
		case *layout.Element:
			var inner strings.Builder
			r.write(&inner, t.Children)
			b.WriteString(r.style(t.Kind, inner.String()))
		case *layout.PlainURL:
			b.WriteString(r.apply(r.Styles.Link, t.Href))
		case *layout.Superscript:
			b.WriteString(r.apply(r.Styles.Superscript, Superscript(t.Value)))
		case *layout.Newline:
		default:
			b.WriteString(tok.Plaintext())
		}
	}
}

func (r *Renderer) style(kind layout.Kind, s string) string {
	switch {
	case kind.IsBold():
		return r.apply(r.Styles.Bold, s)
	case kind.IsItalic():
		return r.apply(r.Styles.Italic, s)
	case kind == layout.KindLink:
		return r.apply(r.Styles.Link, s)
	case kind == layout.KindDetailOnDemand:
		return r.apply(r.Styles.Detail, s)
	}
	return s
}

func (r *Renderer) apply(st lipgloss.Style, s string) string {
	if r.NoColor || s == "" {
		return s
	}
	return st.Render(s)
}

var superscriptDigits = strings.NewReplacer(
	"0", "⁰", "1", "¹", "2", "²", "3", "³", "4", "⁴",
	"5", "⁵", "6", "⁶", "7", "⁷", "8", "⁸", "9", "⁹",
)

// Superscript maps ASCII digits to their Unicode superscript forms.
func Superscript(s string) string {
	return superscriptDigits.Replace(s)
}

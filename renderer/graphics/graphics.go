// Package graphics 把断行后的结果转换为带坐标的文本片段树，供矢量图形后端绘制。
package graphics

import (
	"strings"

	"github.com/ByLCY/markwrap/layout"
)

// SuperscriptRise is how far a reference marker is raised, relative to the
// font size of the text it follows.
const SuperscriptRise = 0.4

// DetailsMarker selects how detail references are decorated.
type DetailsMarker string

const (
	MarkerSuperscript DetailsMarker = "superscript"
	MarkerNone        DetailsMarker = "none"
)

// Options tunes Render.
type Options struct {
	// DetailsMarker 为空时等同于 MarkerSuperscript。
	DetailsMarker DetailsMarker
	// ReferenceTerms overrides the terms stored in the result when non-nil.
	ReferenceTerms []string
}

// Run is a positioned piece of a line: *Span, *Group or *Sup.
type Run interface {
	run()
}

// Span is plain text starting at X. Width is in points.
type Span struct {
	X     float64
	Width float64
	Text  string
	Font  layout.FontParams
}

// Group wraps styled or linked runs. Kind is the layout element kind name, or
// "plain-url" for a bare URL.
type Group struct {
	Kind     string
	Href     string
	Term     string
	Font     layout.FontParams
	X        float64
	Width    float64
	Children []Run
}

// Sup is a superscript reference marker. Dy is the vertical offset from the
// baseline; negative values go up.
type Sup struct {
	X     float64
	Width float64
	Text  string
	Font  layout.FontParams
	Dy    float64
}

func (*Span) run()  {}
func (*Group) run() {}
func (*Sup) run()   {}

// Line is one laid out line. Y is the top of the line box.
type Line struct {
	Index int
	X     float64
	Y     float64
	Width float64
	Runs  []Run
}

// Text is the run tree of a whole result, anchored at (X, Y).
type Text struct {
	X          float64
	Y          float64
	Font       layout.FontParams
	FontSize   float64
	LineHeight float64
	Width      float64
	Height     float64
	Lines      []Line
}

// Render positions the lines of res at (x, y). Line i sits at
// y + i*lineHeight*fontSize.
func Render(res *layout.Result, x, y float64, opts Options) (*Text, error) {
	lines := res.Lines
	if opts.DetailsMarker != MarkerNone {
		terms := opts.ReferenceTerms
		if terms == nil {
			terms = res.ReferenceTerms
		}
		if len(terms) > 0 {
			lines = layout.AppendReferenceSuperscripts(lines, terms)
		}
	}

	out := &Text{
		X:          x,
		Y:          y,
		Font:       res.Font,
		FontSize:   res.FontSize,
		LineHeight: res.LineHeight,
		Height:     res.Height,
		Lines:      make([]Line, len(lines)),
	}
	step := res.LineStep()
	for i, line := range lines {
		cursor := x
		runs := convert(line, &cursor)
		out.Lines[i] = Line{
			Index: i,
			X:     x,
			Y:     y + float64(i)*step,
			Width: cursor - x,
			Runs:  runs,
		}
		if out.Lines[i].Width > out.Width {
			out.Width = out.Lines[i].Width
		}
	}
	if err := res.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func convert(tokens []layout.Token, cursor *float64) []Run {
	runs := make([]Run, 0, len(tokens))
	for _, tok := range tokens {
		start := *cursor
		switch t := tok.(type) {
		case *layout.Element:
			children := convert(t.Children, cursor)
			runs = append(runs, &Group{
				Kind:     t.Kind.String(),
				Href:     t.Href,
				Term:     t.Term,
				Font:     t.Font(),
				X:        start,
				Width:    *cursor - start,
				Children: children,
			})
			continue
		case *layout.PlainURL:
			w := t.Width()
			runs = append(runs, &Group{
				Kind:     "plain-url",
				Href:     t.Href,
				Font:     t.Font(),
				X:        start,
				Width:    w,
				Children: []Run{&Span{X: start, Width: w, Text: t.Href, Font: t.Font()}},
			})
			*cursor += w
			continue
		case *layout.Superscript:
			w := t.Width()
			runs = append(runs, &Sup{
				X:     start,
				Width: w,
				Text:  t.Value,
				Font:  t.Font(),
				Dy:    -SuperscriptRise * t.Height() / layout.SuperscriptScale,
			})
			*cursor += w
			continue
		case *layout.Newline:
			continue
		}
		w := tok.Width()
		runs = append(runs, &Span{X: start, Width: w, Text: tok.Plaintext(), Font: tok.Font()})
		*cursor += w
	}
	return runs
}

// Plaintext returns the text of t, one line per Line.
func Plaintext(t *Text) string {
	parts := make([]string, len(t.Lines))
	for i, line := range t.Lines {
		var b strings.Builder
		writeRuns(&b, line.Runs)
		parts[i] = b.String()
	}
	return strings.Join(parts, "\n")
}

func writeRuns(b *strings.Builder, runs []Run) {
	for _, r := range runs {
		switch r := r.(type) {
		case *Span:
			b.WriteString(r.Text)
		case *Sup:
			b.WriteString(r.Text)
		case *Group:
			writeRuns(b, r.Children)
		}
	}
}

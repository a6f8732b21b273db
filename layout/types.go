package layout

// 该文件定义布局输入、输出与字体参数，供断行、渲染与调试 JSON 共用。

import (
	"math"
	"strings"
)

// Font weights used by the compiler.
const (
	WeightRegular = 400
	WeightBold    = 700
)

// DefaultLineHeight is the line height factor used when Input leaves it zero.
const DefaultLineHeight = 1.1

// SuperscriptScale shrinks reference markers relative to the text they follow.
const SuperscriptScale = 0.6

// FontParams identifies a font for measurement. Size is in points.
type FontParams struct {
	Size   float64 `json:"size"`
	Weight int     `json:"weight"`
	Family string  `json:"family,omitempty"`
	Italic bool    `json:"italic,omitempty"`
}

// IsBold reports whether the weight is heavier than regular.
func (f FontParams) IsBold() bool { return f.Weight >= WeightBold }

func (f FontParams) withBold() FontParams {
	f.Weight = WeightBold
	return f
}

func (f FontParams) withItalic() FontParams {
	f.Italic = true
	return f
}

func (f FontParams) scaled(k float64) FontParams {
	f.Size *= k
	return f
}

// Metrics is what a Measurer reports for a string.
type Metrics struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Breakpoint marks a place where a token sequence may wrap.
//
// TokenIndex is the token containing the break, TokenStartOffset the width of
// everything before that token and BreakOffset the width up to the break
// itself. A break right before a whitespace token carries BreakpointEpsilon so
// it is never confused with an offset of zero.
type Breakpoint struct {
	TokenIndex       int     `json:"tokenIndex"`
	TokenStartOffset float64 `json:"tokenStartOffset"`
	BreakOffset      float64 `json:"breakOffset"`
}

// BreakpointEpsilon is the offset of a break in front of a whitespace token.
const BreakpointEpsilon = 0.0001

// Input describes one block of text to lay out.
type Input struct {
	Text       string  `json:"text" yaml:"text"`
	FontSize   float64 `json:"fontSize" yaml:"font-size"`
	FontFamily string  `json:"fontFamily,omitempty" yaml:"font-family"`
	FontWeight int     `json:"fontWeight,omitempty" yaml:"font-weight"`
	// LineHeight 为行高倍数，0 表示 DefaultLineHeight。
	LineHeight float64 `json:"lineHeight,omitempty" yaml:"line-height"`
	// MaxWidth 以 pt 为单位，<= 0 表示不限宽。
	MaxWidth       float64  `json:"maxWidth,omitempty" yaml:"max-width"`
	ReferenceTerms []string `json:"referenceTerms,omitempty" yaml:"reference-terms"`
}

func (in Input) baseFont() FontParams {
	weight := in.FontWeight
	if weight == 0 {
		weight = WeightRegular
	}
	return FontParams{Size: in.FontSize, Weight: weight, Family: in.FontFamily}
}

func (in Input) lineHeight() float64 {
	if in.LineHeight <= 0 {
		return DefaultLineHeight
	}
	return in.LineHeight
}

func (in Input) maxWidth() float64 {
	if in.MaxWidth <= 0 || math.IsNaN(in.MaxWidth) {
		return math.Inf(1)
	}
	return in.MaxWidth
}

// Result 保存断行后的行与派生的尺寸信息。
type Result struct {
	Lines          [][]Token  `json:"-"`
	Font           FontParams `json:"font"`
	FontSize       float64    `json:"fontSize"`
	LineHeight     float64    `json:"lineHeight"`
	MaxWidth       float64    `json:"maxWidth"` // 0 表示不限宽
	Width          float64    `json:"width"`
	Height         float64    `json:"height"`
	Plaintext      string     `json:"plaintext"`
	ReferenceTerms []string   `json:"referenceTerms,omitempty"`

	meter *Meter
}

// LineWidths returns the measured width of every line.
func (r *Result) LineWidths() []float64 {
	out := make([]float64, len(r.Lines))
	for i, line := range r.Lines {
		out[i] = TotalWidth(line)
	}
	return out
}

// LineStep is the vertical distance between two baselines.
func (r *Result) LineStep() float64 { return r.LineHeight * r.FontSize }

// LinesWithReferences returns the lines with a numbered marker after every
// detail reference whose term is in ReferenceTerms.
func (r *Result) LinesWithReferences() [][]Token {
	if len(r.ReferenceTerms) == 0 {
		return r.Lines
	}
	return AppendReferenceSuperscripts(r.Lines, r.ReferenceTerms)
}

// Err reports the first measurement failure seen since Build, including
// failures while rendering derived tokens such as reference markers.
func (r *Result) Err() error {
	if r.meter == nil {
		return nil
	}
	return r.meter.Err()
}

func linesPlaintext(lines [][]Token) string {
	parts := make([]string, len(lines))
	for i, line := range lines {
		parts[i] = Plaintext(line)
	}
	return strings.Join(parts, "\n")
}

package layout

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/text/unicode/norm"

	"github.com/ByLCY/markwrap/logging"
	"github.com/ByLCY/markwrap/markdown"
)

var (
	// ErrNoMeasurer is returned by Build when BuildOptions has no Measurer.
	ErrNoMeasurer = errors.New("layout: no measurer configured")
	// ErrInvalidFontSize is returned by Build for a font size that is not positive.
	ErrInvalidFontSize = errors.New("layout: font size must be positive")
)

// Build 是布局入口：解析 → 编译为 IR → 断行 → 合并。
// 返回的 Result 不再被修改，调用方需要变化时重新 Build。
func Build(in Input, opts BuildOptions) (*Result, error) {
	if opts.Measurer == nil {
		return nil, ErrNoMeasurer
	}
	if !(in.FontSize > 0) || math.IsInf(in.FontSize, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFontSize, in.FontSize)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}

	text := norm.NFC.String(in.Text)
	if limit := opts.Parse.MaxStyledInput; limit < 0 || len(text) > maxStyled(limit) {
		logger.Debug("styled parsing disabled for input", logging.KeyBytes, len(text))
	}
	var nodes []markdown.Node
	if opts.ASTCache != nil {
		nodes = opts.ASTCache.Parse(text, opts.Parse)
	} else {
		nodes = markdown.ParseWithOptions(text, opts.Parse)
	}

	base := in.baseFont()
	maxWidth := in.maxWidth()
	meter := NewMeter(opts.Measurer)
	tokens := Compile(nodes, base, meter)

	broken := BreakIntoLines(tokens, maxWidth)
	lines := make([][]Token, len(broken))
	var width float64
	for i, line := range broken {
		lines[i] = Merge(line)
		w := TotalWidth(lines[i])
		if w > maxWidth {
			logger.Debug("line overflows", logging.KeyLine, i, logging.KeyWidth, w, logging.KeyMaxWidth, maxWidth)
		}
		width = math.Max(width, w)
	}
	if err := meter.Err(); err != nil {
		logger.Debug("measurement failed", logging.KeyErr, err)
		return nil, err
	}

	lineHeight := in.lineHeight()
	return &Result{
		Lines:          lines,
		Font:           base,
		FontSize:       in.FontSize,
		LineHeight:     lineHeight,
		MaxWidth:       finiteWidth(maxWidth),
		Width:          width,
		Height:         float64(len(lines)) * lineHeight * in.FontSize,
		Plaintext:      linesPlaintext(lines),
		ReferenceTerms: append([]string(nil), in.ReferenceTerms...),
		meter:          meter,
	}, nil
}

func finiteWidth(w float64) float64 {
	if math.IsInf(w, 0) {
		return 0
	}
	return w
}

func maxStyled(limit int) int {
	if limit == 0 {
		return markdown.DefaultMaxStyledInput
	}
	return limit
}

package canvasrenderer

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"strings"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"
	"github.com/tdewolff/canvas/renderers/svg"

	"github.com/ByLCY/markwrap/fonts"
	"github.com/ByLCY/markwrap/layout"
	"github.com/ByLCY/markwrap/renderer"
	"github.com/ByLCY/markwrap/renderer/graphics"
)

// ErrUnknownFamily is returned for a font family that is neither built in
// nor registered through Options.Fonts.
var ErrUnknownFamily = errors.New("canvasrenderer: unknown font family")

// Format selects the output of Render.
type Format string

const (
	FormatPDF Format = "pdf"
	FormatSVG Format = "svg"
)

// Renderer measures text and draws run trees via github.com/tdewolff/canvas.
// Layout works in points; canvas works in millimeters, conversion happens at
// this boundary only.
type Renderer struct {
	opts Options

	// canvas 的字体对象不保证并发安全，测量与绘制都在锁内进行
	fontMu   sync.Mutex
	families map[string]*canvas.FontFamily
	sources  map[string]fonts.Family
}

var (
	_ renderer.Renderer = (*Renderer)(nil)
	_ layout.Measurer   = (*Renderer)(nil)
)

// Options configures the canvas renderer.
type Options struct {
	// DefaultFamily is used when FontParams.Family is empty. Defaults to fonts.Go.
	DefaultFamily string
	// Fonts registers extra families by name, in addition to the built-in ones.
	Fonts map[string]fonts.Family
	// Format of Render, FormatPDF when empty.
	Format Format
	// Margin around the text block, in points.
	Margin float64
	// Color of text, LinkColor of links. Defaults are near-black and blue.
	Color     color.Color
	LinkColor color.Color
	Graphics  graphics.Options
	Title     string
}

// NewRenderer creates a renderer with the given options.
func NewRenderer(opts Options) *Renderer {
	if opts.DefaultFamily == "" {
		opts.DefaultFamily = fonts.Go
	}
	if opts.Format == "" {
		opts.Format = FormatPDF
	}
	if opts.Color == nil {
		opts.Color = canvas.RGBA(30.0/255.0, 30.0/255.0, 30.0/255.0, 1.0)
	}
	if opts.LinkColor == nil {
		opts.LinkColor = canvas.Hex("#1a5fb4")
	}
	r := &Renderer{
		opts:     opts,
		families: map[string]*canvas.FontFamily{},
		sources:  map[string]fonts.Family{},
	}
	for name, fam := range opts.Fonts {
		if name == "" || len(fam.Regular) == 0 {
			continue
		}
		if fam.Name == "" {
			fam.Name = name
		}
		r.sources[strings.ToLower(name)] = fam
	}
	return r
}

// Measure 实现 layout.Measurer，返回 pt 为单位的宽高。
func (r *Renderer) Measure(text string, font layout.FontParams) (layout.Metrics, error) {
	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	face, err := r.fontFace(font, r.opts.Color)
	if err != nil {
		return layout.Metrics{}, err
	}
	return layout.Metrics{
		Width:  toPt(face.TextWidth(text)),
		Height: toPt(face.Metrics().LineHeight),
	}, nil
}

// Render renders the result as PDF or SVG depending on Options.Format.
func (r *Renderer) Render(result *layout.Result) ([]byte, error) {
	switch r.opts.Format {
	case FormatSVG:
		return r.RenderSVG(result)
	case FormatPDF:
		return r.RenderPDF(result)
	default:
		return nil, fmt.Errorf("不支持的输出格式 %q", r.opts.Format)
	}
}

// RenderPDF renders the result into a single-page PDF.
func (r *Renderer) RenderPDF(result *layout.Result) ([]byte, error) {
	page, err := r.paint(result)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	writer := pdf.New(&buf, page.width, page.height, nil)
	writer.SetInfo(r.opts.Title, "", "", "", "markwrap")
	page.c.RenderTo(writer)
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderSVG renders the result into an SVG document.
func (r *Renderer) RenderSVG(result *layout.Result) ([]byte, error) {
	page, err := r.paint(result)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	writer := svg.New(&buf, page.width, page.height, nil)
	page.c.RenderTo(writer)
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 SVG 失败: %w", err)
	}
	return buf.Bytes(), nil
}

type page struct {
	c             *canvas.Canvas
	width, height float64 // mm
}

func (r *Renderer) paint(result *layout.Result) (*page, error) {
	if result == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	margin := r.opts.Margin
	txt, err := graphics.Render(result, margin, margin, r.opts.Graphics)
	if err != nil {
		return nil, fmt.Errorf("生成图形树失败: %w", err)
	}
	width := max(txt.Width, result.MaxWidth)
	p := &page{
		width:  toMm(max(width+2*margin, 1)),
		height: toMm(max(txt.Height+2*margin, 1)),
	}
	p.c = canvas.New(p.width, p.height)
	ctx := canvas.NewContext(p.c)
	ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与布局保持左上角为原点
	if err := r.Draw(ctx, txt); err != nil {
		return nil, err
	}
	return p, nil
}

// Draw paints a run tree onto ctx. ctx must use canvas.CartesianIV so that y
// grows downwards like the run tree does.
func (r *Renderer) Draw(ctx *canvas.Context, txt *graphics.Text) error {
	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	base, err := r.fontFace(txt.Font, r.opts.Color)
	if err != nil {
		return err
	}
	// 基线位置：行顶部加上基础字体的上升部
	ascent := base.Metrics().Ascent
	for _, line := range txt.Lines {
		baseline := toMm(line.Y) + ascent
		for _, run := range line.Runs {
			if err := r.drawRun(ctx, run, baseline, false); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Renderer) drawRun(ctx *canvas.Context, run graphics.Run, baseline float64, link bool) error {
	col := r.opts.Color
	if link {
		col = r.opts.LinkColor
	}
	switch run := run.(type) {
	case *graphics.Group:
		inLink := link || run.Kind == layout.KindLink.String() || run.Kind == "plain-url"
		for _, child := range run.Children {
			if err := r.drawRun(ctx, child, baseline, inLink); err != nil {
				return err
			}
		}
	case *graphics.Span:
		if strings.TrimSpace(run.Text) == "" {
			return nil
		}
		face, err := r.fontFace(run.Font, col)
		if err != nil {
			return err
		}
		ctx.DrawText(toMm(run.X), baseline, canvas.NewTextLine(face, run.Text, canvas.Left))
	case *graphics.Sup:
		face, err := r.fontFace(run.Font, col)
		if err != nil {
			return err
		}
		ctx.DrawText(toMm(run.X), baseline+toMm(run.Dy), canvas.NewTextLine(face, run.Text, canvas.Left))
	}
	return nil
}

// fontFace must be called with fontMu held.
func (r *Renderer) fontFace(font layout.FontParams, col color.Color) (*canvas.FontFace, error) {
	family, err := r.ensureFontFamily(font.Family)
	if err != nil {
		return nil, err
	}
	return family.Face(font.Size, col, fontStyle(font), canvas.FontNormal), nil
}

func (r *Renderer) ensureFontFamily(name string) (*canvas.FontFamily, error) {
	if name == "" {
		name = r.opts.DefaultFamily
	}
	key := strings.ToLower(name)
	if family, ok := r.families[key]; ok {
		return family, nil
	}

	src, ok := r.sources[key]
	if !ok {
		src, ok = fonts.Builtin(name)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFamily, name)
	}

	// 四种样式都加载，缺失的样式由 fonts.Family 回退到 Regular
	family := canvas.NewFontFamily(src.Name)
	for _, st := range []struct {
		style        canvas.FontStyle
		bold, italic bool
	}{
		{canvas.FontRegular, false, false},
		{canvas.FontBold, true, false},
		{canvas.FontRegular | canvas.FontItalic, false, true},
		{canvas.FontBold | canvas.FontItalic, true, true},
	} {
		if err := family.LoadFont(src.Style(st.bold, st.italic), 0, st.style); err != nil {
			return nil, fmt.Errorf("加载字体 %s 失败: %w", src.Name, err)
		}
	}
	r.families[key] = family
	return family, nil
}

func fontStyle(font layout.FontParams) canvas.FontStyle {
	style := canvas.FontRegular
	if font.IsBold() {
		style = canvas.FontBold
	}
	if font.Italic {
		style |= canvas.FontItalic
	}
	return style
}

// toPt 将毫米(mm)转换为点(pt)。
func toPt(mm float64) float64 { return mm * layout.MmToPt }

// toMm 将点(pt)转换为毫米(mm)。
func toMm(pt float64) float64 { return pt * layout.PtToMm }

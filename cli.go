package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ByLCY/markwrap/binding"
	"github.com/ByLCY/markwrap/config"
	"github.com/ByLCY/markwrap/layout"
	"github.com/ByLCY/markwrap/logging"
	"github.com/ByLCY/markwrap/markdown"
	"github.com/ByLCY/markwrap/renderer"
	canvasrenderer "github.com/ByLCY/markwrap/renderer/canvas"
	"github.com/ByLCY/markwrap/renderer/graphics"
	"github.com/ByLCY/markwrap/renderer/markup"
	"github.com/ByLCY/markwrap/renderer/terminal"
)

type buildInfo struct {
	Version string
	Commit  string
	Date    string
}

// errNoInput is returned when no file is given and stdin is an interactive terminal.
var errNoInput = errors.New("请指定输入文件或通过标准输入提供文本")

const defaultPreviewWidth = 80

type globalFlags struct {
	debug      bool
	configPath string
	cfg        *config.Config // PersistentPreRunE 中加载
}

func newRootCommand(info buildInfo) *cobra.Command {
	var g globalFlags
	root := &cobra.Command{
		Use:   "markwrap",
		Short: "Lay out lightweight styled text into wrapped lines",
		Long: `markwrap parses a small inline markup (bold, italic, links, plain URLs and
detail references), measures it with real fonts and breaks it into lines that
fit a maximum width. The lines can be rendered as HTML, SVG, PDF, JSON or text.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(g.configPath)
			if err != nil {
				return err
			}
			g.cfg = cfg
			level := cfg.LogLevel
			if g.debug {
				level = "debug"
			}
			// 调用方可以通过 ExecuteContext 注入自己的 logger
			logger := logging.FromContext(cmd.Context())
			logger.SetLevel(logging.ParseLevel(level))
			cmd.SetContext(logging.WithLogger(cmd.Context(), logger))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&g.debug, "debug", false, "输出调试日志")
	root.PersistentFlags().StringVar(&g.configPath, "config", "", "YAML 配置文件路径")

	root.AddCommand(newRenderCommand(&g))
	root.AddCommand(newParseCommand())
	root.AddCommand(newPreviewCommand(&g))
	root.AddCommand(newVersionCommand(info))
	return root
}

type renderFlags struct {
	format    string
	out       string
	debugJSON string
	maxWidth  string
	fontSize  string
	margin    string
	dataPath  string
}

// renderers 按输出格式注册
var renderers = map[string]func(cfg *config.Config, opts canvasrenderer.Options) renderer.Renderer{
	"html": func(*config.Config, canvasrenderer.Options) renderer.Renderer {
		return markup.Renderer{}
	},
	"svg": func(_ *config.Config, opts canvasrenderer.Options) renderer.Renderer {
		opts.Format = canvasrenderer.FormatSVG
		return canvasrenderer.NewRenderer(opts)
	},
	"pdf": func(_ *config.Config, opts canvasrenderer.Options) renderer.Renderer {
		opts.Format = canvasrenderer.FormatPDF
		return canvasrenderer.NewRenderer(opts)
	},
	"json": func(*config.Config, canvasrenderer.Options) renderer.Renderer {
		return renderer.Func(renderJSON)
	},
	"text": func(cfg *config.Config, _ canvasrenderer.Options) renderer.Renderer {
		r := terminal.NewRenderer(true)
		if cfg.DetailsMarker == graphics.MarkerNone {
			r.ReferenceTerms = []string{}
		}
		return r
	},
}

func formats() []string {
	out := make([]string, 0, len(renderers))
	for name := range renderers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func newRenderCommand(g *globalFlags) *cobra.Command {
	var f renderFlags
	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Lay out text and render it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			if text, err = bindData(cmd.Context(), text, f.dataPath); err != nil {
				return err
			}
			return runRender(cmd, g.cfg, text, f)
		},
	}
	cmd.Flags().StringVarP(&f.format, "format", "f", "html", "输出格式: "+strings.Join(formats(), ", "))
	cmd.Flags().StringVarP(&f.out, "out", "o", "-", "输出路径，- 表示标准输出")
	cmd.Flags().StringVar(&f.debugJSON, "debug-json", "", "布局调试 JSON 输出路径")
	cmd.Flags().StringVar(&f.maxWidth, "max-width", "", "最大行宽，例如 120pt、50mm（覆盖配置）")
	cmd.Flags().StringVar(&f.fontSize, "font-size", "", "字号，例如 12pt（覆盖配置）")
	cmd.Flags().StringVar(&f.margin, "margin", "0", "SVG/PDF 页边距")
	cmd.Flags().StringVar(&f.dataPath, "data", "", "绑定到 ${...} 占位符的 YAML/JSON 数据文件")
	return cmd
}

// runRender 串联配置、布局与渲染。
func runRender(cmd *cobra.Command, cfg *config.Config, text string, f renderFlags) error {
	factory, ok := renderers[f.format]
	if !ok {
		return fmt.Errorf("不支持的输出格式 %q（可选: %s）", f.format, strings.Join(formats(), ", "))
	}
	if f.maxWidth != "" {
		cfg.MaxWidth = f.maxWidth
	}
	if f.fontSize != "" {
		cfg.Font.Size = f.fontSize
	}
	margin, err := layout.ParseLength(f.margin)
	if err != nil {
		return fmt.Errorf("解析 margin 失败: %w", err)
	}
	in, err := cfg.Input(text)
	if err != nil {
		return err
	}
	families, err := cfg.FontFamilies()
	if err != nil {
		return fmt.Errorf("加载字体失败: %w", err)
	}

	opts := canvasrenderer.Options{
		DefaultFamily: cfg.Font.Family,
		Fonts:         families,
		Margin:        margin.ToPT(),
		Graphics:      cfg.GraphicsOptions(),
		Title:         "markwrap",
	}
	measurer := canvasrenderer.NewRenderer(opts)

	logger := logging.FromContext(cmd.Context())
	result, err := layout.Build(in, layout.BuildOptions{
		Measurer: layout.NewCachedMeasurer(measurer),
		Logger:   logger,
		Parse:    cfg.ParseOptions(),
	})
	if err != nil {
		return fmt.Errorf("布局计算失败: %w", err)
	}
	logger.Debug("layout done", logging.KeyLines, len(result.Lines), logging.KeyWidth, result.Width)

	if f.debugJSON != "" {
		if err := writeDebug(result, f.debugJSON); err != nil {
			return err
		}
	}

	out, err := factory(cfg, opts).Render(result)
	if err != nil {
		return fmt.Errorf("渲染 %s 失败: %w", f.format, err)
	}
	return writeOutput(cmd.OutOrStdout(), f.out, out, logger.With(logging.KeyFormat, f.format))
}

func renderJSON(result *layout.Result) ([]byte, error) {
	data, err := json.MarshalIndent(layout.NewDebugView(result), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("序列化 JSON 失败: %w", err)
	}
	return append(data, '\n'), nil
}

func newParseCommand() *cobra.Command {
	var maxStyled int
	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Print the syntax tree of the input as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			nodes := markdown.ParseWithOptions(text, markdown.Options{MaxStyledInput: maxStyled})
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(markdown.Tree(nodes)); err != nil {
				return fmt.Errorf("序列化语法树失败: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&maxStyled, "max-styled-input", 0, "超过该字节数时只做纯文本解析，0 为默认值")
	return cmd
}

func newPreviewCommand(g *globalFlags) *cobra.Command {
	var width int
	var noColor bool
	var dataPath string
	cmd := &cobra.Command{
		Use:   "preview [file]",
		Short: "Preview the wrapped text in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := g.cfg
			text, err := readInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			if text, err = bindData(cmd.Context(), text, dataPath); err != nil {
				return err
			}
			if width <= 0 {
				width = terminalWidth(cmd.OutOrStdout())
			}
			result, err := layout.Build(terminal.Input(text, width), layout.BuildOptions{
				Measurer: terminal.Measurer{},
				Logger:   logging.FromContext(cmd.Context()),
				Parse:    cfg.ParseOptions(),
			})
			if err != nil {
				return fmt.Errorf("布局计算失败: %w", err)
			}
			r := terminal.NewRenderer(noColor)
			r.ReferenceTerms = cfg.ReferenceTerms
			if cfg.DetailsMarker == graphics.MarkerNone {
				r.ReferenceTerms = []string{}
			}
			out, err := r.Render(result)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	cmd.Flags().IntVarP(&width, "width", "w", 0, "列宽，0 表示终端宽度")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "不输出 ANSI 样式")
	cmd.Flags().StringVar(&dataPath, "data", "", "绑定到 ${...} 占位符的 YAML/JSON 数据文件")
	return cmd
}

func newVersionCommand(info buildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			logger := log.NewWithOptions(cmd.OutOrStdout(), log.Options{ReportTimestamp: false})
			logger.SetLevel(log.InfoLevel)
			logger.Info("markwrap", "version", info.Version, "commit", info.Commit, "built", info.Date)
		},
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// readInput 从文件参数或标准输入读取文本。标准输入是终端时拒绝等待输入。
func readInput(stdin io.Reader, args []string) (string, error) {
	if len(args) > 0 && args[0] != "-" {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("无法打开输入文件 %s: %w", args[0], err)
		}
		return string(data), nil
	}
	if f, ok := stdin.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		return "", errNoInput
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("读取标准输入失败: %w", err)
	}
	return string(data), nil
}

// bindData 用数据文件填充文本中的占位符，未命中的占位符只记录警告。
func bindData(ctx context.Context, text, path string) (string, error) {
	if path == "" {
		return text, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("读取数据文件失败: %w", err)
	}
	data, err := binding.ParseData(raw)
	if err != nil {
		return "", err
	}
	out, missing := binding.Interpolate(text, data)
	for _, m := range missing {
		logging.FromContext(ctx).Warn("未找到绑定数据", "placeholder", m, logging.KeyPath, path)
	}
	return out, nil
}

func terminalWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		if cols, _, err := term.GetSize(int(f.Fd())); err == nil && cols > 0 {
			return cols
		}
	}
	return defaultPreviewWidth
}

func writeOutput(stdout io.Writer, path string, data []byte, logger *log.Logger) error {
	if path == "" || path == "-" {
		_, err := io.Copy(stdout, bytes.NewReader(data))
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("写入输出文件失败: %w", err)
	}
	logger.Info("已生成", logging.KeyPath, path, logging.KeyBytes, len(data))
	return nil
}

func writeDebug(result *layout.Result, debugPath string) error {
	if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	if err := layout.WriteDebugJSON(result, debugPath); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}

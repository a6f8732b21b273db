// Package config loads the YAML configuration of the markwrap command.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ByLCY/markwrap/fonts"
	"github.com/ByLCY/markwrap/layout"
	"github.com/ByLCY/markwrap/markdown"
	"github.com/ByLCY/markwrap/renderer/graphics"
)

// ErrInvalidConfig is wrapped by every validation error.
var ErrInvalidConfig = errors.New("invalid config")

// Font 描述基础字体。Size 为带单位的长度字符串，例如 "12pt"、"4.2mm"。
type Font struct {
	Size   string `yaml:"size"`
	Family string `yaml:"family,omitempty"`
	Weight int    `yaml:"weight,omitempty"`
}

// Config is the file format of markwrap.yaml.
type Config struct {
	Font Font `yaml:"font"`
	// LineHeight is a factor ("1.2", "1.2x") or an absolute length ("14pt").
	LineHeight string `yaml:"line_height,omitempty"`
	// MaxWidth 为空表示不限宽。
	MaxWidth       string                 `yaml:"max_width,omitempty"`
	ReferenceTerms []string               `yaml:"reference_terms,omitempty"`
	DetailsMarker  graphics.DetailsMarker `yaml:"details_marker,omitempty"`
	Fonts          map[string]fonts.Files `yaml:"fonts,omitempty"`
	LogLevel       string                 `yaml:"log_level,omitempty"`
	// MaxStyledInput bounds styled parsing, in bytes. 0 keeps the default,
	// negative disables styled parsing.
	MaxStyledInput int `yaml:"max_styled_input,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Font:          Font{Size: "12pt", Family: fonts.Go, Weight: layout.WeightRegular},
		LineHeight:    "1.1",
		DetailsMarker: graphics.MarkerSuperscript,
		LogLevel:      "warn",
	}
}

// Load reads and validates the file at path. Missing keys keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML on top of Default. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks lengths, marker names and font files declarations.
func (c *Config) Validate() error {
	size, err := layout.ParseLength(c.Font.Size)
	if err != nil {
		return fmt.Errorf("%w: font.size: %v", ErrInvalidConfig, err)
	}
	if !(size.ToPT() > 0) {
		return fmt.Errorf("%w: font.size must be positive, got %q", ErrInvalidConfig, c.Font.Size)
	}
	if c.Font.Weight < 0 || c.Font.Weight > 1000 {
		return fmt.Errorf("%w: font.weight out of range: %d", ErrInvalidConfig, c.Font.Weight)
	}
	if _, err := layout.ParseLineHeight(c.LineHeight); err != nil {
		return fmt.Errorf("%w: line_height: %v", ErrInvalidConfig, err)
	}
	if width, err := layout.ParseLength(c.MaxWidth); err != nil {
		return fmt.Errorf("%w: max_width: %v", ErrInvalidConfig, err)
	} else if width.Value < 0 {
		return fmt.Errorf("%w: max_width must not be negative, got %q", ErrInvalidConfig, c.MaxWidth)
	}
	switch c.DetailsMarker {
	case "", graphics.MarkerSuperscript, graphics.MarkerNone:
	default:
		return fmt.Errorf("%w: unknown details_marker %q", ErrInvalidConfig, c.DetailsMarker)
	}
	for name, files := range c.Fonts {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: font family without name", ErrInvalidConfig)
		}
		if files.Regular == "" {
			return fmt.Errorf("%w: fonts.%s.regular is required", ErrInvalidConfig, name)
		}
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	return nil
}

// Input turns the configuration into a layout input for text. Lengths are
// converted to points.
func (c *Config) Input(text string) (layout.Input, error) {
	if err := c.Validate(); err != nil {
		return layout.Input{}, err
	}
	size := layout.ParseRawLengthStr(c.Font.Size).ToPT()
	lh, _ := layout.ParseLineHeight(c.LineHeight)
	return layout.Input{
		Text:           text,
		FontSize:       size,
		FontFamily:     c.Font.Family,
		FontWeight:     c.Font.Weight,
		LineHeight:     lh.FactorFor(size),
		MaxWidth:       layout.ParseRawLengthStr(c.MaxWidth).ToPT(),
		ReferenceTerms: append([]string(nil), c.ReferenceTerms...),
	}, nil
}

// ParseOptions returns the parser options of the configuration.
func (c *Config) ParseOptions() markdown.Options {
	return markdown.Options{MaxStyledInput: c.MaxStyledInput}
}

// FontFamilies loads the font files declared under fonts.
func (c *Config) FontFamilies() (map[string]fonts.Family, error) {
	out := make(map[string]fonts.Family, len(c.Fonts))
	for name, files := range c.Fonts {
		fam, err := fonts.LoadFiles(name, files)
		if err != nil {
			return nil, err
		}
		out[name] = fam
	}
	return out, nil
}

// GraphicsOptions returns the run tree options of the configuration.
func (c *Config) GraphicsOptions() graphics.Options {
	return graphics.Options{DetailsMarker: c.DetailsMarker}
}

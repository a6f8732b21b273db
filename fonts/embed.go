package fonts

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/go-fonts/latin-modern/lmroman10bold"
	"github.com/go-fonts/latin-modern/lmroman10bolditalic"
	"github.com/go-fonts/latin-modern/lmroman10italic"
	"github.com/go-fonts/latin-modern/lmroman10regular"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
)

// 内置字体族名称。
const (
	Go          = "Go"
	LatinModern = "Latin Modern"
)

// Family 保存一个字体族四种样式的字节数据，缺失的样式回退到 Regular。
type Family struct {
	Name       string
	Regular    []byte
	Bold       []byte
	Italic     []byte
	BoldItalic []byte
}

var builtins = map[string]Family{
	strings.ToLower(Go): {
		Name:       Go,
		Regular:    goregular.TTF,
		Bold:       gobold.TTF,
		Italic:     goitalic.TTF,
		BoldItalic: gobolditalic.TTF,
	},
	strings.ToLower(LatinModern): {
		Name:       LatinModern,
		Regular:    lmroman10regular.TTF,
		Bold:       lmroman10bold.TTF,
		Italic:     lmroman10italic.TTF,
		BoldItalic: lmroman10bolditalic.TTF,
	},
}

// Builtin 按名称（不区分大小写）查找内置字体族。
func Builtin(name string) (Family, bool) {
	f, ok := builtins[strings.ToLower(strings.TrimSpace(name))]
	return f, ok
}

// Names lists the built-in family names, sorted.
func Names() []string {
	out := make([]string, 0, len(builtins))
	for _, f := range builtins {
		out = append(out, f.Name)
	}
	sort.Strings(out)
	return out
}

// Style returns the font data for the requested style.
func (f Family) Style(bold, italic bool) []byte {
	var data []byte
	switch {
	case bold && italic:
		data = f.BoldItalic
		if len(data) == 0 {
			data = f.Bold
		}
	case bold:
		data = f.Bold
	case italic:
		data = f.Italic
	}
	if len(data) == 0 {
		return f.Regular
	}
	return data
}

// Files describes a font family stored on disk. Empty paths fall back to Regular.
type Files struct {
	Regular    string `yaml:"regular"`
	Bold       string `yaml:"bold"`
	Italic     string `yaml:"italic"`
	BoldItalic string `yaml:"bold_italic"`
}

// LoadFiles 读取磁盘上的字体文件，组成字体族。
func LoadFiles(name string, files Files) (Family, error) {
	if files.Regular == "" {
		return Family{}, fmt.Errorf("字体 %s 缺少 regular 文件", name)
	}
	fam := Family{Name: name}
	for _, item := range []struct {
		path string
		dst  *[]byte
	}{
		{files.Regular, &fam.Regular},
		{files.Bold, &fam.Bold},
		{files.Italic, &fam.Italic},
		{files.BoldItalic, &fam.BoldItalic},
	} {
		if item.path == "" {
			continue
		}
		data, err := Load(item.path)
		if err != nil {
			return Family{}, err
		}
		*item.dst = data
	}
	return fam, nil
}

// Load 返回字体字节数据。path 可写为 "builtin:Go/bold" 形式引用内置字体，否则按文件路径读取。
func Load(path string) ([]byte, error) {
	if rest, ok := strings.CutPrefix(path, "builtin:"); ok {
		name, style, _ := strings.Cut(rest, "/")
		fam, found := Builtin(name)
		if !found {
			return nil, fmt.Errorf("找不到内置字体 %s", name)
		}
		style = strings.ToLower(style)
		bold := strings.Contains(style, "bold")
		italic := strings.Contains(style, "italic")
		return fam.Style(bold, italic), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取字体 %s 失败: %w", path, err)
	}
	return data, nil
}

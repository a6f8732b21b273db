package layout

import (
	"github.com/charmbracelet/log"

	"github.com/ByLCY/markwrap/markdown"
)

// BuildOptions 配置布局阶段所需的依赖，例如测量后端。
type BuildOptions struct {
	Measurer Measurer
	Logger   *log.Logger
	Parse    markdown.Options
	// ASTCache 非空时按输入复用解析结果
	ASTCache *markdown.Cache
}

// Measurer 负责返回一段文字在指定字体下的尺寸（单位 pt）。
type Measurer interface {
	Measure(text string, font FontParams) (Metrics, error)
}

// MeasurerFunc adapts a function to Measurer.
type MeasurerFunc func(text string, font FontParams) (Metrics, error)

func (f MeasurerFunc) Measure(text string, font FontParams) (Metrics, error) {
	return f(text, font)
}

// Package binding fills ${path} placeholders in the input text from a data
// document before it is laid out.
package binding

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var placeholder = regexp.MustCompile(`\$\{([^}]+)\}`)

// ParseData decodes a YAML or JSON document. An empty document yields nil.
func ParseData(data []byte) (any, error) {
	var out any
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&out); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("解析绑定数据失败: %w", err)
	}
	return out, nil
}

// Interpolate 将 ${a.b[0]} 形式的占位符替换为 data 中对应的值。
// 无法解析的占位符原样保留，并按出现顺序返回在 missing 中。
func Interpolate(text string, data any) (out string, missing []string) {
	if !strings.Contains(text, "${") {
		return text, nil
	}
	out = placeholder.ReplaceAllStringFunc(text, func(match string) string {
		expr := strings.TrimSpace(match[2 : len(match)-1])
		if val, ok := Lookup(data, expr); ok {
			return format(val)
		}
		missing = append(missing, expr)
		return match
	})
	return out, missing
}

// Lookup resolves a dotted path with optional [i] indexes, e.g. "rows[1].name".
func Lookup(data any, path string) (any, bool) {
	steps, ok := parsePath(path)
	if !ok || data == nil {
		return nil, false
	}
	cur := data
	for _, st := range steps {
		switch c := cur.(type) {
		case map[string]any:
			if st.index >= 0 {
				return nil, false
			}
			v, found := c[st.key]
			if !found {
				return nil, false
			}
			cur = v
		case []any:
			if st.index < 0 || st.index >= len(c) {
				return nil, false
			}
			cur = c[st.index]
		default:
			return nil, false
		}
	}
	return cur, true
}

// step is a map key, or a slice index when index >= 0.
type step struct {
	key   string
	index int
}

func parsePath(path string) ([]step, bool) {
	if path == "" {
		return nil, false
	}
	var steps []step
	for _, seg := range strings.Split(path, ".") {
		name, rest, _ := strings.Cut(seg, "[")
		if name == "" && rest == "" {
			return nil, false
		}
		if name != "" {
			steps = append(steps, step{key: name, index: -1})
		}
		if rest == "" {
			continue
		}
		// rest 形如 "0][2]"
		for _, part := range strings.Split(strings.TrimSuffix(rest, "]"), "][") {
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 {
				return nil, false
			}
			steps = append(steps, step{index: i})
		}
	}
	return steps, len(steps) > 0
}

func format(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

package terminal_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/markwrap/layout"
	"github.com/ByLCY/markwrap/renderer/terminal"
)

func build(t *testing.T, in layout.Input) *layout.Result {
	t.Helper()
	res, err := layout.Build(in, layout.BuildOptions{Measurer: terminal.Measurer{}})
	require.NoError(t, err)
	return res
}

func TestMeasureCells(t *testing.T) {
	m, err := terminal.Measurer{}.Measure("héllo", layout.FontParams{Size: 12})
	require.NoError(t, err)
	assert.Equal(t, 5.0, m.Width)
	assert.Equal(t, 1.0, m.Height)

	// 宽字符占两个单元格
	m, err = terminal.Measurer{}.Measure("中文", layout.FontParams{Size: 1})
	require.NoError(t, err)
	assert.Equal(t, 4.0, m.Width)
}

func TestWrapToColumns(t *testing.T) {
	res := build(t, terminal.Input("one two **three** four five", 10))
	for i, w := range res.LineWidths() {
		assert.LessOrEqual(t, w, 10.0, "line %d", i)
	}
	assert.Equal(t, "one two\nthree\nfour five", res.Plaintext)
	assert.InDelta(t, 3, res.Height, 1e-9)
}

func TestRenderPlain(t *testing.T) {
	res := build(t, layout.Input{
		Text:           "see [GDP](#dod:gdp) at https://x.org",
		FontSize:       1,
		LineHeight:     1,
		ReferenceTerms: []string{"gdp"},
	})
	r := terminal.NewRenderer(true)
	out, err := r.Render(res)
	require.NoError(t, err)
	assert.Equal(t, "see GDP¹ at https://x.org\n", string(out))

	r.ReferenceTerms = []string{}
	out, err = r.Render(res)
	require.NoError(t, err)
	assert.Equal(t, "see GDP at https://x.org\n", string(out))
}

func TestRenderStyledKeepsText(t *testing.T) {
	res := build(t, terminal.Input("a **b** _c_\nd", 80))
	out, err := terminal.NewRenderer(false).Render(res)
	require.NoError(t, err)

	rows := strings.Split(strings.TrimSuffix(string(out), "\n"), "\n")
	require.Len(t, rows, 2)
	for _, s := range []string{"a", "b", "c"} {
		assert.Contains(t, rows[0], s)
	}
	assert.Equal(t, "d", rows[1])
}

func TestRenderEmpty(t *testing.T) {
	res := build(t, terminal.Input("", 10))
	out, err := terminal.NewRenderer(true).Render(res)
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = terminal.NewRenderer(true).Render(nil)
	assert.Error(t, err)
}

func TestSuperscript(t *testing.T) {
	assert.Equal(t, "¹⁰", terminal.Superscript("10"))
	assert.Equal(t, "x", terminal.Superscript("x"))
}

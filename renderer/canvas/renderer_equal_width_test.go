package canvasrenderer

import (
	"testing"

	"github.com/ByLCY/markwrap/layout"
)

// 当第一行宽度与容器宽度恰好相等且后面紧跟一个显式换行时，不应产生额外的空行。
func TestNoBlankLineWhenEqualWidthThenNewline(t *testing.T) {
	r := NewRenderer(Options{})
	first := "SAMPLE-A"
	measured, err := r.Measure(first, regular(12))
	if err != nil {
		t.Fatalf("measure error: %v", err)
	}
	limit := measured.Width
	if limit <= 0 {
		t.Fatalf("invalid measured width: %g", limit)
	}

	res, err := layout.Build(layout.Input{Text: first + "\n" + "SAMPLE-B", FontSize: 12, MaxWidth: limit}, layout.BuildOptions{Measurer: r})
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if got := len(res.Lines); got != 2 {
		t.Fatalf("expected 2 lines without blank, got %d", got)
	}
	if got := layout.Plaintext(res.Lines[0]); got != first {
		t.Fatalf("first line mismatch: got=%q want=%q", got, first)
	}
	if got := layout.Plaintext(res.Lines[1]); got != "SAMPLE-B" {
		t.Fatalf("second line mismatch: got=%q want=%q", got, "SAMPLE-B")
	}
}

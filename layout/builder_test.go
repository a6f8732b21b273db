package layout

import (
	"errors"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"unicode/utf8"

	"github.com/ByLCY/markwrap/markdown"
)

// stubMeasurer 是一个确定性的测量实现：每个字符宽 size/2，粗体再乘 1.2。
type stubMeasurer struct {
	calls sync.Map // string -> *int64
	fail  string
}

var errStub = errors.New("stub failure")

func (s *stubMeasurer) Measure(text string, font FontParams) (Metrics, error) {
	n, _ := s.calls.LoadOrStore(text, new(int64))
	atomic.AddInt64(n.(*int64), 1)
	if s.fail != "" && strings.Contains(text, s.fail) {
		return Metrics{}, errStub
	}
	w := float64(utf8.RuneCountInString(text)) * font.Size / 2
	if font.IsBold() {
		w *= 1.2
	}
	return Metrics{Width: w, Height: font.Size}, nil
}

func (s *stubMeasurer) count(text string) int64 {
	n, ok := s.calls.Load(text)
	if !ok {
		return 0
	}
	return atomic.LoadInt64(n.(*int64))
}

func build(t *testing.T, in Input) *Result {
	t.Helper()
	res, err := Build(in, BuildOptions{Measurer: &stubMeasurer{}})
	if err != nil {
		t.Fatalf("Build 失败: %v", err)
	}
	return res
}

func lineTexts(lines [][]Token) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = Plaintext(line)
	}
	return out
}

func TestBuildHeight(t *testing.T) {
	res := build(t, Input{Text: "a\nb\nc", FontSize: 10, LineHeight: 1.5})
	if len(res.Lines) != 3 {
		t.Fatalf("期望 3 行，实际 %d", len(res.Lines))
	}
	if math.Abs(res.Height-45) > 1e-9 {
		t.Fatalf("高度期望 45，实际 %g", res.Height)
	}
	if res.Plaintext != "a\nb\nc" {
		t.Fatalf("plaintext 期望 %q，实际 %q", "a\nb\nc", res.Plaintext)
	}
}

func TestBuildEmpty(t *testing.T) {
	res := build(t, Input{Text: "", FontSize: 10})
	if len(res.Lines) != 0 || res.Height != 0 || res.Plaintext != "" || res.Width != 0 {
		t.Fatalf("空输入应得到空结果: %+v", res)
	}
	if res.LineHeight != DefaultLineHeight {
		t.Fatalf("默认行高期望 %g，实际 %g", DefaultLineHeight, res.LineHeight)
	}
}

func TestBuildBoldIsWider(t *testing.T) {
	plain := build(t, Input{Text: "xyz", FontSize: 12})
	bold := build(t, Input{Text: "**xyz**", FontSize: 12})
	if !(bold.Width > plain.Width) {
		t.Fatalf("粗体宽度 %g 应大于常规 %g", bold.Width, plain.Width)
	}
}

func TestBuildWrapsWithinMaxWidth(t *testing.T) {
	input := "the quick brown fox jumps over the lazy dog"
	res := build(t, Input{Text: input, FontSize: 10, MaxWidth: 60})
	if len(res.Lines) < 2 {
		t.Fatalf("应当折行，实际 %d 行", len(res.Lines))
	}
	for i, w := range res.LineWidths() {
		if w > 60 {
			t.Fatalf("第 %d 行宽度 %g 超过 60", i, w)
		}
		if strings.HasPrefix(Plaintext(res.Lines[i]), " ") {
			t.Fatalf("第 %d 行不应以空格开头: %q", i, Plaintext(res.Lines[i]))
		}
	}
	if got, want := strings.Fields(res.Plaintext), strings.Fields(input); strings.Join(got, " ") != strings.Join(want, " ") {
		t.Fatalf("折行丢失单词: %q", res.Plaintext)
	}
	if res.MaxWidth != 60 {
		t.Fatalf("MaxWidth 期望 60，实际 %g", res.MaxWidth)
	}
}

func TestBuildExactFitBreaksEarlier(t *testing.T) {
	// 每个字符 5pt：aa(10) + 空格(5) + bb(10) = 25，其后空格的断点偏移为 25.0001 > 25
	res := build(t, Input{Text: "aa bb cc", FontSize: 10, MaxWidth: 25})
	got := lineTexts(res.Lines)
	want := []string{"aa", "bb cc"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("期望 %q，实际 %q", want, got)
	}
}

func TestBuildUnbreakableOverflow(t *testing.T) {
	res := build(t, Input{Text: "supercalifragilistic short", FontSize: 10, MaxWidth: 30})
	got := lineTexts(res.Lines)
	if len(got) != 2 || got[0] != "supercalifragilistic" || got[1] != "short" {
		t.Fatalf("溢出行处理错误: %q", got)
	}
	if w := res.LineWidths()[0]; w <= 30 {
		t.Fatalf("第一行应溢出，宽度 %g", w)
	}

	single := build(t, Input{Text: "unbreakable", FontSize: 10, MaxWidth: 5})
	if len(single.Lines) != 1 || single.Plaintext != "unbreakable" {
		t.Fatalf("单个超宽记号应原样输出一行: %q", lineTexts(single.Lines))
	}
}

func TestBuildBreaksInsideElements(t *testing.T) {
	// 粗体每字符 6pt："aaa bbb" = 42 > 40
	res := build(t, Input{Text: "**aaa bbb ccc**", FontSize: 10, MaxWidth: 40})
	got := lineTexts(res.Lines)
	if strings.Join(got, "|") != "aaa|bbb|ccc" {
		t.Fatalf("粗体内断行错误: %q", got)
	}
	for i, line := range res.Lines {
		if len(line) != 1 {
			t.Fatalf("第 %d 行应只有一个粗体元素: %d", i, len(line))
		}
		e, ok := line[0].(*Element)
		if !ok || e.Kind != KindBold {
			t.Fatalf("第 %d 行应为粗体元素，实际 %T", i, line[0])
		}
	}
}

func TestBuildNewlineInsideElement(t *testing.T) {
	res := build(t, Input{Text: "**a\n\nb**", FontSize: 10})
	if len(res.Lines) != 3 {
		t.Fatalf("期望 3 行，实际 %d", len(res.Lines))
	}
	if len(res.Lines[1]) != 0 {
		t.Fatalf("空行不应产生元素克隆: %d", len(res.Lines[1]))
	}
	for _, i := range []int{0, 2} {
		e, ok := res.Lines[i][0].(*Element)
		if !ok || e.Kind != KindBold {
			t.Fatalf("第 %d 行应保留粗体，实际 %T", i, res.Lines[i][0])
		}
	}
}

func TestBuildMergesTextRuns(t *testing.T) {
	res := build(t, Input{Text: "a b **c d** e f", FontSize: 10})
	if len(res.Lines) != 1 {
		t.Fatalf("期望 1 行，实际 %d", len(res.Lines))
	}
	line := res.Lines[0]
	if len(line) != 3 {
		t.Fatalf("合并后应为 3 个记号，实际 %d", len(line))
	}
	if txt, ok := line[0].(*Text); !ok || txt.Value != "a b " {
		t.Fatalf("第一个记号应为 %q，实际 %#v", "a b ", line[0])
	}
	assertMerged(t, line)
}

func assertMerged(t *testing.T, tokens []Token) {
	t.Helper()
	isLeafText := func(tok Token) bool {
		switch tok.(type) {
		case *Text, *Whitespace:
			return true
		}
		return false
	}
	for i, tok := range tokens {
		if i > 0 && isLeafText(tok) && isLeafText(tokens[i-1]) {
			t.Fatalf("相邻文本未合并: %q + %q", tokens[i-1].Plaintext(), tok.Plaintext())
		}
		if e, ok := tok.(*Element); ok {
			assertMerged(t, e.Children)
		}
	}
}

func TestBuildMergedEverywhere(t *testing.T) {
	res := build(t, Input{Text: "one two [three four five](/x) _six seven_ eight", FontSize: 10, MaxWidth: 70})
	for _, line := range res.Lines {
		assertMerged(t, line)
	}
}

func TestBuildErrors(t *testing.T) {
	if _, err := Build(Input{Text: "x", FontSize: 10}, BuildOptions{}); !errors.Is(err, ErrNoMeasurer) {
		t.Fatalf("期望 ErrNoMeasurer，实际 %v", err)
	}
	if _, err := Build(Input{Text: "x"}, BuildOptions{Measurer: &stubMeasurer{}}); !errors.Is(err, ErrInvalidFontSize) {
		t.Fatalf("期望 ErrInvalidFontSize，实际 %v", err)
	}
	_, err := Build(Input{Text: "fine boom", FontSize: 10}, BuildOptions{Measurer: &stubMeasurer{fail: "boom"}})
	if !errors.Is(err, errStub) {
		t.Fatalf("测量错误应被传递，实际 %v", err)
	}
}

func TestBuildMeasuresOnce(t *testing.T) {
	ms := &stubMeasurer{}
	if _, err := Build(Input{Text: "a a a a a", FontSize: 10, MaxWidth: 12}, BuildOptions{Measurer: ms}); err != nil {
		t.Fatalf("Build 失败: %v", err)
	}
	if n := ms.count("a"); n != 1 {
		t.Fatalf("相同文字应只测量一次，实际 %d", n)
	}
}

func TestBuildNormalizesNFC(t *testing.T) {
	res := build(t, Input{Text: "e\u0301te", FontSize: 10})
	if res.Plaintext != "\u00e9te" {
		t.Fatalf("应做 NFC 归一化，实际 %q", res.Plaintext)
	}
}

func TestBuildSizeGuard(t *testing.T) {
	res, err := Build(Input{Text: "**big**", FontSize: 10}, BuildOptions{
		Measurer: &stubMeasurer{},
		Parse:    markdown.Options{MaxStyledInput: 3},
	})
	if err != nil {
		t.Fatalf("Build 失败: %v", err)
	}
	if res.Plaintext != "**big**" {
		t.Fatalf("超出限制时应按纯文本处理，实际 %q", res.Plaintext)
	}
}

func superscripts(tokens []Token) []*Superscript {
	var out []*Superscript
	for _, tok := range tokens {
		switch t := tok.(type) {
		case *Superscript:
			out = append(out, t)
		case *Element:
			out = append(out, superscripts(t.Children)...)
		}
	}
	return out
}

func TestReferenceSuperscripts(t *testing.T) {
	res := build(t, Input{
		Text:           "see [GDP](#dod:gdp) and [life](#dod:life) or [other](#dod:other)",
		FontSize:       10,
		ReferenceTerms: []string{"life", "gdp"},
	})
	lines := res.LinesWithReferences()
	sups := superscripts(lines[0])
	if len(sups) != 2 {
		t.Fatalf("期望 2 个角标，实际 %d", len(sups))
	}
	if sups[0].Value != "2" || sups[1].Value != "1" {
		t.Fatalf("角标编号错误: %q %q", sups[0].Value, sups[1].Value)
	}
	if math.Abs(sups[0].Font().Size-6) > 1e-9 || math.Abs(sups[0].Height()-6) > 1e-9 {
		t.Fatalf("角标字号应为 6，实际 %g", sups[0].Font().Size)
	}
	if len(superscripts(res.Lines[0])) != 0 {
		t.Fatalf("原始行不应被修改")
	}
	if err := res.Err(); err != nil {
		t.Fatalf("不应有测量错误: %v", err)
	}
}

func TestReferenceSuperscriptOnLastFragment(t *testing.T) {
	res := build(t, Input{
		Text:           "[aaa bbb](#dod:x)",
		FontSize:       10,
		MaxWidth:       20,
		ReferenceTerms: []string{"x"},
	})
	lines := res.LinesWithReferences()
	if len(lines) != 2 {
		t.Fatalf("期望 2 行，实际 %d", len(lines))
	}
	if n := len(superscripts(lines[0])); n != 0 {
		t.Fatalf("跨行 DoD 的前一段不应有角标，实际 %d", n)
	}
	if n := len(superscripts(lines[1])); n != 1 {
		t.Fatalf("跨行 DoD 的最后一段应有角标，实际 %d", n)
	}
}

func TestReferenceSuperscriptsOnAdjacentSameTerm(t *testing.T) {
	res := build(t, Input{
		Text:           "[aaa](#dod:x) [bbb](#dod:x)",
		FontSize:       10,
		MaxWidth:       20,
		ReferenceTerms: []string{"x"},
	})
	lines := res.LinesWithReferences()
	got := lineTexts(lines)
	if strings.Join(got, "|") != "aaa1|bbb1" {
		t.Fatalf("同一术语的两个 DoD 都应有角标，实际 %q", got)
	}
	for i, line := range lines {
		if n := len(superscripts(line)); n != 1 {
			t.Fatalf("第 %d 行期望 1 个角标，实际 %d", i, n)
		}
	}
}

func TestBuildLongParagraph(t *testing.T) {
	if testing.Short() {
		t.Skip("long input")
	}
	const words = 20000
	plain := strings.TrimSpace(strings.Repeat("word ", words))
	for _, tc := range []struct {
		name string
		text string
		kind Kind
	}{
		{"plain", plain, 0},
		{"bold", "**" + plain + "**", KindBold},
	} {
		t.Run(tc.name, func(t *testing.T) {
			// 常规 "word word" = 45，粗体 = 54，第三个词都会超过 60
			res := build(t, Input{Text: tc.text, FontSize: 10, MaxWidth: 60})
			if len(res.Lines) != words/2 {
				t.Fatalf("期望 %d 行，实际 %d", words/2, len(res.Lines))
			}
			for i, line := range res.Lines {
				if Plaintext(line) != "word word" {
					t.Fatalf("第 %d 行为 %q", i, Plaintext(line))
				}
				if tc.kind != 0 {
					if e, ok := line[0].(*Element); !ok || e.Kind != tc.kind {
						t.Fatalf("第 %d 行应为粗体元素，实际 %T", i, line[0])
					}
				}
			}
		})
	}
}

func TestBreakIntoLinesLeavesInputUntouched(t *testing.T) {
	m := NewMeter(&stubMeasurer{})
	base := FontParams{Size: 10, Weight: WeightRegular}
	tokens := Compile(markdown.Parse("aa **bb cc dd** ee"), base, m)
	before := Plaintext(tokens)
	bold := tokens[2].(*Element)
	children := len(bold.Children)

	// 粗体每字符 6pt，断点落在粗体内部
	lines := BreakIntoLines(tokens, 32)
	if got := strings.Join(lineTexts(lines), "|"); got != "aa bb|cc dd|ee" {
		t.Fatalf("断行结果 %q", got)
	}
	if Plaintext(tokens) != before || tokens[2] != bold || len(bold.Children) != children {
		t.Fatalf("BreakIntoLines 修改了输入")
	}
}

func TestBreakIntoLinesWhitespaceOnly(t *testing.T) {
	m := NewMeter(&stubMeasurer{})
	base := FontParams{Size: 10, Weight: WeightRegular}
	lines := BreakIntoLines(Compile(markdown.Parse("a\n \nb"), base, m), 1)
	if len(lines) != 3 {
		t.Fatalf("期望 3 行，实际 %d: %q", len(lines), lineTexts(lines))
	}
}

func TestSplitOnNewlines(t *testing.T) {
	m := NewMeter(&stubMeasurer{})
	base := FontParams{Size: 10, Weight: WeightRegular}
	if lines := SplitOnNewlines(nil); lines != nil {
		t.Fatalf("空输入应返回 nil，实际 %v", lines)
	}
	tokens := Compile(markdown.Parse("a\n\n_b\nc_"), base, m)
	got := lineTexts(SplitOnNewlines(tokens))
	if strings.Join(got, "|") != "a||b|c" {
		t.Fatalf("按换行切分错误: %q", got)
	}
}

func TestBreakpointBefore(t *testing.T) {
	m := NewMeter(&stubMeasurer{})
	base := FontParams{Size: 10, Weight: WeightRegular}

	tokens := Compile(markdown.Parse("aa bb cc"), base, m)
	bp, ok := BreakpointBefore(tokens, 22)
	if !ok || bp.TokenIndex != 1 || bp.TokenStartOffset != 10 {
		t.Fatalf("断点错误: %+v ok=%v", bp, ok)
	}
	if bp.BreakOffset <= bp.TokenStartOffset {
		t.Fatalf("空白断点应带正的偏移: %+v", bp)
	}

	if _, ok := BreakpointBefore(Compile(markdown.Parse("solid"), base, m), 1); ok {
		t.Fatalf("没有空白时不应有断点")
	}

	before, after := SplitBefore(tokens, 22)
	if Plaintext(before) != "aa" || Plaintext(after) != "bb cc" {
		t.Fatalf("SplitBefore 错误: %q / %q", Plaintext(before), Plaintext(after))
	}
	if len(tokens) != 5 {
		t.Fatalf("原始记号不应被修改")
	}
}

func TestCachedMeasurer(t *testing.T) {
	inner := &stubMeasurer{}
	cached := NewCachedMeasurer(inner)
	font := FontParams{Size: 10, Weight: WeightRegular}

	first, err := cached.Measure("hello", font)
	if err != nil {
		t.Fatalf("测量失败: %v", err)
	}
	second, _ := cached.Measure("hello", font)
	if first != second || inner.count("hello") != 1 {
		t.Fatalf("缓存未生效: calls=%d", inner.count("hello"))
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m, err := cached.Measure("world", font)
			if err != nil || m.Width != 25 {
				t.Errorf("并发测量结果错误: %+v %v", m, err)
			}
		}()
	}
	wg.Wait()

	failing := NewCachedMeasurer(&stubMeasurer{fail: "x"})
	if _, err := failing.Measure("x", font); !errors.Is(err, errStub) {
		t.Fatalf("错误应原样返回，实际 %v", err)
	}
}

func TestBuildWithASTCache(t *testing.T) {
	cache := markdown.NewCache(0)
	opts := BuildOptions{Measurer: &stubMeasurer{}, ASTCache: cache}
	first, err := Build(Input{Text: "aa **bb** cc", FontSize: 10, MaxWidth: 30}, opts)
	if err != nil {
		t.Fatalf("Build 失败: %v", err)
	}
	// 同一输入、不同宽度复用缓存的语法树
	second, err := Build(Input{Text: "aa **bb** cc", FontSize: 10}, opts)
	if err != nil {
		t.Fatalf("Build 失败: %v", err)
	}
	if cache.Len() != 1 {
		t.Fatalf("缓存条目期望 1，实际 %d", cache.Len())
	}
	if got := strings.Join(lineTexts(first.Lines), "|"); got != "aa bb|cc" {
		t.Fatalf("断行结果 %q", got)
	}
	if second.Plaintext != "aa bb cc" {
		t.Fatalf("plaintext 期望 %q，实际 %q", "aa bb cc", second.Plaintext)
	}
}

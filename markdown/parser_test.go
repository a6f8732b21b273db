package markdown_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ByLCY/markwrap/markdown"
)

func text(s string) markdown.Text { return markdown.Text{Value: s} }

var (
	ws = markdown.Whitespace{}
	nl = markdown.Newline{}
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []markdown.Node
	}{
		{
			name:  "empty",
			input: "",
			want:  nil,
		},
		{
			name:  "words and spaces",
			input: "hello  world",
			want:  []markdown.Node{text("hello"), ws, text("world")},
		},
		{
			name:  "bold sentence",
			input: "**I'm bold as brass**",
			want: []markdown.Node{
				markdown.Bold{Children: []markdown.BoldContent{
					text("I'm"), ws, text("bold"), ws, text("as"), ws, text("brass"),
				}},
			},
		},
		{
			name:  "unfinished bold stays literal",
			input: "** unfinished bold",
			want:  []markdown.Node{text("**"), ws, text("unfinished"), ws, text("bold")},
		},
		{
			name:  "bold followed by word",
			input: "**bold**-word",
			want: []markdown.Node{
				markdown.Bold{Children: []markdown.BoldContent{text("bold")}},
				text("-word"),
			},
		},
		{
			name:  "italic",
			input: "an _italic_ word",
			want: []markdown.Node{
				text("an"), ws,
				markdown.Italic{Children: []markdown.ItalicContent{text("italic")}},
				ws, text("word"),
			},
		},
		{
			name:  "detail on demand",
			input: "[a dod with multiple words](#dod:thing)",
			want: []markdown.Node{
				markdown.DetailOnDemand{Term: "thing", Children: []markdown.LinkContent{
					text("a"), ws, text("dod"), ws, text("with"), ws, text("multiple"), ws, text("words"),
				}},
			},
		},
		{
			name:  "hover detail with category",
			input: "[GDP](hover::economics::gdp)",
			want: []markdown.Node{
				markdown.DetailOnDemand{Term: "gdp", Category: "economics", Children: []markdown.LinkContent{text("GDP")}},
			},
		},
		{
			name:  "absolute link",
			input: "[click here](https://example.com/a?b=1)",
			want: []markdown.Node{
				markdown.Link{Href: "https://example.com/a?b=1", Children: []markdown.LinkContent{text("click"), ws, text("here")}},
			},
		},
		{
			name:  "relative link with plain bold",
			input: "[**big** deal](/about)",
			want: []markdown.Node{
				markdown.Link{Href: "/about", Children: []markdown.LinkContent{
					markdown.PlainBold{Children: []markdown.PlainContent{text("big")}},
					ws, text("deal"),
				}},
			},
		},
		{
			name:  "invalid link target is literal",
			input: "[x](foo)",
			want:  []markdown.Node{text("[x](foo)")},
		},
		{
			name:  "plain url",
			input: "see https://ourworldindata.org now",
			want: []markdown.Node{
				text("see"), ws, markdown.PlainURL{Href: "https://ourworldindata.org"}, ws, text("now"),
			},
		},
		{
			name:  "url inside bold",
			input: "**https://a.com**",
			want: []markdown.Node{
				markdown.Bold{Children: []markdown.BoldContent{markdown.PlainURL{Href: "https://a.com"}}},
			},
		},
		{
			name:  "italic inside bold",
			input: "**a _b_ c**",
			want: []markdown.Node{
				markdown.Bold{Children: []markdown.BoldContent{
					text("a"), ws,
					markdown.ItalicWithoutBold{Children: []markdown.UnstyledContent{text("b")}},
					ws, text("c"),
				}},
			},
		},
		{
			name:  "bold inside italic",
			input: "_a **b** c_",
			want: []markdown.Node{
				markdown.Italic{Children: []markdown.ItalicContent{
					text("a"), ws,
					markdown.BoldWithoutItalic{Children: []markdown.UnstyledContent{text("b")}},
					ws, text("c"),
				}},
			},
		},
		{
			name:  "link inside bold",
			input: "**see [docs](/docs)**",
			want: []markdown.Node{
				markdown.Bold{Children: []markdown.BoldContent{
					text("see"), ws,
					markdown.Link{Href: "/docs", Children: []markdown.LinkContent{text("docs")}},
				}},
			},
		},
		{
			name:  "newlines are kept one by one",
			input: "a\n\nb",
			want:  []markdown.Node{text("a"), nl, nl, text("b")},
		},
		{
			name:  "crlf",
			input: "a\r\nb",
			want:  []markdown.Node{text("a"), nl, text("b")},
		},
		{
			name:  "non-breaking space is text",
			input: "10\u00a0km",
			want:  []markdown.Node{text("10"), text("\u00a0"), text("km")},
		},
		{
			name:  "lone closing delimiter",
			input: "a_",
			want:  []markdown.Node{text("a"), text("_")},
		},
		{
			// 粗体不能套粗体：内层的 ** 先把外层闭合
			name:  "bold inside bold",
			input: "**a **b** c**",
			want: []markdown.Node{
				markdown.Bold{Children: []markdown.BoldContent{text("a"), ws}},
				text("b"),
				markdown.Bold{Children: []markdown.BoldContent{ws, text("c")}},
			},
		},
		{
			name:  "link inside link is literal",
			input: "[[a](/b)](/c)",
			want:  []markdown.Node{text("[[a](/b)](/c)")},
		},
		{
			// 链接里只允许一层 plain 样式，整个链接退化，粗斜体在外面照常解析
			name:  "bold italic inside link",
			input: "[**_a_**](/x)",
			want: []markdown.Node{
				text("["),
				markdown.Bold{Children: []markdown.BoldContent{
					markdown.ItalicWithoutBold{Children: []markdown.UnstyledContent{text("a")}},
				}},
				text("](/x)"),
			},
		},
		{
			name:  "bold inside italic inside bold",
			input: "**_**a**_**",
			want:  []markdown.Node{text("**_**a**_**")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := markdown.Parse(tt.input)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("Parse(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

// TestParseSnakeCase 验证单词内的下划线不会吞掉文字。
func TestParseSnakeCase(t *testing.T) {
	nodes := markdown.Parse("snake_case value")
	if got := markdown.Plaintext(nodes); got != "snake_case value" {
		t.Fatalf("plaintext 期望 %q，实际 %q", "snake_case value", got)
	}
	for _, n := range nodes {
		if _, ok := n.(markdown.Italic); ok {
			t.Fatalf("不应产生斜体: %#v", nodes)
		}
	}
}

func TestParseSizeGuard(t *testing.T) {
	input := "**bold** text"
	got := markdown.ParseWithOptions(input, markdown.Options{MaxStyledInput: 4})
	want := []markdown.Node{text("**bold**"), ws, text("text")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("leaf-only parse mismatch (-want +got):\n%s", diff)
	}

	got = markdown.ParseWithOptions(input, markdown.Options{MaxStyledInput: -1})
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("disabled styling mismatch (-want +got):\n%s", diff)
	}

	got = markdown.ParseWithOptions(input, markdown.Options{})
	if _, ok := got[0].(markdown.Bold); !ok {
		t.Fatalf("默认限制下应解析粗体，实际 %#v", got[0])
	}
}

// TestParsePathological 确认大量未闭合的分隔符仍然在合理时间内结束。
func TestParsePathological(t *testing.T) {
	inputs := []string{
		strings.Repeat("**_[", 3000),
		strings.Repeat("[", 5000) + strings.Repeat("](", 5000),
		strings.Repeat("_a **b ", 2000),
	}
	for _, input := range inputs {
		nodes := markdown.Parse(input)
		if len(nodes) == 0 {
			t.Fatalf("非空输入不应得到空结果")
		}
	}
}

func TestParseDetailTarget(t *testing.T) {
	tests := []struct {
		target   string
		term     string
		category string
		ok       bool
	}{
		{"#dod:thing", "thing", "", true},
		{"#dod:life_expectancy", "life_expectancy", "", true},
		{"#dod:", "", "", false},
		{"#dod:a::b", "", "", false},
		{"hover::gdp", "gdp", "", true},
		{"hover::economics::gdp", "gdp", "economics", true},
		{"hover::", "", "", false},
		{"hover::a::b::c", "", "", false},
		{"hover::::gdp", "", "", false},
		{"/about", "", "", false},
	}
	for _, tt := range tests {
		term, category, ok := markdown.ParseDetailTarget(tt.target)
		if term != tt.term || category != tt.category || ok != tt.ok {
			t.Errorf("ParseDetailTarget(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tt.target, term, category, ok, tt.term, tt.category, tt.ok)
		}
	}
}

func TestTree(t *testing.T) {
	tree := markdown.Tree(markdown.Parse("**a** [b](#dod:c)"))
	want := []markdown.TreeNode{
		{Type: "bold", Children: []markdown.TreeNode{{Type: "text", Value: "a"}}},
		{Type: "whitespace"},
		{Type: "detail-on-demand", Term: "c", Children: []markdown.TreeNode{{Type: "text", Value: "b"}}},
	}
	if diff := cmp.Diff(want, tree); diff != "" {
		t.Fatalf("Tree mismatch (-want +got):\n%s", diff)
	}
}

func FuzzParse(f *testing.F) {
	for _, seed := range []string{
		"**I'm bold as brass**",
		"** unfinished bold",
		"[a dod](#dod:thing) and [link](https://x.org)",
		"_a **b** c_\n\nnext",
		"[[**_",
	} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, input string) {
		nodes := markdown.Parse(input)
		if input != "" && len(nodes) == 0 {
			t.Fatalf("Parse(%q) returned no nodes", input)
		}
		var walk func([]markdown.Node)
		walk = func(ns []markdown.Node) {
			for _, n := range ns {
				if txt, ok := n.(markdown.Text); ok && txt.Value == "" {
					t.Fatalf("Parse(%q) produced an empty text node", input)
				}
				walk(markdown.Children(n))
			}
		}
		walk(nodes)
	})
}

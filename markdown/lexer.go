package markdown

import (
	"fmt"

	"github.com/alecthomas/participle/v2/lexer"
)

// 只有真正正则的叶子记号交给 lexer，递归结构（粗体、斜体、链接、DoD）由 parser.go 手写。
const (
	nbspChars  = `\x{00A0}\x{FEFF}\x{2007}\x{202F}`
	spaceChars = `\t\v\f\r \x{0085}\x{1680}\x{2000}-\x{2006}\x{2008}-\x{200A}\x{2028}\x{2029}\x{205F}\x{3000}`
)

var (
	markdownLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Newline", Pattern: `\r?\n`},
		{Name: "NBSP", Pattern: `[` + nbspChars + `]`},
		{Name: "Whitespace", Pattern: `[` + spaceChars + `]+`},
		{Name: "URL", Pattern: `(?:https?|ftp)://[\w-]+(?:\.[\w-]+)+(?:[\w.,@?^=%&:/~+#-]*[\w@?^=%&/~+#-])?`},
		{Name: "Strong", Pattern: `\*\*`},
		{Name: "Star", Pattern: `\*`},
		{Name: "Underscore", Pattern: `_`},
		{Name: "LBracket", Pattern: `\[`},
		{Name: "RBracket", Pattern: `\]`},
		{Name: "LParen", Pattern: `\(`},
		{Name: "RParen", Pattern: `\)`},
		{Name: "Word", Pattern: `[^\n*_\[\]()` + nbspChars + spaceChars + `]+`},
	})

	newlineToken    = mustTokenType("Newline")
	nbspToken       = mustTokenType("NBSP")
	whitespaceToken = mustTokenType("Whitespace")
	urlToken        = mustTokenType("URL")
	strongToken     = mustTokenType("Strong")
	starToken       = mustTokenType("Star")
	underscoreToken = mustTokenType("Underscore")
	lbracketToken   = mustTokenType("LBracket")
	rbracketToken   = mustTokenType("RBracket")
	lparenToken     = mustTokenType("LParen")
	rparenToken     = mustTokenType("RParen")
	wordToken       = mustTokenType("Word")
)

// tokenize splits input into leaf tokens. The trailing EOF token is dropped.
func tokenize(input string) ([]lexer.Token, error) {
	lex, err := markdownLexer.LexString("", input)
	if err != nil {
		return nil, err
	}
	tokens, err := lexer.ConsumeAll(lex)
	if err != nil {
		return nil, err
	}
	if n := len(tokens); n > 0 && tokens[n-1].EOF() {
		tokens = tokens[:n-1]
	}
	return tokens, nil
}

func mustTokenType(name string) lexer.TokenType {
	tt, ok := markdownLexer.Symbols()[name]
	if !ok {
		panic(fmt.Sprintf("token %s not defined", name))
	}
	return tt
}

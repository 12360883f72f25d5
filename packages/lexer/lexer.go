// Package lexer turns source text into tokens. The lexer is itself a
// combinator grammar over runes.
package lexer

import (
	"fmt"
	"unicode"

	"github.com/golang/glog"

	c "github.com/user/lambdakit/packages/combinator"
	"github.com/user/lambdakit/packages/source"
)

// Kind classifies a token.
type Kind int

const (
	LPAREN Kind = iota
	RPAREN
	LBRACKET
	RBRACKET
	LANGLE
	RANGLE
	SYMBOL
	NUMBER
	IGNORE
)

var kindNames = [...]string{
	LPAREN:   "LPAREN",
	RPAREN:   "RPAREN",
	LBRACKET: "LBRACKET",
	RBRACKET: "RBRACKET",
	LANGLE:   "LANGLE",
	RANGLE:   "RANGLE",
	SYMBOL:   "SYMBOL",
	NUMBER:   "NUMBER",
	IGNORE:   "IGNORE",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Token is a lexeme with its kind and rune span.
type Token struct {
	Text string
	Kind Kind
	Span source.Span
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)", t.Kind, t.Text)
}

type rules = c.Parser[rune, Token]

func isDelimiter(r rune) bool {
	switch r {
	case '(', ')', '[', ']', '<', '>', ',', ';':
		return true
	}
	return false
}

func isSymbolPart(r rune) bool {
	return !isDelimiter(r) && !unicode.IsSpace(r) && unicode.IsGraphic(r)
}

func isSymbolStart(r rune) bool {
	return isSymbolPart(r) && !unicode.IsDigit(r)
}

func char(r rune) c.Parser[rune, rune] {
	return c.Match(func(x rune) bool { return x == r })
}

// token spans p and packages what it consumed as a token of kind k.
func token(k Kind, p c.Parser[rune, []rune]) rules {
	return c.Transform(c.Span(p), func(s c.Spanned[[]rune]) Token {
		return Token{Text: string(s.Value), Kind: k, Span: source.Span{Start: s.Start, End: s.End}}
	})
}

func single(k Kind, r rune) rules {
	return token(k, c.Transform(char(r), func(x rune) []rune { return []rune{x} }))
}

func flatten(parts [][]rune) []rune {
	var out []rune
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

var tokenRule = buildRules()

func buildRules() rules {
	space := c.Many(c.Match(unicode.IsSpace))
	comment := c.Transform(c.Sequence(
		c.Transform(char(';'), func(r rune) []rune { return []rune{r} }),
		c.ZeroOrMore(c.Match(func(r rune) bool { return r != '\n' })),
	), flatten)
	number := c.Many(c.Match(unicode.IsDigit))
	symbol := c.Transform(c.Sequence(
		c.Transform(c.Match(isSymbolStart), func(r rune) []rune { return []rune{r} }),
		c.ZeroOrMore(c.Match(isSymbolPart)),
	), flatten)

	return c.Alternation(
		single(LPAREN, '('),
		single(RPAREN, ')'),
		single(LBRACKET, '['),
		single(RBRACKET, ']'),
		single(LANGLE, '<'),
		single(RANGLE, '>'),
		single(IGNORE, ','),
		token(IGNORE, comment),
		token(IGNORE, space),
		token(NUMBER, number),
		token(SYMBOL, symbol),
	)
}

// Lex tokenizes text. Every rune ends up in exactly one token; ignorable
// tokens are kept so hosts can display the full stream.
func Lex(text string) ([]Token, error) {
	input := []rune(text)
	cur := c.NewCursor(input)
	var out []Token
	for !cur.AtEnd() {
		tok, ok := tokenRule(cur)
		if !ok {
			r, _ := cur.Current()
			pos := cur.Pos()
			return nil, source.Errorf(source.CodeLex, source.Span{Start: pos, End: pos + 1},
				"unrecognized character %q", r)
		}
		out = append(out, tok)
	}
	if glog.V(5) {
		glog.Infof("lexer: %d runes -> %d tokens", len(input), len(out))
	}
	return out, nil
}

// Significant drops IGNORE tokens.
func Significant(tokens []Token) []Token {
	out := make([]Token, 0, len(tokens))
	for _, t := range tokens {
		if t.Kind != IGNORE {
			out = append(out, t)
		}
	}
	return out
}

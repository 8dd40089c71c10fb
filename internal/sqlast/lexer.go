package sqlast

import "strings"

// Lexer splits SQL text into tokens. It works on bytes; any byte at or above
// 0x80 is treated as part of an identifier so UTF-8 names pass through intact.
type Lexer struct {
	src string
	off int
}

// NewLexer creates a new Lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{src: input}
}

// symbols lists fixed-spelling tokens, longest spellings first so a prefix
// never shadows a longer operator.
var symbols = []struct {
	text string
	typ  TokenType
}{
	{"::", TokDoubleColon},
	{"||", TokConcat},
	{"<=", TokLtEq},
	{">=", TokGtEq},
	{"<>", TokNotEq},
	{"!=", TokNotEq},
	{"==", TokEq},
	{"+", TokPlus},
	{"-", TokMinus},
	{"*", TokStar},
	{"/", TokSlash},
	{"%", TokPercent},
	{"=", TokEq},
	{"<", TokLt},
	{">", TokGt},
	{".", TokDot},
	{",", TokComma},
	{";", TokSemicolon},
	{"(", TokLParen},
	{")", TokRParen},
	{"?", TokQMark},
}

func (l *Lexer) at(i int) byte {
	if i < len(l.src) {
		return l.src[i]
	}
	return 0
}

// NextToken returns the next token, or TokEOF once the input is exhausted.
func (l *Lexer) NextToken() Token {
	l.skipTrivia()
	if l.off >= len(l.src) {
		return Token{Type: TokEOF}
	}

	c := l.src[l.off]
	switch {
	case c == '\'':
		return Token{Type: TokString, Literal: l.quoted('\'')}
	case c == '"' || c == '`':
		return Token{Type: TokIdent, Literal: l.quoted(c), Quoted: true}
	case c == '$':
		return l.dollar()
	case isIdentStart(c):
		word := l.span(isIdentPart)
		return Token{Type: lookupKeyword(strings.ToLower(word)), Literal: word}
	case isDigit(c):
		return Token{Type: TokNumber, Literal: l.number()}
	}

	rest := l.src[l.off:]
	for _, s := range symbols {
		if strings.HasPrefix(rest, s.text) {
			l.off += len(s.text)
			return Token{Type: s.typ, Literal: s.text}
		}
	}
	l.off++
	return Token{Type: TokIllegal, Literal: string(c)}
}

// skipTrivia advances past whitespace, -- line comments and /* */ blocks.
// An unterminated block comment consumes the rest of the input.
func (l *Lexer) skipTrivia() {
	for l.off < len(l.src) {
		switch c := l.src[l.off]; {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			l.off++
		case c == '-' && l.at(l.off+1) == '-':
			if nl := strings.IndexByte(l.src[l.off:], '\n'); nl >= 0 {
				l.off += nl
			} else {
				l.off = len(l.src)
			}
		case c == '/' && l.at(l.off+1) == '*':
			if end := strings.Index(l.src[l.off+2:], "*/"); end >= 0 {
				l.off += end + 4
			} else {
				l.off = len(l.src)
			}
		default:
			return
		}
	}
}

// quoted reads a literal delimited by q where a doubled q stands for one
// embedded q. A missing closing delimiter ends the literal at end of input.
func (l *Lexer) quoted(q byte) string {
	l.off++
	var sb strings.Builder
	for l.off < len(l.src) {
		c := l.src[l.off]
		l.off++
		if c != q {
			sb.WriteByte(c)
			continue
		}
		if l.at(l.off) != q {
			break
		}
		sb.WriteByte(q)
		l.off++
	}
	return sb.String()
}

// dollar reads a $n placeholder. A bare $ is illegal.
func (l *Lexer) dollar() Token {
	l.off++
	digits := l.span(isDigit)
	if digits == "" {
		return Token{Type: TokIllegal, Literal: "$"}
	}
	return Token{Type: TokDollar, Literal: "$" + digits}
}

// span consumes the longest run of bytes accepted by ok.
func (l *Lexer) span(ok func(byte) bool) string {
	start := l.off
	for l.off < len(l.src) && ok(l.src[l.off]) {
		l.off++
	}
	return l.src[start:l.off]
}

// number reads an integer, decimal or exponent literal.
func (l *Lexer) number() string {
	start := l.off
	l.span(isDigit)
	if l.at(l.off) == '.' && isDigit(l.at(l.off+1)) {
		l.off++
		l.span(isDigit)
	}
	if e := l.at(l.off); e == 'e' || e == 'E' {
		l.off++
		if s := l.at(l.off); s == '+' || s == '-' {
			l.off++
		}
		l.span(isDigit)
	}
	return l.src[start:l.off]
}

func isIdentStart(c byte) bool {
	return c == '_' || (c|0x20 >= 'a' && c|0x20 <= 'z') || c >= 0x80
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

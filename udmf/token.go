package udmf

// TokenType identifies a lexical token.
type TokenType int

const (
	EOF TokenType = iota
	Ident
	Number
	Quoted
	LBrace
	RBrace
	Equals
	Semicolon
)

func (t TokenType) String() string {
	switch t {
	case EOF:
		return "end of input"
	case Ident:
		return "identifier"
	case Number:
		return "number"
	case Quoted:
		return "string"
	case LBrace:
		return "'{'"
	case RBrace:
		return "'}'"
	case Equals:
		return "'='"
	case Semicolon:
		return "';'"
	}
	return "unknown"
}

// Token is a lexical token. For Quoted tokens Text is the content between the quotes.
type Token struct {
	Text string
	Type TokenType
	Pos  Pos
}

type lexer struct {
	src       []byte
	i         int
	line      int
	lineStart int
	tokens    []Token
}

// Tokenize splits src into tokens, dropping whitespace and both comment styles.
// The returned slice always ends with an EOF token.
func Tokenize(src []byte) ([]Token, error) {
	l := &lexer{src: src, line: 1}
	for {
		if err := l.skip(); err != nil {
			return nil, err
		}
		if l.i >= len(l.src) {
			l.tokens = append(l.tokens, Token{Type: EOF, Pos: l.pos()})
			return l.tokens, nil
		}
		if err := l.token(); err != nil {
			return nil, err
		}
	}
}

func (l *lexer) pos() Pos {
	return l.posAt(l.i)
}

func (l *lexer) posAt(i int) Pos {
	return Pos{Offset: i, Line: l.line, Col: i - l.lineStart + 1}
}

func (l *lexer) newline(i int) {
	l.line++
	l.lineStart = i + 1
}

// skip consumes whitespace and comments
func (l *lexer) skip() error {
	for l.i < len(l.src) {
		c := l.src[l.i]
		switch {
		case c == '\n':
			l.newline(l.i)
			l.i++
		case c == ' ' || c == '\t' || c == '\r' || c == '\f' || c == '\v':
			l.i++
		case c == '/' && l.peek(1) == '/':
			for l.i < len(l.src) && l.src[l.i] != '\n' {
				l.i++
			}
		case c == '/' && l.peek(1) == '*':
			start := l.pos()
			l.i += 2
			for {
				if l.i >= len(l.src) {
					return syntaxErrorf(KindUnexpectedToken, start, "unterminated block comment")
				}
				if l.src[l.i] == '*' && l.peek(1) == '/' {
					l.i += 2
					break
				}
				if l.src[l.i] == '\n' {
					l.newline(l.i)
				}
				l.i++
			}
		default:
			return nil
		}
	}
	return nil
}

func (l *lexer) peek(n int) byte {
	if l.i+n < len(l.src) {
		return l.src[l.i+n]
	}
	return 0
}

func (l *lexer) emit(typ TokenType, start int, text string) {
	l.tokens = append(l.tokens, Token{Text: text, Type: typ, Pos: l.posAt(start)})
}

func (l *lexer) token() error {
	start := l.i
	c := l.src[l.i]
	switch {
	case c == '{':
		l.i++
		l.emit(LBrace, start, "{")
	case c == '}':
		l.i++
		l.emit(RBrace, start, "}")
	case c == '=':
		l.i++
		l.emit(Equals, start, "=")
	case c == ';':
		l.i++
		l.emit(Semicolon, start, ";")
	case c == '"':
		return l.quoted()
	case isDigit(c) || ((c == '+' || c == '-') && (isDigit(l.peek(1)) || l.peek(1) == '.')):
		l.number()
	case isIdentStart(c):
		l.i++
		for l.i < len(l.src) && isIdentPart(l.src[l.i]) {
			l.i++
		}
		l.emit(Ident, start, string(l.src[start:l.i]))
	default:
		return syntaxErrorf(KindUnexpectedToken, l.pos(), "unexpected character %q", c)
	}
	return nil
}

// quoted reads a string up to the next quote not preceded by a backslash.
// The content is kept verbatim.
func (l *lexer) quoted() error {
	start := l.i
	startPos := l.pos()
	l.i++
	for l.i < len(l.src) {
		switch l.src[l.i] {
		case '\\':
			if l.i+1 < len(l.src) && l.src[l.i+1] == '\n' {
				l.newline(l.i + 1)
			}
			l.i += 2
			continue
		case '\n':
			l.newline(l.i)
		case '"':
			text := string(l.src[start+1 : l.i])
			l.i++
			l.tokens = append(l.tokens, Token{Text: text, Type: Quoted, Pos: startPos})
			return nil
		}
		l.i++
	}
	return syntaxErrorf(KindUnterminatedString, startPos, "missing closing quote")
}

// number consumes a maximal literal; classification happens in the parser so that a
// malformed literal is reported as one unit.
func (l *lexer) number() {
	start := l.i
	l.i++
	for l.i < len(l.src) {
		c := l.src[l.i]
		if isIdentPart(c) || c == '.' {
			l.i++
			continue
		}
		if (c == '+' || c == '-') && (l.src[l.i-1] == 'e' || l.src[l.i-1] == 'E') && !isHexPrefixed(l.src[start:l.i]) {
			l.i++
			continue
		}
		break
	}
	l.emit(Number, start, string(l.src[start:l.i]))
}

func isHexPrefixed(b []byte) bool {
	if len(b) > 0 && (b[0] == '+' || b[0] == '-') {
		b = b[1:]
	}
	return len(b) >= 2 && b[0] == '0' && (b[1] == 'x' || b[1] == 'X')
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}

func isIdentPart(c byte) bool { return isIdentStart(c) || isDigit(c) }

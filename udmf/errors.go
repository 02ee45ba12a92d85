package udmf

import (
	"fmt"
	"strings"
)

// ErrorKind categorises a grammar failure.
type ErrorKind string

const (
	KindUnexpectedToken      ErrorKind = "unexpected_token"
	KindUnterminatedString   ErrorKind = "unterminated_string"
	KindInvalidNumberLiteral ErrorKind = "invalid_number_literal"
)

// Sentinels for errors.Is. Only the Kind is compared.
var (
	ErrUnexpectedToken      = &SyntaxError{Kind: KindUnexpectedToken}
	ErrUnterminatedString   = &SyntaxError{Kind: KindUnterminatedString}
	ErrInvalidNumberLiteral = &SyntaxError{Kind: KindInvalidNumberLiteral}
)

// Pos is a position in the source text. Offset is in bytes, Line and Col are 1-based.
type Pos struct {
	Offset int
	Line   int
	Col    int
}

func (p Pos) String() string {
	return fmt.Sprintf("line %d, col %d", p.Line, p.Col)
}

// SyntaxError reports a tokenizing or parsing failure.
type SyntaxError struct {
	Kind   ErrorKind
	Pos    Pos
	Detail string
}

func (e *SyntaxError) Error() string {
	var b strings.Builder
	b.WriteString("udmf: ")
	b.WriteString(string(e.Kind))
	if e.Pos.Line > 0 {
		b.WriteString(" at ")
		b.WriteString(e.Pos.String())
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

// Is reports whether target is a SyntaxError of the same kind.
func (e *SyntaxError) Is(target error) bool {
	if t, ok := target.(*SyntaxError); ok {
		return e.Kind == t.Kind
	}
	return false
}

func syntaxErrorf(kind ErrorKind, pos Pos, format string, args ...any) *SyntaxError {
	return &SyntaxError{Kind: kind, Pos: pos, Detail: fmt.Sprintf(format, args...)}
}

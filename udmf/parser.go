package udmf

import (
	"errors"
	"strconv"
	"strings"
)

// Assignment is a single `key = value;` expression.
type Assignment struct {
	Key   string
	Value Value
	Pos   Pos
}

// Block is a named group of assignments, e.g. `vertex { x = 0.0; y = 0.0; }`.
type Block struct {
	Name string
	Body []Assignment
	Pos  Pos
}

// Statement is one top-level item of a translation unit. Exactly one field is set.
type Statement struct {
	Assignment *Assignment
	Block      *Block
}

// TranslationUnit is the concrete syntax tree of a TEXTMAP lump, in source order.
type TranslationUnit struct {
	Statements []Statement
}

// Triple is a flattened assignment. Top-level assignments have an empty Block and a
// BlockIndex of -1; assignments inside a block share that block's BlockIndex.
type Triple struct {
	Block      string
	BlockIndex int
	BlockPos   Pos
	Key        string
	Value      Value
	Pos        Pos
}

// Triples flattens the tree into (block, key, value) triples in source order.
func (tu *TranslationUnit) Triples() []Triple {
	var triples []Triple
	blocks := 0
	for _, s := range tu.Statements {
		if s.Assignment != nil {
			a := s.Assignment
			triples = append(triples, Triple{BlockIndex: -1, Key: a.Key, Value: a.Value, Pos: a.Pos})
			continue
		}
		for _, a := range s.Block.Body {
			triples = append(triples, Triple{
				Block:      s.Block.Name,
				BlockIndex: blocks,
				BlockPos:   s.Block.Pos,
				Key:        a.Key,
				Value:      a.Value,
				Pos:        a.Pos,
			})
		}
		blocks++
	}
	return triples
}

// Parse tokenizes and parses a TEXTMAP lump.
func Parse(src []byte) (*TranslationUnit, error) {
	tokens, err := Tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	return p.parseUnit()
}

type parser struct {
	tokens []Token
	pos    int
}

func (p *parser) peek() Token {
	return p.tokens[p.pos]
}

func (p *parser) next() Token {
	t := p.tokens[p.pos]
	if t.Type != EOF {
		p.pos++
	}
	return t
}

func (p *parser) expect(typ TokenType) (Token, error) {
	t := p.next()
	if t.Type != typ {
		return t, unexpected(t, typ.String())
	}
	return t, nil
}

func unexpected(t Token, want string) *SyntaxError {
	if t.Type == EOF {
		return syntaxErrorf(KindUnexpectedToken, t.Pos, "expected %s, got end of input", want)
	}
	return syntaxErrorf(KindUnexpectedToken, t.Pos, "expected %s, got %s %q", want, t.Type, t.Text)
}

func (p *parser) parseUnit() (*TranslationUnit, error) {
	tu := &TranslationUnit{}
	for p.peek().Type != EOF {
		name, err := p.expect(Ident)
		if err != nil {
			return nil, err
		}
		switch t := p.next(); t.Type {
		case Equals:
			a, err := p.parseAssignmentValue(name)
			if err != nil {
				return nil, err
			}
			tu.Statements = append(tu.Statements, Statement{Assignment: a})
		case LBrace:
			b, err := p.parseBlockBody(name)
			if err != nil {
				return nil, err
			}
			tu.Statements = append(tu.Statements, Statement{Block: b})
		default:
			return nil, unexpected(t, "'=' or '{'")
		}
	}
	return tu, nil
}

// parseBlockBody parses one or more assignments followed by '}'
func (p *parser) parseBlockBody(name Token) (*Block, error) {
	b := &Block{Name: name.Text, Pos: name.Pos}
	for {
		t := p.peek()
		if t.Type == RBrace && len(b.Body) > 0 {
			p.next()
			return b, nil
		}
		key, err := p.expect(Ident)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(Equals); err != nil {
			return nil, err
		}
		a, err := p.parseAssignmentValue(key)
		if err != nil {
			return nil, err
		}
		b.Body = append(b.Body, *a)
	}
}

// parseAssignmentValue parses the value and terminating ';' after `key =`
func (p *parser) parseAssignmentValue(key Token) (*Assignment, error) {
	t := p.next()
	var v Value
	switch t.Type {
	case Number:
		n, err := ParseNumber(t.Text)
		if err != nil {
			var se *SyntaxError
			if errors.As(err, &se) {
				se.Pos = t.Pos
			}
			return nil, err
		}
		v = n
	case Quoted:
		v = StringValue(t.Text)
	case Ident:
		switch {
		case strings.EqualFold(t.Text, "true"):
			v = BoolValue(true)
		case strings.EqualFold(t.Text, "false"):
			v = BoolValue(false)
		default:
			return nil, unexpected(t, "value")
		}
	default:
		return nil, unexpected(t, "value")
	}
	if _, err := p.expect(Semicolon); err != nil {
		return nil, err
	}
	return &Assignment{Key: key.Text, Value: v, Pos: key.Pos}, nil
}

// ParseNumber classifies and converts a numeric literal. Hex digits accept both cases
// (0x1f and 0x1F); octal literals start with 0; floats require a decimal point.
func ParseNumber(text string) (Value, error) {
	invalid := func(reason string) (Value, error) {
		return Value{}, syntaxErrorf(KindInvalidNumberLiteral, Pos{}, "%q: %s", text, reason)
	}

	body := text
	neg := false
	if body != "" && (body[0] == '+' || body[0] == '-') {
		neg = body[0] == '-'
		body = body[1:]
	}
	if body == "" {
		return invalid("no digits")
	}

	if strings.Contains(body, ".") {
		if !isFloatLiteral(body) {
			return invalid("malformed float")
		}
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return invalid("float out of range")
		}
		return FloatValue(f), nil
	}

	var digits string
	base := 10
	switch {
	case len(body) > 1 && body[0] == '0' && (body[1] == 'x' || body[1] == 'X'):
		digits, base = body[2:], 16
		if digits == "" || !allOf(digits, isHexDigit) {
			return invalid("malformed hexadecimal integer")
		}
	case len(body) > 1 && body[0] == '0':
		digits, base = body[1:], 8
		if !allOf(digits, isOctalDigit) {
			return invalid("malformed octal integer")
		}
	default:
		digits = body
		if !allOf(digits, isDigit) {
			return invalid("malformed integer")
		}
	}
	u, err := strconv.ParseUint(digits, base, 64)
	if err != nil || (!neg && u > 1<<63-1) || (neg && u > 1<<63) {
		return invalid("integer out of range")
	}
	if neg {
		return IntValue(-int64(u)), nil
	}
	return IntValue(int64(u)), nil
}

// isFloatLiteral matches [0-9]+ '.' [0-9]* ([eE][+-]?[0-9]+)?
func isFloatLiteral(s string) bool {
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	if i == 0 || i >= len(s) || s[i] != '.' {
		return false
	}
	i++
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	if i == len(s) {
		return true
	}
	if s[i] != 'e' && s[i] != 'E' {
		return false
	}
	i++
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	if i == len(s) {
		return false
	}
	return allOf(s[i:], isDigit)
}

func allOf(s string, pred func(byte) bool) bool {
	for i := 0; i < len(s); i++ {
		if !pred(s[i]) {
			return false
		}
	}
	return true
}

func isHexDigit(c byte) bool {
	return isDigit(c) || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}

func isOctalDigit(c byte) bool { return c >= '0' && c <= '7' }

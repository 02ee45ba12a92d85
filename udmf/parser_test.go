package udmf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	src := `
// a room
namespace = "zdoom";

vertex { x = -96.0; y = 32; }
linedef
{
	v1 = 0; v2 = 1;
	sidefront = 0;
	blocking = TRUE;
	renderstyle = "translucent";
}
`
	tu, err := Parse([]byte(src))
	require.NoError(t, err)
	require.Len(t, tu.Statements, 3)

	ns := tu.Statements[0].Assignment
	require.NotNil(t, ns)
	assert.Equal(t, "namespace", ns.Key)
	assert.Equal(t, StringValue("zdoom"), ns.Value)

	vertex := tu.Statements[1].Block
	require.NotNil(t, vertex)
	assert.Equal(t, "vertex", vertex.Name)
	assert.Equal(t, []Assignment{
		{Key: "x", Value: FloatValue(-96), Pos: Pos{Offset: 42, Line: 5, Col: 10}},
		{Key: "y", Value: IntValue(32), Pos: Pos{Offset: 53, Line: 5, Col: 21}},
	}, vertex.Body)

	line := tu.Statements[2].Block
	require.NotNil(t, line)
	require.Len(t, line.Body, 5)
	assert.Equal(t, BoolValue(true), line.Body[3].Value)
	assert.Equal(t, "renderstyle", line.Body[4].Key)
}

func TestParseTriples(t *testing.T) {
	tu, err := Parse([]byte(`namespace="doom"; thing{x=1.0;y=2.0;} thing{x=3.0;}`))
	require.NoError(t, err)

	triples := tu.Triples()
	require.Len(t, triples, 4)
	assert.Equal(t, "", triples[0].Block)
	assert.Equal(t, -1, triples[0].BlockIndex)
	assert.Equal(t, "thing", triples[1].Block)
	assert.Equal(t, 0, triples[1].BlockIndex)
	assert.Equal(t, 0, triples[2].BlockIndex)
	assert.Equal(t, 1, triples[3].BlockIndex)
	assert.Equal(t, "x", triples[3].Key)
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		text     string
		expected Value
	}{
		{"0", IntValue(0)},
		{"42", IntValue(42)},
		{"-42", IntValue(-42)},
		{"+7", IntValue(7)},
		{"017", IntValue(15)},
		{"0x19", IntValue(25)},
		{"0x1F", IntValue(31)},
		{"0x1f", IntValue(31)},
		{"-0x10", IntValue(-16)},
		{"1.5", FloatValue(1.5)},
		{"-0.25", FloatValue(-0.25)},
		{"3.", FloatValue(3)},
		{"1.0e3", FloatValue(1000)},
		{"2.5E-2", FloatValue(0.025)},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			v, err := ParseNumber(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, v)
		})
	}
}

func TestParseNumberInvalid(t *testing.T) {
	for _, text := range []string{"1e5", "09", "0x", "0xG1", ".5", "1.2.3", "1.0e", "12abc", "99999999999999999999", "-"} {
		t.Run(text, func(t *testing.T) {
			_, err := ParseNumber(text)
			assert.ErrorIs(t, err, ErrInvalidNumberLiteral)
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		err  error
		line int
	}{
		{"missing semicolon", "x = 1\ny = 2;", ErrUnexpectedToken, 2},
		{"empty block", "vertex {\n}", ErrUnexpectedToken, 2},
		{"nested block", "a { b { c = 1; } }", ErrUnexpectedToken, 1},
		{"keyword value", "x = maybe;", ErrUnexpectedToken, 1},
		{"unclosed block", "vertex { x = 1.0;", ErrUnexpectedToken, 1},
		{"bad number", "vertex {\n x = 1e5; }", ErrInvalidNumberLiteral, 2},
		{"unterminated string", "s = \"abc", ErrUnterminatedString, 1},
		{"value at top level", "= 1;", ErrUnexpectedToken, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.err)

			var se *SyntaxError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.line, se.Pos.Line)
		})
	}
}

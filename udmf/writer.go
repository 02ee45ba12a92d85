package udmf

import (
	"bytes"
	"fmt"
	"strings"
)

// Writer builds TEXTMAP source. The first failure is kept and reported by Bytes;
// later calls are no-ops.
type Writer struct {
	buf bytes.Buffer
	err error
}

// NewWriter returns an empty Writer
func NewWriter() *Writer {
	return &Writer{}
}

// Comment writes a line comment
func (w *Writer) Comment(text string) {
	if w.err != nil {
		return
	}
	if strings.ContainsAny(text, "\r\n") {
		w.err = fmt.Errorf("udmf: comment %q spans lines", text)
		return
	}
	fmt.Fprintf(&w.buf, "// %s\n", text)
}

// Assign writes a top-level assignment
func (w *Writer) Assign(key string, v Value) {
	w.assign("", key, v)
	if w.err == nil {
		w.buf.WriteByte('\n')
	}
}

// Block writes a named block. An optional trailing comment is placed on the header line.
func (w *Writer) Block(name string, body []Assignment, comment string) {
	if w.err != nil {
		return
	}
	if !IsIdentifier(name) {
		w.err = fmt.Errorf("udmf: invalid block name %q", name)
		return
	}
	if len(body) == 0 {
		w.err = fmt.Errorf("udmf: block %q has no assignments", name)
		return
	}
	w.buf.WriteString(name)
	if comment != "" {
		w.buf.WriteString(" // ")
		w.buf.WriteString(comment)
	}
	w.buf.WriteString("\n{\n")
	for _, a := range body {
		w.assign("  ", a.Key, a.Value)
	}
	if w.err == nil {
		w.buf.WriteString("}\n\n")
	}
}

func (w *Writer) assign(indent, key string, v Value) {
	if w.err != nil {
		return
	}
	if !IsIdentifier(key) {
		w.err = fmt.Errorf("udmf: invalid key %q", key)
		return
	}
	lit, err := v.literal()
	if err != nil {
		w.err = fmt.Errorf("udmf: %s: %w", key, err)
		return
	}
	fmt.Fprintf(&w.buf, "%s%s = %s;\n", indent, key, lit)
}

// Bytes returns the written text, or the first error encountered.
func (w *Writer) Bytes() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	return w.buf.Bytes(), nil
}

// IsIdentifier reports whether s matches [A-Za-z_][A-Za-z0-9_]*
func IsIdentifier(s string) bool {
	if s == "" || !isIdentStart(s[0]) {
		return false
	}
	return allOf(s[1:], isIdentPart)
}

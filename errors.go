package wad

import (
	"fmt"
	"strings"

	"github.com/stuarthighley/wadmap/udmf"
)

// Kind categorises an Error
type Kind string

// Structural
const (
	KindMalformedHeader     Kind = "malformed_header"
	KindDirectoryOutOfRange Kind = "directory_out_of_range"
	KindTruncatedInput      Kind = "truncated_input"
	KindTruncatedRecord     Kind = "truncated_record"
	KindMissingLump         Kind = "missing_lump"
)

// Grammar. The Cause is a *udmf.SyntaxError.
const KindSyntax Kind = "syntax"

// Semantic
const (
	KindNotFound              Kind = "not_found"
	KindDanglingIndex         Kind = "dangling_index"
	KindInvalidFlags          Kind = "invalid_flags"
	KindReferencedEntityInUse Kind = "referenced_entity_in_use"
	KindMissingField          Kind = "missing_field"
	KindInvalidValue          Kind = "invalid_value"
	KindDuplicateField        Kind = "duplicate_field"
	KindStaleHandle           Kind = "stale_handle"
)

// Capacity
const (
	KindNameTooLong     Kind = "name_too_long"
	KindInvalidName     Kind = "invalid_name"
	KindValueOutOfRange Kind = "value_out_of_range"
	KindUnrepresentable Kind = "unrepresentable"
)

// Sentinels for use with errors.Is. Matching compares Kind only.
var (
	ErrMalformedHeader       = sentinel(KindMalformedHeader)
	ErrDirectoryOutOfRange   = sentinel(KindDirectoryOutOfRange)
	ErrTruncatedInput        = sentinel(KindTruncatedInput)
	ErrTruncatedRecord       = sentinel(KindTruncatedRecord)
	ErrMissingLump           = sentinel(KindMissingLump)
	ErrNotFound              = sentinel(KindNotFound)
	ErrDanglingIndex         = sentinel(KindDanglingIndex)
	ErrInvalidFlags          = sentinel(KindInvalidFlags)
	ErrReferencedEntityInUse = sentinel(KindReferencedEntityInUse)
	ErrMissingField          = sentinel(KindMissingField)
	ErrInvalidValue          = sentinel(KindInvalidValue)
	ErrDuplicateField        = sentinel(KindDuplicateField)
	ErrStaleHandle           = sentinel(KindStaleHandle)
	ErrNameTooLong           = sentinel(KindNameTooLong)
	ErrInvalidName           = sentinel(KindInvalidName)
	ErrValueOutOfRange       = sentinel(KindValueOutOfRange)
	ErrUnrepresentable       = sentinel(KindUnrepresentable)
	ErrSyntax                = sentinel(KindSyntax)
	ErrUnexpectedToken       = udmf.ErrUnexpectedToken
	ErrUnterminatedString    = udmf.ErrUnterminatedString
	ErrInvalidNumberLiteral  = udmf.ErrInvalidNumberLiteral
)

// Error is the error type returned by this package. Grammar failures have KindSyntax and
// wrap the *udmf.SyntaxError, so errors.Is matches both ErrSyntax and the udmf sentinels.
type Error struct {
	Kind   Kind
	Lump   string // lump or map name, if known
	Index  int    // directory, record or entity index; -1 if not applicable
	Offset int64  // byte offset in the input; -1 if not applicable
	Detail string
	Cause  error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("wad: ")
	b.WriteString(string(e.Kind))
	if e.Lump != "" {
		b.WriteString(" in ")
		b.WriteString(e.Lump)
	}
	if e.Index >= 0 {
		fmt.Fprintf(&b, " at index %d", e.Index)
	}
	if e.Offset >= 0 {
		fmt.Fprintf(&b, " (offset %d)", e.Offset)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same Kind
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

func sentinel(kind Kind) *Error {
	return &Error{Kind: kind, Index: -1, Offset: -1}
}

// newError builds an Error with no index or offset context
func newError(kind Kind, lump string, format string, args ...any) *Error {
	return &Error{Kind: kind, Lump: lump, Index: -1, Offset: -1, Detail: fmt.Sprintf(format, args...)}
}

// at sets the index context
func (e *Error) at(index int) *Error {
	e.Index = index
	return e
}

// atOffset sets the byte offset context
func (e *Error) atOffset(offset int64) *Error {
	e.Offset = offset
	return e
}

// inLump sets the lump context unless one is already present
func (e *Error) inLump(name string) *Error {
	if e.Lump == "" {
		e.Lump = name
	}
	return e
}

// Package udmf implements the grammar of the Universal Doom Map Format, the text
// encoding used by TEXTMAP lumps.
//
// The package is purely syntactic: Parse turns source text into a TranslationUnit of
// top-level assignments and named blocks, and Writer produces source text from the same
// building blocks. Mapping blocks onto vertices, linedefs and other map entities is left
// to the caller.
//
//	tu, err := udmf.Parse(src)
//	for _, t := range tu.Triples() {
//		fmt.Println(t.Block, t.Key, t.Value)
//	}
//
// Strings are kept verbatim: a backslash prevents the following quote from terminating
// the string, but no escape sequences are translated.
package udmf

package wad

import (
	"errors"

	"go.uber.org/zap"
)

// MapFormat selects a map codec
type MapFormat int

const (
	FormatDoom MapFormat = iota
	FormatHexen
	FormatUDMF
)

func (f MapFormat) String() string {
	switch f {
	case FormatDoom:
		return "doom"
	case FormatHexen:
		return "hexen"
	case FormatUDMF:
		return "udmf"
	}
	return "unknown"
}

// ParseMapFormat parses the names returned by MapFormat.String
func ParseMapFormat(s string) (MapFormat, error) {
	for _, f := range []MapFormat{FormatDoom, FormatHexen, FormatUDMF} {
		if f.String() == s {
			return f, nil
		}
	}
	return 0, newError(KindInvalidValue, "", "unknown map format %q", s)
}

// Lumps each format can carry through a conversion
var portableLumps = map[MapFormat]map[string]bool{
	FormatDoom:  {},
	FormatHexen: {lumpBehavior: true, lumpScripts: true},
	FormatUDMF:  {lumpBehavior: true, lumpScripts: true, lumpDialogue: true},
}

// DecodeMap builds a Map from the lumps that follow a map marker
func DecodeMap(lumps []Lump, f MapFormat) (*Map, error) {
	switch f {
	case FormatDoom, FormatHexen:
		return decodeBinaryMap(lumps, f == FormatHexen)
	case FormatUDMF:
		for _, l := range lumps {
			if l.name.Matches(lumpTextmap) {
				return decodeTextMap(l.Data)
			}
		}
		return nil, newError(KindMissingLump, lumpTextmap, "required map lump")
	}
	return nil, newError(KindInvalidValue, "", "unknown map format %d", f)
}

// EncodeMap serializes m as the lumps that follow a map marker: THINGS, LINEDEFS,
// SIDEDEFS, VERTEXES and SECTORS for DOOM, the same plus an empty BEHAVIOR for Hexen,
// and TEXTMAP then ENDMAP for UDMF.
func EncodeMap(m *Map, f MapFormat) ([]Lump, error) {
	switch f {
	case FormatDoom, FormatHexen:
		return encodeBinaryMap(m, f == FormatHexen)
	case FormatUDMF:
		src, err := encodeTextMap(m)
		if err != nil {
			return nil, err
		}
		return []Lump{namedLump(lumpTextmap, src), namedLump(lumpEndmap, nil)}, nil
	}
	return nil, newError(KindInvalidValue, "", "unknown map format %d", f)
}

// MapSpan locates a map in the directory. Start is the marker index and End is one past
// the last lump of the map.
type MapSpan struct {
	Name   string
	Start  int
	End    int
	Format MapFormat
}

// Maps lists the maps in directory order. A marker is any lump directly followed by
// THINGS or TEXTMAP; a BEHAVIOR lump in a binary span marks Hexen.
func (w *Wad) Maps() ([]MapSpan, error) {
	var spans []MapSpan
	for i := 0; i+1 < len(w.lumps); i++ {
		next := w.lumps[i+1].Name()
		switch next {
		case lumpThings:
			span := MapSpan{Name: w.lumps[i].Name(), Start: i, End: w.runEnd(i+1, func(n string) bool { return binaryMapLumps[n] })}
			span.Format = FormatDoom
			for _, l := range w.lumps[i+1 : span.End] {
				if l.name.Matches(lumpBehavior) {
					span.Format = FormatHexen
				}
			}
			spans = append(spans, span)
			i = span.End - 1
		case lumpTextmap:
			end := w.runEnd(i+1, func(n string) bool { return n != lumpEndmap })
			if end == len(w.lumps) {
				return nil, newError(KindMissingLump, w.lumps[i].Name(), "map has no %s", lumpEndmap).at(i)
			}
			spans = append(spans, MapSpan{Name: w.lumps[i].Name(), Start: i, End: end + 1, Format: FormatUDMF})
			i = end
		}
	}
	return spans, nil
}

// FindMap returns the span of the first map whose marker is named name
func (w *Wad) FindMap(name string) (MapSpan, error) {
	spans, err := w.Maps()
	if err != nil {
		return MapSpan{}, err
	}
	for _, s := range spans {
		if w.lumps[s.Start].name.Matches(name) {
			return s, nil
		}
	}
	return MapSpan{}, newError(KindNotFound, name, "no such map")
}

// MapLumps returns copies of the lumps of a map, marker included
func (w *Wad) MapLumps(name string) ([]Lump, error) {
	s, err := w.FindMap(name)
	if err != nil {
		return nil, err
	}
	return cloneLumps(w.lumps[s.Start:s.End]), nil
}

// ReplaceMap substitutes lumps, which should begin with a marker, for the span of map name
func (w *Wad) ReplaceMap(name string, lumps []Lump) error {
	s, err := w.FindMap(name)
	if err != nil {
		return err
	}
	w.splice(s.Start, s.End, cloneLumps(lumps))
	return nil
}

// ReadMap decodes map name with the codec its span calls for
func (w *Wad) ReadMap(name string) (*Map, error) {
	s, err := w.FindMap(name)
	if err != nil {
		return nil, err
	}
	return w.readSpan(s)
}

func (w *Wad) readSpan(s MapSpan) (*Map, error) {
	log().Debug("Reading map", zap.String("name", s.Name), zap.Stringer("format", s.Format))
	m, err := DecodeMap(w.lumps[s.Start+1:s.End], s.Format)
	if err != nil {
		return nil, withMap(err, s.Name)
	}
	return m, nil
}

// WriteMap encodes m as map name in format f. An existing map keeps its marker. Unmodeled
// lumps of the old span stay in place when the format is unchanged; across formats only
// BEHAVIOR, SCRIPTS and DIALOGUE are kept, where the new format can hold them. A map that
// does not exist yet is appended to the directory.
func (w *Wad) WriteMap(name string, m *Map, f MapFormat) error {
	encoded, err := EncodeMap(m, f)
	if err != nil {
		return withMap(err, name)
	}

	s, err := w.FindMap(name)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return err
		}
		marker, err := NewLump(name, nil)
		if err != nil {
			return err
		}
		log().Debug("Appending map", zap.String("name", name), zap.Stringer("format", f))
		w.lumps = append(w.lumps, marker)
		w.lumps = append(w.lumps, cloneLumps(encoded)...)
		return nil
	}

	log().Debug("Writing map", zap.String("name", s.Name), zap.Stringer("from", s.Format), zap.Stringer("to", f))
	old := w.lumps[s.Start+1 : s.End]
	var data []Lump
	if s.Format == f {
		data = mergeSpan(old, encoded)
	} else {
		data = carrySpan(old, encoded, portableLumps[f])
	}
	span := append([]Lump{w.lumps[s.Start].clone()}, data...)
	w.splice(s.Start, s.End, span)
	return nil
}

// mergeSpan replaces modeled lumps of old in place and keeps everything else. The empty
// BEHAVIOR placeholder never overrides an existing script.
func mergeSpan(old, encoded []Lump) []Lump {
	used := make([]bool, len(encoded))
	take := func(name String8) (Lump, bool) {
		for i, l := range encoded {
			if !used[i] && l.name.Matches(name.String()) {
				used[i] = true
				return l, true
			}
		}
		return Lump{}, false
	}

	out := make([]Lump, 0, len(old)+len(encoded))
	for _, l := range old {
		if l.name.Matches(lumpBehavior) {
			take(l.name)
			out = append(out, l.clone())
			continue
		}
		if n, ok := take(l.name); ok {
			out = append(out, n)
			continue
		}
		out = append(out, l.clone())
	}
	for i, l := range encoded {
		if !used[i] {
			out = append(out, l)
		}
	}
	return out
}

// carrySpan inserts the portable lumps of old into a freshly encoded span. BEHAVIOR
// replaces the encoder's placeholder; the others precede a trailing ENDMAP.
func carrySpan(old, encoded []Lump, portable map[string]bool) []Lump {
	out := make([]Lump, 0, len(encoded))
	var extra []Lump
	for _, l := range old {
		if portable[l.Name()] {
			extra = append(extra, l.clone())
		}
	}
	for _, l := range encoded {
		if l.name.Matches(lumpBehavior) {
			if i := indexLump(extra, lumpBehavior); i >= 0 {
				l = extra[i]
				extra = append(extra[:i], extra[i+1:]...)
			}
		}
		if l.name.Matches(lumpEndmap) {
			out = append(out, extra...)
			extra = nil
		}
		out = append(out, l)
	}
	return append(out, extra...)
}

func indexLump(lumps []Lump, name string) int {
	for i, l := range lumps {
		if l.name.Matches(name) {
			return i
		}
	}
	return -1
}

// withMap records the map name on errors that carry no lump context of their own and
// prefixes it otherwise
func withMap(err error, name string) error {
	e, ok := err.(*Error)
	if !ok {
		return err
	}
	if e.Lump == "" {
		e.Lump = name
	} else {
		e.Lump = name + "/" + e.Lump
	}
	return e
}

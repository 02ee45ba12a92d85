package wad

import (
	"bytes"
	"encoding/binary"
	"math"

	"go.uber.org/zap"
	"golang.org/x/exp/constraints"
)

// Binary map lump names
const (
	lumpThings   = "THINGS"
	lumpLinedefs = "LINEDEFS"
	lumpSidedefs = "SIDEDEFS"
	lumpVertexes = "VERTEXES"
	lumpSectors  = "SECTORS"
	lumpBehavior = "BEHAVIOR"
	lumpScripts  = "SCRIPTS"
	lumpDialogue = "DIALOGUE"
	lumpTextmap  = "TEXTMAP"
	lumpEndmap   = "ENDMAP"
)

// Lumps that may follow a binary map marker. Only the first five are modeled; the rest
// are derived structures or scripts carried through unchanged.
var binaryMapLumps = map[string]bool{
	lumpThings:   true,
	lumpLinedefs: true,
	lumpSidedefs: true,
	lumpVertexes: true,
	lumpSectors:  true,
	"SEGS":       true,
	"SSECTORS":   true,
	"NODES":      true,
	"REJECT":     true,
	"BLOCKMAP":   true,
	lumpBehavior: true,
	lumpScripts:  true,
}

type binSide struct {
	XOffset       int16
	YOffset       int16
	UpperTexture  String8
	LowerTexture  String8
	MiddleTexture String8
	SectorNum     uint16
}

type binVertex struct {
	X, Y int16
}

type binSector struct {
	FloorHeight    int16
	CeilingHeight  int16
	FloorTexture   String8
	CeilingTexture String8
	LightLevel     int16
	Type           int16
	TagNum         int16
}

// decodeBinaryMap builds a Map from the lumps following a binary map marker
func decodeBinaryMap(lumps []Lump, hexen bool) (*Map, error) {
	find := func(name string) (Lump, error) {
		for _, l := range lumps {
			if l.name.Matches(name) {
				return l, nil
			}
		}
		return Lump{}, newError(KindMissingLump, name, "required map lump")
	}
	var data [5]Lump
	for i, name := range []string{lumpThings, lumpLinedefs, lumpSidedefs, lumpVertexes, lumpSectors} {
		l, err := find(name)
		if err != nil {
			return nil, err
		}
		data[i] = l
	}

	m := NewMap()
	things, err := readThings(data[0], hexen)
	if err != nil {
		return nil, err
	}
	lines, err := readLinedefs(data[1], hexen)
	if err != nil {
		return nil, err
	}
	sides, err := readSidedefs(data[2])
	if err != nil {
		return nil, err
	}
	vertexes, err := readVertexes(data[3])
	if err != nil {
		return nil, err
	}
	sectors, err := readSectors(data[4])
	if err != nil {
		return nil, err
	}
	for _, t := range things {
		m.things.add(t)
	}
	for _, l := range lines {
		m.linedefs.add(l)
	}
	for _, s := range sides {
		m.sidedefs.add(s)
	}
	for _, v := range vertexes {
		m.vertices.add(v)
	}
	for _, s := range sectors {
		m.sectors.add(s)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// readRecords decodes a lump as a flat array of fixed-size records
func readRecords[B any](l Lump) ([]B, error) {
	var zero B
	size := binary.Size(zero)
	if len(l.Data)%size != 0 {
		return nil, newError(KindTruncatedRecord, l.Name(), "%d bytes is not a multiple of the %d byte record",
			len(l.Data), size).at(len(l.Data) / size).atOffset(int64(len(l.Data) / size * size))
	}
	recs := make([]B, len(l.Data)/size)
	if err := binary.Read(bytes.NewReader(l.Data), binary.LittleEndian, recs); err != nil {
		return nil, &Error{Kind: KindTruncatedRecord, Lump: l.Name(), Index: -1, Offset: -1, Cause: err}
	}
	return recs, nil
}

func readThings(l Lump, hexen bool) ([]Thing, error) {
	log().Debug("Reading Things ...", zap.Bool("hexen", hexen))

	var things []Thing
	if hexen {
		recs, err := readRecords[binHexenThing](l)
		if err != nil {
			return nil, err
		}
		things = make([]Thing, len(recs))
		for i := range recs {
			thing, err := recs[i].canonical()
			if err != nil {
				return nil, err.(*Error).inLump(l.Name()).at(i)
			}
			things[i] = thing
		}
	} else {
		recs, err := readRecords[binThing](l)
		if err != nil {
			return nil, err
		}
		things = make([]Thing, len(recs))
		for i := range recs {
			thing, err := recs[i].canonical()
			if err != nil {
				return nil, err.(*Error).inLump(l.Name()).at(i)
			}
			things[i] = thing
		}
	}

	log().Debug("Read things", zap.Int("count", len(things)))
	return things, nil
}

func readLinedefs(l Lump, hexen bool) ([]Linedef, error) {
	log().Debug("Reading Lines ...", zap.Bool("hexen", hexen))

	var lines []Linedef
	if hexen {
		recs, err := readRecords[binHexenLine](l)
		if err != nil {
			return nil, err
		}
		lines = make([]Linedef, len(recs))
		for i := range recs {
			line, err := recs[i].canonical()
			if err != nil {
				return nil, err.(*Error).inLump(l.Name()).at(i)
			}
			lines[i] = line
		}
	} else {
		recs, err := readRecords[binLine](l)
		if err != nil {
			return nil, err
		}
		lines = make([]Linedef, len(recs))
		for i := range recs {
			line, err := recs[i].canonical()
			if err != nil {
				return nil, err.(*Error).inLump(l.Name()).at(i)
			}
			lines[i] = line
		}
	}

	log().Debug("Read lines", zap.Int("count", len(lines)))
	return lines, nil
}

func readSidedefs(l Lump) ([]Sidedef, error) {
	log().Debug("Reading Sides ...")

	recs, err := readRecords[binSide](l)
	if err != nil {
		return nil, err
	}
	sides := make([]Sidedef, len(recs))
	for i, s := range recs {
		sides[i] = Sidedef{
			OffsetX:       int(s.XOffset),
			OffsetY:       int(s.YOffset),
			UpperTexture:  s.UpperTexture.String(),
			MiddleTexture: s.MiddleTexture.String(),
			LowerTexture:  s.LowerTexture.String(),
			Sector:        int(s.SectorNum),
		}
	}

	log().Debug("Read sides", zap.Int("count", len(sides)))
	return sides, nil
}

func readVertexes(l Lump) ([]Vertex, error) {
	log().Debug("Reading Vertexes ...")

	recs, err := readRecords[binVertex](l)
	if err != nil {
		return nil, err
	}
	vertexes := make([]Vertex, len(recs))
	for i, v := range recs {
		vertexes[i] = Vertex{X: float64(v.X), Y: float64(v.Y)}
	}

	log().Debug("Read vertexes", zap.Int("count", len(vertexes)))
	return vertexes, nil
}

func readSectors(l Lump) ([]Sector, error) {
	log().Debug("Reading Sectors ...")

	recs, err := readRecords[binSector](l)
	if err != nil {
		return nil, err
	}
	sectors := make([]Sector, len(recs))
	for i, s := range recs {
		sectors[i] = Sector{
			FloorHeight:    int(s.FloorHeight),
			CeilingHeight:  int(s.CeilingHeight),
			FloorTexture:   s.FloorTexture.String(),
			CeilingTexture: s.CeilingTexture.String(),
			LightLevel:     int(s.LightLevel),
			Special:        int(s.Type),
			Tag:            int(s.TagNum),
		}
	}

	log().Debug("Read sectors", zap.Int("count", len(sectors)))
	return sectors, nil
}

// encodeBinaryMap serializes m as the five modeled lumps, plus an empty BEHAVIOR lump
// for Hexen. Opaque Fields, Globals and Blocks have no binary encoding and are skipped.
func encodeBinaryMap(m *Map, hexen bool) ([]Lump, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	things, err := writeThings(m.things.items, hexen)
	if err != nil {
		return nil, err
	}
	lines, err := writeLinedefs(m.linedefs.items, hexen)
	if err != nil {
		return nil, err
	}
	sides, err := writeSidedefs(m.sidedefs.items)
	if err != nil {
		return nil, err
	}
	vertexes, err := writeVertexes(m.vertices.items)
	if err != nil {
		return nil, err
	}
	sectors, err := writeSectors(m.sectors.items)
	if err != nil {
		return nil, err
	}
	lumps := []Lump{things, lines, sides, vertexes, sectors}
	if hexen {
		lumps = append(lumps, namedLump(lumpBehavior, nil))
	}
	return lumps, nil
}

// recordEncoder tracks the first range or representation failure while packing records
type recordEncoder struct {
	lump  string
	index int
	err   error
}

func (e *recordEncoder) fail(kind Kind, format string, args ...any) {
	if e.err == nil {
		e.err = newError(kind, e.lump, format, args...).at(e.index)
	}
}

// fitInt narrows v to the record field type T
func fitInt[T constraints.Integer](e *recordEncoder, field string, v int) T {
	t := T(v)
	if int(t) != v {
		e.fail(KindValueOutOfRange, "%s %d does not fit the field", field, v)
	}
	return t
}

// fitCoord narrows an integral coordinate to T
func fitCoord[T constraints.Signed](e *recordEncoder, field string, f float64) T {
	if f != math.Trunc(f) {
		e.fail(KindUnrepresentable, "%s %v is not integral", field, f)
		return 0
	}
	if f < math.MinInt32 || f > math.MaxInt32 {
		e.fail(KindValueOutOfRange, "%s %v does not fit the field", field, f)
		return 0
	}
	return fitInt[T](e, field, int(f))
}

// fitSide encodes a sidedef index, reserving 0xFFFF for NoSidedef
func fitSide(e *recordEncoder, field string, n int) uint16 {
	if n == NoSidedef {
		return 0xffff
	}
	if n == 0xffff {
		e.fail(KindValueOutOfRange, "%s %d is reserved", field, n)
	}
	return fitInt[uint16](e, field, n)
}

func fitName(e *recordEncoder, field, s string) String8 {
	n, err := textureName(s)
	if err != nil && e.err == nil {
		ne := err.(*Error)
		ne.Detail = field + " " + ne.Detail
		e.err = ne.inLump(e.lump).at(e.index)
	}
	return n
}

func (e *recordEncoder) unrepresentable(cond bool, format string, args ...any) {
	if cond {
		e.fail(KindUnrepresentable, format, args...)
	}
}

func (e *recordEncoder) wrap(err error) {
	if err != nil && e.err == nil {
		e.err = err.(*Error).inLump(e.lump).at(e.index)
	}
}

func writeThings(things []Thing, hexen bool) (Lump, error) {
	e := &recordEncoder{lump: lumpThings}
	if hexen {
		recs := make([]binHexenThing, len(things))
		for i := range things {
			t := &things[i]
			e.index = i
			opts, err := encodeHexenOptions(t.Flags)
			e.wrap(err)
			recs[i] = binHexenThing{
				ID:      fitInt[int16](e, "id", t.ID),
				X:       fitCoord[int16](e, "x", t.X),
				Y:       fitCoord[int16](e, "y", t.Y),
				Height:  fitCoord[int16](e, "height", t.Height),
				Angle:   fitInt[int16](e, "angle", t.Angle),
				Type:    fitInt[int16](e, "type", t.Type),
				Options: opts,
				Special: fitInt[uint8](e, "special", t.Special),
			}
			for j, a := range t.Args {
				recs[i].Args[j] = fitInt[uint8](e, "arg", a)
			}
			if e.err != nil {
				return Lump{}, e.err
			}
		}
		return writeRecords(lumpThings, recs)
	}

	recs := make([]binThing, len(things))
	for i := range things {
		t := &things[i]
		e.index = i
		e.unrepresentable(t.ID != 0, "thing id %d", t.ID)
		e.unrepresentable(t.Height != 0, "thing height %v", t.Height)
		e.unrepresentable(t.Special != 0, "thing special %d", t.Special)
		e.unrepresentable(t.Args != [5]int{}, "thing args %v", t.Args)
		opts, err := encodeDoomOptions(t.Flags)
		e.wrap(err)
		recs[i] = binThing{
			X:       fitCoord[int16](e, "x", t.X),
			Y:       fitCoord[int16](e, "y", t.Y),
			Angle:   fitInt[int16](e, "angle", t.Angle),
			Type:    fitInt[int16](e, "type", t.Type),
			Options: opts,
		}
		if e.err != nil {
			return Lump{}, e.err
		}
	}
	return writeRecords(lumpThings, recs)
}

func writeLinedefs(lines []Linedef, hexen bool) (Lump, error) {
	e := &recordEncoder{lump: lumpLinedefs}
	if hexen {
		recs := make([]binHexenLine, len(lines))
		for i := range lines {
			l := &lines[i]
			e.index = i
			e.unrepresentable(l.Tag != 0, "linedef tag %d", l.Tag)
			flags, left := encodeBits(l.Flags&^(lineTriggers|LinePassUse), lineHexenBits)
			e.unrepresentable(left != 0, "linedef flags 0x%x have no Hexen encoding", uint32(left))
			spac, err := hexenActivation(l.Flags, l.Special)
			e.wrap(err)
			recs[i] = binHexenLine{
				VertexStart: fitInt[uint16](e, "v1", l.V1),
				VertexEnd:   fitInt[uint16](e, "v2", l.V2),
				Flags:       flags | spac,
				Special:     fitInt[uint8](e, "special", l.Special),
				SideR:       fitSide(e, "sidefront", l.Front),
				SideL:       fitSide(e, "sideback", l.Back),
			}
			for j, a := range l.Args {
				recs[i].Args[j] = fitInt[uint8](e, "arg", a)
			}
			if e.err != nil {
				return Lump{}, e.err
			}
		}
		return writeRecords(lumpLinedefs, recs)
	}

	recs := make([]binLine, len(lines))
	for i := range lines {
		l := &lines[i]
		e.index = i
		e.unrepresentable(l.Args != [5]int{}, "linedef args %v", l.Args)
		flags, left := encodeBits(l.Flags, lineDoomBits)
		e.unrepresentable(left != 0, "linedef flags 0x%x have no DOOM encoding", uint32(left))
		recs[i] = binLine{
			VertexStart: fitInt[uint16](e, "v1", l.V1),
			VertexEnd:   fitInt[uint16](e, "v2", l.V2),
			Flags:       flags,
			Type:        fitInt[uint16](e, "special", l.Special),
			SectorTag:   fitInt[int16](e, "tag", l.Tag),
			SideR:       fitSide(e, "sidefront", l.Front),
			SideL:       fitSide(e, "sideback", l.Back),
		}
		if e.err != nil {
			return Lump{}, e.err
		}
	}
	return writeRecords(lumpLinedefs, recs)
}

func writeSidedefs(sides []Sidedef) (Lump, error) {
	e := &recordEncoder{lump: lumpSidedefs}
	recs := make([]binSide, len(sides))
	for i := range sides {
		s := &sides[i]
		e.index = i
		recs[i] = binSide{
			XOffset:       fitInt[int16](e, "offsetx", s.OffsetX),
			YOffset:       fitInt[int16](e, "offsety", s.OffsetY),
			UpperTexture:  fitName(e, "texturetop", s.UpperTexture),
			LowerTexture:  fitName(e, "texturebottom", s.LowerTexture),
			MiddleTexture: fitName(e, "texturemiddle", s.MiddleTexture),
			SectorNum:     fitInt[uint16](e, "sector", s.Sector),
		}
		if e.err != nil {
			return Lump{}, e.err
		}
	}
	return writeRecords(lumpSidedefs, recs)
}

func writeVertexes(vertexes []Vertex) (Lump, error) {
	e := &recordEncoder{lump: lumpVertexes}
	recs := make([]binVertex, len(vertexes))
	for i := range vertexes {
		e.index = i
		recs[i] = binVertex{
			X: fitCoord[int16](e, "x", vertexes[i].X),
			Y: fitCoord[int16](e, "y", vertexes[i].Y),
		}
		if e.err != nil {
			return Lump{}, e.err
		}
	}
	return writeRecords(lumpVertexes, recs)
}

func writeSectors(sectors []Sector) (Lump, error) {
	e := &recordEncoder{lump: lumpSectors}
	recs := make([]binSector, len(sectors))
	for i := range sectors {
		s := &sectors[i]
		e.index = i
		recs[i] = binSector{
			FloorHeight:    fitInt[int16](e, "heightfloor", s.FloorHeight),
			CeilingHeight:  fitInt[int16](e, "heightceiling", s.CeilingHeight),
			FloorTexture:   fitName(e, "texturefloor", s.FloorTexture),
			CeilingTexture: fitName(e, "textureceiling", s.CeilingTexture),
			LightLevel:     fitInt[int16](e, "lightlevel", s.LightLevel),
			Type:           fitInt[int16](e, "special", s.Special),
			TagNum:         fitInt[int16](e, "id", s.Tag),
		}
		if e.err != nil {
			return Lump{}, e.err
		}
	}
	return writeRecords(lumpSectors, recs)
}

func writeRecords[B any](name string, recs []B) (Lump, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, recs); err != nil {
		return Lump{}, err
	}
	return namedLump(name, buf.Bytes()), nil
}

// namedLump builds a lump with a name known to fit the directory field
func namedLump(name string, data []byte) Lump {
	var n String8
	copy(n[:], name)
	return Lump{name: n, Data: data}
}

package wad

// LineFlags is the format-neutral linedef flag set. DOOM and Hexen records store a subset
// of these bits in their own layouts; UDMF stores each as a boolean key.
type LineFlags uint32

const (
	LineBlocking          LineFlags = 1 << iota // blocks players and monsters
	LineBlockMonsters                           // blocks monsters only
	LineTwoSided                                // has a back side
	LineDontPegTop                              // upper texture unpegged
	LineDontPegBottom                           // lower texture unpegged
	LineSecret                                  // shown as one-sided on the automap
	LineBlockSound                              // blocks sound propagation
	LineDontDraw                                // never shown on the automap
	LineMapped                                  // always shown on the automap
	LinePassUse                                 // Boom: use passes through
	LineBlockLandMonsters                       // MBF21
	LineBlockPlayers                            // MBF21, ZDoom
	LineRepeatSpecial                           // Hexen: special can be activated repeatedly
	LinePlayerCross                             // activation triggers
	LinePlayerUse
	LineMonsterCross
	LineImpact
	LinePlayerPush
	LineMissileCross
	LineMonsterActivate // Hexen: monsters can activate
	LineBlockEverything // ZDoom

	allLineFlags = LineBlockEverything<<1 - 1

	lineTriggers = LinePlayerCross | LinePlayerUse | LineMonsterCross | LineImpact | LinePlayerPush | LineMissileCross
)

// Bits shared by the DOOM and Hexen linedef layouts
var lineCommonBits = []flagBit[LineFlags]{
	{0x0001, LineBlocking},
	{0x0002, LineBlockMonsters},
	{0x0004, LineTwoSided},
	{0x0008, LineDontPegTop},
	{0x0010, LineDontPegBottom},
	{0x0020, LineSecret},
	{0x0040, LineBlockSound},
	{0x0080, LineDontDraw},
	{0x0100, LineMapped},
}

var lineDoomBits = append(lineCommonBits[:len(lineCommonBits):len(lineCommonBits)], []flagBit[LineFlags]{
	{0x0200, LinePassUse},
	{0x1000, LineBlockLandMonsters},
	{0x2000, LineBlockPlayers},
}...)

var lineHexenBits = append(lineCommonBits[:len(lineCommonBits):len(lineCommonBits)], []flagBit[LineFlags]{
	{0x0200, LineRepeatSpecial},
	{0x2000, LineMonsterActivate},
	{0x4000, LineBlockPlayers},
	{0x8000, LineBlockEverything},
}...)

// Hexen activation types, stored in bits 10-12
const (
	spacShift = 10
	spacMask  = 0x1c00
)

// Indexed by activation type
var spacTriggers = []LineFlags{
	LinePlayerCross,
	LinePlayerUse,
	LineMonsterCross,
	LineImpact,
	LinePlayerPush,
	LineMissileCross,
	LinePlayerUse | LinePassUse,
}

type binLine struct {
	VertexStart, VertexEnd uint16
	Flags                  uint16
	Type                   uint16
	SectorTag              int16
	SideR, SideL           uint16
}

type binHexenLine struct {
	VertexStart, VertexEnd uint16
	Flags                  uint16
	Special                uint8
	Args                   [5]uint8
	SideR, SideL           uint16
}

// flagBit maps one bit of a binary record onto a canonical flag
type flagBit[F ~uint32] struct {
	bit  uint16
	flag F
}

// unmappedBits returns the bits of v that no table entry names
func unmappedBits[F ~uint32](v uint16, tables ...[]flagBit[F]) uint16 {
	for _, table := range tables {
		for _, b := range table {
			v &^= b.bit
		}
	}
	return v
}

func decodeBits[F ~uint32](v uint16, table []flagBit[F]) F {
	var f F
	for _, b := range table {
		if v&b.bit != 0 {
			f |= b.flag
		}
	}
	return f
}

// encodeBits packs f into the layout described by table and returns any flags the
// layout cannot hold
func encodeBits[F ~uint32](f F, table []flagBit[F]) (uint16, F) {
	var v uint16
	for _, b := range table {
		if f&b.flag != 0 {
			v |= b.bit
			f &^= b.flag
		}
	}
	return v, f
}

func sideNum(n uint16) int {
	if n == 0xffff {
		return NoSidedef
	}
	return int(n)
}

func (l *binLine) canonical() (Linedef, error) {
	if extra := unmappedBits(l.Flags, lineDoomBits); extra != 0 {
		return Linedef{}, newError(KindInvalidFlags, "", "linedef flags 0x%04x have no DOOM meaning", extra)
	}
	return Linedef{
		V1:      int(l.VertexStart),
		V2:      int(l.VertexEnd),
		Flags:   decodeBits(l.Flags, lineDoomBits),
		Special: int(l.Type),
		Tag:     int(l.SectorTag),
		Front:   sideNum(l.SideR),
		Back:    sideNum(l.SideL),
	}, nil
}

func (l *binHexenLine) canonical() (Linedef, error) {
	line := Linedef{
		V1:      int(l.VertexStart),
		V2:      int(l.VertexEnd),
		Flags:   decodeBits(l.Flags, lineHexenBits),
		Special: int(l.Special),
		Front:   sideNum(l.SideR),
		Back:    sideNum(l.SideL),
	}
	for i, a := range l.Args {
		line.Args[i] = int(a)
	}

	// A line without a special has no meaningful trigger
	spac := int(l.Flags&spacMask) >> spacShift
	if spac >= len(spacTriggers) {
		return line, newError(KindInvalidFlags, "", "activation type %d", spac)
	}
	if l.Special != 0 || spac != 0 {
		line.Flags |= spacTriggers[spac]
	}
	return line, nil
}

// hexenActivation returns the activation type for the trigger flags in f
func hexenActivation(f LineFlags, special int) (uint16, error) {
	trig := f & (lineTriggers | LinePassUse)
	if trig == 0 {
		if special != 0 {
			return 0, newError(KindUnrepresentable, "", "special %d has no activation trigger", special)
		}
		return 0, nil
	}
	// Activation type 0 on a line without a special reads back as no trigger
	if trig == LinePlayerCross && special == 0 {
		return 0, newError(KindUnrepresentable, "", "player-cross trigger needs a special")
	}
	for spac, t := range spacTriggers {
		if trig == t {
			return uint16(spac) << spacShift, nil
		}
	}
	return 0, newError(KindUnrepresentable, "", "activation flags 0x%x are not a single Hexen trigger", uint32(trig))
}

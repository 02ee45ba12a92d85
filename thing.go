package wad

// ThingFlags is the format-neutral thing flag set
type ThingFlags uint32

const (
	ThingSkill1 ThingFlags = 1 << iota
	ThingSkill2
	ThingSkill3
	ThingSkill4
	ThingSkill5
	ThingAmbush     // deaf until it sees a player
	ThingSingle     // present in single player
	ThingCoop       // present in cooperative
	ThingDeathmatch // present in deathmatch
	ThingDormant    // Hexen
	ThingFighter    // Hexen classes
	ThingCleric
	ThingMage
	ThingTranslucent // ZDoom
	ThingInvisible
	ThingFriend // MBF
	ThingStanding

	allThingFlags = ThingStanding<<1 - 1

	thingSkills = ThingSkill1 | ThingSkill2 | ThingSkill3 | ThingSkill4 | ThingSkill5
	thingModes  = ThingSingle | ThingCoop | ThingDeathmatch
)

// Skill bits of both binary layouts. Each bit covers a pair of skills except the middle one.
var thingSkillBits = []flagBit[ThingFlags]{
	{0x0001, ThingSkill1 | ThingSkill2},
	{0x0002, ThingSkill3},
	{0x0004, ThingSkill4 | ThingSkill5},
}

var thingDoomBits = []flagBit[ThingFlags]{
	{0x0008, ThingAmbush},
	{0x0080, ThingFriend},
}

// DOOM stores game modes as exclusions
var thingDoomModeBits = []flagBit[ThingFlags]{
	{0x0010, ThingSingle},
	{0x0020, ThingDeathmatch},
	{0x0040, ThingCoop},
}

var thingHexenBits = []flagBit[ThingFlags]{
	{0x0008, ThingAmbush},
	{0x0010, ThingDormant},
	{0x0020, ThingFighter},
	{0x0040, ThingCleric},
	{0x0080, ThingMage},
	{0x0100, ThingSingle},
	{0x0200, ThingCoop},
	{0x0400, ThingDeathmatch},
	{0x0800, ThingTranslucent},
	{0x1000, ThingInvisible},
	{0x2000, ThingFriend},
	{0x4000, ThingStanding},
}

type binThing struct {
	X       int16
	Y       int16
	Angle   int16
	Type    int16
	Options uint16
}

type binHexenThing struct {
	ID      int16
	X       int16
	Y       int16
	Height  int16
	Angle   int16
	Type    int16
	Options uint16
	Special uint8
	Args    [5]uint8
}

func (t *binThing) canonical() (Thing, error) {
	if extra := unmappedBits(t.Options, thingSkillBits, thingDoomBits, thingDoomModeBits); extra != 0 {
		return Thing{}, newError(KindInvalidFlags, "", "thing options 0x%04x have no DOOM meaning", extra)
	}
	flags := decodeBits(t.Options, thingSkillBits) | decodeBits(t.Options, thingDoomBits)
	flags |= thingModes &^ decodeBits(t.Options, thingDoomModeBits)
	return Thing{
		X:     float64(t.X),
		Y:     float64(t.Y),
		Angle: int(t.Angle),
		Type:  int(t.Type),
		Flags: flags,
	}, nil
}

func (t *binHexenThing) canonical() (Thing, error) {
	if extra := unmappedBits(t.Options, thingSkillBits, thingHexenBits); extra != 0 {
		return Thing{}, newError(KindInvalidFlags, "", "thing options 0x%04x have no Hexen meaning", extra)
	}
	thing := Thing{
		ID:      int(t.ID),
		X:       float64(t.X),
		Y:       float64(t.Y),
		Height:  float64(t.Height),
		Angle:   int(t.Angle),
		Type:    int(t.Type),
		Flags:   decodeBits(t.Options, thingSkillBits) | decodeBits(t.Options, thingHexenBits),
		Special: int(t.Special),
	}
	for i, a := range t.Args {
		thing.Args[i] = int(a)
	}
	return thing, nil
}

// encodeSkills packs the skill flags, failing if a skill pair is split
func encodeSkills(f ThingFlags) (uint16, error) {
	for _, pair := range []ThingFlags{ThingSkill1 | ThingSkill2, ThingSkill4 | ThingSkill5} {
		if s := f & pair; s != 0 && s != pair {
			return 0, newError(KindUnrepresentable, "", "skill flags 0x%x are not paired", uint32(f&pair))
		}
	}
	v, _ := encodeBits(f&thingSkills, thingSkillBits)
	return v, nil
}

// encodeDoomOptions packs f into the DOOM thing options word
func encodeDoomOptions(f ThingFlags) (uint16, error) {
	v, err := encodeSkills(f)
	if err != nil {
		return 0, err
	}
	rest := f &^ (thingSkills | thingModes)
	bits, left := encodeBits(rest, thingDoomBits)
	if left != 0 {
		return 0, newError(KindUnrepresentable, "", "thing flags 0x%x have no DOOM encoding", uint32(left))
	}
	modes, _ := encodeBits(thingModes&^f, thingDoomModeBits)
	return v | bits | modes, nil
}

// encodeHexenOptions packs f into the Hexen thing options word
func encodeHexenOptions(f ThingFlags) (uint16, error) {
	v, err := encodeSkills(f)
	if err != nil {
		return 0, err
	}
	rest := f &^ thingSkills
	bits, left := encodeBits(rest, thingHexenBits)
	if left != 0 {
		return 0, newError(KindUnrepresentable, "", "thing flags 0x%x have no Hexen encoding", uint32(left))
	}
	return v | bits, nil
}

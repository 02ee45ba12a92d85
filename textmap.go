package wad

import (
	"errors"
	"strconv"
	"strings"

	"github.com/stuarthighley/wadmap/udmf"
	"go.uber.org/zap"
)

// DefaultNamespace is written when a map has no namespace of its own
const DefaultNamespace = "zdoom"

// fieldSpec binds one UDMF key to a field of entity type T
type fieldSpec[T any] struct {
	key      string
	required bool
	decode   func(*T, udmf.Value) bool
	encode   func(*T) (udmf.Value, bool) // false if the value is the default
}

func intField[T any](key string, required bool, def int, p func(*T) *int) fieldSpec[T] {
	return fieldSpec[T]{
		key:      key,
		required: required,
		decode: func(e *T, v udmf.Value) bool {
			if v.Kind != udmf.Int || int64(int(v.Int)) != v.Int {
				return false
			}
			*p(e) = int(v.Int)
			return true
		},
		encode: func(e *T) (udmf.Value, bool) {
			return udmf.IntValue(int64(*p(e))), *p(e) != def
		},
	}
}

func floatField[T any](key string, required bool, p func(*T) *float64) fieldSpec[T] {
	return fieldSpec[T]{
		key:      key,
		required: required,
		decode: func(e *T, v udmf.Value) bool {
			f, ok := v.Number()
			if ok {
				*p(e) = f
			}
			return ok
		},
		encode: func(e *T) (udmf.Value, bool) {
			return udmf.FloatValue(*p(e)), *p(e) != 0
		},
	}
}

func stringField[T any](key string, required bool, def string, p func(*T) *string) fieldSpec[T] {
	return fieldSpec[T]{
		key:      key,
		required: required,
		decode: func(e *T, v udmf.Value) bool {
			if v.Kind != udmf.String {
				return false
			}
			*p(e) = v.Str
			return true
		},
		encode: func(e *T) (udmf.Value, bool) {
			return udmf.StringValue(*p(e)), *p(e) != def
		},
	}
}

func flagField[T any, F ~uint32](key string, bit F, p func(*T) *F) fieldSpec[T] {
	return fieldSpec[T]{
		key: key,
		decode: func(e *T, v udmf.Value) bool {
			if v.Kind != udmf.Bool {
				return false
			}
			if v.Bool {
				*p(e) |= bit
			} else {
				*p(e) &^= bit
			}
			return true
		},
		encode: func(e *T) (udmf.Value, bool) {
			set := *p(e)&bit != 0
			return udmf.BoolValue(set), set
		},
	}
}

func argFields[T any](p func(*T) *[5]int) []fieldSpec[T] {
	fields := make([]fieldSpec[T], 5)
	for i := range fields {
		fields[i] = intField("arg"+strconv.Itoa(i), false, 0, func(e *T) *int { return &p(e)[i] })
	}
	return fields
}

// blockCodec maps one UDMF block type onto entity type T
type blockCodec[T any] struct {
	name     string
	fields   []fieldSpec[T]
	index    map[string]int
	defaults T
}

func newBlockCodec[T any](name string, defaults T, fields ...[]fieldSpec[T]) *blockCodec[T] {
	c := &blockCodec[T]{name: name, index: map[string]int{}, defaults: defaults}
	for _, group := range fields {
		c.fields = append(c.fields, group...)
	}
	for i, f := range c.fields {
		c.index[f.key] = i
	}
	return c
}

var vertexCodec = newBlockCodec("vertex", Vertex{}, []fieldSpec[Vertex]{
	floatField("x", true, func(v *Vertex) *float64 { return &v.X }),
	floatField("y", true, func(v *Vertex) *float64 { return &v.Y }),
})

var linedefCodec = newBlockCodec("linedef", Linedef{Back: NoSidedef},
	[]fieldSpec[Linedef]{
		intField("v1", true, 0, func(l *Linedef) *int { return &l.V1 }),
		intField("v2", true, 0, func(l *Linedef) *int { return &l.V2 }),
		intField("sidefront", true, 0, func(l *Linedef) *int { return &l.Front }),
		intField("sideback", false, NoSidedef, func(l *Linedef) *int { return &l.Back }),
		intField("id", false, 0, func(l *Linedef) *int { return &l.Tag }),
		intField("special", false, 0, func(l *Linedef) *int { return &l.Special }),
	},
	argFields(func(l *Linedef) *[5]int { return &l.Args }),
	flagFields([]flagKey[LineFlags]{
		{"blocking", LineBlocking},
		{"blockmonsters", LineBlockMonsters},
		{"twosided", LineTwoSided},
		{"dontpegtop", LineDontPegTop},
		{"dontpegbottom", LineDontPegBottom},
		{"secret", LineSecret},
		{"blocksound", LineBlockSound},
		{"dontdraw", LineDontDraw},
		{"mapped", LineMapped},
		{"passuse", LinePassUse},
		{"blocklandmonsters", LineBlockLandMonsters},
		{"blockplayers", LineBlockPlayers},
		{"repeatspecial", LineRepeatSpecial},
		{"playercross", LinePlayerCross},
		{"playeruse", LinePlayerUse},
		{"monstercross", LineMonsterCross},
		{"impact", LineImpact},
		{"playerpush", LinePlayerPush},
		{"missilecross", LineMissileCross},
		{"monsteractivate", LineMonsterActivate},
		{"blockeverything", LineBlockEverything},
	}, func(l *Linedef) *LineFlags { return &l.Flags }),
)

var sidedefCodec = newBlockCodec("sidedef", Sidedef{UpperTexture: "-", MiddleTexture: "-", LowerTexture: "-"},
	[]fieldSpec[Sidedef]{
		intField("sector", true, 0, func(s *Sidedef) *int { return &s.Sector }),
		intField("offsetx", false, 0, func(s *Sidedef) *int { return &s.OffsetX }),
		intField("offsety", false, 0, func(s *Sidedef) *int { return &s.OffsetY }),
		stringField("texturetop", false, "-", func(s *Sidedef) *string { return &s.UpperTexture }),
		stringField("texturebottom", false, "-", func(s *Sidedef) *string { return &s.LowerTexture }),
		stringField("texturemiddle", false, "-", func(s *Sidedef) *string { return &s.MiddleTexture }),
	},
)

var sectorCodec = newBlockCodec("sector", Sector{LightLevel: 160},
	[]fieldSpec[Sector]{
		stringField("texturefloor", true, "", func(s *Sector) *string { return &s.FloorTexture }),
		stringField("textureceiling", true, "", func(s *Sector) *string { return &s.CeilingTexture }),
		intField("heightfloor", false, 0, func(s *Sector) *int { return &s.FloorHeight }),
		intField("heightceiling", false, 0, func(s *Sector) *int { return &s.CeilingHeight }),
		intField("lightlevel", false, 160, func(s *Sector) *int { return &s.LightLevel }),
		intField("special", false, 0, func(s *Sector) *int { return &s.Special }),
		intField("id", false, 0, func(s *Sector) *int { return &s.Tag }),
	},
)

var thingCodec = newBlockCodec("thing", Thing{},
	[]fieldSpec[Thing]{
		floatField("x", true, func(t *Thing) *float64 { return &t.X }),
		floatField("y", true, func(t *Thing) *float64 { return &t.Y }),
		intField("type", true, 0, func(t *Thing) *int { return &t.Type }),
		intField("id", false, 0, func(t *Thing) *int { return &t.ID }),
		floatField("height", false, func(t *Thing) *float64 { return &t.Height }),
		intField("angle", false, 0, func(t *Thing) *int { return &t.Angle }),
		intField("special", false, 0, func(t *Thing) *int { return &t.Special }),
	},
	argFields(func(t *Thing) *[5]int { return &t.Args }),
	flagFields([]flagKey[ThingFlags]{
		{"skill1", ThingSkill1},
		{"skill2", ThingSkill2},
		{"skill3", ThingSkill3},
		{"skill4", ThingSkill4},
		{"skill5", ThingSkill5},
		{"ambush", ThingAmbush},
		{"single", ThingSingle},
		{"coop", ThingCoop},
		{"dm", ThingDeathmatch},
		{"dormant", ThingDormant},
		{"class1", ThingFighter},
		{"class2", ThingCleric},
		{"class3", ThingMage},
		{"translucent", ThingTranslucent},
		{"invisible", ThingInvisible},
		{"friend", ThingFriend},
		{"standing", ThingStanding},
	}, func(t *Thing) *ThingFlags { return &t.Flags }),
)

// flagKey names the UDMF boolean key of one flag
type flagKey[F ~uint32] struct {
	key  string
	flag F
}

func flagFields[T any, F ~uint32](keys []flagKey[F], p func(*T) *F) []fieldSpec[T] {
	fields := make([]fieldSpec[T], len(keys))
	for i, k := range keys {
		fields[i] = flagField(k.key, k.flag, p)
	}
	return fields
}

// entityPtr is satisfied by pointers to the five entity types
type entityPtr[T any] interface {
	*T
	opaque() *Fields
}

func posError(kind Kind, index int, pos udmf.Pos, format string, args ...any) *Error {
	e := newError(kind, lumpTextmap, format, args...).at(index).atOffset(int64(pos.Offset))
	e.Detail += " at " + pos.String()
	return e
}

// decodeBlock builds the index'th entity of its kind from a block body
func decodeBlock[T any, P entityPtr[T]](c *blockCodec[T], b *udmf.Block, index int) (T, error) {
	e := c.defaults
	seen := make([]bool, len(c.fields))
	for _, a := range b.Body {
		i, ok := c.index[strings.ToLower(a.Key)]
		if !ok {
			fields := P(&e).opaque()
			*fields = append(*fields, Field{Key: a.Key, Value: a.Value})
			continue
		}
		if seen[i] {
			return e, posError(KindDuplicateField, index, a.Pos, "%s key %q assigned twice", c.name, a.Key)
		}
		seen[i] = true
		if !c.fields[i].decode(&e, a.Value) {
			return e, posError(KindInvalidValue, index, a.Pos, "%s key %q cannot hold %s %s", c.name, a.Key, a.Value.Kind, a.Value)
		}
	}
	for i, f := range c.fields {
		if f.required && !seen[i] {
			return e, posError(KindMissingField, index, b.Pos, "%s needs %q", c.name, f.key)
		}
	}
	return e, nil
}

// encodeBlock returns the assignments for one entity: modeled fields in table order with
// defaults omitted, then opaque fields in their stored order
func encodeBlock[T any, P entityPtr[T]](c *blockCodec[T], e *T, index int) ([]udmf.Assignment, error) {
	var body []udmf.Assignment
	for _, f := range c.fields {
		if v, emit := f.encode(e); emit || f.required {
			body = append(body, udmf.Assignment{Key: f.key, Value: v})
		}
	}
	for _, fld := range *P(e).opaque() {
		if _, ok := c.index[strings.ToLower(fld.Key)]; ok {
			return nil, newError(KindInvalidValue, lumpTextmap, "opaque %s field %q shadows a modeled key", c.name, fld.Key).at(index)
		}
		body = append(body, udmf.Assignment{Key: fld.Key, Value: fld.Value})
	}
	return body, nil
}

func blockFields(body []udmf.Assignment) Fields {
	fields := make(Fields, len(body))
	for i, a := range body {
		fields[i] = Field{Key: a.Key, Value: a.Value}
	}
	return fields
}

// decodeTextMap builds a Map from TEXTMAP source
func decodeTextMap(src []byte) (*Map, error) {
	log().Debug("Reading TEXTMAP ...", zap.Int("bytes", len(src)))

	tu, err := udmf.Parse(src)
	if err != nil {
		e := &Error{Kind: KindSyntax, Lump: lumpTextmap, Index: -1, Offset: -1, Cause: err}
		var se *udmf.SyntaxError
		if errors.As(err, &se) {
			e.Offset = int64(se.Pos.Offset)
		}
		return nil, e
	}

	m := NewMap()
	namespaced := false
	for _, st := range tu.Statements {
		if a := st.Assignment; a != nil {
			if !strings.EqualFold(a.Key, "namespace") {
				m.Globals = append(m.Globals, Field{Key: a.Key, Value: a.Value})
				continue
			}
			if namespaced {
				return nil, posError(KindDuplicateField, -1, a.Pos, "namespace assigned twice")
			}
			if a.Value.Kind != udmf.String {
				return nil, posError(KindInvalidValue, -1, a.Pos, "namespace must be a string, got %s", a.Value.Kind)
			}
			m.Namespace, namespaced = a.Value.Str, true
			continue
		}

		b := st.Block
		switch strings.ToLower(b.Name) {
		case "vertex":
			v, err := decodeBlock(vertexCodec, b, m.Len(VertexEntity))
			if err != nil {
				return nil, err
			}
			m.vertices.add(v)
		case "linedef":
			l, err := decodeBlock(linedefCodec, b, m.Len(LinedefEntity))
			if err != nil {
				return nil, err
			}
			m.linedefs.add(l)
		case "sidedef":
			s, err := decodeBlock(sidedefCodec, b, m.Len(SidedefEntity))
			if err != nil {
				return nil, err
			}
			m.sidedefs.add(s)
		case "sector":
			s, err := decodeBlock(sectorCodec, b, m.Len(SectorEntity))
			if err != nil {
				return nil, err
			}
			m.sectors.add(s)
		case "thing":
			t, err := decodeBlock(thingCodec, b, m.Len(ThingEntity))
			if err != nil {
				return nil, err
			}
			m.things.add(t)
		default:
			m.Blocks = append(m.Blocks, RawBlock{Name: b.Name, Fields: blockFields(b.Body)})
		}
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}

	log().Debug("Read TEXTMAP",
		zap.String("namespace", m.Namespace),
		zap.Int("vertices", m.Len(VertexEntity)),
		zap.Int("linedefs", m.Len(LinedefEntity)),
		zap.Int("sidedefs", m.Len(SidedefEntity)),
		zap.Int("sectors", m.Len(SectorEntity)),
		zap.Int("things", m.Len(ThingEntity)),
		zap.Int("blocks", len(m.Blocks)))
	return m, nil
}

// encodeTextMap serializes m as TEXTMAP source. The namespace comes first, then unknown
// top-level assignments, the five entity kinds and unknown blocks.
func encodeTextMap(m *Map) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	w := udmf.NewWriter()
	ns := m.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}
	w.Assign("namespace", udmf.StringValue(ns))
	for _, g := range m.Globals {
		if strings.EqualFold(g.Key, "namespace") {
			return nil, newError(KindInvalidValue, lumpTextmap, "global field %q shadows the namespace", g.Key)
		}
		w.Assign(g.Key, g.Value)
	}

	if err := writeBlocks(w, vertexCodec, m.vertices.items); err != nil {
		return nil, err
	}
	if err := writeBlocks(w, linedefCodec, m.linedefs.items); err != nil {
		return nil, err
	}
	if err := writeBlocks(w, sidedefCodec, m.sidedefs.items); err != nil {
		return nil, err
	}
	if err := writeBlocks(w, sectorCodec, m.sectors.items); err != nil {
		return nil, err
	}
	if err := writeBlocks(w, thingCodec, m.things.items); err != nil {
		return nil, err
	}

	for i, b := range m.Blocks {
		switch strings.ToLower(b.Name) {
		case "vertex", "linedef", "sidedef", "sector", "thing":
			return nil, newError(KindInvalidValue, lumpTextmap, "raw block named %q", b.Name).at(i)
		}
		body := make([]udmf.Assignment, len(b.Fields))
		for j, f := range b.Fields {
			body[j] = udmf.Assignment{Key: f.Key, Value: f.Value}
		}
		w.Block(b.Name, body, "")
	}

	out, err := w.Bytes()
	if err != nil {
		return nil, &Error{Kind: KindInvalidValue, Lump: lumpTextmap, Index: -1, Offset: -1, Cause: err}
	}
	log().Debug("Wrote TEXTMAP", zap.Int("bytes", len(out)))
	return out, nil
}

func writeBlocks[T any, P entityPtr[T]](w *udmf.Writer, c *blockCodec[T], items []T) error {
	for i := range items {
		body, err := encodeBlock[T, P](c, &items[i], i)
		if err != nil {
			return err
		}
		w.Block(c.name, body, strconv.Itoa(i))
	}
	return nil
}

package wad

import (
	"math"
	"reflect"
	"strings"

	"github.com/stuarthighley/wadmap/udmf"
)

// NoSidedef marks an absent back side on a linedef
const NoSidedef = -1

// Field is an opaque UDMF key/value pair carried through decode and encode unchanged
type Field struct {
	Key   string
	Value udmf.Value
}

// Fields is an ordered list of opaque fields
type Fields []Field

// Get returns the first value stored under key, ignoring case
func (f Fields) Get(key string) (udmf.Value, bool) {
	for _, fld := range f {
		if strings.EqualFold(fld.Key, key) {
			return fld.Value, true
		}
	}
	return udmf.Value{}, false
}

// Set replaces the first value stored under key or appends a new field
func (f *Fields) Set(key string, v udmf.Value) {
	for i := range *f {
		if strings.EqualFold((*f)[i].Key, key) {
			(*f)[i].Value = v
			return
		}
	}
	*f = append(*f, Field{Key: key, Value: v})
}

func (f Fields) clone() Fields {
	if len(f) == 0 {
		return nil
	}
	return append(Fields(nil), f...)
}

// RawBlock is a UDMF block whose name is not one of the five map entity kinds
type RawBlock struct {
	Name   string
	Fields Fields
}

type Vertex struct {
	X, Y   float64
	Fields Fields
}

type Sidedef struct {
	OffsetX, OffsetY int
	UpperTexture     string
	MiddleTexture    string
	LowerTexture     string
	Sector           int
	Fields           Fields
}

type Linedef struct {
	V1, V2  int
	Flags   LineFlags
	Special int
	Args    [5]int
	Tag     int
	Front   int
	Back    int // NoSidedef if one-sided
	Fields  Fields
}

type Sector struct {
	FloorHeight    int
	CeilingHeight  int
	FloorTexture   string
	CeilingTexture string
	LightLevel     int
	Special        int
	Tag            int
	Fields         Fields
}

type Thing struct {
	ID      int
	X, Y    float64
	Height  float64
	Angle   int // degrees
	Type    int
	Flags   ThingFlags
	Special int
	Args    [5]int
	Fields  Fields
}

func (v *Vertex) opaque() *Fields  { return &v.Fields }
func (s *Sidedef) opaque() *Fields { return &s.Fields }
func (l *Linedef) opaque() *Fields { return &l.Fields }
func (s *Sector) opaque() *Fields  { return &s.Fields }
func (t *Thing) opaque() *Fields   { return &t.Fields }

// EntityKind names one of the five map entity sequences
type EntityKind int

const (
	VertexEntity EntityKind = iota
	LinedefEntity
	SidedefEntity
	SectorEntity
	ThingEntity
)

// String returns the UDMF block name of the kind
func (k EntityKind) String() string {
	switch k {
	case VertexEntity:
		return "vertex"
	case LinedefEntity:
		return "linedef"
	case SidedefEntity:
		return "sidedef"
	case SectorEntity:
		return "sector"
	case ThingEntity:
		return "thing"
	}
	return "unknown"
}

// Handle identifies an entity independently of its current index. Handles stay valid
// while other entities are removed and go stale once their own entity is removed.
type Handle struct {
	kind EntityKind
	id   uint64
}

// Kind returns the entity kind the handle refers to
func (h Handle) Kind() EntityKind {
	return h.kind
}

// entities is an ordered sequence with a stable id per element. Ids increase with
// position, so lookups by id can binary search.
type entities[T any] struct {
	items []T
	ids   []uint64
	next  uint64
}

func (e *entities[T]) add(item T) uint64 {
	id := e.next
	e.next++
	e.items = append(e.items, item)
	e.ids = append(e.ids, id)
	return id
}

func (e *entities[T]) remove(i int) {
	e.items = append(e.items[:i], e.items[i+1:]...)
	e.ids = append(e.ids[:i], e.ids[i+1:]...)
}

func (e *entities[T]) indexOf(id uint64) int {
	lo, hi := 0, len(e.ids)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if e.ids[mid] < id {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(e.ids) && e.ids[lo] == id {
		return lo
	}
	return -1
}

func (e *entities[T]) clone(copyItem func(T) T) entities[T] {
	out := entities[T]{
		items: make([]T, len(e.items)),
		ids:   append([]uint64(nil), e.ids...),
		next:  e.next,
	}
	for i, item := range e.items {
		out.items[i] = copyItem(item)
	}
	return out
}

// Map is the format-neutral model of a single level. Entity sequences are reached through
// accessors and changed through the editing methods so cross references stay valid.
type Map struct {
	Namespace string     // UDMF namespace; empty for maps decoded from binary lumps
	Globals   Fields     // unrecognised top-level UDMF assignments
	Blocks    []RawBlock // unrecognised UDMF blocks

	vertices entities[Vertex]
	linedefs entities[Linedef]
	sidedefs entities[Sidedef]
	sectors  entities[Sector]
	things   entities[Thing]
}

// Len returns the number of entities of kind k
func (m *Map) Len(k EntityKind) int {
	switch k {
	case VertexEntity:
		return len(m.vertices.items)
	case LinedefEntity:
		return len(m.linedefs.items)
	case SidedefEntity:
		return len(m.sidedefs.items)
	case SectorEntity:
		return len(m.sectors.items)
	case ThingEntity:
		return len(m.things.items)
	}
	return 0
}

func (m *Map) Vertices() []Vertex {
	return copyItems(m.vertices.items, func(v Vertex) Vertex { v.Fields = v.Fields.clone(); return v })
}

func (m *Map) Linedefs() []Linedef {
	return copyItems(m.linedefs.items, func(l Linedef) Linedef { l.Fields = l.Fields.clone(); return l })
}

func (m *Map) Sidedefs() []Sidedef {
	return copyItems(m.sidedefs.items, func(s Sidedef) Sidedef { s.Fields = s.Fields.clone(); return s })
}

func (m *Map) Sectors() []Sector {
	return copyItems(m.sectors.items, func(s Sector) Sector { s.Fields = s.Fields.clone(); return s })
}

func (m *Map) Things() []Thing {
	return copyItems(m.things.items, func(t Thing) Thing { t.Fields = t.Fields.clone(); return t })
}

func copyItems[T any](items []T, copyItem func(T) T) []T {
	out := make([]T, len(items))
	for i, item := range items {
		out[i] = copyItem(item)
	}
	return out
}

// Clone returns a deep copy of m. Handles issued by m stay valid on the copy.
func (m *Map) Clone() *Map {
	c := &Map{
		Namespace: m.Namespace,
		Globals:   m.Globals.clone(),
		Blocks:    make([]RawBlock, len(m.Blocks)),
		vertices:  m.vertices.clone(func(v Vertex) Vertex { v.Fields = v.Fields.clone(); return v }),
		linedefs:  m.linedefs.clone(func(l Linedef) Linedef { l.Fields = l.Fields.clone(); return l }),
		sidedefs:  m.sidedefs.clone(func(s Sidedef) Sidedef { s.Fields = s.Fields.clone(); return s }),
		sectors:   m.sectors.clone(func(s Sector) Sector { s.Fields = s.Fields.clone(); return s }),
		things:    m.things.clone(func(t Thing) Thing { t.Fields = t.Fields.clone(); return t }),
	}
	for i, b := range m.Blocks {
		c.Blocks[i] = RawBlock{Name: b.Name, Fields: b.Fields.clone()}
	}
	return c
}

// Validate checks that every cross reference resolves and every flag set is well formed
func (m *Map) Validate() error {
	nv, ns, nsec := len(m.vertices.items), len(m.sidedefs.items), len(m.sectors.items)
	for i := range m.vertices.items {
		if err := m.checkVertex(&m.vertices.items[i]); err != nil {
			return err.at(i)
		}
	}
	for i := range m.linedefs.items {
		if err := m.checkLinedef(&m.linedefs.items[i], nv, ns); err != nil {
			return err.at(i)
		}
	}
	for i := range m.sidedefs.items {
		if err := m.checkSidedef(&m.sidedefs.items[i], nsec); err != nil {
			return err.at(i)
		}
	}
	for i := range m.things.items {
		if err := m.checkThing(&m.things.items[i]); err != nil {
			return err.at(i)
		}
	}
	return nil
}

func (m *Map) checkVertex(v *Vertex) *Error {
	if !isFinite(v.X) || !isFinite(v.Y) {
		return newError(KindInvalidValue, "", "vertex coordinates (%v, %v)", v.X, v.Y)
	}
	return nil
}

func (m *Map) checkLinedef(l *Linedef, nv, ns int) *Error {
	switch {
	case l.V1 < 0 || l.V1 >= nv:
		return newError(KindDanglingIndex, "", "linedef v1 %d, %d vertices", l.V1, nv)
	case l.V2 < 0 || l.V2 >= nv:
		return newError(KindDanglingIndex, "", "linedef v2 %d, %d vertices", l.V2, nv)
	case l.Front < 0 || l.Front >= ns:
		return newError(KindDanglingIndex, "", "linedef front sidedef %d, %d sidedefs", l.Front, ns)
	case l.Back != NoSidedef && (l.Back < 0 || l.Back >= ns):
		return newError(KindDanglingIndex, "", "linedef back sidedef %d, %d sidedefs", l.Back, ns)
	case l.Flags&^allLineFlags != 0:
		return newError(KindInvalidFlags, "", "linedef flags 0x%x", uint32(l.Flags&^allLineFlags))
	}
	return nil
}

func (m *Map) checkSidedef(s *Sidedef, nsec int) *Error {
	if s.Sector < 0 || s.Sector >= nsec {
		return newError(KindDanglingIndex, "", "sidedef sector %d, %d sectors", s.Sector, nsec)
	}
	return nil
}

func (m *Map) checkThing(t *Thing) *Error {
	if !isFinite(t.X) || !isFinite(t.Y) || !isFinite(t.Height) {
		return newError(KindInvalidValue, "", "thing position (%v, %v, %v)", t.X, t.Y, t.Height)
	}
	if t.Flags&^allThingFlags != 0 {
		return newError(KindInvalidFlags, "", "thing flags 0x%x", uint32(t.Flags&^allThingFlags))
	}
	return nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Equal reports whether two maps have the same content. Handles and an empty versus nil
// Fields list do not affect the result.
func (m *Map) Equal(o *Map) bool {
	if m == nil || o == nil {
		return m == o
	}
	return m.Namespace == o.Namespace &&
		fieldsEqual(m.Globals, o.Globals) &&
		blocksEqual(m.Blocks, o.Blocks) &&
		itemsEqual(m.vertices.items, o.vertices.items) &&
		itemsEqual(m.linedefs.items, o.linedefs.items) &&
		itemsEqual(m.sidedefs.items, o.sidedefs.items) &&
		itemsEqual(m.sectors.items, o.sectors.items) &&
		itemsEqual(m.things.items, o.things.items)
}

func itemsEqual[T any, P interface {
	*T
	opaque() *Fields
}](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		x, y := a[i], b[i]
		if !fieldsEqual(*P(&x).opaque(), *P(&y).opaque()) {
			return false
		}
		*P(&x).opaque(), *P(&y).opaque() = nil, nil
		if !reflect.DeepEqual(x, y) {
			return false
		}
	}
	return true
}

func fieldsEqual(a, b Fields) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func blocksEqual(a, b []RawBlock) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name || !fieldsEqual(a[i].Fields, b[i].Fields) {
			return false
		}
	}
	return true
}

package wad

// NewMap returns an empty map
func NewMap() *Map {
	return &Map{}
}

func noEntity(k EntityKind, i, n int) *Error {
	return newError(KindNotFound, "", "%s index out of range [0,%d)", k, n).at(i)
}

func inUse(k EntityKind, i int, by EntityKind, j int) *Error {
	return newError(KindReferencedEntityInUse, "", "%s %d is referenced by %s %d", k, i, by, j).at(i)
}

// HandleAt returns the handle of the entity currently at index i
func (m *Map) HandleAt(k EntityKind, i int) (Handle, error) {
	var ids []uint64
	switch k {
	case VertexEntity:
		ids = m.vertices.ids
	case LinedefEntity:
		ids = m.linedefs.ids
	case SidedefEntity:
		ids = m.sidedefs.ids
	case SectorEntity:
		ids = m.sectors.ids
	case ThingEntity:
		ids = m.things.ids
	}
	if i < 0 || i >= len(ids) {
		return Handle{}, noEntity(k, i, len(ids))
	}
	return Handle{kind: k, id: ids[i]}, nil
}

// IndexOf resolves a handle to the entity's current index. It fails with StaleHandle once
// the entity has been removed.
func (m *Map) IndexOf(h Handle) (int, error) {
	i := -1
	switch h.kind {
	case VertexEntity:
		i = m.vertices.indexOf(h.id)
	case LinedefEntity:
		i = m.linedefs.indexOf(h.id)
	case SidedefEntity:
		i = m.sidedefs.indexOf(h.id)
	case SectorEntity:
		i = m.sectors.indexOf(h.id)
	case ThingEntity:
		i = m.things.indexOf(h.id)
	}
	if i < 0 {
		return -1, newError(KindStaleHandle, "", "%s %d no longer exists", h.kind, h.id)
	}
	return i, nil
}

// Remove deletes the entity h refers to
func (m *Map) Remove(h Handle) error {
	i, err := m.IndexOf(h)
	if err != nil {
		return err
	}
	switch h.kind {
	case VertexEntity:
		return m.RemoveVertex(i)
	case LinedefEntity:
		return m.RemoveLinedef(i)
	case SidedefEntity:
		return m.RemoveSidedef(i)
	case SectorEntity:
		return m.RemoveSector(i)
	default:
		return m.RemoveThing(i)
	}
}

// Vertices

func (m *Map) VertexAt(i int) (Vertex, error) {
	if i < 0 || i >= len(m.vertices.items) {
		return Vertex{}, noEntity(VertexEntity, i, len(m.vertices.items))
	}
	v := m.vertices.items[i]
	v.Fields = v.Fields.clone()
	return v, nil
}

func (m *Map) AddVertex(v Vertex) (Handle, error) {
	if err := m.checkVertex(&v); err != nil {
		return Handle{}, err.at(len(m.vertices.items))
	}
	v.Fields = v.Fields.clone()
	return Handle{kind: VertexEntity, id: m.vertices.add(v)}, nil
}

func (m *Map) SetVertex(i int, v Vertex) error {
	if i < 0 || i >= len(m.vertices.items) {
		return noEntity(VertexEntity, i, len(m.vertices.items))
	}
	if err := m.checkVertex(&v); err != nil {
		return err.at(i)
	}
	v.Fields = v.Fields.clone()
	m.vertices.items[i] = v
	return nil
}

// RemoveVertex deletes vertex i. It fails with ReferencedEntityInUse while any linedef
// uses the vertex. Linedef references above i are shifted down.
func (m *Map) RemoveVertex(i int) error {
	if i < 0 || i >= len(m.vertices.items) {
		return noEntity(VertexEntity, i, len(m.vertices.items))
	}
	for j, l := range m.linedefs.items {
		if l.V1 == i || l.V2 == i {
			return inUse(VertexEntity, i, LinedefEntity, j)
		}
	}
	m.vertices.remove(i)
	for j := range m.linedefs.items {
		l := &m.linedefs.items[j]
		if l.V1 > i {
			l.V1--
		}
		if l.V2 > i {
			l.V2--
		}
	}
	return nil
}

// Linedefs

func (m *Map) LinedefAt(i int) (Linedef, error) {
	if i < 0 || i >= len(m.linedefs.items) {
		return Linedef{}, noEntity(LinedefEntity, i, len(m.linedefs.items))
	}
	l := m.linedefs.items[i]
	l.Fields = l.Fields.clone()
	return l, nil
}

// AddLinedef appends l. Its vertex and sidedef references must already resolve.
func (m *Map) AddLinedef(l Linedef) (Handle, error) {
	if err := m.checkLinedef(&l, len(m.vertices.items), len(m.sidedefs.items)); err != nil {
		return Handle{}, err.at(len(m.linedefs.items))
	}
	l.Fields = l.Fields.clone()
	return Handle{kind: LinedefEntity, id: m.linedefs.add(l)}, nil
}

func (m *Map) SetLinedef(i int, l Linedef) error {
	if i < 0 || i >= len(m.linedefs.items) {
		return noEntity(LinedefEntity, i, len(m.linedefs.items))
	}
	if err := m.checkLinedef(&l, len(m.vertices.items), len(m.sidedefs.items)); err != nil {
		return err.at(i)
	}
	l.Fields = l.Fields.clone()
	m.linedefs.items[i] = l
	return nil
}

func (m *Map) RemoveLinedef(i int) error {
	if i < 0 || i >= len(m.linedefs.items) {
		return noEntity(LinedefEntity, i, len(m.linedefs.items))
	}
	m.linedefs.remove(i)
	return nil
}

// Sidedefs

func (m *Map) SidedefAt(i int) (Sidedef, error) {
	if i < 0 || i >= len(m.sidedefs.items) {
		return Sidedef{}, noEntity(SidedefEntity, i, len(m.sidedefs.items))
	}
	s := m.sidedefs.items[i]
	s.Fields = s.Fields.clone()
	return s, nil
}

func (m *Map) AddSidedef(s Sidedef) (Handle, error) {
	if err := m.checkSidedef(&s, len(m.sectors.items)); err != nil {
		return Handle{}, err.at(len(m.sidedefs.items))
	}
	s.Fields = s.Fields.clone()
	return Handle{kind: SidedefEntity, id: m.sidedefs.add(s)}, nil
}

func (m *Map) SetSidedef(i int, s Sidedef) error {
	if i < 0 || i >= len(m.sidedefs.items) {
		return noEntity(SidedefEntity, i, len(m.sidedefs.items))
	}
	if err := m.checkSidedef(&s, len(m.sectors.items)); err != nil {
		return err.at(i)
	}
	s.Fields = s.Fields.clone()
	m.sidedefs.items[i] = s
	return nil
}

// RemoveSidedef deletes sidedef i if no linedef uses it on either side
func (m *Map) RemoveSidedef(i int) error {
	if i < 0 || i >= len(m.sidedefs.items) {
		return noEntity(SidedefEntity, i, len(m.sidedefs.items))
	}
	for j, l := range m.linedefs.items {
		if l.Front == i || l.Back == i {
			return inUse(SidedefEntity, i, LinedefEntity, j)
		}
	}
	m.sidedefs.remove(i)
	for j := range m.linedefs.items {
		l := &m.linedefs.items[j]
		if l.Front > i {
			l.Front--
		}
		if l.Back > i {
			l.Back--
		}
	}
	return nil
}

// Sectors

func (m *Map) SectorAt(i int) (Sector, error) {
	if i < 0 || i >= len(m.sectors.items) {
		return Sector{}, noEntity(SectorEntity, i, len(m.sectors.items))
	}
	s := m.sectors.items[i]
	s.Fields = s.Fields.clone()
	return s, nil
}

func (m *Map) AddSector(s Sector) (Handle, error) {
	s.Fields = s.Fields.clone()
	return Handle{kind: SectorEntity, id: m.sectors.add(s)}, nil
}

func (m *Map) SetSector(i int, s Sector) error {
	if i < 0 || i >= len(m.sectors.items) {
		return noEntity(SectorEntity, i, len(m.sectors.items))
	}
	s.Fields = s.Fields.clone()
	m.sectors.items[i] = s
	return nil
}

// RemoveSector deletes sector i if no sidedef faces it
func (m *Map) RemoveSector(i int) error {
	if i < 0 || i >= len(m.sectors.items) {
		return noEntity(SectorEntity, i, len(m.sectors.items))
	}
	for j, s := range m.sidedefs.items {
		if s.Sector == i {
			return inUse(SectorEntity, i, SidedefEntity, j)
		}
	}
	m.sectors.remove(i)
	for j := range m.sidedefs.items {
		if s := &m.sidedefs.items[j]; s.Sector > i {
			s.Sector--
		}
	}
	return nil
}

// Things

func (m *Map) ThingAt(i int) (Thing, error) {
	if i < 0 || i >= len(m.things.items) {
		return Thing{}, noEntity(ThingEntity, i, len(m.things.items))
	}
	t := m.things.items[i]
	t.Fields = t.Fields.clone()
	return t, nil
}

func (m *Map) AddThing(t Thing) (Handle, error) {
	if err := m.checkThing(&t); err != nil {
		return Handle{}, err.at(len(m.things.items))
	}
	t.Fields = t.Fields.clone()
	return Handle{kind: ThingEntity, id: m.things.add(t)}, nil
}

func (m *Map) SetThing(i int, t Thing) error {
	if i < 0 || i >= len(m.things.items) {
		return noEntity(ThingEntity, i, len(m.things.items))
	}
	if err := m.checkThing(&t); err != nil {
		return err.at(i)
	}
	t.Fields = t.Fields.clone()
	m.things.items[i] = t
	return nil
}

func (m *Map) RemoveThing(i int) error {
	if i < 0 || i >= len(m.things.items) {
		return noEntity(ThingEntity, i, len(m.things.items))
	}
	m.things.remove(i)
	return nil
}

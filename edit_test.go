package wad

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stuarthighley/wadmap/udmf"
)

func TestRemoveReferencedVertex(t *testing.T) {
	m := room(t)
	err := m.RemoveVertex(2)
	assert.ErrorIs(t, err, ErrReferencedEntityInUse)
	assert.Equal(t, 4, m.Len(VertexEntity))

	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, 2, e.Index)
}

func TestRemoveVertexShiftsReferences(t *testing.T) {
	m := NewMap()
	_, err := m.AddSector(Sector{})
	require.NoError(t, err)
	for _, v := range []Vertex{{X: -1, Y: -1}, {X: 0, Y: 0}, {X: 64, Y: 0}, {X: 64, Y: 64}} {
		_, err := m.AddVertex(v)
		require.NoError(t, err)
	}
	_, err = m.AddSidedef(Sidedef{})
	require.NoError(t, err)
	_, err = m.AddLinedef(Linedef{V1: 1, V2: 2, Front: 0, Back: NoSidedef})
	require.NoError(t, err)
	_, err = m.AddLinedef(Linedef{V1: 3, V2: 1, Front: 0, Back: NoSidedef})
	require.NoError(t, err)

	require.NoError(t, m.RemoveVertex(0))
	assert.Equal(t, []Vertex{{X: 0, Y: 0}, {X: 64, Y: 0}, {X: 64, Y: 64}}, m.Vertices())
	assert.Equal(t, []Linedef{
		{V1: 0, V2: 1, Front: 0, Back: NoSidedef},
		{V1: 2, V2: 0, Front: 0, Back: NoSidedef},
	}, m.Linedefs())
	assert.NoError(t, m.Validate())
}

func TestHandles(t *testing.T) {
	m := NewMap()
	var handles []Handle
	for i := 0; i < 4; i++ {
		h, err := m.AddThing(Thing{Type: 100 + i})
		require.NoError(t, err)
		handles = append(handles, h)
	}
	assert.Equal(t, ThingEntity, handles[0].Kind())

	require.NoError(t, m.Remove(handles[1]))

	_, err := m.IndexOf(handles[1])
	assert.ErrorIs(t, err, ErrStaleHandle)
	assert.ErrorIs(t, m.Remove(handles[1]), ErrStaleHandle)

	i, err := m.IndexOf(handles[3])
	require.NoError(t, err)
	assert.Equal(t, 2, i)
	th, err := m.ThingAt(i)
	require.NoError(t, err)
	assert.Equal(t, 103, th.Type)

	h, err := m.HandleAt(ThingEntity, 1)
	require.NoError(t, err)
	assert.Equal(t, handles[2], h)
	_, err = m.HandleAt(ThingEntity, 3)
	assert.ErrorIs(t, err, ErrNotFound)

	// Handles are never reused
	h, err = m.AddThing(Thing{Type: 200})
	require.NoError(t, err)
	assert.NotEqual(t, handles[1], h)
	i, err = m.IndexOf(h)
	require.NoError(t, err)
	assert.Equal(t, 3, i)
}

func TestHandleSurvivesClone(t *testing.T) {
	m := room(t)
	h, err := m.HandleAt(SidedefEntity, 2)
	require.NoError(t, err)

	c := m.Clone()
	i, err := c.IndexOf(h)
	require.NoError(t, err)
	assert.Equal(t, 2, i)
	assert.True(t, m.Equal(c))
}

func TestRemoveInUse(t *testing.T) {
	m := room(t)
	assert.ErrorIs(t, m.RemoveSidedef(0), ErrReferencedEntityInUse)
	assert.ErrorIs(t, m.RemoveSector(0), ErrReferencedEntityInUse)

	for i := 3; i >= 0; i-- {
		require.NoError(t, m.RemoveLinedef(i))
	}
	require.NoError(t, m.RemoveSidedef(1))
	assert.Equal(t, 3, m.Len(SidedefEntity))
	assert.ErrorIs(t, m.RemoveSector(0), ErrReferencedEntityInUse)
	for m.Len(SidedefEntity) > 0 {
		require.NoError(t, m.RemoveSidedef(0))
	}
	require.NoError(t, m.RemoveSector(0))
	for m.Len(VertexEntity) > 0 {
		require.NoError(t, m.RemoveVertex(m.Len(VertexEntity)-1))
	}
	require.NoError(t, m.RemoveThing(0))
	assert.True(t, NewMap().Equal(m))
}

func TestRemoveSidedefShiftsLinedefs(t *testing.T) {
	m := room(t)
	_, err := m.AddSidedef(Sidedef{MiddleTexture: "-", UpperTexture: "-", LowerTexture: "-"})
	require.NoError(t, err)
	require.NoError(t, m.RemoveLinedef(1))
	require.NoError(t, m.RemoveSidedef(1))

	lines := m.Linedefs()
	require.Len(t, lines, 3)
	assert.Equal(t, []int{0, 1, 2}, []int{lines[0].Front, lines[1].Front, lines[2].Front})
	assert.Equal(t, 4, m.Len(SidedefEntity))
}

func TestEditValidation(t *testing.T) {
	m := room(t)
	tests := []struct {
		name string
		err  error
		edit func() error
	}{
		{"dangling vertex", ErrDanglingIndex, func() error {
			_, err := m.AddLinedef(Linedef{V1: 0, V2: 4, Front: 0, Back: NoSidedef})
			return err
		}},
		{"missing front", ErrDanglingIndex, func() error {
			_, err := m.AddLinedef(Linedef{V1: 0, V2: 1, Front: NoSidedef, Back: NoSidedef})
			return err
		}},
		{"dangling back", ErrDanglingIndex, func() error {
			return m.SetLinedef(0, Linedef{V1: 0, V2: 1, Front: 0, Back: 4})
		}},
		{"dangling sector", ErrDanglingIndex, func() error {
			_, err := m.AddSidedef(Sidedef{Sector: 1})
			return err
		}},
		{"unknown line flags", ErrInvalidFlags, func() error {
			return m.SetLinedef(0, Linedef{V1: 0, V2: 1, Front: 0, Back: NoSidedef, Flags: 1 << 30})
		}},
		{"unknown thing flags", ErrInvalidFlags, func() error {
			_, err := m.AddThing(Thing{Flags: 1 << 31})
			return err
		}},
		{"infinite vertex", ErrInvalidValue, func() error {
			_, err := m.AddVertex(Vertex{X: math.Inf(1)})
			return err
		}},
		{"NaN thing", ErrInvalidValue, func() error {
			return m.SetThing(0, Thing{Height: math.NaN()})
		}},
		{"index out of range", ErrNotFound, func() error {
			return m.SetSector(1, Sector{})
		}},
		{"negative index", ErrNotFound, func() error {
			_, err := m.VertexAt(-1)
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.edit(), tt.err)
		})
	}
	assert.True(t, room(t).Equal(m))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, room(t).Validate())

	m := room(t)
	m.linedefs.items[3].V2 = 9
	err := m.Validate()
	assert.ErrorIs(t, err, ErrDanglingIndex)
	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, 3, e.Index)

	m = room(t)
	m.sidedefs.items[1].Sector = -2
	assert.ErrorIs(t, m.Validate(), ErrDanglingIndex)
}

func TestAccessorsCopy(t *testing.T) {
	m := room(t)
	s, err := m.SectorAt(0)
	require.NoError(t, err)
	s.Fields.Set("lightcolor", udmf.IntValue(0xff0000))
	require.NoError(t, m.SetSector(0, s))

	s.Fields[0].Value = udmf.IntValue(0)
	got := m.Sectors()
	v, ok := got[0].Fields.Get("LIGHTCOLOR")
	require.True(t, ok)
	assert.Equal(t, udmf.IntValue(0xff0000), v)

	got[0].Fields[0].Value = udmf.IntValue(1)
	got[0].LightLevel = 0
	again, err := m.SectorAt(0)
	require.NoError(t, err)
	assert.Equal(t, 160, again.LightLevel)
	v, _ = again.Fields.Get("lightcolor")
	assert.Equal(t, udmf.IntValue(0xff0000), v)
}

func TestEqual(t *testing.T) {
	a, b := room(t), room(t)
	assert.True(t, a.Equal(b))

	// Empty and nil opaque lists compare equal
	v, err := b.VertexAt(0)
	require.NoError(t, err)
	v.Fields = Fields{}
	require.NoError(t, b.SetVertex(0, v))
	assert.True(t, a.Equal(b))

	b.Namespace = "zdoom"
	assert.False(t, a.Equal(b))
	b.Namespace = ""

	b.Globals.Set("comment", udmf.StringValue("x"))
	assert.False(t, a.Equal(b))
	b.Globals = nil

	b.Blocks = append(b.Blocks, RawBlock{Name: "polyobject"})
	assert.False(t, a.Equal(b))
	b.Blocks = nil
	assert.True(t, a.Equal(b))

	th, err := b.ThingAt(0)
	require.NoError(t, err)
	th.Angle = 180
	require.NoError(t, b.SetThing(0, th))
	assert.False(t, a.Equal(b))

	assert.False(t, a.Equal(nil))
	assert.True(t, (*Map)(nil).Equal(nil))
}

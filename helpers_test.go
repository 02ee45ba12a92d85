package wad

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

// testEntry is a directory entry of a synthetic WAD image
type testEntry struct {
	name         string
	offset, size int32
}

// buildImage writes a WAD image with the given header fields, data block and directory.
// The data block starts right after the header; the directory follows it.
func buildImage(t *testing.T, magic string, data []byte, entries []testEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	dirOfs := int32(12 + len(data))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, binHeader{
		Magic:        [4]byte([]byte(magic)),
		NumLumps:     int32(len(entries)),
		InfoTableOfs: dirOfs,
	}))
	buf.Write(data)
	for _, e := range entries {
		var name String8
		copy(name[:], e.name)
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, binLumpInfo{Filepos: e.offset, Size: e.size, Name: name}))
	}
	return buf.Bytes()
}

func mustLump(t *testing.T, name string, data []byte) Lump {
	t.Helper()
	l, err := NewLump(name, data)
	require.NoError(t, err)
	return l
}

func lumpNames(lumps []Lump) []string {
	names := make([]string, len(lumps))
	for i, l := range lumps {
		names[i] = l.Name()
	}
	return names
}

func records(t *testing.T, recs any) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, recs))
	return buf.Bytes()
}

func name8(s string) String8 {
	var n String8
	copy(n[:], s)
	return n
}

// room builds a closed square room: 4 vertices, 4 one-sided linedefs, 4 sidedefs and
// one sector, plus a player start
func room(t *testing.T) *Map {
	t.Helper()
	m := NewMap()
	_, err := m.AddSector(Sector{FloorHeight: 0, CeilingHeight: 128, FloorTexture: "FLOOR4_8", CeilingTexture: "CEIL3_5", LightLevel: 160})
	require.NoError(t, err)
	corners := []Vertex{{X: 0, Y: 0}, {X: 0, Y: 256}, {X: 256, Y: 256}, {X: 256, Y: 0}}
	for _, v := range corners {
		_, err := m.AddVertex(v)
		require.NoError(t, err)
	}
	for i := range corners {
		_, err := m.AddSidedef(Sidedef{UpperTexture: "-", MiddleTexture: "STARTAN3", LowerTexture: "-", Sector: 0})
		require.NoError(t, err)
		_, err = m.AddLinedef(Linedef{V1: i, V2: (i + 1) % len(corners), Flags: LineBlocking, Front: i, Back: NoSidedef})
		require.NoError(t, err)
	}
	_, err = m.AddThing(Thing{X: 128, Y: 128, Angle: 90, Type: 1, Flags: thingSkills | ThingSingle | ThingCoop | ThingDeathmatch})
	require.NoError(t, err)
	return m
}

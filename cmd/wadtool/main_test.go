package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	wad "github.com/stuarthighley/wadmap"
)

// writeTestWad writes a PWAD holding one triangular DOOM map and returns its path
func writeTestWad(t *testing.T) string {
	t.Helper()
	m := wad.NewMap()
	_, err := m.AddSector(wad.Sector{FloorTexture: "FLAT1", CeilingTexture: "F_SKY1", CeilingHeight: 96, LightLevel: 192})
	require.NoError(t, err)
	for _, v := range []wad.Vertex{{X: 0, Y: 0}, {X: 128, Y: 0}, {X: 0, Y: 128}} {
		_, err := m.AddVertex(v)
		require.NoError(t, err)
	}
	for i := 0; i < 3; i++ {
		_, err := m.AddSidedef(wad.Sidedef{UpperTexture: "-", MiddleTexture: "BRICK1", LowerTexture: "-"})
		require.NoError(t, err)
		_, err = m.AddLinedef(wad.Linedef{V1: i, V2: (i + 1) % 3, Flags: wad.LineBlocking, Front: i, Back: wad.NoSidedef})
		require.NoError(t, err)
	}
	_, err = m.AddThing(wad.Thing{X: 32, Y: 32, Type: 1, Flags: wad.ThingSkill1 | wad.ThingSkill2 | wad.ThingSkill3 | wad.ThingSkill4 | wad.ThingSkill5 | wad.ThingSingle | wad.ThingCoop | wad.ThingDeathmatch})
	require.NoError(t, err)

	w := wad.New(wad.PWAD)
	require.NoError(t, w.WriteMap("MAP01", m, wad.FormatDoom))
	require.NoError(t, w.AddLump("ENDOOM", []byte("bye")))
	data, err := w.Encode()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "test.wad")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestListLumps(t *testing.T) {
	var out, errOut bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"lumps", writeTestWad(t)}, &out, &errOut))
	assert.Contains(t, out.String(), "PWAD, 7 lumps")
	assert.Contains(t, out.String(), "VERTEXES  12")
	assert.Contains(t, out.String(), "ENDOOM")
}

func TestListMaps(t *testing.T) {
	var out, errOut bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"maps", writeTestWad(t)}, &out, &errOut))
	assert.Equal(t, "MAP01     doom   lumps 0-5\n", out.String())
}

func TestConvert(t *testing.T) {
	in := writeTestWad(t)
	out := filepath.Join(t.TempDir(), "out.wad")
	var stdout, stderr bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-format", "udmf", "convert", in, out}, &stdout, &stderr))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	w, err := wad.Decode(data)
	require.NoError(t, err)

	spans, err := w.Maps()
	require.NoError(t, err)
	require.Len(t, spans, 1)
	assert.Equal(t, wad.FormatUDMF, spans[0].Format)

	m, err := w.ReadMap("MAP01")
	require.NoError(t, err)
	assert.Equal(t, "doom", m.Namespace)
	assert.Equal(t, 3, m.Len(wad.LinedefEntity))

	_, err = w.Lookup("ENDOOM", 0)
	assert.NoError(t, err)
}

func TestConvertNoMatch(t *testing.T) {
	in := writeTestWad(t)
	out := filepath.Join(t.TempDir(), "out.wad")
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"convert", in, out, "MAP09"}, &stdout, &stderr)
	assert.Error(t, err)
	assert.NoFileExists(t, out)
}

func TestDump(t *testing.T) {
	var out, errOut bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"dump", writeTestWad(t), "map01"}, &out, &errOut))

	var dump struct {
		Name     string           `yaml:"name"`
		Format   string           `yaml:"format"`
		Vertices []map[string]any `yaml:"vertices"`
		Sectors  []map[string]any `yaml:"sectors"`
	}
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &dump))
	assert.Equal(t, "MAP01", dump.Name)
	assert.Equal(t, "doom", dump.Format)
	assert.Len(t, dump.Vertices, 3)
	require.Len(t, dump.Sectors, 1)
	assert.Equal(t, "F_SKY1", dump.Sectors[0]["ceilingtexture"])
}

func TestRunErrors(t *testing.T) {
	var out, errOut bytes.Buffer
	ctx := context.Background()
	assert.ErrorIs(t, run(ctx, nil, &out, &errOut), errUsage)
	assert.ErrorIs(t, run(ctx, []string{"frob", "x.wad"}, &out, &errOut), errUsage)
	assert.ErrorIs(t, run(ctx, []string{"dump", "x.wad"}, &out, &errOut), errUsage)
	assert.Error(t, run(ctx, []string{"lumps", filepath.Join(t.TempDir(), "missing.wad")}, &out, &errOut))

	bad := filepath.Join(t.TempDir(), "bad.wad")
	require.NoError(t, os.WriteFile(bad, []byte("PWAD"), 0644))
	assert.ErrorIs(t, run(ctx, []string{"maps", bad}, &out, &errOut), wad.ErrTruncatedInput)

	assert.ErrorIs(t, run(ctx, []string{"-format", "strife", "convert", writeTestWad(t), bad}, &out, &errOut), wad.ErrInvalidValue)
}

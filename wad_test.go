package wad

import (
	"encoding/binary"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	img := buildImage(t, "IWAD", []byte("aaabbbb"), []testEntry{
		{"E1M1", 0, 0},
		{"DATA", 12, 3},
		{"DATA", 15, 4},
	})

	w, err := Decode(img)
	require.NoError(t, err)
	assert.Equal(t, IWAD, w.Type)
	assert.Equal(t, 3, w.Len())
	assert.Equal(t, []string{"E1M1", "DATA", "DATA"}, lumpNames(w.Lumps()))

	l, err := w.Lookup("data", 1)
	require.NoError(t, err)
	assert.Equal(t, []byte("bbbb"), l.Data)
}

func TestEncodeSourceImage(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		entries []testEntry
	}{
		{"empty", nil, nil},
		{"consecutive", []byte("abcdef"), []testEntry{{"ONE", 12, 2}, {"TWO", 14, 4}}},
		{"gaps", []byte("ab....cd"), []testEntry{{"ONE", 12, 2}, {"TWO", 18, 2}}},
		{"shared range", []byte("abcd"), []testEntry{{"ONE", 12, 4}, {"TWO", 12, 4}, {"THREE", 14, 1}}},
		{"out of order", []byte("abcd"), []testEntry{{"LAST", 14, 2}, {"FIRST", 12, 2}}},
		{"garbage after nul", []byte("x"), []testEntry{{"AB\x00CDEF", 12, 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := buildImage(t, "PWAD", tt.data, tt.entries)
			w, err := Decode(img)
			require.NoError(t, err)

			out, err := w.Encode()
			require.NoError(t, err)
			assert.Equal(t, img, out)
		})
	}
}

func TestEncodeFreshLayout(t *testing.T) {
	w := New(PWAD)
	require.NoError(t, w.AddLump("MAP01", nil))
	require.NoError(t, w.AddLump("things", []byte{1, 2, 3}))

	out, err := w.Encode()
	require.NoError(t, err)
	require.Len(t, out, 12+2*16+3)
	assert.Equal(t, "PWAD", string(out[:4]))
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(out[4:]))
	assert.Equal(t, uint32(12), binary.LittleEndian.Uint32(out[8:]))

	// Second entry points past the directory
	assert.Equal(t, uint32(44), binary.LittleEndian.Uint32(out[28:]))
	assert.Equal(t, uint32(3), binary.LittleEndian.Uint32(out[32:]))
	assert.Equal(t, "things\x00\x00", string(out[36:44]))
	assert.Equal(t, []byte{1, 2, 3}, out[44:])

	back, err := Decode(out)
	require.NoError(t, err)
	assert.Equal(t, []string{"MAP01", "THINGS"}, lumpNames(back.Lumps()))
}

func TestEncodeAfterMutation(t *testing.T) {
	img := buildImage(t, "PWAD", []byte("ab....cd"), []testEntry{{"ONE", 12, 2}, {"TWO", 18, 2}})
	w, err := Decode(img)
	require.NoError(t, err)

	require.NoError(t, w.Replace(1, mustLump(t, "TWO", []byte("xyz"))))
	out, err := w.Encode()
	require.NoError(t, err)
	assert.NotEqual(t, img, out)

	back, err := Decode(out)
	require.NoError(t, err)
	l, err := back.Lookup("TWO", 0)
	require.NoError(t, err)
	assert.Equal(t, []byte("xyz"), l.Data)

	// Changing only the type also drops the source image
	w, err = Decode(img)
	require.NoError(t, err)
	w.Type = IWAD
	out, err = w.Encode()
	require.NoError(t, err)
	assert.Equal(t, "IWAD", string(out[:4]))
	assert.Len(t, out, 12+2*16+4)
}

func TestDecodeErrors(t *testing.T) {
	valid := buildImage(t, "PWAD", []byte("abcd"), []testEntry{{"ONE", 12, 4}})
	negCount := append([]byte(nil), valid...)
	binary.LittleEndian.PutUint32(negCount[4:], 0xffffffff)
	negOffset := append([]byte(nil), valid...)
	binary.LittleEndian.PutUint32(negOffset[8:], 0x80000000)
	longCount := append([]byte(nil), valid...)
	binary.LittleEndian.PutUint32(longCount[4:], 2)

	tests := []struct {
		name string
		img  []byte
		err  error
	}{
		{"empty input", nil, ErrTruncatedInput},
		{"short header", []byte("PWAD\x00\x00"), ErrTruncatedInput},
		{"bad magic", buildImage(t, "ZWAD", nil, nil), ErrMalformedHeader},
		{"negative count", negCount, ErrMalformedHeader},
		{"negative directory offset", negOffset, ErrMalformedHeader},
		{"directory past end", longCount, ErrTruncatedInput},
		{"lump past end", buildImage(t, "PWAD", []byte("abcd"), []testEntry{{"ONE", 12, 100}}), ErrDirectoryOutOfRange},
		{"lump offset past end", buildImage(t, "PWAD", nil, []testEntry{{"ONE", 1000, 0}}), ErrDirectoryOutOfRange},
		{"negative size", buildImage(t, "PWAD", nil, []testEntry{{"ONE", 12, -1}}), ErrDirectoryOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := Decode(tt.img)
			assert.Nil(t, w)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestDirectoryOutOfRangeContext(t *testing.T) {
	img := buildImage(t, "PWAD", []byte("abcd"), []testEntry{{"ONE", 12, 4}, {"TWO", 14, 100}})
	w, err := Decode(img)
	require.Error(t, err)
	assert.Nil(t, w)

	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, KindDirectoryOutOfRange, e.Kind)
	assert.Equal(t, "TWO", e.Lump)
	assert.Equal(t, 1, e.Index)
	assert.Equal(t, int64(16+16), e.Offset)
}

func TestAddLumpName(t *testing.T) {
	w := New(PWAD)
	err := w.AddLump("TOOLONGNM", []byte{1})
	assert.ErrorIs(t, err, ErrNameTooLong)
	assert.Equal(t, 0, w.Len())

	assert.ErrorIs(t, w.AddLump("BAD\x00", nil), ErrInvalidName)
	assert.ErrorIs(t, w.AddLump("CAFÉ", nil), ErrInvalidName)
	assert.NoError(t, w.AddLump("EIGHTCHR", nil))
}

func TestLumpNames(t *testing.T) {
	img := buildImage(t, "PWAD", nil, []testEntry{{"e1m1", 12, 0}, {"FULLNAME", 12, 0}})
	w, err := Decode(img)
	require.NoError(t, err)

	l, err := w.At(0)
	require.NoError(t, err)
	assert.Equal(t, "E1M1", l.Name())
	assert.Equal(t, name8("e1m1"), l.RawName())

	l, err = w.At(1)
	require.NoError(t, err)
	assert.Equal(t, "FULLNAME", l.Name())

	_, err = w.Index("E1M1", 0)
	assert.NoError(t, err)
}

func TestLookup(t *testing.T) {
	w := New(PWAD)
	for _, n := range []string{"MAP01", "THINGS", "MAP02", "THINGS"} {
		require.NoError(t, w.AddLump(n, []byte(n)))
	}

	i, err := w.Index("things", 1)
	require.NoError(t, err)
	assert.Equal(t, 3, i)

	_, err = w.Lookup("THINGS", 2)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = w.Lookup("SECTORS", 0)
	assert.ErrorIs(t, err, ErrNotFound)

	// Returned lumps do not alias the directory
	l, err := w.Lookup("MAP01", 0)
	require.NoError(t, err)
	l.Data[0] = 'X'
	l, err = w.Lookup("MAP01", 0)
	require.NoError(t, err)
	assert.Equal(t, []byte("MAP01"), l.Data)
}

func TestSlice(t *testing.T) {
	w := New(PWAD)
	for _, n := range []string{"MAP01", "THINGS", "LINEDEFS", "MAP02", "THINGS"} {
		require.NoError(t, w.AddLump(n, nil))
	}
	notMarker := func(name string) bool { return !strings.HasPrefix(name, "MAP") }

	run, err := w.Slice(1, notMarker)
	require.NoError(t, err)
	assert.Equal(t, []string{"THINGS", "LINEDEFS"}, lumpNames(run))

	run, err = w.Slice(0, notMarker)
	require.NoError(t, err)
	assert.Empty(t, run)

	run, err = w.Slice(4, notMarker)
	require.NoError(t, err)
	assert.Equal(t, []string{"THINGS"}, lumpNames(run))

	_, err = w.Slice(5, notMarker)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDirectoryEdits(t *testing.T) {
	w := New(PWAD)
	w.Append(mustLump(t, "A", nil), mustLump(t, "C", nil))
	require.NoError(t, w.Insert(1, mustLump(t, "B", nil)))
	require.NoError(t, w.Insert(3, mustLump(t, "D", nil)))
	assert.Equal(t, []string{"A", "B", "C", "D"}, lumpNames(w.Lumps()))

	require.NoError(t, w.Remove(0))
	assert.Equal(t, []string{"B", "C", "D"}, lumpNames(w.Lumps()))

	assert.ErrorIs(t, w.Insert(5, mustLump(t, "E", nil)), ErrNotFound)
	assert.ErrorIs(t, w.Remove(-1), ErrNotFound)
	assert.ErrorIs(t, w.Replace(3, mustLump(t, "E", nil)), ErrNotFound)

	w.SetLumps([]Lump{mustLump(t, "ONLY", nil)})
	assert.Equal(t, []string{"ONLY"}, lumpNames(w.Lumps()))
}

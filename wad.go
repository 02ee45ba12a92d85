// Package wad reads, edits and writes Doom's data archives, also known as WAD files, and
// converts the maps they contain between the DOOM, Hexen and UDMF encodings.
// The file format is documented in The Unofficial DOOM Specs:
// http://www.gamers.org/dhs/helpdocs/dmsp1666.html

package wad

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"unsafe"

	"go.uber.org/zap"
)

// Type is the archive kind stored in the header tag
type Type int

const (
	IWAD Type = iota // main game data
	PWAD             // patch or add-on
)

func (t Type) String() string {
	switch t {
	case IWAD:
		return "IWAD"
	case PWAD:
		return "PWAD"
	}
	return "unknown"
}

func (t Type) magic() [4]byte {
	var m [4]byte
	copy(m[:], t.String())
	return m
}

type binHeader struct {
	Magic        [4]byte
	NumLumps     int32
	InfoTableOfs int32
}

type binLumpInfo struct {
	Filepos int32
	Size    int32
	Name    String8
}

const (
	headerSize    = int(unsafe.Sizeof(binHeader{}))
	lumpInfoSize  = int(unsafe.Sizeof(binLumpInfo{}))
	maxFieldValue = math.MaxInt32
)

// Lump is a named binary blob
type Lump struct {
	name String8
	Data []byte
}

// NewLump builds a lump, failing with NameTooLong or InvalidName if name cannot be stored
// in the eight-byte directory field. The name is stored as given.
func NewLump(name string, data []byte) (Lump, error) {
	n, err := NewString8(name)
	if err != nil {
		return Lump{}, err
	}
	return Lump{name: n, Data: data}, nil
}

// Name returns the canonical upper-case name
func (l Lump) Name() string {
	return l.name.Canonical()
}

// RawName returns the name exactly as stored in the directory
func (l Lump) RawName() String8 {
	return l.name
}

func (l Lump) clone() Lump {
	return Lump{name: l.name, Data: bytes.Clone(l.Data)}
}

// Wad is an ordered directory of lumps
type Wad struct {
	Type  Type
	lumps []Lump

	// Source image and its directory. Encode returns src unchanged while the
	// Wad still describes it.
	src     []byte
	srcType Type
	srcInfo []binLumpInfo
}

// New returns an empty Wad of the given type
func New(t Type) *Wad {
	return &Wad{Type: t}
}

// Decode parses a WAD image. The returned Wad owns copies of all lump data.
func Decode(data []byte) (*Wad, error) {
	log().Debug("Decoding WAD", zap.Int("bytes", len(data)))

	// Read header
	if len(data) < headerSize {
		return nil, newError(KindTruncatedInput, "", "%d bytes, header needs %d", len(data), headerSize).atOffset(0)
	}
	r := bytes.NewReader(data)
	var header binHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, &Error{Kind: KindTruncatedInput, Index: -1, Offset: 0, Cause: err}
	}
	var t Type
	switch string(header.Magic[:]) {
	case "IWAD":
		t = IWAD
	case "PWAD":
		t = PWAD
	default:
		return nil, newError(KindMalformedHeader, "", "bad magic %q", header.Magic[:]).atOffset(0)
	}
	if header.NumLumps < 0 {
		return nil, newError(KindMalformedHeader, "", "negative lump count %d", header.NumLumps).atOffset(4)
	}
	if header.InfoTableOfs < 0 {
		return nil, newError(KindMalformedHeader, "", "negative directory offset %d", header.InfoTableOfs).atOffset(8)
	}

	// Read directory
	dirOfs, count := int64(header.InfoTableOfs), int64(header.NumLumps)
	if dirOfs+count*int64(lumpInfoSize) > int64(len(data)) {
		return nil, newError(KindTruncatedInput, "", "directory of %d entries at %d exceeds %d bytes",
			count, dirOfs, len(data)).atOffset(dirOfs)
	}
	infos := make([]binLumpInfo, count)
	if _, err := r.Seek(dirOfs, io.SeekStart); err != nil {
		return nil, &Error{Kind: KindTruncatedInput, Index: -1, Offset: dirOfs, Cause: err}
	}
	if err := binary.Read(r, binary.LittleEndian, infos); err != nil {
		return nil, &Error{Kind: KindTruncatedInput, Index: -1, Offset: dirOfs, Cause: err}
	}

	// Copy lumps
	lumps := make([]Lump, count)
	for i, info := range infos {
		start, size := int64(info.Filepos), int64(info.Size)
		if start < 0 || size < 0 || start+size > int64(len(data)) {
			return nil, newError(KindDirectoryOutOfRange, info.Name.String(), "range %d+%d exceeds %d bytes",
				start, size, len(data)).at(i).atOffset(dirOfs + int64(i*lumpInfoSize))
		}
		lumps[i] = Lump{name: info.Name, Data: bytes.Clone(data[start : start+size])}
	}
	log().Debug("Read lumps", zap.Stringer("type", t), zap.Int("count", len(lumps)))

	return &Wad{
		Type:    t,
		lumps:   lumps,
		src:     bytes.Clone(data),
		srcType: t,
		srcInfo: infos,
	}, nil
}

// Encode serializes the Wad. A Wad whose type and lumps still match the image it was
// decoded from encodes to that image byte for byte. Otherwise lumps are laid out
// consecutively after the header and directory.
func (w *Wad) Encode() ([]byte, error) {
	if w.unchanged() {
		log().Debug("Encoding WAD from source image", zap.Int("bytes", len(w.src)))
		return bytes.Clone(w.src), nil
	}

	// Lay out lumps after header and directory
	dirSize := int64(len(w.lumps)) * int64(lumpInfoSize)
	if int64(len(w.lumps)) > maxFieldValue || int64(headerSize)+dirSize > maxFieldValue {
		return nil, newError(KindValueOutOfRange, "", "%d lumps do not fit the directory", len(w.lumps))
	}
	infos := make([]binLumpInfo, len(w.lumps))
	pos := int64(headerSize) + dirSize
	for i, l := range w.lumps {
		size := int64(len(l.Data))
		if size > maxFieldValue || pos > maxFieldValue {
			return nil, newError(KindValueOutOfRange, l.name.String(), "offset %d size %d exceed 32 bits", pos, size).at(i)
		}
		infos[i] = binLumpInfo{Filepos: int32(pos), Size: int32(size), Name: l.name}
		pos += size
	}

	// Write header, directory and lump data
	buf := bytes.NewBuffer(make([]byte, 0, pos))
	header := binHeader{Magic: w.Type.magic(), NumLumps: int32(len(w.lumps)), InfoTableOfs: int32(headerSize)}
	if err := binary.Write(buf, binary.LittleEndian, &header); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, infos); err != nil {
		return nil, err
	}
	for _, l := range w.lumps {
		buf.Write(l.Data)
	}
	log().Debug("Encoded WAD", zap.Int("lumps", len(w.lumps)), zap.Int("bytes", buf.Len()))
	return buf.Bytes(), nil
}

// unchanged reports whether the Wad still describes its source image
func (w *Wad) unchanged() bool {
	if w.src == nil || w.Type != w.srcType || len(w.lumps) != len(w.srcInfo) {
		return false
	}
	for i, info := range w.srcInfo {
		l := w.lumps[i]
		start := int64(info.Filepos)
		if l.name != info.Name || !bytes.Equal(l.Data, w.src[start:start+int64(info.Size)]) {
			return false
		}
	}
	return true
}

// Len returns the number of lumps
func (w *Wad) Len() int {
	return len(w.lumps)
}

// Lumps returns a copy of the directory
func (w *Wad) Lumps() []Lump {
	return cloneLumps(w.lumps)
}

// At returns a copy of the lump at index i
func (w *Wad) At(i int) (Lump, error) {
	if err := w.checkIndex(i, len(w.lumps)); err != nil {
		return Lump{}, err
	}
	return w.lumps[i].clone(), nil
}

// Index returns the directory index of the occurrence'th lump named name, counting from 0.
// Names compare case-insensitively.
func (w *Wad) Index(name string, occurrence int) (int, error) {
	n := 0
	for i, l := range w.lumps {
		if !l.name.Matches(name) {
			continue
		}
		if n == occurrence {
			return i, nil
		}
		n++
	}
	return -1, newError(KindNotFound, name, "occurrence %d of %d", occurrence, n)
}

// Lookup returns a copy of the occurrence'th lump named name
func (w *Wad) Lookup(name string, occurrence int) (Lump, error) {
	i, err := w.Index(name, occurrence)
	if err != nil {
		return Lump{}, err
	}
	return w.lumps[i].clone(), nil
}

// Slice returns copies of the maximal run of lumps starting at start for which pred
// holds on the canonical name. The run is empty if pred rejects the first lump.
func (w *Wad) Slice(start int, pred func(name string) bool) ([]Lump, error) {
	if err := w.checkIndex(start, len(w.lumps)); err != nil {
		return nil, err
	}
	return cloneLumps(w.lumps[start:w.runEnd(start, pred)]), nil
}

// runEnd returns the index one past the run starting at start
func (w *Wad) runEnd(start int, pred func(name string) bool) int {
	end := start
	for end < len(w.lumps) && pred(w.lumps[end].Name()) {
		end++
	}
	return end
}

// Append adds lumps to the end of the directory
func (w *Wad) Append(lumps ...Lump) {
	w.lumps = append(w.lumps, cloneLumps(lumps)...)
}

// AddLump appends a lump named name, failing with NameTooLong or InvalidName rather than
// truncating the name
func (w *Wad) AddLump(name string, data []byte) error {
	l, err := NewLump(name, data)
	if err != nil {
		return err
	}
	w.Append(l)
	return nil
}

// Insert places lumps before index i. i may equal Len.
func (w *Wad) Insert(i int, lumps ...Lump) error {
	if err := w.checkIndex(i, len(w.lumps)+1); err != nil {
		return err
	}
	w.splice(i, i, cloneLumps(lumps))
	return nil
}

// Replace overwrites the lump at index i
func (w *Wad) Replace(i int, l Lump) error {
	if err := w.checkIndex(i, len(w.lumps)); err != nil {
		return err
	}
	w.lumps[i] = l.clone()
	return nil
}

// Remove deletes the lump at index i
func (w *Wad) Remove(i int) error {
	if err := w.checkIndex(i, len(w.lumps)); err != nil {
		return err
	}
	w.splice(i, i+1, nil)
	return nil
}

// SetLumps replaces the whole directory
func (w *Wad) SetLumps(lumps []Lump) {
	w.lumps = cloneLumps(lumps)
}

// splice replaces lumps[start:end] with repl
func (w *Wad) splice(start, end int, repl []Lump) {
	out := make([]Lump, 0, len(w.lumps)-(end-start)+len(repl))
	out = append(out, w.lumps[:start]...)
	out = append(out, repl...)
	out = append(out, w.lumps[end:]...)
	w.lumps = out
}

func (w *Wad) checkIndex(i, n int) error {
	if i < 0 || i >= n {
		return newError(KindNotFound, "", "directory index out of range [0,%d)", n).at(i)
	}
	return nil
}

func cloneLumps(lumps []Lump) []Lump {
	out := make([]Lump, len(lumps))
	for i, l := range lumps {
		out[i] = l.clone()
	}
	return out
}

package container

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

// utf16leName encodes an ASCII name as UTF-16LE followed by the
// two-code-unit zero terminator the archive format uses.
func utf16leName(s string) []byte {
	out := make([]byte, 0, len(s)*2+4)
	for _, r := range s {
		out = append(out, byte(r), 0)
	}
	out = append(out, 0, 0, 0, 0)
	return out
}

func nameLenUnits(s string) uint32 {
	return uint32(len(s)) + 2
}

func record(tag recordTag, body []byte) []byte {
	buf := make([]byte, 0, 8+len(body))
	lenBuf := make([]byte, 4)
	binary.LittleEndian.PutUint32(lenBuf, uint32(8+len(body)))
	buf = append(buf, lenBuf...)
	buf = append(buf, tag[:]...)
	buf = append(buf, body...)
	return buf
}

func u32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func i64(v int64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, uint64(v))
	return b
}

// buildFixture assembles a small archive: GGPK header -> root PDIR
// "ROOT" -> child PDIR "items" -> child FILE "foo.txt" holding
// payload, matching spec.md's record layouts byte for byte.
func buildFixture(t *testing.T, payload []byte) []byte {
	t.Helper()

	fileHash := sha256.Sum256(payload)

	fileName := "foo.txt"
	fileBody := append([]byte{}, u32(nameLenUnits(fileName))...)
	fileBody = append(fileBody, fileHash[:]...)
	fileBody = append(fileBody, utf16leName(fileName)...)
	fileBody = append(fileBody, payload...)
	fileRec := record(tagFILE, fileBody)

	dirItemsName := "items"
	var zeroHash [32]byte
	dirItemsBody := append([]byte{}, u32(nameLenUnits(dirItemsName))...)
	dirItemsBody = append(dirItemsBody, u32(1)...) // child count
	dirItemsBody = append(dirItemsBody, zeroHash[:]...)
	dirItemsBody = append(dirItemsBody, utf16leName(dirItemsName)...)
	// placeholder child entry; offset patched in below once laid out.
	dirItemsBody = append(dirItemsBody, u32(0)...)
	dirItemsBody = append(dirItemsBody, i64(0)...)
	dirItemsRec := record(tagPDIR, dirItemsBody)

	rootName := "ROOT"
	rootBody := append([]byte{}, u32(nameLenUnits(rootName))...)
	rootBody = append(rootBody, u32(1)...)
	rootBody = append(rootBody, zeroHash[:]...)
	rootBody = append(rootBody, utf16leName(rootName)...)
	rootBody = append(rootBody, u32(0)...)
	rootBody = append(rootBody, i64(0)...)
	rootRec := record(tagPDIR, rootBody)

	ggpkBody := append([]byte{}, u32(1)...)
	ggpkBody = append(ggpkBody, i64(0)...) // root offset patched below
	ggpkRec := record(tagGGPK, ggpkBody)

	rootOffset := int64(len(ggpkRec))
	itemsOffset := rootOffset + int64(len(rootRec))
	fileOffset := itemsOffset + int64(len(dirItemsRec))

	binary.LittleEndian.PutUint64(ggpkRec[12:20], uint64(rootOffset))

	rootChildOff := len(rootRec) - 8 // last 8 bytes are the child's offset field
	binary.LittleEndian.PutUint64(rootRec[rootChildOff:rootChildOff+8], uint64(itemsOffset))

	itemsChildOff := len(dirItemsRec) - 8
	binary.LittleEndian.PutUint64(dirItemsRec[itemsChildOff:itemsChildOff+8], uint64(fileOffset))

	var all []byte
	all = append(all, ggpkRec...)
	all = append(all, rootRec...)
	all = append(all, dirItemsRec...)
	all = append(all, fileRec...)
	return all
}

func openFixture(t *testing.T, payload []byte) *Container {
	t.Helper()
	data := buildFixture(t, payload)
	c, err := newContainer(bytes.NewReader(data), nil, int64(len(data)))
	require.NoError(t, err)
	return c
}

func TestHeaderParsing(t *testing.T) {
	c := openFixture(t, []byte("hello world"))
	require.Equal(t, uint32(1), c.Version())
	require.True(t, c.RootOffset() > 0)
}

func TestNestedTraversalRootContributesNoSegment(t *testing.T) {
	c := openFixture(t, []byte("hello world"))
	idx := c.BuildIndex()

	require.Contains(t, idx, "items/foo.txt")
	require.NotContains(t, idx, "ROOT/items/foo.txt")

	d := idx["items/foo.txt"]
	require.Equal(t, int64(len("hello world")), d.PayloadLength)
}

func TestPayloadOffsetArithmetic(t *testing.T) {
	payload := []byte("hello world")
	c := openFixture(t, payload)
	idx := c.BuildIndex()
	d := idx["items/foo.txt"]

	// invariant: payload_offset_within_record = 8 + 4 + 32 + 2N
	nameUnits := int64(nameLenUnits("foo.txt"))
	wantOffset := d.OffsetInArchive + 8 + 4 + 32 + 2*nameUnits
	require.Equal(t, wantOffset, d.PayloadOffset)
}

func TestExtractRoundTripAndHash(t *testing.T) {
	payload := []byte("hello world")
	c := openFixture(t, payload)
	idx := c.BuildIndex()
	d := idx["items/foo.txt"]

	var out bytes.Buffer
	require.NoError(t, c.Extract(d, &out, true))
	require.Equal(t, payload, out.Bytes())
}

func TestExtractHashMismatch(t *testing.T) {
	payload := []byte("hello world")
	c := openFixture(t, payload)
	idx := c.BuildIndex()
	d := idx["items/foo.txt"]
	d.Hash[0] ^= 0xff // corrupt the recorded hash

	var out bytes.Buffer
	err := c.Extract(d, &out, true)
	require.ErrorIs(t, err, ErrHashMismatch)
}

func TestListPattern(t *testing.T) {
	c := openFixture(t, []byte("hello world"))
	idx := c.BuildIndex()

	matches, err := List(idx, "FOO")
	require.NoError(t, err)
	require.Equal(t, []string{"items/foo.txt"}, matches)

	none, err := List(idx, "nope")
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestOpenRejectsBadMagic(t *testing.T) {
	data := record(recordTag{'X', 'X', 'X', 'X'}, []byte{0, 0, 0, 0})
	_, err := newContainer(bytes.NewReader(data), nil, int64(len(data)))
	require.Error(t, err)
}

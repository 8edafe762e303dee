package utils

import (
	"bytes"
	"encoding/binary"

	"golang.org/x/text/encoding/unicode"
)

var utf16LEDecoder = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()

// UTF16LEString decodes b as UTF-16LE up to (but not including) the
// first two-code-unit (4 byte) run of zeros, matching the terminator
// convention used by both the container's PDIR/FILE names and the
// table decoder's interned strings. Invalid sequences decode to the
// empty string rather than erroring, per spec.
func UTF16LEString(b []byte) string {
	n := utf16ZeroRun(b)
	decoded, err := utf16LEDecoder.Bytes(b[:n])
	if err != nil {
		return ""
	}
	return string(decoded)
}

// utf16ZeroRun returns the byte offset of the first 4-byte run of
// zeros (two zero UTF-16 code units), or len(b) if none is found.
func utf16ZeroRun(b []byte) int {
	for i := 0; i+4 <= len(b); i += 2 {
		if b[i] == 0 && b[i+1] == 0 && b[i+2] == 0 && b[i+3] == 0 {
			return i
		}
	}
	return len(b)
}

// UTF16LECodeUnitLength returns how many UTF-16 code units (including
// the two-code-unit terminator) b occupies, counted the way the
// container's name_length field counts them.
func UTF16LECodeUnitLength(b []byte) int {
	return utf16ZeroRun(b)/2 + 2
}

func ReadBytes(out interface{}, raw []byte) error {
	return binary.Read(bytes.NewReader(raw), binary.LittleEndian, out)
}

func AsBytes(data interface{}) []byte {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, data); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

package container

import (
	"github.com/mogaika/ggpkassets/readat"
	"github.com/mogaika/ggpkassets/utils"
	"github.com/pkg/errors"
)

// recordTag is the 4-byte discriminator every record in the archive
// is prefixed with, right after its u32 length. Modeled as a sum
// type per spec.md's design note: a switch on tag, never an
// inheritance tree.
type recordTag [4]byte

var (
	tagGGPK = recordTag{'G', 'G', 'P', 'K'}
	tagPDIR = recordTag{'P', 'D', 'I', 'R'}
	tagFILE = recordTag{'F', 'I', 'L', 'E'}
	tagFREE = recordTag{'F', 'R', 'E', 'E'}
)

const recordHeaderSize = 8 // length:u32 + tag:4 bytes

// recordHeader is the common (length, tag) prefix of every record.
type recordHeader struct {
	offset int64
	length int64
	tag    recordTag
}

func readRecordHeader(r *readat.Reader, offset int64) (recordHeader, error) {
	length := r.ReadU32LE(offset)
	if length < recordHeaderSize {
		return recordHeader{}, errors.Errorf("record at 0x%x has impossible length %d", offset, length)
	}
	var tag recordTag
	if _, err := r.ReadAt(tag[:], offset+4); err != nil {
		return recordHeader{}, errors.Wrapf(err, "reading tag at 0x%x", offset)
	}
	return recordHeader{offset: offset, length: int64(length), tag: tag}, nil
}

// ggpkHeader is the decoded body of the tagGGPK record: the file's
// identity and the offset of the first real record (the root
// directory, by convention).
type ggpkHeader struct {
	Version           uint32
	RootDirectoryOff int64
}

func parseGGPKHeader(r *readat.Reader, rec recordHeader) (ggpkHeader, error) {
	body := rec.offset + recordHeaderSize
	return ggpkHeader{
		Version:          r.ReadU32LE(body),
		RootDirectoryOff: r.ReadI64LE(body + 4),
	}, nil
}

// dirChild is one (name_hash, child_offset) pair inside a PDIR record.
type dirChild struct {
	NameHash uint32
	Offset   int64
}

// dirRecord is the decoded body of a PDIR record: metadata only, the
// children are offsets to be resolved lazily by the caller.
type dirRecord struct {
	rec      recordHeader
	Name     string
	Hash     [32]byte
	Children []dirChild
}

func parseDirRecord(r *readat.Reader, rec recordHeader) (*dirRecord, error) {
	body := rec.offset + recordHeaderSize
	nameLenUnits := int64(r.ReadU32LE(body))
	childCount := int64(r.ReadU32LE(body + 4))
	if nameLenUnits < 1 || childCount < 0 {
		return nil, errors.Errorf("PDIR at 0x%x has invalid name_length/child_count (%d/%d)", rec.offset, nameLenUnits, childCount)
	}

	var d dirRecord
	d.rec = rec
	if _, err := r.ReadAt(d.Hash[:], body+8); err != nil {
		return nil, errors.Wrapf(err, "reading PDIR hash at 0x%x", rec.offset)
	}

	nameBytes, _ := r.ReadAtBP(nameLenUnits*2, body+40)
	d.Name = utils.UTF16LEString(nameBytes)

	entriesOff := body + 40 + nameLenUnits*2
	d.Children = make([]dirChild, childCount)
	for i := int64(0); i < childCount; i++ {
		entryOff := entriesOff + i*12
		d.Children[i] = dirChild{
			NameHash: r.ReadU32LE(entryOff),
			Offset:   r.ReadI64LE(entryOff + 4),
		}
	}
	return &d, nil
}

// fileRecord is the decoded metadata of a FILE record. The payload
// bytes are never read here; only their span within the archive is
// recorded, per spec.md's lazy-decode requirement.
type fileRecord struct {
	rec            recordHeader
	Name           string
	Hash           [32]byte
	PayloadOffset  int64
	PayloadLength  int64
}

// parseFileRecordMeta performs the two-step decode spec.md describes:
// a first read discovers the name length, a follow-up read covers
// the rest of the header (excluding payload).
func parseFileRecordMeta(r *readat.Reader, rec recordHeader) (*fileRecord, error) {
	body := rec.offset + recordHeaderSize

	// step 1: small read to discover name length.
	nameLenUnits := int64(r.ReadU32LE(body))
	if nameLenUnits < 1 {
		return nil, errors.Errorf("FILE at 0x%x has invalid name_length %d", rec.offset, nameLenUnits)
	}

	// step 2: follow-up read covering hash + name (header, no payload).
	var f fileRecord
	f.rec = rec
	if _, err := r.ReadAt(f.Hash[:], body+4); err != nil {
		return nil, errors.Wrapf(err, "reading FILE hash at 0x%x", rec.offset)
	}
	nameBytes, _ := r.ReadAtBP(nameLenUnits*2, body+36)
	f.Name = utils.UTF16LEString(nameBytes)

	f.PayloadOffset = rec.offset + recordHeaderSize + 4 + 32 + 2*nameLenUnits
	f.PayloadLength = rec.length - (recordHeaderSize + 4 + 32 + 2*nameLenUnits)
	if f.PayloadLength < 0 {
		return nil, errors.Errorf("FILE at 0x%x: payload length would be negative (record length %d too small for name)", rec.offset, rec.length)
	}
	return &f, nil
}

type freeRecord struct {
	rec      recordHeader
	NextFree int64
}

func parseFreeRecord(r *readat.Reader, rec recordHeader) (*freeRecord, error) {
	body := rec.offset + recordHeaderSize
	return &freeRecord{rec: rec, NextFree: r.ReadI64LE(body)}, nil
}

// Package container decodes the outer record archive (magic "GGPK"):
// a flat, record-oriented file holding a directory/file tree that can
// run into the hundreds of gigabytes. It never loads more than one
// record's metadata into memory at a time, and file payloads are
// streamed out only when Extract is called.
//
// Grounded on the teacher's drivers/psarc package for the overall
// open/parse/list/extract shape and on readat.Reader for all
// positioned reads; the byte layout itself follows spec.md §3/§4.A.
package container

import (
	"io"
	"os"

	"github.com/mogaika/ggpkassets/readat"
	"github.com/pkg/errors"
)

// Container is a read-only, positioned-read handle on a GGPK archive.
// It maintains no seek cursor exposed to callers; every operation
// addresses the file by absolute offset.
type Container struct {
	r      *readat.Reader
	closer io.Closer
	size   int64
	header ggpkHeader
}

// Open opens path read-only and validates its header record.
func Open(path string) (*Container, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening archive %q", path)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "stat archive %q", path)
	}
	c, err := newContainer(f, f, info.Size())
	if err != nil {
		f.Close()
		return nil, err
	}
	return c, nil
}

// newContainer builds a Container over an arbitrary io.ReaderAt,
// taking ownership of closer (if non-nil). This indirection mirrors
// the teacher's NewPsarcDriver(f vfs.File) pattern of accepting an
// abstract backing file rather than only a path, which keeps the
// decoder testable against an in-memory buffer.
func newContainer(ra io.ReaderAt, closer io.Closer, size int64) (*Container, error) {
	r := readat.NewReader(ra, 0)

	hdrRec, err := readRecordHeader(r, 0)
	if err != nil {
		return nil, errors.Wrap(ErrMalformedArchive, err.Error())
	}
	if hdrRec.tag != tagGGPK {
		return nil, errors.Wrapf(ErrMalformedArchive, "expected GGPK magic at offset 0, got %q", hdrRec.tag[:])
	}
	header, err := parseGGPKHeader(r, hdrRec)
	if err != nil {
		return nil, errors.Wrap(ErrMalformedArchive, err.Error())
	}
	if header.RootDirectoryOff < 0 || header.RootDirectoryOff+recordHeaderSize > size {
		return nil, errors.Wrapf(ErrMalformedArchive, "root offset 0x%x past end of archive", header.RootDirectoryOff)
	}

	return &Container{r: r, closer: closer, size: size, header: header}, nil
}

// Version is the archive's format version, from its header record.
func (c *Container) Version() uint32 { return c.header.Version }

// RootOffset is the absolute offset of the first real record, per the
// header. By convention this is the directory-root record.
func (c *Container) RootOffset() int64 { return c.header.RootDirectoryOff }

// Close releases the underlying file handle. Idempotent.
func (c *Container) Close() error {
	if c.closer == nil {
		return nil
	}
	closer := c.closer
	c.closer = nil
	return closer.Close()
}

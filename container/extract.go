package container

import (
	"crypto/sha256"
	"io"

	"github.com/pkg/errors"
)

// extractChunkSize bounds how much of a single payload is read into
// memory at once; payloads can run into the gigabytes and the whole
// point of streaming extraction is to never require one allocation
// the size of the file.
const extractChunkSize = 50 * 1024 * 1024 // 50 MiB

// Extract streams the payload described by d to w. When verifyHash is
// true the payload is hashed while it is copied and compared against
// d.Hash once the copy completes; a mismatch returns ErrHashMismatch
// and w will already contain the (bad) bytes written so far.
func (c *Container) Extract(d Descriptor, w io.Writer, verifyHash bool) error {
	if d.PayloadLength < 0 {
		return errors.Errorf("container: descriptor %q has negative payload length", d.Name)
	}
	if d.PayloadOffset+d.PayloadLength > c.size {
		return errors.Wrapf(ErrMalformedArchive, "descriptor %q payload runs past end of archive", d.Name)
	}

	var hasher interface {
		io.Writer
		Sum([]byte) []byte
	}
	dst := w
	if verifyHash {
		hasher = sha256.New()
		dst = io.MultiWriter(w, hasher)
	}

	remaining := d.PayloadLength
	offset := d.PayloadOffset
	buf := make([]byte, extractChunkSize)
	for remaining > 0 {
		n := int64(len(buf))
		if remaining < n {
			n = remaining
		}
		chunk := buf[:n]
		if _, err := c.r.ReadAt(chunk, offset); err != nil {
			return errors.Wrapf(err, "reading payload for %q at 0x%x", d.Name, offset)
		}
		if _, err := dst.Write(chunk); err != nil {
			return errors.Wrapf(err, "writing payload for %q", d.Name)
		}
		offset += n
		remaining -= n
	}

	if verifyHash {
		sum := hasher.Sum(nil)
		var got [32]byte
		copy(got[:], sum)
		if got != d.Hash {
			return ErrHashMismatch
		}
	}
	return nil
}

package container

import "github.com/pkg/errors"

// ErrMalformedArchive is returned for conditions fatal to the whole
// archive handle: bad magic, an impossible record length, or a
// header offset past the end of the file.
var ErrMalformedArchive = errors.New("container: malformed archive")

// ErrHashMismatch is returned by Extract when content-hash
// verification is requested and the extracted payload does not
// match the descriptor's recorded hash.
var ErrHashMismatch = errors.New("container: extracted content hash does not match descriptor")

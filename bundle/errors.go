package bundle

import "github.com/pkg/errors"

// ErrToolFailed is returned when an extract-files run of the delegated
// codec binary never printed the "Done," sentinel on stderr (whatever
// its exit status), or when a list-files run exits non-zero.
var ErrToolFailed = errors.New("bundle: external codec tool failed")

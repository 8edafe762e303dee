package pipeline

import (
	"context"
	"os/exec"
	"strconv"

	"github.com/pkg/errors"
)

// Converter wraps the external DDS-to-image transcoder. Grounded on
// the same delegated-process idiom as the bundle package's codec
// tool: the image format conversion is out of reach of a pure-Go
// implementation for every DDS variant this archive format uses.
type Converter struct {
	BinaryPath string
	Format     string // "png" or "webp"
	Quality    int
}

// Convert transcodes src (a .dds file) to dst.
func (c *Converter) Convert(ctx context.Context, src, dst string) error {
	args := []string{src, dst}
	if c.Format != "" {
		args = append(args, "--format", c.Format)
	}
	if c.Quality > 0 {
		args = append(args, "--quality", strconv.Itoa(c.Quality))
	}
	cmd := exec.CommandContext(ctx, c.BinaryPath, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return errors.Wrapf(err, "pipeline: converting %q: %s", src, string(out))
	}
	return nil
}

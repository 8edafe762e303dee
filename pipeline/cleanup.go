package pipeline

import (
	"io/fs"
	"os"
	"path/filepath"
)

// Cleanup sweeps dir deleting any .dds whose sibling .webp or .png
// exists and any table file whose sibling .json exists — the
// standalone counterpart to Run's per-file deletion, for directories
// extracted by an older pass or a tool run outside this pipeline.
func Cleanup(dir string) (removed int, err error) {
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() {
			return nil
		}
		switch {
		case ddsFilePattern.MatchString(path):
			if siblingExists(path, ".webp") || siblingExists(path, ".png") {
				if os.Remove(path) == nil {
					removed++
				}
			}
		case tableFilePattern.MatchString(path):
			if siblingExists(path, ".json") {
				if os.Remove(path) == nil {
					removed++
				}
			}
		}
		return nil
	})
	return removed, err
}

func siblingExists(path, ext string) bool {
	_, err := os.Stat(swapExt(path, ext))
	return err == nil
}

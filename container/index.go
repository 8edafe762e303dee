package container

import (
	"log"
	"regexp"
	"sort"
	"strings"
)

// Descriptor is the lightweight, metadata-only handle build_index
// produces for every FILE record reachable from the root.
type Descriptor struct {
	OffsetInArchive int64
	PayloadOffset   int64
	PayloadLength   int64
	Name            string
	Hash            [32]byte
}

// BuildIndex walks the archive from its root, accumulating a
// slash-delimited logical path for every reachable FILE record. A
// PDIR literally named "ROOT" contributes no path segment. Decode
// failures are isolated to the subtree that triggered them: the
// error is logged and traversal continues with siblings, guarded
// against cyclic child offsets by a visited-offset set.
func (c *Container) BuildIndex() map[string]Descriptor {
	idx := make(map[string]Descriptor)
	visited := make(map[int64]bool)
	c.walk(c.header.RootDirectoryOff, nil, visited, idx)
	return idx
}

func (c *Container) walk(offset int64, prefix []string, visited map[int64]bool, idx map[string]Descriptor) {
	if offset < 0 || offset+recordHeaderSize > c.size {
		log.Printf("[container] child offset 0x%x out of bounds, abandoning subtree", offset)
		return
	}
	if visited[offset] {
		return
	}
	visited[offset] = true

	rec, err := readRecordHeader(c.r, offset)
	if err != nil {
		log.Printf("[container] failed to read record header at 0x%x: %v, abandoning subtree", offset, err)
		return
	}

	switch rec.tag {
	case tagPDIR:
		dir, err := parseDirRecord(c.r, rec)
		if err != nil {
			log.Printf("[container] failed to parse PDIR at 0x%x: %v, abandoning subtree", offset, err)
			return
		}
		childPrefix := prefix
		if dir.Name != "ROOT" {
			childPrefix = append(append([]string{}, prefix...), dir.Name)
		}
		for _, child := range dir.Children {
			c.walk(child.Offset, childPrefix, visited, idx)
		}

	case tagFILE:
		f, err := parseFileRecordMeta(c.r, rec)
		if err != nil {
			log.Printf("[container] failed to parse FILE at 0x%x: %v, abandoning subtree", offset, err)
			return
		}
		path := strings.Join(append(append([]string{}, prefix...), f.Name), "/")
		idx[path] = Descriptor{
			OffsetInArchive: rec.offset,
			PayloadOffset:   f.PayloadOffset,
			PayloadLength:   f.PayloadLength,
			Name:            f.Name,
			Hash:            f.Hash,
		}

	case tagFREE:
		// dead space; not part of the tree, nothing to accumulate.

	default:
		log.Printf("[container] unrecognised tag %q at 0x%x, abandoning subtree", rec.tag[:], offset)
	}
}

// List returns the logical paths of idx matching pattern (a
// case-insensitive regular expression), or every path if pattern is
// empty, in a stable sorted order.
func List(idx map[string]Descriptor, pattern string) ([]string, error) {
	var re *regexp.Regexp
	if pattern != "" {
		var err error
		re, err = regexp.Compile("(?i)" + pattern)
		if err != nil {
			return nil, err
		}
	}

	paths := make([]string, 0, len(idx))
	for p := range idx {
		if re == nil || re.MatchString(p) {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

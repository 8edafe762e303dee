package web

import (
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mogaika/ggpkassets/vfs"
)

// FileEntry is one file under the extracted output tree.
type FileEntry struct {
	Path   string `json:"path"`
	Folder string `json:"folder"`
	Name   string `json:"name"`
	Size   int64  `json:"size"`
	Type   string `json:"type"`
}

// Catalogue is the in-memory index of the extracted output
// directory, rebuilt from disk on demand. Grounded on vfs.Directory
// for traversal, the same abstraction the teacher uses to browse a
// pack's resource tree.
type Catalogue struct {
	mu      sync.RWMutex
	version int
	entries []FileEntry
	builtAt time.Time
}

func NewCatalogue() *Catalogue { return &Catalogue{} }

// Rebuild rescans root and replaces the catalogue's contents,
// bumping its version.
func (c *Catalogue) Rebuild(root vfs.Directory) error {
	var entries []FileEntry
	if err := walk(root, "", &entries); err != nil {
		return err
	}
	c.mu.Lock()
	c.entries = entries
	c.version++
	c.builtAt = time.Now()
	c.mu.Unlock()
	return nil
}

func walk(dir vfs.Directory, prefix string, out *[]FileEntry) error {
	names, err := dir.List()
	if err != nil {
		return err
	}
	for _, name := range names {
		el, err := dir.GetElement(name)
		if err != nil {
			continue
		}
		rel := name
		if prefix != "" {
			rel = prefix + "/" + name
		}
		if el.IsDirectory() {
			if sub, ok := el.(vfs.Directory); ok {
				if err := walk(sub, rel, out); err != nil {
					continue
				}
			}
			continue
		}
		f, ok := el.(vfs.File)
		if !ok {
			continue
		}
		*out = append(*out, FileEntry{
			Path:   rel,
			Folder: prefix,
			Name:   name,
			Size:   f.Size(),
			Type:   strings.TrimPrefix(path.Ext(name), "."),
		})
	}
	return nil
}

func (c *Catalogue) Snapshot() ([]FileEntry, int, time.Time) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries, c.version, c.builtAt
}

func (c *Catalogue) FileCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Browse returns only the direct children of folder: files whose
// Folder exactly matches, and the set of immediate subfolder names
// derived from every entry nested one or more levels deeper.
func (c *Catalogue) Browse(folder, typeFilter string, page, perPage int) (files []FileEntry, subfolders []string, total int) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	subfolderSet := make(map[string]bool)
	var matched []FileEntry
	for _, e := range c.entries {
		if e.Folder == folder {
			if typeFilter == "" || strings.EqualFold(e.Type, typeFilter) {
				matched = append(matched, e)
			}
			continue
		}
		if isDescendant(e.Folder, folder) {
			next := nextSegment(e.Folder, folder)
			if next != "" {
				subfolderSet[next] = true
			}
		}
	}

	for name := range subfolderSet {
		subfolders = append(subfolders, name)
	}
	sort.Strings(subfolders)
	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })

	total = len(matched)
	if perPage <= 0 {
		perPage = total
	}
	start := page * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}
	if start < end {
		files = matched[start:end]
	} else {
		files = []FileEntry{}
	}
	return files, subfolders, total
}

func isDescendant(folder, ancestor string) bool {
	if ancestor == "" {
		return folder != ""
	}
	return strings.HasPrefix(folder, ancestor+"/")
}

func nextSegment(folder, ancestor string) string {
	rest := folder
	if ancestor != "" {
		rest = strings.TrimPrefix(folder, ancestor+"/")
	}
	if i := strings.Index(rest, "/"); i >= 0 {
		return rest[:i]
	}
	return rest
}

// Search performs a case-insensitive substring match against name and
// folder. Queries shorter than two characters return no results.
func (c *Catalogue) Search(q, typeFilter string, limit int) []FileEntry {
	if len(q) < 2 {
		return nil
	}
	needle := strings.ToLower(q)

	c.mu.RLock()
	defer c.mu.RUnlock()

	var results []FileEntry
	for _, e := range c.entries {
		if typeFilter != "" && !strings.EqualFold(e.Type, typeFilter) {
			continue
		}
		if strings.Contains(strings.ToLower(e.Name), needle) || strings.Contains(strings.ToLower(e.Folder), needle) {
			results = append(results, e)
			if limit > 0 && len(results) >= limit {
				break
			}
		}
	}
	return results
}

// FolderNode is one node of the derived folder tree.
type FolderNode struct {
	Name      string                 `json:"name"`
	FileCount int                    `json:"fileCount"`
	Children  map[string]*FolderNode `json:"children,omitempty"`
}

// Folders builds the full folder tree with per-node file counts.
func (c *Catalogue) Folders() *FolderNode {
	c.mu.RLock()
	defer c.mu.RUnlock()

	root := &FolderNode{Name: "", Children: map[string]*FolderNode{}}
	for _, e := range c.entries {
		node := root
		node.FileCount++
		if e.Folder == "" {
			continue
		}
		for _, seg := range strings.Split(e.Folder, "/") {
			child, ok := node.Children[seg]
			if !ok {
				child = &FolderNode{Name: seg, Children: map[string]*FolderNode{}}
				node.Children[seg] = child
			}
			child.FileCount++
			node = child
		}
	}
	return root
}

package web

import "testing"

import "github.com/stretchr/testify/require"

func seedCatalogue() *Catalogue {
	c := NewCatalogue()
	c.entries = []FileEntry{
		{Path: "art/2dart/a.dds", Folder: "art/2dart", Name: "a.dds", Type: "dds"},
		{Path: "art/2dart/b.dds", Folder: "art/2dart", Name: "b.dds", Type: "dds"},
		{Path: "art/2dart/skillicons/c.dds", Folder: "art/2dart/skillicons", Name: "c.dds", Type: "dds"},
		{Path: "data/stats.json", Folder: "data", Name: "stats.json", Type: "json"},
	}
	return c
}

func TestBrowseDirectChildrenOnly(t *testing.T) {
	c := seedCatalogue()
	files, subfolders, total := c.Browse("art/2dart", "", 0, 0)
	require.Equal(t, 2, total)
	require.Len(t, files, 2)
	require.Equal(t, []string{"skillicons"}, subfolders)
}

func TestBrowseRoot(t *testing.T) {
	c := seedCatalogue()
	files, subfolders, _ := c.Browse("", "", 0, 0)
	require.Empty(t, files)
	require.ElementsMatch(t, []string{"art", "data"}, subfolders)
}

func TestSearchMinimumQueryLength(t *testing.T) {
	c := seedCatalogue()
	require.Nil(t, c.Search("a", "", 0))
	results := c.Search("stats", "", 0)
	require.Len(t, results, 1)
}

func TestFoldersFileCounts(t *testing.T) {
	c := seedCatalogue()
	root := c.Folders()
	require.Equal(t, 4, root.FileCount)
	require.Equal(t, 3, root.Children["art"].FileCount)
	require.Equal(t, 1, root.Children["art"].Children["2dart"].Children["skillicons"].FileCount)
}

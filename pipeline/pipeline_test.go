package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mogaika/ggpkassets/bundle"
)

func writeFakeBundleTool(t *testing.T, dir, outputDir string) string {
	t.Helper()
	scriptPath := filepath.Join(dir, "fake-bundle.sh")
	// Drops a .datc64 file directly into outputDir when invoked, to
	// simulate a real extraction having happened.
	script := "#!/bin/sh\n" +
		"mkdir -p '" + outputDir + "'\n" +
		"printf '\\x01\\x00\\x00\\x00\\x07\\x00\\x00\\x00\\xBB\\xBB\\xBB\\xBB\\xBB\\xBB\\xBB\\xBB' > '" + outputDir + "/Stats.datc64'\n" +
		"echo 'Extracting: stats.datc64' >&2\n" +
		"echo 'Done, 1/1 extracted, 0 missed.' >&2\n" +
		"exit 0\n"
	require.NoError(t, os.WriteFile(scriptPath, []byte(script), 0o755))
	return scriptPath
}

func writeSchema(t *testing.T, dir string) string {
	t.Helper()
	schema := map[string]interface{}{
		"version": 1, "createdAt": 0,
		"tables": []map[string]interface{}{
			{"validFor": 2, "name": "stats", "columns": []map[string]interface{}{
				{"name": "health", "type": "u32"},
			}},
		},
	}
	path := filepath.Join(dir, "schema.json")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, json.NewEncoder(f).Encode(schema))
	return path
}

func TestRunExtractsAndDecodesTables(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake tool script targets a posix shell")
	}

	workDir := t.TempDir()
	outputDir := filepath.Join(workDir, "out")
	toolPath := writeFakeBundleTool(t, workDir, outputDir)
	schemaPath := writeSchema(t, workDir)

	tool := bundle.NewTool(toolPath)
	opts := Options{Pattern: Presets["data"], SchemaPath: schemaPath, ProductBit: 1}

	metrics, err := Run(context.Background(), tool, nil, "archive.ggpk", outputDir, opts, nil)
	require.NoError(t, err)
	require.Equal(t, 1, metrics.Extracted)
	require.Equal(t, 1, metrics.Data.Parsed)

	require.FileExists(t, filepath.Join(outputDir, "Stats.json"))
	require.NoFileExists(t, filepath.Join(outputDir, "Stats.datc64"))
}

func TestCleanupRemovesFilesWithSiblingArtifacts(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.dds"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.webp"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.datc64"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.json"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.dds"), []byte("x"), 0o644)) // no sibling

	removed, err := Cleanup(dir)
	require.NoError(t, err)
	require.Equal(t, 2, removed)
	require.NoFileExists(t, filepath.Join(dir, "a.dds"))
	require.NoFileExists(t, filepath.Join(dir, "b.datc64"))
	require.FileExists(t, filepath.Join(dir, "c.dds"))
}

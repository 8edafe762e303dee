package decode

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeSchema(t *testing.T, dir string) string {
	t.Helper()
	schema := map[string]interface{}{
		"version":   1,
		"createdAt": 0,
		"tables": []map[string]interface{}{
			{
				"validFor": 2,
				"name":     "stats",
				"columns": []map[string]interface{}{
					{"name": "health", "type": "u32"},
				},
			},
		},
	}
	path := filepath.Join(dir, "schema.json")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, json.NewEncoder(f).Encode(schema))
	return path
}

func writeDatc64(t *testing.T, dir, name string, health uint32) string {
	t.Helper()
	var data []byte
	data = append(data, u32bLocal(1)...)
	data = append(data, u32bLocal(health)...)
	data = append(data, 0xBB, 0xBB, 0xBB, 0xBB, 0xBB, 0xBB, 0xBB, 0xBB)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func u32bLocal(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

func TestRunDecodesAndWritesJSON(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()
	schemaPath := writeSchema(t, inDir)

	path := writeDatc64(t, inDir, "Stats.datc64", 7)
	tasks := []Task{{InputPath: path, TableName: "stats"}}

	var events []ProgressEvent
	results, err := Run(context.Background(), schemaPath, outDir, tasks, Options{UseCache: true, ProductBit: 1}, func(e ProgressEvent) {
		events = append(events, e)
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.True(t, results[0].Success)
	require.Equal(t, 1, results[0].RowCount)

	require.FileExists(t, filepath.Join(outDir, "stats.json"))
	require.GreaterOrEqual(t, len(events), 2)
}

func TestRunSkipsEmptyAndMissingSchema(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()
	schemaPath := writeSchema(t, inDir)

	emptyPath := filepath.Join(inDir, "Empty.datc64")
	require.NoError(t, os.WriteFile(emptyPath, nil, 0o644))

	unknownPath := writeDatc64(t, inDir, "Unknown.datc64", 1)

	tasks := []Task{
		{InputPath: emptyPath, TableName: "empty"},
		{InputPath: unknownPath, TableName: "unknowntable"},
	}

	results, err := Run(context.Background(), schemaPath, outDir, tasks, Options{UseCache: true, ProductBit: 1}, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)

	byTable := map[string]TaskResult{}
	for _, r := range results {
		byTable[r.Table] = r
	}
	require.Equal(t, "empty", byTable["empty"].SkipReason)
	require.Equal(t, "no schema", byTable["unknowntable"].SkipReason)
}

func TestRunUsesCacheWhenOutputIsFresh(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()
	schemaPath := writeSchema(t, inDir)

	path := writeDatc64(t, inDir, "Stats.datc64", 9)
	tasks := []Task{{InputPath: path, TableName: "stats"}}

	_, err := Run(context.Background(), schemaPath, outDir, tasks, Options{UseCache: true, ProductBit: 1}, nil)
	require.NoError(t, err)

	results, err := Run(context.Background(), schemaPath, outDir, tasks, Options{UseCache: true, ProductBit: 1}, nil)
	require.NoError(t, err)
	require.True(t, results[0].Cached)
}

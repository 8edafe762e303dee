// Package pipeline orchestrates the end-to-end extraction flow: a
// bundle-extract pass, then DDS-to-image conversion and table decode
// over whatever landed on disk, deleting each source file once its
// derived artifact is written successfully.
package pipeline

import (
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/mogaika/ggpkassets/bundle"
	"github.com/mogaika/ggpkassets/datc64"
)

var tableFilePattern = regexp.MustCompile(`(?i)\.datc?64$`)
var ddsFilePattern = regexp.MustCompile(`(?i)\.dds$`)

// convertTimeout bounds each single-file DDS conversion.
const convertTimeout = 15 * time.Second

// Counts is one stage's parsed/converted vs. failed tally.
type Counts struct {
	Converted int `json:"converted,omitempty"`
	Failed    int `json:"failed"`
	Parsed    int `json:"parsed,omitempty"`
}

// Metrics summarizes one pipeline run.
type Metrics struct {
	Extracted int     `json:"extracted"`
	Images    Counts  `json:"images"`
	Data      Counts  `json:"data"`
	ElapsedMs int64   `json:"elapsed_ms"`
}

// Options configures a pipeline Run.
type Options struct {
	Pattern          string
	ExcludeLanguages bool
	ConvertImages    bool
	SchemaPath       string
	ProductBit       uint
}

// Run extracts matching paths from archivePath into outputDir via
// tool, then walks outputDir converting DDS textures (when
// opts.ConvertImages is set) and decoding table files, deleting each
// source on success. Any single file's failure is counted in Metrics
// and does not abort the run.
func Run(ctx context.Context, tool *bundle.Tool, converter *Converter, archivePath, outputDir string, opts Options, progress bundle.ProgressFunc) (Metrics, error) {
	start := time.Now()
	var metrics Metrics

	result, err := tool.ExtractByPattern(ctx, archivePath, outputDir, opts.Pattern, opts.ExcludeLanguages, progress)
	if err != nil {
		return metrics, err
	}
	metrics.Extracted = result.Extracted

	var ddsFiles, tableFiles []string
	_ = filepath.WalkDir(outputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		switch {
		case ddsFilePattern.MatchString(path):
			ddsFiles = append(ddsFiles, path)
		case tableFilePattern.MatchString(path):
			tableFiles = append(tableFiles, path)
		}
		return nil
	})

	if opts.ConvertImages && converter != nil {
		for _, dds := range ddsFiles {
			dst := swapExt(dds, "."+converter.OutputExt())
			convCtx, cancel := context.WithTimeout(ctx, convertTimeout)
			err := converter.Convert(convCtx, dds, dst)
			cancel()
			if err != nil {
				metrics.Images.Failed++
				continue
			}
			metrics.Images.Converted++
			os.Remove(dds)
		}
	}

	if len(tableFiles) > 0 {
		schema, err := datc64.LoadSchema(opts.SchemaPath)
		if err != nil {
			metrics.Data.Failed += len(tableFiles)
		} else {
			for _, path := range tableFiles {
				if decodeAndWrite(schema, path, opts.ProductBit) {
					metrics.Data.Parsed++
					os.Remove(path)
				} else {
					metrics.Data.Failed++
				}
			}
		}
	}

	metrics.ElapsedMs = time.Since(start).Milliseconds()
	return metrics, nil
}

// OutputExt is the file extension Convert produces for this
// Converter's configured Format.
func (c *Converter) OutputExt() string {
	if c.Format == "webp" {
		return "webp"
	}
	return "png"
}

func decodeAndWrite(schema *datc64.Schema, path string, productBit uint) bool {
	tableName := datc64.TableNameFromFile(filepath.Base(path))
	def, ok := schema.Lookup(tableName, productBit)
	if !ok {
		return false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	table, err := datc64.DecodeBuffer(data, def)
	if err != nil {
		return false
	}

	jsonPath := swapExt(path, ".json")
	f, err := os.Create(jsonPath)
	if err != nil {
		return false
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(table) == nil
}

func swapExt(path, newExt string) string {
	ext := filepath.Ext(path)
	return path[:len(path)-len(ext)] + newExt
}

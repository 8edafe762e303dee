// Package web is the backend query surface the GUI consumes: an
// in-memory catalogue of the extracted output tree, a per-file
// preview endpoint, and an asynchronous extraction pipeline reachable
// over HTTP and polled via operation ids.
//
// Grounded on the teacher's web package for the overall mux-based
// routing and RecoveryHandler/LoggingHandler middleware stack.
package web

import (
	"context"
	"os"

	"github.com/mogaika/ggpkassets/bundle"
	"github.com/mogaika/ggpkassets/config"
	"github.com/mogaika/ggpkassets/datc64"
	"github.com/mogaika/ggpkassets/pipeline"
	"github.com/mogaika/ggpkassets/progress"
	"github.com/mogaika/ggpkassets/vfs"
)

// previewCacheCapacity is the "small LRU cap of 100 entries" the
// backend query surface's file-preview endpoint keeps for decoded
// DDS textures.
const previewCacheCapacity = 100

// App bundles every piece of state the HTTP handlers need.
type App struct {
	Config     *config.Config
	Catalogue  *Catalogue
	Registry   *progress.Registry
	BundleTool *bundle.Tool
	Converter  *pipeline.Converter

	schema     *datc64.Schema
	previewLRU *previewCache
	ggpkInfo   *bundle.ListResult
}

// NewApp wires a ready-to-serve App from cfg. GGPK enumeration and
// schema loading are best-effort: a failure there is reported through
// status rather than failing startup.
func NewApp(cfg *config.Config) *App {
	app := &App{
		Config:     cfg,
		Catalogue:  NewCatalogue(),
		Registry:   progress.NewRegistry(),
		BundleTool: bundle.NewTool(cfg.Tools.Libggpk3),
		Converter: &pipeline.Converter{
			BinaryPath: cfg.Tools.Ooz,
			Format:     cfg.Conversion.Dds.Format,
			Quality:    cfg.Conversion.Dds.Quality,
		},
		previewLRU: newPreviewCache(previewCacheCapacity),
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err == nil {
		_ = app.Catalogue.Rebuild(vfs.NewDirectoryDriver(cfg.OutputDir))
	}

	if info, err := app.BundleTool.ListFiles(context.Background(), cfg.Poe2Path); err == nil {
		app.ggpkInfo = &info
	}

	if schema, err := datc64.LoadSchema(cfg.SchemaPath); err == nil {
		app.schema = schema
	}

	return app
}

func (a *App) schemaInfo() (exists bool, createdAt int64, tableCount int, version int) {
	if a.schema == nil {
		return false, 0, 0, 0
	}
	return true, a.schema.CreatedAt, len(a.schema.Tables), a.schema.Version
}

func (a *App) rebuildIndex() error {
	return a.Catalogue.Rebuild(vfs.NewDirectoryDriver(a.Config.OutputDir))
}

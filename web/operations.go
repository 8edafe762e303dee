package web

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/mogaika/ggpkassets/config"
	"github.com/mogaika/ggpkassets/datc64"
	"github.com/mogaika/ggpkassets/pipeline"
	"github.com/mogaika/ggpkassets/webutils"
)

type extractRequest struct {
	Preset           string `json:"preset"`
	Pattern          string `json:"pattern"`
	ExcludeLanguages bool   `json:"excludeLanguages"`
	ConvertImages    bool   `json:"convertImages"`
}

// HandleExtract starts an extraction pipeline run as a tracked
// background operation and returns immediately with its id; progress
// and completion are polled via HandleOperation or pushed over the
// websocket broadcast.
func (a *App) HandleExtract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		webutils.WriteErrorStatus(w, err, http.StatusBadRequest)
		return
	}

	pattern := req.Pattern
	if pattern == "" {
		pattern = pipeline.Presets[req.Preset]
	}
	if pattern == "" {
		pattern = pipeline.Presets["all"]
	}

	op := a.Registry.Start("extract")

	go func() {
		opts := pipeline.Options{
			Pattern:          pattern,
			ExcludeLanguages: req.ExcludeLanguages,
			ConvertImages:    req.ConvertImages,
			SchemaPath:       a.Config.SchemaPath,
			ProductBit:       config.GetProduct().Index(),
		}

		var lastEmit float32
		metrics, err := pipeline.Run(context.Background(), a.BundleTool, a.Converter, a.Config.Poe2Path, a.Config.OutputDir, opts, func(path string) {
			lastEmit += 0.001
			if lastEmit > 0.99 {
				lastEmit = 0.99
			}
			op.SetProgress(lastEmit)
		})
		if err != nil {
			op.Fail(err)
			return
		}

		_ = a.rebuildIndex()
		_ = metrics
		op.Complete()
	}()

	webutils.WriteJson(w, map[string]string{"operationId": op.ID()})
}

// HandleOperation reports the current state of a tracked operation by id.
func (a *App) HandleOperation(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	op, ok := a.Registry.Get(id)
	if !ok {
		webutils.WriteErrorStatus(w, errUnknownOperation, http.StatusNotFound)
		return
	}
	webutils.WriteJson(w, op.View())
}

type exportJSONRequest struct {
	Path string `json:"path"`
}

// HandleExportJSON decodes a single table file already on disk to a
// sibling .json file and rebuilds the catalogue.
func (a *App) HandleExportJSON(w http.ResponseWriter, r *http.Request) {
	var req exportJSONRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		webutils.WriteErrorStatus(w, err, http.StatusBadRequest)
		return
	}

	full, err := a.resolveOutputPath(req.Path)
	if err != nil {
		webutils.WriteErrorStatus(w, err, http.StatusBadRequest)
		return
	}

	if a.schema == nil {
		webutils.WriteErrorStatus(w, errNoSchema, http.StatusServiceUnavailable)
		return
	}

	data, err := os.ReadFile(full)
	if err != nil {
		webutils.WriteErrorStatus(w, err, http.StatusNotFound)
		return
	}

	tableName := datc64.TableNameFromFile(filepath.Base(full))
	def, ok := a.schema.Lookup(tableName, config.GetProduct().Index())
	if !ok {
		webutils.WriteErrorStatus(w, errNoTableSchema, http.StatusNotFound)
		return
	}

	table, err := datc64.DecodeBuffer(data, def)
	if err != nil {
		webutils.WriteErrorStatus(w, err, http.StatusInternalServerError)
		return
	}

	jsonPath := full[:len(full)-len(filepath.Ext(full))] + ".json"
	out, err := os.Create(jsonPath)
	if err != nil {
		webutils.WriteErrorStatus(w, err, http.StatusInternalServerError)
		return
	}
	defer out.Close()

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(table); err != nil {
		webutils.WriteErrorStatus(w, err, http.StatusInternalServerError)
		return
	}

	_ = a.rebuildIndex()
	webutils.WriteJson(w, map[string]string{"written": jsonPath})
}

var (
	errUnknownOperation = errors.New("web: unknown operation id")
	errNoSchema         = errors.New("web: no schema loaded")
	errNoTableSchema    = errors.New("web: no schema entry for this table")
)

package web

import (
	"context"
	"encoding/hex"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/mogaika/ggpkassets/config"
	"github.com/mogaika/ggpkassets/datc64"
	"github.com/mogaika/ggpkassets/webutils"
)

const hexPreviewBytes = 512

var errMissingPath = errors.New("web: path is required")

var mimeByExt = map[string]string{
	".png":  "image/png",
	".webp": "image/webp",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".mp3":  "audio/mpeg",
	".json": "application/json",
	".txt":  "text/plain; charset=utf-8",
}

type tablePreview struct {
	Table *datc64.Table `json:"table"`
}

type hexPreview struct {
	Path       string `json:"path"`
	Size       int64  `json:"size"`
	Truncated  bool   `json:"truncated"`
	HexPreview string `json:"hexPreview"`
}

// HandleFile serves a single file under the output directory at
// ?path=. Known table formats (.datc64/.dat) are decoded to JSON when
// a schema is loaded, falling back to a truncated hex dump; .dds
// textures are transcoded through the converter and cached.
func (a *App) HandleFile(w http.ResponseWriter, r *http.Request) {
	rel := r.URL.Query().Get("path")
	if rel == "" {
		webutils.WriteErrorStatus(w, errMissingPath, http.StatusBadRequest)
		return
	}

	full, err := a.resolveOutputPath(rel)
	if err != nil {
		webutils.WriteErrorStatus(w, err, http.StatusBadRequest)
		return
	}

	ext := strings.ToLower(filepath.Ext(full))
	switch ext {
	case ".dds":
		a.serveDDS(w, rel, full)
	case ".datc64", ".dat":
		a.serveTable(w, full)
	default:
		a.servePlain(w, full, ext)
	}
}

// resolveOutputPath joins rel onto the configured output directory
// and rejects any result that escapes it.
func (a *App) resolveOutputPath(rel string) (string, error) {
	full := filepath.Join(a.Config.OutputDir, filepath.Clean("/"+rel))
	root, err := filepath.Abs(a.Config.OutputDir)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(full)
	if err != nil {
		return "", err
	}
	if abs != root && !strings.HasPrefix(abs, root+string(filepath.Separator)) {
		return "", errors.Errorf("web: path %q escapes output directory", rel)
	}
	return abs, nil
}

func (a *App) servePlain(w http.ResponseWriter, full, ext string) {
	f, err := os.Open(full)
	if err != nil {
		webutils.WriteErrorStatus(w, err, http.StatusNotFound)
		return
	}
	defer f.Close()

	if mime, ok := mimeByExt[ext]; ok {
		w.Header().Set("Content-Type", mime)
		io.Copy(w, f)
		return
	}

	webutils.WriteFile(w, f, filepath.Base(full))
}

func (a *App) serveDDS(w http.ResponseWriter, rel, full string) {
	if cached, ok := a.previewLRU.Get(rel); ok {
		w.Header().Set("Content-Type", mimeByExt["."+a.Converter.OutputExt()])
		w.Write(cached)
		return
	}

	dst := full + ".preview." + a.Converter.OutputExt()
	defer os.Remove(dst)

	if err := a.Converter.Convert(context.Background(), full, dst); err != nil {
		webutils.WriteErrorStatus(w, err, http.StatusInternalServerError)
		return
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		webutils.WriteErrorStatus(w, err, http.StatusInternalServerError)
		return
	}

	a.previewLRU.Add(rel, data)
	w.Header().Set("Content-Type", mimeByExt["."+a.Converter.OutputExt()])
	w.Write(data)
}

func (a *App) serveTable(w http.ResponseWriter, full string) {
	data, err := os.ReadFile(full)
	if err != nil {
		webutils.WriteErrorStatus(w, err, http.StatusNotFound)
		return
	}

	if a.schema != nil {
		tableName := datc64.TableNameFromFile(filepath.Base(full))
		if def, ok := a.schema.Lookup(tableName, config.GetProduct().Index()); ok {
			if table, err := datc64.DecodeBuffer(data, def); err == nil {
				webutils.WriteJson(w, tablePreview{Table: table})
				return
			}
		}
	}

	n := len(data)
	truncated := n > hexPreviewBytes
	if truncated {
		n = hexPreviewBytes
	}
	webutils.WriteJson(w, hexPreview{
		Path:       full,
		Size:       int64(len(data)),
		Truncated:  truncated,
		HexPreview: hex.EncodeToString(data[:n]),
	})
}

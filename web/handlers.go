package web

import (
	"net/http"
	"strconv"

	"github.com/mogaika/ggpkassets/pipeline"
	"github.com/mogaika/ggpkassets/webutils"
)

type statusResponse struct {
	Config struct {
		Poe2Path string `json:"poe2Path"`
	} `json:"config"`
	Ggpk      interface{} `json:"ggpk,omitempty"`
	Extracted struct {
		FileCount int `json:"fileCount"`
	} `json:"extracted"`
	IndexTimestamp int64 `json:"indexTimestamp"`
	Schema         struct {
		Exists     bool  `json:"exists"`
		CreatedAt  int64 `json:"createdAt"`
		TableCount int   `json:"tableCount"`
		Version    int   `json:"version"`
	} `json:"schema"`
}

type ggpkStatus struct {
	BundleCount int `json:"bundleCount"`
	FileCount   int `json:"fileCount"`
}

// HandleStatus reports the current configuration, archive summary,
// catalogue size and schema metadata in a single snapshot.
func (a *App) HandleStatus(w http.ResponseWriter, r *http.Request) {
	var resp statusResponse
	resp.Config.Poe2Path = a.Config.Poe2Path
	if a.ggpkInfo != nil {
		resp.Ggpk = ggpkStatus{BundleCount: a.ggpkInfo.BundleCount, FileCount: a.ggpkInfo.FileCount}
	}
	resp.Extracted.FileCount = a.Catalogue.FileCount()
	_, _, builtAt := a.Catalogue.Snapshot()
	resp.IndexTimestamp = builtAt.Unix()

	exists, createdAt, tableCount, version := a.schemaInfo()
	resp.Schema.Exists = exists
	resp.Schema.CreatedAt = createdAt
	resp.Schema.TableCount = tableCount
	resp.Schema.Version = version

	webutils.WriteJson(w, resp)
}

// HandleRebuildIndex rescans the output directory and replaces the
// in-memory catalogue.
func (a *App) HandleRebuildIndex(w http.ResponseWriter, r *http.Request) {
	if err := a.rebuildIndex(); err != nil {
		webutils.WriteErrorStatus(w, err, http.StatusInternalServerError)
		return
	}
	webutils.WriteJson(w, map[string]int{"fileCount": a.Catalogue.FileCount()})
}

type browseResponse struct {
	Folder     string      `json:"folder"`
	Files      []FileEntry `json:"files"`
	Subfolders []string    `json:"subfolders"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	PerPage    int         `json:"perPage"`
	HasMore    bool        `json:"hasMore"`
}

// HandleBrowse lists the direct children of ?folder=, optionally
// filtered by ?type= and paginated via ?page=/?perPage=.
func (a *App) HandleBrowse(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	folder := q.Get("folder")
	page := atoiOr(q.Get("page"), 0)
	perPage := atoiOr(q.Get("perPage"), 100)

	files, subfolders, total := a.Catalogue.Browse(folder, q.Get("type"), page, perPage)
	webutils.WriteJson(w, browseResponse{
		Folder:     folder,
		Files:      files,
		Subfolders: subfolders,
		Total:      total,
		Page:       page,
		PerPage:    perPage,
		HasMore:    (page+1)*perPage < total,
	})
}

// HandleSearch performs a substring search over name and folder via
// ?q=, optionally filtered by ?type= and bounded by ?limit=.
func (a *App) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := atoiOr(q.Get("limit"), 50)
	results := a.Catalogue.Search(q.Get("q"), q.Get("type"), limit)
	webutils.WriteJson(w, map[string]interface{}{"results": results})
}

// HandleFolders returns the full folder tree with per-node file counts.
func (a *App) HandleFolders(w http.ResponseWriter, r *http.Request) {
	webutils.WriteJson(w, a.Catalogue.Folders())
}

// HandleCleanup sweeps the output directory for source files whose
// derived artifact already exists and removes them.
func (a *App) HandleCleanup(w http.ResponseWriter, r *http.Request) {
	removed, err := pipeline.Cleanup(a.Config.OutputDir)
	if err != nil {
		webutils.WriteErrorStatus(w, err, http.StatusInternalServerError)
		return
	}
	webutils.WriteJson(w, map[string]int{"removed": removed})
}

func atoiOr(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

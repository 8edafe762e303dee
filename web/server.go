package web

import (
	"log"
	"net/http"
	"os"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/mogaika/ggpkassets/progress"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleWS upgrades the connection and registers it to receive every
// subsequent operation progress broadcast.
func handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[web] ws upgrade failed: %v", err)
		return
	}
	progress.NewClient(conn)
}

// StartServer builds the router for app and serves it at addr, with
// webPath/data as the static asset root for everything not matched by
// an API route.
func StartServer(addr string, app *App, webPath string) error {
	r := mux.NewRouter()

	r.HandleFunc("/api/status", app.HandleStatus).Methods("GET")
	r.HandleFunc("/api/index/rebuild", app.HandleRebuildIndex).Methods("POST")
	r.HandleFunc("/api/browse", app.HandleBrowse).Methods("GET")
	r.HandleFunc("/api/search", app.HandleSearch).Methods("GET")
	r.HandleFunc("/api/folders", app.HandleFolders).Methods("GET")
	r.HandleFunc("/api/cleanup", app.HandleCleanup).Methods("POST")
	r.HandleFunc("/api/file", app.HandleFile).Methods("GET")
	r.HandleFunc("/api/extract", app.HandleExtract).Methods("POST")
	r.HandleFunc("/api/operation/{id}", app.HandleOperation).Methods("GET")
	r.HandleFunc("/api/export-json", app.HandleExportJSON).Methods("POST")
	r.HandleFunc("/ws", handleWS)

	r.PathPrefix("/").Handler(http.FileServer(http.Dir(webPath + "/data")))

	h := handlers.LoggingHandler(os.Stdout, r)
	h = handlers.RecoveryHandler()(h)

	log.Printf("[web] starting server %v", addr)
	return http.ListenAndServe(addr, h)
}

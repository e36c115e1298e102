// Package site serves the embedded single-page client.
package site

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

// Error constants
var (
	ErrServe = errors.New("site serve failed")
)

const indexFile = "index.html"

// Register attaches the embedded client to mux at "/".
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.Handle("/", NewRootHandler(FS()))
}

// RootHandler serves static files and falls back to index.html for
// extension-less paths so client-side routes survive a reload.
type RootHandler struct {
	fsys  fs.FS
	files http.Handler
}

// NewRootHandler creates a handler over fsys.
func NewRootHandler(fsys fs.FS) *RootHandler {
	return &RootHandler{fsys: fsys, files: http.FileServerFS(fsys)}
}

// ServeHTTP handles GET / and every path no other route claimed.
func (h *RootHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
	if name == "" || name == indexFile {
		h.serveIndex(w, r)
		return
	}

	if info, err := fs.Stat(h.fsys, name); err == nil && !info.IsDir() {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		h.files.ServeHTTP(w, r)
		return
	}

	if path.Ext(name) == "" {
		h.serveIndex(w, r)
		return
	}
	http.NotFound(w, r)
}

func (h *RootHandler) serveIndex(w http.ResponseWriter, r *http.Request) {
	body, err := fs.ReadFile(h.fsys, indexFile)
	if err != nil {
		http.Error(w, ErrServe.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(body)
}

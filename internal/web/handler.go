// Package web serves the pre-built frontend bundle.
package web

import (
	"io/fs"
	"net/http"
	"path"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type Handler struct {
	fs      fs.FS
	handler http.Handler
}

// NewHandler serves files from fsys. A nil fsys answers every request with 404.
func NewHandler(fsys fs.FS) *Handler {
	h := &Handler{fs: fsys}
	if fsys != nil {
		h.handler = http.FileServerFS(indexOnlyFS{fsys})
	}
	return h
}

// RegisterRoutes mounts the bundle as the catch-all GET route. Explicit routes
// registered on the same router always take precedence.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/*", h.ServeHTTP)
	r.Head("/*", h.ServeHTTP)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.handler == nil {
		http.NotFound(w, r)
		return
	}
	h.handler.ServeHTTP(w, r)
}

// ServeFallback serves the bundle for GET and HEAD and answers 404 to every other method.
func (h *Handler) ServeFallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.NotFound(w, r)
		return
	}
	h.ServeHTTP(w, r)
}

// indexOnlyFS hides directories that have no index.html so the file server
// returns 404 for them instead of a listing.
type indexOnlyFS struct {
	fs.FS
}

func (f indexOnlyFS) Open(name string) (fs.File, error) {
	file, err := f.FS.Open(name)
	if err != nil {
		return nil, err
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if !info.IsDir() {
		return file, nil
	}

	index, err := f.FS.Open(path.Join(name, "index.html"))
	if err != nil {
		file.Close()
		log.Trace().Str("dir", name).Msg("refusing to list directory without index.html")
		return nil, fs.ErrNotExist
	}
	index.Close()

	return file, nil
}

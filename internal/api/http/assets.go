package http

import (
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/examhall/examhall/internal/rbac"
	"github.com/examhall/examhall/internal/storage"
)

// MountAssets serves section media. Teachers upload listening audio keyed by
// section; students stream it during the listening section.
func MountAssets(r chi.Router, bs storage.BlobStore) {
	// POST /assets/audio/{sectionID}
	r.With(rbac.Require("assets:upload")).Post("/audio/{sectionID}", func(w http.ResponseWriter, r *http.Request) {
		sectionID := chi.URLParam(r, "sectionID")
		f, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "file required", http.StatusBadRequest)
			return
		}
		defer f.Close()

		ext := filepath.Ext(hdr.Filename)
		if ext == "" {
			ext = ".mp3"
		}
		key := "audio/" + sectionID + ext
		if _, err := bs.Put(key, f); err != nil {
			http.Error(w, "store error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]string{"key": key})
	})

	// GET /assets/*  -> streams the blob at whatever follows /assets/
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
		rc, err := bs.Get(key)
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		defer rc.Close()

		ct := mime.TypeByExtension(filepath.Ext(key))
		if ct == "" {
			ct = "application/octet-stream"
		}
		w.Header().Set("Content-Type", ct)
		_, _ = io.Copy(w, rc)
	})
}

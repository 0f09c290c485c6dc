package http

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
)

const docsNotFound = "Documento no encontrado"

// handleDocs serves a Markdown file from the docs directory as plain text,
// or rendered to HTML with ?format=html. Names that leave the directory
// are not found.
func (s *Server) handleDocs(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")
	if s.opts.Docs == nil || name == "" || strings.Contains(name, "\\") || !fs.ValidPath(name) || path.Clean(name) != name {
		http.Error(w, docsNotFound, http.StatusNotFound)
		return
	}

	src, err := fs.ReadFile(s.opts.Docs, name)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) && !errors.Is(err, fs.ErrInvalid) {
			slog.ErrorContext(r.Context(), "Failed to read document", "file", name, "error", err)
		}
		http.Error(w, docsNotFound, http.StatusNotFound)
		return
	}

	if r.URL.Query().Get("format") != "html" {
		writeRaw(w, http.StatusOK, "text/plain; charset=utf-8", src)
		return
	}

	html, err := s.renderDoc(name, src)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to render document", "file", name, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeRaw(w, http.StatusOK, "text/html; charset=utf-8", html)
}

// renderDoc converts src to HTML. Results are cached by name and content
// so an edited file is rendered again.
func (s *Server) renderDoc(name string, src []byte) ([]byte, error) {
	key := fmt.Sprintf("%s:%x", name, sha256.Sum256(src))
	if html, ok := s.docs.Get(key); ok {
		return html, nil
	}
	var buf bytes.Buffer
	if err := s.md.Convert(src, &buf); err != nil {
		return nil, err
	}
	html := buf.Bytes()
	s.docs.Set(key, html)
	return html, nil
}

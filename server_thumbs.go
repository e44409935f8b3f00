package main

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"galleryserver/internal/api"
	"galleryserver/internal/thumbs"

	"github.com/go-chi/chi/v5"
)

func (s *server) getThumbnail(w http.ResponseWriter, r *http.Request) {
	size, ok := thumbs.ParseSize(chi.URLParam(r, "size"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	name := chi.URLParam(r, "filename")
	if name == "" {
		http.NotFound(w, r)
		return
	}

	t, err := s.thumbs.Get(r.Context(), size, name)
	if err != nil {
		switch {
		case errors.Is(err, api.ErrNotFound):
			http.NotFound(w, r)
		case errors.Is(err, api.ErrUnauthorized):
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		case errors.Is(err, thumbs.ErrTooLarge):
			http.Error(w, http.StatusText(http.StatusRequestEntityTooLarge), http.StatusRequestEntityTooLarge)
		default:
			slog.Error("rendering thumbnail", "size", size, "name", name, "error", err)
			http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		}
		return
	}

	w.Header().Set("Content-Type", t.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(t.Data)))
	w.Header().Set("Cache-Control", "max-age=86400")
	w.WriteHeader(http.StatusOK)
	w.Write(t.Data)
}

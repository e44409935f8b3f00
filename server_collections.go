package main

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"galleryserver/internal/model"
)

const maxCollectionNameLength = 255

func (s *server) getCollections(w http.ResponseWriter, r *http.Request) {
	collections, err := s.listCollections(r.Context())
	if err != nil {
		s.renderError(w, r, loadStatus(err), err)
		return
	}

	s.renderPage(w, r, http.StatusOK, "collections.html", map[string]any{
		"Title":       "Collections",
		"Collections": collections,
	})
}

func (s *server) postNewCollection(w http.ResponseWriter, r *http.Request) {
	name, msg := parseCollectionForm(r)
	if msg != "" {
		s.renderCollectionsError(w, r, name, msg)
		return
	}

	_, err := s.api.CreateCollection(r.Context(), name)
	if err != nil {
		redirectWithFlash(w, r, "/collections", mutationMessage("create collection", err))
		return
	}
	s.albumsChanged()

	redirectWithFlash(w, r, "/collections", "Collection created.")
}

func (s *server) postCollection(w http.ResponseWriter, r *http.Request) {
	id, err := extractID(r)
	if err != nil {
		s.renderError(w, r, http.StatusNotFound, err)
		return
	}

	name, msg := parseCollectionForm(r)
	if msg != "" {
		s.renderCollectionsError(w, r, "", msg)
		return
	}

	_, err = s.api.UpdateCollection(r.Context(), model.Collection{ID: id, Name: name})
	if err != nil {
		redirectWithFlash(w, r, "/collections", mutationMessage("rename collection", err))
		return
	}
	s.albumsChanged()

	redirectWithFlash(w, r, "/collections", "Collection renamed.")
}

func (s *server) postDeleteCollection(w http.ResponseWriter, r *http.Request) {
	id, err := extractID(r)
	if err != nil {
		s.renderError(w, r, http.StatusNotFound, err)
		return
	}

	err = s.api.DeleteCollection(r.Context(), id)
	if err != nil {
		redirectWithFlash(w, r, "/collections", mutationMessage("delete collection", err))
		return
	}
	s.albumsChanged()

	redirectWithFlash(w, r, "/collections", "Collection deleted.")
}

func (s *server) renderCollectionsError(w http.ResponseWriter, r *http.Request, name, msg string) {
	collections, err := s.listCollections(r.Context())
	if err != nil {
		s.renderError(w, r, loadStatus(err), err)
		return
	}

	s.renderPage(w, r, http.StatusBadRequest, "collections.html", map[string]any{
		"Title":       "Collections",
		"Collections": collections,
		"Name":        name,
		"Error":       msg,
	})
}

func parseCollectionForm(r *http.Request) (string, string) {
	if err := r.ParseForm(); err != nil {
		return "", "The form could not be read."
	}

	name := strings.TrimSpace(r.PostForm.Get("name"))
	switch {
	case name == "":
		return name, "Collection name is required."
	case utf8.RuneCountInString(name) > maxCollectionNameLength:
		return name, "Collection name is too long."
	}
	return name, ""
}

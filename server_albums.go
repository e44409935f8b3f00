package main

import (
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"galleryserver/internal/api"
	"galleryserver/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const maxAlbumTitleLength = 255

var errInvalidID = errors.New("invalid id")

func (s *server) getAlbums(w http.ResponseWriter, r *http.Request) {
	var (
		albums      []model.Album
		collections []model.Collection
	)

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		albums, err = s.listAlbums(ctx)
		return err
	})
	g.Go(func() (err error) {
		collections, err = s.listCollections(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		s.renderError(w, r, loadStatus(err), err)
		return
	}

	s.renderPage(w, r, http.StatusOK, "albums.html", map[string]any{
		"Title":       "Albums",
		"Groups":      groupAlbums(albums),
		"Collections": collections,
	})
}

func (s *server) getNewAlbum(w http.ResponseWriter, r *http.Request) {
	collections, err := s.listCollections(r.Context())
	if err != nil {
		s.renderError(w, r, loadStatus(err), err)
		return
	}

	s.renderPage(w, r, http.StatusOK, "album-new.html", map[string]any{
		"Title":       "New Album",
		"Form":        model.Album{},
		"Collections": collections,
	})
}

func (s *server) postNewAlbum(w http.ResponseWriter, r *http.Request) {
	album, msg := parseAlbumForm(r)
	if msg != "" {
		collections, err := s.listCollections(r.Context())
		if err != nil {
			s.renderError(w, r, loadStatus(err), err)
			return
		}
		s.renderPage(w, r, http.StatusBadRequest, "album-new.html", map[string]any{
			"Title":       "New Album",
			"Form":        album,
			"Collections": collections,
			"Error":       msg,
		})
		return
	}

	created, err := s.api.CreateAlbum(r.Context(), album)
	if err != nil {
		redirectWithFlash(w, r, "/albums/new", mutationMessage("create album", err))
		return
	}
	s.albumsChanged()

	target := "/albums"
	if created.ID != "" {
		target = "/albums/" + created.ID
	}
	redirectWithFlash(w, r, target, "Album created.")
}

func (s *server) getAlbum(w http.ResponseWriter, r *http.Request) {
	s.renderAlbum(w, r, http.StatusOK, false, nil, "")
}

func (s *server) getEditAlbum(w http.ResponseWriter, r *http.Request) {
	s.renderAlbum(w, r, http.StatusOK, true, nil, "")
}

// renderAlbum renders the album page. When editing, form overrides the stored
// album in the edit form.
func (s *server) renderAlbum(w http.ResponseWriter, r *http.Request, code int, editing bool, form *model.Album, msg string) {
	id, err := extractID(r)
	if err != nil {
		s.renderError(w, r, http.StatusNotFound, err)
		return
	}

	var (
		album       *model.AlbumWithImages
		collections []model.Collection
	)

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		album, err = s.album(ctx, id)
		return err
	})
	if editing {
		g.Go(func() (err error) {
			collections, err = s.listCollections(ctx)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		s.renderError(w, r, loadStatus(err), err)
		return
	}

	if form == nil {
		form = &album.Album
	}

	s.renderPage(w, r, code, "album.html", map[string]any{
		"Title":       album.Title,
		"Album":       album,
		"Editing":     editing,
		"Form":        form,
		"Collections": collections,
		"Grid":        photoGrid{Images: album.Images},
		"Error":       msg,
	})
}

func (s *server) postAlbum(w http.ResponseWriter, r *http.Request) {
	id, err := extractID(r)
	if err != nil {
		s.renderError(w, r, http.StatusNotFound, err)
		return
	}

	album, msg := parseAlbumForm(r)
	album.ID = id
	if msg != "" {
		s.renderAlbum(w, r, http.StatusBadRequest, true, &album, msg)
		return
	}

	_, err = s.api.UpdateAlbum(r.Context(), album)
	if err != nil {
		redirectWithFlash(w, r, "/albums/"+id+"/edit", mutationMessage("update album", err))
		return
	}
	s.albumsChanged()

	redirectWithFlash(w, r, "/albums/"+id, "Album updated!")
}

func (s *server) postDeleteAlbum(w http.ResponseWriter, r *http.Request) {
	id, err := extractID(r)
	if err != nil {
		s.renderError(w, r, http.StatusNotFound, err)
		return
	}

	err = s.api.DeleteAlbum(r.Context(), id)
	if err != nil {
		target := "/albums/" + id
		if errors.Is(err, api.ErrNotFound) {
			target = "/albums"
		}
		redirectWithFlash(w, r, target, mutationMessage("delete album", err))
		return
	}
	s.albumsChanged()

	redirectWithFlash(w, r, "/albums", "Album deleted.")
}

// parseAlbumForm reads an album form. A non-empty message reports the first
// validation failure.
func parseAlbumForm(r *http.Request) (model.Album, string) {
	if err := r.ParseForm(); err != nil {
		return model.Album{}, "The form could not be read."
	}

	album := model.Album{
		Title:        strings.TrimSpace(r.PostForm.Get("title")),
		Description:  strings.TrimSpace(r.PostForm.Get("description")),
		CollectionID: strings.TrimSpace(r.PostForm.Get("collection_id")),
	}

	switch {
	case album.Title == "":
		return album, "Title is required."
	case utf8.RuneCountInString(album.Title) > maxAlbumTitleLength:
		return album, "Title is too long."
	case album.CollectionID == "":
		return album, "Please choose a collection."
	case uuid.Validate(album.CollectionID) != nil:
		return album, "Please choose a valid collection."
	}
	return album, ""
}

// extractID returns the id route parameter when it is a well-formed UUID.
func extractID(r *http.Request) (string, error) {
	return uuidParam(r, "id")
}

func uuidParam(r *http.Request, name string) (string, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", errInvalidID
	}
	return id.String(), nil
}

package main

import (
	"errors"
	"net/http"

	"galleryserver/internal/api"
	"galleryserver/internal/model"
	"galleryserver/internal/search"

	"golang.org/x/sync/errgroup"
)

func (s *server) getHome(w http.ResponseWriter, r *http.Request) {
	query := search.Normalize(r.URL.Query().Get("q"))

	var (
		home    *model.Home
		results []model.Image
	)

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		home, err = s.home(ctx)
		return err
	})
	if search.Effective(query) {
		g.Go(func() (err error) {
			results, err = s.search(ctx, query)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		s.renderError(w, r, loadStatus(err), err)
		return
	}

	s.renderPage(w, r, http.StatusOK, "home.html", map[string]any{
		"Title":  "Home",
		"Groups": groupAlbums(home.Albums),
		"Grid":   newPhotoGrid(query, home.Images, results),
		"Search": true,
	})
}

// loadStatus maps a failed backend read to the status of its error page.
func loadStatus(err error) int {
	switch {
	case errors.Is(err, api.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, api.ErrUnauthorized):
		return http.StatusForbidden
	}

	var statusErr *api.StatusError
	if errors.As(err, &statusErr) && statusErr.Code == http.StatusUnprocessableEntity {
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}

// mutationMessage is the flash message of a failed backend write.
func mutationMessage(action string, err error) string {
	var statusErr *api.StatusError
	if errors.As(err, &statusErr) && statusErr.Detail != "" {
		return "Failed to " + action + ": " + statusErr.Detail
	}
	return "Failed to " + action + ". Please try again."
}

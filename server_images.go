package main

import (
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"galleryserver/internal/api"
	"galleryserver/internal/model"
	"galleryserver/internal/session"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	maxLicenseLength     = 100
	maxAttributionLength = 255
	uploadMemory         = 8 << 20
)

func (s *server) getUpload(w http.ResponseWriter, r *http.Request) {
	s.renderUpload(w, r, http.StatusOK, uploadForm{Privacy: model.PrivacyPublic}, "")
}

func (s *server) renderUpload(w http.ResponseWriter, r *http.Request, code int, form uploadForm, msg string) {
	albums, err := s.listAlbums(r.Context())

	s.renderPage(w, r, code, "upload.html", map[string]any{
		"Title":       "Add a Photo",
		"Form":        form,
		"Albums":      albums,
		"AlbumsError": err != nil,
		"Error":       msg,
	})
}

func (s *server) postUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+1<<20)

	err := r.ParseMultipartForm(uploadMemory)
	if err != nil {
		var maxErr *http.MaxBytesError
		msg := "The upload could not be read."
		if errors.As(err, &maxErr) {
			msg = "The image is larger than 32 MiB."
		}
		s.renderUpload(w, r, http.StatusBadRequest, uploadForm{Privacy: model.PrivacyPublic}, msg)
		return
	}
	defer r.MultipartForm.RemoveAll()

	form, meta, msg := parseUploadForm(r.MultipartForm)
	if msg != "" {
		s.renderUpload(w, r, http.StatusBadRequest, form, msg)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.renderUpload(w, r, http.StatusBadRequest, form, "Please select an image file.")
		return
	}
	defer file.Close()

	if !strings.HasPrefix(header.Header.Get("Content-Type"), "image/") {
		s.renderUpload(w, r, http.StatusBadRequest, form, "Please select an image file.")
		return
	}
	if header.Size > maxUploadSize {
		s.renderUpload(w, r, http.StatusBadRequest, form, "The image is larger than 32 MiB.")
		return
	}

	meta.Filename = header.Filename
	meta.Timestamp = time.Now()

	img, err := s.api.CreateImage(r.Context(), meta, file)
	if err != nil {
		slog.Warn("upload failed", "filename", header.Filename, "error", err)
		s.renderUpload(w, r, http.StatusBadGateway, form, mutationMessage("upload image", err))
		return
	}
	s.imagesChanged()

	slog.Info("uploaded image", "id", img.ID, "filename", header.Filename)
	redirectWithFlash(w, r, "/add", "Upload successful!")
}

// parseUploadForm validates the text fields of an upload. A non-empty message
// reports the first validation failure.
func parseUploadForm(mf *multipart.Form) (uploadForm, model.NewImage, string) {
	value := func(name string) string {
		if v := mf.Value[name]; len(v) > 0 {
			return strings.TrimSpace(v[0])
		}
		return ""
	}

	form := uploadForm{
		Title:       value("title"),
		Caption:     value("caption"),
		AltText:     value("alt_text"),
		License:     value("license"),
		Attribution: value("attribution"),
		Privacy:     value("privacy"),
		AlbumIDs:    map[string]bool{},
	}
	if form.Privacy == "" {
		form.Privacy = model.PrivacyPublic
	}

	meta := model.NewImage{
		Title:       form.Title,
		Caption:     form.Caption,
		AltText:     form.AltText,
		License:     form.License,
		Attribution: form.Attribution,
		Privacy:     form.Privacy,
	}
	for _, id := range mf.Value["albums"] {
		if uuid.Validate(id) != nil {
			return form, meta, "Please choose valid albums."
		}
		if !form.AlbumIDs[id] {
			form.AlbumIDs[id] = true
			meta.AlbumIDs = append(meta.AlbumIDs, id)
		}
	}

	switch {
	case utf8.RuneCountInString(form.License) > maxLicenseLength:
		return form, meta, fmt.Sprintf("License must be at most %d characters.", maxLicenseLength)
	case utf8.RuneCountInString(form.Attribution) > maxAttributionLength:
		return form, meta, fmt.Sprintf("Attribution must be at most %d characters.", maxAttributionLength)
	case !model.ValidPrivacy(form.Privacy):
		return form, meta, "Please choose a privacy level."
	}
	return form, meta, ""
}

func (s *server) getImage(w http.ResponseWriter, r *http.Request) {
	s.renderImage(w, r, http.StatusOK, "", "")
}

// renderImage renders the lightbox. comment and msg refill the comment form
// after a failed validation.
func (s *server) renderImage(w http.ResponseWriter, r *http.Request, code int, comment, msg string) {
	id, err := extractID(r)
	if err != nil {
		s.renderError(w, r, http.StatusNotFound, err)
		return
	}

	var (
		img         *model.Image
		comments    []model.Comment
		commentsErr error
	)

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		img, err = s.image(ctx, id)
		return err
	})
	g.Go(func() error {
		comments, commentsErr = s.comments(ctx, id)
		return nil
	})
	if err := g.Wait(); err != nil {
		s.renderError(w, r, loadStatus(err), err)
		return
	}
	if commentsErr != nil {
		slog.Warn("loading comments", "image", id, "error", commentsErr)
	}

	title := img.Title
	if title == "" {
		title = "Image"
	}

	s.renderPage(w, r, code, "image.html", map[string]any{
		"Title":         title,
		"Image":         img,
		"Variants":      imageVariants(img),
		"Comments":      comments,
		"CommentsError": commentsErr != nil,
		"Comment":       comment,
		"CommentError":  msg,
		"MaxComment":    maxCommentLength,
	})
}

func (s *server) postLike(w http.ResponseWriter, r *http.Request) {
	id, err := extractID(r)
	if err != nil {
		s.renderError(w, r, http.StatusNotFound, err)
		return
	}

	if !session.FromContext(r.Context()).State().CanInteract() {
		if wantsJSON(r) {
			writeJSONError(w, http.StatusForbidden, "sign in to like images")
			return
		}
		s.renderError(w, r, http.StatusForbidden, errors.New("sign in required"))
		return
	}

	result, err := s.api.ToggleLike(r.Context(), id)
	if err != nil {
		slog.Warn("toggling like", "image", id, "error", err)
		if wantsJSON(r) {
			writeJSONError(w, loadStatus(err), "failed to toggle like")
			return
		}
		redirectWithFlash(w, r, "/image/"+id, mutationMessage("toggle like", err))
		return
	}
	s.imagesChanged()

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, result)
		return
	}
	http.Redirect(w, r, "/image/"+id, http.StatusSeeOther)
}

func (s *server) postDeleteImage(w http.ResponseWriter, r *http.Request) {
	id, err := extractID(r)
	if err != nil {
		s.renderError(w, r, http.StatusNotFound, err)
		return
	}

	img, err := s.image(r.Context(), id)
	if err != nil && !errors.Is(err, api.ErrNotFound) {
		slog.Warn("loading image before delete", "image", id, "error", err)
	}

	err = s.api.DeleteImage(r.Context(), id)
	if errors.Is(err, api.ErrNotFound) {
		s.imagesChanged()
		redirectWithFlash(w, r, "/", "That image no longer exists.")
		return
	}
	if err != nil {
		redirectWithFlash(w, r, "/image/"+id, "Failed to delete image. Please try again.")
		return
	}
	s.imagesChanged()

	if img != nil {
		for _, name := range []string{img.URL, img.SmallURL, img.MediumURL, img.LargeURL} {
			if name == "" {
				continue
			}
			if err := s.db.DeleteThumbnails(r.Context(), name); err != nil {
				slog.Warn("deleting thumbnails", "name", name, "error", err)
			}
		}
	}

	redirectWithFlash(w, r, "/", "Image deleted successfully!")
}

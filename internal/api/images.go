package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"galleryserver/internal/model"
)

// HomeImages returns the default image set and album list of the home page.
func (c *Client) HomeImages(ctx context.Context) (*model.Home, error) {
	var home model.Home
	if err := c.getJSON(ctx, "/images/home", nil, &home); err != nil {
		return nil, err
	}
	return &home, nil
}

func (c *Client) SearchImages(ctx context.Context, query string) ([]model.Image, error) {
	var images []model.Image
	if err := c.getJSON(ctx, "/images/search/", url.Values{"query": {query}}, &images); err != nil {
		return nil, err
	}
	return images, nil
}

// GetImage returns a single image. Unknown ids are reported as ErrNotFound.
func (c *Client) GetImage(ctx context.Context, id string) (*model.Image, error) {
	var image model.Image
	if err := c.getJSON(ctx, "/images/"+escape(id), nil, &image); err != nil {
		return nil, err
	}
	if image.ID == "" {
		return nil, fmt.Errorf("image %s: %w", id, ErrNotFound)
	}
	return &image, nil
}

// CreateImage uploads file as a multipart form along with its metadata.
func (c *Client) CreateImage(ctx context.Context, meta model.NewImage, file io.Reader) (*model.Image, error) {
	albums, err := json.Marshal(nonNil(meta.AlbumIDs))
	if err != nil {
		return nil, fmt.Errorf("encode albums: %w", err)
	}

	privacy := meta.Privacy
	if privacy == "" {
		privacy = model.PrivacyPublic
	}
	ts := meta.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeUpload(mw, meta, file, map[string]string{
			"privacy":   privacy,
			"timestamp": ts.UTC().Format(time.RFC3339),
			"albums":    string(albums),
		}))
	}()

	var image model.Image
	err = c.call(ctx, request{
		method:      http.MethodPost,
		path:        "/images/",
		body:        pr,
		contentType: mw.FormDataContentType(),
	}, &image)
	// Unblocks the writer if the request failed before draining the body.
	pr.Close()
	if err != nil {
		return nil, err
	}
	return &image, nil
}

func writeUpload(mw *multipart.Writer, meta model.NewImage, file io.Reader, fixed map[string]string) error {
	filename := meta.Filename
	if filename == "" {
		filename = "upload"
	}
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, file); err != nil {
		return err
	}

	optional := []struct{ name, value string }{
		{"title", meta.Title},
		{"caption", meta.Caption},
		{"alt_text", meta.AltText},
		{"license", meta.License},
		{"attribution", meta.Attribution},
	}
	for _, f := range optional {
		if f.value == "" {
			continue
		}
		if err := mw.WriteField(f.name, f.value); err != nil {
			return err
		}
	}
	for _, name := range []string{"privacy", "timestamp", "albums"} {
		if err := mw.WriteField(name, fixed[name]); err != nil {
			return err
		}
	}
	return mw.Close()
}

// DeleteImage removes an image. The backend acknowledges unknown ids with a
// 200 "not found" detail, which is reported as ErrNotFound.
func (c *Client) DeleteImage(ctx context.Context, id string) error {
	var reply struct {
		Detail string `json:"detail"`
	}
	if err := c.sendJSON(ctx, http.MethodDelete, "/images/"+escape(id), nil, &reply); err != nil {
		return err
	}
	if strings.Contains(strings.ToLower(reply.Detail), "not found") {
		return fmt.Errorf("image %s: %w", id, ErrNotFound)
	}
	return nil
}

func (c *Client) ToggleLike(ctx context.Context, id string) (*model.LikeResult, error) {
	var res model.LikeResult
	if err := c.sendJSON(ctx, http.MethodPost, "/images/"+escape(id)+"/like", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) ListComments(ctx context.Context, imageID string) ([]model.Comment, error) {
	var comments []model.Comment
	if err := c.getJSON(ctx, "/images/"+escape(imageID)+"/comments", nil, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

func (c *Client) AddComment(ctx context.Context, imageID, content string) (*model.Comment, error) {
	var comment model.Comment
	in := map[string]string{"content": content}
	if err := c.sendJSON(ctx, http.MethodPost, "/images/"+escape(imageID)+"/comments", in, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

func (c *Client) DeleteComment(ctx context.Context, imageID, commentID string) error {
	return c.sendJSON(ctx, http.MethodDelete, "/images/"+escape(imageID)+"/comments/"+escape(commentID), nil, nil)
}

// Download is an image body streamed from the backend. The caller closes it.
type Download struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

// DownloadImage streams a stored image.
func (c *Client) DownloadImage(ctx context.Context, name string) (*Download, error) {
	resp, err := c.send(ctx, request{method: http.MethodGet, path: "/images/download/" + escape(name)})
	if err != nil {
		return nil, err
	}
	return &Download{
		Body:        resp.Body,
		ContentType: resp.Header.Get("Content-Type"),
		Size:        resp.ContentLength,
	}, nil
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

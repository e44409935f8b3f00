package api

import (
	"context"
	"fmt"
	"net/http"

	"galleryserver/internal/model"
)

func (c *Client) ListAlbums(ctx context.Context) ([]model.Album, error) {
	var albums []model.Album
	if err := c.getJSON(ctx, "/albums/", nil, &albums); err != nil {
		return nil, err
	}
	return albums, nil
}

// GetAlbum returns an album with its images. The backend answers unknown ids
// with a 200 detail message, which is reported as ErrNotFound.
func (c *Client) GetAlbum(ctx context.Context, id string) (*model.AlbumWithImages, error) {
	var album model.AlbumWithImages
	if err := c.getJSON(ctx, "/albums/"+escape(id), nil, &album); err != nil {
		return nil, err
	}
	if album.ID == "" {
		return nil, fmt.Errorf("album %s: %w", id, ErrNotFound)
	}
	return &album, nil
}

func (c *Client) CreateAlbum(ctx context.Context, album model.Album) (*model.Album, error) {
	var created model.Album
	if err := c.sendJSON(ctx, http.MethodPost, "/albums/", album, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateAlbum(ctx context.Context, album model.Album) (*model.Album, error) {
	var updated model.Album
	if err := c.sendJSON(ctx, http.MethodPut, "/albums/"+escape(album.ID), album, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeleteAlbum(ctx context.Context, id string) error {
	return c.sendJSON(ctx, http.MethodDelete, "/albums/"+escape(id), nil, nil)
}

func (c *Client) ListCollections(ctx context.Context) ([]model.Collection, error) {
	var collections []model.Collection
	if err := c.getJSON(ctx, "/collections/", nil, &collections); err != nil {
		return nil, err
	}
	return collections, nil
}

func (c *Client) CreateCollection(ctx context.Context, name string) (*model.Collection, error) {
	var created model.Collection
	if err := c.sendJSON(ctx, http.MethodPost, "/collections/", model.Collection{Name: name}, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateCollection(ctx context.Context, collection model.Collection) (*model.Collection, error) {
	var updated model.Collection
	if err := c.sendJSON(ctx, http.MethodPut, "/collections/"+escape(collection.ID), collection, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeleteCollection(ctx context.Context, id string) error {
	return c.sendJSON(ctx, http.MethodDelete, "/collections/"+escape(id), nil, nil)
}

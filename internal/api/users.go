package api

import (
	"context"
	"net/http"

	"galleryserver/internal/model"
)

func (c *Client) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := c.getJSON(ctx, "/users/", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) AddUser(ctx context.Context, u model.NewUser) (*model.User, error) {
	var created model.User
	if err := c.sendJSON(ctx, http.MethodPost, "/users/", u, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateUser(ctx context.Context, id string, u model.UserUpdate) (*model.User, error) {
	var updated model.User
	if err := c.sendJSON(ctx, http.MethodPut, "/users/"+escape(id), u, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.sendJSON(ctx, http.MethodDelete, "/users/"+escape(id), nil, nil)
}

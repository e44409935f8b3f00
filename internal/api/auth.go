package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"galleryserver/internal/model"
)

// SiteInfo returns the current user (nil when anonymous) and site settings.
func (c *Client) SiteInfo(ctx context.Context) (*model.SiteInfo, error) {
	var info model.SiteInfo
	if err := c.getJSON(ctx, "/site/info", nil, &info); err != nil {
		return nil, err
	}
	if info.User != nil && info.User.ID == "" {
		info.User = nil
	}
	return &info, nil
}

// LoginResult is a successful login.
type LoginResult struct {
	User  *model.User
	Token string
}

// Login authenticates against the backend and returns the new session token.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	raw, err := json.Marshal(map[string]string{"username": username, "password": password})
	if err != nil {
		return nil, fmt.Errorf("encode login: %w", err)
	}

	resp, err := c.send(ctx, request{
		method:      http.MethodPost,
		path:        "/auth/login",
		body:        bytes.NewReader(raw),
		contentType: "application/json",
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body struct {
		User         *model.User `json:"user"`
		SessionToken string      `json:"session_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode POST /auth/login: %w", err)
	}

	token := body.SessionToken
	if token == "" {
		for _, cookie := range resp.Cookies() {
			if cookie.Name == SessionCookie {
				token = cookie.Value
			}
		}
	}
	if token == "" {
		return nil, fmt.Errorf("login: %w: no session token in response", ErrUnauthorized)
	}

	return &LoginResult{User: body.User, Token: token}, nil
}

// Logout ends the backend session carried by ctx.
func (c *Client) Logout(ctx context.Context) error {
	return c.sendJSON(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

// UpdateSiteSettings stores a single site setting.
func (c *Client) UpdateSiteSettings(ctx context.Context, s model.SettingUpdate) error {
	return c.sendJSON(ctx, http.MethodPost, "/site/settings", s, nil)
}

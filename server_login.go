package main

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"galleryserver/internal/api"
	"galleryserver/internal/session"
)

func (s *server) getLogin(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, http.StatusOK, "login.html", map[string]any{
		"Title": "Login",
	})
}

func (s *server) postLogin(w http.ResponseWriter, r *http.Request) {
	err := r.ParseForm()
	if err != nil {
		s.renderPage(w, r, http.StatusBadRequest, "login.html", map[string]any{
			"Title": "Login",
			"Error": "The login form could not be read.",
		})
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")

	if username == "" || password == "" {
		s.renderPage(w, r, http.StatusBadRequest, "login.html", map[string]any{
			"Title":    "Login",
			"Error":    "Username and password are required.",
			"Username": username,
		})
		return
	}

	result, err := s.api.Login(r.Context(), username, password)
	if err != nil {
		code := http.StatusBadGateway
		if errors.Is(err, api.ErrUnauthorized) {
			code = http.StatusUnauthorized
		}
		slog.Info("login failed", "username", username, "error", err)
		s.renderPage(w, r, code, "login.html", map[string]any{
			"Title":    "Login",
			"Error":    "Login failed. Please check your credentials and try again.",
			"Username": username,
		})
		return
	}

	signed, expiration, err := s.signSession(result.Token, time.Now())
	if err != nil {
		s.renderError(w, r, http.StatusInternalServerError, err)
		return
	}

	session.FromContext(r.Context()).SetAccountInformation(result.User)
	s.cache.InvalidateScope(scopeOf(api.WithSessionToken(r.Context(), result.Token)))

	setSessionCookie(w, r, signed, expiration)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// postLogout runs outside the session loader so that a backend outage never
// keeps the browser signed in.
func (s *server) postLogout(w http.ResponseWriter, r *http.Request) {
	if api.SessionToken(r.Context()) == "" {
		clearSessionCookie(w, r)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	err := session.FromContext(r.Context()).Logout(r.Context(), s.api)
	s.cache.InvalidateScope(scopeOf(r.Context()))
	clearSessionCookie(w, r)

	if err != nil {
		slog.Warn("backend logout failed", "error", err)
		redirectWithFlash(w, r, "/", "You have been signed out here, but the server could not end your session.")
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

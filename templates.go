package main

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"galleryserver/internal/model"
	"galleryserver/internal/session"
	"galleryserver/internal/thumbs"
)

var (
	//go:embed templates/layout/*.html templates/pages/*.html
	templatesFS embed.FS

	//go:embed assets/*
	assetsFS embed.FS
)

const flashCookie = "flash"

func (s *server) templateFuncs() template.FuncMap {
	return template.FuncMap{
		"imageURL": s.api.ImageURL,
		"thumbURL": func(size thumbs.Size, name string) string {
			return "/thumbs/" + string(size) + "/" + url.PathEscape(name)
		},
		"formatDate": model.FormatDate,
		"roles":      func() []model.Role { return model.Roles },
	}
}

// parseTemplates builds one template set per page, each combined with the
// shared layout.
func parseTemplates(funcs template.FuncMap) (map[string]*template.Template, error) {
	pages, err := fs.Glob(templatesFS, "templates/pages/*.html")
	if err != nil {
		return nil, err
	}

	out := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		name := path.Base(page)
		t, err := template.New(name).Funcs(funcs).ParseFS(templatesFS, "templates/layout/*.html", page)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		out[name] = t
	}
	return out, nil
}

func (s *server) renderTemplate(w http.ResponseWriter, code int, name string, data map[string]any) {
	t, ok := s.templates[name]
	if !ok {
		slog.Error("serving html", "template", name, "error", "unknown template")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		slog.Error("serving html", "template", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("writing html", "template", name, "error", err)
	}
}

// renderPage renders a page with the session and pending flash message of the
// request.
func (s *server) renderPage(w http.ResponseWriter, r *http.Request, code int, name string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	state := session.FromContext(r.Context()).State()
	data["Session"] = state
	data["Account"] = state.Account
	if _, ok := data["Flash"]; !ok {
		data["Flash"] = popFlash(w, r)
	}
	s.renderTemplate(w, code, name, data)
}

// renderError renders a load error inline.
func (s *server) renderError(w http.ResponseWriter, r *http.Request, code int, reqErr error) {
	data := map[string]any{
		"Title":  fmt.Sprintf("%d %s", code, http.StatusText(code)),
		"Status": code,
	}

	if reqErr != nil {
		if code >= 500 {
			slog.Error("serving html", "path", r.URL.Path, "error", reqErr)
		} else {
			slog.Info("serving html", "path", r.URL.Path, "status", code, "error", reqErr)
		}
		data["Message"] = userMessage(code)
	}

	s.renderPage(w, r, code, "error.html", data)
}

func userMessage(code int) string {
	switch code {
	case http.StatusNotFound:
		return "We could not find what you were looking for."
	case http.StatusForbidden:
		return "You do not have permission to do that."
	case http.StatusBadRequest:
		return "The request was not valid."
	case http.StatusBadGateway:
		return "The gallery backend could not be reached. Please try again."
	}
	return "Something went wrong. Please try again."
}

// setFlash stores a one-shot message shown by the next rendered page.
func setFlash(w http.ResponseWriter, msg string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(msg),
		Path:     "/",
		MaxAge:   int((time.Minute).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func popFlash(w http.ResponseWriter, r *http.Request) string {
	cookie, err := r.Cookie(flashCookie)
	if err != nil {
		return ""
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	msg, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(msg)
}

// redirectWithFlash reports a mutation outcome and sends the browser to target.
func redirectWithFlash(w http.ResponseWriter, r *http.Request, target, msg string) {
	if msg != "" {
		setFlash(w, msg)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

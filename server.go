package main

import (
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"galleryserver/internal/api"
	"galleryserver/internal/querycache"
	"galleryserver/internal/session"
	"galleryserver/internal/thumbs"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
)

// maxUploadSize bounds the multipart body of an upload.
const maxUploadSize = 32 << 20

type config struct {
	APIBaseURL  string
	DataDir     string
	JWTSecret   string
	HTTPTimeout time.Duration
}

type server struct {
	api       *api.Client
	cache     *querycache.Cache
	thumbs    *thumbs.Service
	db        *database
	jwtAuth   *jwtauth.JWTAuth
	templates map[string]*template.Template

	searchDelay time.Duration

	router        chi.Router
	anonymous     chi.Router
	authenticated chi.Router
}

func newServer(cfg config) (*server, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}

	err := os.MkdirAll(cfg.DataDir, 0755)
	if err != nil {
		return nil, err
	}

	client, err := api.New(cfg.APIBaseURL, &http.Client{Timeout: cfg.HTTPTimeout})
	if err != nil {
		return nil, err
	}

	db, err := newDatabase(filepath.Join(cfg.DataDir, "thumbnails.db"))
	if err != nil {
		return nil, err
	}

	s := &server{
		api:         client,
		cache:       querycache.New(querycache.DefaultWindow),
		thumbs:      thumbs.New(client, db),
		db:          db,
		jwtAuth:     jwtauth.New("HS256", []byte(cfg.JWTSecret), nil),
		searchDelay: searchDelay,
	}

	s.templates, err = parseTemplates(s.templateFuncs())
	if err != nil {
		db.Close()
		return nil, err
	}

	s.routes()
	return s, nil
}

func (s *server) Close() error {
	return s.db.Close()
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.getHealthz)
	r.Handle("/assets/*", http.FileServer(http.FS(assetsFS)))

	r.Group(func(r chi.Router) {
		r.Use(jwtauth.Verify(s.jwtAuth, jwtauth.TokenFromCookie))
		r.Use(s.withCredential)

		r.Get("/thumbs/{size}/{filename}", s.getThumbnail)
		r.Post("/logout", s.postLogout)

		r.Group(func(r chi.Router) {
			r.Use(s.loadSession)
			r.Mount("/", http.HandlerFunc(s.gate))
		})
	})

	s.anonymous = s.anonymousRoutes()
	s.authenticated = s.authenticatedRoutes()
	s.router = r
}

// gate dispatches to the route table of the session's state.
func (s *server) gate(w http.ResponseWriter, r *http.Request) {
	if session.FromContext(r.Context()).State().Authenticated() {
		s.authenticated.ServeHTTP(w, r)
		return
	}
	s.anonymous.ServeHTTP(w, r)
}

func (s *server) anonymousRoutes() chi.Router {
	r := chi.NewRouter()
	r.NotFound(redirectHome)
	r.MethodNotAllowed(redirectHome)

	r.Get("/", s.getLogin)
	r.Get("/login", s.getLogin)
	r.Post("/login", s.postLogin)
	return r
}

func (s *server) authenticatedRoutes() chi.Router {
	r := chi.NewRouter()
	r.NotFound(redirectHome)
	r.MethodNotAllowed(redirectHome)

	r.Get("/", s.getHome)
	r.Get("/search/ws", s.getSearchSocket)
	r.Get("/albums", s.getAlbums)
	r.Get("/albums/{id}", s.getAlbum)
	r.Get("/image/{id}", s.getImage)
	r.Post("/image/{id}/like", s.postLike)
	r.Post("/image/{id}/comments", s.postComment)
	r.Post("/image/{id}/comments/{comment-id}/delete", s.postDeleteComment)
	r.Get("/profile", s.getProfile)

	r.Group(func(r chi.Router) {
		r.Use(s.mustEdit)

		r.Get("/add", s.getUpload)
		r.Post("/add", s.postUpload)
		r.Get("/albums/new", s.getNewAlbum)
		r.Post("/albums", s.postNewAlbum)
		r.Get("/albums/{id}/edit", s.getEditAlbum)
		r.Post("/albums/{id}", s.postAlbum)
		r.Post("/albums/{id}/delete", s.postDeleteAlbum)
		r.Get("/collections", s.getCollections)
		r.Post("/collections", s.postNewCollection)
		r.Post("/collections/{id}", s.postCollection)
		r.Post("/collections/{id}/delete", s.postDeleteCollection)
		r.Post("/image/{id}/delete", s.postDeleteImage)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.mustAdmin)

		r.Post("/profile/settings", s.postSettings)
		r.Get("/users/{id}/edit", s.getEditUser)
		r.Post("/users", s.postNewUser)
		r.Post("/users/{id}", s.postUser)
		r.Post("/users/{id}/delete", s.postDeleteUser)
	})
	return r
}

func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *server) getHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok\n"))
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		defer func() {
			slog.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

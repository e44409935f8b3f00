package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"galleryserver/internal/api"
	"galleryserver/internal/model"
	"galleryserver/internal/querycache"
	"galleryserver/internal/session"

	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v3/jwt"
)

const (
	sessionSubject    string = "Gallery Session"
	sessionCookie     string = "jwt"
	backendTokenClaim string = "bst"
	sessionLifetime          = time.Hour * 24 * 7
)

// signSession encodes the backend session token into a signed cookie value.
func (s *server) signSession(token string, now time.Time) (string, time.Time, error) {
	expiration := now.Add(sessionLifetime)

	_, signed, err := s.jwtAuth.Encode(map[string]interface{}{
		jwt.SubjectKey:    sessionSubject,
		jwt.IssuedAtKey:   now.Unix(),
		jwt.ExpirationKey: expiration,
		backendTokenClaim: token,
	})
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiration, nil
}

func setSessionCookie(w http.ResponseWriter, r *http.Request, signed string, expiration time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    signed,
		Expires:  expiration,
		Secure:   r.TLS != nil,
		HttpOnly: true,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		MaxAge:   -1,
		Secure:   r.TLS != nil,
		Path:     "/",
		HttpOnly: true,
	})
}

// backendToken returns the backend session token carried by a verified
// session cookie.
func backendToken(r *http.Request) string {
	token, claims, err := jwtauth.FromContext(r.Context())
	if err != nil || token == nil {
		return ""
	}

	if subject, _ := token.Subject(); subject != sessionSubject {
		return ""
	}

	bst, _ := claims[backendTokenClaim].(string)
	return bst
}

// withCredential forwards the browser's backend credential to every backend
// request made while serving r.
func (s *server) withCredential(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token := backendToken(r); token != "" {
			r = r.WithContext(api.WithSessionToken(r.Context(), token))
		}
		next.ServeHTTP(w, r)
	})
}

// loadSession attaches a session store to the request and populates it from
// the backend's site info.
func (s *server) loadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		store := session.New(siteInfoLoader{s})

		err := store.Refresh(r.Context())
		if err != nil && !errors.Is(err, api.ErrUnauthorized) {
			s.renderError(w, r, http.StatusBadGateway, err)
			return
		}

		if api.SessionToken(r.Context()) != "" && !store.State().Authenticated() {
			s.cache.InvalidateScope(scopeOf(r.Context()))
			clearSessionCookie(w, r)
		}

		next.ServeHTTP(w, r.WithContext(session.NewContext(r.Context(), store)))
	})
}

func (s *server) mustEdit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !session.FromContext(r.Context()).State().CanEdit() {
			s.renderError(w, r, http.StatusForbidden, errors.New("editor role required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *server) mustAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !session.FromContext(r.Context()).State().CanAdmin() {
			s.renderError(w, r, http.StatusForbidden, errors.New("admin role required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// siteInfoLoader reads the site info through the query cache.
type siteInfoLoader struct {
	s *server
}

func (l siteInfoLoader) SiteInfo(ctx context.Context) (*model.SiteInfo, error) {
	return querycache.Get(ctx, l.s.cache, scopeOf(ctx), querycache.Key{Resource: querycache.SiteInfo}, l.s.api.SiteInfo)
}

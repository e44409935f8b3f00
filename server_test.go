package main

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"galleryserver/internal/api"
	"galleryserver/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	travelID  = "11111111-1111-4111-8111-111111111111"
	alpsID    = "22222222-2222-4222-8222-222222222222"
	summitID  = "33333333-3333-4333-8333-333333333333"
	catNapID  = "55555555-5555-4555-8555-555555555555"
	createdID = "44444444-4444-4444-8444-444444444444"
	commentID = "66666666-6666-4666-8666-666666666666"
)

// fakeBackend is an in-memory gallery backend.
type fakeBackend struct {
	mu           sync.Mutex
	calls        map[string]int
	users        map[string]model.User
	collections  []model.Collection
	albums       []model.Album
	images       []model.Image
	comments     map[string][]model.Comment
	uploads      []url.Values
	userUpdates  []map[string]any
	settings     []model.SettingUpdate
	failLogout   bool
	failSiteInfo bool
	source       []byte
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		calls: map[string]int{},
		users: map[string]model.User{
			"tok-pat": {ID: "aaaaaaaa-aaaa-4aaa-8aaa-aaaaaaaaaaaa", Username: "pat", Role: model.RolePublic},
			"tok-ed":  {ID: "bbbbbbbb-bbbb-4bbb-8bbb-bbbbbbbbbbbb", Username: "ed", DisplayName: "Ed Itor", Role: model.RoleEditor},
			"tok-ada": {ID: "cccccccc-cccc-4ccc-8ccc-cccccccccccc", Username: "ada", Role: model.RoleAdmin},
		},
		collections: []model.Collection{{ID: travelID, Name: "Travel"}},
		albums: []model.Album{
			{ID: alpsID, Title: "Alps", Description: "Mountains", CollectionID: travelID, CollectionName: "Travel"},
		},
		images: []model.Image{
			{ID: summitID, URL: "summit.jpg", SmallURL: "summit_small.jpg", Title: "Summit", LikeCount: 3, Privacy: model.PrivacyPublic},
			{ID: catNapID, URL: "cat.jpg", Title: "Cat nap", Privacy: model.PrivacyPublic},
		},
		comments: map[string][]model.Comment{
			summitID: {{ID: commentID, ImageID: summitID, Content: "Lovely view", Username: "pat", Timestamp: "2024-05-01T10:00:00"}},
		},
	}
}

func (fb *fakeBackend) count(key string) int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.calls[key]
}

func (fb *fakeBackend) user(r *http.Request) *model.User {
	c, err := r.Cookie(api.SessionCookie)
	if err != nil {
		return nil
	}
	u, ok := fb.users[c.Value]
	if !ok {
		return nil
	}
	return &u
}

func (fb *fakeBackend) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fb.mu.Lock()
			fb.calls[r.Method+" "+r.URL.Path]++
			fb.mu.Unlock()
			next.ServeHTTP(w, r)
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/site/info", func(w http.ResponseWriter, r *http.Request) {
			if fb.failSiteInfo {
				http.Error(w, "boom", http.StatusInternalServerError)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"user":     fb.user(r),
				"settings": map[string]any{"site_name": "Test Gallery"},
			})
		})
		r.Post("/site/settings", func(w http.ResponseWriter, r *http.Request) {
			var in model.SettingUpdate
			json.NewDecoder(r.Body).Decode(&in)
			fb.mu.Lock()
			fb.settings = append(fb.settings, in)
			fb.mu.Unlock()
			writeJSON(w, http.StatusOK, map[string]string{"detail": "ok"})
		})
		r.Post("/auth/login", func(w http.ResponseWriter, r *http.Request) {
			var in struct{ Username, Password string }
			json.NewDecoder(r.Body).Decode(&in)
			u, ok := fb.users["tok-"+in.Username]
			if !ok || in.Password != "secret" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid credentials"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"user": u, "session_token": "tok-" + in.Username})
		})
		r.Post("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
			if fb.failLogout {
				http.Error(w, "boom", http.StatusInternalServerError)
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"detail": "Logged out"})
		})

		r.Get("/albums/", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, fb.albums)
		})
		r.Post("/albums/", func(w http.ResponseWriter, r *http.Request) {
			var in model.Album
			json.NewDecoder(r.Body).Decode(&in)
			in.ID = createdID
			fb.mu.Lock()
			fb.albums = append(fb.albums, in)
			fb.mu.Unlock()
			writeJSON(w, http.StatusOK, in)
		})
		r.Get("/albums/{id}", func(w http.ResponseWriter, r *http.Request) {
			for _, a := range fb.albums {
				if a.ID == chi.URLParam(r, "id") {
					writeJSON(w, http.StatusOK, model.AlbumWithImages{Album: a, Images: fb.images[:1]})
					return
				}
			}
			writeJSON(w, http.StatusOK, map[string]string{"detail": "Album not found"})
		})
		r.Get("/collections/", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, fb.collections)
		})

		r.Get("/images/home", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, model.Home{Images: fb.images, Albums: fb.albums})
		})
		r.Get("/images/search/", func(w http.ResponseWriter, r *http.Request) {
			q := strings.ToLower(r.URL.Query().Get("query"))
			found := []model.Image{}
			for _, img := range fb.images {
				if strings.Contains(strings.ToLower(img.Title), q) {
					found = append(found, img)
				}
			}
			writeJSON(w, http.StatusOK, found)
		})
		r.Post("/images/", func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			fb.mu.Lock()
			fb.uploads = append(fb.uploads, r.MultipartForm.Value)
			fb.mu.Unlock()
			writeJSON(w, http.StatusOK, model.Image{ID: createdID, URL: "new.png"})
		})
		r.Get("/images/download/{name}", func(w http.ResponseWriter, r *http.Request) {
			if fb.source == nil {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Content-Type", "image/png")
			w.Write(fb.source)
		})
		r.Get("/images/{id}", func(w http.ResponseWriter, r *http.Request) {
			for _, img := range fb.images {
				if img.ID == chi.URLParam(r, "id") {
					writeJSON(w, http.StatusOK, img)
					return
				}
			}
			writeJSON(w, http.StatusOK, map[string]string{"detail": "Image not found"})
		})
		r.Delete("/images/{id}", func(w http.ResponseWriter, r *http.Request) {
			for _, img := range fb.images {
				if img.ID == chi.URLParam(r, "id") {
					writeJSON(w, http.StatusOK, map[string]string{"detail": "Image deleted"})
					return
				}
			}
			writeJSON(w, http.StatusOK, map[string]string{"detail": "Image not found"})
		})
		r.Post("/images/{id}/like", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, model.LikeResult{Liked: true, LikeCount: 4})
		})
		r.Get("/images/{id}/comments", func(w http.ResponseWriter, r *http.Request) {
			fb.mu.Lock()
			comments := fb.comments[chi.URLParam(r, "id")]
			fb.mu.Unlock()
			if comments == nil {
				comments = []model.Comment{}
			}
			writeJSON(w, http.StatusOK, comments)
		})
		r.Post("/images/{id}/comments", func(w http.ResponseWriter, r *http.Request) {
			var in model.Comment
			json.NewDecoder(r.Body).Decode(&in)
			in.ID = createdID
			in.ImageID = chi.URLParam(r, "id")
			fb.mu.Lock()
			fb.comments[in.ImageID] = append(fb.comments[in.ImageID], in)
			fb.mu.Unlock()
			writeJSON(w, http.StatusOK, in)
		})

		r.Get("/users/", func(w http.ResponseWriter, r *http.Request) {
			users := []model.User{}
			for _, u := range fb.users {
				users = append(users, u)
			}
			writeJSON(w, http.StatusOK, users)
		})
		r.Put("/users/{id}", func(w http.ResponseWriter, r *http.Request) {
			var in map[string]any
			json.NewDecoder(r.Body).Decode(&in)
			fb.mu.Lock()
			fb.userUpdates = append(fb.userUpdates, in)
			fb.mu.Unlock()
			writeJSON(w, http.StatusOK, model.User{ID: chi.URLParam(r, "id")})
		})
	})
	return r
}

type testServer struct {
	*server
	t       *testing.T
	backend *fakeBackend
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	fb := newFakeBackend()
	backend := httptest.NewServer(fb.routes())
	t.Cleanup(backend.Close)

	s, err := newServer(config{
		APIBaseURL:  backend.URL + "/api",
		DataDir:     t.TempDir(),
		JWTSecret:   "test-secret",
		HTTPTimeout: 5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return &testServer{server: s, t: t, backend: fb}
}

// sessionCookie returns a signed session cookie for the backend user name.
func (ts *testServer) sessionCookie(name string) *http.Cookie {
	ts.t.Helper()
	signed, _, err := ts.signSession("tok-"+name, time.Now())
	require.NoError(ts.t, err)
	return &http.Cookie{Name: sessionCookie, Value: signed}
}

func (ts *testServer) do(r *http.Request, user string) *httptest.ResponseRecorder {
	if user != "" {
		r.AddCookie(ts.sessionCookie(user))
	}
	w := httptest.NewRecorder()
	ts.ServeHTTP(w, r)
	return w
}

func (ts *testServer) get(target, user string) *httptest.ResponseRecorder {
	return ts.do(httptest.NewRequest(http.MethodGet, target, nil), user)
}

func (ts *testServer) post(target string, form url.Values, user string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return ts.do(r, user)
}

func cookieNamed(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)

	w := ts.get("/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, ts.backend.count("GET /api/site/info"))
}

func TestAnonymousGate(t *testing.T) {
	ts := newTestServer(t)

	for _, target := range []string{"/", "/login"} {
		w := ts.get(target, "")
		require.Equal(t, http.StatusOK, w.Code, target)
		assert.Contains(t, w.Body.String(), `action="/login"`, target)
	}

	for _, target := range []string{"/albums", "/add", "/image/" + summitID, "/profile", "/nope"} {
		w := ts.get(target, "")
		require.Equal(t, http.StatusSeeOther, w.Code, target)
		assert.Equal(t, "/", w.Header().Get("Location"), target)
	}
	assert.Equal(t, 0, ts.backend.count("GET /api/albums/"))
}

func TestAuthenticatedGate(t *testing.T) {
	ts := newTestServer(t)

	w := ts.get("/", "pat")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Test Gallery")
	assert.Contains(t, body, "Alps")
	assert.Contains(t, body, "Summit")
	assert.NotContains(t, body, `action="/login"`)

	for _, target := range []string{"/login", "/nope", "/albums/" + alpsID + "/photos"} {
		w := ts.get(target, "pat")
		require.Equal(t, http.StatusSeeOther, w.Code, target)
		assert.Equal(t, "/", w.Header().Get("Location"), target)
	}
}

func TestForgedCookieIsAnonymous(t *testing.T) {
	ts := newTestServer(t)

	r := httptest.NewRequest(http.MethodGet, "/albums", nil)
	r.AddCookie(&http.Cookie{Name: sessionCookie, Value: "not-a-jwt"})
	w := ts.do(r, "")

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, 0, ts.backend.count("GET /api/albums/"))
}

func TestExpiredBackendSessionClearsCookie(t *testing.T) {
	ts := newTestServer(t)

	w := ts.get("/", "gone")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `action="/login"`)

	c := cookieNamed(w, sessionCookie)
	require.NotNil(t, c)
	assert.Less(t, c.MaxAge, 0)
}

func TestSiteInfoFailureRendersError(t *testing.T) {
	ts := newTestServer(t)
	ts.backend.failSiteInfo = true

	w := ts.get("/", "ed")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "could not be reached")
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t)

	w := ts.post("/login", url.Values{"username": {"ed"}, "password": {"secret"}}, "")
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	c := cookieNamed(w, sessionCookie)
	require.NotNil(t, c)
	assert.True(t, c.HttpOnly)

	r := httptest.NewRequest(http.MethodGet, "/albums", nil)
	r.AddCookie(c)
	w = ts.do(r, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "All Albums")
}

func TestLoginRejected(t *testing.T) {
	ts := newTestServer(t)

	w := ts.post("/login", url.Values{"username": {"ed"}, "password": {"wrong"}}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Login failed")
	assert.Nil(t, cookieNamed(w, sessionCookie))
}

func TestLoginRequiresFields(t *testing.T) {
	ts := newTestServer(t)

	w := ts.post("/login", url.Values{"username": {"ed"}}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Username and password are required.")
	assert.Equal(t, 0, ts.backend.count("POST /api/auth/login"))
}

func TestLogoutClearsSession(t *testing.T) {
	ts := newTestServer(t)

	w := ts.post("/logout", nil, "ed")
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	assert.Equal(t, 1, ts.backend.count("POST /api/auth/logout"))

	c := cookieNamed(w, sessionCookie)
	require.NotNil(t, c)
	assert.Less(t, c.MaxAge, 0)
	assert.Nil(t, cookieNamed(w, flashCookie))
}

func TestLogoutFailureStillClearsSession(t *testing.T) {
	ts := newTestServer(t)
	ts.backend.failLogout = true

	w := ts.post("/logout", nil, "ed")
	require.Equal(t, http.StatusSeeOther, w.Code)

	c := cookieNamed(w, sessionCookie)
	require.NotNil(t, c)
	assert.Less(t, c.MaxAge, 0)
	assert.NotNil(t, cookieNamed(w, flashCookie))
}

func TestLogoutWhileBackendDown(t *testing.T) {
	ts := newTestServer(t)
	ts.backend.failSiteInfo = true
	ts.backend.failLogout = true

	w := ts.post("/logout", nil, "ed")
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	c := cookieNamed(w, sessionCookie)
	require.NotNil(t, c)
	assert.Less(t, c.MaxAge, 0)
	assert.Equal(t, 0, ts.backend.count("GET /api/site/info"))
}

func TestLogoutWithoutSession(t *testing.T) {
	ts := newTestServer(t)

	w := ts.post("/logout", nil, "")
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, 0, ts.backend.count("POST /api/auth/logout"))
	assert.Nil(t, cookieNamed(w, flashCookie))
}

func TestEditorControls(t *testing.T) {
	ts := newTestServer(t)
	deleteAction := `/image/` + summitID + `/delete`

	w := ts.get("/", "pat")
	assert.NotContains(t, w.Body.String(), `href="/add"`)
	w = ts.get("/image/"+summitID, "pat")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), deleteAction)

	w = ts.get("/", "ed")
	assert.Contains(t, w.Body.String(), `href="/add"`)
	w = ts.get("/image/"+summitID, "ed")
	assert.Contains(t, w.Body.String(), deleteAction)
}

func TestCapabilityRoutes(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		method string
		target string
		user   string
		code   int
	}{
		{"public upload page", http.MethodGet, "/add", "pat", http.StatusForbidden},
		{"public create album", http.MethodPost, "/albums", "pat", http.StatusForbidden},
		{"public delete image", http.MethodPost, "/image/" + summitID + "/delete", "pat", http.StatusForbidden},
		{"editor settings", http.MethodPost, "/profile/settings", "ed", http.StatusForbidden},
		{"editor add user", http.MethodPost, "/users", "ed", http.StatusForbidden},
		{"editor upload page", http.MethodGet, "/add", "ed", http.StatusOK},
		{"admin upload page", http.MethodGet, "/add", "ada", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var w *httptest.ResponseRecorder
			if tt.method == http.MethodPost {
				w = ts.post(tt.target, url.Values{}, tt.user)
			} else {
				w = ts.get(tt.target, tt.user)
			}
			assert.Equal(t, tt.code, w.Code)
		})
	}
	assert.Equal(t, 0, ts.backend.count("POST /api/albums/"))
	assert.Equal(t, 0, ts.backend.count("DELETE /api/images/"+summitID))
}

func TestEmptyAlbumTitleRejected(t *testing.T) {
	ts := newTestServer(t)

	w := ts.post("/albums", url.Values{"title": {"   "}, "collection_id": {travelID}}, "ed")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Title is required.")
	assert.Equal(t, 0, ts.backend.count("POST /api/albums/"))
}

func TestCreateAlbum(t *testing.T) {
	ts := newTestServer(t)

	w := ts.get("/albums", "ed")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "Lakes")

	w = ts.post("/albums", url.Values{"title": {"Lakes"}, "description": {"Water"}, "collection_id": {travelID}}, "ed")
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/albums/"+createdID, w.Header().Get("Location"))
	assert.Equal(t, 1, ts.backend.count("POST /api/albums/"))

	// The album list is refetched after the write.
	w = ts.get("/albums", "ed")
	assert.Contains(t, w.Body.String(), "Lakes")
}

func TestAlbumNotFound(t *testing.T) {
	ts := newTestServer(t)

	w := ts.get("/albums/99999999-9999-4999-8999-999999999999", "pat")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.get("/albums/not-a-uuid", "pat")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 0, ts.backend.count("GET /api/albums/not-a-uuid"))

	w = ts.get("/albums/"+alpsID, "pat")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Part of Travel")
}

func TestImageNotFound(t *testing.T) {
	ts := newTestServer(t)

	w := ts.get("/image/99999999-9999-4999-8999-999999999999", "pat")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteImage(t *testing.T) {
	ts := newTestServer(t)

	w := ts.post("/image/"+summitID+"/delete", nil, "ed")
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	flash := cookieNamed(w, flashCookie)
	require.NotNil(t, flash)
	assert.Equal(t, url.QueryEscape("Image deleted successfully!"), flash.Value)

	w = ts.post("/image/"+createdID+"/delete", nil, "ed")
	require.Equal(t, http.StatusSeeOther, w.Code)
	flash = cookieNamed(w, flashCookie)
	require.NotNil(t, flash)
	assert.Equal(t, url.QueryEscape("That image no longer exists."), flash.Value)
}

func TestLikeJSON(t *testing.T) {
	ts := newTestServer(t)

	r := httptest.NewRequest(http.MethodPost, "/image/"+summitID+"/like", nil)
	r.Header.Set("Accept", "application/json")
	w := ts.do(r, "pat")
	require.Equal(t, http.StatusOK, w.Code)

	var got model.LikeResult
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, model.LikeResult{Liked: true, LikeCount: 4}, got)

	w = ts.post("/image/"+summitID+"/like", nil, "pat")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/image/"+summitID, w.Header().Get("Location"))
}

func TestComments(t *testing.T) {
	ts := newTestServer(t)

	w := ts.get("/image/"+summitID, "pat")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Lovely view")
	assert.Contains(t, w.Body.String(), "May 1, 2024")

	w = ts.post("/image/"+summitID+"/comments", url.Values{"content": {"   "}}, "pat")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = ts.post("/image/"+summitID+"/comments", url.Values{"content": {strings.Repeat("x", 501)}}, "pat")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, ts.backend.count("POST /api/images/"+summitID+"/comments"))

	w = ts.post("/image/"+summitID+"/comments", url.Values{"content": {"  Nice  "}}, "pat")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, 1, ts.backend.count("POST /api/images/"+summitID+"/comments"))

	w = ts.get("/image/"+summitID, "pat")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Nice")
}

func TestSearchQuery(t *testing.T) {
	ts := newTestServer(t)

	w := ts.get("/?q=c", "pat")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Summit")
	assert.Equal(t, 0, ts.backend.count("GET /api/images/search/"))

	w = ts.get("/?q=cat", "pat")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Cat nap")
	assert.NotContains(t, w.Body.String(), "summit_small.jpg")
	assert.Equal(t, 1, ts.backend.count("GET /api/images/search/"))

	w = ts.get("/?q=zebra", "pat")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "No images found.")
}

func multipartRequest(t *testing.T, fields map[string]string, file []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if file != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="photo.png"`)
		h.Set("Content-Type", "image/png")
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	r := httptest.NewRequest(http.MethodPost, "/add", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	return r
}

func TestUploadRequiresFile(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(multipartRequest(t, map[string]string{"title": "No file"}, nil), "ed")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Please select an image file.")
	assert.Equal(t, 0, ts.backend.count("POST /api/images/"))
}

func TestUploadValidatesLengths(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(multipartRequest(t, map[string]string{"license": strings.Repeat("l", 101)}, testPNG(t, 4, 4)), "ed")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "License must be at most 100 characters.")
	assert.Equal(t, 0, ts.backend.count("POST /api/images/"))
}

func TestUpload(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(multipartRequest(t, map[string]string{
		"title":   "Ridge",
		"privacy": "unlisted",
		"albums":  alpsID,
	}, testPNG(t, 4, 4)), "ed")
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/add", w.Header().Get("Location"))

	require.Len(t, ts.backend.uploads, 1)
	got := ts.backend.uploads[0]
	assert.Equal(t, []string{"Ridge"}, got["title"])
	assert.Equal(t, []string{"unlisted"}, got["privacy"])
	assert.Equal(t, []string{`["` + alpsID + `"]`}, got["albums"])
}

func TestProfileSections(t *testing.T) {
	ts := newTestServer(t)

	w := ts.get("/profile", "ed")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "Site Settings")
	assert.Equal(t, 0, ts.backend.count("GET /api/users/"))

	w = ts.get("/profile", "ada")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Site Settings")
	assert.Contains(t, w.Body.String(), "Ed Itor")
}

func TestSaveSiteName(t *testing.T) {
	ts := newTestServer(t)

	w := ts.post("/profile/settings", url.Values{"site_name": {"My Photos"}}, "ada")
	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Len(t, ts.backend.settings, 1)
	assert.Equal(t, model.SettingUpdate{Key: "site_name", Value: "My Photos"}, ts.backend.settings[0])
}

func TestUpdateUserBlankPassword(t *testing.T) {
	ts := newTestServer(t)
	id := "bbbbbbbb-bbbb-4bbb-8bbb-bbbbbbbbbbbb"

	w := ts.post("/users/"+id, url.Values{"password": {""}, "display_name": {"Eddie"}, "role": {"admin"}}, "ada")
	require.Equal(t, http.StatusSeeOther, w.Code)

	require.Len(t, ts.backend.userUpdates, 1)
	got := ts.backend.userUpdates[0]
	assert.Nil(t, got["password"])
	assert.Equal(t, "Eddie", got["display_name"])
	assert.Equal(t, "admin", got["role"])
}

func testPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestThumbnailProxy(t *testing.T) {
	ts := newTestServer(t)
	ts.backend.source = testPNG(t, 400, 200)

	w := ts.get("/thumbs/small/summit.png", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))
	assert.Equal(t, "max-age=86400", w.Header().Get("Cache-Control"))

	img, _, err := image.Decode(w.Body)
	require.NoError(t, err)
	assert.Equal(t, 128, img.Bounds().Dx())
	assert.Equal(t, 64, img.Bounds().Dy())

	w = ts.get("/thumbs/small/summit.png", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, ts.backend.count("GET /api/images/download/summit.png"))

	w = ts.get("/thumbs/huge/summit.png", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestThumbnailMissingSource(t *testing.T) {
	ts := newTestServer(t)

	w := ts.get("/thumbs/small/missing.png", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

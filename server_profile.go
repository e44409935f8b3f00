package main

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"galleryserver/internal/model"
	"galleryserver/internal/session"
)

const (
	maxSiteNameLength    = 255
	maxUsernameLength    = 50
	maxDisplayNameLength = 100
)

func (s *server) getProfile(w http.ResponseWriter, r *http.Request) {
	s.renderProfile(w, r, http.StatusOK, nil)
}

// renderProfile renders the profile page. Admins additionally get the site
// settings and user management sections; extra overrides individual fields.
func (s *server) renderProfile(w http.ResponseWriter, r *http.Request, code int, extra map[string]any) {
	state := session.FromContext(r.Context()).State()

	data := map[string]any{
		"Title":    "Profile",
		"SiteName": state.Settings.SiteTitle,
		"NewUser":  userForm{Role: model.RolePublic},
	}

	if state.CanAdmin() {
		users, err := s.listUsers(r.Context())
		if err != nil {
			s.renderError(w, r, loadStatus(err), err)
			return
		}
		data["Users"] = users
	}

	for k, v := range extra {
		data[k] = v
	}
	s.renderPage(w, r, code, "profile.html", data)
}

func (s *server) postSettings(w http.ResponseWriter, r *http.Request) {
	err := r.ParseForm()
	if err != nil {
		s.renderProfile(w, r, http.StatusBadRequest, map[string]any{"SettingsError": "The form could not be read."})
		return
	}

	name := strings.TrimSpace(r.PostForm.Get("site_name"))
	if utf8.RuneCountInString(name) > maxSiteNameLength {
		s.renderProfile(w, r, http.StatusBadRequest, map[string]any{
			"SiteName":      name,
			"SettingsError": "Site title is too long.",
		})
		return
	}

	err = s.api.UpdateSiteSettings(r.Context(), model.SettingUpdate{Key: model.SettingSiteName, Value: name})
	if err != nil {
		redirectWithFlash(w, r, "/profile", "Failed to update site title.")
		return
	}
	s.settingsChanged()

	redirectWithFlash(w, r, "/profile", "Site title updated!")
}

func (s *server) getEditUser(w http.ResponseWriter, r *http.Request) {
	id, err := extractID(r)
	if err != nil {
		s.renderError(w, r, http.StatusNotFound, err)
		return
	}

	users, err := s.listUsers(r.Context())
	if err != nil {
		s.renderError(w, r, loadStatus(err), err)
		return
	}

	for _, u := range users {
		if u.ID == id {
			s.renderProfile(w, r, http.StatusOK, map[string]any{
				"EditUser": userForm{ID: u.ID, Username: u.Username, Email: u.Email, DisplayName: u.DisplayName, Role: model.ParseRole(string(u.Role))},
			})
			return
		}
	}
	s.renderError(w, r, http.StatusNotFound, errInvalidID)
}

func (s *server) postNewUser(w http.ResponseWriter, r *http.Request) {
	err := r.ParseForm()
	if err != nil {
		s.renderProfile(w, r, http.StatusBadRequest, map[string]any{"UserError": "The form could not be read."})
		return
	}

	form := userForm{
		Username:    strings.TrimSpace(r.PostForm.Get("username")),
		Email:       strings.TrimSpace(r.PostForm.Get("email")),
		DisplayName: strings.TrimSpace(r.PostForm.Get("display_name")),
		Role:        model.Role(r.PostForm.Get("role")),
	}
	password := r.PostForm.Get("password")

	msg := ""
	switch {
	case form.Username == "" || password == "":
		msg = "Username and password are required."
	case utf8.RuneCountInString(form.Username) > maxUsernameLength:
		msg = "Username is too long."
	case utf8.RuneCountInString(form.DisplayName) > maxDisplayNameLength:
		msg = "Display name is too long."
	case !form.Role.Valid():
		msg = "Please choose a role."
	}
	if msg != "" {
		s.renderProfile(w, r, http.StatusBadRequest, map[string]any{"NewUser": form, "UserError": msg})
		return
	}

	_, err = s.api.AddUser(r.Context(), model.NewUser{
		Username:    form.Username,
		Email:       form.Email,
		Password:    password,
		DisplayName: optional(form.DisplayName),
		Role:        form.Role,
	})
	if err != nil {
		redirectWithFlash(w, r, "/profile#users", mutationMessage("add user", err))
		return
	}
	s.usersChanged()

	redirectWithFlash(w, r, "/profile#users", "User added successfully!")
}

func (s *server) postUser(w http.ResponseWriter, r *http.Request) {
	id, err := extractID(r)
	if err != nil {
		s.renderError(w, r, http.StatusNotFound, err)
		return
	}

	err = r.ParseForm()
	if err != nil {
		s.renderProfile(w, r, http.StatusBadRequest, map[string]any{"UserError": "The form could not be read."})
		return
	}

	form := userForm{
		ID:          id,
		Username:    strings.TrimSpace(r.PostForm.Get("username")),
		DisplayName: strings.TrimSpace(r.PostForm.Get("display_name")),
		Role:        model.Role(r.PostForm.Get("role")),
	}
	password := r.PostForm.Get("password")

	msg := ""
	switch {
	case utf8.RuneCountInString(form.DisplayName) > maxDisplayNameLength:
		msg = "Display name is too long."
	case !form.Role.Valid():
		msg = "Please choose a role."
	}
	if msg != "" {
		s.renderProfile(w, r, http.StatusBadRequest, map[string]any{"EditUser": form, "UserError": msg})
		return
	}

	// A blank password leaves the current one in place.
	_, err = s.api.UpdateUser(r.Context(), id, model.UserUpdate{
		Password:    optional(password),
		DisplayName: optional(form.DisplayName),
		Role:        form.Role,
	})
	if err != nil {
		redirectWithFlash(w, r, "/users/"+id+"/edit", mutationMessage("update user", err))
		return
	}
	s.usersChanged()

	redirectWithFlash(w, r, "/profile#users", "User updated successfully!")
}

func (s *server) postDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := extractID(r)
	if err != nil {
		s.renderError(w, r, http.StatusNotFound, err)
		return
	}

	err = s.api.DeleteUser(r.Context(), id)
	if err != nil {
		redirectWithFlash(w, r, "/profile#users", mutationMessage("delete user", err))
		return
	}
	s.usersChanged()

	redirectWithFlash(w, r, "/profile#users", "User deleted successfully!")
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Package session holds the per-request view of who is signed in and how the
// site is configured. State transitions are pure functions over State; Store
// serializes them and knows how to re-derive the state from the backend.
package session

import "galleryserver/internal/model"

// State is the session snapshot rendered by every page.
type State struct {
	Account  *model.User
	Settings model.Settings
}

// Authenticated reports whether an account is present.
func (s State) Authenticated() bool {
	return s.Account != nil
}

// SiteTitle returns the configured title, or "Home" when unset.
func (s State) SiteTitle() string {
	if s.Settings.SiteTitle == "" {
		return "Home"
	}
	return s.Settings.SiteTitle
}

func (s State) CanEdit() bool     { return model.CanEdit(s.Account) }
func (s State) CanAdmin() bool    { return model.CanAdmin(s.Account) }
func (s State) CanInteract() bool { return model.CanInteract(s.Account) }

// Action is a session transition. The set of actions is closed.
type Action interface {
	action()
}

// SetAccount replaces the signed-in account. A nil User signs out locally.
type SetAccount struct{ User *model.User }

// SetSettings replaces the site settings.
type SetSettings struct{ Settings model.Settings }

// Reset returns the session to its initial, empty state.
type Reset struct{}

// LoggedOut marks the end of a session. It clears everything Reset clears.
type LoggedOut struct{}

// Loaded applies a site info response.
type Loaded struct{ Info *model.SiteInfo }

func (SetAccount) action()  {}
func (SetSettings) action() {}
func (Reset) action()       {}
func (LoggedOut) action()   {}
func (Loaded) action()      {}

// Reduce returns the state that results from applying a to s. It never
// mutates s or anything reachable from it.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case SetAccount:
		s.Account = copyUser(a.User)
	case SetSettings:
		s.Settings = a.Settings
	case Reset, LoggedOut:
		s = State{}
	case Loaded:
		if a.Info == nil {
			return s
		}
		s.Account = copyUser(a.Info.User)
		s.Settings = model.SettingsFromMap(a.Info.Settings)
	}
	return s
}

func copyUser(u *model.User) *model.User {
	if u == nil {
		return nil
	}
	c := *u
	c.Role = model.ParseRole(string(c.Role))
	return &c
}

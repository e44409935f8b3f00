package session

import (
	"context"
	"fmt"
	"sync"

	"galleryserver/internal/model"
)

// Loader fetches the site info a session is derived from.
type Loader interface {
	SiteInfo(ctx context.Context) (*model.SiteInfo, error)
}

// Logouter ends the backend session.
type Logouter interface {
	Logout(ctx context.Context) error
}

// Store is the session of a single browser request.
type Store struct {
	mu     sync.Mutex
	state  State
	loader Loader
}

// New creates an empty store that refreshes from loader.
func New(loader Loader) *Store {
	return &Store{loader: loader}
}

// State returns the current snapshot.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch applies a and returns the resulting state.
func (s *Store) Dispatch(a Action) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Reduce(s.state, a)
	return s.state
}

func (s *Store) SetAccountInformation(u *model.User) { s.Dispatch(SetAccount{User: u}) }
func (s *Store) SetSettings(settings model.Settings) { s.Dispatch(SetSettings{Settings: settings}) }
func (s *Store) Reset()                              { s.Dispatch(Reset{}) }

// Refresh re-fetches the site info and applies it. On failure the state is
// left as it was.
func (s *Store) Refresh(ctx context.Context) error {
	if s.loader == nil {
		return nil
	}
	info, err := s.loader.SiteInfo(ctx)
	if err != nil {
		return fmt.Errorf("refresh session: %w", err)
	}
	s.Dispatch(Loaded{Info: info})
	return nil
}

// Logout ends the backend session and clears the local state. The local state
// is cleared even when the backend call fails; the error is returned so the
// caller can report it.
func (s *Store) Logout(ctx context.Context, l Logouter) error {
	var err error
	if l != nil {
		err = l.Logout(ctx)
	}
	s.Dispatch(LoggedOut{})
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

type storeKey struct{}

// NewContext returns a context carrying s.
func NewContext(ctx context.Context, s *Store) context.Context {
	return context.WithValue(ctx, storeKey{}, s)
}

// FromContext returns the store carried by ctx, or an empty anonymous store.
func FromContext(ctx context.Context) *Store {
	if s, ok := ctx.Value(storeKey{}).(*Store); ok && s != nil {
		return s
	}
	return New(nil)
}

// Package session owns "who is logged in" for the whole app.
//
// A Store is created once at startup, restored from device preferences, and
// passed to every screen. It is the single source of truth for the current
// user id: screens never read preferences directly and never keep their own
// copy of the id.
//
// There is no token. The backend identifies the actor by the user id sent in
// request bodies, so a restored session is trusted until Logout.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/sakif/hangang/internal/api"
	"github.com/sakif/hangang/internal/apperror"
	"github.com/sakif/hangang/internal/model"
)

// Keys under which the session is persisted.
const (
	KeyUserID     = "currentUserID"
	KeyUserPhone  = "currentUserPhone"
	KeyIsLoggedIn = "isLoggedIn"
)

// Preferences is a small persistent key/value store on the device. GetString
// returns an apperror.ErrNotFound error for an absent key.
type Preferences interface {
	GetString(ctx context.Context, key string) (string, error)
	SetString(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Authenticator is the part of the backend client the session needs.
type Authenticator interface {
	Login(ctx context.Context, userID, password string) (*api.LoginUser, error)
	SignUp(ctx context.Context, userID, password, phone string) error
}

type Store struct {
	mu      sync.RWMutex
	current model.Session

	auth   Authenticator
	prefs  Preferences
	logger *slog.Logger

	// onAuthRequired is invoked whenever RequireAuth rejects an action, so the
	// UI can route to the login screen.
	onAuthRequired func(action string)
}

func NewStore(auth Authenticator, prefs Preferences, logger *slog.Logger) *Store {
	return &Store{auth: auth, prefs: prefs, logger: logger}
}

// OnAuthRequired registers the login prompt shown when a gated action is
// attempted without a session.
func (s *Store) OnAuthRequired(fn func(action string)) {
	s.mu.Lock()
	s.onAuthRequired = fn
	s.mu.Unlock()
}

// Current returns a copy of the session. The zero value means logged out.
func (s *Store) Current() model.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *Store) UserID() string {
	return s.Current().UserID
}

func (s *Store) IsAuthenticated() bool {
	return s.Current().IsAuthenticated
}

// RequireAuth returns the current user id, or ErrAuthRequired (after
// triggering the login prompt) when nobody is logged in. Every mutating action
// calls it before any request is built.
func (s *Store) RequireAuth(action string) (string, error) {
	s.mu.RLock()
	cur := s.current
	prompt := s.onAuthRequired
	s.mu.RUnlock()

	if cur.IsAuthenticated && cur.UserID != "" {
		return cur.UserID, nil
	}
	if prompt != nil {
		prompt(action)
	}
	return "", apperror.AuthRequired(action)
}

// Restore loads a persisted session. A missing, half-written or unreadable
// record leaves the store logged out.
func (s *Store) Restore(ctx context.Context) model.Session {
	var values [3]string
	for i, key := range []string{KeyIsLoggedIn, KeyUserID, KeyUserPhone} {
		v, err := s.get(ctx, key)
		if err != nil {
			s.logger.Warn("persisted session unreadable", "error", err)
			return model.Session{}
		}
		values[i] = v
	}
	loggedIn, userID, phone := values[0], values[1], values[2]

	ok, _ := strconv.ParseBool(loggedIn)
	if !ok || userID == "" {
		s.logger.Debug("no persisted session")
		return model.Session{}
	}

	restored := model.Session{UserID: userID, Phone: phone, IsAuthenticated: true}
	s.mu.Lock()
	s.current = restored
	s.mu.Unlock()

	s.logger.Info("session restored", "userID", userID)
	return restored
}

func (s *Store) get(ctx context.Context, key string) (string, error) {
	v, err := s.prefs.GetString(ctx, key)
	if errors.Is(err, apperror.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("session: reading %s: %w", key, err)
	}
	return v, nil
}

// Login authenticates against the backend and, on success, replaces the
// current session and persists it. On failure the previous session (if any)
// is left untouched.
func (s *Store) Login(ctx context.Context, userID, password string) (model.Session, error) {
	user, err := s.auth.Login(ctx, userID, password)
	if err != nil {
		s.logger.Info("login rejected", "userID", userID, "error", err)
		return model.Session{}, err
	}

	next := model.Session{UserID: user.ID, Phone: user.Phone, IsAuthenticated: true}
	if err := s.persist(ctx, next); err != nil {
		return model.Session{}, err
	}

	s.mu.Lock()
	s.current = next
	s.mu.Unlock()

	s.logger.Info("logged in", "userID", next.UserID)
	return next, nil
}

// SignUp registers a new account. It does not log the user in.
func (s *Store) SignUp(ctx context.Context, userID, password, phone string) error {
	if err := s.auth.SignUp(ctx, userID, password, phone); err != nil {
		return err
	}
	s.logger.Info("account created", "userID", userID)
	return nil
}

// Logout clears the in-memory and persisted session. It is idempotent and
// always leaves the store logged out; a failure to clear preferences is
// logged, not returned.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	prev := s.current.UserID
	s.current = model.Session{}
	s.mu.Unlock()

	for _, key := range []string{KeyIsLoggedIn, KeyUserID, KeyUserPhone} {
		if err := s.prefs.Delete(ctx, key); err != nil {
			s.logger.Error("clearing persisted session", "key", key, "error", err)
		}
	}
	if prev != "" {
		s.logger.Info("logged out", "userID", prev)
	}
}

// persist writes the session keys. The logged-in flag is cleared first and
// set last, so a write that fails part way leaves a record Restore rejects.
func (s *Store) persist(ctx context.Context, sess model.Session) error {
	values := []struct{ key, value string }{
		{KeyIsLoggedIn, strconv.FormatBool(false)},
		{KeyUserID, sess.UserID},
		{KeyUserPhone, sess.Phone},
		{KeyIsLoggedIn, strconv.FormatBool(sess.IsAuthenticated)},
	}
	for _, kv := range values {
		if err := s.prefs.SetString(ctx, kv.key, kv.value); err != nil {
			return fmt.Errorf("session: persisting %s: %w", kv.key, err)
		}
	}
	return nil
}

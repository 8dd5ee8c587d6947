package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
)

// SessionManager is the single writer of session data. It keeps the
// current token and derived user in memory and mirrors them into the
// durable Store so a session survives reloads.
type SessionManager struct {
	mu     sync.RWMutex
	store  Store
	logger Logger

	token string
	user  *User
}

// NewSessionManager builds a SessionManager over the given store.
func NewSessionManager(store Store) *SessionManager {
	return &SessionManager{
		store:  store,
		logger: defLogger{},
	}
}

func (s *SessionManager) WithLogger(logger Logger) *SessionManager {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Load restores a persisted session. The cached user is only valid if it
// was derived from the username embedded in the stored token; on mismatch
// or when the token itself is undecodable the whole session is cleared and
// ErrSessionMismatch returned. A missing or unreadable cached user is
// rebuilt from the token claims instead.
func (s *SessionManager) Load(ctx context.Context) error {
	token, err := s.store.Get(ctx, KeyToken)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil
		}
		return err
	}

	raw, err := s.store.Get(ctx, KeyUser)
	if err != nil && !errors.Is(err, ErrKeyNotFound) {
		return err
	}

	var user *User
	if raw != "" {
		user = &User{}
		if jsonErr := json.Unmarshal([]byte(raw), user); jsonErr != nil {
			s.logger.Error("discarding undecodable cached user: %s", jsonErr)
			user = nil
		}
	}

	claims, claimsErr := ParseTokenClaims(token)
	if claimsErr != nil {
		s.Clear(ctx)
		return ErrSessionMismatch
	}
	if user != nil && claims.Username != user.Username {
		s.Clear(ctx)
		return ErrSessionMismatch
	}
	if user == nil {
		// A crash between the token and user writes in Establish, or a
		// discarded user blob, leaves only the token behind. The token is
		// the source of truth, so rebuild the user from its claims rather
		// than surfacing a token-without-user session.
		user = &User{Username: claims.Username, IsAdmin: claims.UserIsAdmin}
		if rebuilt, marshalErr := json.Marshal(user); marshalErr == nil {
			if setErr := s.store.Set(ctx, KeyUser, string(rebuilt)); setErr != nil {
				s.logger.Error("failed to re-persist rebuilt user: %s", setErr)
			}
		}
	}

	s.mu.Lock()
	s.token = token
	s.user = user
	s.mu.Unlock()
	return nil
}

// Establish stores a fresh token together with the user derived from it.
// It is the only way a session moves to logged-in.
func (s *SessionManager) Establish(ctx context.Context, token string, user *User) error {
	if err := s.store.Set(ctx, KeyToken, token); err != nil {
		return err
	}

	raw, err := json.Marshal(user)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, KeyUser, string(raw)); err != nil {
		return err
	}

	s.mu.Lock()
	s.token = token
	s.user = user
	s.mu.Unlock()
	return nil
}

// ReplaceToken swaps the stored token keeping the derived user, used by
// refresh flows where the identity does not change.
func (s *SessionManager) ReplaceToken(ctx context.Context, token string) error {
	if err := s.store.Set(ctx, KeyToken, token); err != nil {
		return err
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return nil
}

// Clear removes token and user from memory and from the store. Idempotent.
func (s *SessionManager) Clear(ctx context.Context) {
	if err := s.store.Delete(ctx, KeyToken); err != nil {
		s.logger.Error("failed to delete stored token: %s", err)
	}
	if err := s.store.Delete(ctx, KeyUser); err != nil {
		s.logger.Error("failed to delete stored user: %s", err)
	}

	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.mu.Unlock()
}

// Token returns the in-memory token, empty when logged out.
func (s *SessionManager) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns the in-memory user, nil when logged out.
func (s *SessionManager) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// LoggedIn is true iff both a token and a derived user are present.
func (s *SessionManager) LoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != "" && s.user != nil
}

// AutoLogin reports whether the current session was auto-established.
// The flag is durable so a later explicit login knows the session should
// be transparently replaced rather than treated as "already logged in".
func (s *SessionManager) AutoLogin(ctx context.Context) bool {
	raw, err := s.store.Get(ctx, KeyAutoLogin)
	if err != nil {
		return false
	}
	autoLogin, _ := strconv.ParseBool(raw)
	return autoLogin
}

// SetAutoLogin records the outcome of an auto-login attempt.
func (s *SessionManager) SetAutoLogin(ctx context.Context, value bool) {
	if err := s.store.Set(ctx, KeyAutoLogin, strconv.FormatBool(value)); err != nil {
		s.logger.Error("failed to persist auto-login flag: %s", err)
	}
}

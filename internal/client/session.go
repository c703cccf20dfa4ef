package client

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Session holds the bearer token for the current user. It is passed to
// every view explicitly instead of living in global storage.
type Session struct {
	mu    sync.RWMutex
	token string
}

// NewSession returns a session, optionally pre-authenticated.
func NewSession(token string) *Session {
	return &Session{token: token}
}

// Token returns the current bearer token, or "" when logged out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// SetToken replaces the current token.
func (s *Session) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// Clear logs the session out.
func (s *Session) Clear() {
	s.SetToken("")
}

// Authenticated reports whether protected views are reachable.
func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// TokenFile persists a session token between runs of a front end.
type TokenFile struct {
	Path string
}

// Load reads the stored token. A missing file yields an empty session.
func (f TokenFile) Load() (*Session, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return NewSession(""), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read token file: %w", err)
	}
	return NewSession(strings.TrimSpace(string(data))), nil
}

// Save writes the session token with owner-only permissions.
func (f TokenFile) Save(s *Session) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	return os.WriteFile(f.Path, []byte(s.Token()), 0o600)
}

// Remove deletes the stored token.
func (f TokenFile) Remove() error {
	err := os.Remove(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Package session owns the authenticated identity and its persistence
// across restarts. The snapshot on disk is trusted until a subsequent
// authenticated call proves otherwise — Restore never touches the network.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Roles a session can carry.
const (
	RoleDonor    = "donor"
	RoleReceiver = "receiver"
)

// Session is the current authenticated identity.
type Session struct {
	ID    int    `json:"id"`
	Role  string `json:"role"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Store holds at most one Session and mirrors it to a JSON snapshot file.
// Construct with New so tests can point it at a temp dir.
type Store struct {
	path    string
	current *Session
}

// New creates a Store persisting to path.
func New(path string) *Store {
	return &Store{path: path}
}

// DefaultPath returns the per-user snapshot location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "foodbridge", "session.json"), nil
}

// Current returns the active session, or nil when logged out.
func (s *Store) Current() *Session {
	return s.current
}

// Set installs sess as the active session and writes the snapshot.
func (s *Store) Set(sess Session) error {
	s.current = &sess
	return s.Save()
}

// Save writes the in-memory session to disk. No-op when logged out.
func (s *Store) Save() error {
	if s.current == nil {
		return nil
	}
	raw, err := json.Marshal(s.current)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// Restore rehydrates the session from the last snapshot. A missing or
// unreadable snapshot means logged out (nil, nil) — startup must not fail
// because a stale file went bad.
func (s *Store) Restore() (*Session, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil || sess.ID == 0 {
		// Corrupt snapshot: drop it rather than surface it forever.
		_ = os.Remove(s.path)
		return nil, nil
	}
	s.current = &sess
	return s.current, nil
}

// Clear logs out: drops the in-memory session and deletes the snapshot.
func (s *Store) Clear() error {
	s.current = nil
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

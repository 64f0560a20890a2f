// Package credstore persists the session credential and the notification
// permission decision under the user's state directory.
package credstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gopkg.in/yaml.v3"
)

const (
	credentialsFileName = "credentials.json"
	preferencesFileName = "preferences.yaml"
	appDirName          = "events-tui"
)

// Permission is the user's decision about showing push notifications.
type Permission string

const (
	PermissionUndecided Permission = ""
	PermissionGranted   Permission = "granted"
	PermissionDenied    Permission = "denied"
)

type credentials struct {
	AuthToken string `json:"authToken,omitempty"`
}

type preferences struct {
	Notifications Permission `yaml:"notifications"`
}

// Store reads and writes the credential and preference files. The
// credential lives under the key "authToken".
type Store struct {
	dir string
	mu  sync.Mutex
}

// NewStore creates a Store rooted at dir. The directory is created on the
// first save. Pass an empty string to use the default XDG state path.
func NewStore(dir string) *Store {
	if dir == "" {
		dir = DefaultDir()
	}
	return &Store{dir: dir}
}

// Dir returns the state directory.
func (s *Store) Dir() string { return s.dir }

// Path returns the full path to the credential file.
func (s *Store) Path() string {
	return filepath.Join(s.dir, credentialsFileName)
}

// LoadToken returns the persisted credential, or "" when there is none.
func (s *Store) LoadToken() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("reading credentials: %w", err)
	}
	var c credentials
	if err := json.Unmarshal(data, &c); err != nil {
		return "", fmt.Errorf("parsing credentials: %w", err)
	}
	return c.AuthToken, nil
}

// SaveToken persists token.
func (s *Store) SaveToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(credentials{AuthToken: token}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling credentials: %w", err)
	}
	return s.writeAtomic(credentialsFileName, append(data, '\n'))
}

// ClearToken removes the persisted credential. Clearing an absent
// credential is not an error.
func (s *Store) ClearToken() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing credentials: %w", err)
	}
	return nil
}

// LoadPermission returns the stored notification decision.
func (s *Store) LoadPermission() (Permission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(filepath.Join(s.dir, preferencesFileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return PermissionUndecided, nil
		}
		return PermissionUndecided, fmt.Errorf("reading preferences: %w", err)
	}
	var p preferences
	if err := yaml.Unmarshal(data, &p); err != nil {
		return PermissionUndecided, fmt.Errorf("parsing preferences: %w", err)
	}
	switch p.Notifications {
	case PermissionGranted, PermissionDenied:
		return p.Notifications, nil
	}
	return PermissionUndecided, nil
}

// SavePermission persists the notification decision.
func (s *Store) SavePermission(p Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := yaml.Marshal(preferences{Notifications: p})
	if err != nil {
		return fmt.Errorf("marshaling preferences: %w", err)
	}
	return s.writeAtomic(preferencesFileName, data)
}

// writeAtomic writes data using a temp-file-then-rename so a crash never
// leaves a truncated file behind.
func (s *Store) writeAtomic(name string, data []byte) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+name+"-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpPath)
		}
	}()

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("renaming %s: %w", name, err)
	}
	committed = true
	return nil
}

// TokenExpiry reports the exp claim of a JWT credential without verifying
// its signature. ok is false for opaque tokens and JWTs without exp.
func TokenExpiry(token string) (exp time.Time, ok bool) {
	var claims jwt.RegisteredClaims
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Expired reports whether token is a JWT whose exp is at or before now.
func Expired(token string, now time.Time) bool {
	exp, ok := TokenExpiry(token)
	return ok && !now.Before(exp)
}

// DefaultDir returns ~/.local/state/events-tui, respecting XDG_STATE_HOME
// if set.
func DefaultDir() string {
	if base := os.Getenv("XDG_STATE_HOME"); base != "" {
		return filepath.Join(base, appDirName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	return filepath.Join(home, ".local", "state", appDirName)
}

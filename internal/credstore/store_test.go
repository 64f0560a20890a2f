package credstore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestNewStore_DefaultDir(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/tmp/xdg")
	s := NewStore("")
	if want := filepath.Join("/tmp/xdg", appDirName); s.Dir() != want {
		t.Errorf("Dir() = %q, want %q", s.Dir(), want)
	}
}

func TestStore_Path(t *testing.T) {
	s := NewStore("/tmp/test-dir")
	want := "/tmp/test-dir/credentials.json"
	if got := s.Path(); got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}
}

func TestStore_LoadMissing(t *testing.T) {
	s := NewStore(t.TempDir())

	tok, err := s.LoadToken()
	if err != nil {
		t.Fatalf("LoadToken() error: %v", err)
	}
	if tok != "" {
		t.Errorf("LoadToken() = %q, want empty", tok)
	}
	p, err := s.LoadPermission()
	if err != nil {
		t.Fatalf("LoadPermission() error: %v", err)
	}
	if p != PermissionUndecided {
		t.Errorf("LoadPermission() = %q, want undecided", p)
	}
}

func TestStore_SaveLoadClearToken(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	s := NewStore(dir)

	if err := s.SaveToken("tok-1"); err != nil {
		t.Fatalf("SaveToken() error: %v", err)
	}
	got, err := s.LoadToken()
	if err != nil || got != "tok-1" {
		t.Fatalf("LoadToken() = %q, %v; want tok-1", got, err)
	}

	data, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatal(err)
	}
	if want := "{\n  \"authToken\": \"tok-1\"\n}\n"; string(data) != want {
		t.Errorf("file contents = %q, want %q", data, want)
	}
	info, err := os.Stat(s.Path())
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}

	if err := s.ClearToken(); err != nil {
		t.Fatalf("ClearToken() error: %v", err)
	}
	if err := s.ClearToken(); err != nil {
		t.Fatalf("second ClearToken() error: %v", err)
	}
	if got, _ := s.LoadToken(); got != "" {
		t.Errorf("LoadToken() after clear = %q", got)
	}
}

func TestStore_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	for i := 0; i < 5; i++ {
		if err := s.SaveToken("tok"); err != nil {
			t.Fatal(err)
		}
		if err := s.SavePermission(PermissionGranted); err != nil {
			t.Fatal(err)
		}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		t.Errorf("dir entries = %v, want only the two state files", names)
	}
}

func TestStore_LoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	if err := os.WriteFile(s.Path(), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := s.LoadToken(); err == nil {
		t.Error("expected error for corrupt credentials")
	}
}

func TestStore_Permission(t *testing.T) {
	s := NewStore(t.TempDir())
	for _, p := range []Permission{PermissionDenied, PermissionGranted} {
		if err := s.SavePermission(p); err != nil {
			t.Fatalf("SavePermission(%q) error: %v", p, err)
		}
		got, err := s.LoadPermission()
		if err != nil || got != p {
			t.Errorf("LoadPermission() = %q, %v; want %q", got, err, p)
		}
	}

	if err := os.WriteFile(filepath.Join(s.Dir(), preferencesFileName), []byte("notifications: maybe\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.LoadPermission(); got != PermissionUndecided {
		t.Errorf("unknown value loaded as %q, want undecided", got)
	}
}

func signed(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func TestTokenExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := signed(t, jwt.RegisteredClaims{Subject: "1", ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute))})
	future := signed(t, jwt.RegisteredClaims{Subject: "1", ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))})
	noExp := signed(t, jwt.RegisteredClaims{Subject: "1"})

	tests := []struct {
		name    string
		token   string
		wantOK  bool
		expired bool
	}{
		{"expired jwt", past, true, true},
		{"live jwt", future, true, false},
		{"jwt without exp", noExp, false, false},
		{"opaque", "tok-1-1", false, false},
		{"empty", "", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := TokenExpiry(tt.token)
			if ok != tt.wantOK {
				t.Errorf("TokenExpiry() ok = %v, want %v", ok, tt.wantOK)
			}
			if got := Expired(tt.token, now); got != tt.expired {
				t.Errorf("Expired() = %v, want %v", got, tt.expired)
			}
		})
	}
}

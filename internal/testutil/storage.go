package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"rulingsafe/internal/rs"
)

// NewConfigStore returns a ConfigStore whose state file lives in a fresh
// temp directory. The file itself is not created.
func NewConfigStore(t *testing.T) *rs.ConfigStore {
	t.Helper()
	return rs.NewConfigStore(filepath.Join(t.TempDir(), "state", "config.json"), rs.NewNopLogger())
}

// NewStorageRoot creates an empty storage root with a users/ directory.
func NewStorageRoot(t *testing.T) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), rs.StorageDirName)
	if err := os.MkdirAll(filepath.Join(root, rs.UsersDirName), 0755); err != nil {
		t.Fatalf("creating storage root: %v", err)
	}
	return root
}

// NewSession returns a session for username over a fresh storage root,
// with the user's cases directory already created.
func NewSession(t *testing.T, username string) rs.Session {
	t.Helper()
	sess := rs.Session{StorageRoot: NewStorageRoot(t), ActiveUser: username}
	dir, err := sess.CasesDir()
	if err != nil {
		t.Fatalf("resolving cases dir: %v", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("creating cases dir: %v", err)
	}
	return sess
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("creating dir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

// Exists reports whether path exists.
func Exists(t *testing.T, path string) bool {
	t.Helper()
	_, err := os.Stat(path)
	if err == nil {
		return true
	}
	if !os.IsNotExist(err) {
		t.Fatalf("stat %s: %v", path, err)
	}
	return false
}

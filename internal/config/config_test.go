package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	original := &Config{
		BaseDir:   "/home/user/.local/share/rulingsafe",
		LogDir:    "/home/user/.local/share/rulingsafe/log",
		StatePath: "/home/user/.local/share/rulingsafe/config.json",
		Journal:   JournalConfig{Type: "sqlite", DataDir: "/home/user/.local/share/rulingsafe/db"},
		Archive: ArchiveConfig{
			Encryption:     "age",
			PublicKeyPath:  "/home/user/.local/share/rulingsafe/keys/rulingsafe.pub",
			PrivateKeyPath: "/home/user/.local/share/rulingsafe/keys/rulingsafe.key",
		},
		Documents: DocumentsConfig{
			Ignore: []string{"*.tmp", ".DS_Store"},
		},
	}

	var buf bytes.Buffer
	m := &Manager{}

	if err := m.Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.BaseDir != original.BaseDir {
		t.Errorf("BaseDir = %q, want %q", got.BaseDir, original.BaseDir)
	}
	if got.StatePath != original.StatePath {
		t.Errorf("StatePath = %q, want %q", got.StatePath, original.StatePath)
	}
	if got.Journal != original.Journal {
		t.Errorf("Journal = %+v, want %+v", got.Journal, original.Journal)
	}
	if got.Archive != original.Archive {
		t.Errorf("Archive = %+v, want %+v", got.Archive, original.Archive)
	}
	if len(got.Documents.Ignore) != 2 {
		t.Fatalf("len(Documents.Ignore) = %d, want 2", len(got.Documents.Ignore))
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("/data/rs")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"LogDir", cfg.LogDir, "/data/rs/log"},
		{"StatePath", cfg.StatePath, "/data/rs/config.json"},
		{"Journal.Type", cfg.Journal.Type, "sqlite"},
		{"Journal.DataDir", cfg.Journal.DataDir, "/data/rs/db"},
		{"Archive.Encryption", cfg.Archive.Encryption, "none"},
		{"Archive.PublicKeyPath", cfg.Archive.PublicKeyPath, "/data/rs/keys/rulingsafe.pub"},
		{"Archive.PrivateKeyPath", cfg.Archive.PrivateKeyPath, "/data/rs/keys/rulingsafe.key"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "nested", "rulingsafe.toml")

		if err := Init(path, NewConfig(dir)); err != nil {
			t.Fatalf("Init() error = %v", err)
		}
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("config file not created: %v", err)
		}
	})

	t.Run("fails if file already exists", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "rulingsafe.toml")

		if err := Init(path, NewConfig(dir)); err != nil {
			t.Fatalf("first Init() error = %v", err)
		}
		if err := Init(path, NewConfig(dir)); err == nil {
			t.Fatal("second Init() expected error")
		}
	})
}

func TestReadFromFile(t *testing.T) {
	t.Run("reads valid config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "rulingsafe.toml")
		cfg := NewConfig(dir)
		cfg.Journal = JournalConfig{Type: "memory"}

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.Journal.Type != "memory" {
			t.Errorf("Journal.Type = %q, want memory", got.Journal.Type)
		}
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		if _, err := ReadFromFile("/nonexistent/path/rulingsafe.toml"); err == nil {
			t.Fatal("ReadFromFile() expected error for missing file")
		}
	})
}

func TestReadOrDefault(t *testing.T) {
	t.Run("missing file yields defaults", func(t *testing.T) {
		dir := t.TempDir()
		got, err := ReadOrDefault(filepath.Join(dir, "none.toml"), dir)
		if err != nil {
			t.Fatalf("ReadOrDefault() error = %v", err)
		}
		if got.StatePath != filepath.Join(dir, "config.json") {
			t.Errorf("StatePath = %q", got.StatePath)
		}
	})

	t.Run("partial file is filled in", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "rulingsafe.toml")
		content := "log_dir = \"/var/log/rs\"\n\n[archive]\nencryption = \"age\"\n"
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}

		got, err := ReadOrDefault(path, dir)
		if err != nil {
			t.Fatalf("ReadOrDefault() error = %v", err)
		}
		if got.LogDir != "/var/log/rs" {
			t.Errorf("LogDir = %q, want the file's value", got.LogDir)
		}
		if got.Archive.Encryption != "age" {
			t.Errorf("Archive.Encryption = %q, want age", got.Archive.Encryption)
		}
		if got.Journal.Type != "sqlite" || got.Journal.DataDir != filepath.Join(dir, "db") {
			t.Errorf("Journal = %+v, want defaults", got.Journal)
		}
		if got.Archive.PublicKeyPath == "" {
			t.Error("PublicKeyPath not defaulted")
		}
	})

	t.Run("malformed file is an error", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "rulingsafe.toml")
		if err := os.WriteFile(path, []byte("log_dir = [unterminated"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := ReadOrDefault(path, dir); err == nil {
			t.Fatal("ReadOrDefault() expected error")
		}
	})
}

package fs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"rulingsafe/internal/rs"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("creating dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0640); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func TestOSFilesystemManager_Resolve(t *testing.T) {
	m := NewOSFilesystemManager(nil)
	dir := t.TempDir()
	file := filepath.Join(dir, "brief.pdf")
	writeFile(t, file, "pdf")

	t.Run("regular file", func(t *testing.T) {
		src, err := m.Resolve(file)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if src.String() != file {
			t.Errorf("String() = %q, want %q", src.String(), file)
		}
		if src.Name() != "brief.pdf" {
			t.Errorf("Name() = %q, want %q", src.Name(), "brief.pdf")
		}
	})

	t.Run("directory is rejected", func(t *testing.T) {
		_, err := m.Resolve(dir)
		if !errors.Is(err, rs.ErrInvalid) {
			t.Errorf("Resolve(dir) error = %v, want ErrInvalid", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := m.Resolve(filepath.Join(dir, "missing.pdf"))
		if !errors.Is(err, rs.ErrNotFound) {
			t.Errorf("Resolve(missing) error = %v, want ErrNotFound", err)
		}
	})

	t.Run("symlink is rejected", func(t *testing.T) {
		link := filepath.Join(dir, "link.pdf")
		if err := os.Symlink(file, link); err != nil {
			t.Skipf("symlinks unavailable: %v", err)
		}
		_, err := m.Resolve(link)
		if !errors.Is(err, rs.ErrInvalid) {
			t.Errorf("Resolve(symlink) error = %v, want ErrInvalid", err)
		}
	})
}

func TestOSFilesystemManager_CopyInto(t *testing.T) {
	m := NewOSFilesystemManager(nil)
	srcDir := t.TempDir()
	destDir := t.TempDir()

	srcPath := filepath.Join(srcDir, "order.txt")
	writeFile(t, srcPath, "first")
	mtime := time.Date(2023, 3, 4, 5, 6, 7, 0, time.UTC)
	if err := os.Chtimes(srcPath, mtime, mtime); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	src, err := m.Resolve(srcPath)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	dest, err := m.CopyInto(src, destDir)
	if err != nil {
		t.Fatalf("CopyInto() error = %v", err)
	}
	if dest != filepath.Join(destDir, "order.txt") {
		t.Errorf("dest = %q", dest)
	}

	info, err := os.Stat(dest)
	if err != nil {
		t.Fatalf("stat dest: %v", err)
	}
	if !info.ModTime().Equal(mtime) {
		t.Errorf("ModTime = %v, want %v", info.ModTime(), mtime)
	}
	if info.Mode().Perm() != 0640 {
		t.Errorf("Perm = %v, want 0640", info.Mode().Perm())
	}

	t.Run("same name overwrites", func(t *testing.T) {
		writeFile(t, srcPath, "second")
		src, err := m.Resolve(srcPath)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if _, err := m.CopyInto(src, destDir); err != nil {
			t.Fatalf("CopyInto() error = %v", err)
		}
		data, err := os.ReadFile(dest)
		if err != nil {
			t.Fatalf("reading dest: %v", err)
		}
		if string(data) != "second" {
			t.Errorf("content = %q, want %q", data, "second")
		}
	})
}

func TestOSFilesystemManager_ListFiles(t *testing.T) {
	m := NewOSFilesystemManager(nil)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.pdf"), "a")
	writeFile(t, filepath.Join(dir, ".DS_Store"), "junk")
	writeFile(t, filepath.Join(dir, "sub", "nested.pdf"), "n")

	infos, err := m.ListFiles(dir)
	if err != nil {
		t.Fatalf("ListFiles() error = %v", err)
	}
	if len(infos) != 1 || infos[0].Name() != "a.pdf" {
		t.Errorf("ListFiles() = %v, want only a.pdf", infos)
	}

	t.Run("missing directory", func(t *testing.T) {
		infos, err := m.ListFiles(filepath.Join(dir, "nope"))
		if err != nil {
			t.Fatalf("ListFiles() error = %v", err)
		}
		if len(infos) != 0 {
			t.Errorf("ListFiles() = %v, want empty", infos)
		}
	})
}

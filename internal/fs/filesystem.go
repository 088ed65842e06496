package fs

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"rulingsafe/internal/rs"
)

// OSFilesystemManager is the real filesystem implementation of rs.FilesystemManager.
type OSFilesystemManager struct {
	ignore *IgnoreMatcher
}

// NewOSFilesystemManager creates a filesystem manager that hides files
// matching ignorePatterns from listings. A nil slice means DefaultIgnorePatterns.
func NewOSFilesystemManager(ignorePatterns []string) *OSFilesystemManager {
	if ignorePatterns == nil {
		ignorePatterns = DefaultIgnorePatterns
	}
	return &OSFilesystemManager{ignore: NewIgnoreMatcher(ignorePatterns)}
}

// Ignored reports whether relativePath (relative to a case folder) is hidden.
func (m *OSFilesystemManager) Ignored(relativePath string) bool {
	return m.ignore.Match(relativePath)
}

// Resolve validates a raw source path.
func (m *OSFilesystemManager) Resolve(rawPath string) (*rs.SourceFile, error) {
	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return nil, fmt.Errorf("resolving absolute path: %w", err)
	}

	info, err := os.Lstat(absPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("file %s %w", absPath, rs.ErrNotFound)
		}
		return nil, fmt.Errorf("stat path: %w", err)
	}

	mode := info.Mode()
	switch {
	case mode.IsDir():
		return nil, fmt.Errorf("%w: %s is a directory", rs.ErrInvalid, absPath)
	case mode&os.ModeSymlink != 0:
		return nil, fmt.Errorf("%w: symlinks not supported: %s", rs.ErrInvalid, absPath)
	case !mode.IsRegular():
		return nil, fmt.Errorf("%w: not a regular file: %s", rs.ErrInvalid, absPath)
	}

	return rs.NewSourceFile(absPath, info), nil
}

// CopyInto copies src into destDir, keeping its permissions and mtime.
func (m *OSFilesystemManager) CopyInto(src *rs.SourceFile, destDir string) (string, error) {
	destPath := filepath.Join(destDir, src.Name())

	in, err := os.Open(src.String())
	if err != nil {
		return "", fmt.Errorf("opening source: %w", err)
	}
	defer in.Close()

	perm := src.Info().Mode().Perm()
	out, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return "", fmt.Errorf("creating destination: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return "", fmt.Errorf("copying data: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("closing destination: %w", err)
	}

	// O_CREATE only applies perm to new files; an overwritten file keeps its old mode.
	if err := os.Chmod(destPath, perm); err != nil {
		return "", fmt.Errorf("setting permissions: %w", err)
	}
	mtime := src.Info().ModTime()
	if err := os.Chtimes(destPath, mtime, mtime); err != nil {
		return "", fmt.Errorf("setting modification time: %w", err)
	}

	return destPath, nil
}

// ListFiles returns the regular, non-ignored files directly inside dir.
func (m *OSFilesystemManager) ListFiles(dir string) ([]fs.FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading directory: %w", err)
	}

	var infos []fs.FileInfo
	for _, entry := range entries {
		if !entry.Type().IsRegular() || m.ignore.Match(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", entry.Name(), err)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// Compile-time check that OSFilesystemManager implements rs.FilesystemManager
var _ rs.FilesystemManager = (*OSFilesystemManager)(nil)

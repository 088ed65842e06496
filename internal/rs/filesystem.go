package rs

import "io/fs"

// SourceFile is a validated regular file outside the storage root that is
// about to be copied into a case. Created by FilesystemManager.Resolve.
type SourceFile struct {
	absPath string
	info    fs.FileInfo
}

// NewSourceFile creates a SourceFile from its components.
// This is primarily for use by FilesystemManager implementations.
func NewSourceFile(absPath string, info fs.FileInfo) *SourceFile {
	return &SourceFile{absPath: absPath, info: info}
}

// String returns the absolute path.
func (f *SourceFile) String() string { return f.absPath }

// Name returns the base name the file will have inside documents/.
func (f *SourceFile) Name() string { return f.info.Name() }

// Info returns the stat info captured when the file was resolved.
func (f *SourceFile) Info() fs.FileInfo { return f.info }

// FilesystemManager abstracts the document file operations.
type FilesystemManager interface {
	// Resolve makes rawPath absolute, stats it and checks that it is a
	// regular file (not a directory, symlink, device, etc.).
	Resolve(rawPath string) (*SourceFile, error)

	// CopyInto copies src into destDir under its base name, preserving
	// permissions and modification time. An existing file with the same
	// name is overwritten. Returns the destination path.
	CopyInto(src *SourceFile, destDir string) (string, error)

	// ListFiles returns the regular files directly inside dir that are not
	// matched by the ignore patterns. A missing dir yields no files.
	ListFiles(dir string) ([]fs.FileInfo, error)
}

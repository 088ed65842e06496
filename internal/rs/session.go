package rs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// File and directory names below the storage root.
const (
	UsersDirName     = "users"
	UsersFileName    = "users.json"
	CasesDirName     = "cases"
	CasesFileName    = "cases.json"
	DocumentsDirName = "documents"
	LinksFileName    = "links.json"
)

// Session names the storage root and the user that store operations act on.
// It is built from the ConfigStore once per operation and passed explicitly.
//
// Layout:
//
//	<StorageRoot>/
//	  users.json
//	  users/
//	    <ActiveUser>/
//	      cases.json
//	      cases/
//	        <key>/
//	          links.json
//	          documents/
type Session struct {
	StorageRoot string
	ActiveUser  string
}

func (s Session) root() (string, error) {
	if strings.TrimSpace(s.StorageRoot) == "" {
		return "", fmt.Errorf("%w: storage root not set", ErrPrecondition)
	}
	return s.StorageRoot, nil
}

// UsersDir returns <root>/users.
func (s Session) UsersDir() (string, error) {
	root, err := s.root()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, UsersDirName), nil
}

// UsersFile returns <root>/users.json.
func (s Session) UsersFile() (string, error) {
	root, err := s.root()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, UsersFileName), nil
}

// userDir returns the directory of any user, active or not.
func (s Session) userDir(username string) (string, error) {
	dir, err := s.UsersDir()
	if err != nil {
		return "", err
	}
	if err := validateSegment("username", username); err != nil {
		return "", err
	}
	return filepath.Join(dir, username), nil
}

// UserRoot returns <root>/users/<active user>.
func (s Session) UserRoot() (string, error) {
	if _, err := s.root(); err != nil {
		return "", err
	}
	if strings.TrimSpace(s.ActiveUser) == "" {
		return "", fmt.Errorf("%w: no active user", ErrPrecondition)
	}
	return s.userDir(s.ActiveUser)
}

// CasesFile returns the active user's cases.json.
func (s Session) CasesFile() (string, error) {
	root, err := s.UserRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, CasesFileName), nil
}

// CasesDir returns the active user's cases directory.
func (s Session) CasesDir() (string, error) {
	root, err := s.UserRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, CasesDirName), nil
}

// CaseFolderPath returns where the folder for key lives, without checking
// that it exists.
func (s Session) CaseFolderPath(key string) (string, error) {
	dir, err := s.CasesDir()
	if err != nil {
		return "", err
	}
	if err := validateSegment("case key", key); err != nil {
		return "", err
	}
	return filepath.Join(dir, key), nil
}

// CaseFolder returns the folder for key and fails with ErrNotFound when it
// does not exist on disk. Callers use it to check that a key is real.
func (s Session) CaseFolder(key string) (string, error) {
	folder, err := s.CaseFolderPath(key)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(folder)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("case folder %q %w", key, ErrNotFound)
		}
		return "", fmt.Errorf("checking case folder: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("case folder %q %w", key, ErrNotFound)
	}
	return folder, nil
}

// DocumentsFolder returns caseFolder/documents.
func DocumentsFolder(caseFolder string) string {
	return filepath.Join(caseFolder, DocumentsDirName)
}

// LinksFile returns caseFolder/links.json.
func LinksFile(caseFolder string) string {
	return filepath.Join(caseFolder, LinksFileName)
}

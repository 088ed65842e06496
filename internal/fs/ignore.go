package fs

import (
	"errors"
	"path"
	"path/filepath"
	"strings"
)

// DefaultIgnorePatterns skips the clutter file managers and office suites
// leave next to documents.
var DefaultIgnorePatterns = []string{
	".DS_Store",
	"Thumbs.db",
	"desktop.ini",
	"~$*",
	".~lock.*#",
}

// IgnoreMatcher decides which files in a case folder are clutter. A pattern
// containing '/' is matched against the slash-separated path relative to the
// case folder; any other pattern is matched against the file name alone,
// ignoring case, since Windows writes both "Thumbs.db" and "thumbs.db".
type IgnoreMatcher struct {
	names []string // lowercased
	paths []string
}

// NewIgnoreMatcher compiles rawPatterns. Blank entries, '#' comments and
// malformed globs are dropped.
func NewIgnoreMatcher(rawPatterns []string) *IgnoreMatcher {
	m := &IgnoreMatcher{}
	for _, raw := range rawPatterns {
		p := strings.TrimSpace(raw)
		if p == "" || strings.HasPrefix(p, "#") {
			continue
		}
		if _, err := path.Match(p, ""); errors.Is(err, path.ErrBadPattern) {
			continue
		}
		if strings.Contains(p, "/") {
			m.paths = append(m.paths, strings.TrimPrefix(p, "/"))
		} else {
			m.names = append(m.names, strings.ToLower(p))
		}
	}
	return m
}

// Match reports whether relativePath, relative to a case folder, is clutter.
func (m *IgnoreMatcher) Match(relativePath string) bool {
	if m == nil {
		return false
	}
	rel := filepath.ToSlash(relativePath)
	name := strings.ToLower(path.Base(rel))

	for _, p := range m.names {
		if ok, _ := path.Match(p, name); ok {
			return true
		}
	}
	for _, p := range m.paths {
		if ok, _ := path.Match(p, rel); ok {
			return true
		}
	}
	return false
}

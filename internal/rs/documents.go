package rs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// DocumentStore manages the files in a case's documents folder.
// Documents are plain files; nothing about them is recorded elsewhere.
type DocumentStore struct {
	fsmgr  FilesystemManager
	logger Logger
}

// NewDocumentStore creates a DocumentStore.
func NewDocumentStore(fsmgr FilesystemManager, logger Logger) *DocumentStore {
	return &DocumentStore{
		fsmgr:  fsmgr,
		logger: logger,
	}
}

// Add copies the files at rawPaths into the documents folder of the case at
// caseFolder. A file with the same name is overwritten. All sources are
// validated before anything is copied. Returns the destination paths.
func (s *DocumentStore) Add(caseFolder string, rawPaths []string) ([]string, error) {
	if err := requireDir(caseFolder); err != nil {
		return nil, err
	}

	sources := make([]*SourceFile, 0, len(rawPaths))
	for _, raw := range rawPaths {
		src, err := s.fsmgr.Resolve(raw)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", raw, err)
		}
		sources = append(sources, src)
	}

	dest := DocumentsFolder(caseFolder)
	if err := os.MkdirAll(dest, 0755); err != nil {
		return nil, fmt.Errorf("creating documents folder: %w", err)
	}

	copied := make([]string, 0, len(sources))
	for _, src := range sources {
		path, err := s.fsmgr.CopyInto(src, dest)
		if err != nil {
			return copied, fmt.Errorf("copying %s: %w", src.String(), err)
		}
		s.logger.Debug("document copied", "source", src.String(), "path", path)
		copied = append(copied, path)
	}

	s.logger.Info("documents added", "folder", caseFolder, "count", len(copied))
	return copied, nil
}

// List returns the documents of the case at caseFolder sorted by name.
func (s *DocumentStore) List(caseFolder string) ([]Document, error) {
	infos, err := s.fsmgr.ListFiles(DocumentsFolder(caseFolder))
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	docs := make([]Document, 0, len(infos))
	for _, info := range infos {
		docs = append(docs, Document{
			Name:       info.Name(),
			Size:       info.Size(),
			ModifiedAt: info.ModTime(),
		})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })
	return docs, nil
}

// Remove deletes one document by name and reports whether it existed.
func (s *DocumentStore) Remove(caseFolder, name string) (bool, error) {
	if err := validateSegment("document name", name); err != nil {
		return false, err
	}
	path := filepath.Join(DocumentsFolder(caseFolder), name)
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("removing document: %w", err)
	}
	s.logger.Info("document removed", "folder", caseFolder, "name", name)
	return true, nil
}

package rs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// LinkStore manages the reference links of one case, kept in the case
// folder's links.json. Every write rewrites the whole document.
type LinkStore struct {
	logger Logger
	clock  Clock
	idgen  IDGenerator
}

// NewLinkStore creates a LinkStore.
func NewLinkStore(logger Logger, clock Clock, idgen IDGenerator) *LinkStore {
	return &LinkStore{
		logger: logger,
		clock:  clock,
		idgen:  idgen,
	}
}

// List returns the links of the case at caseFolder. A missing, empty or
// corrupt links.json reads as no links.
func (s *LinkStore) List(caseFolder string) ([]Link, error) {
	return readList[Link](LinksFile(caseFolder), "links", s.logger)
}

// Get returns the link with the given id.
func (s *LinkStore) Get(caseFolder, id string) (*Link, error) {
	links, err := s.List(caseFolder)
	if err != nil {
		return nil, err
	}
	for i := range links {
		if links[i].ID == id {
			return &links[i], nil
		}
	}
	return nil, fmt.Errorf("link %q %w", id, ErrNotFound)
}

// Add appends a link with a fresh id to the case at caseFolder.
func (s *LinkStore) Add(caseFolder string, req LinkRequest) (*Link, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := requireDir(caseFolder); err != nil {
		return nil, err
	}

	links, err := s.List(caseFolder)
	if err != nil {
		return nil, err
	}

	id := s.idgen.New()
	for hasLink(links, id) {
		id = s.idgen.New()
	}

	link := Link{
		ID:        id,
		Title:     strings.TrimSpace(req.Title),
		URL:       strings.TrimSpace(req.URL),
		Platform:  strings.TrimSpace(req.Platform),
		CreatedAt: NewTimestamp(s.clock.Now()),
	}
	if err := writeList(LinksFile(caseFolder), "links", append(links, link)); err != nil {
		return nil, fmt.Errorf("saving links: %w", err)
	}

	s.logger.Info("link added", "folder", caseFolder, "id", id)
	return &link, nil
}

// Delete removes the link with the given id. It reports whether a link was
// removed; nothing is written when none matched.
func (s *LinkStore) Delete(caseFolder, id string) (bool, error) {
	links, err := s.List(caseFolder)
	if err != nil {
		return false, err
	}

	kept := make([]Link, 0, len(links))
	for _, l := range links {
		if l.ID != id {
			kept = append(kept, l)
		}
	}
	if len(kept) == len(links) {
		return false, nil
	}

	if err := writeList(LinksFile(caseFolder), "links", kept); err != nil {
		return false, fmt.Errorf("saving links: %w", err)
	}
	s.logger.Info("link deleted", "folder", caseFolder, "id", id)
	return true, nil
}

func hasLink(links []Link, id string) bool {
	for _, l := range links {
		if l.ID == id {
			return true
		}
	}
	return false
}

// requireDir fails with ErrNotFound unless dir is an existing directory.
func requireDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("folder %s %w", dir, ErrNotFound)
		}
		return fmt.Errorf("checking folder: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("folder %s %w", dir, ErrNotFound)
	}
	return nil
}

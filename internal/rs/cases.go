package rs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// CaseStore manages the active user's cases: the records in cases.json and
// one folder per case under cases/.
//
// Writes are ordered metadata first. A crash during Create leaves a record
// without a folder; a crash during Delete leaves a folder without a record.
// Neither surfaces as a broken case (see Checker).
type CaseStore struct {
	logger Logger
	clock  Clock
}

// NewCaseStore creates a CaseStore.
func NewCaseStore(logger Logger, clock Clock) *CaseStore {
	return &CaseStore{
		logger: logger,
		clock:  clock,
	}
}

// List returns the active user's cases. A missing or corrupt cases.json
// reads as no cases.
func (s *CaseStore) List(sess Session) ([]Case, error) {
	path, err := sess.CasesFile()
	if err != nil {
		return nil, err
	}
	return readList[Case](path, "cases", s.logger)
}

// Get returns the case with the given key.
func (s *CaseStore) Get(sess Session, key string) (*Case, error) {
	cases, err := s.List(sess)
	if err != nil {
		return nil, err
	}
	i := indexOfCase(cases, key)
	if i < 0 {
		return nil, fmt.Errorf("case %q %w", key, ErrNotFound)
	}
	return &cases[i], nil
}

// Exists reports whether a case with this name and year is recorded.
func (s *CaseStore) Exists(sess Session, name, year string) (bool, error) {
	cases, err := s.List(sess)
	if err != nil {
		return false, err
	}
	return indexOfCase(cases, CaseKey(name, year)) >= 0, nil
}

// Create records a new case and creates cases/<key>/documents/.
func (s *CaseStore) Create(sess Session, req CaseRequest) (*Case, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	cases, err := s.List(sess)
	if err != nil {
		return nil, err
	}
	key := req.Key()
	if indexOfCase(cases, key) >= 0 {
		return nil, fmt.Errorf("case %q %w", key, ErrDuplicate)
	}

	now := NewTimestamp(s.clock.Now())
	c := Case{
		Key:         key,
		CaseNo:      req.CaseNo,
		CaseName:    strings.TrimSpace(req.CaseName),
		Year:        strings.TrimSpace(req.Year),
		Court:       req.Court,
		Result:      req.Result,
		Description: req.Description,
		CreatedAt:   now,
		LastUpdated: now,
	}

	if err := s.insert(sess, cases, c); err != nil {
		return nil, err
	}
	s.logger.Info("case created", "user", sess.ActiveUser, "key", key)
	return &c, nil
}

// Restore records a case carried over from elsewhere (an imported archive),
// keeping its timestamps. The key is recomputed from name and year.
func (s *CaseStore) Restore(sess Session, c Case) (*Case, error) {
	req := RequestFromCase(&c)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	cases, err := s.List(sess)
	if err != nil {
		return nil, err
	}
	c.Key = req.Key()
	c.CaseName = strings.TrimSpace(c.CaseName)
	c.Year = strings.TrimSpace(c.Year)
	if indexOfCase(cases, c.Key) >= 0 {
		return nil, fmt.Errorf("case %q %w", c.Key, ErrDuplicate)
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = NewTimestamp(s.clock.Now())
	}
	if c.LastUpdated.IsZero() {
		c.LastUpdated = c.CreatedAt
	}

	if err := s.insert(sess, cases, c); err != nil {
		return nil, err
	}
	s.logger.Info("case restored", "user", sess.ActiveUser, "key", c.Key)
	return &c, nil
}

// insert appends c, saves the list, then creates the case folder.
func (s *CaseStore) insert(sess Session, cases []Case, c Case) error {
	if err := s.save(sess, append(cases, c)); err != nil {
		return err
	}
	folder, err := sess.CaseFolderPath(c.Key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(DocumentsFolder(folder), 0755); err != nil {
		return fmt.Errorf("creating case folder: %w", err)
	}
	return nil
}

// Update replaces the fields of the case at oldKey. When name or year change
// the key, the folder is renamed first and the record second.
func (s *CaseStore) Update(sess Session, oldKey string, req CaseRequest) (*Case, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	cases, err := s.List(sess)
	if err != nil {
		return nil, err
	}
	i := indexOfCase(cases, oldKey)
	if i < 0 {
		return nil, fmt.Errorf("case %q %w", oldKey, ErrNotFound)
	}

	newKey := req.Key()
	if newKey != oldKey {
		if indexOfCase(cases, newKey) >= 0 {
			return nil, fmt.Errorf("case %q %w", newKey, ErrDuplicate)
		}
		if err := s.moveFolder(sess, oldKey, newKey); err != nil {
			return nil, err
		}
	}

	c := &cases[i]
	c.Key = newKey
	c.CaseNo = req.CaseNo
	c.CaseName = strings.TrimSpace(req.CaseName)
	c.Year = strings.TrimSpace(req.Year)
	c.Court = req.Court
	c.Result = req.Result
	c.Description = req.Description
	c.LastUpdated = NewTimestamp(s.clock.Now())

	if err := s.save(sess, cases); err != nil {
		return nil, err
	}
	s.logger.Info("case updated", "user", sess.ActiveUser, "key", newKey, "previous_key", oldKey)
	updated := *c
	return &updated, nil
}

// moveFolder renames cases/<oldKey> to cases/<newKey>. A record whose folder
// went missing gets a fresh folder at the new key. An unrecorded folder
// already sitting at the new key is a conflict.
func (s *CaseStore) moveFolder(sess Session, oldKey, newKey string) error {
	oldFolder, err := sess.CaseFolderPath(oldKey)
	if err != nil {
		return err
	}
	newFolder, err := sess.CaseFolderPath(newKey)
	if err != nil {
		return err
	}

	if _, err := os.Stat(newFolder); err == nil {
		return fmt.Errorf("case folder %q %w", newKey, ErrDuplicate)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking case folder: %w", err)
	}

	if _, err := os.Stat(oldFolder); errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("case folder missing, recreating", "key", oldKey, "new_key", newKey)
		if err := os.MkdirAll(DocumentsFolder(newFolder), 0755); err != nil {
			return fmt.Errorf("creating case folder: %w", err)
		}
		return nil
	}

	if err := os.Rename(oldFolder, newFolder); err != nil {
		return fmt.Errorf("renaming case folder: %w", err)
	}
	return nil
}

// Delete removes the case record and then its folder. Deleting a case that
// does not exist succeeds.
func (s *CaseStore) Delete(sess Session, key string) error {
	cases, err := s.List(sess)
	if err != nil {
		return err
	}
	folder, err := sess.CaseFolderPath(key)
	if err != nil {
		return err
	}

	kept := make([]Case, 0, len(cases))
	for _, c := range cases {
		if c.Key != key {
			kept = append(kept, c)
		}
	}
	if len(kept) != len(cases) {
		if err := s.save(sess, kept); err != nil {
			return err
		}
	}

	if err := os.RemoveAll(folder); err != nil {
		return fmt.Errorf("removing case folder: %w", err)
	}

	s.logger.Info("case deleted", "user", sess.ActiveUser, "key", key)
	return nil
}

func (s *CaseStore) save(sess Session, cases []Case) error {
	path, err := sess.CasesFile()
	if err != nil {
		return err
	}
	if err := writeList(path, "cases", cases); err != nil {
		return fmt.Errorf("saving cases: %w", err)
	}
	return nil
}

func indexOfCase(cases []Case, key string) int {
	for i := range cases {
		if cases[i].Key == key {
			return i
		}
	}
	return -1
}

package rs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
)

// Report lists the ways a user's case records and case folders disagree.
type Report struct {
	// FolderlessCases are recorded case keys with no folder on disk.
	FolderlessCases []string
	// OrphanFolders are directories under cases/ with no record.
	OrphanFolders []string
}

// Clean returns true when records and folders agree.
func (r *Report) Clean() bool {
	return len(r.FolderlessCases) == 0 && len(r.OrphanFolders) == 0
}

// Checker compares the active user's case records with the folders on disk.
// It only reports; repairing is left to the user.
type Checker struct {
	cases *CaseStore
}

// NewChecker creates a Checker.
func NewChecker(cases *CaseStore) *Checker {
	return &Checker{cases: cases}
}

// Check builds a Report for the session's active user.
func (c *Checker) Check(sess Session) (*Report, error) {
	cases, err := c.cases.List(sess)
	if err != nil {
		return nil, err
	}
	dir, err := sess.CasesDir()
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading cases directory: %w", err)
	}
	folders := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			folders[e.Name()] = true
		}
	}

	report := &Report{}
	recorded := make(map[string]bool, len(cases))
	for _, cs := range cases {
		recorded[cs.Key] = true
		if !folders[cs.Key] {
			report.FolderlessCases = append(report.FolderlessCases, cs.Key)
		}
	}
	for name := range folders {
		if !recorded[name] {
			report.OrphanFolders = append(report.OrphanFolders, name)
		}
	}
	sort.Strings(report.FolderlessCases)
	sort.Strings(report.OrphanFolders)
	return report, nil
}

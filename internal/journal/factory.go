package journal

import (
	"fmt"
	"os"
	"path/filepath"

	"rulingsafe/internal/config"
	"rulingsafe/internal/rs"
)

// FileName is the journal database file inside data_dir.
const FileName = "journal.db"

// NewJournalFromConfig creates a Journal implementation based on the journal config type.
func NewJournalFromConfig(cfg config.JournalConfig) (rs.Journal, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite journal")
		}
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("creating journal directory: %w", err)
		}
		return open(filepath.Join(cfg.DataDir, FileName))
	case "memory":
		return open(":memory:")
	default:
		return nil, fmt.Errorf("unknown journal type: %s", cfg.Type)
	}
}

// open keeps a failed open from becoming a non-nil interface holding a nil pointer.
func open(path string) (rs.Journal, error) {
	j, err := NewSQLiteJournal(path)
	if err != nil {
		return nil, err
	}
	return j, nil
}

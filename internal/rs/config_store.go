package rs

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// StorageDirName is appended to the directory the user picks as storage location.
const StorageDirName = "RulingSafe"

// ConfigStore reads and writes the installation state file.
// Every mutation loads the whole file, changes it and writes it back;
// there is no merge, so the last writer wins.
type ConfigStore struct {
	path   string
	logger Logger
}

// NewConfigStore creates a ConfigStore backed by the JSON file at path.
func NewConfigStore(path string, logger Logger) *ConfigStore {
	return &ConfigStore{path: path, logger: logger}
}

// Path returns the location of the state file.
func (s *ConfigStore) Path() string {
	return s.path
}

// Load returns the stored Config, or an empty one if the file does not exist yet.
// Undecodable content is read as empty and logged, like the list documents.
// Only real I/O failures are returned.
func (s *ConfigStore) Load() (*Config, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return &Config{}, nil
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		s.logger.Warn("recovered from corrupt file", "path", s.path, "error", err)
		return &Config{}, nil
	}
	return &cfg, nil
}

// Save overwrites the state file with cfg, creating its directory if needed.
func (s *ConfigStore) Save(cfg *Config) error {
	if err := writeJSON(s.path, cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	return nil
}

// Update loads the config, applies fn and saves the result.
// Nothing is written if fn returns an error.
func (s *ConfigStore) Update(fn func(cfg *Config) error) error {
	cfg, err := s.Load()
	if err != nil {
		return err
	}
	if err := fn(cfg); err != nil {
		return err
	}
	return s.Save(cfg)
}

// SetStorageRoot makes <picked>/RulingSafe the storage root, creating it and
// its users/ directory. Returns the storage root.
func (s *ConfigStore) SetStorageRoot(picked string) (string, error) {
	if strings.TrimSpace(picked) == "" {
		return "", fmt.Errorf("%w: storage location is required", ErrInvalid)
	}
	abs, err := filepath.Abs(picked)
	if err != nil {
		return "", fmt.Errorf("resolving storage location: %w", err)
	}

	root := filepath.Join(abs, StorageDirName)
	if err := os.MkdirAll(filepath.Join(root, UsersDirName), 0755); err != nil {
		return "", fmt.Errorf("creating storage root: %w", err)
	}

	err = s.Update(func(cfg *Config) error {
		cfg.BasePath = root
		return nil
	})
	if err != nil {
		return "", err
	}
	return root, nil
}

// StorageRoot returns the configured storage root, or "" if unset.
func (s *ConfigStore) StorageRoot() (string, error) {
	cfg, err := s.Load()
	if err != nil {
		return "", err
	}
	return cfg.BasePath, nil
}

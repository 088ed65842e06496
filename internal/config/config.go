package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds the application settings for rulingsafe. Domain state
// (storage root, users, active user) lives in the JSON state file at
// StatePath, not here.
type Config struct {
	BaseDir   string          `toml:"base_dir"`
	LogDir    string          `toml:"log_dir"`
	StatePath string          `toml:"state_path"`
	Journal   JournalConfig   `toml:"journal"`
	Archive   ArchiveConfig   `toml:"archive"`
	Documents DocumentsConfig `toml:"documents"`
}

// JournalConfig configures the operation history.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type JournalConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// ArchiveConfig controls how case exports are protected.
type ArchiveConfig struct {
	Encryption     string `toml:"encryption"` // "none" (default), "age" or "test"
	PublicKeyPath  string `toml:"public_key_path"`
	PrivateKeyPath string `toml:"private_key_path"`
}

// DocumentsConfig holds settings for case documents.
type DocumentsConfig struct {
	// Ignore lists glob patterns hidden from document listings and
	// left out of exports. Empty means the built-in defaults.
	Ignore []string `toml:"ignore"`
}

// NewConfig creates a Config rooted at baseDir with default paths.
func NewConfig(baseDir string) *Config {
	return &Config{
		BaseDir:   baseDir,
		LogDir:    filepath.Join(baseDir, "log"),
		StatePath: filepath.Join(baseDir, "config.json"),
		Journal: JournalConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "db"),
		},
		Archive: ArchiveConfig{
			Encryption:     "none",
			PublicKeyPath:  filepath.Join(baseDir, "keys", "rulingsafe.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "rulingsafe.key"),
		},
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// ReadOrDefault reads the Config at path. When no file exists yet it
// returns NewConfig(baseDir), so the tool works before `config init`.
func ReadOrDefault(path, baseDir string) (*Config, error) {
	cfg, err := ReadFromFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewConfig(baseDir), nil
	}
	if err != nil {
		return nil, err
	}
	cfg.fillDefaults(baseDir)
	return cfg, nil
}

// fillDefaults sets any path left empty in the file.
func (c *Config) fillDefaults(baseDir string) {
	def := NewConfig(baseDir)
	if c.BaseDir == "" {
		c.BaseDir = def.BaseDir
	}
	if c.LogDir == "" {
		c.LogDir = def.LogDir
	}
	if c.StatePath == "" {
		c.StatePath = def.StatePath
	}
	if c.Journal.Type == "" {
		c.Journal = def.Journal
	}
	if c.Archive.Encryption == "" {
		c.Archive.Encryption = def.Archive.Encryption
	}
	if c.Archive.PublicKeyPath == "" {
		c.Archive.PublicKeyPath = def.Archive.PublicKeyPath
	}
	if c.Archive.PrivateKeyPath == "" {
		c.Archive.PrivateKeyPath = def.Archive.PrivateKeyPath
	}
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}

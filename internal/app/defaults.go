package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
)

// envPrefix prefixes every environment variable rulingsafe reads.
const envPrefix = "RULINGSAFE"

// env holds the environment overrides for default locations.
// Environment variables:
//   - RULINGSAFE_CONFIG_PATH: settings file (default: ~/.config/rulingsafe.toml)
//   - RULINGSAFE_HOME: base directory for rulingsafe data (default: ~/.local/share/rulingsafe)
type env struct {
	ConfigPath string `split_words:"true"`
	Home       string
}

// GetDefaults returns application default paths, checking environment variables first.
func GetDefaults() (map[string]string, error) {
	var e env
	if err := envconfig.Process(envPrefix, &e); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if e.ConfigPath == "" || e.Home == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot determine home directory: %w", err)
		}
		if e.ConfigPath == "" {
			e.ConfigPath = filepath.Join(homeDir, ".config", "rulingsafe.toml")
		}
		if e.Home == "" {
			e.Home = filepath.Join(homeDir, ".local", "share", "rulingsafe")
		}
	}

	return map[string]string{
		"config_path": e.ConfigPath,
		"base_dir":    e.Home,
		"log_dir":     filepath.Join(e.Home, "log"),
	}, nil
}

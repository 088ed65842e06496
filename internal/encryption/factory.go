package encryption

import (
	"fmt"

	"rulingsafe/internal/config"
	"rulingsafe/internal/rs"
)

// NewEncryptorFromConfig creates the Encryptor for cfg.Encryption. "none"
// still yields an age encryptor: exports are left plain, but the keys can be
// set up and encrypted archives imported.
func NewEncryptorFromConfig(cfg config.ArchiveConfig) (rs.Encryptor, error) {
	switch cfg.Encryption {
	case "age", "none", "":
		return NewAgeEncryptor(cfg), nil
	case "test":
		return NewTestEncryptor(), nil
	default:
		return nil, fmt.Errorf("unknown encryption type: %q", cfg.Encryption)
	}
}

// Enabled reports whether exports should be encrypted under cfg.
func Enabled(cfg config.ArchiveConfig) bool {
	return cfg.Encryption == "age" || cfg.Encryption == "test"
}

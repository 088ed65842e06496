package encryption

import (
	"bytes"
	"fmt"
	"io"

	"rulingsafe/internal/rs"
)

// testHeader prefixes every archive sealed by TestEncryptor.
var testHeader = []byte("RSENC\x00\x00\x00")

// TestEncryptor backs `encryption = "test"`: archives are framed with
// testHeader instead of being encrypted, so export/import and passphrase
// prompts can be exercised without key files.
type TestEncryptor struct {
	passphrase string
	setups     int
}

var _ rs.Encryptor = (*TestEncryptor)(nil)

// NewTestEncryptor returns a TestEncryptor whose passphrase is "".
func NewTestEncryptor() *TestEncryptor {
	return &TestEncryptor{}
}

// Setup replaces the passphrase Unlock expects.
func (e *TestEncryptor) Setup(passphrase string) error {
	e.passphrase = passphrase
	e.setups++
	return nil
}

// Encrypt copies r to w behind testHeader.
func (e *TestEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	if _, err := w.Write(testHeader); err != nil {
		return fmt.Errorf("writing archive header: %w", err)
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("sealing archive: %w", err)
	}
	return nil
}

// Unlock succeeds only for the passphrase given to the last Setup.
func (e *TestEncryptor) Unlock(passphrase string) (rs.DecryptionContext, error) {
	if passphrase != e.passphrase {
		return nil, fmt.Errorf("decrypting private key: incorrect passphrase")
	}
	return &TestDecryptionContext{}, nil
}

// IsConfigured is always true; there are no key files to miss.
func (e *TestEncryptor) IsConfigured() bool {
	return true
}

// TestDecryptionContext opens archives sealed by TestEncryptor.
type TestDecryptionContext struct{}

var _ rs.DecryptionContext = (*TestDecryptionContext)(nil)

func (c *TestDecryptionContext) Decrypt(r io.Reader, w io.Writer) error {
	header := make([]byte, len(testHeader))
	if _, err := io.ReadFull(r, header); err != nil {
		return fmt.Errorf("%w: archive too short: %v", rs.ErrInvalid, err)
	}
	if !bytes.Equal(header, testHeader) {
		return fmt.Errorf("%w: archive was not sealed with the test encryptor", rs.ErrInvalid)
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	return nil
}

package archive

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"rulingsafe/internal/rs"
)

var gzipMagic = []byte{0x1f, 0x8b}

// IsPlain reports whether the stream behind br starts like an unencrypted
// archive. Nothing is consumed.
func IsPlain(br *bufio.Reader) (bool, error) {
	head, err := br.Peek(len(gzipMagic))
	if err != nil {
		return false, fmt.Errorf("%w: reading archive header: %v", rs.ErrInvalid, err)
	}
	return bytes.Equal(head, gzipMagic), nil
}

// Seal runs write against a pipe whose output enc encrypts into w.
func Seal(w io.Writer, enc rs.Encryptor, write func(io.Writer) error) error {
	pr, pw := io.Pipe()
	errCh := make(chan error, 1)
	go func() {
		err := write(pw)
		pw.CloseWithError(err)
		errCh <- err
	}()

	encErr := enc.Encrypt(pr, w)
	pr.CloseWithError(encErr) // unblock the writer if Encrypt failed early
	writeErr := <-errCh

	if writeErr != nil {
		return writeErr
	}
	if encErr != nil {
		return fmt.Errorf("encrypting archive: %w", encErr)
	}
	return nil
}

// Unseal runs read against the plaintext dec produces from r.
func Unseal(r io.Reader, dec rs.DecryptionContext, read func(io.Reader) error) error {
	pr, pw := io.Pipe()
	errCh := make(chan error, 1)
	go func() {
		err := dec.Decrypt(r, pw)
		pw.CloseWithError(err)
		errCh <- err
	}()

	readErr := read(pr)
	// Drain so a short read does not leave Decrypt blocked on the pipe.
	io.Copy(io.Discard, pr)
	pr.Close()
	decErr := <-errCh

	if decErr != nil {
		return fmt.Errorf("decrypting archive: %w", decErr)
	}
	return readErr
}

// WriteFile creates destPath with the output of write. The file appears
// only once write succeeds; an existing destPath is never overwritten.
func WriteFile(destPath string, write func(io.Writer) error) error {
	if _, err := os.Stat(destPath); err == nil {
		return fmt.Errorf("output file %s %w", destPath, rs.ErrDuplicate)
	}

	dir := filepath.Dir(destPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	bw := bufio.NewWriter(tmpFile)
	if err := write(bw); err != nil {
		tmpFile.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

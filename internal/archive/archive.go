// Package archive packs a single case (its record, links and documents)
// into a gzip-compressed tar stream and unpacks it into another storage
// root or user.
//
// Layout of an archive:
//
//	case.json            the case record
//	case/links.json      copied from the case folder
//	case/documents/...   copied from the case folder
package archive

import (
	"archive/tar"
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"rulingsafe/internal/rs"
)

const (
	// ManifestName is the first entry of every archive.
	ManifestName = "case.json"
	// folderPrefix holds the case folder contents.
	folderPrefix = "case/"
)

// Export writes c and the files under caseFolder to w. Files for which skip
// returns true (given the slash-separated path relative to caseFolder) are
// left out. Returns the number of files written besides the manifest.
func Export(w io.Writer, c *rs.Case, caseFolder string, skip func(rel string) bool) (int, error) {
	gz := gzip.NewWriter(w)
	tw := tar.NewWriter(gz)

	manifest, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("encoding case record: %w", err)
	}
	hdr := &tar.Header{
		Typeflag: tar.TypeReg,
		Name:     ManifestName,
		Mode:     0644,
		Size:     int64(len(manifest)),
		ModTime:  c.LastUpdated.Time,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return 0, fmt.Errorf("writing manifest header: %w", err)
	}
	if _, err := tw.Write(manifest); err != nil {
		return 0, fmt.Errorf("writing manifest: %w", err)
	}

	count := 0
	err = filepath.WalkDir(caseFolder, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(caseFolder, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if skip != nil && skip(rel) {
			return nil
		}
		if err := addFile(tw, p, folderPrefix+rel); err != nil {
			return fmt.Errorf("adding %s: %w", rel, err)
		}
		count++
		return nil
	})
	if err != nil {
		return count, fmt.Errorf("walking case folder: %w", err)
	}

	if err := tw.Close(); err != nil {
		return count, fmt.Errorf("finalizing tar: %w", err)
	}
	if err := gz.Close(); err != nil {
		return count, fmt.Errorf("finalizing gzip: %w", err)
	}
	return count, nil
}

func addFile(tw *tar.Writer, srcPath, name string) error {
	f, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = name
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err = io.Copy(tw, f)
	return err
}

// RestoreFunc records the imported case and returns the folder its files
// should be extracted into.
type RestoreFunc func(c rs.Case) (caseFolder string, err error)

// Result describes a completed import.
type Result struct {
	Case  *rs.Case
	Files int
}

// Import reads an archive from r, hands the case record to restore, then
// extracts the case files into the folder restore returned.
func Import(r io.Reader, restore RestoreFunc) (*Result, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: not a case archive: %v", rs.ErrInvalid, err)
	}
	defer gz.Close()
	tr := tar.NewReader(gz)

	hdr, err := tr.Next()
	if err != nil {
		return nil, fmt.Errorf("%w: reading archive: %v", rs.ErrInvalid, err)
	}
	if hdr.Name != ManifestName {
		return nil, fmt.Errorf("%w: archive does not start with %s", rs.ErrInvalid, ManifestName)
	}
	var c rs.Case
	if err := json.NewDecoder(tr).Decode(&c); err != nil {
		return nil, fmt.Errorf("%w: decoding case record: %v", rs.ErrInvalid, err)
	}

	folder, err := restore(c)
	if err != nil {
		return nil, err
	}
	result := &Result{Case: &c}

	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return result, fmt.Errorf("reading archive: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		dest, err := entryPath(folder, hdr.Name)
		if err != nil {
			return result, err
		}
		if err := extractFile(tr, dest, hdr); err != nil {
			return result, fmt.Errorf("extracting %s: %w", hdr.Name, err)
		}
		result.Files++
	}
	return result, nil
}

// entryPath maps an archive entry name to a path inside caseFolder,
// rejecting names that would land outside it.
func entryPath(caseFolder, name string) (string, error) {
	if !strings.HasPrefix(name, folderPrefix) {
		return "", fmt.Errorf("%w: unexpected archive entry %q", rs.ErrInvalid, name)
	}
	rel := path.Clean(strings.TrimPrefix(name, folderPrefix))
	if rel == "." || path.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("%w: unsafe archive entry %q", rs.ErrInvalid, name)
	}
	return filepath.Join(caseFolder, filepath.FromSlash(rel)), nil
}

func extractFile(r io.Reader, dest string, hdr *tar.Header) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	perm := hdr.FileInfo().Mode().Perm()
	f, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Chtimes(dest, hdr.ModTime, hdr.ModTime)
}

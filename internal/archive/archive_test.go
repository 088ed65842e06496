package archive

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"rulingsafe/internal/rs"
	"rulingsafe/internal/testutil"
)

func sampleCase() *rs.Case {
	ts := rs.NewTimestamp(time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC))
	return &rs.Case{
		Key:         "Smith v Jones_2021",
		CaseNo:      "CV-12",
		CaseName:    "Smith v Jones",
		Year:        "2021",
		Court:       "High Court",
		CreatedAt:   ts,
		LastUpdated: ts,
	}
}

func sampleFolder(t *testing.T) string {
	t.Helper()
	folder := filepath.Join(t.TempDir(), "Smith v Jones_2021")
	testutil.WriteFile(t, filepath.Join(folder, rs.LinksFileName), `{"links": []}`)
	testutil.WriteFile(t, filepath.Join(folder, rs.DocumentsDirName, "brief.pdf"), "brief")
	testutil.WriteFile(t, filepath.Join(folder, rs.DocumentsDirName, ".DS_Store"), "junk")
	return folder
}

func TestExportImport_RoundTrip(t *testing.T) {
	src := sampleFolder(t)

	var buf bytes.Buffer
	n, err := Export(&buf, sampleCase(), src, func(rel string) bool {
		return strings.HasSuffix(rel, ".DS_Store")
	})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Export() wrote %d files, want 2", n)
	}

	dest := filepath.Join(t.TempDir(), "restored")
	var restored rs.Case
	result, err := Import(&buf, func(c rs.Case) (string, error) {
		restored = c
		return dest, nil
	})
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if result.Files != 2 {
		t.Errorf("Import() extracted %d files, want 2", result.Files)
	}
	if restored.CaseName != "Smith v Jones" || restored.Court != "High Court" {
		t.Errorf("restored case = %+v", restored)
	}
	if !restored.CreatedAt.Equal(sampleCase().CreatedAt.Time) {
		t.Errorf("CreatedAt = %v", restored.CreatedAt)
	}

	data, err := os.ReadFile(filepath.Join(dest, rs.DocumentsDirName, "brief.pdf"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "brief" {
		t.Errorf("brief.pdf = %q", data)
	}
	if testutil.Exists(t, filepath.Join(dest, rs.DocumentsDirName, ".DS_Store")) {
		t.Error("skipped file was exported")
	}
	if !testutil.Exists(t, filepath.Join(dest, rs.LinksFileName)) {
		t.Error("links.json not restored")
	}
}

func TestImport_RestoreErrorStopsExtraction(t *testing.T) {
	var buf bytes.Buffer
	if _, err := Export(&buf, sampleCase(), sampleFolder(t), nil); err != nil {
		t.Fatal(err)
	}

	dest := t.TempDir()
	_, err := Import(&buf, func(rs.Case) (string, error) {
		return dest, rs.ErrDuplicate
	})
	if !errors.Is(err, rs.ErrDuplicate) {
		t.Fatalf("Import() error = %v, want ErrDuplicate", err)
	}
	entries, err := os.ReadDir(dest)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("files extracted despite restore error: %d", len(entries))
	}
}

func TestImport_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		entries []string
	}{
		{name: "missing manifest", entries: []string{"case/links.json"}},
		{name: "path traversal", entries: []string{ManifestName, "case/../../evil"}},
		{name: "absolute path", entries: []string{ManifestName, "/etc/passwd"}},
		{name: "foreign entry", entries: []string{ManifestName, "other/file"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := buildArchive(t, tt.entries)
			dest := filepath.Join(t.TempDir(), "case")

			_, err := Import(bytes.NewReader(data), func(rs.Case) (string, error) {
				return dest, nil
			})
			if !errors.Is(err, rs.ErrInvalid) {
				t.Errorf("Import() error = %v, want ErrInvalid", err)
			}
		})
	}

	t.Run("not gzip", func(t *testing.T) {
		_, err := Import(strings.NewReader("plain text"), func(rs.Case) (string, error) {
			t.Fatal("restore called")
			return "", nil
		})
		if !errors.Is(err, rs.ErrInvalid) {
			t.Errorf("Import() error = %v, want ErrInvalid", err)
		}
	})
}

func TestEntryPath(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{name: "case/documents/a.pdf", want: filepath.Join("/root", "documents", "a.pdf")},
		{name: "case/documents/../links.json", want: filepath.Join("/root", "links.json")},
		{name: "case/../x", wantErr: true},
		{name: "case/", wantErr: true},
		{name: "case.json", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := entryPath("/root", tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("entryPath() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("entryPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

// buildArchive writes a gzip'd tar with the named entries. The manifest
// entry gets a valid case record; every other entry gets a short body.
func buildArchive(t *testing.T, names []string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for _, name := range names {
		body := []byte("x")
		if name == ManifestName {
			body = []byte(`{"key": "A_2020", "case_name": "A", "year": "2020"}`)
		}
		if err := tw.WriteHeader(&tar.Header{Name: name, Mode: 0644, Size: int64(len(body)), Typeflag: tar.TypeReg}); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write(body); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

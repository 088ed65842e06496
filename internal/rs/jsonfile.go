package rs

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// readList reads a list document at path. Both the enveloped shape
// {"<field>": [...]} and a bare array are accepted.
//
// The read is tolerant: a missing, empty or undecodable file yields an
// empty list. Undecodable content is logged so the loss is visible.
// Only real I/O failures (permissions and the like) are returned.
func readList[T any](path, field string, logger Logger) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []T{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	items, err := decodeList[T](data, field)
	if err != nil {
		logger.Warn("recovered from corrupt file", "path", path, "error", err)
		return []T{}, nil
	}
	for i := range items {
		if r, ok := any(&items[i]).(interface{ badTimestamps() []string }); ok {
			if bad := r.badTimestamps(); len(bad) > 0 {
				logger.Warn("unrecognized timestamp", "path", path, "index", i, "values", bad)
			}
		}
	}
	return items, nil
}

func decodeList[T any](data []byte, field string) ([]T, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return []T{}, nil
	}

	var items []T
	if data[0] == '[' {
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, err
		}
	} else {
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(data, &envelope); err != nil {
			return nil, err
		}
		if raw, ok := envelope[field]; ok {
			if err := json.Unmarshal(raw, &items); err != nil {
				return nil, err
			}
		}
	}

	if items == nil {
		items = []T{}
	}
	return items, nil
}

// writeList rewrites the whole document at path as {"<field>": [...]}.
// The parent directory is created if needed. The write is not atomic.
func writeList[T any](path, field string, items []T) error {
	if items == nil {
		items = []T{}
	}
	return writeJSON(path, map[string][]T{field: items})
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

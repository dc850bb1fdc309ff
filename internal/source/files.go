package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"finance-analytics/internal/records"
)

// Files reads tables from a local directory. For each kind it looks for
// "<file>.csv" first and falls back to "<file>.xlsx".
type Files struct {
	Dir string
}

// NewFiles returns a Files source rooted at dir.
func NewFiles(dir string) *Files {
	return &Files{Dir: dir}
}

var fileExtensions = []string{".csv", ".xlsx"}

func (s *Files) Read(ctx context.Context, kind records.Kind) (*records.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.find(kind)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if filepath.Ext(path) == ".csv" {
		return ReadCSV(kind, f)
	}
	return ReadWorkbook(kind, f)
}

func (s *Files) find(kind records.Kind) (string, error) {
	base := filepath.Join(s.Dir, records.SchemaFor(kind).File)
	for _, ext := range fileExtensions {
		path := base + ext
		_, err := os.Stat(path)
		if err == nil {
			return path, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("stat %s: %w", path, err)
		}
	}
	return "", fmt.Errorf("%s: no file at %s.{csv,xlsx}: %w", kind, base, ErrNotFound)
}

func (s *Files) Location(kind records.Kind) string {
	if path, err := s.find(kind); err == nil {
		return path
	}
	return filepath.Join(s.Dir, records.SchemaFor(kind).File+".csv")
}

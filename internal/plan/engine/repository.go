package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrReportNotFound is returned when no report has been persisted yet.
var ErrReportNotFound = errors.New("engine: report not found")

// ReportStore persists run reports.
type ReportStore interface {
	Load() (Report, error)
	Save(Report) error
}

// Repository stores a report at a file path. Files ending in .yaml or .yml
// are written as YAML, anything else as JSON.
type Repository struct {
	path string
}

// NewRepository creates a repository for path.
func NewRepository(path string) *Repository {
	return &Repository{path: path}
}

// Path returns the backing file.
func (r *Repository) Path() string {
	return r.path
}

func (r *Repository) yaml() bool {
	switch strings.ToLower(filepath.Ext(r.path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}

// Load reads the persisted report if present.
func (r *Repository) Load() (Report, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Report{}, ErrReportNotFound
		}
		return Report{}, err
	}
	var report Report
	if r.yaml() {
		err = yaml.Unmarshal(data, &report)
	} else {
		err = json.Unmarshal(data, &report)
	}
	if err != nil {
		return Report{}, fmt.Errorf("engine: decode report %s: %w", r.path, err)
	}
	return report, nil
}

// Save writes the report to disk, creating parent directories.
func (r *Repository) Save(report Report) error {
	if dir := filepath.Dir(r.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	var (
		encoded []byte
		err     error
	)
	if r.yaml() {
		encoded, err = yaml.Marshal(report)
	} else {
		encoded, err = json.MarshalIndent(report, "", "  ")
		encoded = append(encoded, '\n')
	}
	if err != nil {
		return fmt.Errorf("engine: encode report: %w", err)
	}
	return os.WriteFile(r.path, encoded, 0o644)
}

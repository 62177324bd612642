package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"treatviz/internal/model"
	"treatviz/internal/repository"
)

// SettingsFileName is the settings file name inside the data directory.
const SettingsFileName = "settings.json"

// SettingsFile is a JSON-file implementation of repository.SettingsRepository.
type SettingsFile struct {
	dir string
}

// NewSettingsFile creates a repository storing settings in dir/settings.json.
func NewSettingsFile(dir string) *SettingsFile {
	return &SettingsFile{dir: dir}
}

var _ repository.SettingsRepository = (*SettingsFile)(nil)

// Path returns the settings file location.
func (r *SettingsFile) Path() string {
	return filepath.Join(r.dir, SettingsFileName)
}

// Ensure creates the data directory if missing.
func (r *SettingsFile) Ensure(ctx context.Context) error {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	return nil
}

// Load reads and decodes the settings file.
func (r *SettingsFile) Load(ctx context.Context) (*model.Settings, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(r.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, repository.ErrSettingsNotFound
		}
		return nil, fmt.Errorf("read settings: %w", err)
	}
	s, err := model.ParseSettings(b)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Save writes the settings to a temp file in the same directory and renames it
// over the old file. It does not create the directory; call Ensure first.
func (r *SettingsFile) Save(ctx context.Context, s *model.Settings) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	tmp, err := os.CreateTemp(r.dir, ".settings-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp settings: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close settings: %w", err)
	}
	if err := os.Rename(tmpPath, r.Path()); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}

// Ping checks that the data directory is accessible.
func (r *SettingsFile) Ping(ctx context.Context) error {
	st, err := os.Stat(r.dir)
	if err != nil {
		return err
	}
	if !st.IsDir() {
		return fmt.Errorf("%s is not a directory", r.dir)
	}
	return nil
}

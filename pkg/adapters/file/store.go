package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/arche/pkg/ports"
	"github.com/aretw0/arche/pkg/record"
)

// Store implements ports.ProjectStore using the local filesystem.
// It stores one record file per project in a configured directory.
type Store struct {
	BasePath string
	Format   record.Format
}

// Option configures a Store.
type Option func(*Store)

// WithFormat sets the serialization used for new files. Defaults to YAML.
func WithFormat(f record.Format) Option {
	return func(s *Store) {
		s.Format = f
	}
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".arche/projects".
func New(basePath string, opts ...Option) *Store {
	if basePath == "" {
		basePath = filepath.Join(".arche", "projects")
	}
	s := &Store{BasePath: basePath, Format: record.FormatYAML}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) path(projectID string, f record.Format) string {
	return filepath.Join(s.BasePath, projectID+f.Ext())
}

// Save persists the project record atomically.
// It writes to a temporary file first, syncs via fsync, and then renames it to the destination.
// A file of the same project in the other format is removed.
func (s *Store) Save(ctx context.Context, projectID string, rec record.Record) error {
	if err := validateID(projectID); err != nil {
		return err
	}

	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure project directory: %w", err)
	}

	data, err := record.Marshal(rec, s.Format)
	if err != nil {
		return fmt.Errorf("failed to marshal project: %w", err)
	}

	destPath := s.path(projectID, s.Format)

	// Same directory keeps the rename on one filesystem.
	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-"+projectID+"-*"+s.Format.Ext())
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// On Windows, os.Rename fails if dest exists.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to remove existing project file for overwrite: %w", err)
		}
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file to project file: %w", err)
	}

	for _, other := range []record.Format{record.FormatJSON, record.FormatYAML} {
		if other != s.Format {
			_ = os.Remove(s.path(projectID, other))
		}
	}
	return nil
}

// Load retrieves the project record, trying the configured format first.
func (s *Store) Load(ctx context.Context, projectID string) (record.Record, error) {
	if err := validateID(projectID); err != nil {
		return record.Record{}, err
	}

	for _, f := range s.formats() {
		data, err := os.ReadFile(s.path(projectID, f))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return record.Record{}, fmt.Errorf("failed to read project file: %w", err)
		}
		rec, err := record.Unmarshal(data, f)
		if err != nil {
			return record.Record{}, fmt.Errorf("failed to unmarshal project %s: %w", projectID, err)
		}
		return rec, nil
	}
	return record.Record{}, ports.ErrProjectNotFound
}

// Delete removes the project files.
func (s *Store) Delete(ctx context.Context, projectID string) error {
	if err := validateID(projectID); err != nil {
		return err
	}

	for _, f := range s.formats() {
		err := os.Remove(s.path(projectID, f))
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete project file: %w", err)
		}
	}
	return nil
}

// List returns all stored project IDs.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	seen := make(map[string]struct{})
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, "tmp-") {
			continue
		}
		if _, err := record.FormatFromPath(name); err != nil {
			continue
		}
		seen[strings.TrimSuffix(name, filepath.Ext(name))] = struct{}{}
	}

	projects := make([]string, 0, len(seen))
	for id := range seen {
		projects = append(projects, id)
	}
	sort.Strings(projects)
	return projects, nil
}

func (s *Store) formats() []record.Format {
	if s.Format == record.FormatJSON {
		return []record.Format{record.FormatJSON, record.FormatYAML}
	}
	return []record.Format{record.FormatYAML, record.FormatJSON}
}

func validateID(projectID string) error {
	if projectID == "" {
		return fmt.Errorf("projectID cannot be empty")
	}
	if strings.ContainsAny(projectID, `/\`) || projectID == "." || projectID == ".." {
		return fmt.Errorf("invalid projectID %q", projectID)
	}
	return nil
}

package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/arche/pkg/ports"
	"github.com/aretw0/arche/pkg/record"
)

// Store implements ports.ProjectStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string][]byte
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string][]byte),
	}
}

// Save persists the record in memory.
func (s *Store) Save(ctx context.Context, projectID string, rec record.Record) error {
	if projectID == "" {
		return fmt.Errorf("projectID cannot be empty")
	}

	// Store the serialized form so callers never share maps with the store.
	data, err := record.Marshal(rec, record.FormatJSON)
	if err != nil {
		return fmt.Errorf("failed to marshal project: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[projectID] = data
	return nil
}

// Load retrieves the record from memory.
func (s *Store) Load(ctx context.Context, projectID string) (record.Record, error) {
	s.mu.RLock()
	data, ok := s.data[projectID]
	s.mu.RUnlock()

	if !ok {
		return record.Record{}, ports.ErrProjectNotFound
	}
	return record.Unmarshal(data, record.FormatJSON)
}

// Delete removes the project.
func (s *Store) Delete(ctx context.Context, projectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, projectID)
	return nil
}

// List returns stored projects in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	projects := make([]string, 0, len(s.data))
	for id := range s.data {
		projects = append(projects, id)
	}
	sort.Strings(projects)
	return projects, nil
}

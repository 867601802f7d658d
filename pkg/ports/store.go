package ports

import (
	"context"
	"errors"

	"github.com/aretw0/arche/pkg/record"
)

// ErrProjectNotFound is returned when a store has no record for a project id.
var ErrProjectNotFound = errors.New("project not found")

// ProjectStore defines the interface for persisting project trees.
type ProjectStore interface {
	// Save persists the record of a project, replacing any previous one.
	Save(ctx context.Context, projectID string, rec record.Record) error

	// Load retrieves the record of a project.
	// Returns ErrProjectNotFound if the project does not exist.
	Load(ctx context.Context, projectID string) (record.Record, error)

	// Delete removes a project. Deleting an unknown project is not an error.
	Delete(ctx context.Context, projectID string) error

	// List returns the ids of every stored project.
	List(ctx context.Context) ([]string, error)
}

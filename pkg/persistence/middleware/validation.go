package middleware

import (
	"context"
	"fmt"

	"github.com/aretw0/arche/pkg/ports"
	"github.com/aretw0/arche/pkg/record"
)

type validationMiddleware struct {
	next ports.ProjectStore
}

// NewValidationMiddleware creates a middleware that refuses to save records
// whose tree cannot be assembled (unknown kinds, missing attributes, invalid
// parameters, duplicate ids).
func NewValidationMiddleware() Middleware {
	return func(next ports.ProjectStore) ports.ProjectStore {
		return &validationMiddleware{next: next}
	}
}

func (m *validationMiddleware) Save(ctx context.Context, projectID string, rec record.Record) error {
	t, err := record.BuildTree(rec)
	if err != nil {
		return fmt.Errorf("refusing to save %s: %w", projectID, err)
	}
	t.Close()
	return m.next.Save(ctx, projectID, rec)
}

func (m *validationMiddleware) Load(ctx context.Context, projectID string) (record.Record, error) {
	return m.next.Load(ctx, projectID)
}

func (m *validationMiddleware) Delete(ctx context.Context, projectID string) error {
	return m.next.Delete(ctx, projectID)
}

func (m *validationMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

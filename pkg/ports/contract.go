package ports

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/arche/pkg/record"
)

// contractRecord is a small project exercising nested children, parameters
// and an expression field.
func contractRecord(projectID string) record.Record {
	return record.Record{
		Version: record.SupportedVersion,
		Kind:    "root",
		ID:      projectID,
		OwnerID: "contract",
		Name:    "Contract",
		Folders: map[string]string{"observations": "obs"},
		Children: []record.Record{
			{
				Kind:       "material",
				ID:         "rock",
				OwnerID:    "contract",
				Parameters: map[string]any{"poisson": 0.25, "young": 10.0, "density": 2.5},
			},
			{
				Kind:    "folder-discontinuity",
				ID:      "obs",
				OwnerID: "contract",
				Children: []record.Record{{
					Kind:    "boundary-condition",
					ID:      "bc",
					OwnerID: "contract",
					Parameters: map[string]any{
						"dipAxis": map[string]any{"type": "free", "field": "x + 1"},
					},
				}},
			},
		},
	}
}

// RunProjectStoreContract runs a suite of tests to verify that a ProjectStore
// implementation adheres to the defined interface contract.
func RunProjectStoreContract(t *testing.T, store ProjectStore) {
	ctx := context.Background()
	projectID := "contract-test-project-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		rec := contractRecord(projectID)
		require.NoError(t, store.Save(ctx, projectID, rec), "Save should not return error")

		loaded, err := store.Load(ctx, projectID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, rec.ID, loaded.ID)
		assert.Equal(t, rec.Folders, loaded.Folders)
		require.Len(t, loaded.Children, 2)
		assert.Equal(t, "bc", loaded.Children[1].Children[0].ID)

		// The loaded record must build into the same tree.
		tr, err := record.BuildTree(loaded)
		require.NoError(t, err)
		assert.Equal(t, 4, tr.Len())
	})

	t.Run("Save Replaces", func(t *testing.T) {
		rec := contractRecord(projectID)
		rec.Name = "Renamed"
		rec.Children = rec.Children[:1]
		require.NoError(t, store.Save(ctx, projectID, rec))

		loaded, err := store.Load(ctx, projectID)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", loaded.Name)
		assert.Len(t, loaded.Children, 1)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+projectID)
		assert.ErrorIs(t, err, ErrProjectNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, projectID, contractRecord(projectID)))
		require.NoError(t, store.Delete(ctx, projectID), "Delete should not return error")

		_, err := store.Load(ctx, projectID)
		assert.ErrorIs(t, err, ErrProjectNotFound, "Load after Delete should return ErrProjectNotFound")

		assert.NoError(t, store.Delete(ctx, projectID), "Delete of a missing project should succeed")
	})

	t.Run("List", func(t *testing.T) {
		ids := make([]string, 2)
		for i := range ids {
			ids[i] = fmt.Sprintf("%s-%d", projectID, i+1)
			require.NoError(t, store.Save(ctx, ids[i], contractRecord(ids[i])))
		}
		defer func() {
			for _, id := range ids {
				_ = store.Delete(ctx, id)
			}
		}()

		projects, err := store.List(ctx)
		require.NoError(t, err)
		for _, id := range ids {
			assert.Contains(t, projects, id)
		}
	})
}

package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/arche/pkg/adapters/redis"
	"github.com/aretw0/arche/pkg/ports"
	"github.com/aretw0/arche/pkg/record"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)
	ports.RunProjectStoreContract(t, redis.NewFromClient(client))
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := newClient(t)

	store := redis.NewFromClient(client, redis.WithTTL(1*time.Second))
	ctx := context.Background()
	projectID := "project-ttl"

	require.NoError(t, store.Save(ctx, projectID, record.Record{Kind: "root", ID: projectID, OwnerID: "u"}))

	projects, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, projects, projectID)

	mr.FastForward(2 * time.Second)

	_, err = store.Load(ctx, projectID)
	assert.ErrorIs(t, err, ports.ErrProjectNotFound)

	// Index pruning compares against the wall clock, not miniredis time.
	time.Sleep(1200 * time.Millisecond)

	projects, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, projects)
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, client := newClient(t)

	store := redis.NewFromClient(client, redis.WithPrefix("custom:app:"))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "my-project", record.Record{Kind: "root", OwnerID: "u"}))

	assert.True(t, mr.Exists("custom:app:my-project"), "Expected key with custom prefix to exist")
	assert.True(t, mr.Exists("custom:app:index"), "Expected index with custom prefix to exist")

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, list, "my-project")
}

func TestRedisStore_DefaultPrefix(t *testing.T) {
	mr, client := newClient(t)

	store := redis.NewFromClient(client)
	require.NoError(t, store.Save(context.Background(), "p", record.Record{Kind: "root", OwnerID: "u"}))
	assert.True(t, mr.Exists(redis.DefaultPrefix+"p"))
	assert.Same(t, client, store.Client())
}

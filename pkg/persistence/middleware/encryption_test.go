package middleware_test

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/arche/pkg/adapters/memory"
	"github.com/aretw0/arche/pkg/persistence/middleware"
	"github.com/aretw0/arche/pkg/ports"
	"github.com/aretw0/arche/pkg/record"
)

func generateKey(t *testing.T) []byte {
	t.Helper()
	k := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func secretRecord() record.Record {
	return record.Record{
		Kind:    "root",
		ID:      "project",
		OwnerID: "user-1",
		Name:    "Confidential Basin",
		Children: []record.Record{
			{Kind: "material", ID: "rock", OwnerID: "user-1", Parameters: map[string]any{"young": 30000.0}},
		},
	}
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ports.RunProjectStoreContract(t, mw(memory.NewStore()))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := memory.NewStore()
	secure := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)
	ctx := context.Background()

	require.NoError(t, secure.Save(ctx, "p1", secretRecord()))

	// The underlying store only sees the envelope.
	stored, err := underlying.Load(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "project", stored.ID)
	assert.Equal(t, "user-1", stored.OwnerID)
	assert.Empty(t, stored.Name)
	assert.Empty(t, stored.Children)
	assert.Contains(t, stored.Parameters, "__encrypted__")

	loaded, err := secure.Load(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Confidential Basin", loaded.Name)
	require.Len(t, loaded.Children, 1)
	assert.Equal(t, 30000.0, loaded.Children[0].Parameters["young"])
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := memory.NewStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)
	ctx := context.Background()

	secureOld := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})(underlying)
	require.NoError(t, secureOld.Save(ctx, "p1", secretRecord()))

	secureNew := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})(underlying)

	loaded, err := secureNew.Load(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Confidential Basin", loaded.Name)

	// Saving again re-encrypts with the new key.
	require.NoError(t, secureNew.Save(ctx, "p1", loaded))
	_, err = secureOld.Load(ctx, "p1")
	assert.Error(t, err)
}

func TestEncryptionMiddleware_RejectsPlainRecords(t *testing.T) {
	underlying := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, underlying.Save(ctx, "plain", secretRecord()))

	secure := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)
	_, err := secure.Load(ctx, "plain")
	assert.ErrorIs(t, err, middleware.ErrNotEncrypted)

	_, err = secure.Load(ctx, "missing")
	assert.ErrorIs(t, err, ports.ErrProjectNotFound)
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	assert.Panics(t, func() {
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	})
}

func TestParseKey(t *testing.T) {
	key := generateKey(t)
	parsed, err := middleware.ParseKey(base64.StdEncoding.EncodeToString(key))
	require.NoError(t, err)
	assert.Equal(t, key, parsed)

	_, err = middleware.ParseKey(base64.StdEncoding.EncodeToString([]byte("short")))
	assert.Error(t, err)

	_, err = middleware.ParseKey("not base64!")
	assert.Error(t, err)
}

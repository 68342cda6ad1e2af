package models_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/maxdollinger/imagespec/internal/db"
	"github.com/maxdollinger/imagespec/internal/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	specDB, err := db.NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { specDB.Close() })
	require.NoError(t, db.InitSchema(context.Background(), specDB))
	return specDB
}

func TestImageConfigCRUD(t *testing.T) {
	ctx := context.Background()
	specDB := newTestDB(t)

	cfg := &models.ImageConfig{
		ID:           "0190c0de-0000-7000-8000-000000000001",
		Digest:       "sha256:aaaa",
		Reference:    "docker.io/library/nginx:latest",
		Architecture: "amd64",
		OS:           "linux",
		Document:     []byte(`{"architecture":"amd64"}`),
	}
	require.NoError(t, models.UpsertImageConfig(ctx, specDB, cfg))
	assert.False(t, cfg.CreatedAt.IsZero())

	// same digest again keeps the first id and does not clear the reference
	again := &models.ImageConfig{
		ID:           "0190c0de-0000-7000-8000-000000000002",
		Digest:       "sha256:aaaa",
		Architecture: "amd64",
		OS:           "linux",
		Document:     []byte(`{"architecture":"amd64"}`),
	}
	require.NoError(t, models.UpsertImageConfig(ctx, specDB, again))
	assert.Equal(t, cfg.ID, again.ID)
	assert.Equal(t, "docker.io/library/nginx:latest", again.Reference)

	got, err := models.GetImageConfigByDigest(ctx, specDB, "sha256:aaaa")
	require.NoError(t, err)
	assert.Equal(t, cfg.Document, got.Document)
	assert.Equal(t, "linux", got.OS)

	other := &models.ImageConfig{
		ID:           "0190c0de-0000-7000-8000-000000000003",
		Digest:       "sha256:bbbb",
		Architecture: "arm64",
		OS:           "linux",
		Document:     []byte(`{}`),
	}
	require.NoError(t, models.UpsertImageConfig(ctx, specDB, other))

	list, err := models.ListImageConfigs(ctx, specDB)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, models.DeleteImageConfig(ctx, specDB, "sha256:aaaa"))
	_, err = models.GetImageConfigByDigest(ctx, specDB, "sha256:aaaa")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.ErrorIs(t, models.DeleteImageConfig(ctx, specDB, "sha256:aaaa"), sql.ErrNoRows)
}

func TestInitSchemaIsIdempotent(t *testing.T) {
	specDB := newTestDB(t)
	assert.NoError(t, db.InitSchema(context.Background(), specDB))
}

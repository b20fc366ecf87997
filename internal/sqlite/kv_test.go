package sqlite

import (
	"context"
	"testing"

	"github.com/phil-jonesQ/app-ruuner/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestKVRepository(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewKVRepository(db)

	_, err := repo.GetValue(ctx, "legacy_imported_at")
	require.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, repo.SetValue(ctx, "legacy_imported_at", "2024-01-01T00:00:00Z"))
	require.NoError(t, repo.SetValue(ctx, "legacy_imported_at", "2024-02-01T00:00:00Z"))

	value, err := repo.GetValue(ctx, "legacy_imported_at")
	require.NoError(t, err)
	require.Equal(t, "2024-02-01T00:00:00Z", value)

	version, err := repo.GetValue(ctx, "schema_version")
	require.NoError(t, err)
	require.Equal(t, "2", version)
}

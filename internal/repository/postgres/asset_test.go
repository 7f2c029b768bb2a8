package postgres

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jgivc/assetimporter/internal/common"
	"github.com/jgivc/assetimporter/internal/entity"
	"github.com/stretchr/testify/require"
)

const testDatabaseURLEnv = "ASSETIMPORTER_TEST_DATABASE_URL"

func TestWriteError(t *testing.T) {
	r := &AssetRepository{table: tableName}

	testCases := []struct {
		name   string
		err    error
		target error
	}{
		{
			name:   "duplicate",
			err:    fmt.Errorf("insert: %w", &pgconn.PgError{Code: pgUniqueViolation}),
			target: common.ErrPathExists,
		},
		{
			name:   "foreign key",
			err:    &pgconn.PgError{Code: pgForeignKeyViolation},
			target: common.ErrNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.ErrorIs(t, r.writeError("asset", "/a.txt", tc.err), tc.target)
		})
	}

	err := r.writeError("asset", "/a.txt", io.ErrUnexpectedEOF)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	require.False(t, errors.Is(err, common.ErrPathExists))
}

func TestIsPgNoRowsError(t *testing.T) {
	require.True(t, isPgNoRowsError(fmt.Errorf("scan: %w", pgx.ErrNoRows)))
	require.False(t, isPgNoRowsError(io.EOF))
}

func newTestRepository(t *testing.T) *AssetRepository {
	t.Helper()

	databaseURL := os.Getenv(testDatabaseURLEnv)
	if databaseURL == "" {
		t.Skipf("%s is not set", testDatabaseURLEnv)
	}

	ctx := context.Background()
	pool, err := CreateConnectionPool(ctx, databaseURL)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	prefix := "t" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12] + "_"
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := NewAssetRepository(pool, prefix, log)
	require.NoError(t, r.EnsureSchema(ctx))

	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), "DROP TABLE IF EXISTS "+r.table)
	})

	return r
}

func TestAssetRepository(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()

	// Second call must keep the existing root.
	require.NoError(t, r.EnsureSchema(ctx))

	root, err := r.GetFolderByPath(ctx, entity.RootPath)
	require.NoError(t, err)
	require.Equal(t, entity.RootID, root.ID)

	images, err := r.CreateFolder(ctx, root, "Images")
	require.NoError(t, err)
	require.Equal(t, "/Images", images.FullPath)
	require.Greater(t, images.ID, entity.RootID)

	_, err = r.CreateFolder(ctx, root, "Images")
	require.ErrorIs(t, err, common.ErrPathExists)

	asset, err := r.CreateAsset(ctx, images, "a.png", "/src/a.png", []byte("\x89PNG\r\n\x1a\n"), true)
	require.NoError(t, err)
	require.True(t, asset.Persisted())

	found, err := r.GetAssetByPath(ctx, "/Images/a.png")
	require.NoError(t, err)
	require.Equal(t, asset.ID, found.ID)
	require.Equal(t, entity.AssetTypeImage, found.Type)

	_, err = r.GetFolderByPath(ctx, "/Images/a.png")
	require.ErrorIs(t, err, common.ErrNotAFolder)

	_, err = r.GetAssetByPath(ctx, "/Images")
	require.ErrorIs(t, err, common.ErrNotFound)

	found.SetContent([]byte("changed"))
	require.NoError(t, r.SaveAsset(ctx, found))

	updated, err := r.GetAssetByPath(ctx, "/Images/a.png")
	require.NoError(t, err)
	require.Equal(t, []byte("changed"), updated.Data)
	require.Equal(t, asset.ID, updated.ID)

	exists, err := r.PathExists(ctx, "/Images/a.png")
	require.NoError(t, err)
	require.True(t, exists)

	require.NoError(t, r.DeleteAsset(ctx, updated))

	exists, err = r.PathExists(ctx, "/Images/a.png")
	require.NoError(t, err)
	require.False(t, exists)

	_, err = r.CreateFolder(ctx, &entity.Folder{ID: 99999, FullPath: "/missing"}, "x")
	require.ErrorIs(t, err, common.ErrNotFound)
}

// Package postgres is the PostgreSQL backed asset repository. Folders and
// assets share one table keyed by their unique full path.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jgivc/assetimporter/internal/common"
	"github.com/jgivc/assetimporter/internal/entity"
	"github.com/jgivc/assetimporter/internal/util"
)

const tableName = "assets"

type AssetRepository struct {
	pool  *pgxpool.Pool
	table string
	log   *slog.Logger
}

func NewAssetRepository(pool *pgxpool.Pool, tablePrefix string, log *slog.Logger) *AssetRepository {
	return &AssetRepository{
		pool:  pool,
		table: tablePrefix + tableName,
		log:   log.With(slog.String("item", "AssetRepository")),
	}
}

// EnsureSchema creates the table and the root folder when missing.
func (r *AssetRepository) EnsureSchema(ctx context.Context) error {
	statements := []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %[1]s (
				id          BIGSERIAL PRIMARY KEY,
				parent_id   BIGINT REFERENCES %[1]s (id),
				filename    TEXT NOT NULL,
				path        TEXT NOT NULL UNIQUE,
				type        TEXT NOT NULL,
				mime_type   TEXT NOT NULL DEFAULT '',
				source_path TEXT NOT NULL DEFAULT '',
				checksum    TEXT NOT NULL DEFAULT '',
				data        BYTEA,
				created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
				modified_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`, r.table),
		fmt.Sprintf(`
			INSERT INTO %s (id, parent_id, filename, path, type)
			VALUES (%d, NULL, '', '%s', '%s')
			ON CONFLICT DO NOTHING`, r.table, entity.RootID, entity.RootPath, entity.AssetTypeFolder),
		fmt.Sprintf(`
			SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), GREATEST((SELECT MAX(id) FROM %[1]s), 1))`, r.table),
	}

	for _, stmt := range statements {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}

	return nil
}

func (r *AssetRepository) PathExists(ctx context.Context, path string) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE path = $1)`, r.table)

	var exists bool
	if err := r.pool.QueryRow(ctx, query, entity.JoinPath(path)).Scan(&exists); err != nil {
		return false, fmt.Errorf("check path %s: %w", path, err)
	}

	return exists, nil
}

func (r *AssetRepository) GetFolderByPath(ctx context.Context, path string) (*entity.Folder, error) {
	path = entity.JoinPath(path)
	query := fmt.Sprintf(`
		SELECT id, COALESCE(parent_id, 0), filename, path, type
		FROM %s
		WHERE path = $1
	`, r.table)

	var (
		folder    entity.Folder
		assetType string
	)
	err := r.pool.QueryRow(ctx, query, path).Scan(
		&folder.ID,
		&folder.ParentID,
		&folder.Filename,
		&folder.FullPath,
		&assetType,
	)
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("folder %s: %w", path, common.ErrNotFound)
		}

		return nil, fmt.Errorf("get folder: %w", err)
	}

	if assetType != entity.AssetTypeFolder.String() {
		return nil, fmt.Errorf("%s: %w", path, common.ErrNotAFolder)
	}

	return &folder, nil
}

func (r *AssetRepository) GetAssetByPath(ctx context.Context, path string) (*entity.Asset, error) {
	path = entity.JoinPath(path)
	query := fmt.Sprintf(`
		SELECT id, COALESCE(parent_id, 0), filename, path, type, mime_type, source_path, checksum, data, created_at, modified_at
		FROM %s
		WHERE path = $1 AND type <> $2
	`, r.table)

	var (
		asset     entity.Asset
		assetType string
	)
	err := r.pool.QueryRow(ctx, query, path, entity.AssetTypeFolder.String()).Scan(
		&asset.ID,
		&asset.ParentID,
		&asset.Filename,
		&asset.FullPath,
		&assetType,
		&asset.MIMEType,
		&asset.SourcePath,
		&asset.Checksum,
		&asset.Data,
		&asset.CreatedAt,
		&asset.ModifiedAt,
	)
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("asset %s: %w", path, common.ErrNotFound)
		}

		return nil, fmt.Errorf("get asset: %w", err)
	}
	asset.Type = entity.AssetType(assetType)

	return &asset, nil
}

func (r *AssetRepository) CreateFolder(ctx context.Context, parent *entity.Folder, name string) (*entity.Folder, error) {
	if name == "" || strings.Contains(name, "/") {
		return nil, fmt.Errorf("invalid folder name %q", name)
	}

	folder := &entity.Folder{
		ParentID: parent.ID,
		Filename: name,
		FullPath: parent.ChildPath(name),
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (parent_id, filename, path, type)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, r.table)

	err := r.pool.QueryRow(ctx, query,
		parent.ID,
		name,
		folder.FullPath,
		entity.AssetTypeFolder.String(),
	).Scan(&folder.ID)
	if err != nil {
		return nil, r.writeError("folder", folder.FullPath, err)
	}

	return folder, nil
}

func (r *AssetRepository) CreateAsset(ctx context.Context, parent *entity.Folder, filename, sourcePath string, data []byte, persist bool) (*entity.Asset, error) {
	asset := util.NewAsset(parent, filename, sourcePath, data)
	if persist {
		if err := r.SaveAsset(ctx, asset); err != nil {
			return nil, err
		}
	}

	return asset, nil
}

func (r *AssetRepository) SaveAsset(ctx context.Context, asset *entity.Asset) error {
	now := time.Now()
	checksum := util.Checksum(asset.Data)

	if asset.Persisted() {
		mimeType := util.DetectMIMEType(asset.Filename, asset.Data)
		query := fmt.Sprintf(`
			UPDATE %s
			SET data = $1, mime_type = $2, checksum = $3, modified_at = $4
			WHERE id = $5 AND path = $6
		`, r.table)

		result, err := r.pool.Exec(ctx, query, asset.Data, mimeType, checksum, now, asset.ID, asset.FullPath)
		if err != nil {
			return fmt.Errorf("update asset %s: %w", asset.FullPath, err)
		}

		if result.RowsAffected() == 0 {
			return fmt.Errorf("asset %d at %s: %w", asset.ID, asset.FullPath, common.ErrNotFound)
		}

		asset.MIMEType = mimeType
		asset.Checksum = checksum
		asset.ModifiedAt = now

		return nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (parent_id, filename, path, type, mime_type, source_path, checksum, data, created_at, modified_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		RETURNING id
	`, r.table)

	err := r.pool.QueryRow(ctx, query,
		asset.ParentID,
		asset.Filename,
		asset.FullPath,
		asset.Type.String(),
		asset.MIMEType,
		asset.SourcePath,
		checksum,
		asset.Data,
		now,
	).Scan(&asset.ID)
	if err != nil {
		return r.writeError("asset", asset.FullPath, err)
	}

	asset.Checksum = checksum
	asset.CreatedAt = now
	asset.ModifiedAt = now

	return nil
}

func (r *AssetRepository) DeleteAsset(ctx context.Context, asset *entity.Asset) error {
	if !asset.Persisted() {
		return nil
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND type <> $2`, r.table)
	if _, err := r.pool.Exec(ctx, query, asset.ID, entity.AssetTypeFolder.String()); err != nil {
		return fmt.Errorf("delete asset %s: %w", asset.FullPath, err)
	}

	return nil
}

func (r *AssetRepository) SanitizeFilename(raw string) string {
	return util.ValidFilename(raw)
}

func (r *AssetRepository) ListAssetTypes() []string {
	types := make([]string, 0, len(entity.AssetTypes))
	for _, t := range entity.AssetTypes {
		types = append(types, t.String())
	}

	return types
}

func (r *AssetRepository) writeError(kind, path string, err error) error {
	switch {
	case isPgDuplicateError(err):
		return fmt.Errorf("%s %s: %w", kind, path, common.ErrPathExists)
	case isPgForeignKeyError(err):
		return fmt.Errorf("parent folder of %s %s: %w", kind, path, common.ErrNotFound)
	}

	return fmt.Errorf("create %s %s: %w", kind, path, err)
}

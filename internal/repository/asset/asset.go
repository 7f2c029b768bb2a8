// Package asset is the Redis backed asset repository.
package asset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jgivc/assetimporter/internal/common"
	"github.com/jgivc/assetimporter/internal/entity"
	"github.com/jgivc/assetimporter/internal/util"
	"github.com/redis/go-redis/v9"
)

const (
	KeySequence = "seq"      // STRING. INCR node id generator.
	KeyPaths    = "paths"    // HASH. full_path: node_id
	KeyNode     = "node"     // HASH. node:id field: value
	KeyData     = "data"     // STRING. data:id asset content
	KeyChildren = "children" // SET. children:folder_id node_id

	KeySeparator = ":"

	fieldID         = "id"
	fieldParentID   = "parent_id"
	fieldFilename   = "filename"
	fieldPath       = "path"
	fieldType       = "type"
	fieldMIMEType   = "mime"
	fieldSourcePath = "source_path"
	fieldChecksum   = "checksum"
	fieldCreatedAt  = "created_at"
	fieldModifiedAt = "modified_at"
)

type assetRepository struct {
	cl     *redis.Client
	prefix string
	log    *slog.Logger
}

// NewAssetRepository returns a repository storing its keys under prefix and
// makes sure the root folder exists.
func NewAssetRepository(ctx context.Context, cl *redis.Client, prefix string, log *slog.Logger) (*assetRepository, error) {
	repo := &assetRepository{
		cl:     cl,
		prefix: prefix,
		log:    log.With(slog.String("item", "AssetRepository")),
	}

	if err := repo.bootstrap(ctx); err != nil {
		return nil, fmt.Errorf("cannot create root folder: %w", err)
	}

	return repo, nil
}

// bootstrap writes the root node before its path is claimed, so an interrupted
// bootstrap is completed by the next run.
func (r *assetRepository) bootstrap(ctx context.Context) error {
	n, err := r.cl.Exists(ctx, r.nodeKey(entity.RootID)).Result()
	if err != nil {
		return err
	}

	if n == 0 {
		r.log.Info("Root folder is not found. Create new one", slog.Int64("id", entity.RootID))

		now := formatTime(time.Now())
		err = r.cl.HSet(ctx, r.nodeKey(entity.RootID), map[string]any{
			fieldID:         entity.RootID,
			fieldParentID:   0,
			fieldFilename:   "",
			fieldPath:       entity.RootPath,
			fieldType:       entity.AssetTypeFolder.String(),
			fieldCreatedAt:  now,
			fieldModifiedAt: now,
		}).Err()
		if err != nil {
			return err
		}
	}

	_, err = r.cl.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, r.key(KeySequence), entity.RootID, 0)
		pipe.HSetNX(ctx, r.key(KeyPaths), entity.RootPath, entity.RootID)

		return nil
	})

	return err
}

func (r *assetRepository) PathExists(ctx context.Context, path string) (bool, error) {
	ok, err := r.cl.HExists(ctx, r.key(KeyPaths), entity.JoinPath(path)).Result()
	if err != nil {
		return false, fmt.Errorf("cannot check path %s: %w", path, err)
	}

	return ok, nil
}

func (r *assetRepository) GetFolderByPath(ctx context.Context, path string) (*entity.Folder, error) {
	node, err := r.getNode(ctx, entity.JoinPath(path))
	if err != nil {
		return nil, err
	}

	if node[fieldType] != entity.AssetTypeFolder.String() {
		return nil, fmt.Errorf("%s: %w", path, common.ErrNotAFolder)
	}

	return nodeToFolder(node)
}

func (r *assetRepository) GetAssetByPath(ctx context.Context, path string) (*entity.Asset, error) {
	path = entity.JoinPath(path)

	node, err := r.getNode(ctx, path)
	if err != nil {
		return nil, err
	}

	if node[fieldType] == entity.AssetTypeFolder.String() {
		return nil, fmt.Errorf("asset %s: %w", path, common.ErrNotFound)
	}

	asset, err := nodeToAsset(node)
	if err != nil {
		return nil, err
	}

	data, err := r.cl.Get(ctx, r.key(KeyData, node[fieldID])).Bytes()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("cannot get asset %s data: %w", path, err)
	}
	asset.Data = data

	return asset, nil
}

func (r *assetRepository) CreateFolder(ctx context.Context, parent *entity.Folder, name string) (*entity.Folder, error) {
	if name == "" || strings.Contains(name, "/") {
		return nil, fmt.Errorf("invalid folder name %q", name)
	}

	folder := &entity.Folder{
		ParentID: parent.ID,
		Filename: name,
		FullPath: parent.ChildPath(name),
	}

	id, err := r.claimPath(ctx, parent.FullPath, folder.FullPath)
	if err != nil {
		return nil, err
	}
	folder.ID = id

	now := formatTime(time.Now())
	_, err = r.cl.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.nodeKey(id), map[string]any{
			fieldID:         id,
			fieldParentID:   parent.ID,
			fieldFilename:   name,
			fieldPath:       folder.FullPath,
			fieldType:       entity.AssetTypeFolder.String(),
			fieldCreatedAt:  now,
			fieldModifiedAt: now,
		})
		pipe.SAdd(ctx, r.childrenKey(parent.ID), id)

		return nil
	})
	if err != nil {
		r.releasePath(ctx, folder.FullPath)

		return nil, fmt.Errorf("cannot save folder %s: %w", folder.FullPath, err)
	}

	r.log.Debug("Folder created", slog.String("path", folder.FullPath), slog.Int64("id", id))

	return folder, nil
}

func (r *assetRepository) CreateAsset(ctx context.Context, parent *entity.Folder, filename, sourcePath string, data []byte, persist bool) (*entity.Asset, error) {
	asset := util.NewAsset(parent, filename, sourcePath, data)
	if persist {
		if err := r.SaveAsset(ctx, asset); err != nil {
			return nil, err
		}
	}

	return asset, nil
}

func (r *assetRepository) SaveAsset(ctx context.Context, asset *entity.Asset) error {
	now := time.Now()

	if asset.Persisted() {
		return r.updateAsset(ctx, asset, now)
	}

	id, err := r.claimPath(ctx, entity.JoinPath(asset.FullPath, ".."), asset.FullPath)
	if err != nil {
		return err
	}

	checksum := util.Checksum(asset.Data)
	_, err = r.cl.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.nodeKey(id), map[string]any{
			fieldID:         id,
			fieldParentID:   asset.ParentID,
			fieldFilename:   asset.Filename,
			fieldPath:       asset.FullPath,
			fieldType:       asset.Type.String(),
			fieldMIMEType:   asset.MIMEType,
			fieldSourcePath: asset.SourcePath,
			fieldChecksum:   checksum,
			fieldCreatedAt:  formatTime(now),
			fieldModifiedAt: formatTime(now),
		})
		pipe.Set(ctx, r.key(KeyData, strconv.FormatInt(id, 10)), asset.Data, 0)
		pipe.SAdd(ctx, r.childrenKey(asset.ParentID), id)

		return nil
	})
	if err != nil {
		r.releasePath(ctx, asset.FullPath)

		return fmt.Errorf("cannot save asset %s: %w", asset.FullPath, err)
	}

	asset.ID = id
	asset.Checksum = checksum
	asset.CreatedAt = now
	asset.ModifiedAt = now

	return nil
}

func (r *assetRepository) updateAsset(ctx context.Context, asset *entity.Asset, now time.Time) error {
	idStr := strconv.FormatInt(asset.ID, 10)

	storedID, err := r.cl.HGet(ctx, r.key(KeyPaths), asset.FullPath).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return fmt.Errorf("asset %s: %w", asset.FullPath, common.ErrNotFound)
		}

		return fmt.Errorf("cannot get asset %s: %w", asset.FullPath, err)
	}

	if storedID != idStr {
		return fmt.Errorf("asset %d at %s: %w", asset.ID, asset.FullPath, common.ErrNotFound)
	}

	mimeType := util.DetectMIMEType(asset.Filename, asset.Data)
	checksum := util.Checksum(asset.Data)

	_, err = r.cl.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.nodeKey(asset.ID), map[string]any{
			fieldMIMEType:   mimeType,
			fieldChecksum:   checksum,
			fieldModifiedAt: formatTime(now),
		})
		pipe.Set(ctx, r.key(KeyData, idStr), asset.Data, 0)

		return nil
	})
	if err != nil {
		return fmt.Errorf("cannot update asset %s: %w", asset.FullPath, err)
	}

	asset.MIMEType = mimeType
	asset.Checksum = checksum
	asset.ModifiedAt = now

	return nil
}

func (r *assetRepository) DeleteAsset(ctx context.Context, asset *entity.Asset) error {
	if !asset.Persisted() {
		return nil
	}

	idStr := strconv.FormatInt(asset.ID, 10)
	_, err := r.cl.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, r.key(KeyPaths), asset.FullPath)
		pipe.Del(ctx, r.key(KeyNode, idStr), r.key(KeyData, idStr))
		pipe.SRem(ctx, r.childrenKey(asset.ParentID), asset.ID)

		return nil
	})
	if err != nil {
		return fmt.Errorf("cannot delete asset %s: %w", asset.FullPath, err)
	}

	return nil
}

func (r *assetRepository) SanitizeFilename(raw string) string {
	return util.ValidFilename(raw)
}

func (r *assetRepository) ListAssetTypes() []string {
	types := make([]string, 0, len(entity.AssetTypes))
	for _, t := range entity.AssetTypes {
		types = append(types, t.String())
	}

	return types
}

// claimPath reserves path for a new node under parentPath and returns its id.
func (r *assetRepository) claimPath(ctx context.Context, parentPath, path string) (int64, error) {
	parentOK, err := r.cl.HExists(ctx, r.key(KeyPaths), parentPath).Result()
	if err != nil {
		return 0, fmt.Errorf("cannot check parent %s: %w", parentPath, err)
	}

	if !parentOK {
		return 0, fmt.Errorf("parent folder %s: %w", parentPath, common.ErrNotFound)
	}

	id, err := r.cl.Incr(ctx, r.key(KeySequence)).Result()
	if err != nil {
		return 0, fmt.Errorf("cannot get next id: %w", err)
	}

	ok, err := r.cl.HSetNX(ctx, r.key(KeyPaths), path, id).Result()
	if err != nil {
		return 0, fmt.Errorf("cannot claim path %s: %w", path, err)
	}

	if !ok {
		return 0, fmt.Errorf("%s: %w", path, common.ErrPathExists)
	}

	return id, nil
}

func (r *assetRepository) releasePath(ctx context.Context, path string) {
	if err := r.cl.HDel(ctx, r.key(KeyPaths), path).Err(); err != nil {
		r.log.Error("Cannot release path", slog.String("path", path), slog.Any("error", err))
	}
}

func (r *assetRepository) getNode(ctx context.Context, path string) (map[string]string, error) {
	id, err := r.cl.HGet(ctx, r.key(KeyPaths), path).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%s: %w", path, common.ErrNotFound)
		}

		return nil, fmt.Errorf("cannot get path %s: %w", path, err)
	}

	node, err := r.cl.HGetAll(ctx, r.key(KeyNode, id)).Result()
	if err != nil {
		return nil, fmt.Errorf("cannot get node %s: %w", id, err)
	}

	if len(node) == 0 {
		return nil, fmt.Errorf("node %s of %s: %w", id, path, common.ErrNotFound)
	}

	return node, nil
}

func (r *assetRepository) key(keys ...string) string {
	if r.prefix != "" {
		keys = append([]string{r.prefix}, keys...)
	}

	return strings.Join(keys, KeySeparator)
}

func (r *assetRepository) nodeKey(id int64) string {
	return r.key(KeyNode, strconv.FormatInt(id, 10))
}

func (r *assetRepository) childrenKey(id int64) string {
	return r.key(KeyChildren, strconv.FormatInt(id, 10))
}

func nodeToFolder(node map[string]string) (*entity.Folder, error) {
	id, parentID, err := nodeIDs(node)
	if err != nil {
		return nil, err
	}

	return &entity.Folder{
		ID:       id,
		ParentID: parentID,
		Filename: node[fieldFilename],
		FullPath: node[fieldPath],
	}, nil
}

func nodeToAsset(node map[string]string) (*entity.Asset, error) {
	id, parentID, err := nodeIDs(node)
	if err != nil {
		return nil, err
	}

	return &entity.Asset{
		ID:         id,
		ParentID:   parentID,
		Filename:   node[fieldFilename],
		FullPath:   node[fieldPath],
		Type:       entity.AssetType(node[fieldType]),
		MIMEType:   node[fieldMIMEType],
		SourcePath: node[fieldSourcePath],
		Checksum:   node[fieldChecksum],
		CreatedAt:  parseTime(node[fieldCreatedAt]),
		ModifiedAt: parseTime(node[fieldModifiedAt]),
	}, nil
}

func nodeIDs(node map[string]string) (int64, int64, error) {
	id, err := strconv.ParseInt(node[fieldID], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("cannot parse node id %q: %w", node[fieldID], err)
	}

	parentID, err := strconv.ParseInt(node[fieldParentID], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("cannot parse parent id %q: %w", node[fieldParentID], err)
	}

	return id, parentID, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}

	return t
}

// Package memory is an in-memory asset repository. It keeps the same
// contract as the Redis and PostgreSQL repositories and is used by tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jgivc/assetimporter/internal/common"
	"github.com/jgivc/assetimporter/internal/entity"
	"github.com/jgivc/assetimporter/internal/util"
)

const (
	OpCreateFolder = "CreateFolder"
	OpSaveAsset    = "SaveAsset"
	OpPathExists   = "PathExists"
)

type Repository struct {
	mu      sync.Mutex
	seq     int64
	folders map[string]*entity.Folder
	assets  map[string]*entity.Asset
	failOn  map[string]error

	FolderCreates int
	AssetCreates  int
	AssetUpdates  int
}

func NewRepository() *Repository {
	return &Repository{
		seq: entity.RootID,
		folders: map[string]*entity.Folder{
			entity.RootPath: {ID: entity.RootID, FullPath: entity.RootPath},
		},
		assets: make(map[string]*entity.Asset),
		failOn: make(map[string]error),
	}
}

// FailOn makes every following call of op return err. A nil err clears it.
func (r *Repository) FailOn(op string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err == nil {
		delete(r.failOn, op)

		return
	}

	r.failOn[op] = err
}

func (r *Repository) PathExists(_ context.Context, path string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.failOn[OpPathExists]; err != nil {
		return false, err
	}

	path = entity.JoinPath(path)
	_, isFolder := r.folders[path]
	_, isAsset := r.assets[path]

	return isFolder || isAsset, nil
}

func (r *Repository) GetFolderByPath(_ context.Context, path string) (*entity.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	path = entity.JoinPath(path)
	if folder, ok := r.folders[path]; ok {
		f := *folder

		return &f, nil
	}

	if _, ok := r.assets[path]; ok {
		return nil, fmt.Errorf("%s: %w", path, common.ErrNotAFolder)
	}

	return nil, fmt.Errorf("folder %s: %w", path, common.ErrNotFound)
}

func (r *Repository) GetAssetByPath(_ context.Context, path string) (*entity.Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	path = entity.JoinPath(path)
	asset, ok := r.assets[path]
	if !ok {
		return nil, fmt.Errorf("asset %s: %w", path, common.ErrNotFound)
	}

	return copyAsset(asset), nil
}

func (r *Repository) CreateFolder(_ context.Context, parent *entity.Folder, name string) (*entity.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.failOn[OpCreateFolder]; err != nil {
		return nil, err
	}

	if name == "" || strings.Contains(name, "/") {
		return nil, fmt.Errorf("invalid folder name %q", name)
	}

	if _, ok := r.folders[parent.FullPath]; !ok {
		return nil, fmt.Errorf("parent folder %s: %w", parent.FullPath, common.ErrNotFound)
	}

	path := parent.ChildPath(name)
	if r.exists(path) {
		return nil, fmt.Errorf("folder %s: %w", path, common.ErrPathExists)
	}

	r.seq++
	folder := &entity.Folder{
		ID:       r.seq,
		ParentID: parent.ID,
		Filename: name,
		FullPath: path,
	}
	r.folders[path] = folder
	r.FolderCreates++

	f := *folder

	return &f, nil
}

func (r *Repository) CreateAsset(ctx context.Context, parent *entity.Folder, filename, sourcePath string, data []byte, persist bool) (*entity.Asset, error) {
	asset := util.NewAsset(parent, filename, sourcePath, data)
	if persist {
		if err := r.SaveAsset(ctx, asset); err != nil {
			return nil, err
		}
	}

	return asset, nil
}

func (r *Repository) SaveAsset(_ context.Context, asset *entity.Asset) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.failOn[OpSaveAsset]; err != nil {
		return err
	}

	now := time.Now()

	if asset.Persisted() {
		stored, ok := r.assets[asset.FullPath]
		if !ok || stored.ID != asset.ID {
			return fmt.Errorf("asset %d: %w", asset.ID, common.ErrNotFound)
		}

		asset.MIMEType = util.DetectMIMEType(asset.Filename, asset.Data)
		asset.Checksum = util.Checksum(asset.Data)
		asset.ModifiedAt = now
		r.assets[asset.FullPath] = copyAsset(asset)
		r.AssetUpdates++

		return nil
	}

	parentPath := entity.JoinPath(asset.FullPath, "..")
	if parent, ok := r.folders[parentPath]; !ok || parent.ID != asset.ParentID {
		return fmt.Errorf("parent folder %s: %w", parentPath, common.ErrNotFound)
	}

	if r.exists(asset.FullPath) {
		return fmt.Errorf("asset %s: %w", asset.FullPath, common.ErrPathExists)
	}

	r.seq++
	asset.ID = r.seq
	asset.Checksum = util.Checksum(asset.Data)
	asset.CreatedAt = now
	asset.ModifiedAt = now
	r.assets[asset.FullPath] = copyAsset(asset)
	r.AssetCreates++

	return nil
}

func (r *Repository) DeleteAsset(_ context.Context, asset *entity.Asset) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !asset.Persisted() {
		return nil
	}

	delete(r.assets, asset.FullPath)

	return nil
}

func (r *Repository) SanitizeFilename(raw string) string {
	return util.ValidFilename(raw)
}

func (r *Repository) ListAssetTypes() []string {
	types := make([]string, 0, len(entity.AssetTypes))
	for _, t := range entity.AssetTypes {
		types = append(types, t.String())
	}

	return types
}

// FolderPaths returns all folder paths, sorted.
func (r *Repository) FolderPaths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	paths := make([]string, 0, len(r.folders))
	for p := range r.folders {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	return paths
}

// AssetPaths returns all asset paths, sorted.
func (r *Repository) AssetPaths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	paths := make([]string, 0, len(r.assets))
	for p := range r.assets {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	return paths
}

func (r *Repository) exists(path string) bool {
	_, isFolder := r.folders[path]
	_, isAsset := r.assets[path]

	return isFolder || isAsset
}

func copyAsset(a *entity.Asset) *entity.Asset {
	c := *a
	c.Data = append([]byte(nil), a.Data...)

	return &c
}

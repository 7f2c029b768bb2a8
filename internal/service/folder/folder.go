// Package folder resolves relative source directories to repository folders,
// creating the missing levels top-down.
package folder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jgivc/assetimporter/internal/common"
	"github.com/jgivc/assetimporter/internal/entity"
)

type FolderRepository interface {
	PathExists(ctx context.Context, path string) (bool, error)
	GetFolderByPath(ctx context.Context, path string) (*entity.Folder, error)
	CreateFolder(ctx context.Context, parent *entity.Folder, name string) (*entity.Folder, error)
}

type Normalizer interface {
	Normalize(relDir string) string
}

// Resolver is not safe for concurrent use: existence check and create are not
// atomic and files must be imported one at a time.
type Resolver struct {
	repo       FolderRepository
	normalizer Normalizer
	root       *entity.Folder
	log        *slog.Logger

	created int
}

func NewResolver(repo FolderRepository, normalizer Normalizer, root *entity.Folder, log *slog.Logger) *Resolver {
	return &Resolver{
		repo:       repo,
		normalizer: normalizer,
		root:       root,
		log:        log.With(slog.String("item", "FolderResolver")),
	}
}

// FolderPath returns the repository folder path for relDir.
func (r *Resolver) FolderPath(relDir string) string {
	return entity.JoinPath(r.root.FullPath, r.normalizer.Normalize(relDir))
}

// Created returns the number of folders created so far.
func (r *Resolver) Created() int {
	return r.created
}

func (r *Resolver) Resolve(ctx context.Context, relDir string) (*entity.Folder, error) {
	relDir = strings.Trim(relDir, "/")
	if relDir == "" || relDir == "." {
		return r.root, nil
	}

	folderPath := r.FolderPath(relDir)

	exists, err := r.repo.PathExists(ctx, folderPath)
	if err != nil {
		return nil, fmt.Errorf("cannot check folder %s: %w: %w", folderPath, common.ErrParentFolderNotFound, err)
	}

	if exists {
		folder, err := r.repo.GetFolderByPath(ctx, folderPath)
		if err != nil {
			return nil, fmt.Errorf("cannot get folder %s: %w: %w", folderPath, common.ErrParentFolderNotFound, err)
		}

		return folder, nil
	}

	return r.createByPath(ctx, folderPath)
}

func (r *Resolver) createByPath(ctx context.Context, folderPath string) (*entity.Folder, error) {
	rel := strings.TrimPrefix(strings.TrimPrefix(folderPath, r.root.FullPath), "/")

	current := r.root
	for _, segment := range strings.Split(rel, "/") {
		if segment == "" {
			continue
		}

		levelPath := current.ChildPath(segment)

		exists, err := r.repo.PathExists(ctx, levelPath)
		if err != nil {
			return nil, fmt.Errorf("cannot check folder %s: %w: %w", levelPath, common.ErrParentFolderNotFound, err)
		}

		if exists {
			folder, err := r.repo.GetFolderByPath(ctx, levelPath)
			if err != nil {
				return nil, fmt.Errorf("cannot get folder %s: %w: %w", levelPath, common.ErrParentFolderNotFound, err)
			}

			current = folder

			continue
		}

		folder, err := r.repo.CreateFolder(ctx, current, segment)
		if err != nil {
			if errors.Is(err, common.ErrPathExists) {
				r.log.Warn("Folder was created concurrently", slog.String("path", levelPath))
			}

			return nil, fmt.Errorf("cannot create folder %s: %w: %w", levelPath, common.ErrParentFolderNotFound, err)
		}

		r.created++
		r.log.Debug("Created folder", slog.String("path", folder.FullPath), slog.Int64("id", folder.ID))
		current = folder
	}

	return current, nil
}

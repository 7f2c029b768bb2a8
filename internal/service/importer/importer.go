// Package importer reconciles a single source file with the asset repository:
// it creates, updates or skips the matching asset.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jgivc/assetimporter/internal/common"
	"github.com/jgivc/assetimporter/internal/entity"
)

type AssetRepository interface {
	PathExists(ctx context.Context, path string) (bool, error)
	GetAssetByPath(ctx context.Context, path string) (*entity.Asset, error)
	CreateAsset(ctx context.Context, parent *entity.Folder, filename, sourcePath string, data []byte, persist bool) (*entity.Asset, error)
	SaveAsset(ctx context.Context, asset *entity.Asset) error
	DeleteAsset(ctx context.Context, asset *entity.Asset) error
	SanitizeFilename(raw string) string
}

type FolderResolver interface {
	FolderPath(relDir string) string
	Resolve(ctx context.Context, relDir string) (*entity.Folder, error)
}

type Filter interface {
	AllowExtension(ext string) bool
	AllowType(assetType string) bool
}

type SourceFS interface {
	ReadFile(file *entity.SourceFile) ([]byte, error)
	Remove(file *entity.SourceFile) error
}

// Recorder receives the side effects of an import for reporting.
type Recorder interface {
	OriginalDeleted()
	OriginalDeleteFailed()
}

type Reconciler struct {
	repo     AssetRepository
	folders  FolderResolver
	filter   Filter
	fs       SourceFS
	session  *entity.Session
	recorder Recorder
	log      *slog.Logger
}

func NewReconciler(repo AssetRepository, folders FolderResolver, filter Filter, fs SourceFS, session *entity.Session, recorder Recorder, log *slog.Logger) *Reconciler {
	return &Reconciler{
		repo:     repo,
		folders:  folders,
		filter:   filter,
		fs:       fs,
		session:  session,
		recorder: recorder,
		log:      log.With(slog.String("item", "Reconciler")),
	}
}

// ExpectedPath returns the repository path the file is imported to.
func (r *Reconciler) ExpectedPath(file *entity.SourceFile) string {
	return entity.JoinPath(r.folders.FolderPath(file.RelDir), r.repo.SanitizeFilename(file.Name))
}

// ImportFile imports one file. A Failed outcome always comes with an error and
// must stop the run. The original is deleted only after the repository write
// succeeded.
func (r *Reconciler) ImportFile(ctx context.Context, file *entity.SourceFile) (entity.Outcome, error) {
	if !r.filter.AllowExtension(file.Ext) {
		r.log.Info(fmt.Sprintf("File extension for %s is not allowed.", file.RelPath), slog.String("ext", file.Ext))
		r.deleteOriginal(file)

		return entity.OutcomeSkipped, nil
	}

	// A name made only of blanks or dots has no valid asset name. The original
	// is kept since nothing was imported.
	if r.repo.SanitizeFilename(file.Name) == "" {
		r.log.Warn(fmt.Sprintf("File name of %s is not valid.", file.RelPath))

		return entity.OutcomeSkipped, nil
	}

	expectedPath := r.ExpectedPath(file)

	exists, err := r.repo.PathExists(ctx, expectedPath)
	if err != nil {
		return entity.OutcomeFailed, fmt.Errorf("cannot check asset %s: %w", expectedPath, err)
	}

	var outcome entity.Outcome
	if exists {
		outcome, err = r.updateAsset(ctx, file, expectedPath)
	} else {
		outcome, err = r.createAsset(ctx, file)
	}

	if err != nil {
		return entity.OutcomeFailed, err
	}

	r.deleteOriginal(file)

	return outcome, nil
}

func (r *Reconciler) updateAsset(ctx context.Context, file *entity.SourceFile, expectedPath string) (entity.Outcome, error) {
	asset, err := r.repo.GetAssetByPath(ctx, expectedPath)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			// A folder occupies the path.
			return entity.OutcomeFailed, fmt.Errorf("cannot import to %s: %w", expectedPath, common.ErrPathExists)
		}

		return entity.OutcomeFailed, fmt.Errorf("cannot get asset %s: %w", expectedPath, err)
	}

	if !r.session.UpdateAssets {
		r.log.Info(fmt.Sprintf("NOT updating existing file %q.", expectedPath))

		return entity.OutcomeSkipped, nil
	}

	if !r.isAssetAllowed(asset) {
		return entity.OutcomeSkipped, nil
	}

	data, err := r.fs.ReadFile(file)
	if err != nil {
		return entity.OutcomeFailed, err
	}

	asset.SetContent(data)
	if err := r.repo.SaveAsset(ctx, asset); err != nil {
		return entity.OutcomeFailed, fmt.Errorf("cannot update asset %s: %w", expectedPath, err)
	}

	r.log.Info(fmt.Sprintf("Updating existing file %q.", expectedPath), slog.Int64("id", asset.ID))

	return entity.OutcomeUpdated, nil
}

func (r *Reconciler) createAsset(ctx context.Context, file *entity.SourceFile) (entity.Outcome, error) {
	parent, err := r.folders.Resolve(ctx, file.RelDir)
	if err != nil {
		return entity.OutcomeFailed, fmt.Errorf("unable to find parent folder asset for file %s: %w", file.RelPath, err)
	}

	if parent == nil {
		return entity.OutcomeFailed, fmt.Errorf("unable to find parent folder asset for file %s: %w", file.RelPath, common.ErrParentFolderNotFound)
	}

	data, err := r.fs.ReadFile(file)
	if err != nil {
		return entity.OutcomeFailed, err
	}

	asset, err := r.repo.CreateAsset(ctx, parent, r.repo.SanitizeFilename(file.Name), file.AbsPath, data, false)
	if err != nil {
		return entity.OutcomeFailed, fmt.Errorf("cannot create asset for file %s: %w", file.RelPath, err)
	}

	if !r.isAssetAllowed(asset) {
		// Unpersisted assets are just dropped.
		if asset.Persisted() {
			if err := r.repo.DeleteAsset(ctx, asset); err != nil {
				return entity.OutcomeFailed, fmt.Errorf("cannot drop rejected asset %s: %w", asset.FullPath, err)
			}
		}

		return entity.OutcomeSkipped, nil
	}

	if err := r.repo.SaveAsset(ctx, asset); err != nil {
		return entity.OutcomeFailed, fmt.Errorf("cannot save asset %s: %w", asset.FullPath, err)
	}

	r.log.Info(fmt.Sprintf("Imported %s %q to %s", asset.GetType(), file.RelPath, asset.GetFullPath()), slog.Int64("id", asset.ID))

	return entity.OutcomeCreated, nil
}

func (r *Reconciler) isAssetAllowed(asset *entity.Asset) bool {
	if r.filter.AllowType(asset.GetType()) {
		return true
	}

	r.log.Info(fmt.Sprintf("Asset %s of type %s is not allowed.", asset.GetFullPath(), asset.GetType()))

	return false
}

func (r *Reconciler) deleteOriginal(file *entity.SourceFile) {
	if file.IsDir || !r.session.DeleteOriginal {
		return
	}

	r.log.Info("Deleting original file: " + file.AbsPath)

	if err := r.fs.Remove(file); err != nil {
		r.log.Error("Cannot delete original file", slog.String("path", file.AbsPath), slog.Any("error", err))
		if r.recorder != nil {
			r.recorder.OriginalDeleteFailed()
		}

		return
	}

	if r.recorder != nil {
		r.recorder.OriginalDeleted()
	}
}

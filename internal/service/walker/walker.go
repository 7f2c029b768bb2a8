// Package walker drives an import run over a source directory tree.
package walker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jgivc/assetimporter/internal/adapter/fsadapter"
	"github.com/jgivc/assetimporter/internal/entity"
)

var errBatchLimitReached = errors.New("batch size limit reached")

type SourceWalker interface {
	Walk(root string, includeDotFiles bool, fn fsadapter.WalkFunc) error
}

type FileImporter interface {
	ImportFile(ctx context.Context, file *entity.SourceFile) (entity.Outcome, error)
}

// OutcomeRecorder receives the outcome of every processed file.
type OutcomeRecorder interface {
	FileProcessed(outcome entity.Outcome)
}

type Walker struct {
	source   SourceWalker
	importer FileImporter
	recorder OutcomeRecorder
	log      *slog.Logger
}

func NewWalker(source SourceWalker, importer FileImporter, recorder OutcomeRecorder, log *slog.Logger) *Walker {
	return &Walker{
		source:   source,
		importer: importer,
		recorder: recorder,
		log:      log.With(slog.String("item", "Walker")),
	}
}

// Run imports the files under session.SourceRoot one by one. It stops at the
// first failed file or when the batch size limit is reached; files left over are
// picked up by the next run.
func (w *Walker) Run(ctx context.Context, session *entity.Session) entity.Summary {
	var summary entity.Summary

	w.log.Info(fmt.Sprintf("Importing assets from %q to %q", session.SourceRoot, session.RootFolder.FullPath))

	err := w.source.Walk(session.SourceRoot, session.IncludeDotFiles, func(file *entity.SourceFile) error {
		if session.BatchSize > 0 && summary.Processed >= session.BatchSize {
			return errBatchLimitReached
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		outcome, err := w.importer.ImportFile(ctx, file)
		if err != nil {
			outcome = entity.OutcomeFailed
		}

		if !file.IsDir {
			summary.Processed++
		}
		summary.Add(outcome)

		if w.recorder != nil {
			w.recorder.FileProcessed(outcome)
		}

		if err != nil {
			w.log.Error("Cannot import file", slog.String("path", file.RelPath), slog.Any("error", err))

			return err
		}

		return nil
	})

	switch {
	case err == nil:
		summary.Status = entity.ExitOK
	case errors.Is(err, errBatchLimitReached):
		w.log.Info(fmt.Sprintf("Batch size limit of %d reached.", session.BatchSize))
		summary.BatchLimitReached = true
		summary.Status = entity.ExitOK
	default:
		if summary.Failed == 0 {
			w.log.Error("Import interrupted", slog.Any("error", err))
		}
		summary.Status = entity.ExitImportFailed
	}

	return summary
}

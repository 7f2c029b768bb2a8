package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jgivc/assetimporter/internal/adapter/fsadapter"
	"github.com/jgivc/assetimporter/internal/common"
	"github.com/jgivc/assetimporter/internal/config"
	"github.com/jgivc/assetimporter/internal/entity"
	"github.com/jgivc/assetimporter/internal/metrics"
	"github.com/jgivc/assetimporter/internal/repository/asset"
	"github.com/jgivc/assetimporter/internal/repository/postgres"
	"github.com/jgivc/assetimporter/internal/service/filter"
	"github.com/jgivc/assetimporter/internal/service/folder"
	"github.com/jgivc/assetimporter/internal/service/importer"
	"github.com/jgivc/assetimporter/internal/service/normalize"
	"github.com/jgivc/assetimporter/internal/service/walker"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
)

const connectTimeout = 10 * time.Second

// Options are the command line settings of one import run.
type Options struct {
	ConfigPath        string
	SourceDir         string
	RootPath          string
	UpdateAssets      bool
	DeleteOriginal    bool
	BatchSize         int
	IncludeTypes      string
	ExcludeTypes      string
	IncludeExtensions string
	ExcludeExtensions string
	IncludeDotFiles   bool
	LogLevel          string
}

type Repository interface {
	folder.FolderRepository
	importer.AssetRepository
}

type App struct {
	opts    Options
	cfg     *config.Config
	fs      afero.Fs
	repo    Repository
	metrics *metrics.Metrics
	log     *slog.Logger
	stderr  io.Writer
	closers []func()
}

func New(opts Options) *App {
	return &App{
		opts:   opts,
		fs:     afero.NewOsFs(),
		stderr: os.Stderr,
	}
}

// Run imports the source directory and returns the process exit code.
func (a *App) Run(ctx context.Context) int {
	if err := a.setup(ctx); err != nil {
		if a.log != nil {
			a.log.Error("Cannot start import", slog.Any("error", err))
		} else {
			fmt.Fprintf(a.stderr, "Cannot start import: %s\n", err)
		}
		a.close()

		return int(entity.ExitRootFolderMissing)
	}
	defer a.close()

	return int(a.Import(ctx))
}

func (a *App) setup(ctx context.Context) error {
	cfg, err := config.Load(a.opts.ConfigPath)
	if err != nil {
		return err
	}

	if a.opts.LogLevel != "" {
		cfg.LogLevel = strings.ToLower(a.opts.LogLevel)
	}
	a.cfg = cfg

	log, err := newLogger(cfg.LogLevel, a.stderr)
	if err != nil {
		return err
	}
	a.log = log

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	repo, err := a.openRepository(ctx)
	if err != nil {
		return err
	}
	a.repo = repo
	a.metrics = metrics.New()

	return nil
}

func (a *App) openRepository(ctx context.Context) (Repository, error) {
	switch a.cfg.Backend {
	case config.BackendRedis:
		opt, err := redis.ParseURL(a.cfg.Redis.URL)
		if err != nil {
			return nil, fmt.Errorf("cannot parse redis url: %w", err)
		}

		rdb := redis.NewClient(opt)
		a.closers = append(a.closers, func() { rdb.Close() })

		if _, err := rdb.Ping(ctx).Result(); err != nil {
			return nil, fmt.Errorf("cannot connect to redis: %w", err)
		}

		repo, err := asset.NewAssetRepository(ctx, rdb, a.cfg.Redis.Prefix, a.log)
		if err != nil {
			return nil, err
		}

		return repo, nil
	case config.BackendPostgres:
		pool, err := postgres.CreateConnectionPool(ctx, a.cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("cannot connect to postgres: %w", err)
		}
		a.closers = append(a.closers, pool.Close)

		repo := postgres.NewAssetRepository(pool, a.cfg.Postgres.TablePrefix, a.log)
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, err
		}

		return repo, nil
	}

	return nil, fmt.Errorf("%s: %w", a.cfg.Backend, common.ErrUnknownBackend)
}

// Import runs one import session against the configured repository.
func (a *App) Import(ctx context.Context) entity.ExitStatus {
	log := a.log.With(slog.String("run_id", uuid.NewString()))
	fsa := fsadapter.NewFSAdapterWithFS(a.fs, log)

	rootPath := entity.JoinPath(a.opts.RootPath)
	root, err := a.repo.GetFolderByPath(ctx, rootPath)
	if err != nil {
		log.Error(fmt.Sprintf("Root folder %q could not be found.", strings.TrimSuffix(rootPath, "/")+"/"),
			slog.Any("error", fmt.Errorf("%w: %w", common.ErrRootFolderNotFound, err)))

		return entity.ExitRootFolderMissing
	}

	sourceRoot, err := filepath.Abs(a.opts.SourceDir)
	if err != nil || !fsa.DirExists(sourceRoot) {
		log.Error(fmt.Sprintf("Source directory %q does not exist.", a.opts.SourceDir))

		return entity.ExitRootFolderMissing
	}

	session := a.newSession(sourceRoot, root)

	normalizer := normalize.NewNormalizer(a.repo.SanitizeFilename)
	resolver := folder.NewResolver(a.repo, normalizer, root, log)
	reconciler := importer.NewReconciler(a.repo, resolver, filter.New(session.Filter), fsa, session, a.metrics, log)
	w := walker.NewWalker(fsa, reconciler, a.metrics, log)

	started := time.Now()
	summary := w.Run(ctx, session)
	finished := time.Now()

	log.Info("Import finished",
		slog.Int("processed", summary.Processed),
		slog.Int("created", summary.Created),
		slog.Int("updated", summary.Updated),
		slog.Int("skipped", summary.Skipped),
		slog.Int("failed", summary.Failed),
		slog.Int("folders_created", resolver.Created()),
		slog.Bool("batch_limit_reached", summary.BatchLimitReached),
		slog.Int("status", int(summary.Status)),
		slog.Duration("duration", finished.Sub(started)),
	)

	a.metrics.FinishRun(summary, resolver.Created(), started, finished)
	if a.cfg.MetricsFile != "" {
		if err := a.metrics.WriteToTextfile(a.cfg.MetricsFile); err != nil {
			log.Error("Cannot write metrics", slog.Any("error", err))
		}
	}

	return summary.Status
}

func (a *App) newSession(sourceRoot string, root *entity.Folder) *entity.Session {
	batchSize := a.opts.BatchSize
	if batchSize < 0 {
		batchSize = 0
	}

	return &entity.Session{
		SourceRoot:      sourceRoot,
		RootFolder:      root,
		Filter:          filter.NewFilterConfig(a.opts.IncludeTypes, a.opts.ExcludeTypes, a.opts.IncludeExtensions, a.opts.ExcludeExtensions),
		UpdateAssets:    a.opts.UpdateAssets,
		DeleteOriginal:  a.opts.DeleteOriginal,
		BatchSize:       batchSize,
		IncludeDotFiles: a.opts.IncludeDotFiles,
	}
}

func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func newLogger(level string, w io.Writer) (*slog.Logger, error) {
	lo := &slog.HandlerOptions{}
	switch level {
	case config.LogLevelInfo:
		lo.Level = slog.LevelInfo
	case config.LogLevelWarn:
		lo.Level = slog.LevelWarn
	case config.LogLevelError:
		lo.Level = slog.LevelError
	case config.LogLevelDebug:
		lo.Level = slog.LevelDebug
	default:
		return nil, errors.New("unknown log level: " + level)
	}

	return slog.New(slog.NewTextHandler(w, lo)), nil
}

package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jgivc/assetimporter/internal/config"
	"github.com/jgivc/assetimporter/internal/entity"
	"github.com/jgivc/assetimporter/internal/metrics"
	"github.com/jgivc/assetimporter/internal/repository/memory"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T, opts Options, files map[string]string) (*App, *memory.Repository) {
	t.Helper()

	fs := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, fs.MkdirAll(filepath.Dir(name), 0o755))
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
	}

	repo := memory.NewRepository()
	cfg := &config.Config{}
	cfg.SetDefaults()

	return &App{
		opts:    opts,
		cfg:     cfg,
		fs:      fs,
		repo:    repo,
		metrics: metrics.New(),
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		stderr:  io.Discard,
	}, repo
}

func TestImport(t *testing.T) {
	files := map[string]string{
		"/src/a.txt":            "hello",
		"/src/Photos (1)/b.png": "\x89PNG\r\n\x1a\n",
	}

	testCases := []struct {
		name       string
		opts       Options
		prepare    func(t *testing.T, repo *memory.Repository)
		wantStatus entity.ExitStatus
		wantAssets []string
	}{
		{
			name:       "imports into root",
			opts:       Options{SourceDir: "/src", RootPath: "/"},
			wantStatus: entity.ExitOK,
			wantAssets: []string{"/Photos/b.png", "/a.txt"},
		},
		{
			name:       "missing root folder",
			opts:       Options{SourceDir: "/src", RootPath: "/Nope"},
			wantStatus: entity.ExitRootFolderMissing,
			wantAssets: []string{},
		},
		{
			name:       "missing source directory",
			opts:       Options{SourceDir: "/missing", RootPath: "/"},
			wantStatus: entity.ExitRootFolderMissing,
			wantAssets: []string{},
		},
		{
			name: "write failure",
			opts: Options{SourceDir: "/src", RootPath: "/"},
			prepare: func(t *testing.T, repo *memory.Repository) {
				repo.FailOn(memory.OpSaveAsset, errors.New("disk full"))
			},
			wantStatus: entity.ExitImportFailed,
			wantAssets: []string{},
		},
		{
			name:       "negative batch size is unlimited",
			opts:       Options{SourceDir: "/src", RootPath: "/", BatchSize: -5},
			wantStatus: entity.ExitOK,
			wantAssets: []string{"/Photos/b.png", "/a.txt"},
		},
		{
			name:       "extension filter",
			opts:       Options{SourceDir: "/src", RootPath: "/", ExcludeExtensions: "PNG"},
			wantStatus: entity.ExitOK,
			wantAssets: []string{"/a.txt"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a, repo := newTestApp(t, tc.opts, files)
			if tc.prepare != nil {
				tc.prepare(t, repo)
			}

			require.Equal(t, tc.wantStatus, a.Import(context.Background()))
			require.ElementsMatch(t, tc.wantAssets, repo.AssetPaths())
		})
	}
}

func TestImportWritesMetrics(t *testing.T) {
	a, _ := newTestApp(t, Options{SourceDir: "/src", RootPath: "/"}, map[string]string{"/src/a.txt": "hello"})
	a.cfg.MetricsFile = filepath.Join(t.TempDir(), "assetimporter.prom")

	require.Equal(t, entity.ExitOK, a.Import(context.Background()))

	data, err := os.ReadFile(a.cfg.MetricsFile)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(data), `assetimporter_files_total{outcome="created"} 1`))
	require.True(t, strings.Contains(string(data), "assetimporter_last_run_exit_status 0"))
}

func TestRunInvalidConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("backend: mongo\n"), 0o644))
	t.Setenv("ASSETIMPORTER_BACKEND", "")

	var stderr bytes.Buffer
	a := New(Options{ConfigPath: cfgPath, SourceDir: t.TempDir()})
	a.stderr = &stderr

	require.Equal(t, int(entity.ExitRootFolderMissing), a.Run(context.Background()))
	require.Contains(t, stderr.String(), "unknown backend")
}

func TestNewLogger(t *testing.T) {
	for _, level := range []string{config.LogLevelDebug, config.LogLevelInfo, config.LogLevelWarn, config.LogLevelError} {
		log, err := newLogger(level, io.Discard)
		require.NoError(t, err)
		require.NotNil(t, log)
	}

	_, err := newLogger("verbose", io.Discard)
	require.Error(t, err)
}

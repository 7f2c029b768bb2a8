// Package fsadapter enumerates, reads and removes source files.
package fsadapter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jgivc/assetimporter/internal/entity"
	"github.com/spf13/afero"
)

// Version control directories skipped unless dot files are included.
var vcsDirs = map[string]struct{}{
	".git":         {},
	".svn":         {},
	"_svn":         {},
	"CVS":          {},
	"_darcs":       {},
	".arch-params": {},
	".monotone":    {},
	".bzr":         {},
	".hg":          {},
}

type WalkFunc func(file *entity.SourceFile) error

type fsAdapter struct {
	fs  afero.Fs
	log *slog.Logger
}

func NewFSAdapter(log *slog.Logger) *fsAdapter {
	return NewFSAdapterWithFS(afero.NewOsFs(), log)
}

func NewFSAdapterWithFS(fs afero.Fs, log *slog.Logger) *fsAdapter {
	return &fsAdapter{
		fs:  fs,
		log: log.With(slog.String("item", "FSAdapter")),
	}
}

// Walk calls fn for every file under root in lexical order. Directories are
// traversed but not passed to fn. An error returned by fn stops the walk and is
// returned as is.
func (a *fsAdapter) Walk(root string, includeDotFiles bool, fn WalkFunc) error {
	root = filepath.Clean(root)

	return afero.Walk(a.fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("cannot walk %s: %w", path, err)
		}

		if path == root {
			return nil
		}

		name := info.Name()
		if info.IsDir() {
			if !includeDotFiles && isHidden(name) {
				a.log.Debug("Skip dir", slog.String("path", path))

				return filepath.SkipDir
			}

			return nil
		}

		if !includeDotFiles && strings.HasPrefix(name, ".") {
			a.log.Debug("Skip file", slog.String("path", path))

			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("cannot get relative path of %s: %w", path, err)
		}

		return fn(entity.NewSourceFile(path, filepath.ToSlash(rel), false))
	})
}

func (a *fsAdapter) ReadFile(file *entity.SourceFile) ([]byte, error) {
	data, err := afero.ReadFile(a.fs, file.AbsPath)
	if err != nil {
		return nil, fmt.Errorf("cannot read file %s: %w", file.AbsPath, err)
	}

	return data, nil
}

func (a *fsAdapter) Remove(file *entity.SourceFile) error {
	if err := a.fs.Remove(file.AbsPath); err != nil {
		return fmt.Errorf("cannot remove file %s: %w", file.AbsPath, err)
	}

	return nil
}

// DirExists reports whether path exists and is a directory.
func (a *fsAdapter) DirExists(path string) bool {
	ok, err := afero.DirExists(a.fs, path)
	if err != nil {
		a.log.Error("Cannot stat dir", slog.String("path", path), slog.Any("error", err))

		return false
	}

	return ok
}

func (a *fsAdapter) FileExists(path string) bool {
	_, err := a.fs.Stat(path)

	return err == nil
}

func isHidden(name string) bool {
	if _, ok := vcsDirs[name]; ok {
		return true
	}

	return strings.HasPrefix(name, ".")
}

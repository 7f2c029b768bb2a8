package entity

import (
	"path"
	"strings"
)

// SourceFile represents a single filesystem entry found during the walk.
type SourceFile struct {
	AbsPath string // Path on disk
	RelPath string // Slash separated path relative to the scan root
	RelDir  string // Slash separated parent directory relative to the scan root, "" for the root
	Name    string // Base name
	Ext     string // Lowercase extension without the dot
	IsDir   bool
}

func NewSourceFile(absPath, relPath string, isDir bool) *SourceFile {
	relPath = strings.Trim(strings.ReplaceAll(relPath, "\\", "/"), "/")

	relDir := path.Dir(relPath)
	if relDir == "." {
		relDir = ""
	}

	name := path.Base(relPath)

	return &SourceFile{
		AbsPath: absPath,
		RelPath: relPath,
		RelDir:  relDir,
		Name:    name,
		Ext:     strings.ToLower(strings.TrimPrefix(path.Ext(name), ".")),
		IsDir:   isDir,
	}
}

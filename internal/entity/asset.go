package entity

import (
	"path"
	"time"
)

const (
	RootPath = "/"
	RootID   = int64(1)
)

type AssetType string

const (
	AssetTypeFolder   AssetType = "folder"
	AssetTypeImage    AssetType = "image"
	AssetTypeText     AssetType = "text"
	AssetTypeAudio    AssetType = "audio"
	AssetTypeVideo    AssetType = "video"
	AssetTypeDocument AssetType = "document"
	AssetTypeArchive  AssetType = "archive"
	AssetTypeUnknown  AssetType = "unknown"
)

// AssetTypes is the list of types a repository can realize, in display order.
var AssetTypes = []AssetType{
	AssetTypeFolder,
	AssetTypeImage,
	AssetTypeText,
	AssetTypeAudio,
	AssetTypeVideo,
	AssetTypeDocument,
	AssetTypeArchive,
	AssetTypeUnknown,
}

func (t AssetType) String() string {
	return string(t)
}

// Folder is a node of the repository folder hierarchy.
type Folder struct {
	ID       int64
	ParentID int64 // 0 for the root
	Filename string
	FullPath string
}

func (f *Folder) GetFullPath() string {
	return f.FullPath
}

// ChildPath returns the full path of a direct child named name.
func (f *Folder) ChildPath(name string) string {
	return JoinPath(f.FullPath, name)
}

// Asset is a leaf content record. ID is 0 until the asset is persisted.
type Asset struct {
	ID         int64
	ParentID   int64
	Filename   string
	FullPath   string
	Type       AssetType
	MIMEType   string
	SourcePath string
	Checksum   string // sha1 of Data, set when persisted
	Data       []byte
	CreatedAt  time.Time
	ModifiedAt time.Time
}

func (a *Asset) GetType() string {
	return a.Type.String()
}

func (a *Asset) GetFullPath() string {
	return a.FullPath
}

// SetContent replaces the binary content. The realized type is kept.
func (a *Asset) SetContent(data []byte) {
	a.Data = data
}

func (a *Asset) Persisted() bool {
	return a.ID != 0
}

// JoinPath joins repository path elements into a clean absolute slash path.
func JoinPath(elem ...string) string {
	return path.Join(append([]string{RootPath}, elem...)...)
}

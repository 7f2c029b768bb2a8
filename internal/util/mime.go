package util

import (
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/jgivc/assetimporter/internal/entity"
)

const (
	mimeTypeUnknown       = "application/octet-stream"
	mimeTypeCheckPartSize = 512
)

var mimeTypesByExtension = map[string]string{
	"txt":  "text/plain",
	"csv":  "text/csv",
	"md":   "text/markdown",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
	"tif":  "image/tiff",
	"tiff": "image/tiff",
	"svg":  "image/svg+xml",
	"mp3":  "audio/mpeg",
	"wav":  "audio/wav",
	"ogg":  "audio/ogg",
	"mp4":  "video/mp4",
	"mov":  "video/quicktime",
	"webm": "video/webm",
	"pdf":  "application/pdf",
	"doc":  "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"xls":  "application/vnd.ms-excel",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"ppt":  "application/vnd.ms-powerpoint",
	"pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"odt":  "application/vnd.oasis.opendocument.text",
	"zip":  "application/zip",
	"tar":  "application/x-tar",
	"gz":   "application/gzip",
	"7z":   "application/x-7z-compressed",
	"rar":  "application/vnd.rar",
}

var archiveMIMETypes = map[string]struct{}{
	"application/zip":              {},
	"application/x-zip-compressed": {},
	"application/x-tar":            {},
	"application/gzip":             {},
	"application/x-gzip":           {},
	"application/x-7z-compressed":  {},
	"application/vnd.rar":          {},
	"application/x-rar-compressed": {},
	"application/x-bzip2":          {},
}

// DetectMIMEType returns the mime type of a file, by extension first and by
// sniffing the content otherwise.
func DetectMIMEType(filename string, data []byte) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext != "" {
		if mimeType, ok := mimeTypesByExtension[ext[1:]]; ok {
			return mimeType
		}

		if mimeType := mime.TypeByExtension(ext); mimeType != "" {
			return baseMIMEType(mimeType)
		}
	}

	if len(data) == 0 {
		return mimeTypeUnknown
	}

	if len(data) > mimeTypeCheckPartSize {
		data = data[:mimeTypeCheckPartSize]
	}

	return baseMIMEType(http.DetectContentType(data))
}

// AssetTypeFromMIME maps a mime type to the asset type a repository realizes.
func AssetTypeFromMIME(mimeType string) entity.AssetType {
	mimeType = baseMIMEType(mimeType)

	if _, ok := archiveMIMETypes[mimeType]; ok {
		return entity.AssetTypeArchive
	}

	major, minor, _ := strings.Cut(mimeType, "/")
	switch major {
	case "image":
		return entity.AssetTypeImage
	case "audio":
		return entity.AssetTypeAudio
	case "video":
		return entity.AssetTypeVideo
	case "text":
		return entity.AssetTypeText
	case "application":
		switch {
		case minor == "pdf",
			minor == "msword",
			minor == "rtf",
			strings.HasPrefix(minor, "vnd.ms-"),
			strings.HasPrefix(minor, "vnd.openxmlformats-officedocument"),
			strings.HasPrefix(minor, "vnd.oasis.opendocument"):
			return entity.AssetTypeDocument
		}
	}

	return entity.AssetTypeUnknown
}

// DetectAssetType realizes the asset type and mime type of a file.
func DetectAssetType(filename string, data []byte) (entity.AssetType, string) {
	mimeType := DetectMIMEType(filename, data)

	return AssetTypeFromMIME(mimeType), mimeType
}

func baseMIMEType(mimeType string) string {
	base, _, _ := strings.Cut(mimeType, ";")

	return strings.ToLower(strings.TrimSpace(base))
}

// NewAsset builds an unpersisted asset under parent with its type realized from
// the file name and content.
func NewAsset(parent *entity.Folder, filename, sourcePath string, data []byte) *entity.Asset {
	assetType, mimeType := DetectAssetType(filename, data)

	return &entity.Asset{
		ParentID:   parent.ID,
		Filename:   filename,
		FullPath:   parent.ChildPath(filename),
		Type:       assetType,
		MIMEType:   mimeType,
		SourcePath: sourcePath,
		Data:       data,
	}
}

package util

import (
	"testing"

	"github.com/jgivc/assetimporter/internal/entity"
	"github.com/stretchr/testify/require"
)

func TestValidFilename(t *testing.T) {
	testCases := []struct {
		raw  string
		want string
	}{
		{raw: "photo.jpg", want: "photo.jpg"},
		{raw: "a/b:c", want: "a-b-c"},
		{raw: `a<>"b`, want: "a-b"},
		{raw: "  .hidden ", want: "hidden"},
		{raw: "..", want: ""},
		{raw: "tab\tname", want: "tabname"},
		{raw: "x\u200by", want: "xy"},
		{raw: "cafe\u0301", want: "caf\u00e9"},
	}

	for _, tc := range testCases {
		t.Run(tc.raw, func(t *testing.T) {
			require.Equal(t, tc.want, ValidFilename(tc.raw))
		})
	}
}

func TestDetectAssetType(t *testing.T) {
	testCases := []struct {
		name     string
		filename string
		data     []byte
		want     entity.AssetType
	}{
		{name: "image by extension", filename: "a.PNG", want: entity.AssetTypeImage},
		{name: "text", filename: "notes.txt", want: entity.AssetTypeText},
		{name: "archive", filename: "backup.zip", want: entity.AssetTypeArchive},
		{name: "pdf", filename: "manual.pdf", want: entity.AssetTypeDocument},
		{name: "office", filename: "report.docx", want: entity.AssetTypeDocument},
		{name: "video", filename: "clip.mp4", want: entity.AssetTypeVideo},
		{name: "audio", filename: "song.mp3", want: entity.AssetTypeAudio},
		{name: "sniffed", filename: "noext", data: []byte("\x89PNG\r\n\x1a\n0000"), want: entity.AssetTypeImage},
		{name: "empty unknown", filename: "noext", want: entity.AssetTypeUnknown},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, _ := DetectAssetType(tc.filename, tc.data)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestAssetTypeFromMIME(t *testing.T) {
	require.Equal(t, entity.AssetTypeText, AssetTypeFromMIME("text/plain; charset=utf-8"))
	require.Equal(t, entity.AssetTypeArchive, AssetTypeFromMIME("application/x-gzip"))
	require.Equal(t, entity.AssetTypeUnknown, AssetTypeFromMIME("application/octet-stream"))
}

func TestNewAsset(t *testing.T) {
	parent := &entity.Folder{ID: 7, FullPath: "/Images"}

	asset := NewAsset(parent, "a.jpg", "/src/a.jpg", []byte("x"))
	require.False(t, asset.Persisted())
	require.Equal(t, int64(7), asset.ParentID)
	require.Equal(t, "/Images/a.jpg", asset.FullPath)
	require.Equal(t, entity.AssetTypeImage, asset.Type)
	require.Equal(t, "image/jpeg", asset.MIMEType)
}

func TestChecksum(t *testing.T) {
	require.Equal(t, "da39a3ee5e6b4b0d3255bfef95601890afd80709", Checksum(nil))
	require.Equal(t, Checksum([]byte("a")), Checksum([]byte("a")))
	require.NotEqual(t, Checksum([]byte("a")), Checksum([]byte("b")))
}

func TestTrimSplit(t *testing.T) {
	require.Equal(t, []string{"jpg", "png"}, TrimSplit(" jpg, ,png ,", ","))
	require.Nil(t, TrimSplit("", ","))
}

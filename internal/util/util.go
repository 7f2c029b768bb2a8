package util

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
)

// Checksum returns the hex sha1 of data.
func Checksum(data []byte) string {
	hasher := sha1.New()
	hasher.Write(data)

	return hex.EncodeToString(hasher.Sum(nil))
}

// TrimSplit splits s by sep, trims every item and drops the empty ones.
func TrimSplit(s, sep string) []string {
	var items []string
	for _, item := range strings.Split(s, sep) {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}

	return items
}

// Package checksum provides digests used for cheap change detection.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Meta digests a file's identity and stat metadata. Two Meta values are equal
// exactly when path, modification time, and size are all unchanged, which is
// what the index compares during a refresh instead of re-reading content.
func Meta(relPath string, modTime time.Time, size int64) string {
	return Sum(fmt.Appendf(nil, "%s|%d|%d", relPath, modTime.UnixNano(), size))
}

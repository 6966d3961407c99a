// Package checksum provides the content digests used for change detection and cache keys.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Key digests parts into a stable identifier. Parts are separated by a NUL
// byte so that ("ab", "c") and ("a", "bc") produce different keys.
func Key(parts ...string) string {
	return Sum([]byte(strings.Join(parts, "\x00")))
}

package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashKey derives a stable, path-safe key for an identifier within a
// namespace. Equal ids in different namespaces never collide.
func HashKey(namespace, id string) string {
	h := sha256.New()
	h.Write([]byte(namespace))
	h.Write([]byte{0})
	h.Write([]byte(id))
	return hex.EncodeToString(h.Sum(nil))
}

// HashUserKey keeps user ids (including guest ids) out of storage paths.
func HashUserKey(userID string) string {
	return HashKey("user", userID)
}

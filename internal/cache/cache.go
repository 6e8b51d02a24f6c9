package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives a stable cache key from an arbitrary identity string,
// e.g. "openai:gpt-4o-mini:<prompt>". Hashing keeps keys filesystem-safe
// regardless of prompt contents.
func Key(identity string) string {
	hash := sha256.Sum256([]byte(identity))
	return "factgraph:v1:" + hex.EncodeToString(hash[:])
}

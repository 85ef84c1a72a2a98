package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"time"
)

// Cache defines the interface for caching parsed artifacts.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// FileKey derives a cache key from a dataset file's identity (path,
// size, mtime). Editing or replacing the file invalidates the key.
func FileKey(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat input: %w", err)
	}
	id := fmt.Sprintf("%s|%d|%d", path, info.Size(), info.ModTime().UnixNano())
	hash := sha256.Sum256([]byte(id))
	return "segmenta:v1:" + hex.EncodeToString(hash[:]), nil
}

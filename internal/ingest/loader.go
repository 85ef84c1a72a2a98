package ingest

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ppiankov/segmenta/internal/cache"
	"github.com/ppiankov/segmenta/internal/model"
)

// Loader reads transaction datasets, consulting a cache keyed by file
// fingerprint so repeated runs over the same large file skip parsing.
type Loader struct {
	cache cache.Cache // nil disables caching
	ttl   time.Duration
}

// NewLoader creates a loader. A nil cache disables caching entirely.
func NewLoader(c cache.Cache, ttl time.Duration) *Loader {
	return &Loader{cache: c, ttl: ttl}
}

// Load returns the parsed transaction set for the configured input.
func (l *Loader) Load(cfg model.InputConfig) ([]model.Transaction, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("input path is required")
	}

	var key string
	if l.cache != nil {
		k, err := cache.FileKey(cfg.Path)
		if err == nil {
			key = k
			if data, found := l.cache.Get(key); found {
				var txns []model.Transaction
				if err := json.Unmarshal(data, &txns); err == nil {
					return txns, nil
				}
				// Corrupt entry: fall through to a fresh parse.
				_ = l.cache.Delete(key)
			}
		}
	}

	txns, err := ReadFile(cfg.Path, cfg.Sheet)
	if err != nil {
		return nil, err
	}

	if l.cache != nil && key != "" {
		if data, err := json.Marshal(txns); err == nil {
			_ = l.cache.Set(key, data, l.ttl)
		}
	}

	return txns, nil
}

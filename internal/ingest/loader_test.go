package ingest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ppiankov/segmenta/internal/cache"
	"github.com/ppiankov/segmenta/internal/model"
)

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "transactions.csv")
	if err := os.WriteFile(path, []byte(sampleCSV), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoader_WithoutCache(t *testing.T) {
	loader := NewLoader(nil, 0)

	txns, err := loader.Load(model.InputConfig{Path: writeSample(t)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(txns) != 3 {
		t.Errorf("expected 3 rows, got %d", len(txns))
	}
}

func TestLoader_CacheRoundTrip(t *testing.T) {
	path := writeSample(t)
	c := cache.NewMemoryCache(time.Minute, time.Minute)
	loader := NewLoader(c, time.Minute)

	first, err := loader.Load(model.InputConfig{Path: path})
	if err != nil {
		t.Fatalf("first load: %v", err)
	}

	// Second load must come from the cache and still decode identically.
	second, err := loader.Load(model.InputConfig{Path: path})
	if err != nil {
		t.Fatalf("second load: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("cache round-trip changed row count: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].InvoiceID != second[i].InvoiceID || first[i].CustomerID != second[i].CustomerID {
			t.Errorf("row %d differs after cache round-trip", i)
		}
		if !first[i].InvoiceDate.Equal(second[i].InvoiceDate) {
			t.Errorf("row %d date differs after cache round-trip", i)
		}
	}

	key, err := cache.FileKey(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, found := c.Get(key); !found {
		t.Error("expected dataset cached under its file key")
	}
}

func TestLoader_MissingPath(t *testing.T) {
	loader := NewLoader(nil, 0)
	if _, err := loader.Load(model.InputConfig{}); err == nil {
		t.Error("expected error for empty path")
	}
	if _, err := loader.Load(model.InputConfig{Path: "/does/not/exist.csv"}); err == nil {
		t.Error("expected error for missing file")
	}
}

package model

import "time"

// Config is the full pipeline configuration. Values are resolved by the
// CLI layer in priority order: flags, SEGMENTA_* environment variables,
// config file, then these defaults.
type Config struct {
	Input       InputConfig       `yaml:"input"`
	Cluster     ClusterConfig     `yaml:"cluster"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	Cache       CacheConfig       `yaml:"cache"`
	Output      OutputConfig      `yaml:"output"`
	LLM         LLMConfig         `yaml:"llm"`
}

// InputConfig describes the transaction dataset to load.
type InputConfig struct {
	Path string `yaml:"path"`
	// Sheet selects the worksheet for XLSX inputs; empty means the
	// first sheet in the workbook.
	Sheet string `yaml:"sheet"`
	// CancelPrefix marks cancelled invoices. The Online Retail
	// convention is a leading "C" on the invoice number.
	CancelPrefix string `yaml:"cancel_prefix"`
}

// ClusterConfig controls the k-means sweep.
type ClusterConfig struct {
	KMin          int     `yaml:"k_min"`
	KMax          int     `yaml:"k_max"`
	Restarts      int     `yaml:"restarts"`
	MaxIterations int     `yaml:"max_iterations"`
	Tolerance     float64 `yaml:"tolerance"`
	Seed          int64   `yaml:"seed"`
}

// ConcurrencyConfig bounds the worker pool used for candidate fits.
type ConcurrencyConfig struct {
	FitWorkers int `yaml:"fit_workers"`
}

// CacheConfig controls the parsed-dataset cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Dir     string        `yaml:"dir"`
	TTL     time.Duration `yaml:"ttl"`
}

// OutputConfig lists the artifacts to write. Empty paths are skipped,
// except CSVPath which is the output of record.
type OutputConfig struct {
	CSVPath       string `yaml:"csv"`
	JSONPath      string `yaml:"json"`
	MarkdownPath  string `yaml:"markdown"`
	SQLitePath    string `yaml:"sqlite"`
	Verbose       bool   `yaml:"verbose"`
	IncludeFooter bool   `yaml:"include_footer"`
}

// LLMConfig configures the optional segment-insight generation.
// An empty Provider disables it.
type LLMConfig struct {
	Provider          string  `yaml:"provider"` // "openai", "ollama" or ""
	Model             string  `yaml:"model"`
	APIKey            string  `yaml:"-"` // env only, never persisted
	BaseURL           string  `yaml:"base_url"`
	TimeoutSeconds    int     `yaml:"timeout_seconds"`
	MaxTokens         int     `yaml:"max_tokens"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			CancelPrefix: "C",
		},
		Cluster: ClusterConfig{
			KMin:          2,
			KMax:          8,
			Restarts:      10,
			MaxIterations: 100,
			Tolerance:     1e-6,
			Seed:          42,
		},
		Concurrency: ConcurrencyConfig{
			FitWorkers: 4,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     "", // resolved to ~/.segmenta/cache by the CLI
			TTL:     24 * time.Hour,
		},
		Output: OutputConfig{
			CSVPath:       "rfm_segmented.csv",
			JSONPath:      "segmentation.json",
			IncludeFooter: true,
		},
		LLM: LLMConfig{
			Provider:          "",
			TimeoutSeconds:    30,
			MaxTokens:         400,
			RequestsPerSecond: 1,
		},
	}
}

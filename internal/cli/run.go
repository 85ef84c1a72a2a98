package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ppiankov/segmenta/internal/model"
	"github.com/ppiankov/segmenta/internal/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	noCache  bool
	noFooter bool
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <transactions-file>",
	Short: "Run the segmentation pipeline over a transaction dataset",
	Long: `Run executes the full pipeline over a CSV or XLSX transaction file:
- Clean invalid rows (missing customer, cancellations, bad quantity/price)
- Aggregate per-customer Recency/Frequency/Monetary metrics
- Standardize features (log-monetary, z-scores)
- Fit seeded k-means for every candidate cluster count and score each
- Label the chosen clusters with stable segment identities

Example:
  segmenta run online_retail.xlsx
  segmenta run transactions.csv --k-min 2 --k-max 6 --seed 7
  segmenta run transactions.csv --sqlite segments.db --llm openai`,
	Args: cobra.ExactArgs(1),
	RunE: runPipeline,
}

func init() {
	rootCmd.AddCommand(runCmd)

	// Input flags
	runCmd.Flags().String("sheet", "", "worksheet name for XLSX inputs (default: first sheet)")
	runCmd.Flags().String("cancel-prefix", "C", "invoice prefix marking cancelled orders")

	// Clustering flags
	runCmd.Flags().Int("k-min", 2, "minimum candidate cluster count")
	runCmd.Flags().Int("k-max", 8, "maximum candidate cluster count")
	runCmd.Flags().Int64("seed", 42, "random seed for centroid initialization")
	runCmd.Flags().Int("restarts", 10, "randomized restarts per candidate count")
	runCmd.Flags().Int("workers", 4, "parallel candidate fits")

	// Output flags
	runCmd.Flags().String("csv", "rfm_segmented.csv", "output segment table path")
	runCmd.Flags().String("json", "segmentation.json", "output JSON report path")
	runCmd.Flags().String("md", "", "output Markdown summary path (optional)")
	runCmd.Flags().String("sqlite", "", "output SQLite database path (optional)")
	runCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the parsed-dataset cache")
	runCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown summaries")

	// LLM flags
	runCmd.Flags().String("llm", "", "enable per-segment insights via an LLM provider (openai, ollama)")
	runCmd.Flags().String("llm-model", "", "LLM model name")

	// Bind every flag to its config key; a changed flag wins over
	// environment and config file, an unchanged one falls through.
	for key, flag := range map[string]string{
		"input.sheet":             "sheet",
		"input.cancel_prefix":     "cancel-prefix",
		"cluster.k_min":           "k-min",
		"cluster.k_max":           "k-max",
		"cluster.seed":            "seed",
		"cluster.restarts":        "restarts",
		"concurrency.fit_workers": "workers",
		"output.csv":              "csv",
		"output.json":             "json",
		"output.markdown":         "md",
		"output.sqlite":           "sqlite",
		"llm.provider":            "llm",
		"llm.model":               "llm-model",
	} {
		_ = viper.BindPFlag(key, runCmd.Flags().Lookup(flag))
	}

	setConfigDefaults()
}

// setConfigDefaults registers the built-in defaults with viper so the
// resolution order is flags > SEGMENTA_* env > config file > defaults.
func setConfigDefaults() {
	d := model.DefaultConfig()

	viper.SetDefault("input.sheet", d.Input.Sheet)
	viper.SetDefault("input.cancel_prefix", d.Input.CancelPrefix)
	viper.SetDefault("cluster.k_min", d.Cluster.KMin)
	viper.SetDefault("cluster.k_max", d.Cluster.KMax)
	viper.SetDefault("cluster.restarts", d.Cluster.Restarts)
	viper.SetDefault("cluster.max_iterations", d.Cluster.MaxIterations)
	viper.SetDefault("cluster.tolerance", d.Cluster.Tolerance)
	viper.SetDefault("cluster.seed", d.Cluster.Seed)
	viper.SetDefault("concurrency.fit_workers", d.Concurrency.FitWorkers)
	viper.SetDefault("cache.enabled", d.Cache.Enabled)
	viper.SetDefault("cache.dir", d.Cache.Dir)
	viper.SetDefault("cache.ttl", d.Cache.TTL)
	viper.SetDefault("output.csv", d.Output.CSVPath)
	viper.SetDefault("output.json", d.Output.JSONPath)
	viper.SetDefault("output.markdown", d.Output.MarkdownPath)
	viper.SetDefault("output.sqlite", d.Output.SQLitePath)
	viper.SetDefault("output.include_footer", d.Output.IncludeFooter)
	viper.SetDefault("llm.provider", d.LLM.Provider)
	viper.SetDefault("llm.model", d.LLM.Model)
	viper.SetDefault("llm.base_url", d.LLM.BaseURL)
	viper.SetDefault("llm.timeout_seconds", d.LLM.TimeoutSeconds)
	viper.SetDefault("llm.max_tokens", d.LLM.MaxTokens)
	viper.SetDefault("llm.requests_per_second", d.LLM.RequestsPerSecond)
}

// buildConfig resolves the effective pipeline configuration from viper,
// which already layers flags, SEGMENTA_* environment variables, the
// config file and the defaults.
func buildConfig(inputPath string) *model.Config {
	cfg := model.DefaultConfig()

	cfg.Input.Path = inputPath
	cfg.Input.Sheet = viper.GetString("input.sheet")
	cfg.Input.CancelPrefix = viper.GetString("input.cancel_prefix")

	cfg.Cluster.KMin = viper.GetInt("cluster.k_min")
	cfg.Cluster.KMax = viper.GetInt("cluster.k_max")
	cfg.Cluster.Restarts = viper.GetInt("cluster.restarts")
	cfg.Cluster.MaxIterations = viper.GetInt("cluster.max_iterations")
	cfg.Cluster.Tolerance = viper.GetFloat64("cluster.tolerance")
	cfg.Cluster.Seed = viper.GetInt64("cluster.seed")

	cfg.Concurrency.FitWorkers = viper.GetInt("concurrency.fit_workers")

	cfg.Cache.Enabled = viper.GetBool("cache.enabled")
	cfg.Cache.Dir = viper.GetString("cache.dir")
	cfg.Cache.TTL = viper.GetDuration("cache.ttl")

	cfg.Output.CSVPath = viper.GetString("output.csv")
	cfg.Output.JSONPath = viper.GetString("output.json")
	cfg.Output.MarkdownPath = viper.GetString("output.markdown")
	cfg.Output.SQLitePath = viper.GetString("output.sqlite")
	cfg.Output.IncludeFooter = viper.GetBool("output.include_footer")
	cfg.Output.Verbose = viper.GetBool("verbose")

	cfg.LLM.Provider = viper.GetString("llm.provider")
	cfg.LLM.Model = viper.GetString("llm.model")
	cfg.LLM.BaseURL = viper.GetString("llm.base_url")
	cfg.LLM.TimeoutSeconds = viper.GetInt("llm.timeout_seconds")
	cfg.LLM.MaxTokens = viper.GetInt("llm.max_tokens")
	cfg.LLM.RequestsPerSecond = viper.GetFloat64("llm.requests_per_second")

	return cfg
}

func runPipeline(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg := buildConfig(args[0])
	if noCache {
		cfg.Cache.Enabled = false
	}
	if noFooter {
		cfg.Output.IncludeFooter = false
	}
	if cfg.Cache.Enabled && cfg.Cache.Dir == "" {
		if dir := homeDir(); dir != "" {
			cfg.Cache.Dir = filepath.Join(dir, "cache")
		}
	}

	// API keys come from the environment only, never from viper.
	if cfg.LLM.Provider == "openai" {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	}

	p := pipeline.NewPipeline(cfg)

	result, err := p.Run(ctx)
	if err != nil {
		return fmt.Errorf("pipeline failed: %w", err)
	}

	if err := p.RenderResult(ctx, result); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	return nil
}

// Package pipeline orchestrates the segmentation flow: ingest → clean →
// aggregate → scale → cluster selection → labeling → rendering. A run
// either produces one complete Result or fails with a stage-specific
// error; no partial output is ever exposed.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ppiankov/segmenta/internal/cache"
	"github.com/ppiankov/segmenta/internal/clean"
	"github.com/ppiankov/segmenta/internal/cluster"
	"github.com/ppiankov/segmenta/internal/ingest"
	"github.com/ppiankov/segmenta/internal/llm"
	"github.com/ppiankov/segmenta/internal/model"
	"github.com/ppiankov/segmenta/internal/rfm"
	"github.com/ppiankov/segmenta/internal/scale"
	"github.com/ppiankov/segmenta/internal/segment"
)

// Pipeline wires the stages together for one configuration.
type Pipeline struct {
	loader   *ingest.Loader
	cleaner  *clean.Cleaner
	selector *cluster.Selector
	insights *llm.Generator // nil when disabled
	renderer *Renderer
	config   *model.Config
}

// NewPipeline creates a new pipeline with the given configuration.
func NewPipeline(cfg *model.Config) *Pipeline {
	var c cache.Cache
	if cfg.Cache.Enabled && cfg.Cache.Dir != "" {
		c = cache.NewLayeredCache(cfg.Cache.TTL, cfg.Cache.Dir, cfg.Cache.TTL)
	}

	var insights *llm.Generator
	if cfg.LLM.Provider != "" {
		g, err := llm.NewGenerator(llm.ConfigFromModel(cfg.LLM))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to initialize LLM provider: %v\n", err)
		} else {
			insights = g
		}
	}

	return &Pipeline{
		loader:   ingest.NewLoader(c, cfg.Cache.TTL),
		cleaner:  clean.NewCleaner(cfg.Input.CancelPrefix),
		selector: cluster.NewSelector(cfg.Cluster, cfg.Concurrency.FitWorkers),
		insights: insights,
		renderer: NewRenderer(cfg.Output.IncludeFooter),
		config:   cfg,
	}
}

// Run executes the full pipeline and returns the segmentation result.
func (p *Pipeline) Run(ctx context.Context) (*model.Result, error) {
	verbose := p.config.Output.Verbose

	// 1. Load raw transactions.
	txns, err := p.loader.Load(p.config.Input)
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}
	p.progress(verbose, "Loaded %d transaction rows", len(txns))

	// 2. Clean.
	cleaned, drops := p.cleaner.Clean(txns)
	p.progress(verbose, "Cleaned: kept %d rows, dropped %d", drops.Kept, drops.Dropped)

	// 3. Aggregate to per-customer RFM.
	records, reference, err := rfm.Aggregate(cleaned)
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}
	p.progress(verbose, "Aggregated %d customers (reference date %s)", len(records), reference.Format("2006-01-02"))

	// 4. Standardize features.
	features, params, err := scale.Fit(records)
	if err != nil {
		return nil, fmt.Errorf("scale: %w", err)
	}

	// 5. Sweep candidate cluster counts.
	selection, err := p.selector.Select(features)
	if err != nil {
		return nil, fmt.Errorf("select clusters: %w", err)
	}
	best := selection.Best()
	p.progress(verbose, "Selected k=%d (silhouette %.4f)", best.Fit.K, best.Score.Silhouette)

	// 6. Map clusters to segment identities.
	_, table, err := segment.Label(best.Fit, params, records)
	if err != nil {
		return nil, fmt.Errorf("label segments: %w", err)
	}
	profiles := segment.BuildProfiles(table)

	result := &model.Result{
		GeneratedAt: time.Now().UTC(),
		InputPath:   p.config.Input.Path,
		Seed:        p.config.Cluster.Seed,
		Drops:       drops,
		Reference:   reference,
		Scaling:     params,
		Scores:      selection.Scores(),
		ChosenK:     best.Fit.K,
		Customers:   table,
		Profiles:    profiles,
	}

	for _, sc := range result.Scores {
		if sc.Note != "" {
			result.Warnings = append(result.Warnings, fmt.Sprintf("k=%d: %s", sc.K, sc.Note))
		}
	}

	// 7. Optional insights, after segmentation so they can never affect it.
	if p.insights != nil {
		insights, warnings := p.insights.Generate(ctx, profiles, len(table))
		result.Insights = insights
		result.Warnings = append(result.Warnings, warnings...)
	}

	return result, nil
}

func (p *Pipeline) progress(verbose bool, format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, "✓ "+format+"\n", args...)
	}
}

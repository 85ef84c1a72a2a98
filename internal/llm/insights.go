package llm

import (
	"context"
	"fmt"

	"github.com/ppiankov/segmenta/internal/model"
	"golang.org/x/time/rate"
)

// Generator produces one insight per segment, throttled so a sweep over
// many segments stays inside provider rate limits.
type Generator struct {
	provider Provider
	limiter  *rate.Limiter
	config   Config
}

// NewGenerator creates a generator for the configured provider. Returns
// (nil, nil) when insights are disabled.
func NewGenerator(config Config) (*Generator, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, nil
	}

	rps := config.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}

	return &Generator{
		provider: provider,
		limiter:  rate.NewLimiter(rate.Limit(rps), 1),
		config:   config,
	}, nil
}

// Generate produces insights for every segment profile. Individual
// failures are returned as warnings; they never fail the run.
func (g *Generator) Generate(ctx context.Context, profiles []model.SegmentProfile, population int) ([]model.SegmentInsight, []string) {
	var insights []model.SegmentInsight
	var warnings []string

	for _, p := range profiles {
		if err := g.limiter.Wait(ctx); err != nil {
			warnings = append(warnings, fmt.Sprintf("insight generation stopped: %v", err))
			break
		}

		text, err := g.provider.Complete(ctx, BuildPrompt(p, population))
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("insight for %q failed: %v", p.Segment, err))
			continue
		}

		insights = append(insights, model.SegmentInsight{
			Segment:  p.Segment,
			Text:     text,
			Provider: g.provider.Name(),
			Model:    g.config.Model,
		})
	}

	return insights, warnings
}

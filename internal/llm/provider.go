// Package llm generates optional marketing narratives for segments.
// Insight generation runs after segmentation and never affects it: a
// provider failure degrades to a warning on the result, not an error.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/segmenta/internal/model"
)

// Provider defines the interface for LLM providers.
type Provider interface {
	// Name returns the provider name.
	Name() string

	// Complete generates a completion for the given prompt.
	Complete(ctx context.Context, prompt string) (string, error)
}

// Config holds LLM provider configuration.
type Config struct {
	// Provider name: "openai", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI-compatible endpoints
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama's OpenAI-compatible API)
	BaseURL string

	// Timeout for API requests, in seconds
	Timeout int

	// MaxTokens for response generation
	MaxTokens int

	// RequestsPerSecond throttles per-segment calls
	RequestsPerSecond float64
}

// ConfigFromModel converts model.LLMConfig to llm.Config.
func ConfigFromModel(mc model.LLMConfig) Config {
	return Config{
		Provider:          mc.Provider,
		Model:             mc.Model,
		APIKey:            mc.APIKey,
		BaseURL:           mc.BaseURL,
		Timeout:           mc.TimeoutSeconds,
		MaxTokens:         mc.MaxTokens,
		RequestsPerSecond: mc.RequestsPerSecond,
	}
}

// NewProvider creates a new LLM provider based on configuration.
// An empty provider name means insights are disabled (nil, nil).
func NewProvider(config Config) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAIProvider(config)

	case "ollama":
		// Ollama exposes an OpenAI-compatible endpoint; reuse the same
		// client with a local base URL and a placeholder key.
		if config.BaseURL == "" {
			config.BaseURL = "http://localhost:11434/v1"
		}
		if config.APIKey == "" {
			config.APIKey = "ollama"
		}
		return NewOpenAIProvider(config)

	case "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, ollama)", config.Provider)
	}
}

// BuildPrompt constructs the per-segment prompt. The prompt carries
// only aggregate numbers; no customer-level data leaves the pipeline.
func BuildPrompt(p model.SegmentProfile, population int) string {
	return fmt.Sprintf(`You are advising an e-commerce business on customer retention.

One customer segment, derived from RFM (Recency/Frequency/Monetary) clustering:
- Segment: %s
- Customers: %d of %d total
- Average days since last purchase: %.0f
- Average number of orders: %.1f
- Average total spend: %.0f
- Share of total revenue: %.1f%%

Write a 2-3 sentence marketing recommendation for this segment. Be
concrete about actions (campaigns, loyalty mechanics, outreach cadence)
and proportionate to the segment's revenue share. Do not invent numbers
beyond those given.`,
		p.Segment, p.Customers, population,
		p.AvgRecency, p.AvgFrequency, p.AvgMonetary, p.RevenueShare*100)
}

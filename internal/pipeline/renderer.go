package pipeline

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ppiankov/segmenta/internal/model"
	"github.com/ppiankov/segmenta/internal/store"
)

// Renderer writes the segmentation result to its output artifacts.
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a renderer.
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderResult writes every configured artifact and prints a summary
// to stdout.
func (p *Pipeline) RenderResult(ctx context.Context, res *model.Result) error {
	out := p.config.Output

	if out.CSVPath != "" {
		if err := p.renderer.RenderCSV(res, out.CSVPath); err != nil {
			return fmt.Errorf("render CSV: %w", err)
		}
		p.progress(out.Verbose, "Wrote segment table: %s", out.CSVPath)
	}

	if out.JSONPath != "" {
		if err := p.renderer.RenderJSON(res, out.JSONPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		p.progress(out.Verbose, "Wrote report: %s", out.JSONPath)
	}

	if out.MarkdownPath != "" {
		if err := p.renderer.RenderMarkdown(res, out.MarkdownPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		p.progress(out.Verbose, "Wrote summary: %s", out.MarkdownPath)
	}

	if out.SQLitePath != "" {
		st, err := store.Open(out.SQLitePath)
		if err != nil {
			return fmt.Errorf("open result store: %w", err)
		}
		defer st.Close()
		if err := st.SaveResult(ctx, res); err != nil {
			return fmt.Errorf("save to store: %w", err)
		}
		p.progress(out.Verbose, "Wrote SQLite store: %s", out.SQLitePath)
	}

	p.renderer.RenderSummary(res)
	return nil
}

// RenderCSV writes the per-customer segment table, the output of
// record consumed by the dashboard.
func (r *Renderer) RenderCSV(res *model.Result, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close csv: %w", closeErr)
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"customer_id", "recency", "frequency", "monetary", "cluster", "segment"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, c := range res.Customers {
		record := []string{
			c.CustomerID,
			strconv.Itoa(c.Recency),
			strconv.Itoa(c.Frequency),
			strconv.FormatFloat(c.Monetary, 'f', 2, 64),
			strconv.Itoa(c.Cluster),
			c.Segment,
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}

// RenderJSON writes the full result, including the score table and
// scaling parameters, for programmatic consumers.
func (r *Renderer) RenderJSON(res *model.Result, path string) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}

// RenderMarkdown writes a human-readable run summary.
func (r *Renderer) RenderMarkdown(res *model.Result, path string) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Customer Segmentation\n\n")
	fmt.Fprintf(&b, "- **Input:** %s\n", res.InputPath)
	fmt.Fprintf(&b, "- **Generated:** %s\n", res.GeneratedAt.Format("2006-01-02 15:04 UTC"))
	fmt.Fprintf(&b, "- **Customers:** %d\n", len(res.Customers))
	fmt.Fprintf(&b, "- **Chosen k:** %d\n", res.ChosenK)
	fmt.Fprintf(&b, "- **Seed:** %d\n\n", res.Seed)

	fmt.Fprintf(&b, "## Cleaning\n\n")
	fmt.Fprintf(&b, "| Rule | Rows |\n|---|---|\n")
	fmt.Fprintf(&b, "| Input | %d |\n", res.Drops.Input)
	fmt.Fprintf(&b, "| Missing customer id | %d |\n", res.Drops.MissingCustomer)
	fmt.Fprintf(&b, "| Cancelled invoice | %d |\n", res.Drops.Cancelled)
	fmt.Fprintf(&b, "| Non-positive quantity | %d |\n", res.Drops.NonPositiveQty)
	fmt.Fprintf(&b, "| Non-positive price | %d |\n", res.Drops.NonPositivePrice)
	fmt.Fprintf(&b, "| Kept | %d |\n\n", res.Drops.Kept)

	fmt.Fprintf(&b, "## Candidate scores\n\n")
	fmt.Fprintf(&b, "| k | WSS | Silhouette | Non-empty | Note |\n|---|---|---|---|---|\n")
	for _, sc := range res.Scores {
		sil := "n/a"
		if sc.Valid {
			sil = fmt.Sprintf("%.4f", sc.Silhouette)
		}
		marker := ""
		if sc.K == res.ChosenK {
			marker = " ← chosen"
		}
		fmt.Fprintf(&b, "| %d | %.2f | %s | %d | %s%s |\n", sc.K, sc.WSS, sil, sc.NonEmpty, sc.Note, marker)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "## Segments\n\n")
	fmt.Fprintf(&b, "| Segment | Customers | Avg recency | Avg frequency | Avg monetary | Revenue share |\n|---|---|---|---|---|---|\n")
	for _, p := range res.Profiles {
		fmt.Fprintf(&b, "| %s | %d | %.0f | %.1f | %.0f | %.1f%% |\n",
			p.Segment, p.Customers, p.AvgRecency, p.AvgFrequency, p.AvgMonetary, p.RevenueShare*100)
	}
	b.WriteString("\n")

	if len(res.Insights) > 0 {
		fmt.Fprintf(&b, "## Insights\n\n")
		for _, ins := range res.Insights {
			fmt.Fprintf(&b, "### %s\n\n%s\n\n", ins.Segment, ins.Text)
		}
	}

	if r.includeFooter {
		fmt.Fprintf(&b, "---\nGenerated by segmenta (seed %d). Scores are advisory; the full table above supports a manual override of k.\n", res.Seed)
	}

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("write markdown: %w", err)
	}
	return nil
}

// RenderSummary prints a short run summary to stdout.
func (r *Renderer) RenderSummary(res *model.Result) {
	fmt.Printf("Customers: %d  |  k=%d  |  seed %d\n", len(res.Customers), res.ChosenK, res.Seed)
	for _, p := range res.Profiles {
		fmt.Printf("  %-22s %6d customers  %5.1f%% of revenue\n", p.Segment, p.Customers, p.RevenueShare*100)
	}
	for _, w := range res.Warnings {
		fmt.Printf("  warning: %s\n", w)
	}
}

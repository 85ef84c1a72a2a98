package model

import "time"

// CandidateScore is the quality record for one candidate cluster count.
// Every candidate in the configured range appears in the score table,
// including collapsed or otherwise low-quality fits, so an operator can
// override the automatic pick.
type CandidateScore struct {
	K          int     `json:"k"`
	WSS        float64 `json:"wss"`        // within-cluster sum of squares
	Silhouette float64 `json:"silhouette"` // mean silhouette, [-1, 1]
	NonEmpty   int     `json:"non_empty_clusters"`
	Valid      bool    `json:"valid"` // silhouette well-defined and fit usable
	Note       string  `json:"note,omitempty"`
}

// CustomerSegment is one row of the final per-customer segment table.
type CustomerSegment struct {
	CustomerID string  `json:"customer_id"`
	Recency    int     `json:"recency"`
	Frequency  int     `json:"frequency"`
	Monetary   float64 `json:"monetary"`
	Cluster    int     `json:"cluster"`
	Segment    string  `json:"segment"`
}

// SegmentProfile aggregates one segment for reporting.
type SegmentProfile struct {
	Segment      string  `json:"segment"`
	Cluster      int     `json:"cluster"`
	Customers    int     `json:"customers"`
	AvgRecency   float64 `json:"avg_recency"`
	AvgFrequency float64 `json:"avg_frequency"`
	AvgMonetary  float64 `json:"avg_monetary"`
	TotalRevenue float64 `json:"total_revenue"`
	RevenueShare float64 `json:"revenue_share"` // fraction of population revenue
}

// SegmentInsight is an optional LLM-generated narrative for one segment.
// Insights are generated after segmentation and never affect it.
type SegmentInsight struct {
	Segment  string `json:"segment"`
	Text     string `json:"text"`
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
}

// Result is the segmentation result of record. It is rebuilt wholesale
// on every run; a failed run produces no Result at all.
type Result struct {
	GeneratedAt time.Time `json:"generated_at"`
	InputPath   string    `json:"input_path"`
	Seed        int64     `json:"seed"`

	Drops     DropReport       `json:"drops"`
	Reference time.Time        `json:"reference_date"`
	Scaling   ScalingParams    `json:"scaling"`
	Scores    []CandidateScore `json:"scores"`
	ChosenK   int              `json:"chosen_k"`

	Customers []CustomerSegment `json:"customers"`
	Profiles  []SegmentProfile  `json:"profiles"`
	Insights  []SegmentInsight  `json:"insights,omitempty"`
	Warnings  []string          `json:"warnings,omitempty"`
}

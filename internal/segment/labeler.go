// Package segment maps raw cluster indices to stable, business-facing
// segment identities. Raw indices are arbitrary across runs and seeds,
// so identity is derived from centroid semantics: clusters are ranked
// by value and named from a fixed vocabulary.
package segment

import (
	"fmt"
	"sort"

	"github.com/ppiankov/segmenta/internal/cluster"
	"github.com/ppiankov/segmenta/internal/model"
)

// vocabularies, keyed by k, ordered most valuable first. Any other k
// falls back to generic rank-based names; identities are never
// truncated or repeated.
var vocabularies = map[int][]string{
	2: {"High-Value Customers", "Lost Customers"},
	3: {"VIP Champions", "Core Customers", "Lost Customers"},
	4: {"VIP Champions", "Loyal Customers", "Core Customers", "Lost Customers"},
	5: {"VIP Champions", "Loyal Customers", "Core Customers", "At-Risk Customers", "Lost Customers"},
}

// Label ranks the fit's centroids and builds the final per-customer
// segment table. records must be the same customers, in the same order,
// that produced the fitted feature matrix.
func Label(fit cluster.Fit, params model.ScalingParams, records []model.RFMRecord) (map[int]string, []model.CustomerSegment, error) {
	if len(records) != len(fit.Assignments) {
		return nil, nil, fmt.Errorf("labeler: %d RFM records but %d assignments", len(records), len(fit.Assignments))
	}

	names := identityByCluster(fit, params)

	table := make([]model.CustomerSegment, len(records))
	for i, r := range records {
		c := fit.Assignments[i]
		table[i] = model.CustomerSegment{
			CustomerID: r.CustomerID,
			Recency:    r.Recency,
			Frequency:  r.Frequency,
			Monetary:   r.Monetary,
			Cluster:    c,
			Segment:    names[c],
		}
	}

	return names, table, nil
}

// identityByCluster ranks centroids (in original RFM units) by business
// value and assigns each raw cluster index its identity.
func identityByCluster(fit cluster.Fit, params model.ScalingParams) map[int]string {
	type ranked struct {
		cluster   int
		recency   float64
		frequency float64
		monetary  float64 // ln units; monotonic in monetary, which is all ranking needs
	}

	centroids := make([]ranked, fit.K)
	for c, centroid := range fit.Centroids {
		raw := params.Invert(centroid)
		centroids[c] = ranked{
			cluster:   c,
			recency:   raw[model.DimRecency],
			frequency: raw[model.DimFrequency],
			monetary:  raw[model.DimMonetary],
		}
	}

	// Primary: monetary descending. Tie-breaks: frequency descending,
	// then recency ascending (more recent is better).
	sort.SliceStable(centroids, func(i, j int) bool {
		if centroids[i].monetary != centroids[j].monetary {
			return centroids[i].monetary > centroids[j].monetary
		}
		if centroids[i].frequency != centroids[j].frequency {
			return centroids[i].frequency > centroids[j].frequency
		}
		return centroids[i].recency < centroids[j].recency
	})

	vocab, ok := vocabularies[fit.K]
	names := make(map[int]string, fit.K)
	for rank, rc := range centroids {
		if ok {
			names[rc.cluster] = vocab[rank]
		} else {
			names[rc.cluster] = fmt.Sprintf("Segment %d", rank+1)
		}
	}
	return names
}

// BuildProfiles aggregates the segment table into per-segment KPIs,
// ordered by total revenue descending.
func BuildProfiles(table []model.CustomerSegment) []model.SegmentProfile {
	type acc struct {
		cluster   int
		customers int
		recency   float64
		frequency float64
		monetary  float64
	}

	byName := make(map[string]*acc)
	order := make([]string, 0)
	totalRevenue := 0.0

	for _, row := range table {
		a, ok := byName[row.Segment]
		if !ok {
			a = &acc{cluster: row.Cluster}
			byName[row.Segment] = a
			order = append(order, row.Segment)
		}
		a.customers++
		a.recency += float64(row.Recency)
		a.frequency += float64(row.Frequency)
		a.monetary += row.Monetary
		totalRevenue += row.Monetary
	}

	profiles := make([]model.SegmentProfile, 0, len(order))
	for _, name := range order {
		a := byName[name]
		n := float64(a.customers)
		p := model.SegmentProfile{
			Segment:      name,
			Cluster:      a.cluster,
			Customers:    a.customers,
			AvgRecency:   a.recency / n,
			AvgFrequency: a.frequency / n,
			AvgMonetary:  a.monetary / n,
			TotalRevenue: a.monetary,
		}
		if totalRevenue > 0 {
			p.RevenueShare = a.monetary / totalRevenue
		}
		profiles = append(profiles, p)
	}

	sort.SliceStable(profiles, func(i, j int) bool {
		return profiles[i].TotalRevenue > profiles[j].TotalRevenue
	})
	return profiles
}

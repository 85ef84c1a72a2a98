// Package rfm reduces cleaned transactions to one behavioral record per
// customer: days since last purchase, distinct invoice count, and total
// revenue.
package rfm

import (
	"fmt"
	"sort"
	"time"

	"github.com/ppiankov/segmenta/internal/model"
)

// Aggregate groups cleaned transactions by customer and computes the
// RFM metrics against a single global reference date (the dataset's
// maximum invoice date plus one day), so recency is comparable across
// all customers in the run. Records are returned sorted by customer id
// so downstream stages and outputs are deterministic.
func Aggregate(txns []model.Transaction) ([]model.RFMRecord, time.Time, error) {
	if len(txns) == 0 {
		return nil, time.Time{}, fmt.Errorf("no cleaned transactions to aggregate")
	}

	reference := referenceDate(txns)

	type group struct {
		lastPurchase time.Time
		invoices     map[string]struct{}
		monetary     float64
	}

	groups := make(map[string]*group)
	for _, t := range txns {
		g, ok := groups[t.CustomerID]
		if !ok {
			g = &group{invoices: make(map[string]struct{})}
			groups[t.CustomerID] = g
		}
		if t.InvoiceDate.After(g.lastPurchase) {
			g.lastPurchase = t.InvoiceDate
		}
		g.invoices[t.InvoiceID] = struct{}{}
		g.monetary += t.Revenue()
	}

	records := make([]model.RFMRecord, 0, len(groups))
	for id, g := range groups {
		records = append(records, model.RFMRecord{
			CustomerID: id,
			Recency:    daysBetween(g.lastPurchase, reference),
			Frequency:  len(g.invoices),
			Monetary:   g.monetary,
		})
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CustomerID < records[j].CustomerID
	})

	return records, reference, nil
}

// referenceDate returns the dataset's maximum invoice date plus one
// day. The most recent purchaser therefore has recency 1, and no
// customer can have negative recency.
func referenceDate(txns []model.Transaction) time.Time {
	var max time.Time
	for _, t := range txns {
		if t.InvoiceDate.After(max) {
			max = t.InvoiceDate
		}
	}
	return max.Add(24 * time.Hour)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

// Package clean filters raw transactions down to the analyzable subset.
// Rows are excluded, never repaired: RFM metrics cannot tolerate revenue
// derived from corrupt inputs.
package clean

import (
	"strings"

	"github.com/ppiankov/segmenta/internal/model"
)

// Cleaner applies the exclusion rules to a raw transaction set.
type Cleaner struct {
	cancelPrefix string
}

// NewCleaner creates a cleaner. cancelPrefix marks cancelled invoices;
// an empty prefix disables the cancellation rule.
func NewCleaner(cancelPrefix string) *Cleaner {
	return &Cleaner{cancelPrefix: cancelPrefix}
}

// Clean returns the rows that pass every rule plus per-reason drop
// counts. A row failing several rules increments each matching counter
// but is dropped exactly once.
func (c *Cleaner) Clean(txns []model.Transaction) ([]model.Transaction, model.DropReport) {
	report := model.DropReport{Input: len(txns)}
	kept := make([]model.Transaction, 0, len(txns))

	for _, t := range txns {
		drop := false

		if t.CustomerID == "" {
			report.MissingCustomer++
			drop = true
		}
		if c.cancelPrefix != "" && strings.HasPrefix(t.InvoiceID, c.cancelPrefix) {
			report.Cancelled++
			drop = true
		}
		if t.Quantity <= 0 {
			report.NonPositiveQty++
			drop = true
		}
		if t.UnitPrice <= 0 {
			report.NonPositivePrice++
			drop = true
		}

		if drop {
			report.Dropped++
			continue
		}
		kept = append(kept, t)
	}

	report.Kept = len(kept)
	return kept, report
}

package clean

import (
	"testing"
	"time"

	"github.com/ppiankov/segmenta/internal/model"
)

func txn(invoice, customer string, qty int, price float64) model.Transaction {
	return model.Transaction{
		InvoiceID:   invoice,
		ItemID:      "SKU-1",
		Quantity:    qty,
		UnitPrice:   price,
		InvoiceDate: time.Date(2011, 6, 1, 12, 0, 0, 0, time.UTC),
		CustomerID:  customer,
	}
}

func TestCleaner_KeepsValidRows(t *testing.T) {
	cleaner := NewCleaner("C")

	kept, report := cleaner.Clean([]model.Transaction{
		txn("536365", "17850", 6, 2.55),
		txn("536366", "13047", 1, 10.0),
	})

	if len(kept) != 2 {
		t.Fatalf("expected 2 kept rows, got %d", len(kept))
	}
	if report.Dropped != 0 {
		t.Errorf("expected 0 dropped, got %d", report.Dropped)
	}
	if report.Input != 2 || report.Kept != 2 {
		t.Errorf("unexpected report counts: %+v", report)
	}

	for _, row := range kept {
		if row.Revenue() <= 0 {
			t.Errorf("cleaned row has non-positive revenue: %+v", row)
		}
	}
}

func TestCleaner_DropRules(t *testing.T) {
	cleaner := NewCleaner("C")

	tests := []struct {
		name string
		row  model.Transaction
	}{
		{"missing customer", txn("536365", "", 6, 2.55)},
		{"cancelled invoice", txn("C536365", "17850", 6, 2.55)},
		{"negative quantity", txn("536365", "17850", -2, 2.55)},
		{"zero quantity", txn("536365", "17850", 0, 2.55)},
		{"zero price", txn("536365", "17850", 6, 0)},
		{"negative price", txn("536365", "17850", 6, -1.5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kept, report := cleaner.Clean([]model.Transaction{tt.row})
			if len(kept) != 0 {
				t.Errorf("expected row to be dropped, kept %+v", kept)
			}
			if report.Dropped != 1 {
				t.Errorf("expected 1 dropped, got %d", report.Dropped)
			}
		})
	}
}

func TestCleaner_OverlappingReasonsDropOnce(t *testing.T) {
	cleaner := NewCleaner("C")

	// One row failing every rule at once.
	row := txn("C536365", "", -1, 0)
	kept, report := cleaner.Clean([]model.Transaction{row})

	if len(kept) != 0 {
		t.Fatalf("expected row to be dropped")
	}
	if report.Dropped != 1 {
		t.Errorf("row must be dropped exactly once, got %d", report.Dropped)
	}
	if report.MissingCustomer != 1 || report.Cancelled != 1 || report.NonPositiveQty != 1 || report.NonPositivePrice != 1 {
		t.Errorf("every matching reason should be counted: %+v", report)
	}
}

func TestCleaner_EmptyPrefixDisablesCancellationRule(t *testing.T) {
	cleaner := NewCleaner("")

	kept, _ := cleaner.Clean([]model.Transaction{txn("C536365", "17850", 1, 1.0)})
	if len(kept) != 1 {
		t.Errorf("cancellation rule should be disabled with empty prefix")
	}
}

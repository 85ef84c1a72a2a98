package model

import "time"

// Transaction is a single invoice line as read from the raw dataset.
// Rows are never mutated after ingestion; cleaning works on copies of
// the slice, not on the rows themselves.
type Transaction struct {
	InvoiceID   string    `json:"invoice_id"`
	ItemID      string    `json:"item_id"`
	Description string    `json:"description,omitempty"`
	Quantity    int       `json:"quantity"`
	UnitPrice   float64   `json:"unit_price"`
	InvoiceDate time.Time `json:"invoice_date"`
	CustomerID  string    `json:"customer_id"`
	Country     string    `json:"country,omitempty"`
}

// Revenue returns the line revenue (quantity × unit price).
// For cleaned rows this is always > 0.
func (t Transaction) Revenue() float64 {
	return float64(t.Quantity) * t.UnitPrice
}

// DropReport records how many rows each cleaning rule excluded.
// A row can match several rules, so the per-reason counts may sum to
// more than Dropped; every row is removed from the output at most once.
type DropReport struct {
	Input             int `json:"input_rows"`
	Kept              int `json:"kept_rows"`
	Dropped           int `json:"dropped_rows"`
	MissingCustomer   int `json:"missing_customer"`
	Cancelled         int `json:"cancelled"`
	NonPositiveQty    int `json:"non_positive_quantity"`
	NonPositivePrice  int `json:"non_positive_price"`
}

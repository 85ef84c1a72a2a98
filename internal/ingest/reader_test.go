package ingest

import (
	"errors"
	"strings"
	"testing"
	"time"
)

const sampleCSV = `InvoiceNo,StockCode,Description,Quantity,InvoiceDate,UnitPrice,CustomerID,Country
536365,85123A,WHITE HANGING HEART T-LIGHT HOLDER,6,2010-12-01 08:26:00,2.55,17850.0,United Kingdom
C536379,D,Discount,-1,2010-12-01 09:41:00,27.50,14527,United Kingdom
536370,22728,ALARM CLOCK BAKELIKE PINK,24,2010-12-01 08:45:00,3.75,,France
`

func TestReadCSV(t *testing.T) {
	txns, err := ReadCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(txns) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(txns))
	}

	first := txns[0]
	if first.InvoiceID != "536365" {
		t.Errorf("invoice = %q", first.InvoiceID)
	}
	if first.ItemID != "85123A" {
		t.Errorf("item = %q", first.ItemID)
	}
	if first.Quantity != 6 || first.UnitPrice != 2.55 {
		t.Errorf("qty/price = %d/%v", first.Quantity, first.UnitPrice)
	}
	// Float export artifact stripped from the id.
	if first.CustomerID != "17850" {
		t.Errorf("customer = %q, want 17850", first.CustomerID)
	}
	want := time.Date(2010, 12, 1, 8, 26, 0, 0, time.UTC)
	if !first.InvoiceDate.Equal(want) {
		t.Errorf("date = %v, want %v", first.InvoiceDate, want)
	}

	// Cancelled and negative rows survive ingestion untouched; cleaning
	// is a separate stage.
	if txns[1].Quantity != -1 {
		t.Errorf("negative quantity altered: %d", txns[1].Quantity)
	}
	if txns[2].CustomerID != "" {
		t.Errorf("missing customer should stay empty, got %q", txns[2].CustomerID)
	}
}

func TestReadCSV_SchemaError(t *testing.T) {
	// No customer or price columns.
	csv := "InvoiceNo,StockCode,Quantity,InvoiceDate\n1,2,3,2010-12-01 08:26:00\n"

	_, err := ReadCSV(strings.NewReader(csv))
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError, got %v", err)
	}

	found := map[string]bool{}
	for _, m := range schemaErr.Missing {
		found[m] = true
	}
	if !found["price"] || !found["customer"] {
		t.Errorf("missing columns = %v, want price and customer reported", schemaErr.Missing)
	}
}

func TestReadCSV_EmptyInput(t *testing.T) {
	var schemaErr *SchemaError
	if _, err := ReadCSV(strings.NewReader("")); !errors.As(err, &schemaErr) {
		t.Errorf("expected SchemaError for empty input, got %v", err)
	}
}

func TestReadCSV_BadNumberFailsFast(t *testing.T) {
	csv := "InvoiceNo,StockCode,Quantity,InvoiceDate,UnitPrice,CustomerID\n1,2,six,2010-12-01 08:26:00,1.0,42\n"
	if _, err := ReadCSV(strings.NewReader(csv)); err == nil {
		t.Error("expected error for non-numeric quantity")
	}
}

func TestReadCSV_SkipsBlankRows(t *testing.T) {
	csv := "InvoiceNo,StockCode,Quantity,InvoiceDate,UnitPrice,CustomerID\n1,2,3,2010-12-01 08:26:00,1.0,42\n,,,,,\n"
	txns, err := ReadCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(txns) != 1 {
		t.Errorf("expected blank row skipped, got %d rows", len(txns))
	}
}

func TestHeaderAliases(t *testing.T) {
	// Underscored and spaced variants resolve to the same roles.
	csv := "invoice_no,item_id,qty,date,price,customer_id\n1,2,3,2010-12-01 08:26:00,1.0,42\n"
	txns, err := ReadCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if txns[0].CustomerID != "42" || txns[0].Quantity != 3 {
		t.Errorf("alias mapping failed: %+v", txns[0])
	}
}

func TestParseQuantity(t *testing.T) {
	for _, tt := range []struct {
		cell string
		want int
	}{
		{"6", 6},
		{"-2", -2},
		{"6.0", 6}, // float export artifact
	} {
		got, err := parseQuantity(tt.cell)
		if err != nil || got != tt.want {
			t.Errorf("parseQuantity(%q) = %d, %v; want %d", tt.cell, got, err, tt.want)
		}
	}

	for _, cell := range []string{"6.7", "-1.5", "six", ""} {
		if _, err := parseQuantity(cell); err == nil {
			t.Errorf("parseQuantity(%q): expected error", cell)
		}
	}
}

func TestParseDate_Formats(t *testing.T) {
	cases := []string{
		"2010-12-01 08:26:00",
		"2010-12-01T08:26:00Z",
		"12/1/2010 08:26",
		"12/1/10 08:26",
		"2010-12-01",
	}
	for _, c := range cases {
		if _, err := parseDate(c); err != nil {
			t.Errorf("parseDate(%q): %v", c, err)
		}
	}

	if _, err := parseDate("not a date"); err == nil {
		t.Error("expected error for garbage date")
	}
}

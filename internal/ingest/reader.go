// Package ingest loads raw transaction datasets from local CSV or XLSX
// files into memory. It owns the only schema requirement of the
// pipeline: the header must expose the invoice, item, quantity, date,
// price and customer columns, or loading fails before any row is read.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/segmenta/internal/model"
	"github.com/xuri/excelize/v2"
)

// SchemaError reports required columns missing from the input header.
// It is fatal: no rows are processed when the schema is incomplete.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return "input schema missing required columns: " + strings.Join(e.Missing, ", ")
}

// Column roles resolved from the header row.
const (
	colInvoice = "invoice"
	colItem    = "item"
	colDesc    = "description"
	colQty     = "quantity"
	colDate    = "date"
	colPrice   = "price"
	colCust    = "customer"
	colCountry = "country"
)

// headerAliases maps normalized header names to column roles. Covers the
// Online Retail naming plus common export variants.
var headerAliases = map[string]string{
	"invoiceno":   colInvoice,
	"invoiceid":   colInvoice,
	"invoice":     colInvoice,
	"stockcode":   colItem,
	"itemid":      colItem,
	"item":        colItem,
	"description": colDesc,
	"quantity":    colQty,
	"qty":         colQty,
	"invoicedate": colDate,
	"date":        colDate,
	"unitprice":   colPrice,
	"price":       colPrice,
	"customerid":  colCust,
	"customer":    colCust,
	"country":     colCountry,
}

var requiredCols = []string{colInvoice, colItem, colQty, colDate, colPrice, colCust}

// dateFormats tried in order when parsing invoice dates.
var dateFormats = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"1/2/2006 15:04",
	"01/02/2006 15:04",
	"1/2/06 15:04",
	"2006-01-02",
}

// columnMap resolves header cells to column roles.
type columnMap map[string]int

func normalizeHeader(cell string) string {
	s := strings.ToLower(strings.TrimSpace(cell))
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "_", "")
	return s
}

// resolveHeader builds a column map from a header row, or returns a
// SchemaError listing every missing required column.
func resolveHeader(header []string) (columnMap, error) {
	cols := make(columnMap)
	for i, cell := range header {
		if role, ok := headerAliases[normalizeHeader(cell)]; ok {
			if _, taken := cols[role]; !taken {
				cols[role] = i
			}
		}
	}

	var missing []string
	for _, role := range requiredCols {
		if _, ok := cols[role]; !ok {
			missing = append(missing, role)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}
	return cols, nil
}

func (c columnMap) cell(row []string, role string) string {
	idx, ok := c[role]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// decodeRow converts one data row into a Transaction. Numeric and date
// cells that cannot be parsed are a wrong-type schema problem and abort
// the load; missing customer ids are left empty for the cleaner.
func (c columnMap) decodeRow(row []string, rowNum int) (model.Transaction, error) {
	var t model.Transaction

	t.InvoiceID = c.cell(row, colInvoice)
	t.ItemID = c.cell(row, colItem)
	t.Description = c.cell(row, colDesc)
	t.Country = c.cell(row, colCountry)
	t.CustomerID = normalizeCustomerID(c.cell(row, colCust))

	qty, err := parseQuantity(c.cell(row, colQty))
	if err != nil {
		return t, fmt.Errorf("row %d: quantity: %w", rowNum, err)
	}
	t.Quantity = qty

	price, err := strconv.ParseFloat(c.cell(row, colPrice), 64)
	if err != nil {
		return t, fmt.Errorf("row %d: unit price %q: %w", rowNum, c.cell(row, colPrice), err)
	}
	t.UnitPrice = price

	date, err := parseDate(c.cell(row, colDate))
	if err != nil {
		return t, fmt.Errorf("row %d: %w", rowNum, err)
	}
	t.InvoiceDate = date

	return t, nil
}

// normalizeCustomerID strips the float artifacts some exports add to
// numeric ids ("17850.0") and maps NaN markers to empty.
func normalizeCustomerID(id string) string {
	if id == "" || strings.EqualFold(id, "nan") || strings.EqualFold(id, "null") {
		return ""
	}
	return strings.TrimSuffix(id, ".0")
}

// parseQuantity accepts integers and float-exported integrals ("6.0").
// A fractional quantity is a wrong-type cell, not data to truncate.
func parseQuantity(cell string) (int, error) {
	if qty, err := strconv.Atoi(cell); err == nil {
		return qty, nil
	}
	f, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", cell)
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("not a whole number: %q", cell)
	}
	return int(f), nil
}

func parseDate(cell string) (time.Time, error) {
	for _, layout := range dateFormats {
		if ts, err := time.Parse(layout, cell); err == nil {
			return ts, nil
		}
	}
	// XLSX cells sometimes surface as raw Excel serial numbers.
	if serial, err := strconv.ParseFloat(cell, 64); err == nil {
		if ts, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("invoice date %q: unrecognized format", cell)
}

// ReadCSV reads transactions from a CSV stream. The first record is the
// header.
func ReadCSV(r io.Reader) ([]model.Transaction, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // ragged rows surface as decode errors, not csv errors

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &SchemaError{Missing: requiredCols}
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols, err := resolveHeader(header)
	if err != nil {
		return nil, err
	}

	var txns []model.Transaction
	for rowNum := 2; ; rowNum++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}
		if isEmptyRow(row) {
			continue
		}
		t, err := cols.decodeRow(row, rowNum)
		if err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}

	return txns, nil
}

// ReadXLSX reads transactions from an Excel workbook. An empty sheet
// name selects the first worksheet.
func ReadXLSX(path, sheet string) ([]model.Transaction, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, &SchemaError{Missing: requiredCols}
	}

	cols, err := resolveHeader(rows[0])
	if err != nil {
		return nil, err
	}

	var txns []model.Transaction
	for i, row := range rows[1:] {
		if isEmptyRow(row) {
			continue
		}
		t, err := cols.decodeRow(row, i+2)
		if err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}

	return txns, nil
}

// ReadFile dispatches on the file extension: .xlsx/.xlsm go through
// excelize, everything else is treated as CSV.
func ReadFile(path, sheet string) ([]model.Transaction, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return ReadXLSX(path, sheet)
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		return ReadCSV(f)
	}
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/ppiankov/segmenta/internal/cluster"
	"github.com/ppiankov/segmenta/internal/model"
	"github.com/ppiankov/segmenta/internal/scale"
)

// writeDataset builds a CSV with three obvious customer tiers: two
// whales, six regulars, four churned one-off buyers.
func writeDataset(t *testing.T) string {
	t.Helper()

	var b strings.Builder
	b.WriteString("InvoiceNo,StockCode,Description,Quantity,InvoiceDate,UnitPrice,CustomerID,Country\n")
	row := func(invoice, customer, date string, qty int, price float64) {
		fmt.Fprintf(&b, "%s,SKU1,item,%d,%s,%.2f,%s,United Kingdom\n", invoice, qty, date, price, customer)
	}

	// Whales: five invoices each, big tickets, recent.
	for i := 0; i < 5; i++ {
		row(fmt.Sprintf("9%03d", i), "whale1", fmt.Sprintf("2011-12-%02d 10:00:00", i+1), 2, 1000)
		row(fmt.Sprintf("8%03d", i), "whale2", fmt.Sprintf("2011-12-%02d 11:00:00", i+2), 2, 900)
	}
	// Regulars: two or three mid-size invoices, a couple months back.
	for c := 0; c < 6; c++ {
		customer := fmt.Sprintf("reg%d", c+1)
		for i := 0; i < 2+c%2; i++ {
			row(fmt.Sprintf("5%d%02d", c, i), customer, fmt.Sprintf("2011-10-%02d 09:00:00", c+i*3+1), 3, 25+float64(c))
		}
	}
	// Lost: one small invoice each, almost a year old.
	for c := 0; c < 4; c++ {
		row(fmt.Sprintf("1%03d", c), fmt.Sprintf("lost%d", c+1), fmt.Sprintf("2011-01-%02d 09:00:00", c+5), 1, 10)
	}
	// Noise the cleaner must drop.
	row("C999", "whale1", "2011-12-05 10:00:00", 2, 1000)   // cancellation
	row("7001", "", "2011-11-01 10:00:00", 1, 5)            // no customer
	row("7002", "reg1", "2011-11-01 10:00:00", -3, 5)       // return
	row("7003", "reg2", "2011-11-01 10:00:00", 1, 0)        // zero price

	path := filepath.Join(t.TempDir(), "transactions.csv")
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testConfig(path string) *model.Config {
	cfg := model.DefaultConfig()
	cfg.Input.Path = path
	cfg.Cluster.KMin = 2
	cfg.Cluster.KMax = 4
	cfg.Cache.Enabled = false
	cfg.Output = model.OutputConfig{}
	return cfg
}

func TestPipeline_EndToEnd(t *testing.T) {
	cfg := testConfig(writeDataset(t))

	result, err := NewPipeline(cfg).Run(context.Background())
	if err != nil {
		t.Fatalf("pipeline failed: %v", err)
	}

	if len(result.Customers) != 12 {
		t.Errorf("expected 12 customers, got %d", len(result.Customers))
	}
	if result.Drops.Dropped != 4 {
		t.Errorf("expected 4 dropped rows, got %d (%+v)", result.Drops.Dropped, result.Drops)
	}

	for _, c := range result.Customers {
		if c.Recency < 1 {
			t.Errorf("%s: recency %d < 1", c.CustomerID, c.Recency)
		}
		if c.Frequency < 1 {
			t.Errorf("%s: frequency %d < 1", c.CustomerID, c.Frequency)
		}
		if c.Monetary <= 0 {
			t.Errorf("%s: monetary %v <= 0", c.CustomerID, c.Monetary)
		}
		if c.Segment == "" {
			t.Errorf("%s: empty segment identity", c.CustomerID)
		}
	}

	if result.ChosenK < cfg.Cluster.KMin || result.ChosenK > cfg.Cluster.KMax {
		t.Errorf("chosen k %d outside configured range", result.ChosenK)
	}
	if len(result.Scores) != 3 {
		t.Errorf("expected scores for every candidate, got %d", len(result.Scores))
	}
	if result.Seed != cfg.Cluster.Seed {
		t.Errorf("result seed %d, want %d", result.Seed, cfg.Cluster.Seed)
	}

	// The whales must share the top-revenue segment.
	var whaleSegment string
	for _, c := range result.Customers {
		if c.CustomerID == "whale1" {
			whaleSegment = c.Segment
		}
	}
	if result.Profiles[0].Segment != whaleSegment {
		t.Errorf("top-revenue profile %q does not hold the whales (%q)", result.Profiles[0].Segment, whaleSegment)
	}
}

func TestPipeline_Idempotent(t *testing.T) {
	path := writeDataset(t)

	first, err := NewPipeline(testConfig(path)).Run(context.Background())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := NewPipeline(testConfig(path)).Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if !reflect.DeepEqual(first.Customers, second.Customers) {
		t.Error("segment assignments differ across identical runs")
	}
	if !reflect.DeepEqual(first.Scores, second.Scores) {
		t.Error("score tables differ across identical runs")
	}
	if first.ChosenK != second.ChosenK {
		t.Errorf("chosen k differs: %d vs %d", first.ChosenK, second.ChosenK)
	}
}

func TestPipeline_DegenerateFrequency(t *testing.T) {
	// Every customer has exactly one invoice: zero variance on the
	// frequency dimension must abort at the scaler.
	var b strings.Builder
	b.WriteString("InvoiceNo,StockCode,Quantity,InvoiceDate,UnitPrice,CustomerID\n")
	for c := 0; c < 6; c++ {
		fmt.Fprintf(&b, "%d,SKU1,%d,2011-06-%02d 10:00:00,%d.50,cust%d\n", 1000+c, c+1, c+1, 10+c, c)
	}
	path := filepath.Join(t.TempDir(), "flat.csv")
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := testConfig(path)
	_, err := NewPipeline(cfg).Run(context.Background())
	if err == nil {
		t.Fatal("expected degenerate-data error")
	}

	var degenerate *scale.DegenerateError
	if !errors.As(err, &degenerate) {
		t.Fatalf("expected DegenerateError, got %v", err)
	}
}

func TestPipeline_BadKRange(t *testing.T) {
	cfg := testConfig(writeDataset(t))
	cfg.Cluster.KMax = 50 // above the 12-customer population

	_, err := NewPipeline(cfg).Run(context.Background())
	var cfgErr *cluster.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestPipeline_SchemaErrorAbortsBeforeProcessing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	if err := os.WriteFile(path, []byte("foo,bar\n1,2\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := testConfig(path)
	if _, err := NewPipeline(cfg).Run(context.Background()); err == nil {
		t.Fatal("expected schema error")
	}
}

package scale

import (
	"errors"
	"math"
	"testing"

	"github.com/ppiankov/segmenta/internal/model"
)

func records() []model.RFMRecord {
	return []model.RFMRecord{
		{CustomerID: "A", Recency: 5, Frequency: 100, Monetary: 50000},
		{CustomerID: "B", Recency: 60, Frequency: 8, Monetary: 1000},
		{CustomerID: "C", Recency: 400, Frequency: 1, Monetary: 100},
		{CustomerID: "D", Recency: 30, Frequency: 12, Monetary: 2500},
	}
}

func TestFit_StandardizesToZeroMeanUnitVariance(t *testing.T) {
	features, _, err := Fit(records())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	n := float64(len(features))
	for d := 0; d < model.NumDims; d++ {
		mean := 0.0
		for _, v := range features {
			mean += v[d]
		}
		mean /= n

		variance := 0.0
		for _, v := range features {
			variance += (v[d] - mean) * (v[d] - mean)
		}
		variance /= n

		if math.Abs(mean) > 1e-9 {
			t.Errorf("dimension %s: mean %v, want 0", model.DimNames[d], mean)
		}
		if math.Abs(variance-1) > 1e-9 {
			t.Errorf("dimension %s: variance %v, want 1", model.DimNames[d], variance)
		}
	}
}

func TestFit_RoundTrip(t *testing.T) {
	recs := records()
	features, params, err := Fit(recs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, r := range recs {
		raw := params.Invert(features[i])

		if math.Abs(raw[model.DimRecency]-float64(r.Recency)) > 1e-9 {
			t.Errorf("%s: recency round-trip %v != %d", r.CustomerID, raw[model.DimRecency], r.Recency)
		}
		if math.Abs(raw[model.DimFrequency]-float64(r.Frequency)) > 1e-9 {
			t.Errorf("%s: frequency round-trip %v != %d", r.CustomerID, raw[model.DimFrequency], r.Frequency)
		}
		if math.Abs(raw[model.DimMonetary]-math.Log(r.Monetary)) > 1e-9 {
			t.Errorf("%s: log-monetary round-trip %v != %v", r.CustomerID, raw[model.DimMonetary], math.Log(r.Monetary))
		}
	}
}

func TestFit_NoNaNOrInf(t *testing.T) {
	features, _, err := Fit(records())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, v := range features {
		for d := 0; d < model.NumDims; d++ {
			if math.IsNaN(v[d]) || math.IsInf(v[d], 0) {
				t.Errorf("feature %d dimension %d is %v", i, d, v[d])
			}
		}
	}
}

func TestFit_ZeroVarianceFails(t *testing.T) {
	// Every customer identical on frequency: standardization undefined.
	recs := []model.RFMRecord{
		{CustomerID: "A", Recency: 10, Frequency: 1, Monetary: 100},
		{CustomerID: "B", Recency: 20, Frequency: 1, Monetary: 200},
		{CustomerID: "C", Recency: 30, Frequency: 1, Monetary: 300},
	}

	_, _, err := Fit(recs)
	if err == nil {
		t.Fatal("expected degenerate-data error")
	}

	var degenerate *DegenerateError
	if !errors.As(err, &degenerate) {
		t.Fatalf("expected DegenerateError, got %T: %v", err, err)
	}
	if degenerate.Dimension != "frequency" {
		t.Errorf("degenerate dimension = %q, want frequency", degenerate.Dimension)
	}
}

func TestFit_EmptyInput(t *testing.T) {
	if _, _, err := Fit(nil); err == nil {
		t.Error("expected error for empty input")
	}
}

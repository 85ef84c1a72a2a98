package model

// Feature dimensions, in vector order.
const (
	DimRecency = iota
	DimFrequency
	DimMonetary
	NumDims
)

// DimNames are the human-readable dimension names, in vector order.
// The monetary dimension is log-transformed before scaling, hence the name.
var DimNames = [NumDims]string{"recency", "frequency", "log_monetary"}

// RFMRecord holds the behavioral metrics for one customer.
// Invariants (guaranteed by the cleaning rules upstream):
// recency ≥ 0, frequency ≥ 1, monetary > 0.
type RFMRecord struct {
	CustomerID string  `json:"customer_id"`
	Recency    int     `json:"recency"`
	Frequency  int     `json:"frequency"`
	Monetary   float64 `json:"monetary"`
}

// FeatureVector is one customer's standardized
// (recency, frequency, ln monetary) triple.
type FeatureVector [NumDims]float64

// ScalingParams are the fitted per-dimension standardization parameters.
// They are returned by the scaler so future data can be transformed
// without refitting, and so centroids can be mapped back to RFM units.
type ScalingParams struct {
	Mean [NumDims]float64 `json:"mean"`
	Std  [NumDims]float64 `json:"std"`
}

// Apply standardizes an already log-transformed raw vector.
func (p ScalingParams) Apply(raw FeatureVector) FeatureVector {
	var out FeatureVector
	for d := 0; d < NumDims; d++ {
		out[d] = (raw[d] - p.Mean[d]) / p.Std[d]
	}
	return out
}

// Invert maps a standardized vector back to (recency, frequency,
// ln monetary) units.
func (p ScalingParams) Invert(scaled FeatureVector) FeatureVector {
	var out FeatureVector
	for d := 0; d < NumDims; d++ {
		out[d] = scaled[d]*p.Std[d] + p.Mean[d]
	}
	return out
}

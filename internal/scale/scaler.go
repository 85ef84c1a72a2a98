// Package scale turns RFM records into a standardized feature space:
// monetary is log-compressed to tame its heavy right skew, then all
// three dimensions are independently centered and scaled to unit
// variance over the customer population.
package scale

import (
	"fmt"
	"math"

	"github.com/ppiankov/segmenta/internal/model"
)

// DegenerateError reports a feature dimension with zero variance.
// Standardizing such a dimension would divide by zero and poison the
// clustering with NaN/Inf, so fitting fails instead.
type DegenerateError struct {
	Dimension string
}

func (e *DegenerateError) Error() string {
	return fmt.Sprintf("degenerate input: dimension %q has zero variance across all customers", e.Dimension)
}

// Fit standardizes the full RFM table and returns the feature matrix
// alongside the fitted parameters. Scaling is population-relative: the
// mean and standard deviation of each dimension are computed over every
// customer passed in, and only those.
func Fit(records []model.RFMRecord) ([]model.FeatureVector, model.ScalingParams, error) {
	var params model.ScalingParams
	if len(records) == 0 {
		return nil, params, fmt.Errorf("no customers to scale")
	}

	raw := make([]model.FeatureVector, len(records))
	for i, r := range records {
		raw[i] = rawVector(r)
	}

	n := float64(len(raw))
	for d := 0; d < model.NumDims; d++ {
		sum := 0.0
		for _, v := range raw {
			sum += v[d]
		}
		mean := sum / n

		variance := 0.0
		for _, v := range raw {
			diff := v[d] - mean
			variance += diff * diff
		}
		variance /= n // population variance, matching the fitted scaler convention

		if variance == 0 {
			return nil, params, &DegenerateError{Dimension: model.DimNames[d]}
		}

		params.Mean[d] = mean
		params.Std[d] = math.Sqrt(variance)
	}

	scaled := make([]model.FeatureVector, len(raw))
	for i, v := range raw {
		scaled[i] = params.Apply(v)
	}

	return scaled, params, nil
}

// rawVector builds the pre-standardization feature triple. Monetary is
// always > 0 by the data model invariant, so the log is defined.
func rawVector(r model.RFMRecord) model.FeatureVector {
	return model.FeatureVector{
		float64(r.Recency),
		float64(r.Frequency),
		math.Log(r.Monetary),
	}
}

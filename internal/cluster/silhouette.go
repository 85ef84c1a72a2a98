package cluster

import "github.com/ppiankov/segmenta/internal/model"

// Silhouette computes the mean silhouette coefficient of a fit, in
// [-1, 1]. It is defined only when the fit has at least two non-empty
// clusters and fewer clusters than points; otherwise ok is false.
//
// Points that are alone in their cluster score 0, matching the usual
// convention. The computation is the full O(n²) pairwise form, which is
// fine for populations sized for one machine.
func Silhouette(points []model.FeatureVector, fit Fit) (float64, bool) {
	n := len(points)
	if fit.NonEmpty < 2 || fit.K >= n {
		return 0, false
	}

	sizes := make([]int, fit.K)
	for _, c := range fit.Assignments {
		sizes[c]++
	}

	total := 0.0
	for i := 0; i < n; i++ {
		own := fit.Assignments[i]
		if sizes[own] == 1 {
			continue // s(i) = 0
		}

		// Mean distance to every cluster.
		sums := make([]float64, fit.K)
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			sums[fit.Assignments[j]] += dist(points[i], points[j])
		}

		a := sums[own] / float64(sizes[own]-1)

		b := 0.0
		first := true
		for c := 0; c < fit.K; c++ {
			if c == own || sizes[c] == 0 {
				continue
			}
			mean := sums[c] / float64(sizes[c])
			if first || mean < b {
				b = mean
				first = false
			}
		}

		max := a
		if b > max {
			max = b
		}
		if max > 0 {
			total += (b - a) / max
		}
	}

	return total / float64(n), true
}

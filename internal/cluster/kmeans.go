// Package cluster implements seeded k-means over the standardized
// feature matrix, quality scoring (within-cluster sum of squares and
// silhouette), and the candidate-k sweep that selects the segmentation.
package cluster

import (
	"math"
	"math/rand"

	"github.com/ppiankov/segmenta/internal/model"
)

// Fit is one fitted clustering of the feature matrix.
type Fit struct {
	K           int
	Centroids   []model.FeatureVector
	Assignments []int // index into Centroids, one per point
	WSS         float64
	NonEmpty    int
}

// FitKMeans runs k-means with restarts randomized initializations and
// returns the fit with the lowest WSS. The seed fully determines the
// outcome: restart r uses a rng derived from seed and r, so results are
// reproducible regardless of scheduling.
func FitKMeans(points []model.FeatureVector, k, restarts, maxIter int, tol float64, seed int64) Fit {
	if restarts < 1 {
		restarts = 1
	}

	best := Fit{WSS: math.Inf(1)}
	for r := 0; r < restarts; r++ {
		rng := rand.New(rand.NewSource(seed + int64(r)))
		fit := lloyd(points, k, rng, maxIter, tol)
		if fit.WSS < best.WSS {
			best = fit
		}
	}
	return best
}

// lloyd runs one k-means++ initialization followed by Lloyd iterations
// until the centroids move less than tol or maxIter is reached.
func lloyd(points []model.FeatureVector, k int, rng *rand.Rand, maxIter int, tol float64) Fit {
	centroids := seedCentroids(points, k, rng)
	assignments := make([]int, len(points))

	for iter := 0; iter < maxIter; iter++ {
		for i, p := range points {
			assignments[i] = nearest(p, centroids)
		}

		next := recompute(points, assignments, centroids)

		shift := 0.0
		for c := range centroids {
			if d := sqDist(centroids[c], next[c]); d > shift {
				shift = d
			}
		}
		centroids = next
		if shift < tol*tol {
			break
		}
	}

	// Final assignment against the settled centroids.
	for i, p := range points {
		assignments[i] = nearest(p, centroids)
	}

	return Fit{
		K:           k,
		Centroids:   centroids,
		Assignments: assignments,
		WSS:         wss(points, assignments, centroids),
		NonEmpty:    countNonEmpty(assignments, k),
	}
}

// seedCentroids implements k-means++ seeding: the first centroid is
// drawn uniformly, each further one with probability proportional to
// the squared distance from the nearest already-chosen centroid.
func seedCentroids(points []model.FeatureVector, k int, rng *rand.Rand) []model.FeatureVector {
	centroids := make([]model.FeatureVector, 0, k)
	centroids = append(centroids, points[rng.Intn(len(points))])

	dist := make([]float64, len(points))
	for len(centroids) < k {
		total := 0.0
		for i, p := range points {
			d := math.Inf(1)
			for _, c := range centroids {
				if sd := sqDist(p, c); sd < d {
					d = sd
				}
			}
			dist[i] = d
			total += d
		}

		if total == 0 {
			// All remaining points coincide with a centroid; any pick works.
			centroids = append(centroids, points[rng.Intn(len(points))])
			continue
		}

		target := rng.Float64() * total
		cum := 0.0
		chosen := len(points) - 1
		for i, d := range dist {
			cum += d
			if cum >= target {
				chosen = i
				break
			}
		}
		centroids = append(centroids, points[chosen])
	}

	return centroids
}

// recompute returns the mean of each cluster's points. A cluster left
// with no points keeps its previous centroid, so a collapsed fit
// surfaces as NonEmpty < K instead of being silently repaired.
func recompute(points []model.FeatureVector, assignments []int, prev []model.FeatureVector) []model.FeatureVector {
	k := len(prev)
	sums := make([]model.FeatureVector, k)
	counts := make([]int, k)

	for i, p := range points {
		c := assignments[i]
		counts[c]++
		for d := 0; d < model.NumDims; d++ {
			sums[c][d] += p[d]
		}
	}

	next := make([]model.FeatureVector, k)
	for c := 0; c < k; c++ {
		if counts[c] == 0 {
			next[c] = prev[c]
			continue
		}
		for d := 0; d < model.NumDims; d++ {
			next[c][d] = sums[c][d] / float64(counts[c])
		}
	}
	return next
}

func nearest(p model.FeatureVector, centroids []model.FeatureVector) int {
	bestIdx := 0
	bestDist := math.Inf(1)
	for c, centroid := range centroids {
		if d := sqDist(p, centroid); d < bestDist {
			bestDist = d
			bestIdx = c
		}
	}
	return bestIdx
}

func wss(points []model.FeatureVector, assignments []int, centroids []model.FeatureVector) float64 {
	total := 0.0
	for i, p := range points {
		total += sqDist(p, centroids[assignments[i]])
	}
	return total
}

func countNonEmpty(assignments []int, k int) int {
	seen := make([]bool, k)
	for _, c := range assignments {
		seen[c] = true
	}
	n := 0
	for _, s := range seen {
		if s {
			n++
		}
	}
	return n
}

func sqDist(a, b model.FeatureVector) float64 {
	total := 0.0
	for d := 0; d < model.NumDims; d++ {
		diff := a[d] - b[d]
		total += diff * diff
	}
	return total
}

func dist(a, b model.FeatureVector) float64 {
	return math.Sqrt(sqDist(a, b))
}

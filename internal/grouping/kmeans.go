package grouping

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// maxKMeansIterations bounds the Lloyd refinement loop. Runs converge far
// earlier on real embedding data.
const maxKMeansIterations = 100

// kmeansLabels partitions the rows of matrix into k groups with k-means++
// initialization and Lloyd iterations, all driven by a fixed-seed source so
// identical inputs produce identical labels.
func kmeansLabels(matrix [][]float32, k int, seed int64) ([]int, error) {
	if k <= 0 {
		return nil, fmt.Errorf("cluster count must be positive, got %d", k)
	}
	if len(matrix) < k {
		return nil, fmt.Errorf("cannot form %d clusters from %d items", k, len(matrix))
	}

	points := toFloat64(matrix)
	rng := rand.New(rand.NewSource(seed))

	centroids := seedCentroids(points, k, rng)
	labels := make([]int, len(points))

	for iter := 0; iter < maxKMeansIterations; iter++ {
		changed := assignToNearest(points, centroids, labels)
		recomputeCentroids(points, labels, centroids)
		if !changed && iter > 0 {
			break
		}
	}

	return labels, nil
}

// seedCentroids picks k initial centroids with the k-means++ scheme: the
// first uniformly, each subsequent one weighted by squared distance to the
// nearest centroid chosen so far.
func seedCentroids(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	dims := len(points[0])
	centroids := make([][]float64, 0, k)

	first := append([]float64(nil), points[rng.Intn(len(points))]...)
	centroids = append(centroids, first)

	dist := make([]float64, len(points))
	for len(centroids) < k {
		total := 0.0
		for i, p := range points {
			d := math.Inf(1)
			for _, c := range centroids {
				if sq := floats.Distance(p, c, 2); sq*sq < d {
					d = sq * sq
				}
			}
			dist[i] = d
			total += d
		}

		var next []float64
		if total == 0 {
			// All remaining points coincide with a centroid; pick any.
			next = points[rng.Intn(len(points))]
		} else {
			target := rng.Float64() * total
			acc := 0.0
			next = points[len(points)-1]
			for i, d := range dist {
				acc += d
				if acc >= target {
					next = points[i]
					break
				}
			}
		}

		c := make([]float64, dims)
		copy(c, next)
		centroids = append(centroids, c)
	}

	return centroids
}

// assignToNearest relabels every point with its closest centroid and reports
// whether any label changed.
func assignToNearest(points, centroids [][]float64, labels []int) bool {
	changed := false
	for i, p := range points {
		best := 0
		bestDist := math.Inf(1)
		for c, centroid := range centroids {
			if d := floats.Distance(p, centroid, 2); d < bestDist {
				bestDist = d
				best = c
			}
		}
		if labels[i] != best {
			labels[i] = best
			changed = true
		}
	}
	return changed
}

// recomputeCentroids moves each centroid to the mean of its members. A
// centroid with no members keeps its position; if that persists, the dense
// label-coverage check downstream rejects the run.
func recomputeCentroids(points [][]float64, labels []int, centroids [][]float64) {
	dims := len(points[0])
	counts := make([]int, len(centroids))
	sums := make([][]float64, len(centroids))
	for c := range sums {
		sums[c] = make([]float64, dims)
	}

	for i, p := range points {
		floats.Add(sums[labels[i]], p)
		counts[labels[i]]++
	}

	for c := range centroids {
		if counts[c] == 0 {
			continue
		}
		floats.Scale(1/float64(counts[c]), sums[c])
		copy(centroids[c], sums[c])
	}
}

func toFloat64(matrix [][]float32) [][]float64 {
	points := make([][]float64, len(matrix))
	for i, row := range matrix {
		p := make([]float64, len(row))
		for j, v := range row {
			p[j] = float64(v)
		}
		points[i] = p
	}
	return points
}

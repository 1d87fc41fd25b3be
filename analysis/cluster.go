package analysis

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// ErrInvalidConfiguration marks a structural contract violation (bad target K,
// bad iteration cap, inconsistent vector dimensionality). It aborts the run;
// degenerate-but-valid inputs never produce it.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// ClusterResult is one hard partition of the input themes.
type ClusterResult struct {
	Clusters []*ThemeCluster

	// Converged is false when the iteration cap was hit before assignments
	// stabilized. The partition is still usable; callers should surface the
	// flag in run metadata rather than fail.
	Converged bool
}

// Cluster partitions the vectorized themes into at most targetK clusters using
// seeded k-means++ over the distinct normalized texts. Themes sharing a
// normalized text always land in the same cluster. If fewer distinct texts
// exist than targetK, the cluster count collapses to the distinct count; no
// cluster is ever empty. Zero input yields an empty, converged result.
func Cluster(themes []NormalizedTheme, targetK int, seed int64, maxIterations int) (ClusterResult, error) {
	if targetK <= 0 {
		return ClusterResult{}, fmt.Errorf("Cluster: target K %d: %w", targetK, ErrInvalidConfiguration)
	}
	if maxIterations <= 0 {
		return ClusterResult{}, fmt.Errorf("Cluster: max iterations %d: %w", maxIterations, ErrInvalidConfiguration)
	}
	if len(themes) == 0 {
		return ClusterResult{Converged: true}, nil
	}

	dim := len(themes[0].Vector)
	for i := range themes {
		if len(themes[i].Vector) != dim {
			return ClusterResult{}, fmt.Errorf("Cluster: vector length %d at index %d, want %d: %w",
				len(themes[i].Vector), i, dim, ErrInvalidConfiguration)
		}
	}

	// Deduplicate by normalized text so the partition is over semantic
	// payloads: every duplicate rides along with its group.
	groupIndex := make(map[string]int)
	var groups [][]int // theme indices per distinct text, first-appearance order
	for i := range themes {
		key := themes[i].NormalizedText
		gi, ok := groupIndex[key]
		if !ok {
			gi = len(groups)
			groupIndex[key] = gi
			groups = append(groups, nil)
		}
		groups[gi] = append(groups[gi], i)
	}

	k := targetK
	if k > len(groups) {
		k = len(groups)
	}

	data := mat.NewDense(len(groups), dim, nil)
	for gi, members := range groups {
		data.SetRow(gi, themes[members[0]].Vector)
	}

	var assignments []int
	converged := true
	if k == len(groups) {
		// One cluster per distinct text; nothing to iterate.
		assignments = make([]int, len(groups))
		for gi := range assignments {
			assignments[gi] = gi
		}
	} else {
		assignments, converged = runKMeans(data, k, seed, maxIterations)
	}

	return ClusterResult{
		Clusters:  buildClusters(themes, groups, assignments, k),
		Converged: converged,
	}, nil
}

// runKMeans is a seeded Lloyd's iteration with k-means++ initialization.
// Assignment uses strict-less argmin, so ties resolve to the lowest cluster
// index and the whole procedure is deterministic for a fixed seed.
func runKMeans(data *mat.Dense, k int, seed int64, maxIterations int) ([]int, bool) {
	n, dim := data.Dims()
	rng := rand.New(rand.NewSource(seed))

	centroids := initCentroidsPlusPlus(data, k, rng)
	assignments := assignPoints(data, centroids)
	repairEmptyClusters(data, centroids, assignments, k)

	converged := false
	for iter := 0; iter < maxIterations; iter++ {
		centroids = updateCentroids(data, assignments, k, dim)
		next := assignPoints(data, centroids)
		repairEmptyClusters(data, centroids, next, k)

		changed := false
		for i := 0; i < n; i++ {
			if next[i] != assignments[i] {
				changed = true
				break
			}
		}
		assignments = next
		if !changed {
			converged = true
			break
		}
	}
	return assignments, converged
}

func initCentroidsPlusPlus(data *mat.Dense, k int, rng *rand.Rand) *mat.Dense {
	n, dim := data.Dims()
	centroids := mat.NewDense(k, dim, nil)

	first := rng.Intn(n)
	centroids.SetRow(0, data.RawRowView(first))

	dists := make([]float64, n)
	for c := 1; c < k; c++ {
		total := 0.0
		for i := 0; i < n; i++ {
			best := math.Inf(1)
			for j := 0; j < c; j++ {
				if d := squaredDistance(data.RawRowView(i), centroids.RawRowView(j)); d < best {
					best = d
				}
			}
			dists[i] = best
			total += best
		}

		if total == 0 {
			// All remaining points coincide with a chosen centroid.
			centroids.SetRow(c, data.RawRowView(rng.Intn(n)))
			continue
		}

		target := rng.Float64() * total
		chosen := n - 1
		acc := 0.0
		for i := 0; i < n; i++ {
			acc += dists[i]
			if acc >= target {
				chosen = i
				break
			}
		}
		centroids.SetRow(c, data.RawRowView(chosen))
	}
	return centroids
}

func assignPoints(data, centroids *mat.Dense) []int {
	n, _ := data.Dims()
	k, _ := centroids.Dims()

	assignments := make([]int, n)
	for i := 0; i < n; i++ {
		best := 0
		bestDist := math.Inf(1)
		for j := 0; j < k; j++ {
			if d := squaredDistance(data.RawRowView(i), centroids.RawRowView(j)); d < bestDist {
				bestDist = d
				best = j
			}
		}
		assignments[i] = best
	}
	return assignments
}

// repairEmptyClusters reseats each empty cluster on the point farthest from its
// assigned centroid, taken from a cluster that can spare one. An empty cluster
// would otherwise surface as a hole in the top-K report.
func repairEmptyClusters(data, centroids *mat.Dense, assignments []int, k int) {
	n, _ := data.Dims()
	for {
		counts := make([]int, k)
		for _, a := range assignments {
			counts[a]++
		}

		empty := -1
		for j := 0; j < k; j++ {
			if counts[j] == 0 {
				empty = j
				break
			}
		}
		if empty == -1 {
			return
		}

		donor := -1
		worst := -1.0
		for i := 0; i < n; i++ {
			if counts[assignments[i]] < 2 {
				continue
			}
			d := squaredDistance(data.RawRowView(i), centroids.RawRowView(assignments[i]))
			if d > worst {
				worst = d
				donor = i
			}
		}
		if donor == -1 {
			return
		}
		assignments[donor] = empty
		centroids.SetRow(empty, data.RawRowView(donor))
	}
}

func updateCentroids(data *mat.Dense, assignments []int, k, dim int) *mat.Dense {
	centroids := mat.NewDense(k, dim, nil)
	counts := make([]int, k)

	n, _ := data.Dims()
	for i := 0; i < n; i++ {
		a := assignments[i]
		counts[a]++
		row := data.RawRowView(i)
		for j := 0; j < dim; j++ {
			centroids.Set(a, j, centroids.At(a, j)+row[j])
		}
	}
	for c := 0; c < k; c++ {
		if counts[c] == 0 {
			continue
		}
		for j := 0; j < dim; j++ {
			centroids.Set(c, j, centroids.At(c, j)/float64(counts[c]))
		}
	}
	return centroids
}

// buildClusters materializes ThemeClusters from group assignments. Cluster IDs
// are renumbered by first appearance in input order so they are stable and
// gapless regardless of which k-means indices survived.
func buildClusters(themes []NormalizedTheme, groups [][]int, assignments []int, k int) []*ThemeCluster {
	idFor := make([]int, k)
	for i := range idFor {
		idFor[i] = -1
	}

	var clusters []*ThemeCluster
	memberIndices := make([][]int, 0, k)
	for gi, members := range groups {
		a := assignments[gi]
		if idFor[a] == -1 {
			idFor[a] = len(clusters)
			clusters = append(clusters, &ThemeCluster{ClusterID: len(clusters)})
			memberIndices = append(memberIndices, nil)
		}
		memberIndices[idFor[a]] = append(memberIndices[idFor[a]], members...)
	}

	for ci, cluster := range clusters {
		// Restore input order within the cluster.
		idxs := memberIndices[ci]
		sort.Ints(idxs)

		cluster.Members = make([]*NormalizedTheme, len(idxs))
		cluster.SentimentBreakdown = make(map[Sentiment]int)
		for mi, ti := range idxs {
			cluster.Members[mi] = &themes[ti]
			cluster.SentimentBreakdown[themes[ti].Sentiment]++
		}
		cluster.Centroid = meanVector(cluster.Members)
		cluster.Label = medoidLabel(cluster.Members, cluster.Centroid)
		cluster.IssueCount = distinctIssueCount(cluster.Members)
	}
	return clusters
}

func meanVector(members []*NormalizedTheme) []float64 {
	if len(members) == 0 {
		return nil
	}
	mean := make([]float64, len(members[0].Vector))
	for _, m := range members {
		for j, v := range m.Vector {
			mean[j] += v
		}
	}
	for j := range mean {
		mean[j] /= float64(len(members))
	}
	return mean
}

// medoidLabel returns the original text of the member closest to the centroid.
// Ties resolve to the earliest member, keeping label choice deterministic.
func medoidLabel(members []*NormalizedTheme, centroid []float64) string {
	best := 0
	bestDist := math.Inf(1)
	for i, m := range members {
		if d := squaredDistance(m.Vector, centroid); d < bestDist {
			bestDist = d
			best = i
		}
	}
	return strings.TrimSpace(members[best].Text)
}

func squaredDistance(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

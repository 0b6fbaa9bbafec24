package testutil

import (
	"math"
	"math/rand"
	"slices"
	"sync"

	"github.com/hupe1980/ngtgo/model"
	"github.com/viterin/vek/vek32"
)

// SearchResult is an (ID, distance) pair.
type SearchResult struct {
	ID       model.ObjectID
	Distance float32
}

// RNG wraps a seeded random source. It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Perm returns a pseudo-random permutation of [0,n).
func (r *RNG) Perm(n int) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Perm(n)
}

// Float32 returns, as a float32, a pseudo-random number in [0.0,1.0).
func (r *RNG) Float32() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float32()
}

// FillUniform fills dst with random values in range [0, 1).
func (r *RNG) FillUniform(dst []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = r.rand.Float32()
	}
}

func (r *RNG) vectors(num, dim int, gen func() float32) [][]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, num*dim)
	vectors := make([][]float32, num)
	for i := range num {
		vec := data[i*dim : (i+1)*dim]
		for j := range vec {
			vec[j] = gen()
		}
		vectors[i] = vec
	}
	return vectors
}

// UniformVectors generates random vectors with values in range [0, 1).
// Uses a single backing array.
func (r *RNG) UniformVectors(num, dim int) [][]float32 {
	return r.vectors(num, dim, r.rand.Float32)
}

// UniformRangeVectors generates random vectors with values in range [-1, 1).
func (r *RNG) UniformRangeVectors(num, dim int) [][]float32 {
	return r.vectors(num, dim, func() float32 { return r.rand.Float32()*2 - 1 })
}

// GaussianVectors generates vectors from a standard normal distribution.
func (r *RNG) GaussianVectors(num, dim int) [][]float32 {
	return r.vectors(num, dim, func() float32 { return float32(r.rand.NormFloat64()) })
}

// ByteVectors generates vectors of whole numbers in [0, 255], suitable for
// uint8 object types.
func (r *RNG) ByteVectors(num, dim int) [][]float32 {
	return r.vectors(num, dim, func() float32 { return float32(r.rand.Intn(256)) })
}

// UnitVectors generates L2-normalized vectors, uniformly distributed on
// the hypersphere.
func (r *RNG) UnitVectors(num, dim int) [][]float32 {
	vectors := r.GaussianVectors(num, dim)
	for _, vec := range vectors {
		norm := vek32.Norm(vec)
		if norm == 0 {
			vec[0], norm = 1, 1
		}
		vek32.DivNumber_Inplace(vec, norm)
	}
	return vectors
}

// ClusteredVectors generates vectors around random unit centroids.
// spread is the standard deviation of the noise added per element.
func (r *RNG) ClusteredVectors(num, dim, clusters int, spread float32) [][]float32 {
	centroids := r.UnitVectors(clusters, dim)
	noise := r.GaussianVectors(num, dim)
	for i, vec := range noise {
		vek32.MulNumber_Inplace(vec, spread)
		vek32.Add_Inplace(vec, centroids[i%clusters])
	}
	return noise
}

// ExactTopK returns the k nearest vectors of data to query by brute force,
// ordered by (distance, ID). Vector i gets ID i+1.
func ExactTopK(query []float32, data [][]float32, k int, dist func(a, b []float32) float32) []SearchResult {
	all := make([]SearchResult, len(data))
	for i, v := range data {
		all[i] = SearchResult{ID: model.ObjectID(i + 1), Distance: dist(query, v)}
	}
	slices.SortFunc(all, func(a, b SearchResult) int {
		return model.CompareEdges(model.Edge{ID: a.ID, Distance: a.Distance}, model.Edge{ID: b.ID, Distance: b.Distance})
	})
	return all[:min(k, len(all))]
}

// ComputeRecall computes recall@k by comparing approximate results against
// ground truth.
func ComputeRecall(groundTruth, approximate []SearchResult) float64 {
	if len(groundTruth) == 0 || len(approximate) == 0 {
		if len(groundTruth) == 0 && len(approximate) == 0 {
			return 1.0
		}
		return 0.0
	}

	k := min(len(approximate), len(groundTruth))

	truthSet := make(map[model.ObjectID]struct{}, k)
	for i := range k {
		truthSet[groundTruth[i].ID] = struct{}{}
	}

	hits := 0
	for _, r := range approximate[:k] {
		if _, ok := truthSet[r.ID]; ok {
			hits++
		}
	}

	return float64(hits) / float64(k)
}

// L2 is the Euclidean distance between a and b, computed in float64.
func L2(a, b []float32) float32 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return float32(math.Sqrt(sum))
}

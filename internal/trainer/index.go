package trainer

import (
	"math"

	"github.com/coder/hnsw"
)

// HNSW index parameters for face embeddings
const (
	// hnswMaxNeighbors (M) is the maximum number of neighbors per node.
	// Higher values improve recall but increase memory and build time.
	hnswMaxNeighbors = 16

	// conflictNeighbors is how many nearest embeddings are inspected per sample.
	conflictNeighbors = 5
)

// neighborIndex wraps an HNSW graph over the training embeddings, keyed by sample index.
type neighborIndex struct {
	graph *hnsw.Graph[int]
}

func newNeighborIndex(vecs [][]float32) *neighborIndex {
	g := hnsw.NewGraph[int]()
	g.M = hnswMaxNeighbors
	g.Ml = 1.0 / float64(hnswMaxNeighbors) // Standard HNSW formula
	g.Distance = hnsw.CosineDistance

	for i, v := range vecs {
		if len(v) == 0 {
			continue
		}
		g.Add(hnsw.MakeNode(i, v))
	}
	return &neighborIndex{graph: g}
}

// search returns the sample indices of the k nearest embeddings and their cosine distances.
func (n *neighborIndex) search(query []float32, k int) ([]int, []float64) {
	if n.graph.Len() == 0 {
		return nil, nil
	}
	neighbors := n.graph.Search(query, k)
	ids := make([]int, len(neighbors))
	distances := make([]float64, len(neighbors))
	for i, nb := range neighbors {
		ids[i] = nb.Key
		distances[i] = cosineDistance(query, nb.Value)
	}
	return ids, distances
}

// cosineDistance computes the cosine distance between two vectors
// Returns a value between 0 (identical) and 2 (opposite)
func cosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 2.0 // Maximum distance for invalid input
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 2.0 // Maximum distance for zero vectors
	}

	similarity := dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
	return 1 - max(-1, min(1, similarity))
}

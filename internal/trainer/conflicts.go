package trainer

import (
	"slices"
)

// Conflict is a pair of training samples with different labels whose
// embeddings are nearly identical, usually a mislabelled or duplicated image.
type Conflict struct {
	PathA    string
	LabelA   string
	PathB    string
	LabelB   string
	Distance float64
}

// FindConflicts reports every pair of samples with different labels within
// maxDistance (cosine) of each other, closest first.
func FindConflicts(vecs [][]float32, labels, paths []string, maxDistance float64) []Conflict {
	if len(vecs) < 2 || maxDistance <= 0 {
		return nil
	}

	idx := newNeighborIndex(vecs)
	seen := make(map[[2]int]struct{})
	var conflicts []Conflict

	for i, v := range vecs {
		ids, distances := idx.search(v, conflictNeighbors+1)
		for k, j := range ids {
			if j == i || labels[j] == labels[i] || distances[k] > maxDistance {
				continue
			}
			key := [2]int{min(i, j), max(i, j)}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			a, b := key[0], key[1]
			conflicts = append(conflicts, Conflict{
				PathA:    paths[a],
				LabelA:   labels[a],
				PathB:    paths[b],
				LabelB:   labels[b],
				Distance: distances[k],
			})
		}
	}

	slices.SortStableFunc(conflicts, func(x, y Conflict) int {
		switch {
		case x.Distance < y.Distance:
			return -1
		case x.Distance > y.Distance:
			return 1
		}
		return 0
	})
	return conflicts
}

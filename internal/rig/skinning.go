package rig

import (
	"errors"
	"fmt"
	"sort"
)

// WeightTolerance is the allowed deviation of a vertex's weight sum from 1.
const WeightTolerance = 1e-4

// maxInfluences caps the bone influences kept per vertex after
// normalization. Everything past the strongest four is folded away.
const maxInfluences = 4

// ErrBoneIndexOutOfRange reports a skin weight referencing a bone that
// does not exist in the bound skeleton.
var ErrBoneIndexOutOfRange = errors.New("rig: weight bone index out of range")

// Influence is one (bone, weight) pair of a vertex binding.
type Influence struct {
	Bone   int
	Weight float64
}

// VertexWeights holds the per-vertex skin binding of a mesh.
type VertexWeights struct {
	Influences [][]Influence
}

// NewVertexWeights allocates empty bindings for n vertices.
func NewVertexWeights(n int) *VertexWeights {
	return &VertexWeights{Influences: make([][]Influence, n)}
}

// Len returns the vertex count.
func (w *VertexWeights) Len() int { return len(w.Influences) }

// Validate checks every referenced bone index against the skeleton.
func (w *VertexWeights) Validate(skel *Skeleton) error {
	for vi, infs := range w.Influences {
		for _, inf := range infs {
			if inf.Bone < 0 || inf.Bone >= skel.Len() {
				return fmt.Errorf("%w: vertex %d bone %d (skeleton has %d)",
					ErrBoneIndexOutOfRange, vi, inf.Bone, skel.Len())
			}
		}
	}
	return nil
}

// Normalize merges duplicate bone entries, drops non-positive weights,
// keeps the strongest four influences and rescales them to sum to 1.
// Vertices left with no influence at all bind fully to fallbackBone.
func (w *VertexWeights) Normalize(fallbackBone int) {
	for vi := range w.Influences {
		w.Influences[vi] = normalizeInfluences(w.Influences[vi], fallbackBone)
	}
}

func normalizeInfluences(infs []Influence, fallbackBone int) []Influence {
	byBone := map[int]float64{}
	for _, inf := range infs {
		if inf.Bone < 0 || inf.Weight <= 0 {
			continue
		}
		byBone[inf.Bone] += inf.Weight
	}
	if len(byBone) == 0 {
		return []Influence{{Bone: fallbackBone, Weight: 1}}
	}

	merged := make([]Influence, 0, len(byBone))
	for bone, weight := range byBone {
		merged = append(merged, Influence{Bone: bone, Weight: weight})
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Weight == merged[j].Weight {
			return merged[i].Bone < merged[j].Bone
		}
		return merged[i].Weight > merged[j].Weight
	})
	if len(merged) > maxInfluences {
		merged = merged[:maxInfluences]
	}

	total := 0.0
	for _, inf := range merged {
		total += inf.Weight
	}
	if total <= 0 {
		return []Influence{{Bone: fallbackBone, Weight: 1}}
	}
	for i := range merged {
		merged[i].Weight /= total
	}
	return merged
}

// DominantBone returns the bone with the largest weight on vertex vi,
// or RootIndex when the vertex is unbound.
func (w *VertexWeights) DominantBone(vi int) int {
	best := RootIndex
	bestWeight := 0.0
	for _, inf := range w.Influences[vi] {
		if inf.Weight > bestWeight {
			best = inf.Bone
			bestWeight = inf.Weight
		}
	}
	return best
}

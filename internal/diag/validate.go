package diag

import (
	"forge-rig/internal/rig"
)

// Limits bounds the sanity checks. Zero values take defaults.
type Limits struct {
	MaxDepth      int
	MaxBones      int
	MaxInfluences int
}

func (l Limits) withDefaults() Limits {
	if l.MaxDepth <= 0 {
		l.MaxDepth = 64
	}
	if l.MaxBones <= 0 {
		l.MaxBones = 512
	}
	if l.MaxInfluences <= 0 {
		l.MaxInfluences = 100
	}
	return l
}

// CheckSkeleton re-validates structure (fatal on malformed input) and
// flags depth and bone-count excesses as warnings.
func CheckSkeleton(skel *rig.Skeleton, limits Limits, report *Report) error {
	if err := skel.Validate(); err != nil {
		return err
	}
	limits = limits.withDefaults()

	if n := skel.Len(); n > limits.MaxBones {
		report.Warnf(CodeTooManyBones, "%d bones exceeds limit %d", n, limits.MaxBones)
	}
	maxDepth := 0
	for i := 0; i < skel.Len(); i++ {
		if d := skel.Depth(i); d > maxDepth {
			maxDepth = d
		}
	}
	if maxDepth > limits.MaxDepth {
		report.Warnf(CodeDeepHierarchy, "hierarchy depth %d exceeds limit %d", maxDepth, limits.MaxDepth)
	}
	return nil
}

// CheckWeights flags zero-weight vertices and vertices with an
// implausible influence count. Fatal only for out-of-range bone
// references.
func CheckWeights(weights *rig.VertexWeights, skel *rig.Skeleton, limits Limits, report *Report) error {
	if weights == nil {
		return nil
	}
	if err := weights.Validate(skel); err != nil {
		return err
	}
	limits = limits.withDefaults()

	zero, overbound := 0, 0
	for _, infs := range weights.Influences {
		total := 0.0
		for _, inf := range infs {
			total += inf.Weight
		}
		if total < rig.WeightTolerance {
			zero++
		}
		if len(infs) > limits.MaxInfluences {
			overbound++
		}
	}
	if zero > 0 {
		report.Warnf(CodeZeroWeight, "%d vertices carry no effective weight", zero)
	}
	if overbound > 0 {
		report.Warnf(CodeTooManyInfl, "%d vertices exceed %d bone influences", overbound, limits.MaxInfluences)
	}
	return nil
}

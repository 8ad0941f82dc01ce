package retarget

import (
	"fmt"

	"forge-rig/internal/resolve"
	"forge-rig/internal/rig"
)

// Kind selects a solver strategy by configuration value.
type Kind string

const (
	KindAutoSkin    Kind = "autoskin"
	KindDistance    Kind = "distance"
	KindChildTarget Kind = "childtarget"
	KindWeightBlend Kind = "weightblend"
)

// Input bundles everything a solver may read. Solvers are pure
// functions of their Input: the same Input always yields the same
// frame, so one frame can be run through several solvers side by side.
type Input struct {
	SourceFrame PoseFrame
	Table       *resolve.Table
	Source      *rig.Skeleton
	Target      *rig.Skeleton
}

// Solver computes a target pose frame from a source pose frame.
type Solver interface {
	Solve(in Input) (PoseFrame, error)
}

// BlendWeights configures the WeightBlend solver: per target bone name,
// the source bone names contributing and their blend weights.
type BlendWeights map[string][]SourceWeight

// SourceWeight is one source bone's share of a blended target bone.
type SourceWeight struct {
	SourceBone string
	Weight     float64
}

// New returns the solver for kind. Blend weights are only consulted by
// KindWeightBlend.
func New(kind Kind, blend BlendWeights) (Solver, error) {
	switch kind {
	case KindAutoSkin:
		return AutoSkin{}, nil
	case KindDistance:
		return Distance{}, nil
	case KindChildTarget:
		return DistanceChildTarget{}, nil
	case KindWeightBlend:
		return WeightBlend{Weights: blend}, nil
	default:
		return nil, fmt.Errorf("retarget: unknown solver kind %q", kind)
	}
}

func (in Input) validate() error {
	if len(in.SourceFrame.Transforms) != in.Source.Len() {
		return fmt.Errorf("retarget: frame has %d transforms, source skeleton has %d bones",
			len(in.SourceFrame.Transforms), in.Source.Len())
	}
	if in.Table == nil {
		return fmt.Errorf("retarget: nil correspondence table")
	}
	return nil
}

// firstSourceFor returns the lowest-index source bone mapped onto
// target bone ti, or -1. Bones without a correspondence entry keep
// their bind transform.
func firstSourceFor(in Input, ti int) int {
	srcs := in.Table.SourcesFor(ti)
	if len(srcs) == 0 {
		return -1
	}
	return srcs[0]
}

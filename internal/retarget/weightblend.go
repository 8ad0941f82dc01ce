package retarget

import (
	"github.com/go-gl/mathgl/mgl64"
)

// WeightBlend does not move bones one-to-one: each configured target
// bone takes a weighted blend of several source bones' rotation deltas.
// Used when one target bone stands in for several unmapped source bones
// (a single spine bone approximating three, say).
type WeightBlend struct {
	Weights BlendWeights
}

func (w WeightBlend) Solve(in Input) (PoseFrame, error) {
	if err := in.validate(); err != nil {
		return PoseFrame{}, err
	}

	out := BindPose(in.Target)
	for ti := range out.Transforms {
		shares, ok := w.sharesFor(in, ti)
		if !ok {
			continue
		}

		blended := blendDeltas(in, shares)
		t := &out.Transforms[ti]
		t.Rotation = blended.Mul(t.Rotation).Normalize()
	}
	return out, nil
}

type share struct {
	source int
	weight float64
}

// sharesFor resolves configured source bone names to indexes for target
// bone ti. Target bones without a blend entry keep their bind pose.
func (w WeightBlend) sharesFor(in Input, ti int) ([]share, bool) {
	cfg, ok := w.Weights[in.Target.Bones[ti].Name]
	if !ok {
		return nil, false
	}
	var shares []share
	for _, sw := range cfg {
		if sw.Weight <= 0 {
			continue
		}
		if b, ok := in.Source.BoneByName(sw.SourceBone); ok {
			shares = append(shares, share{source: b.Index, weight: sw.Weight})
		}
	}
	return shares, len(shares) > 0
}

// blendDeltas accumulates sign-aligned weighted quaternions and
// normalizes the sum (nlerp-style blend).
func blendDeltas(in Input, shares []share) mgl64.Quat {
	var acc mgl64.Quat
	ref := mgl64.QuatIdent()
	total := 0.0
	for i, s := range shares {
		d := rotationDelta(in.SourceFrame.Transforms[s.source], in.Source.Bones[s.source].Bind)
		if i == 0 {
			ref = d
		} else if d.Dot(ref) < 0 {
			d = d.Scale(-1)
		}
		acc = acc.Add(d.Scale(s.weight))
		total += s.weight
	}
	if total <= 0 || acc.Len() < 1e-12 {
		return mgl64.QuatIdent()
	}
	return acc.Normalize()
}

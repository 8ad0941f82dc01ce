package retarget

import (
	"github.com/go-gl/mathgl/mgl64"

	"forge-rig/internal/rig"
)

// PoseFrame holds one animation frame as per-bone local transforms,
// indexed by bone index.
type PoseFrame struct {
	Transforms []rig.Transform
}

// BindPose returns the skeleton's bind pose as a frame.
func BindPose(s *rig.Skeleton) PoseFrame {
	f := PoseFrame{Transforms: make([]rig.Transform, s.Len())}
	for i := range s.Bones {
		f.Transforms[i] = s.Bones[i].Bind
	}
	return f
}

// Clone returns a deep copy of the frame.
func (f PoseFrame) Clone() PoseFrame {
	out := PoseFrame{Transforms: make([]rig.Transform, len(f.Transforms))}
	copy(out.Transforms, f.Transforms)
	return out
}

// rotationDelta returns the local rotation of frame relative to bind.
func rotationDelta(frame, bind rig.Transform) mgl64.Quat {
	return frame.Rotation.Mul(bind.Rotation.Inverse()).Normalize()
}

// translationDelta returns the local translation of frame relative to bind.
func translationDelta(frame, bind rig.Transform) mgl64.Vec3 {
	return frame.Translation.Sub(bind.Translation)
}

// segmentLength measures a bone for proportion scaling: the distance to
// its first child in bind pose, falling back to the distance to its
// parent for leaf bones.
func segmentLength(s *rig.Skeleton, i int) float64 {
	pos := s.Bones[i].WorldPosition()
	if children := s.Children(i); len(children) > 0 {
		return s.Bones[children[0]].WorldPosition().Sub(pos).Len()
	}
	if p := s.Bones[i].Parent; p != rig.RootIndex {
		return s.Bones[p].WorldPosition().Sub(pos).Len()
	}
	return 0
}

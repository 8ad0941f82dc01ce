package retarget

import (
	"github.com/go-gl/mathgl/mgl64"
)

// DistanceChildTarget runs the Distance strategy and then re-aims each
// mapped bone so that it points at the position its mapped child should
// occupy, instead of trusting the copied rotation alone. This reduces
// foot and hand sliding when the two hierarchies branch differently.
type DistanceChildTarget struct{}

func (DistanceChildTarget) Solve(in Input) (PoseFrame, error) {
	out, err := Distance{}.Solve(in)
	if err != nil {
		return PoseFrame{}, err
	}

	for ti := range out.Transforms {
		si := firstSourceFor(in, ti)
		if si < 0 {
			continue
		}
		childDir := bindChildDirection(in, ti)
		if childDir.Len() < 1e-9 {
			continue
		}

		// Where the source says the child direction should end up: the
		// source bone's rotation delta applied to the bind direction.
		delta := rotationDelta(in.SourceFrame.Transforms[si], in.Source.Bones[si].Bind)
		desired := delta.Rotate(childDir)

		bind := in.Target.Bones[ti].Bind
		aim := mgl64.QuatBetweenVectors(childDir, desired)
		out.Transforms[ti].Rotation = aim.Mul(bind.Rotation).Normalize()
	}
	return out, nil
}

// bindChildDirection returns the bind-pose direction from target bone
// ti towards its first child that has a correspondence entry of its
// own; zero when no such child exists.
func bindChildDirection(in Input, ti int) mgl64.Vec3 {
	pos := in.Target.Bones[ti].WorldPosition()
	for _, ci := range in.Target.Children(ti) {
		if len(in.Table.SourcesFor(ci)) == 0 {
			continue
		}
		d := in.Target.Bones[ci].WorldPosition().Sub(pos)
		if d.Len() > 1e-9 {
			return d
		}
	}
	return mgl64.Vec3{}
}

package retarget

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forge-rig/internal/resolve"
	"forge-rig/internal/rig"
)

// assertQuatEqual compares rotations up to quaternion double cover.
func assertQuatEqual(t *testing.T, want, got mgl64.Quat) {
	t.Helper()
	assert.InDelta(t, 1.0, math.Abs(want.Normalize().Dot(got.Normalize())), 1e-9)
}

func armSkeleton(convention string, reach float64) *rig.Skeleton {
	bones := []rig.Bone{
		{Name: "pelvis", Parent: rig.RootIndex, Bind: rig.IdentityTransform()},
		{Name: "arm_l", Parent: 0, Bind: rig.IdentityTransform()},
		{Name: "hand_l", Parent: 1, Bind: rig.IdentityTransform()},
	}
	bones[1].Bind.Translation = mgl64.Vec3{0.2, 1, 0}
	bones[2].Bind.Translation = mgl64.Vec3{reach, 0, 0}
	s := rig.NewSkeleton(convention, bones)
	s.WorldMatrices()
	return s
}

func armTable(t *testing.T, src, tgt *rig.Skeleton) *resolve.Table {
	t.Helper()
	table := resolve.Resolve(src, tgt, resolve.Config{})
	require.Empty(t, table.Unmapped)
	return table
}

func TestAutoSkinCopiesRotationDelta(t *testing.T) {
	src := armSkeleton("", 1)
	tgt := armSkeleton("", 1)
	table := armTable(t, src, tgt)

	// rotate the source arm 30 degrees about Z relative to bind
	rot := mgl64.QuatRotate(math.Pi/6, mgl64.Vec3{0, 0, 1})
	frame := BindPose(src).Clone()
	arm, _ := src.BoneByName("arm_l")
	frame.Transforms[arm.Index].Rotation = rot.Mul(frame.Transforms[arm.Index].Rotation)

	out, err := AutoSkin{}.Solve(Input{SourceFrame: frame, Table: table, Source: src, Target: tgt})
	require.NoError(t, err)

	tgtArm, _ := tgt.BoneByName("arm_l")
	assertQuatEqual(t, rot, out.Transforms[tgtArm.Index].Rotation)

	// untouched bones keep bind
	assertQuatEqual(t, mgl64.QuatIdent(), out.Transforms[0].Rotation)
	assert.Equal(t, tgt.Bones[0].Bind.Translation, out.Transforms[0].Translation)
}

func TestSolversArePure(t *testing.T) {
	src := armSkeleton("", 1)
	tgt := armSkeleton("", 1.5)
	table := armTable(t, src, tgt)

	frame := BindPose(src).Clone()
	frame.Transforms[1].Rotation = mgl64.QuatRotate(0.4, mgl64.Vec3{1, 0, 0})
	in := Input{SourceFrame: frame, Table: table, Source: src, Target: tgt}

	for _, kind := range []Kind{KindAutoSkin, KindDistance, KindChildTarget} {
		s, err := New(kind, nil)
		require.NoError(t, err)
		a, err := s.Solve(in)
		require.NoError(t, err)
		b, err := s.Solve(in)
		require.NoError(t, err)
		assert.Equal(t, a, b, "solver %s", kind)
	}
}

func TestDistanceScalesTranslation(t *testing.T) {
	src := armSkeleton("", 1)
	tgt := armSkeleton("", 2) // arm segment twice as long
	table := armTable(t, src, tgt)

	frame := BindPose(src).Clone()
	arm, _ := src.BoneByName("arm_l")
	frame.Transforms[arm.Index].Translation = frame.Transforms[arm.Index].Translation.Add(mgl64.Vec3{0.1, 0, 0})

	out, err := Distance{}.Solve(Input{SourceFrame: frame, Table: table, Source: src, Target: tgt})
	require.NoError(t, err)

	tgtArm, _ := tgt.BoneByName("arm_l")
	want := tgt.Bones[tgtArm.Index].Bind.Translation.Add(mgl64.Vec3{0.2, 0, 0})
	assert.InDelta(t, want.X(), out.Transforms[tgtArm.Index].Translation.X(), 1e-9)
	assert.InDelta(t, want.Y(), out.Transforms[tgtArm.Index].Translation.Y(), 1e-9)
}

func TestChildTargetAimsAtChild(t *testing.T) {
	src := armSkeleton("", 1)
	tgt := armSkeleton("", 1)
	table := armTable(t, src, tgt)

	// 90 degrees about Z swings the arm's +X child direction to +Y
	rot := mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 0, 1})
	frame := BindPose(src).Clone()
	arm, _ := src.BoneByName("arm_l")
	frame.Transforms[arm.Index].Rotation = rot.Mul(frame.Transforms[arm.Index].Rotation)

	out, err := DistanceChildTarget{}.Solve(Input{SourceFrame: frame, Table: table, Source: src, Target: tgt})
	require.NoError(t, err)

	got := out.Transforms[arm.Index].Rotation
	dir := got.Rotate(mgl64.Vec3{1, 0, 0})
	assert.InDelta(t, 0, dir.X(), 1e-9)
	assert.InDelta(t, 1, dir.Y(), 1e-9)
}

func TestWeightBlend(t *testing.T) {
	src := rig.NewSkeleton("", []rig.Bone{
		{Name: "spine_a", Parent: rig.RootIndex, Bind: rig.IdentityTransform()},
		{Name: "spine_b", Parent: 0, Bind: rig.IdentityTransform()},
	})
	src.WorldMatrices()
	tgt := armSkeleton("", 1)
	table := resolve.Resolve(src, tgt, resolve.Config{})

	frame := BindPose(src).Clone()
	frame.Transforms[1].Rotation = mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 0, 1})

	solver := WeightBlend{Weights: BlendWeights{
		"pelvis": {
			{SourceBone: "spine_a", Weight: 0.5},
			{SourceBone: "spine_b", Weight: 0.5},
		},
	}}
	out, err := solver.Solve(Input{SourceFrame: frame, Table: table, Source: src, Target: tgt})
	require.NoError(t, err)

	// equal-weight nlerp of identity and 90 degrees lands on 45
	want := mgl64.QuatRotate(math.Pi/4, mgl64.Vec3{0, 0, 1})
	assertQuatEqual(t, want, out.Transforms[0].Rotation)

	// unconfigured bones keep bind
	assertQuatEqual(t, mgl64.QuatIdent(), out.Transforms[1].Rotation)
}

func TestFrameLengthMismatch(t *testing.T) {
	src := armSkeleton("", 1)
	tgt := armSkeleton("", 1)
	table := resolve.Resolve(src, tgt, resolve.Config{})

	_, err := AutoSkin{}.Solve(Input{SourceFrame: PoseFrame{}, Table: table, Source: src, Target: tgt})
	assert.Error(t, err)
}

func TestNewUnknownKind(t *testing.T) {
	_, err := New(Kind("imaginary"), nil)
	assert.Error(t, err)
}

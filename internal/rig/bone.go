package rig

import (
	"github.com/go-gl/mathgl/mgl64"
)

// RootIndex is the parent sentinel for root bones.
const RootIndex = -1

// Transform is a local translation/rotation/scale triple.
type Transform struct {
	Translation mgl64.Vec3
	Rotation    mgl64.Quat
	Scale       mgl64.Vec3
}

// IdentityTransform returns a transform that does nothing.
func IdentityTransform() Transform {
	return Transform{
		Rotation: mgl64.QuatIdent(),
		Scale:    mgl64.Vec3{1, 1, 1},
	}
}

// Mat4 composes the transform into a 4×4 matrix (T·R·S order).
func (t Transform) Mat4() mgl64.Mat4 {
	m := mgl64.Translate3D(t.Translation.X(), t.Translation.Y(), t.Translation.Z())
	m = m.Mul4(t.Rotation.Mat4())
	return m.Mul4(mgl64.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z()))
}

// Bone is a single bone in the skeleton arena.
// Parent is an index into the same skeleton (RootIndex for roots),
// never a pointer, so the graph cannot form pointer cycles.
type Bone struct {
	Name       string
	Index      int
	Parent     int
	Bind       Transform
	Convention string

	// cached world bind matrix, filled by Skeleton.WorldMatrices
	world      mgl64.Mat4
	worldValid bool
}

// WorldBind returns the cached world bind matrix.
// Valid only after Skeleton.WorldMatrices has run.
func (b *Bone) WorldBind() mgl64.Mat4 {
	if !b.worldValid {
		return mgl64.Ident4()
	}
	return b.world
}

// WorldPosition returns the bone's bind position in model space.
func (b *Bone) WorldPosition() mgl64.Vec3 {
	w := b.WorldBind()
	return mgl64.Vec3{w.At(0, 3), w.At(1, 3), w.At(2, 3)}
}

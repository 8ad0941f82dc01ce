package diag

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"forge-rig/internal/rig"
)

// scaleTolerance is the relative mismatch below which skeleton and
// mesh are treated as sharing a canonical scale.
const scaleTolerance = 0.05

// NormalizeScale detects a scale mismatch between a skeleton's bind
// pose and the mesh it should drive (the classic "rig authored in
// centimeters, mesh in meters" import) and rescales the skeleton's
// bind translations to match the mesh. Uniform when the per-axis
// ratios agree, per-axis otherwise. Returns the applied factors.
func NormalizeScale(skel *rig.Skeleton, mesh *rig.Mesh, report *Report) mgl64.Vec3 {
	none := mgl64.Vec3{1, 1, 1}
	if skel.Len() == 0 || len(mesh.Positions) == 0 {
		return none
	}
	skel.WorldMatrices()

	skelMin := mgl64.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	skelMax := mgl64.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for i := range skel.Bones {
		p := skel.Bones[i].WorldPosition()
		for k := 0; k < 3; k++ {
			if p[k] < skelMin[k] {
				skelMin[k] = p[k]
			}
			if p[k] > skelMax[k] {
				skelMax[k] = p[k]
			}
		}
	}
	meshMin, meshMax := mesh.Bounds()

	skelSpan := skelMax.Sub(skelMin)
	meshSpan := meshMax.Sub(meshMin)

	factors := none
	usable := 0
	for k := 0; k < 3; k++ {
		if skelSpan[k] < 1e-9 || meshSpan[k] < 1e-9 {
			continue
		}
		factors[k] = meshSpan[k] / skelSpan[k]
		usable++
	}
	if usable == 0 {
		return none
	}

	// collapse to uniform when the axes agree
	if agreeUniform(factors) {
		u := dominantFactor(factors, meshSpan)
		factors = mgl64.Vec3{u, u, u}
	}

	if math.Abs(factors.X()-1) <= scaleTolerance &&
		math.Abs(factors.Y()-1) <= scaleTolerance &&
		math.Abs(factors.Z()-1) <= scaleTolerance {
		return none
	}

	for i := range skel.Bones {
		t := &skel.Bones[i].Bind.Translation
		*t = mgl64.Vec3{t.X() * factors.X(), t.Y() * factors.Y(), t.Z() * factors.Z()}
	}
	skel.WorldMatrices()

	report.Warnf(CodeScaleCorrected, "skeleton rescaled by (%.3f, %.3f, %.3f)",
		factors.X(), factors.Y(), factors.Z())
	return factors
}

func agreeUniform(f mgl64.Vec3) bool {
	mean := (f.X() + f.Y() + f.Z()) / 3
	for k := 0; k < 3; k++ {
		if math.Abs(f[k]-mean) > scaleTolerance*mean {
			return false
		}
	}
	return true
}

// dominantFactor picks the factor of the longest mesh axis; height
// dominates for humanoids.
func dominantFactor(f, span mgl64.Vec3) float64 {
	best := 0
	for k := 1; k < 3; k++ {
		if span[k] > span[best] {
			best = k
		}
	}
	return f[best]
}

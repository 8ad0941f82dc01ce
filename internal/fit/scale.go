package fit

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"forge-rig/internal/rig"
)

// ScaleConfig tunes the pre-fit scale correction pass.
type ScaleConfig struct {
	// AnchorRegions are the region names whose combined bounding box
	// anchors the comparison (shoulder/torso zone by default).
	AnchorRegions []string
	// PerAxis scales each axis independently instead of uniformly.
	PerAxis bool
	// Tolerance is the ratio band treated as "already matching".
	Tolerance float64
}

const defaultScaleTolerance = 0.03

// CorrectScale rescales the armor mesh in place about its centroid when
// armor and body were authored at different canonical scales, detected
// by comparing anchor-region bounding boxes. Returns the applied
// per-axis factors ({1,1,1} when nothing was done).
func CorrectScale(armor, body *rig.Mesh, regions []Region, cfg ScaleConfig) mgl64.Vec3 {
	tol := cfg.Tolerance
	if tol <= 0 {
		tol = defaultScaleTolerance
	}
	anchors := cfg.AnchorRegions
	if len(anchors) == 0 {
		anchors = []string{"torso", "upper_arm_l", "upper_arm_r"}
	}

	bodySpan := anchorSpan(body, regions, anchors)
	armorMin, armorMax := armor.Bounds()
	armorSpan := armorMax.Sub(armorMin)

	factors := mgl64.Vec3{1, 1, 1}
	for k := 0; k < 3; k++ {
		if armorSpan[k] < 1e-9 || bodySpan[k] < 1e-9 {
			continue
		}
		factors[k] = bodySpan[k] / armorSpan[k]
	}

	if !cfg.PerAxis {
		// widest anchor axis wins; uniform scale preserves shape
		u := factors[0]
		if bodySpan[1] > bodySpan[0] && bodySpan[1] >= bodySpan[2] {
			u = factors[1]
		} else if bodySpan[2] > bodySpan[0] {
			u = factors[2]
		}
		factors = mgl64.Vec3{u, u, u}
	}

	applied := false
	for k := 0; k < 3; k++ {
		if math.Abs(factors[k]-1) > tol {
			applied = true
		}
	}
	if !applied {
		return mgl64.Vec3{1, 1, 1}
	}

	centroid := meshCentroid(armor)
	for i, p := range armor.Positions {
		d := p.Sub(centroid)
		armor.Positions[i] = centroid.Add(mgl64.Vec3{
			d.X() * factors.X(),
			d.Y() * factors.Y(),
			d.Z() * factors.Z(),
		})
	}
	return factors
}

// anchorSpan measures the bounding box of the named regions' vertices,
// falling back to the whole mesh when none match.
func anchorSpan(body *rig.Mesh, regions []Region, anchors []string) mgl64.Vec3 {
	wanted := map[string]bool{}
	for _, a := range anchors {
		wanted[a] = true
	}

	min := mgl64.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	max := mgl64.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	found := false
	for _, r := range regions {
		if !wanted[r.Name] {
			continue
		}
		for _, vi := range r.Vertices {
			p := body.Positions[vi]
			for k := 0; k < 3; k++ {
				if p[k] < min[k] {
					min[k] = p[k]
				}
				if p[k] > max[k] {
					max[k] = p[k]
				}
			}
			found = true
		}
	}
	if !found {
		min, max = body.Bounds()
	}
	return max.Sub(min)
}

func meshCentroid(m *rig.Mesh) mgl64.Vec3 {
	if len(m.Positions) == 0 {
		return mgl64.Vec3{}
	}
	acc := mgl64.Vec3{}
	for _, p := range m.Positions {
		acc = acc.Add(p)
	}
	return acc.Mul(1 / float64(len(m.Positions)))
}

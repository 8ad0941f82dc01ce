package fit

import (
	"context"
	"log/slog"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/spatial/kdtree"

	"forge-rig/internal/rig"
)

// FitConfig tunes the collision-aware fitting loop.
type FitConfig struct {
	// Clearance is the margin kept between armor and body after a
	// penetration is resolved.
	Clearance float64
	// MaxGap pulls a floating vertex inward once its distance to the
	// body exceeds this.
	MaxGap float64
	// MaxShrink / MaxGrow bound the total displacement of any vertex
	// from its starting position (per-region bounds collapse to these
	// defaults when unset).
	MaxShrink float64
	MaxGrow   float64
	// Epsilon is the convergence threshold on the largest per-iteration
	// correction.
	Epsilon float64
	// MaxIterations caps the loop.
	MaxIterations int
	// Scale is the pre-pass configuration.
	Scale ScaleConfig
}

func (c FitConfig) withDefaults() FitConfig {
	if c.Clearance <= 0 {
		c.Clearance = 0.002
	}
	if c.MaxGap <= 0 {
		c.MaxGap = 0.02
	}
	if c.MaxShrink <= 0 {
		c.MaxShrink = 0.05
	}
	if c.MaxGrow <= 0 {
		c.MaxGrow = 0.05
	}
	if c.Epsilon <= 0 {
		c.Epsilon = 1e-4
	}
	if c.MaxIterations <= 0 {
		c.MaxIterations = 50
	}
	return c
}

// CollisionPoint is one candidate contact between an armor vertex and
// the body surface. Produced fresh every iteration, discarded after.
type CollisionPoint struct {
	Vertex         int
	SignedDistance float64
	Normal         mgl64.Vec3
	Region         string
}

// Result is the outcome of a fitting run. A non-converged or cancelled
// run still carries the best-so-far mesh, never a corrupt one.
type Result struct {
	Armor         *rig.Mesh
	Iterations    int
	Converged     bool
	Cancelled     bool
	MaxCorrection float64
	ScaleApplied  mgl64.Vec3
}

// Fit displaces armor vertices along their normals until the armor
// neither penetrates the body nor floats beyond the configured gap.
// The armor mesh is copied; the input is left untouched. Deterministic:
// same inputs and config always produce the same output.
func Fit(ctx context.Context, armor, body *rig.Mesh, regions []Region, cfg FitConfig) (Result, error) {
	if err := armor.Validate(); err != nil {
		return Result{}, err
	}
	if err := body.Validate(); err != nil {
		return Result{}, err
	}
	cfg = cfg.withDefaults()

	work := &rig.Mesh{
		Positions: append([]mgl64.Vec3(nil), armor.Positions...),
		Normals:   armor.Normals,
		UVs:       armor.UVs,
		Tris:      armor.Tris,
		Weights:   armor.Weights,
	}
	res := Result{Armor: work, ScaleApplied: CorrectScale(work, body, regions, cfg.Scale)}

	bodyNormals := make([]mgl64.Vec3, len(body.Positions))
	for vi := range body.Positions {
		bodyNormals[vi] = body.VertexNormal(vi)
	}
	whole := newSurfaceTree(body.Positions, nil)
	regionTrees, regionOf := buildRegionTrees(body, regions)

	// each armor vertex keeps one region for the whole run
	vertexRegion := make([]string, len(work.Positions))
	vertexNormal := make([]mgl64.Vec3, len(work.Positions))
	for vi, pos := range work.Positions {
		if nearest, _ := nearestK(whole, pos, 1); len(nearest) > 0 {
			vertexRegion[vi] = regionOf[nearest[0].index]
		}
		vertexNormal[vi] = armor.VertexNormal(vi)
	}
	origin := append([]mgl64.Vec3(nil), work.Positions...)

	for iter := 0; iter < cfg.MaxIterations; iter++ {
		select {
		case <-ctx.Done():
			res.Cancelled = true
			slog.Warn("fit: cancelled", "iterations", res.Iterations)
			return res, nil
		default:
		}

		points := collide(work, whole, regionTrees, vertexRegion, bodyNormals, regionOf)
		maxCorrection := 0.0
		for _, cp := range points {
			correction := correctionFor(cp, cfg)
			if correction == 0 {
				continue
			}
			moved := applyBounded(work, origin, vertexNormal, cp.Vertex, correction, cfg)
			if moved > maxCorrection {
				maxCorrection = moved
			}
		}

		res.Iterations = iter + 1
		res.MaxCorrection = maxCorrection
		if maxCorrection < cfg.Epsilon {
			res.Converged = true
			return res, nil
		}
	}

	slog.Warn("fit: iteration budget exhausted",
		"iterations", res.Iterations, "maxCorrection", res.MaxCorrection)
	return res, nil
}

// collide computes this iteration's collision points: for every armor
// vertex, the signed distance to the body surface within its region.
func collide(
	work *rig.Mesh,
	whole *kdtree.Tree,
	regionTrees map[string]*kdtree.Tree,
	vertexRegion []string,
	bodyNormals []mgl64.Vec3,
	regionOf map[int]string,
) []CollisionPoint {
	points := make([]CollisionPoint, 0, len(work.Positions))
	for vi, pos := range work.Positions {
		tree := whole
		if rt := regionTrees[vertexRegion[vi]]; rt != nil {
			tree = rt
		}
		nearest, _ := nearestK(tree, pos, 1)
		if len(nearest) == 0 {
			continue
		}
		n := bodyNormals[nearest[0].index]
		signed := pos.Sub(nearest[0].pos).Dot(n)
		points = append(points, CollisionPoint{
			Vertex:         vi,
			SignedDistance: signed,
			Normal:         n,
			Region:         vertexRegion[vi],
		})
	}
	return points
}

// correctionFor turns a collision point into a signed displacement
// along the armor vertex normal: positive pushes out of the body.
func correctionFor(cp CollisionPoint, cfg FitConfig) float64 {
	if cp.SignedDistance < 0 {
		// penetrating: depth plus clearance margin
		return -cp.SignedDistance + cfg.Clearance
	}
	if cp.SignedDistance > cfg.MaxGap {
		// floating: close the gap back down to the allowed maximum
		return -(cp.SignedDistance - cfg.MaxGap)
	}
	return 0
}

// applyBounded displaces vertex vi by correction along its normal,
// clamped so the total displacement from the original position stays
// within the shrink/grow bounds. Returns the magnitude actually moved.
func applyBounded(work *rig.Mesh, origin, normals []mgl64.Vec3, vi int, correction float64, cfg FitConfig) float64 {
	n := normals[vi]
	target := work.Positions[vi].Add(n.Mul(correction))

	total := target.Sub(origin[vi]).Dot(n)
	if total > cfg.MaxGrow {
		target = target.Add(n.Mul(cfg.MaxGrow - total))
	} else if total < -cfg.MaxShrink {
		target = target.Add(n.Mul(-cfg.MaxShrink - total))
	}

	moved := target.Sub(work.Positions[vi]).Len()
	work.Positions[vi] = target
	return moved
}

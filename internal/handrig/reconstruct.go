package handrig

import (
	"forge-rig/internal/ortho"
	"forge-rig/internal/rig"
)

// reconstruct back-projects 2D landmarks onto the mesh surface using
// the same orthographic camera the capture used. Landmarks whose ray
// misses the hand surface are flagged off-surface; fingerConfident
// later downgrades the affected finger.
func reconstruct(set LandmarkSet, cam ortho.Camera, mesh *rig.Mesh, handTris []int) []Landmark3D {
	out := make([]Landmark3D, len(set.Points))
	for i, lm := range set.Points {
		origin, dir := cam.Unproject(lm.X, lm.Y)
		hit, ok := ortho.RayMesh(origin, dir, mesh.Positions, mesh.Tris, handTris)
		out[i] = Landmark3D{Pos: hit, Confidence: lm.Confidence, OnSurface: ok}
	}
	return out
}

// fingerConfident reports whether finger f's four landmarks all landed
// on the surface with enough detection confidence to drive a full
// three-bone chain.
func fingerConfident(points []Landmark3D, f int, minConfidence float64) bool {
	if len(points) < LandmarkCount {
		return false
	}
	for _, li := range fingerLandmarks(f) {
		p := points[li]
		if !p.OnSurface || p.Confidence < minConfidence {
			return false
		}
	}
	return true
}

// wristLandmark returns the reconstructed wrist anchor when usable.
func wristLandmark(points []Landmark3D) (Landmark3D, bool) {
	if len(points) == 0 || !points[0].OnSurface {
		return Landmark3D{}, false
	}
	return points[0], true
}

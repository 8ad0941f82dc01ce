package ortho

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const rayEpsilon = 1e-9

// RayMesh intersects a ray with a triangle subset of a mesh and returns
// the nearest hit point. A nil subset tests every triangle.
func RayMesh(origin, dir mgl64.Vec3, positions []mgl64.Vec3, tris [][3]int, subset []int) (mgl64.Vec3, bool) {
	bestT := math.Inf(1)
	test := func(tri [3]int) {
		if t, ok := rayTriangle(origin, dir, positions[tri[0]], positions[tri[1]], positions[tri[2]]); ok && t < bestT {
			bestT = t
		}
	}
	if subset == nil {
		for _, tri := range tris {
			test(tri)
		}
	} else {
		for _, ti := range subset {
			test(tris[ti])
		}
	}
	if math.IsInf(bestT, 1) {
		return mgl64.Vec3{}, false
	}
	return origin.Add(dir.Mul(bestT)), true
}

// rayTriangle is the Möller–Trumbore intersection, returning the ray
// parameter t for hits in front of the origin.
func rayTriangle(origin, dir, a, b, c mgl64.Vec3) (float64, bool) {
	e1 := b.Sub(a)
	e2 := c.Sub(a)
	p := dir.Cross(e2)
	det := e1.Dot(p)
	if math.Abs(det) < rayEpsilon {
		return 0, false
	}
	inv := 1 / det
	s := origin.Sub(a)
	u := s.Dot(p) * inv
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(e1)
	v := dir.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t := e2.Dot(q) * inv
	if t < rayEpsilon {
		return 0, false
	}
	return t, true
}

package rig

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrFaceIndexOutOfRange reports a triangle referencing a missing vertex.
var ErrFaceIndexOutOfRange = errors.New("rig: face index out of range")

// Mesh is a triangle mesh with optional skin weights.
type Mesh struct {
	Positions []mgl64.Vec3
	Normals   []mgl64.Vec3
	UVs       []mgl64.Vec2
	Tris      [][3]int
	Weights   *VertexWeights

	// Albedo is the optional surface texture, sampled through UVs by
	// rendering collaborators. Never written by the engine.
	Albedo *image.NRGBA
}

// Validate checks face indexes and, when weights are present, that the
// binding covers every vertex.
func (m *Mesh) Validate() error {
	n := len(m.Positions)
	for ti, tri := range m.Tris {
		for _, vi := range tri {
			if vi < 0 || vi >= n {
				return fmt.Errorf("%w: tri %d vertex %d (mesh has %d)", ErrFaceIndexOutOfRange, ti, vi, n)
			}
		}
	}
	if m.Weights != nil && m.Weights.Len() != n {
		return fmt.Errorf("rig: weights cover %d vertices, mesh has %d", m.Weights.Len(), n)
	}
	return nil
}

// Bounds returns the axis-aligned bounding box of the mesh, or zeroes
// for an empty mesh.
func (m *Mesh) Bounds() (min, max mgl64.Vec3) {
	if len(m.Positions) == 0 {
		return
	}
	min = mgl64.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	max = mgl64.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for _, p := range m.Positions {
		for k := 0; k < 3; k++ {
			if p[k] < min[k] {
				min[k] = p[k]
			}
			if p[k] > max[k] {
				max[k] = p[k]
			}
		}
	}
	return
}

// VertexNormal returns the stored normal for vi, or a face-averaged
// normal when the mesh carries none.
func (m *Mesh) VertexNormal(vi int) mgl64.Vec3 {
	if vi < len(m.Normals) {
		n := m.Normals[vi]
		if n.Len() > 1e-12 {
			return n.Normalize()
		}
	}
	acc := mgl64.Vec3{}
	for _, tri := range m.Tris {
		if tri[0] != vi && tri[1] != vi && tri[2] != vi {
			continue
		}
		e1 := m.Positions[tri[1]].Sub(m.Positions[tri[0]])
		e2 := m.Positions[tri[2]].Sub(m.Positions[tri[0]])
		acc = acc.Add(e1.Cross(e2))
	}
	if acc.Len() < 1e-12 {
		return mgl64.Vec3{0, 1, 0}
	}
	return acc.Normalize()
}

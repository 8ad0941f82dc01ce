package rig

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeshValidate(t *testing.T) {
	m := &Mesh{
		Positions: []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Tris:      [][3]int{{0, 1, 2}},
	}
	require.NoError(t, m.Validate())

	m.Tris = append(m.Tris, [3]int{0, 1, 9})
	assert.ErrorIs(t, m.Validate(), ErrFaceIndexOutOfRange)
}

func TestMeshBounds(t *testing.T) {
	m := &Mesh{Positions: []mgl64.Vec3{{-1, 2, 0}, {3, -2, 5}}}
	min, max := m.Bounds()
	assert.Equal(t, mgl64.Vec3{-1, -2, 0}, min)
	assert.Equal(t, mgl64.Vec3{3, 2, 5}, max)
}

func TestVertexNormal(t *testing.T) {
	// single triangle in the XY plane, wound counter-clockwise
	m := &Mesh{
		Positions: []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Tris:      [][3]int{{0, 1, 2}},
	}
	n := m.VertexNormal(0)
	assert.InDelta(t, 0, n.X(), 1e-12)
	assert.InDelta(t, 0, n.Y(), 1e-12)
	assert.InDelta(t, 1, n.Z(), 1e-12)

	// stored normals win over face averaging
	m.Normals = []mgl64.Vec3{{0, 2, 0}, {0, 0, 1}, {0, 0, 1}}
	assert.Equal(t, mgl64.Vec3{0, 1, 0}, m.VertexNormal(0))
}

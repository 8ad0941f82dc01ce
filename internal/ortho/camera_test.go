package ortho

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func axisCamera() Camera {
	return Camera{
		Center:     mgl64.Vec3{1, 2, 3},
		Right:      mgl64.Vec3{1, 0, 0},
		Up:         mgl64.Vec3{0, 1, 0},
		Forward:    mgl64.Vec3{0, 0, -1},
		HalfExtent: 2,
		ImageSize:  512,
	}
}

func TestProjectUnprojectRoundTrip(t *testing.T) {
	cam := axisCamera()
	p := mgl64.Vec3{1.5, 2.8, 3}

	px, py, _ := cam.Project(p)
	origin, dir := cam.Unproject(px, py)

	// the unprojected ray passes through the original point
	toP := p.Sub(origin)
	along := toP.Dot(dir)
	offAxis := toP.Sub(dir.Mul(along)).Len()
	assert.InDelta(t, 0, offAxis, 1e-9)
	assert.Greater(t, along, 0.0)
}

func TestProjectImageOrientation(t *testing.T) {
	cam := axisCamera()

	// center lands in the middle of the image
	px, py, _ := cam.Project(cam.Center)
	assert.InDelta(t, 256, px, 1e-9)
	assert.InDelta(t, 256, py, 1e-9)

	// +Up in model space moves the pixel upward (smaller py)
	_, py2, _ := cam.Project(cam.Center.Add(cam.Up))
	assert.Less(t, py2, py)
}

func TestFrameRegionCoversSubset(t *testing.T) {
	// elongated point cloud along Y with a little width in X
	var positions []mgl64.Vec3
	for i := 0; i < 20; i++ {
		positions = append(positions, mgl64.Vec3{0.1 * float64(i%2), float64(i) * 0.05, 0})
	}

	cam := FrameRegion(positions, nil, 256)
	require.Equal(t, 256, cam.ImageSize)

	// long axis becomes Up
	assert.InDelta(t, 1, math.Abs(cam.Up.Dot(mgl64.Vec3{0, 1, 0})), 0.05)

	// every point projects inside the image
	for _, p := range positions {
		px, py, _ := cam.Project(p)
		assert.GreaterOrEqual(t, px, 0.0)
		assert.LessOrEqual(t, px, 256.0)
		assert.GreaterOrEqual(t, py, 0.0)
		assert.LessOrEqual(t, py, 256.0)
	}

	// axes are orthonormal
	assert.InDelta(t, 0, cam.Right.Dot(cam.Up), 1e-9)
	assert.InDelta(t, 0, cam.Right.Dot(cam.Forward), 1e-9)
	assert.InDelta(t, 1, cam.Right.Len(), 1e-9)
	assert.InDelta(t, 1, cam.Forward.Len(), 1e-9)
}

func TestRayMesh(t *testing.T) {
	positions := []mgl64.Vec3{{-1, -1, 0}, {1, -1, 0}, {0, 1, 0}}
	tris := [][3]int{{0, 1, 2}}

	hit, ok := RayMesh(mgl64.Vec3{0, 0, 5}, mgl64.Vec3{0, 0, -1}, positions, tris, nil)
	require.True(t, ok)
	assert.InDelta(t, 0, hit.Z(), 1e-12)

	// ray missing the triangle
	_, ok = RayMesh(mgl64.Vec3{5, 5, 5}, mgl64.Vec3{0, 0, -1}, positions, tris, nil)
	assert.False(t, ok)

	// empty subset tests nothing
	_, ok = RayMesh(mgl64.Vec3{0, 0, 5}, mgl64.Vec3{0, 0, -1}, positions, tris, []int{})
	assert.False(t, ok)
}

func TestRayMeshNearestHit(t *testing.T) {
	// two parallel triangles; the closer one wins
	positions := []mgl64.Vec3{
		{-1, -1, 0}, {1, -1, 0}, {0, 1, 0},
		{-1, -1, 2}, {1, -1, 2}, {0, 1, 2},
	}
	tris := [][3]int{{0, 1, 2}, {3, 4, 5}}

	hit, ok := RayMesh(mgl64.Vec3{0, 0, 5}, mgl64.Vec3{0, 0, -1}, positions, tris, nil)
	require.True(t, ok)
	assert.InDelta(t, 2, hit.Z(), 1e-12)
}

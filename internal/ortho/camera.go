package ortho

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"
)

// Camera is an orthographic (parallel projection) camera. Project and
// Unproject share the same parameters, so a pixel measured on the
// capture image back-projects exactly onto the model-space ray it came
// from.
type Camera struct {
	Center     mgl64.Vec3
	Right      mgl64.Vec3
	Up         mgl64.Vec3
	Forward    mgl64.Vec3
	HalfExtent float64
	ImageSize  int
}

// Project maps a model-space point to pixel coordinates plus depth
// along the view direction. Y grows downward, matching image space.
func (c Camera) Project(p mgl64.Vec3) (px, py, depth float64) {
	d := p.Sub(c.Center)
	half := float64(c.ImageSize) / 2
	scale := half / c.HalfExtent
	px = d.Dot(c.Right)*scale + half
	py = -d.Dot(c.Up)*scale + half
	depth = d.Dot(c.Forward)
	return
}

// Unproject maps pixel coordinates back to the model-space ray entering
// the scene at that pixel: a point on the camera plane and the view
// direction.
func (c Camera) Unproject(px, py float64) (origin, dir mgl64.Vec3) {
	half := float64(c.ImageSize) / 2
	x := (px - half) / half * c.HalfExtent
	y := -(py - half) / half * c.HalfExtent
	origin = c.Center.Add(c.Right.Mul(x)).Add(c.Up.Mul(y)).Sub(c.Forward.Mul(2 * c.HalfExtent))
	return origin, c.Forward
}

// FrameRegion fits a camera to a vertex subset: centered on the subset,
// axes aligned to its principal directions so elongated regions (a
// hand, a forearm) fill the frame, with a small margin around the
// extent. A nil subset frames every vertex.
func FrameRegion(positions []mgl64.Vec3, subset []int, imageSize int) Camera {
	idx := subset
	if idx == nil {
		idx = make([]int, len(positions))
		for i := range idx {
			idx[i] = i
		}
	}

	center := mgl64.Vec3{}
	for _, vi := range idx {
		center = center.Add(positions[vi])
	}
	if len(idx) > 0 {
		center = center.Mul(1 / float64(len(idx)))
	}

	right, up, forward := principalAxes(positions, idx, center)

	extent := 0.0
	for _, vi := range idx {
		d := positions[vi].Sub(center)
		if v := math.Abs(d.Dot(right)); v > extent {
			extent = v
		}
		if v := math.Abs(d.Dot(up)); v > extent {
			extent = v
		}
	}
	if extent < 1e-6 {
		extent = 1e-6
	}

	return Camera{
		Center:     center,
		Right:      right,
		Up:         up,
		Forward:    forward,
		HalfExtent: extent * 1.1,
		ImageSize:  imageSize,
	}
}

// principalAxes eigen-decomposes the subset's covariance: the largest
// axis becomes Up (fingers run along the image vertical), the second
// Right, and the smallest Forward (the flat side of a hand faces the
// camera).
func principalAxes(positions []mgl64.Vec3, idx []int, center mgl64.Vec3) (right, up, forward mgl64.Vec3) {
	var cov [3][3]float64
	for _, vi := range idx {
		d := positions[vi].Sub(center)
		for a := 0; a < 3; a++ {
			for b := 0; b < 3; b++ {
				cov[a][b] += d[a] * d[b]
			}
		}
	}

	sym := mat.NewSymDense(3, []float64{
		cov[0][0], cov[0][1], cov[0][2],
		cov[1][0], cov[1][1], cov[1][2],
		cov[2][0], cov[2][1], cov[2][2],
	})
	var eig mat.EigenSym
	if !eig.Factorize(sym, true) {
		return mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, 0, 1}
	}
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	// EigenSym orders eigenvalues ascending: col 2 largest, col 0 smallest
	axis := func(col int) mgl64.Vec3 {
		v := mgl64.Vec3{vecs.At(0, col), vecs.At(1, col), vecs.At(2, col)}
		if v.Len() < 1e-12 {
			return mgl64.Vec3{0, 1, 0}
		}
		return v.Normalize()
	}
	up = axis(2)
	right = axis(1)
	forward = right.Cross(up).Normalize()
	// keep the triad right-handed and consistent
	right = up.Cross(forward).Normalize()
	return right, up, forward
}

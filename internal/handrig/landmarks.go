package handrig

import (
	"image"

	"github.com/go-gl/mathgl/mgl64"

	"forge-rig/internal/ortho"
	"forge-rig/internal/rig"
)

// Renderer is the rendering collaborator: it draws a mesh from the
// given orthographic camera into an image buffer. Provided by the
// application's rendering surface, never implemented in this engine.
type Renderer interface {
	Render(mesh *rig.Mesh, cam ortho.Camera) (*image.NRGBA, error)
}

// Detector is the 2D keypoint collaborator: it locates hand joints in
// a capture image. An empty landmark set means no hand was found.
type Detector interface {
	Detect(img *image.NRGBA) (LandmarkSet, error)
}

// Landmark is one detected joint in capture-image space.
type Landmark struct {
	X, Y       float64
	Confidence float64
}

// LandmarkSet is the ordered 21-point hand layout (wrist first, then
// four joints per finger, thumb through pinky). Consumed by
// reconstruction and discarded; never persisted.
type LandmarkSet struct {
	Points []Landmark
}

// Landmark3D is a landmark back-projected onto the mesh surface.
type Landmark3D struct {
	Pos        mgl64.Vec3
	Confidence float64
	OnSurface  bool
}

// LandmarkCount is the full hand layout size.
const LandmarkCount = 21

// Finger names in landmark order.
var fingerNames = []string{"thumb", "index", "middle", "ring", "pinky"}

// fingerLandmarks returns the four landmark indexes of finger f
// (0=thumb..4=pinky): base joint through tip.
func fingerLandmarks(f int) [4]int {
	base := 1 + f*4
	return [4]int{base, base + 1, base + 2, base + 3}
}

// Complete reports whether the set carries the full layout.
func (s LandmarkSet) Complete() bool {
	return len(s.Points) == LandmarkCount
}

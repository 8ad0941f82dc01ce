package handrig

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/image/draw"

	"forge-rig/internal/ortho"
	"forge-rig/internal/resolve"
	"forge-rig/internal/rig"
)

// findWristBone returns the wrist (hand) bone of the requested side.
func findWristBone(skel *rig.Skeleton, side string) (int, bool) {
	want := resolve.ConceptHandL
	if side == "right" {
		want = resolve.ConceptHandR
	}
	for i := range skel.Bones {
		if resolve.ConceptOf(skel.Bones[i].Name) == want {
			return i, true
		}
	}
	return 0, false
}

// fingersAlreadyRigged reports whether the wrist subtree already
// carries finger bones, recognized either through the canonical concept
// table or by a finger word in the raw name.
func fingersAlreadyRigged(skel *rig.Skeleton, wrist int) bool {
	for _, bi := range skel.Subtree(wrist) {
		if bi == wrist {
			continue
		}
		concept := resolve.ConceptOf(skel.Bones[bi].Name)
		name := strings.ToLower(skel.Bones[bi].Name)
		for _, finger := range fingerNames {
			if strings.Contains(concept, finger) || strings.Contains(name, finger) {
				return true
			}
		}
	}
	return false
}

// handVertices selects the mesh vertices belonging to the hand: those
// whose dominant skin weight lies in the wrist subtree when weights
// exist, otherwise those past the wrist along the forearm axis.
func handVertices(mesh *rig.Mesh, skel *rig.Skeleton, wrist int) []int {
	if mesh.Weights != nil && mesh.Weights.Len() == len(mesh.Positions) {
		inSubtree := map[int]bool{}
		for _, bi := range skel.Subtree(wrist) {
			inSubtree[bi] = true
		}
		var out []int
		for vi := range mesh.Positions {
			if inSubtree[mesh.Weights.DominantBone(vi)] {
				out = append(out, vi)
			}
		}
		if len(out) > 0 {
			return out
		}
	}

	wristPos := skel.Bones[wrist].WorldPosition()
	axis := mgl64.Vec3{0, -1, 0}
	if p := skel.Bones[wrist].Parent; p != rig.RootIndex {
		d := wristPos.Sub(skel.Bones[p].WorldPosition())
		if d.Len() > 1e-9 {
			axis = d.Normalize()
		}
	}
	var out []int
	for vi, pos := range mesh.Positions {
		if pos.Sub(wristPos).Dot(axis) >= 0 {
			out = append(out, vi)
		}
	}
	return out
}

// handTriangles returns the triangle indexes fully inside the hand
// vertex set, used to restrict back-projection raycasts.
func handTriangles(mesh *rig.Mesh, hand []int) []int {
	inHand := map[int]bool{}
	for _, vi := range hand {
		inHand[vi] = true
	}
	var out []int
	for ti, tri := range mesh.Tris {
		if inHand[tri[0]] && inHand[tri[1]] && inHand[tri[2]] {
			out = append(out, ti)
		}
	}
	return out
}

// capture renders the hand region through the collaborator and scales
// the result down to the detector's input size with premultiplied
// Catmull-Rom filtering.
func capture(mesh *rig.Mesh, cam ortho.Camera, r Renderer, detectorSize int) (*image.NRGBA, error) {
	img, err := r.Render(mesh, cam)
	if err != nil {
		return nil, fmt.Errorf("handrig: render: %w", err)
	}
	if img == nil {
		return nil, fmt.Errorf("handrig: render returned no image")
	}
	if detectorSize <= 0 || img.Bounds().Dx() <= detectorSize {
		return img, nil
	}

	src := toRGBA(img)
	dst := image.NewRGBA(image.Rect(0, 0, detectorSize, detectorSize))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return fromRGBA(dst), nil
}

func toRGBA(img *image.NRGBA) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(b)
	draw.Draw(out, b, img, b.Min, draw.Src)
	return out
}

func fromRGBA(img *image.RGBA) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(b)
	draw.Draw(out, b, img, b.Min, draw.Src)
	return out
}

// dumpCapture writes a capture image as webp for external inspection.
func dumpCapture(dir, name string, img *image.NRGBA) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("handrig: debug dir: %w", err)
	}
	f, err := os.Create(filepath.Join(dir, name+".webp"))
	if err != nil {
		return fmt.Errorf("handrig: debug dump: %w", err)
	}
	defer f.Close()
	if err := nativewebp.Encode(f, img, nil); err != nil {
		return fmt.Errorf("handrig: encode %s: %w", name, err)
	}
	return nil
}

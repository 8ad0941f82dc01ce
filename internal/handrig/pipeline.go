package handrig

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/tiendc/go-deepcopy"

	"forge-rig/internal/ortho"
	"forge-rig/internal/rig"
)

// State is the pipeline's position in its run.
type State string

const (
	StateNotRigged         State = "not_rigged"
	StateCaptured          State = "captured"
	StateLandmarksDetected State = "landmarks_detected"
	StateReconstructed3D   State = "reconstructed_3d"
	StateBonesSynthesized  State = "bones_synthesized"
	StateWeightsPainted    State = "weights_painted"
	StateComplete          State = "complete"
	StateSkipped           State = "skipped"
	StateFailed            State = "failed"
)

// FailReason explains a Failed or Skipped terminal state.
type FailReason string

const (
	ReasonMissingParentBone FailReason = "missing parent bone"
	ReasonAlreadyRigged     FailReason = "hand already carries finger bones"
	ReasonNoHandDetected    FailReason = "no hand detected"
	ReasonLowConfidence     FailReason = "insufficient landmark confidence"
	ReasonRenderFailed      FailReason = "capture render failed"
	ReasonDetectorFailed    FailReason = "landmark detector failed"
)

// Config tunes one hand-rigging run.
type Config struct {
	// Side selects the hand: "left" or "right".
	Side string
	// CaptureSize is the square capture render resolution.
	CaptureSize int
	// DetectorSize is the detector's input resolution; the capture is
	// downsampled to it when smaller.
	DetectorSize int
	// MinConfidence gates per-landmark detection confidence.
	MinConfidence float64
	// MinFingers is how many confident fingers the full per-finger
	// path needs; below it the flat-hand fallback runs.
	MinFingers int
	// DebugDir, when set, receives webp dumps of the capture.
	DebugDir string
}

func (c Config) withDefaults() Config {
	if c.Side == "" {
		c.Side = "left"
	}
	if c.CaptureSize <= 0 {
		c.CaptureSize = 512
	}
	if c.DetectorSize <= 0 {
		c.DetectorSize = 256
	}
	if c.MinConfidence <= 0 {
		c.MinConfidence = 0.5
	}
	if c.MinFingers <= 0 {
		c.MinFingers = 2
	}
	return c
}

// Result is the outcome of a pipeline run. On any failure the returned
// skeleton and weights are the caller's originals, untouched: bone
// synthesis commits only after weight painting succeeds.
type Result struct {
	State     State
	Reason    FailReason
	Skeleton  *rig.Skeleton
	Weights   *rig.VertexWeights
	NewBones  []int
	Landmarks []Landmark3D
	Capture   *image.NRGBA
	FlatHand  bool
}

// Run executes the hand pipeline over one mesh: capture → landmark
// detection → 3D reconstruction → bone synthesis → weight painting.
// All mutation happens on a deep copy of the skeleton; the input
// skeleton is never modified.
func Run(mesh *rig.Mesh, skel *rig.Skeleton, renderer Renderer, detector Detector, cfg Config) (Result, error) {
	cfg = cfg.withDefaults()
	res := Result{State: StateNotRigged, Skeleton: skel, Weights: mesh.Weights}

	if err := skel.Validate(); err != nil {
		return res, err
	}
	if err := mesh.Validate(); err != nil {
		return res, err
	}
	skel.WorldMatrices()

	wrist, ok := findWristBone(skel, cfg.Side)
	if !ok {
		return failed(res, ReasonMissingParentBone), nil
	}

	// Only meshes lacking finger bones get rigged; a hand that already
	// carries chains keeps them.
	if fingersAlreadyRigged(skel, wrist) {
		res.State = StateSkipped
		res.Reason = ReasonAlreadyRigged
		return res, nil
	}

	hand := handVertices(mesh, skel, wrist)
	if len(hand) == 0 {
		return failed(res, ReasonNoHandDetected), nil
	}
	handTris := handTriangles(mesh, hand)

	// Capture
	cam := ortho.FrameRegion(mesh.Positions, hand, cfg.CaptureSize)
	img, err := capture(mesh, cam, renderer, cfg.DetectorSize)
	if err != nil {
		slog.Warn("handrig: capture failed", "side", cfg.Side, "err", err)
		return failed(res, ReasonRenderFailed), nil
	}
	res.State = StateCaptured
	res.Capture = img
	if cfg.DebugDir != "" {
		if err := dumpCapture(cfg.DebugDir, "hand_"+cfg.Side, img); err != nil {
			slog.Warn("handrig: debug dump failed", "err", err)
		}
	}

	// Landmark detection
	set, err := detector.Detect(img)
	if err != nil {
		slog.Warn("handrig: detection failed", "side", cfg.Side, "err", err)
		return failed(res, ReasonDetectorFailed), nil
	}
	if len(set.Points) == 0 {
		return failed(res, ReasonNoHandDetected), nil
	}
	if !set.Complete() {
		return failed(res, ReasonLowConfidence), nil
	}
	res.State = StateLandmarksDetected

	// Detector coordinates are in its own input space; rescale into
	// the capture camera's pixel space before back-projection.
	if img.Bounds().Dx() != cfg.CaptureSize {
		f := float64(cfg.CaptureSize) / float64(img.Bounds().Dx())
		for i := range set.Points {
			set.Points[i].X *= f
			set.Points[i].Y *= f
		}
	}

	// 3D reconstruction
	points := reconstruct(set, cam, mesh, handTris)
	res.State = StateReconstructed3D
	res.Landmarks = points

	var confident []int
	for f := 0; f < len(fingerNames); f++ {
		if fingerConfident(points, f, cfg.MinConfidence) {
			confident = append(confident, f)
		}
	}

	// Bone synthesis on a clone; the original stays untouched until
	// painting succeeds.
	clone, err := cloneSkeleton(skel)
	if err != nil {
		return res, err
	}
	var syn synthesis
	if len(confident) >= cfg.MinFingers {
		syn, err = synthesizeFingers(clone, wrist, points, confident, cfg.Side)
	} else {
		slog.Info("handrig: falling back to flat hand segment",
			"side", cfg.Side, "confidentFingers", len(confident))
		syn, err = synthesizeFlatHand(clone, wrist, mesh, hand, cfg.Side)
		res.FlatHand = true
	}
	if err != nil {
		return res, fmt.Errorf("handrig: bone synthesis: %w", err)
	}
	res.State = StateBonesSynthesized

	// Weight painting, then atomic commit
	weights := paintWeights(mesh, clone, hand, syn, points, wrist)
	if err := weights.Validate(clone); err != nil {
		return res, fmt.Errorf("handrig: painted weights: %w", err)
	}
	res.State = StateWeightsPainted

	res.Skeleton = clone
	res.Weights = weights
	res.NewBones = syn.all
	res.State = StateComplete
	return res, nil
}

func failed(res Result, reason FailReason) Result {
	res.State = StateFailed
	res.Reason = reason
	return res
}

// cloneSkeleton deep-copies a skeleton. Derived caches (name index,
// world matrices) are rebuilt on the clone.
func cloneSkeleton(src *rig.Skeleton) (*rig.Skeleton, error) {
	clone := &rig.Skeleton{}
	if err := deepcopy.Copy(clone, src); err != nil {
		return nil, fmt.Errorf("handrig: clone skeleton: %w", err)
	}
	clone.WorldMatrices()
	return clone, nil
}

package diag

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forge-rig/internal/rig"
)

func chainSkeleton(n int, step mgl64.Vec3) *rig.Skeleton {
	bones := make([]rig.Bone, n)
	for i := range bones {
		parent := i - 1
		if i == 0 {
			parent = rig.RootIndex
		}
		bones[i] = rig.Bone{Name: string(rune('a' + i%26)) + string(rune('0'+i/26)), Parent: parent, Bind: rig.IdentityTransform()}
		bones[i].Bind.Translation = step
	}
	s := rig.NewSkeleton("", bones)
	s.WorldMatrices()
	return s
}

func TestReport(t *testing.T) {
	var r Report
	r.Asset = "helmet"
	assert.True(t, r.Clean())

	r.Warnf(CodeZeroWeight, "%d vertices", 3)
	assert.False(t, r.Clean())
	assert.Contains(t, r.String(), CodeZeroWeight)

	var other Report
	other.Warnf(CodeNotConverged, "residual")
	other.UnmappedBones = []string{"prop_01"}
	r.Merge(&other)
	assert.Len(t, r.Warnings, 2)
	assert.Contains(t, r.String(), "prop_01")
}

func TestCheckSkeleton(t *testing.T) {
	s := chainSkeleton(5, mgl64.Vec3{0, 1, 0})

	var r Report
	require.NoError(t, CheckSkeleton(s, Limits{MaxDepth: 3, MaxBones: 4}, &r))
	require.Len(t, r.Warnings, 2)
	codes := []string{r.Warnings[0].Code, r.Warnings[1].Code}
	assert.Contains(t, codes, CodeDeepHierarchy)
	assert.Contains(t, codes, CodeTooManyBones)

	// within limits: no warnings
	var clean Report
	require.NoError(t, CheckSkeleton(s, Limits{}, &clean))
	assert.True(t, clean.Clean())

	// malformed skeleton is fatal
	bad := rig.NewSkeleton("", []rig.Bone{
		{Name: "x", Parent: 4, Bind: rig.IdentityTransform()},
	})
	var ignored Report
	assert.Error(t, CheckSkeleton(bad, Limits{}, &ignored))
}

func TestCheckWeights(t *testing.T) {
	s := chainSkeleton(2, mgl64.Vec3{0, 1, 0})
	w := rig.NewVertexWeights(3)
	w.Influences[0] = []rig.Influence{{Bone: 0, Weight: 1}}
	w.Influences[1] = nil // zero-weight vertex
	w.Influences[2] = []rig.Influence{{Bone: 1, Weight: 0.5}, {Bone: 0, Weight: 0.5}}

	var r Report
	require.NoError(t, CheckWeights(w, s, Limits{MaxInfluences: 1}, &r))
	require.Len(t, r.Warnings, 2)
	assert.Equal(t, CodeZeroWeight, r.Warnings[0].Code)
	assert.Equal(t, CodeTooManyInfl, r.Warnings[1].Code)

	// out-of-range bone reference is fatal
	w.Influences[0] = []rig.Influence{{Bone: 9, Weight: 1}}
	var ignored Report
	assert.ErrorIs(t, CheckWeights(w, s, Limits{}, &ignored), rig.ErrBoneIndexOutOfRange)
}

func TestNormalizeScale(t *testing.T) {
	// skeleton authored at 1/100 of the mesh scale
	s := chainSkeleton(3, mgl64.Vec3{0, 1, 0})
	mesh := &rig.Mesh{Positions: []mgl64.Vec3{{0, 0, 0}, {0, 200, 0}}}

	var r Report
	factors := NormalizeScale(s, mesh, &r)
	assert.InDelta(t, 100, factors.Y(), 1e-9)

	s.WorldMatrices()
	assert.InDelta(t, 200, s.Bones[2].WorldPosition().Y(), 1e-9)
	require.Len(t, r.Warnings, 1)
	assert.Equal(t, CodeScaleCorrected, r.Warnings[0].Code)
}

func TestNormalizeScaleWithinTolerance(t *testing.T) {
	s := chainSkeleton(3, mgl64.Vec3{0, 1, 0})
	mesh := &rig.Mesh{Positions: []mgl64.Vec3{{0, 0, 0}, {0, 2.04, 0}}}

	var r Report
	factors := NormalizeScale(s, mesh, &r)
	assert.Equal(t, mgl64.Vec3{1, 1, 1}, factors)
	assert.True(t, r.Clean())
}

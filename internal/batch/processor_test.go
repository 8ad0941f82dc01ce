package batch

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forge-rig/internal/bundle"
	"forge-rig/internal/config"
	"forge-rig/internal/diag"
	"forge-rig/internal/retarget"
	"forge-rig/internal/rig"
)

func writeBody(t *testing.T, dir string) string {
	t.Helper()
	mesh := &rig.Mesh{}
	for _, x := range []float64{0, 0.01, 0.02} {
		for _, z := range []float64{0, 0.01, 0.02} {
			mesh.Positions = append(mesh.Positions, mgl64.Vec3{x, 0, z})
		}
	}
	mesh.Weights = rig.NewVertexWeights(len(mesh.Positions))
	for vi := range mesh.Weights.Influences {
		mesh.Weights.Influences[vi] = []rig.Influence{{Bone: 0, Weight: 1}}
	}
	skel := rig.NewSkeleton("body", []rig.Bone{
		{Name: "pelvis", Parent: rig.RootIndex, Bind: rig.IdentityTransform()},
	})
	skel.WorldMatrices()

	path := filepath.Join(dir, "body.json")
	require.NoError(t, bundle.Save(path, &bundle.Bundle{Name: "body", Mesh: mesh, Skeleton: skel}))
	return path
}

func writeArmor(t *testing.T, dir string) string {
	t.Helper()
	mesh := &rig.Mesh{Positions: []mgl64.Vec3{{0.01, -0.005, 0.01}}}
	skel := rig.NewSkeleton("armor", []rig.Bone{
		{Name: "pelvis", Parent: rig.RootIndex, Bind: rig.IdentityTransform()},
	})
	skel.WorldMatrices()

	path := filepath.Join(dir, "armor.json")
	require.NoError(t, bundle.Save(path, &bundle.Bundle{
		Name: "armor", Mesh: mesh, Skeleton: skel, BodyRef: "body.json",
	}))
	return path
}

func testEngine(outDir string) config.Config {
	var cfg config.Config
	cfg.OutputDir = outDir
	cfg.Resolve(config.Flags{Workers: 2})
	return cfg
}

func TestRunProcessesAssets(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	bodyPath := writeBody(t, dir)
	armorPath := writeArmor(t, dir)

	cfg := Config{Engine: testEngine(outDir), OutputDir: outDir}
	results := Run(context.Background(), cfg, []string{bodyPath, armorPath})
	require.Len(t, results, 2)

	for _, r := range results {
		assert.True(t, r.Success, "%s: %s", r.Name, r.Error)
	}

	// the armor got weights transferred and was pushed out of the body
	fitted, err := bundle.Load(filepath.Join(outDir, "armor.json"))
	require.NoError(t, err)
	require.NotNil(t, fitted.Mesh.Weights)
	assert.InDelta(t, 0.002, fitted.Mesh.Positions[0].Y(), 1e-6)

	total := 0.0
	for _, inf := range fitted.Mesh.Weights.Influences[0] {
		total += inf.Weight
	}
	assert.InDelta(t, 1.0, total, rig.WeightTolerance)
}

func TestRunRetargetsBodyAnimation(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")

	bodyPath := writeBody(t, dir)
	body, err := bundle.Load(bodyPath)
	require.NoError(t, err)
	frame := retarget.BindPose(body.Skeleton)
	frame.Transforms[0].Translation = mgl64.Vec3{0, 0.1, 0}
	body.Animation = []retarget.PoseFrame{frame}
	require.NoError(t, bundle.Save(bodyPath, body))

	armorPath := writeArmor(t, dir)

	cfg := Config{Engine: testEngine(outDir), OutputDir: outDir}
	results := Run(context.Background(), cfg, []string{armorPath})
	require.Len(t, results, 1)
	require.True(t, results[0].Success, results[0].Error)

	// the body's frame rode onto the armor skeleton through the solver
	fitted, err := bundle.Load(filepath.Join(outDir, "armor.json"))
	require.NoError(t, err)
	require.Len(t, fitted.Animation, 1)
	tr := fitted.Animation[0].Transforms
	require.Len(t, tr, fitted.Skeleton.Len())
	assert.InDelta(t, 0.1, tr[0].Translation.Y(), 1e-9)
}

// writeScaledPair authors the armor at four times the body's scale, with
// the body's x=0.02 column bound to a different bone than the rest.
func writeScaledPair(t *testing.T, dir string) string {
	t.Helper()
	mesh := &rig.Mesh{}
	for _, x := range []float64{0, 0.01, 0.02} {
		for _, z := range []float64{0, 0.01, 0.02} {
			mesh.Positions = append(mesh.Positions, mgl64.Vec3{x, 0, z})
		}
	}
	mesh.Weights = rig.NewVertexWeights(len(mesh.Positions))
	for vi, p := range mesh.Positions {
		bone := 0
		if p.X() > 0.015 {
			bone = 1
		}
		mesh.Weights.Influences[vi] = []rig.Influence{{Bone: bone, Weight: 1}}
	}
	skel := rig.NewSkeleton("body", []rig.Bone{
		{Name: "pelvis", Parent: rig.RootIndex, Bind: rig.IdentityTransform()},
		{Name: "hand_l", Parent: 0, Bind: rig.IdentityTransform()},
	})
	skel.Bones[1].Bind.Translation = mgl64.Vec3{0.02, 0, 0}
	skel.WorldMatrices()
	bodyPath := filepath.Join(dir, "scaled_body.json")
	require.NoError(t, bundle.Save(bodyPath, &bundle.Bundle{Name: "scaled_body", Mesh: mesh, Skeleton: skel}))

	armorMesh := &rig.Mesh{Positions: []mgl64.Vec3{{-0.06, 0, 0.01}, {0.02, 0, 0.01}}}
	armorSkel := rig.NewSkeleton("armor", []rig.Bone{
		{Name: "pelvis", Parent: rig.RootIndex, Bind: rig.IdentityTransform()},
		{Name: "hand_l", Parent: 0, Bind: rig.IdentityTransform()},
	})
	armorSkel.Bones[1].Bind.Translation = mgl64.Vec3{0.02, 0, 0}
	armorSkel.WorldMatrices()
	armorPath := filepath.Join(dir, "scaled_armor.json")
	require.NoError(t, bundle.Save(armorPath, &bundle.Bundle{
		Name: "scaled_armor", Mesh: armorMesh, Skeleton: armorSkel, BodyRef: "scaled_body.json",
	}))
	return armorPath
}

func TestScaleCorrectionPrecedesWeightTransfer(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	armorPath := writeScaledPair(t, dir)

	cfg := Config{Engine: testEngine(outDir), OutputDir: outDir}
	results := Run(context.Background(), cfg, []string{armorPath})
	require.Len(t, results, 1)
	require.True(t, results[0].Success, results[0].Error)

	found := false
	for _, w := range results[0].Report.Warnings {
		if w.Code == diag.CodeScaleCorrected {
			found = true
		}
	}
	assert.True(t, found, "rescale not reported")

	// vertex 1 coincides with the body's hand column only at the wrong
	// scale; sampled after the rescale it sits on the pelvis side
	fitted, err := bundle.Load(filepath.Join(outDir, "scaled_armor.json"))
	require.NoError(t, err)
	require.NotNil(t, fitted.Mesh.Weights)
	assert.Equal(t, 0, fitted.Mesh.Weights.DominantBone(1))
}

func TestRunReportsLoadFailure(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0644))

	cfg := Config{Engine: testEngine(filepath.Join(dir, "out")), OutputDir: filepath.Join(dir, "out")}
	results := Run(context.Background(), cfg, []string{bad})
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.NotEmpty(t, results[0].Error)
}

func TestWriteManifest(t *testing.T) {
	dir := t.TempDir()
	results := []Result{
		{Name: "body", Success: true},
		{Name: "armor", Success: false, Error: "boom"},
	}
	results[0].Report.Warnf("scale_corrected", "rescaled")

	path := filepath.Join(dir, "manifest.json")
	require.NoError(t, WriteManifest(path, results))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var entries []ManifestEntry
	require.NoError(t, json.Unmarshal(data, &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "body.json", entries[0].Output)
	assert.Contains(t, entries[0].Warnings[0], "scale_corrected")
	assert.Equal(t, "boom", entries[1].Error)
	assert.Empty(t, entries[1].Output)
}

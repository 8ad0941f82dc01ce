package rig

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeMergesAndCaps(t *testing.T) {
	w := NewVertexWeights(1)
	w.Influences[0] = []Influence{
		{Bone: 0, Weight: 0.3},
		{Bone: 1, Weight: 0.2},
		{Bone: 0, Weight: 0.1}, // duplicate of bone 0
		{Bone: 2, Weight: 0.15},
		{Bone: 3, Weight: 0.05},
		{Bone: 4, Weight: 0.02},
	}
	w.Normalize(0)

	infs := w.Influences[0]
	require.Len(t, infs, 4)

	// strongest first, duplicates merged
	assert.Equal(t, 0, infs[0].Bone)
	total := 0.0
	for _, inf := range infs {
		total += inf.Weight
	}
	assert.InDelta(t, 1.0, total, WeightTolerance)

	// weakest influence folded away
	for _, inf := range infs {
		assert.NotEqual(t, 4, inf.Bone)
	}
}

func TestNormalizeFallback(t *testing.T) {
	w := NewVertexWeights(2)
	w.Influences[1] = []Influence{{Bone: 3, Weight: -0.5}}
	w.Normalize(7)

	assert.Equal(t, []Influence{{Bone: 7, Weight: 1}}, w.Influences[0])
	assert.Equal(t, []Influence{{Bone: 7, Weight: 1}}, w.Influences[1])
}

func TestWeightsValidate(t *testing.T) {
	s := NewSkeleton("", []Bone{testBone("root", RootIndex, mgl64.Vec3{})})
	w := NewVertexWeights(1)
	w.Influences[0] = []Influence{{Bone: 5, Weight: 1}}
	assert.ErrorIs(t, w.Validate(s), ErrBoneIndexOutOfRange)

	w.Influences[0] = []Influence{{Bone: 0, Weight: 1}}
	assert.NoError(t, w.Validate(s))
}

func TestDominantBone(t *testing.T) {
	w := NewVertexWeights(2)
	w.Influences[0] = []Influence{{Bone: 2, Weight: 0.3}, {Bone: 5, Weight: 0.7}}
	assert.Equal(t, 5, w.DominantBone(0))
	assert.Equal(t, RootIndex, w.DominantBone(1))
}

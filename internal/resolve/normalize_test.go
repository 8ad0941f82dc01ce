package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"LeftForeArm", []string{"left", "fore", "arm"}},
		{"mixamorig:LeftForeArm", []string{"left", "fore", "arm"}},
		{"forearm.L", []string{"left", "forearm"}},
		{"forearm_l", []string{"left", "forearm"}},
		{"Bip01 L Thigh", []string{"left", "thigh"}},
		{"b_neck", []string{"neck"}},
		{"spine_01", []string{"spine", "01"}},
		{"ValveBiped.Bip01_R_Hand", []string{"right", "hand"}},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, normalizeName(c.in), "input %q", c.in)
	}
}

func TestSquashCollides(t *testing.T) {
	variants := []string{"LeftForeArm", "left_forearm", "forearm.L", "ForeArm_l"}
	want := squash(normalizeName(variants[0]))
	for _, v := range variants[1:] {
		assert.Equal(t, want, squash(normalizeName(v)), "variant %q", v)
	}
}

func TestConceptOf(t *testing.T) {
	assert.Equal(t, ConceptUpperLegL, ConceptOf("LeftUpLeg"))
	assert.Equal(t, ConceptUpperLegL, ConceptOf("thigh_l"))
	assert.Equal(t, ConceptLowerLegR, ConceptOf("Right Knee"))
	assert.Equal(t, ConceptHips, ConceptOf("pelvis"))
	assert.Equal(t, ConceptHandL, ConceptOf("left wrist"))
	assert.Equal(t, "index1_l", ConceptOf("mixamorig:LeftHandIndex1"))
	assert.Equal(t, "", ConceptOf("unknown_widget"))
}

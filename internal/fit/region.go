package fit

import (
	"sort"

	"forge-rig/internal/resolve"
	"forge-rig/internal/rig"
)

// Region is a named anatomical zone of the body mesh: the bones that
// primarily drive it and the body vertices it owns. Regions scope
// collision search so armor on a thigh never snaps to the other leg.
type Region struct {
	Name     string
	Bones    []string
	Vertices []int
}

// conceptRegions assigns canonical bone concepts to region names.
// Immutable after load; shared read-only by concurrent pipelines.
var conceptRegions = map[string]string{
	resolve.ConceptHips:       "pelvis",
	resolve.ConceptSpine:      "torso",
	resolve.ConceptChest:      "torso",
	resolve.ConceptUpperChest: "torso",
	resolve.ConceptNeck:       "head",
	resolve.ConceptHead:       "head",
	resolve.ConceptShoulderL:  "upper_arm_l",
	resolve.ConceptUpperArmL:  "upper_arm_l",
	resolve.ConceptForeArmL:   "forearm_l",
	resolve.ConceptHandL:      "hand_l",
	resolve.ConceptShoulderR:  "upper_arm_r",
	resolve.ConceptUpperArmR:  "upper_arm_r",
	resolve.ConceptForeArmR:   "forearm_r",
	resolve.ConceptHandR:      "hand_r",
	resolve.ConceptUpperLegL:  "thigh_l",
	resolve.ConceptLowerLegL:  "calf_l",
	resolve.ConceptFootL:      "foot_l",
	resolve.ConceptToeL:       "foot_l",
	resolve.ConceptUpperLegR:  "thigh_r",
	resolve.ConceptLowerLegR:  "calf_r",
	resolve.ConceptFootR:      "foot_r",
	resolve.ConceptToeR:       "foot_r",
}

const fallbackRegion = "torso"

// BuildRegions classifies each body vertex into a region by its
// dominant skin weight. Bone names are resolved to regions through the
// canonical concept table, so any supported naming convention works.
// Vertices driven by unrecognized bones land in the torso region.
func BuildRegions(body *rig.Mesh, skel *rig.Skeleton) []Region {
	boneRegion := make([]string, skel.Len())
	for i := range skel.Bones {
		boneRegion[i] = regionForBone(skel, i)
	}

	byName := map[string]*Region{}
	for vi := 0; vi < len(body.Positions); vi++ {
		name := fallbackRegion
		if body.Weights != nil && vi < body.Weights.Len() {
			if dom := body.Weights.DominantBone(vi); dom != rig.RootIndex {
				name = boneRegion[dom]
			}
		}
		r := byName[name]
		if r == nil {
			r = &Region{Name: name}
			byName[name] = r
		}
		r.Vertices = append(r.Vertices, vi)
	}

	for i := range skel.Bones {
		if r := byName[boneRegion[i]]; r != nil {
			r.Bones = append(r.Bones, skel.Bones[i].Name)
		}
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Region, 0, len(names))
	for _, name := range names {
		out = append(out, *byName[name])
	}
	return out
}

// regionForBone maps a bone to its region, inheriting the nearest
// classified ancestor's region for helper/twist bones.
func regionForBone(skel *rig.Skeleton, i int) string {
	for b := i; b != rig.RootIndex; b = skel.Bones[b].Parent {
		if concept := resolve.ConceptOf(skel.Bones[b].Name); concept != "" {
			if region, ok := conceptRegions[concept]; ok {
				return region
			}
		}
	}
	return fallbackRegion
}

package handrig

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"forge-rig/internal/rig"
)

// bonesPerFinger is the chain length synthesized for a confident finger.
const bonesPerFinger = 3

// synthesis is the outcome of bone synthesis on the cloned skeleton.
type synthesis struct {
	// chains maps finger index → appended bone indexes (chain order).
	chains map[int][]int
	// flat is the single palm bone index when the degraded path ran.
	flat int
	// all lists every appended bone.
	all []int
}

// synthesizeFingers appends a three-bone chain under the wrist for each
// confident finger, bind transforms derived from consecutive 3D
// landmarks. Chain bones carry identity local rotations, so every
// local translation lives in the wrist frame.
func synthesizeFingers(skel *rig.Skeleton, wrist int, points []Landmark3D, confident []int, side string) (synthesis, error) {
	s := synthesis{chains: map[int][]int{}, flat: -1}
	wristInv := skel.Bones[wrist].WorldBind().Inv()

	for _, f := range confident {
		lms := fingerLandmarks(f)
		prev := skel.Bones[wrist].WorldPosition()
		bones := make([]rig.Bone, 0, bonesPerFinger)
		for j := 0; j < bonesPerFinger; j++ {
			world := points[lms[j]].Pos
			local := wristInv.Mul4x1(world.Vec4(1)).Vec3().
				Sub(wristInv.Mul4x1(prev.Vec4(1)).Vec3())
			bones = append(bones, rig.Bone{
				Name: fmt.Sprintf("%s_%s_%d", side, fingerNames[f], j+1),
				Bind: rig.Transform{
					Translation: local,
					Rotation:    mgl64.QuatIdent(),
					Scale:       mgl64.Vec3{1, 1, 1},
				},
			})
			prev = world
		}
		idx, err := skel.AppendLeafChain(wrist, bones)
		if err != nil {
			return synthesis{}, err
		}
		s.chains[f] = idx
		s.all = append(s.all, idx...)
	}
	return s, nil
}

// synthesizeFlatHand appends one palm segment under the wrist: the
// graceful-degradation path used when too few fingers detected with
// full confidence. Not an error.
func synthesizeFlatHand(skel *rig.Skeleton, wrist int, mesh *rig.Mesh, hand []int, side string) (synthesis, error) {
	centroid := mgl64.Vec3{}
	for _, vi := range hand {
		centroid = centroid.Add(mesh.Positions[vi])
	}
	if len(hand) > 0 {
		centroid = centroid.Mul(1 / float64(len(hand)))
	}

	local := skel.Bones[wrist].WorldBind().Inv().Mul4x1(centroid.Vec4(1)).Vec3()
	idx, err := skel.AppendLeafChain(wrist, []rig.Bone{{
		Name: side + "_palm",
		Bind: rig.Transform{
			Translation: local,
			Rotation:    mgl64.QuatIdent(),
			Scale:       mgl64.Vec3{1, 1, 1},
		},
	}})
	if err != nil {
		return synthesis{}, err
	}
	return synthesis{chains: map[int][]int{}, flat: idx[0], all: idx}, nil
}

package handrig

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"forge-rig/internal/rig"
)

// paintWeights assigns skin weights to hand vertices for the freshly
// synthesized bones. Each vertex is segmented to its nearest finger
// chain and binds to that chain's two nearest segments with
// inverse-square falloff, so weights roll off smoothly at the joints.
// Palm vertices far from every finger keep their original binding.
func paintWeights(mesh *rig.Mesh, skel *rig.Skeleton, hand []int, syn synthesis, points []Landmark3D, wrist int) *rig.VertexWeights {
	out := rig.NewVertexWeights(len(mesh.Positions))
	if mesh.Weights != nil && mesh.Weights.Len() == len(mesh.Positions) {
		for vi := range mesh.Weights.Influences {
			out.Influences[vi] = append([]rig.Influence(nil), mesh.Weights.Influences[vi]...)
		}
	} else {
		for vi := range out.Influences {
			out.Influences[vi] = []rig.Influence{{Bone: wrist, Weight: 1}}
		}
	}

	if syn.flat >= 0 {
		paintFlatHand(mesh, skel, hand, syn.flat, wrist, out)
		out.Normalize(wrist)
		return out
	}

	chains := buildChainGeometry(skel, syn, points)
	if len(chains) == 0 {
		out.Normalize(wrist)
		return out
	}

	// reach: beyond this distance a vertex is palm, not finger
	reach := meanSegmentLength(chains) * 0.75

	for _, vi := range hand {
		pos := mesh.Positions[vi]
		ci, seg := nearestChain(chains, pos)
		if ci < 0 || seg[0].dist > reach {
			continue
		}
		infs := []rig.Influence{{Bone: seg[0].bone, Weight: 1 / (seg[0].dist*seg[0].dist + 1e-6)}}
		if seg[1].bone >= 0 {
			infs = append(infs, rig.Influence{Bone: seg[1].bone, Weight: 1 / (seg[1].dist*seg[1].dist + 1e-6)})
		}
		out.Influences[vi] = infs
	}

	out.Normalize(wrist)
	return out
}

// chainGeometry is one finger chain as world-space joints plus the
// bone driving each segment.
type chainGeometry struct {
	joints []mgl64.Vec3
	bones  []int
}

func buildChainGeometry(skel *rig.Skeleton, syn synthesis, points []Landmark3D) []chainGeometry {
	var out []chainGeometry
	for f := 0; f < len(fingerNames); f++ {
		idx, ok := syn.chains[f]
		if !ok {
			continue
		}
		g := chainGeometry{bones: idx}
		for _, bi := range idx {
			g.joints = append(g.joints, skel.Bones[bi].WorldPosition())
		}
		// the tip landmark closes the last segment
		tip := fingerLandmarks(f)[3]
		if tip < len(points) && points[tip].OnSurface {
			g.joints = append(g.joints, points[tip].Pos)
		}
		if len(g.joints) >= 2 {
			out = append(out, g)
		}
	}
	return out
}

func meanSegmentLength(chains []chainGeometry) float64 {
	total, n := 0.0, 0
	for _, c := range chains {
		for i := 1; i < len(c.joints); i++ {
			total += c.joints[i].Sub(c.joints[i-1]).Len()
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return total / float64(n)
}

// segHit is a segment candidate: the bone driving it and the vertex's
// distance to it.
type segHit struct {
	bone int
	dist float64
}

// nearestChain segments the vertex to its closest finger and returns
// the two nearest segments of that finger, closest first.
func nearestChain(chains []chainGeometry, pos mgl64.Vec3) (int, [2]segHit) {
	bestChain := -1
	best := [2]segHit{{bone: -1, dist: math.Inf(1)}, {bone: -1, dist: math.Inf(1)}}
	for ci, c := range chains {
		hits := [2]segHit{{bone: -1, dist: math.Inf(1)}, {bone: -1, dist: math.Inf(1)}}
		for i := 1; i < len(c.joints); i++ {
			bone := c.bones[min(i-1, len(c.bones)-1)]
			d := pointSegmentDistance(pos, c.joints[i-1], c.joints[i])
			switch {
			case d < hits[0].dist:
				hits[1] = hits[0]
				hits[0] = segHit{bone: bone, dist: d}
			case d < hits[1].dist:
				hits[1] = segHit{bone: bone, dist: d}
			}
		}
		if hits[0].dist < best[0].dist {
			best = hits
			bestChain = ci
		}
	}
	return bestChain, best
}

func pointSegmentDistance(p, a, b mgl64.Vec3) float64 {
	ab := b.Sub(a)
	l2 := ab.Dot(ab)
	if l2 < 1e-12 {
		return p.Sub(a).Len()
	}
	t := p.Sub(a).Dot(ab) / l2
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return p.Sub(a.Add(ab.Mul(t))).Len()
}

// paintFlatHand blends hand vertices between the wrist and the single
// palm bone by their position along the wrist→palm axis.
func paintFlatHand(mesh *rig.Mesh, skel *rig.Skeleton, hand []int, palm, wrist int, out *rig.VertexWeights) {
	wristPos := skel.Bones[wrist].WorldPosition()
	axis := skel.Bones[palm].WorldPosition().Sub(wristPos)
	span := axis.Len()
	if span < 1e-9 {
		for _, vi := range hand {
			out.Influences[vi] = []rig.Influence{{Bone: palm, Weight: 1}}
		}
		return
	}
	dir := axis.Mul(1 / span)

	for _, vi := range hand {
		t := mesh.Positions[vi].Sub(wristPos).Dot(dir) / span
		if t < 0 {
			t = 0
		} else if t > 1 {
			t = 1
		}
		out.Influences[vi] = []rig.Influence{
			{Bone: palm, Weight: t},
			{Bone: wrist, Weight: 1 - t},
		}
	}
}

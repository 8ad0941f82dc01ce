package fit

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/kdtree"

	"forge-rig/internal/rig"
)

// TransferConfig tunes nearest-vertex weight transfer.
type TransferConfig struct {
	// K is how many nearest body vertices blend into one armor vertex.
	K int
	// ExactHit short-circuits the blend when the nearest body vertex is
	// closer than this.
	ExactHit float64
}

const (
	defaultK        = 4
	defaultExactHit = 1e-9
	invDistEpsilon  = 1e-6
)

func (c TransferConfig) withDefaults() TransferConfig {
	if c.K <= 0 {
		c.K = defaultK
	}
	if c.ExactHit <= 0 {
		c.ExactHit = defaultExactHit
	}
	return c
}

// TransferWeights assigns skin weights to an unrigged destination mesh
// by inverse-distance blending the weights of the k nearest body
// vertices, searched only within the destination vertex's body region
// so weights never bleed across limbs. Output weights sum to 1 per
// vertex and reference only bones of the body skeleton.
func TransferWeights(dst, body *rig.Mesh, skel *rig.Skeleton, regions []Region, cfg TransferConfig) (*rig.VertexWeights, error) {
	if body.Weights == nil {
		return nil, fmt.Errorf("fit: body mesh has no skin weights to transfer")
	}
	if err := body.Weights.Validate(skel); err != nil {
		return nil, fmt.Errorf("fit: body weights: %w", err)
	}
	cfg = cfg.withDefaults()

	whole := newSurfaceTree(body.Positions, nil)
	regionTrees, regionOf := buildRegionTrees(body, regions)

	out := rig.NewVertexWeights(len(dst.Positions))
	for vi, pos := range dst.Positions {
		// scope the search to the region owning the nearest body vertex
		tree := whole
		if nearest, _ := nearestK(whole, pos, 1); len(nearest) > 0 {
			if name, ok := regionOf[nearest[0].index]; ok {
				if rt := regionTrees[name]; rt != nil {
					tree = rt
				}
			}
		}

		pts, dists := nearestK(tree, pos, cfg.K)
		infs := make([]rig.Influence, 0, cfg.K*2)
		for i, p := range pts {
			if dists[i] <= cfg.ExactHit {
				infs = append(infs[:0], body.Weights.Influences[p.index]...)
				break
			}
			share := 1.0 / (dists[i] + invDistEpsilon)
			for _, inf := range body.Weights.Influences[p.index] {
				infs = append(infs, rig.Influence{Bone: inf.Bone, Weight: inf.Weight * share})
			}
		}
		out.Influences[vi] = infs
	}

	out.Normalize(0)
	if err := out.Validate(skel); err != nil {
		return nil, fmt.Errorf("fit: transferred weights: %w", err)
	}
	return out, nil
}

// buildRegionTrees returns one kd-tree per region plus the vertex→region
// lookup used to pick the search scope.
func buildRegionTrees(body *rig.Mesh, regions []Region) (map[string]*kdtree.Tree, map[int]string) {
	trees := make(map[string]*kdtree.Tree, len(regions))
	regionOf := make(map[int]string, len(body.Positions))
	for _, r := range regions {
		if len(r.Vertices) == 0 {
			continue
		}
		trees[r.Name] = newSurfaceTree(body.Positions, r.Vertices)
		for _, vi := range r.Vertices {
			regionOf[vi] = r.Name
		}
	}
	return trees, regionOf
}

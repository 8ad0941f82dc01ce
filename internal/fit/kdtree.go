package fit

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/spatial/kdtree"
)

// surfacePoint is a body-mesh vertex position plus its vertex index,
// stored in a kd-tree for nearest-neighbour queries.
type surfacePoint struct {
	pos   mgl64.Vec3
	index int
}

func (p surfacePoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(surfacePoint)
	return p.pos[int(d)] - q.pos[int(d)]
}

func (p surfacePoint) Dims() int { return 3 }

// Distance returns the squared Euclidean distance, per kdtree contract.
func (p surfacePoint) Distance(c kdtree.Comparable) float64 {
	q := c.(surfacePoint)
	d := p.pos.Sub(q.pos)
	return d.Dot(d)
}

type surfacePoints []surfacePoint

func (p surfacePoints) Index(i int) kdtree.Comparable      { return p[i] }
func (p surfacePoints) Len() int                           { return len(p) }
func (p surfacePoints) Pivot(d kdtree.Dim) int             { return plane{points: p, Dim: d}.Pivot() }
func (p surfacePoints) Slice(start, end int) kdtree.Interface { return p[start:end] }

type plane struct {
	points surfacePoints
	kdtree.Dim
}

func (p plane) Len() int { return p.points.Len() }
func (p plane) Less(i, j int) bool {
	return p.points[i].pos[int(p.Dim)] < p.points[j].pos[int(p.Dim)]
}
func (p plane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p plane) Slice(start, end int) kdtree.SortSlicer {
	p.points = p.points[start:end]
	return p
}
func (p plane) Swap(i, j int) {
	p.points[i], p.points[j] = p.points[j], p.points[i]
}

// newSurfaceTree builds a kd-tree over the given vertex subset of a
// position list. A nil subset indexes every vertex.
func newSurfaceTree(positions []mgl64.Vec3, subset []int) *kdtree.Tree {
	var pts surfacePoints
	if subset == nil {
		pts = make(surfacePoints, len(positions))
		for i, pos := range positions {
			pts[i] = surfacePoint{pos: pos, index: i}
		}
	} else {
		pts = make(surfacePoints, 0, len(subset))
		for _, vi := range subset {
			pts = append(pts, surfacePoint{pos: positions[vi], index: vi})
		}
	}
	return kdtree.New(pts, false)
}

// nearestK returns up to k nearest surface points to q with their
// (non-squared) distances, closest first.
func nearestK(tree *kdtree.Tree, q mgl64.Vec3, k int) ([]surfacePoint, []float64) {
	if k <= 1 {
		c, dist := tree.Nearest(surfacePoint{pos: q})
		if c == nil {
			return nil, nil
		}
		return []surfacePoint{c.(surfacePoint)}, []float64{sqrtNonNeg(dist)}
	}

	keep := kdtree.NewNKeeper(k)
	tree.NearestSet(keep, surfacePoint{pos: q})

	type hit struct {
		p surfacePoint
		d float64
	}
	var hits []hit
	for _, cd := range keep.Heap {
		if cd.Comparable == nil {
			continue
		}
		hits = append(hits, hit{p: cd.Comparable.(surfacePoint), d: sqrtNonNeg(cd.Dist)})
	}
	// heap order is not distance order
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].d < hits[j-1].d; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}

	pts := make([]surfacePoint, len(hits))
	dists := make([]float64, len(hits))
	for i, h := range hits {
		pts[i] = h.p
		dists[i] = h.d
	}
	return pts, dists
}

func sqrtNonNeg(v float64) float64 {
	if v <= 0 {
		return 0
	}
	return math.Sqrt(v)
}

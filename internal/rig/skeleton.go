package rig

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Input validation failures. These are fatal: no partial processing
// is attempted on a skeleton that fails Validate.
var (
	ErrCyclicHierarchy   = errors.New("rig: cyclic bone hierarchy")
	ErrParentOutOfRange  = errors.New("rig: bone parent index out of range")
	ErrParentAfterChild  = errors.New("rig: parent bone appears after child")
	ErrDuplicateBoneName = errors.New("rig: duplicate bone name")
)

// Skeleton is an ordered arena of bones. Insertion order is hierarchy
// traversal order: a bone's parent always has a smaller index.
// Immutable after construction except for AppendLeafChain.
type Skeleton struct {
	Bones      []Bone
	Convention string

	nameIndex map[string]int
}

// NewSkeleton builds a skeleton from bones in traversal order.
func NewSkeleton(convention string, bones []Bone) *Skeleton {
	s := &Skeleton{Bones: bones, Convention: convention}
	for i := range s.Bones {
		s.Bones[i].Index = i
		s.Bones[i].Convention = convention
	}
	s.rebuildNameIndex()
	return s
}

func (s *Skeleton) rebuildNameIndex() {
	s.nameIndex = make(map[string]int, len(s.Bones))
	for i := range s.Bones {
		s.nameIndex[s.Bones[i].Name] = i
	}
}

// Len returns the bone count.
func (s *Skeleton) Len() int { return len(s.Bones) }

// BoneByName returns the bone with the given name.
func (s *Skeleton) BoneByName(name string) (*Bone, bool) {
	if s.nameIndex == nil {
		s.rebuildNameIndex()
	}
	i, ok := s.nameIndex[name]
	if !ok {
		return nil, false
	}
	return &s.Bones[i], true
}

// Children returns the indexes of the direct children of bone i.
func (s *Skeleton) Children(i int) []int {
	var out []int
	for j := range s.Bones {
		if s.Bones[j].Parent == i {
			out = append(out, j)
		}
	}
	return out
}

// Subtree returns i plus every descendant of bone i, in traversal order.
func (s *Skeleton) Subtree(i int) []int {
	inSet := make([]bool, len(s.Bones))
	if i >= 0 && i < len(s.Bones) {
		inSet[i] = true
	}
	out := []int{i}
	for j := i + 1; j < len(s.Bones); j++ {
		p := s.Bones[j].Parent
		if p >= 0 && p < len(inSet) && inSet[p] {
			inSet[j] = true
			out = append(out, j)
		}
	}
	return out
}

// Depth returns the hop count from bone i to its root.
func (s *Skeleton) Depth(i int) int {
	depth := 0
	for p := s.Bones[i].Parent; p != RootIndex; p = s.Bones[p].Parent {
		depth++
		if depth > len(s.Bones) {
			// cycle guard; Validate reports this properly
			return depth
		}
	}
	return depth
}

// Validate checks the structural invariants: the bone graph is a forest,
// parents precede children, parent indexes are in range, names are unique.
func (s *Skeleton) Validate() error {
	seen := make(map[string]struct{}, len(s.Bones))
	for i := range s.Bones {
		b := &s.Bones[i]
		if _, dup := seen[b.Name]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateBoneName, b.Name)
		}
		seen[b.Name] = struct{}{}

		if b.Parent == RootIndex {
			continue
		}
		if b.Parent < 0 || b.Parent >= len(s.Bones) {
			return fmt.Errorf("%w: bone %q parent %d", ErrParentOutOfRange, b.Name, b.Parent)
		}
		if b.Parent == i {
			return fmt.Errorf("%w: bone %q is its own parent", ErrCyclicHierarchy, b.Name)
		}
		if b.Parent > i {
			return fmt.Errorf("%w: bone %q (index %d) parent %d", ErrParentAfterChild, b.Name, i, b.Parent)
		}
	}

	// Walk each bone to a root; traversal-order parents make true cycles
	// impossible, but a hand-built skeleton may still smuggle one in.
	for i := range s.Bones {
		hops := 0
		for p := s.Bones[i].Parent; p != RootIndex; p = s.Bones[p].Parent {
			hops++
			if hops > len(s.Bones) {
				return fmt.Errorf("%w: starting at bone %q", ErrCyclicHierarchy, s.Bones[i].Name)
			}
		}
	}
	return nil
}

// WorldMatrices computes and caches the world bind matrix of every bone
// by chaining local binds down the hierarchy. Returns the matrices
// indexed by bone index.
func (s *Skeleton) WorldMatrices() []mgl64.Mat4 {
	worlds := make([]mgl64.Mat4, len(s.Bones))
	for i := range s.Bones {
		local := s.Bones[i].Bind.Mat4()
		if p := s.Bones[i].Parent; p >= 0 && p < i {
			worlds[i] = worlds[p].Mul4(local)
		} else {
			worlds[i] = local
		}
		s.Bones[i].world = worlds[i]
		s.Bones[i].worldValid = true
	}
	return worlds
}

// AppendLeafChain appends a chain of new bones under parent, each bone
// parented to the previous one. This is the only mutation a built
// skeleton supports; it is how the hand pipeline adds finger bones.
// Returns the indexes of the appended bones.
func (s *Skeleton) AppendLeafChain(parent int, bones []Bone) ([]int, error) {
	if parent < 0 || parent >= len(s.Bones) {
		return nil, fmt.Errorf("%w: chain parent %d", ErrParentOutOfRange, parent)
	}
	indexes := make([]int, 0, len(bones))
	prev := parent
	for _, b := range bones {
		if _, exists := s.BoneByName(b.Name); exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateBoneName, b.Name)
		}
		b.Index = len(s.Bones)
		b.Parent = prev
		b.Convention = s.Convention
		s.Bones = append(s.Bones, b)
		s.nameIndex[b.Name] = b.Index
		indexes = append(indexes, b.Index)
		prev = b.Index
	}
	s.WorldMatrices()
	return indexes, nil
}

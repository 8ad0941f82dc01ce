package bundle

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl64"

	"forge-rig/internal/retarget"
	"forge-rig/internal/rig"
)

// Bundle is one asset on disk: a mesh, its skeleton, and optionally a
// reference to the body asset it should be fitted against.
type Bundle struct {
	Name     string
	Mesh     *rig.Mesh
	Skeleton *rig.Skeleton

	// BodyRef is a path to the body bundle this asset fits onto.
	// Empty for body assets themselves.
	BodyRef string

	// Texture names the asset's albedo texture by stem; resolved
	// against a texture index at processing time.
	Texture string

	// Animation holds pose frames authored on this bundle's skeleton.
	// Body bundles carry source animation; assets fitted against a body
	// receive the frames retargeted onto their own bones.
	Animation []retarget.PoseFrame
}

// On-disk schema. Vectors are flat arrays, quaternions are [w x y z].
type bundleJSON struct {
	Name      string       `json:"name"`
	BodyRef   string       `json:"body_ref,omitempty"`
	Texture   string       `json:"texture,omitempty"`
	Skeleton  skeletonJSON `json:"skeleton"`
	Mesh      meshJSON     `json:"mesh"`
	Animation []frameJSON  `json:"animation,omitempty"`
}

type skeletonJSON struct {
	Convention string     `json:"convention,omitempty"`
	Bones      []boneJSON `json:"bones"`
}

type boneJSON struct {
	Name        string     `json:"name"`
	Parent      int        `json:"parent"`
	Translation [3]float64 `json:"translation"`
	Rotation    [4]float64 `json:"rotation"`
	Scale       [3]float64 `json:"scale"`
}

type meshJSON struct {
	Positions [][3]float64  `json:"positions"`
	Normals   [][3]float64  `json:"normals,omitempty"`
	UVs       [][2]float64  `json:"uvs,omitempty"`
	Tris      [][3]int      `json:"tris"`
	Weights   [][]influJSON `json:"weights,omitempty"`
}

type influJSON struct {
	Bone   int     `json:"bone"`
	Weight float64 `json:"weight"`
}

// frameJSON is one animation frame: a transform per bone, in bone order.
type frameJSON struct {
	Transforms []transformJSON `json:"transforms"`
}

type transformJSON struct {
	Translation [3]float64 `json:"translation"`
	Rotation    [4]float64 `json:"rotation"`
	Scale       [3]float64 `json:"scale"`
}

// transformFrom decodes a TRS triple, defaulting omitted rotation and
// scale to identity.
func transformFrom(tr [3]float64, rot [4]float64, sc [3]float64) rig.Transform {
	t := rig.Transform{
		Translation: mgl64.Vec3(tr),
		Rotation:    mgl64.Quat{W: rot[0], V: mgl64.Vec3{rot[1], rot[2], rot[3]}},
		Scale:       mgl64.Vec3(sc),
	}
	if t.Scale == (mgl64.Vec3{}) {
		t.Scale = mgl64.Vec3{1, 1, 1}
	}
	if t.Rotation == (mgl64.Quat{}) {
		t.Rotation = mgl64.QuatIdent()
	}
	return t
}

func transformTo(t rig.Transform) transformJSON {
	return transformJSON{
		Translation: t.Translation,
		Rotation:    [4]float64{t.Rotation.W, t.Rotation.V[0], t.Rotation.V[1], t.Rotation.V[2]},
		Scale:       t.Scale,
	}
}

// Load reads a bundle file and validates it. The skeleton's world
// matrices are computed before return.
func Load(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("bundle: read %s: %w", path, err)
	}

	var raw bundleJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("bundle: parse %s: %w", path, err)
	}

	b, err := fromJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("bundle: %s: %w", path, err)
	}
	return b, nil
}

// Save writes a bundle as indented JSON.
func Save(path string, b *Bundle) error {
	raw := toJSON(b)
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("bundle: marshal %s: %w", b.Name, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("bundle: write %s: %w", path, err)
	}
	return nil
}

func fromJSON(raw bundleJSON) (*Bundle, error) {
	bones := make([]rig.Bone, len(raw.Skeleton.Bones))
	for i, bj := range raw.Skeleton.Bones {
		bones[i] = rig.Bone{
			Name:   bj.Name,
			Parent: bj.Parent,
			Bind:   transformFrom(bj.Translation, bj.Rotation, bj.Scale),
		}
	}
	skel := rig.NewSkeleton(raw.Skeleton.Convention, bones)
	if err := skel.Validate(); err != nil {
		return nil, fmt.Errorf("skeleton: %w", err)
	}
	skel.WorldMatrices()

	mesh := &rig.Mesh{
		Positions: make([]mgl64.Vec3, len(raw.Mesh.Positions)),
		Tris:      make([][3]int, len(raw.Mesh.Tris)),
	}
	for i, p := range raw.Mesh.Positions {
		mesh.Positions[i] = mgl64.Vec3(p)
	}
	copy(mesh.Tris, raw.Mesh.Tris)
	if len(raw.Mesh.Normals) > 0 {
		if len(raw.Mesh.Normals) != len(raw.Mesh.Positions) {
			return nil, fmt.Errorf("mesh: %d normals for %d vertices", len(raw.Mesh.Normals), len(raw.Mesh.Positions))
		}
		mesh.Normals = make([]mgl64.Vec3, len(raw.Mesh.Normals))
		for i, n := range raw.Mesh.Normals {
			mesh.Normals[i] = mgl64.Vec3(n)
		}
	}
	if len(raw.Mesh.UVs) > 0 {
		if len(raw.Mesh.UVs) != len(raw.Mesh.Positions) {
			return nil, fmt.Errorf("mesh: %d uvs for %d vertices", len(raw.Mesh.UVs), len(raw.Mesh.Positions))
		}
		mesh.UVs = make([]mgl64.Vec2, len(raw.Mesh.UVs))
		for i, uv := range raw.Mesh.UVs {
			mesh.UVs[i] = mgl64.Vec2(uv)
		}
	}
	if len(raw.Mesh.Weights) > 0 {
		if len(raw.Mesh.Weights) != len(raw.Mesh.Positions) {
			return nil, fmt.Errorf("mesh: %d weight entries for %d vertices", len(raw.Mesh.Weights), len(raw.Mesh.Positions))
		}
		w := rig.NewVertexWeights(len(raw.Mesh.Positions))
		for vi, infs := range raw.Mesh.Weights {
			for _, inf := range infs {
				w.Influences[vi] = append(w.Influences[vi], rig.Influence{Bone: inf.Bone, Weight: inf.Weight})
			}
		}
		if err := w.Validate(skel); err != nil {
			return nil, fmt.Errorf("weights: %w", err)
		}
		mesh.Weights = w
	}
	if err := mesh.Validate(); err != nil {
		return nil, fmt.Errorf("mesh: %w", err)
	}

	var anim []retarget.PoseFrame
	for fi, fj := range raw.Animation {
		if len(fj.Transforms) != len(bones) {
			return nil, fmt.Errorf("animation: frame %d has %d transforms for %d bones",
				fi, len(fj.Transforms), len(bones))
		}
		frame := retarget.PoseFrame{Transforms: make([]rig.Transform, len(fj.Transforms))}
		for i, tj := range fj.Transforms {
			frame.Transforms[i] = transformFrom(tj.Translation, tj.Rotation, tj.Scale)
		}
		anim = append(anim, frame)
	}

	return &Bundle{
		Name:      raw.Name,
		Mesh:      mesh,
		Skeleton:  skel,
		BodyRef:   raw.BodyRef,
		Texture:   raw.Texture,
		Animation: anim,
	}, nil
}

func toJSON(b *Bundle) bundleJSON {
	raw := bundleJSON{Name: b.Name, BodyRef: b.BodyRef, Texture: b.Texture}

	raw.Skeleton.Convention = b.Skeleton.Convention
	raw.Skeleton.Bones = make([]boneJSON, b.Skeleton.Len())
	for i := range b.Skeleton.Bones {
		bone := &b.Skeleton.Bones[i]
		raw.Skeleton.Bones[i] = boneJSON{
			Name:        bone.Name,
			Parent:      bone.Parent,
			Translation: bone.Bind.Translation,
			Rotation:    [4]float64{bone.Bind.Rotation.W, bone.Bind.Rotation.V[0], bone.Bind.Rotation.V[1], bone.Bind.Rotation.V[2]},
			Scale:       bone.Bind.Scale,
		}
	}

	raw.Mesh.Positions = make([][3]float64, len(b.Mesh.Positions))
	for i, p := range b.Mesh.Positions {
		raw.Mesh.Positions[i] = p
	}
	raw.Mesh.Tris = make([][3]int, len(b.Mesh.Tris))
	copy(raw.Mesh.Tris, b.Mesh.Tris)
	if len(b.Mesh.Normals) > 0 {
		raw.Mesh.Normals = make([][3]float64, len(b.Mesh.Normals))
		for i, n := range b.Mesh.Normals {
			raw.Mesh.Normals[i] = n
		}
	}
	if len(b.Mesh.UVs) > 0 {
		raw.Mesh.UVs = make([][2]float64, len(b.Mesh.UVs))
		for i, uv := range b.Mesh.UVs {
			raw.Mesh.UVs[i] = uv
		}
	}
	if b.Mesh.Weights != nil {
		raw.Mesh.Weights = make([][]influJSON, b.Mesh.Weights.Len())
		for vi, infs := range b.Mesh.Weights.Influences {
			for _, inf := range infs {
				raw.Mesh.Weights[vi] = append(raw.Mesh.Weights[vi], influJSON{Bone: inf.Bone, Weight: inf.Weight})
			}
		}
	}
	for _, frame := range b.Animation {
		fj := frameJSON{Transforms: make([]transformJSON, len(frame.Transforms))}
		for i, tr := range frame.Transforms {
			fj.Transforms[i] = transformTo(tr)
		}
		raw.Animation = append(raw.Animation, fj)
	}
	return raw
}

package main

import (
	"fmt"
	"os"
	"strings"

	"forge-rig/internal/bundle"
	"forge-rig/internal/diag"
	"forge-rig/internal/resolve"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: inspect <bundle.json>")
		os.Exit(1)
	}
	b, err := bundle.Load(os.Args[1])
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Asset: %q convention=%q body_ref=%q texture=%q\n", b.Name, b.Skeleton.Convention, b.BodyRef, b.Texture)
	fmt.Printf("Mesh: verts=%d, tris=%d\n", len(b.Mesh.Positions), len(b.Mesh.Tris))

	min, max := b.Mesh.Bounds()
	fmt.Printf("  BBox: X[%.3f, %.3f] Y[%.3f, %.3f] Z[%.3f, %.3f]\n",
		min.X(), max.X(), min.Y(), max.Y(), min.Z(), max.Z())
	fmt.Printf("  Size: %.3f x %.3f x %.3f\n", max.X()-min.X(), max.Y()-min.Y(), max.Z()-min.Z())

	if w := b.Mesh.Weights; w != nil {
		histogram := map[int]int{}
		zero := 0
		for vi := range w.Influences {
			n := len(w.Influences[vi])
			histogram[n]++
			total := 0.0
			for _, inf := range w.Influences[vi] {
				total += inf.Weight
			}
			if total < 1e-4 {
				zero++
			}
		}
		fmt.Println("  --- Influences per vertex ---")
		for n := 0; n <= 8; n++ {
			if histogram[n] > 0 {
				fmt.Printf("  %d influences: %d verts\n", n, histogram[n])
			}
		}
		if zero > 0 {
			fmt.Printf("  zero-weight verts: %d\n", zero)
		}
	} else {
		fmt.Println("  no skin weights")
	}

	fmt.Printf("Bones: %d\n", b.Skeleton.Len())
	for i := range b.Skeleton.Bones {
		bone := &b.Skeleton.Bones[i]
		pos := bone.WorldPosition()
		concept := resolve.ConceptOf(bone.Name)
		if concept != "" {
			concept = " concept=" + concept
		}
		indent := strings.Repeat("  ", b.Skeleton.Depth(i))
		fmt.Printf("  %s%s [%d] parent=%d pos=(%.3f, %.3f, %.3f)%s\n",
			indent, bone.Name, i, bone.Parent, pos.X(), pos.Y(), pos.Z(), concept)
	}

	var report diag.Report
	report.Asset = b.Name
	if err := diag.CheckSkeleton(b.Skeleton, diag.Limits{}, &report); err != nil {
		fmt.Printf("Skeleton invalid: %v\n", err)
		os.Exit(1)
	}
	if err := diag.CheckWeights(b.Mesh.Weights, b.Skeleton, diag.Limits{}, &report); err != nil {
		fmt.Printf("Weights invalid: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(report.String())
}

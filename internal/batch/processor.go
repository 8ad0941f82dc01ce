package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"forge-rig/internal/bundle"
	"forge-rig/internal/config"
	"forge-rig/internal/diag"
	"forge-rig/internal/fit"
	"forge-rig/internal/handrig"
	"forge-rig/internal/resolve"
	"forge-rig/internal/retarget"
	"forge-rig/internal/texture"
)

// Config holds all shared resources for a batch run.
type Config struct {
	Engine    config.Config
	OutputDir string

	// Renderer and Detector enable the hand rigging stage when both
	// are provided. They are external collaborators; nil disables the
	// stage.
	Renderer handrig.Renderer
	Detector handrig.Detector

	// Textures resolves bundle texture names to decoded images for the
	// capture renderer. Optional.
	Textures texture.Resolver
}

// Result holds the outcome of processing one asset.
type Result struct {
	Name    string
	Success bool
	Error   string
	Report  diag.Report
}

// Run processes all asset bundles using a worker pool. Bodies
// referenced by several armors are loaded once and shared read-only.
func Run(ctx context.Context, cfg Config, paths []string) []Result {
	total := len(paths)
	results := make([]Result, total)
	var processed atomic.Int64

	start := time.Now()
	bodies := newBodyCache()

	// Progress reporter
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := processed.Load()
				if p > 0 {
					elapsed := time.Since(start).Seconds()
					rate := float64(p) / elapsed
					fmt.Printf("  [%d/%d] %.1f assets/sec\n", p, total, rate)
				}
			}
		}
	}()

	// Worker pool
	jobChan := make(chan int, cfg.Engine.Workers*2)
	var wg sync.WaitGroup

	for w := 0; w < cfg.Engine.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobChan {
				results[idx] = processAsset(ctx, cfg, bodies, paths[idx])
				processed.Add(1)
			}
		}()
	}

	// Send work
	for i := range paths {
		jobChan <- i
	}
	close(jobChan)

	wg.Wait()
	close(done)

	return results
}

func processAsset(ctx context.Context, cfg Config, bodies *bodyCache, path string) Result {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	res := Result{Name: name}
	res.Report.Asset = name

	asset, err := bundle.Load(path)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	if asset.Name != "" {
		res.Name = asset.Name
		res.Report.Asset = asset.Name
	}

	if err := diag.CheckSkeleton(asset.Skeleton, diag.Limits{}, &res.Report); err != nil {
		res.Error = err.Error()
		return res
	}
	if err := diag.CheckWeights(asset.Mesh.Weights, asset.Skeleton, diag.Limits{}, &res.Report); err != nil {
		res.Error = err.Error()
		return res
	}
	diag.NormalizeScale(asset.Skeleton, asset.Mesh, &res.Report)

	if asset.BodyRef != "" {
		if err := fitToBody(ctx, cfg, bodies, path, asset, &res.Report); err != nil {
			res.Error = err.Error()
			return res
		}
	}

	if cfg.Textures != nil && asset.Texture != "" {
		asset.Mesh.Albedo = cfg.Textures.Resolve(asset.Texture)
	}

	if cfg.Renderer != nil && cfg.Detector != nil && asset.BodyRef == "" {
		runHandStage(asset, cfg, &res.Report)
	}

	outPath := filepath.Join(cfg.OutputDir, res.Name+".json")
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		res.Error = err.Error()
		return res
	}
	if err := bundle.Save(outPath, asset); err != nil {
		res.Error = err.Error()
		return res
	}

	res.Success = true
	return res
}

// fitToBody resolves the armor skeleton against the body's, transfers
// weights when the armor carries none, runs the collision fit, and
// replays any body animation on the fitted skeleton.
func fitToBody(ctx context.Context, cfg Config, bodies *bodyCache, assetPath string, asset *bundle.Bundle, report *diag.Report) error {
	bodyPath := asset.BodyRef
	if !filepath.IsAbs(bodyPath) {
		bodyPath = filepath.Join(filepath.Dir(assetPath), bodyPath)
	}
	body, err := bodies.load(bodyPath)
	if err != nil {
		return err
	}

	table := resolve.Resolve(asset.Skeleton, body.Skeleton, cfg.Engine.ResolveConfig())
	for _, si := range table.Unmapped {
		report.UnmappedBones = append(report.UnmappedBones, asset.Skeleton.Bones[si].Name)
	}
	if len(table.Unmapped) > 0 {
		report.Warnf(diag.CodeUnmappedBones, "%d of %d bones unmapped against body",
			len(table.Unmapped), asset.Skeleton.Len())
	}

	regions := fit.BuildRegions(body.Mesh, body.Skeleton)

	// Scale mismatches are corrected before weight transfer so nearest
	// body vertices are sampled at the right scale.
	fitCfg := cfg.Engine.FitConfig()
	scale := fit.CorrectScale(asset.Mesh, body.Mesh, regions, fitCfg.Scale)
	if scale != [3]float64{1, 1, 1} {
		report.Warnf(diag.CodeScaleCorrected, "armor rescaled by (%.3f, %.3f, %.3f)",
			scale[0], scale[1], scale[2])
	}

	if asset.Mesh.Weights == nil {
		w, err := fit.TransferWeights(asset.Mesh, body.Mesh, body.Skeleton, regions, fit.TransferConfig{})
		if err != nil {
			return err
		}
		asset.Mesh.Weights = w
	}

	fr, err := fit.Fit(ctx, asset.Mesh, body.Mesh, regions, fitCfg)
	if err != nil {
		return err
	}
	if fr.Cancelled {
		report.Warnf(diag.CodeFitCancelled, "fit cancelled after %d iterations", fr.Iterations)
	} else if !fr.Converged {
		report.Warnf(diag.CodeNotConverged, "fit stopped at %d iterations, residual %.4f",
			fr.Iterations, fr.MaxCorrection)
	}
	asset.Mesh.Positions = fr.Armor.Positions

	if len(body.Animation) > 0 {
		if err := retargetAnimation(asset, body, cfg.Engine); err != nil {
			return err
		}
	}
	return nil
}

// retargetAnimation replays the body's animation frames on the asset's
// skeleton through the configured solver, so a fitted asset can be
// posed alongside the body that drives it.
func retargetAnimation(asset, body *bundle.Bundle, eng config.Config) error {
	solver, err := retarget.New(retarget.Kind(eng.Solver), nil)
	if err != nil {
		return err
	}
	table := resolve.Resolve(body.Skeleton, asset.Skeleton, eng.ResolveConfig())

	frames := make([]retarget.PoseFrame, len(body.Animation))
	for i, frame := range body.Animation {
		out, err := solver.Solve(retarget.Input{
			SourceFrame: frame,
			Table:       table,
			Source:      body.Skeleton,
			Target:      asset.Skeleton,
		})
		if err != nil {
			return fmt.Errorf("batch: retarget frame %d: %w", i, err)
		}
		frames[i] = out
	}
	asset.Animation = frames
	return nil
}

// runHandStage rigs both hands. Failures degrade to warnings; the
// asset keeps its original skeleton when a side fails.
func runHandStage(asset *bundle.Bundle, cfg Config, report *diag.Report) {
	for _, side := range []string{"left", "right"} {
		hcfg := cfg.Engine.HandConfig()
		hcfg.Side = side
		hr, err := handrig.Run(asset.Mesh, asset.Skeleton, cfg.Renderer, cfg.Detector, hcfg)
		if err != nil {
			slog.Warn("batch: hand rigging error", "asset", asset.Name, "side", side, "err", err)
			continue
		}
		if hr.State == handrig.StateSkipped {
			report.Warnf(diag.CodeHandAlreadyRig, "%s hand already carries finger bones", side)
			continue
		}
		if hr.State != handrig.StateComplete {
			slog.Info("batch: hand rigging did not complete",
				"asset", asset.Name, "side", side, "state", hr.State, "reason", hr.Reason)
			continue
		}
		if hr.FlatHand {
			report.Warnf(diag.CodeFlatHandFallback, "%s hand rigged as flat segment", side)
		}
		asset.Skeleton = hr.Skeleton
		asset.Mesh.Weights = hr.Weights
	}
}

// bodyCache shares loaded body bundles between workers. Bodies are
// read-only once loaded.
type bodyCache struct {
	mu      sync.Mutex
	entries map[string]*bodyEntry
}

type bodyEntry struct {
	once sync.Once
	b    *bundle.Bundle
	err  error
}

func newBodyCache() *bodyCache {
	return &bodyCache{entries: make(map[string]*bodyEntry)}
}

func (c *bodyCache) load(path string) (*bundle.Bundle, error) {
	c.mu.Lock()
	e, ok := c.entries[path]
	if !ok {
		e = &bodyEntry{}
		c.entries[path] = e
	}
	c.mu.Unlock()

	e.once.Do(func() {
		e.b, e.err = bundle.Load(path)
		if e.err == nil {
			e.b.Skeleton.WorldMatrices()
		}
	})
	return e.b, e.err
}

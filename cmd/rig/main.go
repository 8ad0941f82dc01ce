package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"forge-rig/internal/batch"
	"forge-rig/internal/config"
	"forge-rig/internal/texture"
)

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to config.json file")
	assetDir := flag.String("assets", ".", "Directory of asset bundle JSON files")
	outputDir := flag.String("output", "", "Output directory (default: out)")
	debugDir := flag.String("debug", "", "Directory for debug capture dumps")
	solver := flag.String("solver", "", "Retarget solver: autoskin, distance, childtarget, weightblend")
	handSide := flag.String("hand", "", "Hand side for rigging: left or right")
	workers := flag.Int("workers", 0, "Number of worker goroutines (default: NumCPU)")
	testN := flag.Int("test", 0, "Process only first N assets for testing")
	verbose := flag.Bool("v", false, "Debug logging")

	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	// Load config
	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	// CLI flags override config file
	cfg.Resolve(config.Flags{
		OutputDir: *outputDir,
		DebugDir:  *debugDir,
		Solver:    *solver,
		HandSide:  *handSide,
		Workers:   *workers,
	})

	// Collect asset bundles
	paths, err := collectBundles(*assetDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error scanning %s: %v\n", *assetDir, err)
		os.Exit(1)
	}
	if *testN > 0 && *testN < len(paths) {
		paths = paths[:*testN]
	}
	if len(paths) == 0 {
		fmt.Println("No asset bundles to process.")
		os.Exit(0)
	}

	// Build texture index
	texIndex := texture.BuildIndex(*assetDir)
	texCache := texture.NewCache(texIndex)

	fmt.Printf("Rig pipeline\n")
	fmt.Printf("Assets: %d, Workers: %d, Textures: %d indexed\n", len(paths), cfg.Workers, texIndex.Len())
	fmt.Printf("Output: %s\n", cfg.OutputDir)
	fmt.Println("------------------------------------------------------------")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()

	batchCfg := batch.Config{
		Engine:    cfg,
		OutputDir: cfg.OutputDir,
		Textures:  texCache,
	}

	results := batch.Run(ctx, batchCfg, paths)

	elapsed := time.Since(start)
	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Done in %.1fs\n", elapsed.Seconds())

	// Count results
	success, failed := 0, 0
	var errors []batch.Result
	for _, r := range results {
		if r.Success {
			success++
		} else {
			failed++
			errors = append(errors, r)
		}
		if !r.Report.Clean() {
			fmt.Println(r.Report.String())
		}
	}

	fmt.Printf("Processed: %d/%d\n", success, len(paths))

	if len(errors) > 0 {
		fmt.Printf("\nFailed (%d):\n", failed)
		limit := 20
		if len(errors) < limit {
			limit = len(errors)
		}
		for _, e := range errors[:limit] {
			fmt.Printf("  %s: %s\n", e.Name, e.Error)
		}
	}

	// Write manifest
	manifestPath := filepath.Join(cfg.OutputDir, "manifest.json")
	os.MkdirAll(cfg.OutputDir, 0755)
	if err := batch.WriteManifest(manifestPath, results); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: manifest write failed: %v\n", err)
	} else {
		fmt.Printf("Manifest: %s\n", manifestPath)
	}

	if failed > 0 {
		os.Exit(1)
	}
}

// collectBundles lists bundle files under dir, sorted for stable order.
func collectBundles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".json") {
			continue
		}
		if e.Name() == "manifest.json" || e.Name() == "config.json" {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

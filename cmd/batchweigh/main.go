// Command batchweigh estimates weights for every image in a directory.
// Each image runs through its own pipeline; images are processed in parallel.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"weight-estimator/internal/capture"
	"weight-estimator/internal/config"
	"weight-estimator/internal/density"
	"weight-estimator/internal/logging"
	"weight-estimator/internal/pipeline"
	"weight-estimator/internal/report"
	"weight-estimator/internal/segment"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type outcome struct {
	path   string
	result *pipeline.Result
	err    error
}

func main() {
	dir := flag.String("dir", "", "Directory of images to weigh")
	configPath := flag.String("config", "", "Path to YAML config (default: search "+config.EnvConfigPath+", ./weight-estimator.yaml, user config dir)")
	label := flag.String("label", "", "Object type for every image (overrides config)")
	masks := flag.Bool("masks", false, "Use <name>_mask.png next to each image instead of GrabCut")
	workers := flag.Int("workers", runtime.NumCPU(), "Number of images processed at once")
	outDir := flag.String("out", "", "Output directory (overrides config)")
	flag.Parse()

	if *dir == "" {
		fmt.Println("Usage: batchweigh -dir <images> [-config cfg.yaml] [-label apple] [-masks] [-workers N]")
		os.Exit(1)
	}

	cfg, _, err := config.LoadOrFind(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *label != "" {
		cfg.Density.Label = *label
	}
	if *outDir != "" {
		cfg.Output.Dir = *outDir
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New("batchweigh", cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	images, err := listImages(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list images: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Found %d images in %s\n", len(images), *dir)

	var history *report.History
	if cfg.Output.History != "" {
		history, err = report.OpenHistory(cfg.Output.History)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open history: %v\n", err)
			os.Exit(1)
		}
		defer history.Close()
	}

	outcomes := make([]outcome, len(images))
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(max(1, *workers))

	for i, path := range images {
		i, path := i, path
		g.Go(func() error {
			p, err := newPipeline(cfg, path, *masks, history, logger.With(zap.String("image", filepath.Base(path))))
			if err != nil {
				return err
			}
			res, err := p.Run(ctx, cfg.Density.Label)
			outcomes[i] = outcome{path: path, result: res, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		fmt.Fprintf(os.Stderr, "Batch failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\n%-32s %12s %12s %10s\n", "Image", "Weight (g)", "Volume (cm3)", "Tier")
	fmt.Println(strings.Repeat("-", 70))
	failed := 0
	for _, o := range outcomes {
		name := filepath.Base(o.path)
		switch {
		case errors.Is(o.err, pipeline.ErrUncalibrated):
			failed++
			fmt.Printf("%-32s %12s\n", name, "uncalibrated")
		case o.err != nil:
			failed++
			fmt.Printf("%-32s %12s  %v\n", name, "error", o.err)
		default:
			fmt.Printf("%-32s %12.2f %12.2f %10s\n", name, o.result.WeightGrams, o.result.VolumeCm3, o.result.Density.Tier)
		}
	}
	fmt.Printf("\nTotal: %d images, %d without a weight\n", len(outcomes), failed)
	if failed > 0 {
		os.Exit(2)
	}
}

// newPipeline builds an independent pipeline for one image. Nothing mutable
// is shared between images except the history database.
func newPipeline(cfg *config.Config, path string, useMasks bool, history *report.History, logger *zap.Logger) (*pipeline.Pipeline, error) {
	strategy, err := pipeline.StrategyFromConfig(cfg.Scale, logger)
	if err != nil {
		return nil, err
	}

	var seg segment.Segmenter = segment.InsetGrabCut{
		Percent:    cfg.Segmentation.InsetPercent,
		Iterations: cfg.Segmentation.Iterations,
		Logger:     logger,
	}
	if useMasks {
		seg = segment.MaskFile{Path: maskPathFor(path)}
	}

	reporters := report.Multi{report.Annotator{Dir: cfg.Output.Dir, Logger: logger}}
	if history != nil {
		reporters = append(reporters, history)
	}

	table := cfg.Density.Table
	return &pipeline.Pipeline{
		Frames:    capture.File{Path: path},
		Segmenter: seg,
		Scale:     strategy,
		Densities: density.NewResolver(os.DirFS(filepath.Dir(table)), filepath.Base(table), logger),
		Reporter:  reporters,
		Logger:    logger,
	}, nil
}

func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var images []string
	for _, e := range entries {
		if e.IsDir() || !capture.IsSupportedFormat(e.Name()) {
			continue
		}
		if strings.HasSuffix(strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())), "_mask") {
			continue
		}
		images = append(images, filepath.Join(dir, e.Name()))
	}
	sort.Strings(images)
	return images, nil
}

func maskPathFor(imagePath string) string {
	ext := filepath.Ext(imagePath)
	return strings.TrimSuffix(imagePath, ext) + "_mask.png"
}

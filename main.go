// Package main provides the entry point for the weight estimator: it captures
// or loads one image, segments the object and prints its estimated weight.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"weight-estimator/internal/capture"
	"weight-estimator/internal/config"
	"weight-estimator/internal/density"
	"weight-estimator/internal/logging"
	"weight-estimator/internal/pipeline"
	"weight-estimator/internal/report"
	"weight-estimator/internal/segment"
	"weight-estimator/internal/version"

	"go.uber.org/zap"
)

const appTitle = "Weight Estimator"

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "Path to YAML config (default: search "+config.EnvConfigPath+", ./weight-estimator.yaml, user config dir)")
	imagePath := flag.String("image", "", "Read the frame from an image file instead of the camera")
	device := flag.Int("camera", -1, "Camera device index (overrides config)")
	maskPath := flag.String("mask", "", "Use a precomputed mask image instead of GrabCut")
	roi := flag.String("roi", "", "GrabCut rectangle x,y,w,h (default: frame inset)")
	interactive := flag.Bool("interactive", false, "Draw the GrabCut rectangle in a window")
	label := flag.String("label", "", "Object type used for the density lookup")
	manualScale := flag.Float64("scale", 0, "Manual scale in cm/px (selects manual calibration)")
	refSize := flag.Float64("ref-size", 0, "Reference object width in cm (selects reference calibration)")
	outDir := flag.String("out", "", "Directory for the annotated frame and run record")
	historyPath := flag.String("history", "", "SQLite database recording every run")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s %s\n", appTitle, version.String())
		return 0
	}

	cfg, _, err := config.LoadOrFind(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}
	if err := applyFlags(cfg, *device, *label, *manualScale, *refSize, *outDir, *historyPath, *logLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid flags: %v\n", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		return 1
	}

	logger, err := logging.New("weigh", cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		return 1
	}
	defer logger.Sync()
	logger.Info("starting", zap.String("app", appTitle), zap.String("version", version.Version))

	strategy, err := pipeline.StrategyFromConfig(cfg.Scale, logger.Named("scale"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid scale settings: %v\n", err)
		return 1
	}

	p := &pipeline.Pipeline{
		Scale:     strategy,
		Densities: density.NewResolver(os.DirFS(filepath.Dir(cfg.Density.Table)), filepath.Base(cfg.Density.Table), logger.Named("density")),
		Logger:    logger,
	}

	if *imagePath != "" {
		p.Frames = capture.File{Path: *imagePath}
	} else {
		p.Frames = capture.Camera{
			Device:   cfg.Camera.Device,
			SavePath: filepath.Join(cfg.Output.Dir, "captured_frame.jpg"),
			Logger:   logger.Named("capture"),
		}
	}

	seg, err := buildSegmenter(cfg, *maskPath, *roi, *interactive, logger.Named("segment"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid segmentation settings: %v\n", err)
		return 1
	}
	p.Segmenter = seg

	reporters := report.Multi{report.Annotator{Dir: cfg.Output.Dir, Logger: logger.Named("report")}}
	if cfg.Output.History != "" {
		history, err := report.OpenHistory(cfg.Output.History)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open history: %v\n", err)
			return 1
		}
		defer history.Close()
		reporters = append(reporters, history)
	}
	p.Reporter = reporters

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := p.Run(ctx, cfg.Density.Label)
	if errors.Is(err, pipeline.ErrUncalibrated) {
		fmt.Println("--- Final Result ---")
		fmt.Println("Could not calibrate: no scale factor available, weight not estimated.")
		fmt.Println("--------------------")
		return 2
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Estimation failed: %v\n", err)
		return 1
	}

	fmt.Println("--- Final Result ---")
	fmt.Println(res.Summary())
	fmt.Printf("Volume: %.2f cm^3  Density: %.2f g/cm^3 (%s)  Scale: %s (%s)\n",
		res.VolumeCm3, res.Density.Density, res.Density.Tier, res.Scale, res.ScaleSource)
	if bbox := res.BoundingBox(); bbox != nil {
		fmt.Printf("Bounding box (x,y,w,h): %s\n", bbox)
	} else {
		fmt.Println("Bounding box: none")
	}
	fmt.Println("--------------------")
	return 0
}

// applyFlags overrides config values with the flags that were given.
// -scale and -ref-size select different calibration strategies and cannot be
// combined.
func applyFlags(cfg *config.Config, device int, label string, manualScale, refSize float64, outDir, history, logLevel string) error {
	if manualScale != 0 && refSize != 0 {
		return errors.New("-scale and -ref-size are mutually exclusive")
	}
	if device >= 0 {
		cfg.Camera.Device = device
	}
	if label != "" {
		cfg.Density.Label = label
	}
	if refSize != 0 {
		cfg.Scale.Mode = config.ScaleReference
		cfg.Scale.ReferenceSizeCm = refSize
	}
	if manualScale != 0 {
		cfg.Scale.Mode = config.ScaleManual
		cfg.Scale.ManualCmPerPx = manualScale
	}
	if outDir != "" {
		cfg.Output.Dir = outDir
	}
	if history != "" {
		cfg.Output.History = history
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return nil
}

func buildSegmenter(cfg *config.Config, maskPath, roi string, interactive bool, logger *zap.Logger) (segment.Segmenter, error) {
	savePath := filepath.Join(cfg.Output.Dir, "segmentation_mask.png")
	switch {
	case maskPath != "":
		return segment.MaskFile{Path: maskPath}, nil
	case interactive:
		return segment.Interactive{Iterations: cfg.Segmentation.Iterations, SavePath: savePath, Logger: logger}, nil
	case roi != "":
		rect, err := segment.ParseRect(roi)
		if err != nil {
			return nil, err
		}
		sel := segment.SelectRect(rect)
		if sel.State != segment.StateCommitted {
			return nil, fmt.Errorf("rect %s was not accepted", rect)
		}
		return segment.GrabCut{Rect: sel.Rect, Iterations: cfg.Segmentation.Iterations, SavePath: savePath, Logger: logger}, nil
	default:
		return segment.InsetGrabCut{Percent: cfg.Segmentation.InsetPercent, Iterations: cfg.Segmentation.Iterations, SavePath: savePath, Logger: logger}, nil
	}
}

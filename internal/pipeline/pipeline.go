// Package pipeline sequences calibration, geometry, volume and density into a
// weight estimate.
//
// A run always produces a numeric weight unless calibration fails. Missing
// frames, failed segmentation and empty masks are carried forward as zero
// area and zero volume, so the result is a weight of 0 g; the operator reads
// the zero as "nothing was measured". Calibration failure is the one fatal
// outcome, reported as ErrUncalibrated instead of a number, so it cannot be
// mistaken for an object that weighs nothing.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"weight-estimator/internal/capture"
	"weight-estimator/internal/density"
	"weight-estimator/internal/mask"
	"weight-estimator/internal/report"
	"weight-estimator/internal/scale"
	"weight-estimator/internal/segment"
	"weight-estimator/internal/silhouette"
	"weight-estimator/internal/version"
	"weight-estimator/internal/volume"
	"weight-estimator/pkg/geometry"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

var (
	// ErrUncalibrated means no usable scale factor was obtained.
	ErrUncalibrated = errors.New("could not calibrate")

	// ErrDimensionMismatch means the mask and frame sizes differ.
	ErrDimensionMismatch = errors.New("mask and frame dimensions differ")
)

// Result is the outcome of one run.
type Result struct {
	RunID       string
	Label       string
	WeightGrams float64
	VolumeCm3   float64
	Density     density.Lookup
	Geometry    silhouette.Measurement
	Scale       scale.Factor
	ScaleSource string
	Degenerate  bool // True when the mask was missing or zero-sized
}

// BoundingBox returns the detected object box, or nil.
func (r *Result) BoundingBox() *geometry.RectInt {
	return r.Geometry.BoundingBox
}

// Summary is the one-line human readable result.
func (r *Result) Summary() string {
	return fmt.Sprintf("Estimated Weight: %.2f grams", r.WeightGrams)
}

// Record converts the result to its persisted form.
func (r *Result) Record() report.Record {
	return report.Record{
		Version:      report.RecordVersion,
		RunID:        r.RunID,
		Created:      time.Now().UTC(),
		Label:        r.Label,
		WeightGrams:  r.WeightGrams,
		VolumeCm3:    r.VolumeCm3,
		DensityGCm3:  r.Density.Density,
		DensityTier:  string(r.Density.Tier),
		AreaPixels:   r.Geometry.AreaPixels,
		BoundingBox:  r.Geometry.BoundingBox,
		ScaleCmPerPx: float64(r.Scale),
		ScaleSource:  r.ScaleSource,
		ToolVersion:  version.Version,
	}
}

// Pipeline holds the collaborators of a run. Frames, Segmenter and Reporter
// are optional; Scale and Densities are required.
type Pipeline struct {
	Frames    capture.Source
	Segmenter segment.Segmenter
	Scale     scale.Strategy
	Densities *density.Resolver
	Reporter  report.Reporter
	Logger    *zap.Logger
}

// Run acquires a frame, segments it and estimates the weight of the object.
// A frame that cannot be acquired is treated as "no frame".
func (p *Pipeline) Run(ctx context.Context, label string) (*Result, error) {
	log := p.logger()

	frame, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer frame.Close()

	var m *mask.Mask
	if p.Segmenter != nil && !frame.Empty() {
		if m, err = p.Segmenter.Segment(frame); err != nil {
			log.Warn("segmentation failed", zap.Error(err))
			m = nil
		}
	}

	res, err := p.Estimate(frame, m, label)
	if err != nil {
		return nil, err
	}

	p.report(ctx, res, frame)
	return res, nil
}

// Estimate computes the weight for an already segmented frame. frame may be
// empty ("no frame") and m may be nil ("nothing segmented").
func (p *Pipeline) Estimate(frame gocv.Mat, m *mask.Mask, label string) (*Result, error) {
	if p.Scale == nil || p.Densities == nil {
		return nil, errors.New("pipeline requires a scale strategy and a density resolver")
	}
	log := p.logger().With(zap.String("label", label))

	res := &Result{RunID: uuid.NewString(), Label: label}
	log = log.With(zap.String("run_id", res.RunID))

	// 1. Calibration. Nothing downstream runs without a unit conversion.
	factor, ok := p.Scale.Calibrate(frame)
	if !ok || !factor.Valid() {
		log.Error("calibration failed", zap.String("strategy", p.Scale.Name()))
		return nil, fmt.Errorf("%w: %s strategy produced no scale factor", ErrUncalibrated, p.Scale.Name())
	}
	res.Scale = factor
	res.ScaleSource = p.Scale.Name()
	log.Info("scale factor", zap.Stringer("scale", factor), zap.String("source", res.ScaleSource))

	// 2. Mask contract.
	if m == nil || m.Empty() {
		res.Degenerate = true
		log.Warn("no object mask, reporting zero weight")
	} else {
		if err := m.Validate(); err != nil {
			return nil, err
		}
		if !frame.Empty() && (m.Width != frame.Cols() || m.Height != frame.Rows()) {
			return nil, fmt.Errorf("%w: mask %dx%d, frame %dx%d",
				ErrDimensionMismatch, m.Width, m.Height, frame.Cols(), frame.Rows())
		}
	}

	// 3. Geometry.
	res.Geometry = silhouette.Extract(m)
	if res.Geometry.Found() {
		log.Info("object measured",
			zap.Int("area_px", res.Geometry.AreaPixels),
			zap.Stringer("bbox", res.Geometry.BoundingBox))
	} else {
		log.Warn("no object region found", zap.Int("area_px", res.Geometry.AreaPixels))
	}

	// 4. Volume.
	vol, err := volume.Integrate(m, factor)
	switch {
	case errors.Is(err, volume.ErrDegenerateMask):
		res.Degenerate = true
		vol = 0
	case err != nil:
		return nil, fmt.Errorf("integrate volume: %w", err)
	}
	res.VolumeCm3 = vol
	log.Info("estimated volume", zap.Float64("volume_cm3", vol))

	// 5. Density and weight.
	res.Density = p.Densities.Resolve(label)
	res.WeightGrams = res.VolumeCm3 * res.Density.Density
	log.Info("estimated weight",
		zap.Float64("weight_g", res.WeightGrams),
		zap.Float64("density_g_cm3", res.Density.Density),
		zap.String("density_tier", string(res.Density.Tier)))

	return res, nil
}

// acquire returns the frame to measure, or an empty Mat when none could be
// read. Only cancellation is an error.
func (p *Pipeline) acquire(ctx context.Context) (gocv.Mat, error) {
	if p.Frames == nil {
		return gocv.NewMat(), nil
	}
	frame, err := p.Frames.Frame(ctx)
	if err == nil {
		return frame, nil
	}
	frame.Close()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return gocv.Mat{}, ctxErr
	}
	p.logger().Warn("no frame acquired", zap.Error(err))
	return gocv.NewMat(), nil
}

func (p *Pipeline) report(ctx context.Context, res *Result, frame gocv.Mat) {
	if p.Reporter == nil {
		return
	}
	rec := res.Record()
	if f, ok := p.Frames.(capture.File); ok {
		rec.SourceImage = f.Path
	}
	if err := p.Reporter.Report(ctx, &rec, frame); err != nil {
		p.logger().Warn("reporting failed", zap.String("run_id", res.RunID), zap.Error(err))
	}
}

func (p *Pipeline) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}

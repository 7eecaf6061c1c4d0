package scale

import (
	"image"

	"weight-estimator/internal/silhouette"
	"weight-estimator/pkg/colorutil"

	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

// ReferenceParams configures reference-object detection.
type ReferenceParams struct {
	// HSV band of the reference object's colour (OpenCV scale)
	Band colorutil.HSVRange

	// Morphological open passes applied to the colour mask before contour
	// search. 0 keeps the raw threshold.
	OpenIterations int
}

// DefaultReferenceParams returns parameters tuned for a saturated blue marker.
func DefaultReferenceParams() ReferenceParams {
	return ReferenceParams{
		Band:           colorutil.BlueBand,
		OpenIterations: 0,
	}
}

// WithHSV returns a copy of params with a custom HSV band.
func (p ReferenceParams) WithHSV(hMin, hMax, sMin, sMax, vMin, vMax float64) ReferenceParams {
	p.Band = colorutil.HSVRange{
		HueMin: hMin, HueMax: hMax,
		SatMin: sMin, SatMax: sMax,
		ValMin: vMin, ValMax: vMax,
	}
	return p
}

// WithOpenIterations returns a copy of params with the given cleanup strength.
func (p ReferenceParams) WithOpenIterations(n int) ReferenceParams {
	if n < 0 {
		n = 0
	}
	p.OpenIterations = n
	return p
}

// ReferenceDetection describes the reference object found in a frame.
type ReferenceDetection struct {
	Bounds      image.Rectangle
	WidthPixels int
}

// ReferenceStrategy calibrates from a coloured object of known width.
type ReferenceStrategy struct {
	KnownSizeCm float64
	Params      ReferenceParams
	Logger      *zap.Logger
}

// NewReference creates a reference-object strategy.
func NewReference(knownSizeCm float64, params ReferenceParams, logger *zap.Logger) *ReferenceStrategy {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReferenceStrategy{KnownSizeCm: knownSizeCm, Params: params, Logger: logger}
}

// Name implements Strategy.
func (r *ReferenceStrategy) Name() string { return "reference" }

// Calibrate implements Strategy. It returns false when there is no frame, no
// region in the colour band, or the region has zero width.
func (r *ReferenceStrategy) Calibrate(frame gocv.Mat) (Factor, bool) {
	det, ok := DetectReference(frame, r.Params)
	if !ok {
		r.Logger.Warn("no reference object found", zap.Any("band", r.Params.Band))
		return 0, false
	}
	if det.WidthPixels == 0 {
		r.Logger.Warn("reference object width is zero")
		return 0, false
	}

	f := Factor(r.KnownSizeCm / float64(det.WidthPixels))
	if !f.Valid() {
		r.Logger.Warn("reference calibration produced unusable factor",
			zap.Float64("known_size_cm", r.KnownSizeCm), zap.Int("width_px", det.WidthPixels))
		return 0, false
	}

	r.Logger.Info("reference object found",
		zap.Int("width_px", det.WidthPixels),
		zap.Stringer("scale", f))
	return f, true
}

// FromReference calibrates with the default blue band.
func FromReference(frame gocv.Mat, knownSizeCm float64) (Factor, bool) {
	return NewReference(knownSizeCm, DefaultReferenceParams(), nil).Calibrate(frame)
}

// DetectReference finds the largest region of the reference colour in a BGR
// frame and returns its bounding box.
func DetectReference(frame gocv.Mat, params ReferenceParams) (ReferenceDetection, bool) {
	if frame.Empty() || frame.Channels() != 3 {
		return ReferenceDetection{}, false
	}

	bandMask := createBandMask(frame, params)
	defer bandMask.Close()

	contours := gocv.FindContours(bandMask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	idx := silhouette.LargestContour(contours)
	if idx < 0 {
		return ReferenceDetection{}, false
	}

	rect := gocv.BoundingRect(contours.At(idx))
	return ReferenceDetection{Bounds: rect, WidthPixels: rect.Dx()}, true
}

// createBandMask thresholds the frame in HSV space. HSV keeps hue stable
// under brightness changes that would move every BGR channel.
func createBandMask(frame gocv.Mat, params ReferenceParams) gocv.Mat {
	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(frame, &hsv, gocv.ColorBGRToHSV)

	band := params.Band
	mask := gocv.NewMat()
	lower := gocv.NewScalar(band.HueMin, band.SatMin, band.ValMin, 0)
	upper := gocv.NewScalar(band.HueMax, band.SatMax, band.ValMax, 0)
	gocv.InRangeWithScalar(hsv, lower, upper, &mask)

	if params.OpenIterations > 0 {
		kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Point{3, 3})
		defer kernel.Close()
		for i := 0; i < params.OpenIterations; i++ {
			gocv.MorphologyEx(mask, &mask, gocv.MorphOpen, kernel)
		}
	}

	return mask
}

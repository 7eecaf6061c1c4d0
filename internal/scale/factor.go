// Package scale converts pixel measurements to physical lengths.
//
// A calibration produces a Factor in centimetres per pixel. Two strategies
// produce the same type: detecting a reference object of known size by colour,
// or taking an operator-supplied value. The caller picks the strategy; nothing
// in this package falls back from one to the other.
package scale

import (
	"errors"
	"fmt"
	"math"

	"gocv.io/x/gocv"
)

// ErrInvalidScale indicates a non-positive or non-finite scale factor.
var ErrInvalidScale = errors.New("invalid scale factor")

// Factor is a physical length per pixel, in cm/px.
//
// A single Factor applies to both image axes: pixels are assumed square, so
// the height of one row equals the width of one column. Volume integration
// relies on this to use the factor as slice thickness.
type Factor float64

// Valid reports whether the factor is usable (finite and > 0).
func (f Factor) Valid() bool {
	v := float64(f)
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// Cm converts a pixel length to centimetres.
func (f Factor) Cm(pixels float64) float64 {
	return pixels * float64(f)
}

func (f Factor) String() string {
	return fmt.Sprintf("%.4f cm/px", float64(f))
}

// Strategy produces a scale factor for a frame. The boolean is false when the
// strategy could not calibrate, which is distinct from any numeric value.
type Strategy interface {
	Name() string
	Calibrate(frame gocv.Mat) (Factor, bool)
}

// Manual validates an operator-supplied factor.
func Manual(cmPerPixel float64) (Factor, error) {
	f := Factor(cmPerPixel)
	if !f.Valid() {
		return 0, fmt.Errorf("%w: %v cm/px", ErrInvalidScale, cmPerPixel)
	}
	return f, nil
}

// ManualStrategy always returns the configured factor and ignores the frame.
type ManualStrategy struct {
	factor Factor
}

// NewManual creates a manual strategy. It fails only for unusable values.
func NewManual(cmPerPixel float64) (*ManualStrategy, error) {
	f, err := Manual(cmPerPixel)
	if err != nil {
		return nil, err
	}
	return &ManualStrategy{factor: f}, nil
}

// Name implements Strategy.
func (m *ManualStrategy) Name() string { return "manual" }

// Calibrate implements Strategy.
func (m *ManualStrategy) Calibrate(gocv.Mat) (Factor, bool) {
	return m.factor, true
}

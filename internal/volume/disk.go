// Package volume estimates object volume from a 2D silhouette with the disk method.
//
// The object is treated as a solid of revolution about its horizontal axis.
// Each mask row is one slice: its foreground pixel count is taken as the
// diameter of a circular cross-section, and the slice is one pixel thick.
//
// The estimate is exact only for true solids of revolution. Other shapes are
// systematically over- or under-estimated; a box, whose cross-section is a
// square rather than a disk of the same width, comes out too large. Rows with
// holes are measured by pixel count, so a slice with a gap and a solid slice
// with the same count contribute the same disk.
package volume

import (
	"errors"
	"fmt"
	"math"

	"weight-estimator/internal/mask"
	"weight-estimator/internal/scale"

	"gonum.org/v1/gonum/floats"
)

// ErrDegenerateMask is returned with a zero volume when the mask is missing
// or has no rows or columns. A non-empty mask with no foreground is not
// degenerate; it integrates to zero without error.
var ErrDegenerateMask = errors.New("degenerate mask")

// ErrInvalidScale is returned when the scale factor is not usable.
var ErrInvalidScale = scale.ErrInvalidScale

// Integrate returns the disk-method volume in cm³:
//
//	Σ_r π·(count(r)·s/2)²·s
//
// Since every term shares π·s³/4, the sum reduces to π·s³/4 · Σ count(r)².
func Integrate(m *mask.Mask, s scale.Factor) (float64, error) {
	counts, err := rowCounts(m, s)
	if err != nil {
		return 0, err
	}
	sf := float64(s)
	return math.Pi * sf * sf * sf / 4 * floats.Dot(counts, counts), nil
}

// Slices returns the volume contributed by each row, top to bottom.
func Slices(m *mask.Mask, s scale.Factor) ([]float64, error) {
	counts, err := rowCounts(m, s)
	if err != nil {
		return nil, err
	}
	sf := float64(s)
	slices := make([]float64, len(counts))
	for i, n := range counts {
		radius := n * sf / 2
		slices[i] = math.Pi * radius * radius * sf
	}
	return slices, nil
}

func rowCounts(m *mask.Mask, s scale.Factor) ([]float64, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScale, float64(s))
	}
	if m.Empty() {
		return nil, ErrDegenerateMask
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m.RowCounts(), nil
}

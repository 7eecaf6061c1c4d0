// Package silhouette measures the 2D footprint of a segmented object.
package silhouette

import (
	"weight-estimator/internal/mask"
	"weight-estimator/pkg/geometry"

	"gocv.io/x/gocv"
)

// Measurement is the 2D geometry of a mask.
type Measurement struct {
	AreaPixels  int               // Exact foreground pixel count
	BoundingBox *geometry.RectInt // Box around the largest region, nil if none
	Regions     int               // Number of external contours found
}

// Found reports whether an object region was detected.
func (m Measurement) Found() bool {
	return m.BoundingBox != nil
}

// Extract computes the foreground area and the bounding box of the largest
// connected region. An all-background or zero-sized mask is valid input and
// yields area 0 with no bounding box.
func Extract(m *mask.Mask) Measurement {
	if m.Empty() {
		return Measurement{}
	}

	result := Measurement{AreaPixels: m.Count()}
	if result.AreaPixels == 0 {
		return result
	}

	mat := m.ToMat()
	defer mat.Close()

	contours := gocv.FindContours(mat, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	result.Regions = contours.Size()
	idx := LargestContour(contours)
	if idx < 0 {
		return result
	}

	box := geometry.FromImageRect(gocv.BoundingRect(contours.At(idx)))
	result.BoundingBox = &box
	return result
}

// LargestContour returns the index of the contour with the greatest contour
// area (shoelace formula, not pixel count), or -1 if there are none. The first
// contour wins ties.
func LargestContour(contours gocv.PointsVector) int {
	if contours.Size() == 0 {
		return -1
	}
	largestIdx := 0
	largestArea := gocv.ContourArea(contours.At(0))
	for i := 1; i < contours.Size(); i++ {
		area := gocv.ContourArea(contours.At(i))
		if area > largestArea {
			largestArea = area
			largestIdx = i
		}
	}
	return largestIdx
}

// Package mask provides the binary silhouette grid produced by segmentation.
package mask

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/floats"
)

// ErrInvalidMask indicates a mask that breaks its structural contract
// (pixel buffer length or values outside {0,1}).
var ErrInvalidMask = errors.New("invalid mask")

// Mask is a row-major binary grid: 1 marks the object, 0 the background.
// It has the same width and height as the frame it was segmented from and is
// treated as read-only once built.
type Mask struct {
	Width  int
	Height int
	Pix    []uint8
}

// New returns an all-background mask of the given size.
func New(width, height int) *Mask {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Mask{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height),
	}
}

// FromRows builds a mask from a slice of rows. Any non-zero value is foreground.
// All rows must have the same length.
func FromRows(rows [][]uint8) (*Mask, error) {
	if len(rows) == 0 {
		return New(0, 0), nil
	}
	w := len(rows[0])
	m := New(w, len(rows))
	for y, row := range rows {
		if len(row) != w {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrInvalidMask, y, len(row), w)
		}
		for x, v := range row {
			if v != 0 {
				m.Pix[y*w+x] = 1
			}
		}
	}
	return m, nil
}

// ForegroundThreshold is the grey level above which a mask image pixel is
// foreground. Lossy formats such as JPEG smear edges into low non-zero values.
const ForegroundThreshold = 127

// FromMat converts a single-channel 8-bit Mat to a mask. Pixels brighter than
// ForegroundThreshold become foreground.
func FromMat(mat gocv.Mat) (*Mask, error) {
	if mat.Empty() {
		return New(0, 0), nil
	}
	if mat.Channels() != 1 {
		return nil, fmt.Errorf("%w: expected 1 channel, got %d", ErrInvalidMask, mat.Channels())
	}

	binary := gocv.NewMat()
	defer binary.Close()
	gocv.Threshold(mat, &binary, ForegroundThreshold, 255, gocv.ThresholdBinary)

	h, w := binary.Rows(), binary.Cols()
	m := New(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if binary.GetUCharAt(y, x) != 0 {
				m.Pix[y*w+x] = 1
			}
		}
	}
	return m, nil
}

// ToMat renders the mask as a CV_8U Mat with foreground at 255.
// The caller must Close the returned Mat.
func (m *Mask) ToMat() gocv.Mat {
	if m.Empty() {
		return gocv.NewMat()
	}
	mat := gocv.NewMatWithSize(m.Height, m.Width, gocv.MatTypeCV8U)
	for y := 0; y < m.Height; y++ {
		row := m.Pix[y*m.Width : (y+1)*m.Width]
		for x, v := range row {
			if v != 0 {
				mat.SetUCharAt(y, x, 255)
			} else {
				mat.SetUCharAt(y, x, 0)
			}
		}
	}
	return mat
}

// Empty returns true for a zero-sized mask. An all-background mask of
// non-zero size is not empty.
func (m *Mask) Empty() bool {
	return m == nil || m.Width == 0 || m.Height == 0
}

// Validate checks the structural invariants of the mask.
func (m *Mask) Validate() error {
	if m == nil {
		return fmt.Errorf("%w: nil mask", ErrInvalidMask)
	}
	if m.Width < 0 || m.Height < 0 {
		return fmt.Errorf("%w: negative size %dx%d", ErrInvalidMask, m.Width, m.Height)
	}
	if len(m.Pix) != m.Width*m.Height {
		return fmt.Errorf("%w: %d pixels for %dx%d grid", ErrInvalidMask, len(m.Pix), m.Width, m.Height)
	}
	for i, v := range m.Pix {
		if v > 1 {
			return fmt.Errorf("%w: value %d at (%d,%d)", ErrInvalidMask, v, i%m.Width, i/m.Width)
		}
	}
	return nil
}

// At returns the value at (x, y); out-of-range coordinates are background.
func (m *Mask) At(x, y int) uint8 {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return 0
	}
	return m.Pix[y*m.Width+x]
}

// Set marks (x, y) as foreground or background. Out-of-range writes are ignored.
func (m *Mask) Set(x, y int, foreground bool) {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return
	}
	if foreground {
		m.Pix[y*m.Width+x] = 1
	} else {
		m.Pix[y*m.Width+x] = 0
	}
}

// Row returns the pixels of row y.
func (m *Mask) Row(y int) []uint8 {
	return m.Pix[y*m.Width : (y+1)*m.Width]
}

// RowCounts returns the number of foreground pixels in every row, top to bottom.
func (m *Mask) RowCounts() []float64 {
	if m.Empty() {
		return nil
	}
	counts := make([]float64, m.Height)
	for y := range counts {
		n := 0
		for _, v := range m.Row(y) {
			if v != 0 {
				n++
			}
		}
		counts[y] = float64(n)
	}
	return counts
}

// Count returns the total number of foreground pixels.
func (m *Mask) Count() int {
	counts := m.RowCounts()
	if len(counts) == 0 {
		return 0
	}
	return int(floats.Sum(counts))
}

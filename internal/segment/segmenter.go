// Package segment turns a frame into a binary object mask.
package segment

import (
	"errors"
	"fmt"
	"path/filepath"

	"weight-estimator/internal/mask"
	"weight-estimator/pkg/colorutil"
	"weight-estimator/pkg/geometry"

	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

// ErrCancelled is returned when the operator abandons ROI selection.
var ErrCancelled = errors.New("selection cancelled")

// GrabCut mask labels.
const (
	gcBackground         = 0
	gcForeground         = 1
	gcProbableBackground = 2
	gcProbableForeground = 3
)

// Segmenter produces an object mask for a frame. A nil mask with a nil error
// means nothing was segmented.
type Segmenter interface {
	Segment(frame gocv.Mat) (*mask.Mask, error)
}

// GrabCut segments the object inside a rectangle with OpenCV's GrabCut.
type GrabCut struct {
	Rect       geometry.RectInt
	Iterations int    // Defaults to 5
	SavePath   string // If set, the mask is written here for inspection
	Logger     *zap.Logger
}

// Segment implements Segmenter.
func (g GrabCut) Segment(frame gocv.Mat) (*mask.Mask, error) {
	if frame.Empty() {
		return nil, nil
	}
	logger := g.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bounds := geometry.NewRectInt(0, 0, frame.Cols(), frame.Rows())
	rect := g.Rect.Intersect(bounds)
	if rect.Empty() {
		return nil, fmt.Errorf("grabcut rect %s outside frame %dx%d", g.Rect, frame.Cols(), frame.Rows())
	}
	iterations := g.Iterations
	if iterations <= 0 {
		iterations = 5
	}

	logger.Info("running grabcut", zap.Stringer("rect", rect), zap.Int("iterations", iterations))

	labels := gocv.NewMatWithSize(frame.Rows(), frame.Cols(), gocv.MatTypeCV8U)
	defer labels.Close()
	bgdModel := gocv.NewMat()
	defer bgdModel.Close()
	fgdModel := gocv.NewMat()
	defer fgdModel.Close()

	gocv.GrabCut(frame, &labels, rect.ToImage(), &bgdModel, &fgdModel, iterations, gocv.GCInitWithRect)

	m := FromGrabCutLabels(labels)
	if g.SavePath != "" {
		saveMask(m, g.SavePath, logger)
	}
	return m, nil
}

// InsetGrabCut runs GrabCut on the whole frame minus a margin, for unattended
// runs where the object is roughly centred.
type InsetGrabCut struct {
	Percent    float64
	Iterations int
	SavePath   string
	Logger     *zap.Logger
}

// Segment implements Segmenter.
func (g InsetGrabCut) Segment(frame gocv.Mat) (*mask.Mask, error) {
	if frame.Empty() {
		return nil, nil
	}
	return GrabCut{
		Rect:       InsetRect(frame.Cols(), frame.Rows(), g.Percent),
		Iterations: g.Iterations,
		SavePath:   g.SavePath,
		Logger:     g.Logger,
	}.Segment(frame)
}

// FromGrabCutLabels keeps definite and probable foreground.
func FromGrabCutLabels(labels gocv.Mat) *mask.Mask {
	h, w := labels.Rows(), labels.Cols()
	m := mask.New(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			switch labels.GetUCharAt(y, x) {
			case gcForeground, gcProbableForeground:
				m.Set(x, y, true)
			}
		}
	}
	return m
}

// MaskFile loads a precomputed mask image. Pixels above
// mask.ForegroundThreshold are foreground, so JPEG masks are accepted.
type MaskFile struct {
	Path string
}

// Segment implements Segmenter. The frame is ignored.
func (f MaskFile) Segment(gocv.Mat) (*mask.Mask, error) {
	img := gocv.IMRead(f.Path, gocv.IMReadGrayScale)
	defer img.Close()
	if img.Empty() {
		return nil, fmt.Errorf("could not load mask: %s", f.Path)
	}
	return mask.FromMat(img)
}

// Static returns the same mask for every frame.
type Static struct {
	Mask *mask.Mask
}

// Segment implements Segmenter.
func (s Static) Segment(gocv.Mat) (*mask.Mask, error) {
	return s.Mask, nil
}

// Interactive lets the operator draw the GrabCut rectangle in a window.
// After each rectangle, 'n' accepts it, 'r' starts over and 'q' quits.
type Interactive struct {
	WindowName string
	Iterations int
	SavePath   string
	Logger     *zap.Logger
}

// Segment implements Segmenter.
func (i Interactive) Segment(frame gocv.Mat) (*mask.Mask, error) {
	if frame.Empty() {
		return nil, nil
	}
	name := i.WindowName
	if name == "" {
		name = "Select ROI"
	}

	window := gocv.NewWindow(name)
	defer window.Close()

	sel := Selection{}
	for !sel.Done() {
		r := geometry.FromImageRect(window.SelectROI(frame))
		if r.Empty() {
			sel = sel.Handle(Event{Kind: EventQuit})
			break
		}
		sel = sel.Run(Press(r.X, r.Y), Release(r.X+r.Width, r.Y+r.Height))

		preview := frame.Clone()
		gocv.Rectangle(&preview, sel.Rect.ToImage(), colorutil.Green, 2)
		window.IMShow(preview)
		key := window.WaitKey(0)
		preview.Close()

		switch key {
		case 'n':
			sel = sel.Handle(Event{Kind: EventAccept})
		case 'r':
			sel = sel.Handle(Event{Kind: EventReset})
		case 'q', 27:
			sel = sel.Handle(Event{Kind: EventQuit})
		}
	}

	if sel.State != StateCommitted {
		return nil, ErrCancelled
	}
	return GrabCut{
		Rect:       sel.Rect,
		Iterations: i.Iterations,
		SavePath:   i.SavePath,
		Logger:     i.Logger,
	}.Segment(frame)
}

func saveMask(m *mask.Mask, path string, logger *zap.Logger) {
	mat := m.ToMat()
	defer mat.Close()
	if mat.Empty() {
		return
	}
	if !gocv.IMWrite(filepath.Clean(path), mat) {
		logger.Warn("could not save segmentation mask", zap.String("path", path))
		return
	}
	logger.Debug("segmentation mask saved", zap.String("path", path))
}

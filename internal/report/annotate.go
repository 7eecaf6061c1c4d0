package report

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"weight-estimator/pkg/colorutil"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

// Reporter receives the outcome of a run together with the source frame.
type Reporter interface {
	Report(ctx context.Context, rec *Record, frame gocv.Mat) error
}

// Annotate draws the bounding box and weight label onto a copy of frame.
// The caller must Close the returned Mat.
func Annotate(frame gocv.Mat, rec Record) gocv.Mat {
	out := frame.Clone()

	if rec.BoundingBox != nil {
		gocv.Rectangle(&out, rec.BoundingBox.ToImage(), colorutil.Green, 2)
	}

	text := fmt.Sprintf("Weight: %.2f g", rec.WeightGrams)
	gocv.PutText(&out, text, image.Point{X: 10, Y: 30}, gocv.FontHersheySimplex, 1, colorutil.Green, 2)

	return out
}

// Annotator writes an annotated copy of the frame and a JSON record into Dir.
// File names are prefixed with the run ID so runs do not overwrite each other.
type Annotator struct {
	Dir    string
	Logger *zap.Logger
}

// Report implements Reporter. A missing frame only skips the image.
func (a Annotator) Report(_ context.Context, rec *Record, frame gocv.Mat) error {
	logger := a.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(a.Dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	prefix := rec.RunID
	if prefix == "" {
		prefix = "run"
	}

	if frame.Empty() {
		logger.Info("no frame to annotate")
	} else {
		out := Annotate(frame, *rec)
		defer out.Close()

		path := filepath.Join(a.Dir, prefix+"_output_frame.jpg")
		if !gocv.IMWrite(path, out) {
			return fmt.Errorf("failed to write %s", path)
		}
		rec.OutputImage = path
		logger.Info("annotated output frame saved", zap.String("path", path))
	}

	return SaveRecord(*rec, filepath.Join(a.Dir, prefix+"_record.json"))
}

// Multi fans a report out to several reporters and joins their errors.
type Multi []Reporter

// Report implements Reporter.
func (m Multi) Report(ctx context.Context, rec *Record, frame gocv.Mat) error {
	var err error
	for _, r := range m {
		err = multierr.Append(err, r.Report(ctx, rec, frame))
	}
	return err
}

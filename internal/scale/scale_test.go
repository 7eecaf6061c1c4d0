package scale

import (
	"math"
	"testing"

	"weight-estimator/pkg/colorutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gocv.io/x/gocv"
)

// blueFrame returns a black BGR frame with a pure blue rectangle.
func blueFrame(t *testing.T, rows, cols, x, y, w, h int) gocv.Mat {
	t.Helper()
	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), rows, cols, gocv.MatTypeCV8UC3)
	for r := y; r < y+h; r++ {
		for c := x; c < x+w; c++ {
			frame.SetUCharAt(r, c*3, 255)
		}
	}
	return frame
}

func TestManual(t *testing.T) {
	t.Parallel()

	f, err := Manual(0.05)
	require.NoError(t, err)
	assert.InDelta(t, 0.05, float64(f), 1e-12)

	for _, v := range []float64{0, -0.1, math.NaN(), math.Inf(1)} {
		_, err := Manual(v)
		assert.ErrorIs(t, err, ErrInvalidScale, "value %v", v)
	}
}

func TestManualStrategy(t *testing.T) {
	t.Parallel()

	s, err := NewManual(0.1)
	require.NoError(t, err)
	assert.Equal(t, "manual", s.Name())

	empty := gocv.NewMat()
	defer empty.Close()
	f, ok := s.Calibrate(empty)
	assert.True(t, ok, "manual strategy ignores the frame")
	assert.InDelta(t, 0.1, float64(f), 1e-12)

	_, err = NewManual(-1)
	assert.ErrorIs(t, err, ErrInvalidScale)
}

func TestFactor(t *testing.T) {
	t.Parallel()

	f := Factor(0.25)
	assert.True(t, f.Valid())
	assert.InDelta(t, 2.5, f.Cm(10), 1e-12)
	assert.Equal(t, "0.2500 cm/px", f.String())
	assert.False(t, Factor(0).Valid())
}

func TestFromReference(t *testing.T) {
	t.Parallel()

	frame := blueFrame(t, 100, 120, 30, 20, 40, 25)
	defer frame.Close()

	f, ok := FromReference(frame, 2.0)
	require.True(t, ok)
	assert.InDelta(t, 0.05, float64(f), 1e-9)

	det, ok := DetectReference(frame, DefaultReferenceParams())
	require.True(t, ok)
	assert.Equal(t, 40, det.WidthPixels)
	assert.Equal(t, 30, det.Bounds.Min.X)
}

func TestFromReference_NoReference(t *testing.T) {
	t.Parallel()

	frame := blueFrame(t, 50, 50, 0, 0, 0, 0)
	defer frame.Close()

	core, logs := observer.New(zapcore.WarnLevel)
	s := NewReference(2.0, DefaultReferenceParams(), zap.New(core))

	f, ok := s.Calibrate(frame)
	assert.False(t, ok)
	assert.Zero(t, float64(f))
	assert.Equal(t, 1, logs.FilterMessage("no reference object found").Len())
}

func TestFromReference_EmptyFrame(t *testing.T) {
	t.Parallel()

	empty := gocv.NewMat()
	defer empty.Close()

	_, ok := FromReference(empty, 2.0)
	assert.False(t, ok)
}

func TestFromReference_UnusableKnownSize(t *testing.T) {
	t.Parallel()

	frame := blueFrame(t, 60, 60, 10, 10, 20, 20)
	defer frame.Close()

	_, ok := FromReference(frame, 0)
	assert.False(t, ok, "a zero known size cannot give a positive factor")
}

func TestReferenceParams(t *testing.T) {
	t.Parallel()

	p := DefaultReferenceParams().WithHSV(0, 10, 100, 255, 100, 255).WithOpenIterations(-3)
	assert.Equal(t, 0, p.OpenIterations)
	assert.Equal(t, 10.0, p.Band.HueMax)
	assert.True(t, p.Band.Valid())

	// Default params are untouched by the With* copies.
	assert.Equal(t, colorutil.BlueBand, DefaultReferenceParams().Band)
	assert.True(t, colorutil.BlueBand.ContainsRGB(colorutil.Blue))
	assert.False(t, colorutil.BlueBand.ContainsRGB(colorutil.Red))
}

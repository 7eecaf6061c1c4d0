// Package capture acquires the single frame a weight estimate is made from.
package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gocv.io/x/gocv"
	_ "golang.org/x/image/tiff"
)

// ErrNoFrame is returned when no frame could be acquired.
var ErrNoFrame = errors.New("no frame")

// Source supplies one BGR frame per call. The caller must Close the Mat.
type Source interface {
	Frame(ctx context.Context) (gocv.Mat, error)
}

// File reads a frame from an image file (TIFF, PNG or JPEG).
type File struct {
	Path string
}

// Frame implements Source.
func (f File) Frame(ctx context.Context) (gocv.Mat, error) {
	if err := ctx.Err(); err != nil {
		return gocv.NewMat(), err
	}
	img, err := Load(f.Path)
	if err != nil {
		return gocv.NewMat(), err
	}
	mat, err := ImageToMat(img)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("%w: %s: %v", ErrNoFrame, f.Path, err)
	}
	return mat, nil
}

// Load decodes an image file.
func Load(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open image: %v", ErrNoFrame, err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode image: %v", ErrNoFrame, err)
	}
	return img, nil
}

// Camera grabs a single frame from a video device. The device is opened and
// released on every call.
type Camera struct {
	Device   int
	SavePath string // If set, the captured frame is also written here
	Logger   *zap.Logger
}

// Frame implements Source.
func (c Camera) Frame(ctx context.Context) (gocv.Mat, error) {
	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := ctx.Err(); err != nil {
		return gocv.NewMat(), err
	}

	logger.Info("capturing frame", zap.Int("device", c.Device))
	webcam, err := gocv.OpenVideoCapture(c.Device)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("%w: could not open camera device %d: %v", ErrNoFrame, c.Device, err)
	}
	defer webcam.Close()

	frame := gocv.NewMat()
	if ok := webcam.Read(&frame); !ok || frame.Empty() {
		frame.Close()
		return gocv.NewMat(), fmt.Errorf("%w: failed to read from camera device %d", ErrNoFrame, c.Device)
	}

	if c.SavePath != "" {
		if err := os.MkdirAll(filepath.Dir(c.SavePath), 0o755); err != nil {
			logger.Warn("could not create capture directory", zap.Error(err))
		} else if !gocv.IMWrite(c.SavePath, frame) {
			logger.Warn("could not save captured frame", zap.String("path", c.SavePath))
		} else {
			logger.Info("frame saved", zap.String("path", c.SavePath))
		}
	}

	return frame, nil
}

// SupportedFormats returns the list of supported image file extensions.
func SupportedFormats() []string {
	return []string{".tiff", ".tif", ".png", ".jpg", ".jpeg"}
}

// IsSupportedFormat checks if the given path has a supported image format.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}

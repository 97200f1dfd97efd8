package imageprocessor

import (
	"fmt"
	"image"
	"math"
	"os"
	"runtime/debug"
	"time"

	"photobatch/logging"
	"photobatch/types"

	"github.com/djherbis/times"
	"gocv.io/x/gocv"
)

// TransformResult describes one written output file
type TransformResult struct {
	Before  types.Dimensions
	After   types.Dimensions
	NewSize int64
}

// ImageTransformer rotates, resizes and re-encodes JPEG files with OpenCV
type ImageTransformer struct{}

// NewImageTransformer creates a transformer
func NewImageTransformer() *ImageTransformer {
	return &ImageTransformer{}
}

// RotationFor maps an EXIF orientation to an OpenCV rotation.
// Orientations other than 3, 6 and 8 need no rotation.
func RotationFor(orientation int) (gocv.RotateFlag, bool) {
	switch orientation {
	case 3:
		return gocv.Rotate180Clockwise, true
	case 6:
		return gocv.Rotate90Clockwise, true
	case 8:
		return gocv.Rotate90CounterClockwise, true
	default:
		return 0, false
	}
}

// ScaleDimensions fits width x height into maxSize on the long edge. Images that already fit
// are returned unchanged; there is no upscaling.
func ScaleDimensions(width, height, maxSize int) (int, int) {
	longEdge := width
	if height > longEdge {
		longEdge = height
	}
	if longEdge <= maxSize || longEdge == 0 {
		return width, height
	}

	ratio := float64(maxSize) / float64(longEdge)
	newWidth := int(math.Round(float64(width) * ratio))
	newHeight := int(math.Round(float64(height) * ratio))
	if newWidth < 1 {
		newWidth = 1
	}
	if newHeight < 1 {
		newHeight = 1
	}
	return newWidth, newHeight
}

// Transform decodes src, applies rotation and resizing, and writes a JPEG to dst
func (t *ImageTransformer) Transform(src, dst string, meta types.FileMetadata, cfg types.ProcessingConfig) (result TransformResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			logging.LogError("Panic during transform of %s: %v\nStack trace: %s", src, r, string(debug.Stack()))
			err = fmt.Errorf("panic during transform: %v", r)
		}
	}()

	data, err := os.ReadFile(src)
	if err != nil {
		return result, fmt.Errorf("cannot read %s: %v", src, err)
	}

	img, err := gocv.IMDecode(data, gocv.IMReadColor|gocv.IMReadIgnoreOrientation)
	if err != nil {
		return result, fmt.Errorf("cannot decode image: %v", err)
	}
	defer img.Close()
	if img.Empty() {
		return result, fmt.Errorf("cannot decode image: empty result")
	}

	result.Before = types.Dimensions{Width: img.Cols(), Height: img.Rows()}

	current := img
	if cfg.AutoRotate {
		if flag, ok := RotationFor(meta.Orientation); ok {
			rotated := gocv.NewMat()
			defer rotated.Close()
			gocv.Rotate(current, &rotated, flag)
			if rotated.Empty() {
				return result, fmt.Errorf("rotation failed for orientation %d", meta.Orientation)
			}
			current = rotated
		}
	}

	width, height := ScaleDimensions(current.Cols(), current.Rows(), cfg.MaxSize)
	if width != current.Cols() || height != current.Rows() {
		resized := gocv.NewMat()
		defer resized.Close()
		gocv.Resize(current, &resized, image.Point{X: width, Y: height}, 0, 0, gocv.InterpolationArea)
		if resized.Empty() {
			return result, fmt.Errorf("resize to %dx%d failed", width, height)
		}
		current = resized
	}

	result.After = types.Dimensions{Width: current.Cols(), Height: current.Rows()}

	params := []int{int(gocv.IMWriteJpegQuality), cfg.Quality}
	if cfg.Progressive {
		params = append(params, int(gocv.IMWriteJpegProgressive), 1)
	}
	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, current, params)
	if err != nil {
		return result, fmt.Errorf("cannot encode JPEG: %v", err)
	}
	defer buf.Close()

	encoded := buf.GetBytes()
	if len(encoded) == 0 {
		return result, fmt.Errorf("cannot encode JPEG: empty output")
	}
	if err := os.WriteFile(dst, encoded, 0644); err != nil {
		return result, fmt.Errorf("cannot write %s: %v", dst, err)
	}
	result.NewSize = int64(len(encoded))

	if cfg.PreserveExif {
		if err := PreserveFileTimes(src, dst, meta); err != nil {
			logging.LogWarning("Cannot set file times on %s: %v", dst, err)
		}
	}

	return result, nil
}

// PreserveFileTimes sets the modification time of dst to the capture time and its access
// time to the access time of src
func PreserveFileTimes(src, dst string, meta types.FileMetadata) error {
	mtime := meta.CaptureTime()
	if mtime.IsZero() {
		return nil
	}

	atime := mtime
	if ts, err := times.Stat(src); err == nil {
		atime = ts.AccessTime()
	}
	if atime.IsZero() {
		atime = mtime
	}

	return os.Chtimes(dst, atime, mtime.Truncate(time.Second))
}

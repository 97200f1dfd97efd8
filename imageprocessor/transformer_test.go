package imageprocessor

import (
	"image"
	_ "image/jpeg"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"photobatch/types"
)

func TestScaleDimensions(t *testing.T) {
	tests := []struct {
		name         string
		w, h, limit  int
		wantW, wantH int
	}{
		{"landscape downscale", 2000, 1000, 800, 800, 400},
		{"no upscale", 600, 400, 800, 600, 400},
		{"portrait downscale", 1000, 3000, 1500, 500, 1500},
		{"exact fit", 800, 600, 800, 800, 600},
		{"rounding", 1001, 333, 500, 500, 166},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := ScaleDimensions(tt.w, tt.h, tt.limit)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
		})
	}
}

func TestRotationFor(t *testing.T) {
	flag, ok := RotationFor(3)
	assert.True(t, ok)
	assert.Equal(t, gocv.Rotate180Clockwise, flag)

	flag, ok = RotationFor(6)
	assert.True(t, ok)
	assert.Equal(t, gocv.Rotate90Clockwise, flag)

	flag, ok = RotationFor(8)
	assert.True(t, ok)
	assert.Equal(t, gocv.Rotate90CounterClockwise, flag)

	for _, o := range []int{0, 1, 2, 4, 5, 7} {
		_, ok := RotationFor(o)
		assert.False(t, ok, "orientation %d", o)
	}
}

func decodeSize(t *testing.T, path string) (int, int) {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	require.NoError(t, err)
	return cfg.Width, cfg.Height
}

func TestTransformResizeAndRotate(t *testing.T) {
	dir := t.TempDir()
	src := writeTestJPEG(t, dir, "wide.jpg", 400, 200)
	captured := time.Date(2020, 5, 4, 10, 0, 0, 0, time.Local)

	tests := []struct {
		name        string
		orientation int
		autoRotate  bool
		wantW       int
		wantH       int
	}{
		{"resize only", 1, true, 100, 50},
		{"rotate 90", 6, true, 50, 100},
		{"rotate 180", 3, true, 100, 50},
		{"rotation disabled", 8, false, 100, 50},
	}

	tr := NewImageTransformer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := filepath.Join(dir, tt.name+".jpeg")
			meta := types.FileMetadata{
				Width:         400,
				Height:        200,
				FileTimestamp: time.Now(),
				ExifTimestamp: &captured,
				Orientation:   tt.orientation,
			}
			cfg := types.ProcessingConfig{MaxSize: 100, Quality: 80, Progressive: true, PreserveExif: true, AutoRotate: tt.autoRotate}

			res, err := tr.Transform(src, dst, meta, cfg)
			require.NoError(t, err)
			assert.Equal(t, types.Dimensions{Width: 400, Height: 200}, res.Before)
			assert.Equal(t, types.Dimensions{Width: tt.wantW, Height: tt.wantH}, res.After)

			w, h := decodeSize(t, dst)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)

			info, err := os.Stat(dst)
			require.NoError(t, err)
			assert.Equal(t, res.NewSize, info.Size())
			assert.True(t, info.ModTime().Equal(captured), "mtime %v", info.ModTime())
		})
	}
}

func TestTransformRejectsGarbage(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "bad.jpg")
	require.NoError(t, os.WriteFile(src, []byte("nope"), 0644))

	_, err := NewImageTransformer().Transform(src, filepath.Join(dir, "out.jpeg"), types.FileMetadata{}, types.ProcessingConfig{MaxSize: 100, Quality: 80})
	assert.Error(t, err)
}

package imageprocessor

import (
	"errors"
	"testing"
	"time"

	"github.com/barasher/go-exiftool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExif struct {
	fields map[string]interface{}
	err    error
	calls  int
}

func (f *fakeExif) ExtractMetadata(files ...string) []exiftool.FileMetadata {
	f.calls++
	return []exiftool.FileMetadata{{File: files[0], Fields: f.fields, Err: f.err}}
}

func (f *fakeExif) Close() error { return nil }

func TestParseExifDate(t *testing.T) {
	tests := []struct {
		raw  string
		ok   bool
		want time.Time
	}{
		{"2023:06:15 14:30:05", true, time.Date(2023, 6, 15, 14, 30, 5, 0, time.Local)},
		{"2023:06:15 14:30:05.123", true, time.Date(2023, 6, 15, 14, 30, 5, 0, time.Local)},
		{"2023:06:15 14:30:05+02:00", true, time.Date(2023, 6, 15, 14, 30, 5, 0, time.Local)},
		{"0000:00:00 00:00:00", false, time.Time{}},
		{"2023-06-15", false, time.Time{}},
		{"garbage", false, time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseExifDate(tt.raw)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, tt.want.Equal(got), "got %v", got)
			}
		})
	}
}

func TestExtractPrecedenceAndOrientation(t *testing.T) {
	dir := t.TempDir()
	path := writeTestJPEG(t, dir, "a.jpg", 40, 20)

	tests := []struct {
		name        string
		fields      map[string]interface{}
		wantDate    *time.Time
		orientation int
	}{
		{
			name: "original date wins",
			fields: map[string]interface{}{
				"DateTimeOriginal": "2021:01:02 03:04:05",
				"ModifyDate":       "2022:01:02 03:04:05",
				"Orientation":      float64(6),
			},
			wantDate:    ptr(time.Date(2021, 1, 2, 3, 4, 5, 0, time.Local)),
			orientation: 6,
		},
		{
			name: "unparsable original falls through",
			fields: map[string]interface{}{
				"DateTimeOriginal": "0000:00:00 00:00:00",
				"ModifyDate":       "2022:01:02 03:04:05",
			},
			wantDate: ptr(time.Date(2022, 1, 2, 3, 4, 5, 0, time.Local)),
		},
		{
			name:        "no dates",
			fields:      map[string]interface{}{"Orientation": "3"},
			orientation: 3,
		},
		{
			name:   "orientation out of range ignored",
			fields: map[string]interface{}{"Orientation": float64(42)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMetadataExtractorWithReader(&fakeExif{fields: tt.fields})
			meta, err := m.Extract(path)
			require.NoError(t, err)

			assert.Equal(t, 40, meta.Width)
			assert.Equal(t, 20, meta.Height)
			assert.False(t, meta.FileTimestamp.IsZero())
			assert.Equal(t, tt.orientation, meta.Orientation)
			if tt.wantDate == nil {
				assert.Nil(t, meta.ExifTimestamp)
			} else {
				require.NotNil(t, meta.ExifTimestamp)
				assert.True(t, tt.wantDate.Equal(*meta.ExifTimestamp))
			}
		})
	}
}

func TestExtractWithoutExifSupport(t *testing.T) {
	path := writeTestJPEG(t, t.TempDir(), "a.jpg", 10, 10)
	m := &MetadataExtractor{}
	assert.False(t, m.ExifSupported())

	meta, err := m.Extract(path)
	require.NoError(t, err)
	assert.Nil(t, meta.ExifTimestamp)
	assert.Zero(t, meta.Orientation)
	assert.False(t, meta.FileTimestamp.IsZero())
}

func TestExtractExiftoolErrorIsSoft(t *testing.T) {
	path := writeTestJPEG(t, t.TempDir(), "a.jpg", 10, 10)
	m := newMetadataExtractorWithReader(&fakeExif{err: errors.New("boom")})

	meta, err := m.Extract(path)
	require.NoError(t, err)
	assert.Nil(t, meta.ExifTimestamp)
}

func TestExtractMissingFile(t *testing.T) {
	m := &MetadataExtractor{}
	_, err := m.Extract("/does/not/exist.jpg")
	assert.Error(t, err)
}

func ptr(t time.Time) *time.Time { return &t }

package imageprocessor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsJPEGFile(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"photo.jpg", true},
		{"photo.JPG", true},
		{"photo.Jpeg", true},
		{"photo.png", false},
		{"photo", false},
		{"photo.jpg.exe", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsJPEGFile(tt.name))
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"IMG_0001.JPG", "IMG_0001.JPG"},
		{"my holiday photo.jpg", "my_holiday_photo.jpg"},
		{"zdjęcie (1).jpg", "zdj_cie_1_.jpg"},
		{"../../etc/passwd", "passwd"},
		{"__weird__.jpg", "weird_.jpg"},
		{"???", "image"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFilename(tt.in))
		})
	}
}

func TestIsJPEGMime(t *testing.T) {
	assert.True(t, IsJPEGMime("image/jpeg"))
	assert.True(t, IsJPEGMime("image/jpg"))
	assert.False(t, IsJPEGMime("image/png"))
	assert.False(t, IsJPEGMime("application/octet-stream"))
}

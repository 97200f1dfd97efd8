package imageprocessor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"photobatch/types"
)

func TestGenerateOutputName(t *testing.T) {
	captured := time.Date(2023, 6, 15, 14, 30, 0, 0, time.Local)

	tests := []struct {
		name     string
		original string
		index    int
		format   types.OutputFormat
		captured *time.Time
		want     string
	}{
		{"numbered upper ext", "IMG_1.JPG", 2, types.OutputNumbered, nil, "003_IMG_1.jpeg"},
		{"numbered lower ext", "IMG_1.jpeg", 2, types.OutputNumbered, nil, "003_IMG_1.jpeg"},
		{"numbered mixed ext", "IMG_1.Jpg", 2, types.OutputNumbered, nil, "003_IMG_1.jpeg"},
		{"numbered first", "a.jpg", 0, types.OutputNumbered, nil, "001_a.jpeg"},
		{"dated with capture", "a.jpg", 0, types.OutputDated, &captured, "2023-06-15_a.jpeg"},
		{"dated without capture", "a.jpg", 0, types.OutputDated, nil, "a.jpeg"},
		{"original", "holiday.JPG", 5, types.OutputOriginal, &captured, "holiday.jpeg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GenerateOutputName(tt.original, tt.index, tt.format, tt.captured))
		})
	}
}

func TestUniqueName(t *testing.T) {
	used := map[string]bool{}
	taken := func(n string) bool { return used[n] }

	first := UniqueName("IMG_0001.jpeg", taken)
	used[first] = true
	second := UniqueName("IMG_0001.jpeg", taken)
	used[second] = true
	third := UniqueName("IMG_0001.jpeg", taken)

	assert.Equal(t, "IMG_0001.jpeg", first)
	assert.Equal(t, "IMG_0001_1.jpeg", second)
	assert.Equal(t, "IMG_0001_2.jpeg", third)
}

func TestUniqueNameLowestFreeSuffix(t *testing.T) {
	used := map[string]bool{"a.jpeg": true, "a_2.jpeg": true}
	assert.Equal(t, "a_1.jpeg", UniqueName("a.jpeg", func(n string) bool { return used[n] }))
}

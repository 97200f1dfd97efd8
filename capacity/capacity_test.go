package capacity

import (
	"fmt"
	"testing"
	"time"

	"photobatch/config"
	"photobatch/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLimits() config.Limits {
	return config.Limits{
		MaxFileSizeMB:       50,
		MaxFileUploads:      350,
		PostMaxSizeMB:       8000,
		UploadMaxFilesizeMB: 100,
		MaxInputVars:        8000,
		MaxExecutionTime:    20 * time.Minute,
		MemoryLimitMB:       4096,
	}
}

func manifest(count int, size int64) []types.ManifestEntry {
	entries := make([]types.ManifestEntry, count)
	for i := range entries {
		entries[i] = types.ManifestEntry{Name: fmt.Sprintf("IMG_%04d.JPG", i), Size: size, Type: "image/jpeg"}
	}
	return entries
}

func TestClassifyCount(t *testing.T) {
	tests := []struct {
		count int
		want  BandStatus
	}{
		{0, BandOptimal},
		{15, BandOptimal},
		{16, BandGood},
		{75, BandGood},
		{76, BandWarning},
		{300, BandWarning},
		{301, BandError},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.count), func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyCount(tt.count).Status)
		})
	}
}

func TestIsAcceptedType(t *testing.T) {
	tests := []struct {
		name, mime string
		want       bool
	}{
		{"a.jpg", "image/jpeg", true},
		{"a.JPEG", "", true},
		{"a.jpeg", "application/octet-stream", true},
		{"a.jpg", "image/jpg", true},
		{"a.png", "image/jpeg", false},
		{"a.jpg", "image/png", false},
		{"", "image/jpeg", false},
	}

	for _, tt := range tests {
		t.Run(tt.name+"|"+tt.mime, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAcceptedType(tt.name, tt.mime))
		})
	}
}

func TestPlanSmallBatch(t *testing.T) {
	p := NewPlanner(testLimits())
	r := p.Plan(manifest(15, 2*1024*1024))

	assert.Equal(t, StatusOK, r.ValidationStatus)
	assert.True(t, r.CanProcess)
	assert.Equal(t, BandOptimal, r.FileValidation.Status)
	assert.Empty(t, r.Errors)
	assert.Empty(t, r.Warnings)
	assert.Empty(t, r.Recommendations)
	assert.Equal(t, 15, r.Summary.FileCount)
	assert.InDelta(t, 30.0, r.Summary.TotalSizeMB, 0.001)
	assert.InDelta(t, 150.0, r.Summary.EstimatedMemoryMB, 0.001)
	assert.Len(t, r.FileDetails, 15)
	assert.Equal(t, "2.0 MiB", r.FileDetails[0].SizeFormatted)
}

func TestPlanEstimates(t *testing.T) {
	p := NewPlanner(testLimits())

	r := p.Plan(manifest(60, 1024*1024))
	assert.InDelta(t, 0.5, r.Summary.EstimatedTimeMin, 0.001)
	assert.InDelta(t, 2.0, r.Summary.EstimatedTimeMax, 0.001)
	assert.Equal(t, "0.5-2.0 min", r.Summary.EstimatedTime)
	assert.Contains(t, r.Recommendations, "files can be sent all at once or in batches")

	// 30MB average doubles past the per-file ceiling
	r = p.Plan(manifest(20, 30*1024*1024))
	assert.InDelta(t, 1000.0, r.Summary.EstimatedMemoryMB, 0.001)
	assert.Len(t, r.Warnings, 1)
	assert.Contains(t, r.Warnings[0], "large upload")
}

func TestPlanBands(t *testing.T) {
	p := NewPlanner(testLimits())

	warn := p.Plan(manifest(76, 100*1024))
	assert.Equal(t, StatusOK, warn.ValidationStatus)
	assert.Equal(t, BandWarning, warn.FileValidation.Status)
	assert.Contains(t, warn.Warnings, warn.FileValidation.Message)
	assert.Contains(t, warn.Recommendations, "use progressive mode for better performance")

	tooMany := p.Plan(manifest(301, 100*1024))
	assert.Equal(t, StatusError, tooMany.ValidationStatus)
	assert.False(t, tooMany.CanProcess)
	assert.Contains(t, tooMany.Errors, tooMany.FileValidation.Message)
}

func TestPlanLimitIssues(t *testing.T) {
	limits := testLimits()
	limits.MaxFileUploads = 10
	limits.MaxInputVars = 40
	limits.PostMaxSizeMB = 5
	p := NewPlanner(limits)

	r := p.Plan(manifest(12, 1024*1024))
	assert.False(t, r.CapacityCheck.OK)
	require.Len(t, r.CapacityCheck.Issues, 3)
	assert.Equal(t, StatusError, r.ValidationStatus)
	assert.Subset(t, r.Errors, r.CapacityCheck.Issues)
}

func TestPlanMemoryCeiling(t *testing.T) {
	limits := testLimits()
	limits.MemoryLimitMB = 100
	p := NewPlanner(limits)

	r := p.Plan(manifest(10, 1024))
	assert.Equal(t, StatusError, r.ValidationStatus)
	assert.Contains(t, r.Errors[len(r.Errors)-1], "estimated memory use")
	assert.Contains(t, r.Warnings, "high memory use, batch processing may be needed")
}

func TestPlanInvalidTypes(t *testing.T) {
	p := NewPlanner(testLimits())
	entries := manifest(3, 1024)
	entries[1] = types.ManifestEntry{Name: "notes.txt", Size: 10, Type: "text/plain"}

	r := p.Plan(entries)
	assert.Equal(t, StatusError, r.ValidationStatus)
	assert.False(t, r.FileDetails[1].ValidType)
	assert.Contains(t, r.Errors, "some files are not JPEG images: notes.txt")
}

func TestPlanEmptyAndRepeatable(t *testing.T) {
	p := NewPlanner(testLimits())

	empty := p.Plan(nil)
	assert.Equal(t, StatusError, empty.ValidationStatus)
	assert.Equal(t, 0.0, empty.Summary.EstimatedMemoryMB)

	entries := manifest(40, 3*1024*1024)
	assert.Equal(t, p.Plan(entries), p.Plan(entries))
}

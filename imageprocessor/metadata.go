package imageprocessor

import (
	"fmt"
	"image"
	"os"
	"strings"
	"sync"
	"time"

	"photobatch/logging"
	"photobatch/types"

	"github.com/barasher/go-exiftool"
)

// Capture date tags in order of precedence
var exifDateTags = []string{
	"DateTimeOriginal",
	"ModifyDate",
}

const (
	exifDateLayout     = "2006-01-02 15:04:05"
	exifOrientationTag = "Orientation"
)

type exifReader interface {
	ExtractMetadata(files ...string) []exiftool.FileMetadata
	Close() error
}

// MetadataExtractor reads dimensions, file time, capture time and orientation of staged files
type MetadataExtractor struct {
	reader exifReader
	mu     sync.Mutex
}

// NewMetadataExtractor starts a shared exiftool process.
// When exiftool is unavailable the extractor still works but reports no EXIF data.
func NewMetadataExtractor() *MetadataExtractor {
	et, err := exiftool.NewExiftool(exiftool.NoPrintConversion())
	if err != nil {
		logging.LogWarning("exiftool unavailable, EXIF extraction disabled: %v", err)
		return &MetadataExtractor{}
	}
	return &MetadataExtractor{reader: et}
}

func newMetadataExtractorWithReader(r exifReader) *MetadataExtractor {
	return &MetadataExtractor{reader: r}
}

// ExifSupported reports whether EXIF extraction is available
func (m *MetadataExtractor) ExifSupported() bool {
	return m.reader != nil
}

// Close stops the exiftool process
func (m *MetadataExtractor) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.reader == nil {
		return nil
	}
	err := m.reader.Close()
	m.reader = nil
	return err
}

// Extract returns the metadata of one file. Only a missing file is an error;
// absent or malformed EXIF fields are simply left empty.
func (m *MetadataExtractor) Extract(path string) (types.FileMetadata, error) {
	var meta types.FileMetadata

	info, err := os.Stat(path)
	if err != nil {
		return meta, fmt.Errorf("cannot stat file %s: %v", path, err)
	}
	meta.FileTimestamp = info.ModTime()

	if f, err := os.Open(path); err == nil {
		if cfg, _, err := image.DecodeConfig(f); err == nil {
			meta.Width, meta.Height = cfg.Width, cfg.Height
		}
		f.Close()
	}

	fields, ok := m.readExif(path)
	if !ok {
		return meta, nil
	}

	meta.ExifTimestamp = CaptureTimeFromExif(fields)
	if o, err := fields.GetInt(exifOrientationTag); err == nil && o >= 1 && o <= 8 {
		meta.Orientation = int(o)
	}

	return meta, nil
}

func (m *MetadataExtractor) readExif(path string) (exiftool.FileMetadata, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.reader == nil {
		return exiftool.FileMetadata{}, false
	}

	results := m.reader.ExtractMetadata(path)
	if len(results) == 0 {
		return exiftool.FileMetadata{}, false
	}
	if results[0].Err != nil {
		logging.DebugLog("exiftool failed for %s: %v", path, results[0].Err)
		return exiftool.FileMetadata{}, false
	}
	return results[0], true
}

// CaptureTimeFromExif returns the first capture date tag that parses, or nil
func CaptureTimeFromExif(fields exiftool.FileMetadata) *time.Time {
	for _, tag := range exifDateTags {
		raw, err := fields.GetString(tag)
		if err != nil || raw == "" {
			continue
		}
		if ts, ok := ParseExifDate(raw); ok {
			return &ts
		}
	}
	return nil
}

// ParseExifDate parses "YYYY:MM:DD HH:MM:SS". The date colons are rewritten to dashes
// before parsing; the time part keeps its colons. Sub-second and zone suffixes are ignored.
func ParseExifDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if len(raw) < len(exifDateLayout) {
		return time.Time{}, false
	}
	raw = raw[:len(exifDateLayout)]
	if raw[4] != ':' || raw[7] != ':' {
		return time.Time{}, false
	}
	normalized := raw[:4] + "-" + raw[5:7] + "-" + raw[8:]

	ts, err := time.ParseInLocation(exifDateLayout, normalized, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

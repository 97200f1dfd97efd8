package imageprocessor

import (
	"path/filepath"
	"regexp"
	"strings"
)

// OutputExtension is the extension every processed file gets
const OutputExtension = ".jpeg"

// Accepted MIME types after content sniffing
var jpegMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
}

var (
	unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
	repeatedUnders  = regexp.MustCompile(`_+`)
)

// IsJPEGFile checks the extension of a file name, case-insensitively
func IsJPEGFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg":
		return true
	default:
		return false
	}
}

// IsJPEGMime reports whether a sniffed content type is JPEG
func IsJPEGMime(mime string) bool {
	return jpegMimeTypes[strings.ToLower(mime)]
}

// SanitizeFilename keeps letters, digits, dots, dashes and underscores
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = unsafeNameChars.ReplaceAllString(name, "_")
	name = repeatedUnders.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_")
	if name == "" || name == "." || name == ".." {
		return "image"
	}
	return name
}

// BaseName strips the directory and the extension
func BaseName(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

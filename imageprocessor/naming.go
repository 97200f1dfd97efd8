package imageprocessor

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"photobatch/types"
)

// GenerateOutputName names the output of the file at zero-based position index.
// The extension is always normalized to .jpeg.
func GenerateOutputName(originalName string, index int, format types.OutputFormat, captured *time.Time) string {
	base := BaseName(originalName)

	switch format {
	case types.OutputNumbered:
		return fmt.Sprintf("%03d_%s%s", index+1, base, OutputExtension)
	case types.OutputDated:
		if captured != nil {
			return captured.Format("2006-01-02") + "_" + base + OutputExtension
		}
		return base + OutputExtension
	default:
		return base + OutputExtension
	}
}

// UniqueName returns name if it is free, otherwise name with the lowest free "_n" suffix
// inserted before the extension. taken reports whether a candidate is already used.
func UniqueName(name string, taken func(string) bool) string {
	if !taken(name) {
		return name
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, n, ext)
		if !taken(candidate) {
			return candidate
		}
	}
}

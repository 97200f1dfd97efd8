package imageprocessor

import (
	"slices"
	"strings"
	"time"

	"photobatch/types"
)

// MissingDateSentinel orders undated files after every dated file in a merge
var MissingDateSentinel = time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)

// SortableFile is a validated upload together with its metadata
type SortableFile struct {
	Upload   types.UploadedFile
	Metadata types.FileMetadata
}

// SortFiles orders files in place. The sort is stable and a descending order flips the
// comparator sign, so equal keys keep their input order in both directions.
// By exif_date, files with an EXIF date sort before undated ones (after them when descending).
func SortFiles(files []SortableFile, by types.SortKey, order types.SortOrder) {
	sign := 1
	if order == types.SortDesc {
		sign = -1
	}

	var cmp func(a, b SortableFile) int
	switch by {
	case types.SortByFilename:
		cmp = compareNames
	case types.SortByFileDate:
		cmp = func(a, b SortableFile) int {
			return a.Metadata.FileTimestamp.Compare(b.Metadata.FileTimestamp)
		}
	default:
		cmp = compareCaptureDates
	}

	slices.SortStableFunc(files, func(a, b SortableFile) int {
		return sign * cmp(a, b)
	})
}

func compareNames(a, b SortableFile) int {
	return strings.Compare(strings.ToLower(a.Upload.OriginalName), strings.ToLower(b.Upload.OriginalName))
}

// Files with an EXIF date come first; within each group the capture time
// (EXIF, else file time) decides.
func compareCaptureDates(a, b SortableFile) int {
	aDated := a.Metadata.ExifTimestamp != nil
	bDated := b.Metadata.ExifTimestamp != nil
	if aDated != bDated {
		if aDated {
			return -1
		}
		return 1
	}
	return a.Metadata.CaptureTime().Compare(b.Metadata.CaptureTime())
}

// SortByDateTaken orders processed files by capture date ascending, undated last
func SortByDateTaken(files []types.ProcessedFile) {
	slices.SortStableFunc(files, func(a, b types.ProcessedFile) int {
		return dateOrSentinel(a.DateTaken).Compare(dateOrSentinel(b.DateTaken))
	})
}

func dateOrSentinel(t *time.Time) time.Time {
	if t == nil {
		return MissingDateSentinel
	}
	return *t
}

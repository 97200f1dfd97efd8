package imageprocessor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"photobatch/types"
)

func file(name string, fileTS time.Time, exifTS *time.Time) SortableFile {
	return SortableFile{
		Upload:   types.UploadedFile{OriginalName: name},
		Metadata: types.FileMetadata{FileTimestamp: fileTS, ExifTimestamp: exifTS},
	}
}

func names(files []SortableFile) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Upload.OriginalName
	}
	return out
}

func ts(day int) *time.Time {
	t := time.Date(2023, 1, day, 12, 0, 0, 0, time.UTC)
	return &t
}

func TestSortByFilenameAscDesc(t *testing.T) {
	now := time.Now()
	input := []SortableFile{
		file("b.jpg", now, nil),
		file("A.jpg", now, nil),
		file("c.jpg", now, nil),
	}

	asc := append([]SortableFile(nil), input...)
	SortFiles(asc, types.SortByFilename, types.SortAsc)
	assert.Equal(t, []string{"A.jpg", "b.jpg", "c.jpg"}, names(asc))

	desc := append([]SortableFile(nil), input...)
	SortFiles(desc, types.SortByFilename, types.SortDesc)
	assert.Equal(t, []string{"c.jpg", "b.jpg", "A.jpg"}, names(desc))
}

func TestSortTiesKeepInputOrderBothDirections(t *testing.T) {
	now := time.Now()
	first := file("same.jpg", now, nil)
	first.Upload.SanitizedName = "first"
	second := file("SAME.jpg", now, nil)
	second.Upload.SanitizedName = "second"
	other := file("zzz.jpg", now, nil)

	for _, order := range []types.SortOrder{types.SortAsc, types.SortDesc} {
		files := []SortableFile{first, other, second}
		SortFiles(files, types.SortByFilename, order)

		var tied []string
		for _, f := range files {
			if f.Upload.SanitizedName != "" {
				tied = append(tied, f.Upload.SanitizedName)
			}
		}
		assert.Equal(t, []string{"first", "second"}, tied, "order %s", order)
	}
}

func TestSortByExifDateUndatedLast(t *testing.T) {
	old := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	files := []SortableFile{
		file("undated.jpg", old, nil),
		file("late.jpg", time.Now(), ts(20)),
		file("early.jpg", time.Now(), ts(2)),
	}

	SortFiles(files, types.SortByExifDate, types.SortAsc)
	assert.Equal(t, []string{"early.jpg", "late.jpg", "undated.jpg"}, names(files))
}

func TestSortByExifDateFallsBackToFileTime(t *testing.T) {
	files := []SortableFile{
		file("newer.jpg", *ts(10), nil),
		file("older.jpg", *ts(5), nil),
	}
	SortFiles(files, types.SortByExifDate, types.SortAsc)
	assert.Equal(t, []string{"older.jpg", "newer.jpg"}, names(files))
}

func TestSortByFileDate(t *testing.T) {
	files := []SortableFile{
		file("b.jpg", *ts(3), ts(1)),
		file("a.jpg", *ts(1), ts(3)),
	}
	SortFiles(files, types.SortByFileDate, types.SortAsc)
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, names(files))

	SortFiles(files, types.SortByFileDate, types.SortDesc)
	assert.Equal(t, []string{"b.jpg", "a.jpg"}, names(files))
}

func TestSortByDateTaken(t *testing.T) {
	files := []types.ProcessedFile{
		{ProcessedName: "none.jpeg"},
		{ProcessedName: "late.jpeg", DateTaken: ts(9)},
		{ProcessedName: "early.jpeg", DateTaken: ts(1)},
	}
	SortByDateTaken(files)
	assert.Equal(t, "early.jpeg", files[0].ProcessedName)
	assert.Equal(t, "late.jpeg", files[1].ProcessedName)
	assert.Equal(t, "none.jpeg", files[2].ProcessedName)
}

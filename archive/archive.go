package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"photobatch/logging"
)

// FilePrefix is the name prefix of every archive
const FilePrefix = "processed_images_"

// Entry is one file to store in an archive
type Entry struct {
	Path string // file on disk
	Name string // name inside the archive
}

// Build writes a zip of entries into dir and returns its path.
// An empty entry list yields no archive and no error. Entries whose file disappeared are skipped.
func Build(dir string, entries []Entry) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}

	name := FilePrefix + time.Now().Format("2006-01-02_15-04-05") + ".zip"
	path := filepath.Join(dir, name)

	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("cannot create archive %s: %w", path, err)
	}

	zw := zip.NewWriter(out)
	written := 0
	for _, e := range entries {
		ok, err := addFile(zw, e)
		if err != nil {
			zw.Close()
			out.Close()
			os.Remove(path)
			return "", err
		}
		if ok {
			written++
		}
	}

	if err := zw.Close(); err != nil {
		out.Close()
		os.Remove(path)
		return "", fmt.Errorf("cannot finalize archive %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("cannot close archive %s: %w", path, err)
	}

	logging.DebugLog("Archive %s written with %d/%d entries", name, written, len(entries))
	return path, nil
}

func addFile(zw *zip.Writer, e Entry) (bool, error) {
	f, err := os.Open(e.Path)
	if err != nil {
		if os.IsNotExist(err) {
			logging.LogWarning("Skipping missing archive entry %s", e.Path)
			return false, nil
		}
		return false, fmt.Errorf("cannot open %s: %w", e.Path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return false, fmt.Errorf("cannot stat %s: %w", e.Path, err)
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return false, fmt.Errorf("cannot build header for %s: %w", e.Path, err)
	}
	header.Name = e.Name
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return false, fmt.Errorf("cannot add %s to archive: %w", e.Name, err)
	}
	if _, err := io.Copy(w, f); err != nil {
		return false, fmt.Errorf("cannot write %s to archive: %w", e.Name, err)
	}
	return true, nil
}

// Find returns the newest archive in dir, or "" when there is none
func Find(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, FilePrefix+"*.zip"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", nil
	}
	// Names embed a sortable timestamp
	latest := matches[0]
	for _, m := range matches[1:] {
		if m > latest {
			latest = m
		}
	}
	return latest, nil
}

package pipeline

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"photobatch/imageprocessor"
	"photobatch/logging"
	"photobatch/session"
	"photobatch/types"
)

// StageUpload copies an uploaded blob into the workspace under a sanitized, unique name
func StageUpload(ws *session.Workspace, originalName string, r io.Reader) (types.UploadedFile, error) {
	name := imageprocessor.UniqueName(imageprocessor.SanitizeFilename(originalName), func(n string) bool {
		_, err := os.Stat(filepath.Join(ws.UploadsDir, n))
		return err == nil
	})
	dst := filepath.Join(ws.UploadsDir, name)

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return types.UploadedFile{}, fmt.Errorf("%w: cannot stage %s: %w", ErrStorage, originalName, err)
	}
	n, err := io.Copy(out, r)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dst)
		return types.UploadedFile{}, fmt.Errorf("cannot stage %s: %v", originalName, err)
	}

	return types.UploadedFile{
		OriginalName:  filepath.Base(originalName),
		SanitizedName: name,
		Size:          n,
		Path:          dst,
	}, nil
}

// StageFolder stages every regular file under dir, keeping modification times.
// Files that cannot be read are reported as upload failures.
func StageFolder(ws *session.Workspace, dir string) ([]types.UploadedFile, []types.FileFailure, error) {
	var paths []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() || !info.Mode().IsRegular() {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("cannot walk %s: %v", dir, err)
	}
	sort.Strings(paths)

	var uploads []types.UploadedFile
	var failures []types.FileFailure
	for _, path := range paths {
		u, err := stageLocalFile(ws, path)
		if err != nil {
			if errors.Is(err, ErrStorage) {
				return nil, nil, err
			}
			failures = append(failures, types.FileFailure{Name: filepath.Base(path), Stage: types.StageUpload, Reason: err.Error()})
			continue
		}
		uploads = append(uploads, u)
	}
	return uploads, failures, nil
}

func stageLocalFile(ws *session.Workspace, path string) (types.UploadedFile, error) {
	in, err := os.Open(path)
	if err != nil {
		return types.UploadedFile{}, err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return types.UploadedFile{}, err
	}

	u, err := StageUpload(ws, filepath.Base(path), in)
	if err != nil {
		return u, err
	}
	if err := os.Chtimes(u.Path, info.ModTime(), info.ModTime()); err != nil {
		logging.LogWarning("Cannot keep modification time of %s: %v", path, err)
	}
	return u, nil
}

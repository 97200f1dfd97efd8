package session

import (
	"fmt"
	"os"
	"path/filepath"

	"photobatch/archive"
	"photobatch/types"
)

const workspacePrefix = "image_processor_"

// Workspace is the directory tree a session owns
type Workspace struct {
	ID           string
	Dir          string
	UploadsDir   string
	ProcessedDir string
	Config       *types.ProcessingConfig
}

func workspaceDir(root, id string) string {
	return filepath.Join(root, workspacePrefix+id)
}

func newWorkspace(root, id string) *Workspace {
	dir := workspaceDir(root, id)
	return &Workspace{
		ID:           id,
		Dir:          dir,
		UploadsDir:   filepath.Join(dir, "uploads"),
		ProcessedDir: filepath.Join(dir, "processed"),
	}
}

// claim creates the workspace directory, failing if it already exists
func (w *Workspace) claim() error {
	if err := os.Mkdir(w.Dir, 0755); err != nil {
		return err
	}
	for _, d := range []string{w.UploadsDir, w.ProcessedDir} {
		if err := os.MkdirAll(d, 0755); err != nil {
			os.RemoveAll(w.Dir)
			return fmt.Errorf("cannot create %s: %w", d, err)
		}
	}
	return nil
}

// ProcessedPath returns the path of a processed file. Names that would leave the
// processed directory are rejected.
func (w *Workspace) ProcessedPath(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	return filepath.Join(w.ProcessedDir, name), nil
}

// ArchivePath returns the newest archive of the session, or "" when none was built
func (w *Workspace) ArchivePath() (string, error) {
	return archive.Find(w.Dir)
}

// Remove deletes the whole workspace
func (w *Workspace) Remove() error {
	return os.RemoveAll(w.Dir)
}

package session

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"photobatch/archive"
	"photobatch/imageprocessor"
	"photobatch/logging"
	"photobatch/types"
)

// Merger combines processed files of several sessions into one combined session
type Merger struct {
	store      *Store
	cleanupTTL time.Duration
}

// NewMerger creates a merger that schedules cleanup of combined sessions after cleanupTTL
func NewMerger(store *Store, cleanupTTL time.Duration) *Merger {
	return &Merger{store: store, cleanupTTL: cleanupTTL}
}

// Merge copies the processed files of every readable source into a new combined session,
// ordered by capture date, and archives them
func (m *Merger) Merge(ctx context.Context, ids []string) (*types.MergeResult, error) {
	valid := FilterValidIDs(ids)
	if len(valid) == 0 {
		return nil, fmt.Errorf("%w: no valid session ids given", ErrInvalidID)
	}

	ws, err := m.store.Create(ctx, PrefixCombined, nil)
	if err != nil {
		return nil, err
	}

	files, sources, err := m.copySources(ctx, ws, valid)
	if err != nil {
		ws.Remove()
		return nil, err
	}
	if len(files) == 0 {
		ws.Remove()
		return nil, ErrNothingToMerge
	}

	imageprocessor.SortByDateTaken(files)

	entries := make([]archive.Entry, 0, len(files))
	var totalSize int64
	for i := range files {
		files[i].DownloadURL = FileURL(ws.ID, files[i].ProcessedName)
		totalSize += files[i].NewSize
		entries = append(entries, archive.Entry{
			Path: filepath.Join(ws.ProcessedDir, files[i].ProcessedName),
			Name: files[i].ProcessedName,
		})
	}

	archivePath, err := archive.Build(ws.Dir, entries)
	if err != nil {
		ws.Remove()
		return nil, err
	}

	sess := &types.Session{
		SessionID:      ws.ID,
		CreatedAt:      time.Now(),
		Type:           types.SessionCombined,
		SourceSessions: sources,
		Files:          files,
		Stats: types.SessionStats{
			TotalFiles:          len(files),
			TotalSize:           totalSize,
			SourceSessionsCount: len(sources),
		},
	}
	if archivePath != "" {
		sess.ArchiveName = filepath.Base(archivePath)
	}
	if err := m.store.Write(ctx, sess); err != nil {
		ws.Remove()
		return nil, err
	}

	if err := m.store.ScheduleCleanup(ctx, ws.ID, m.cleanupTTL); err != nil {
		logging.LogWarning("Cannot schedule cleanup for %s: %v", ws.ID, err)
	}

	logging.LogInfo("Merged %d files from %d sessions into %s", len(files), len(sources), ws.ID)

	return &types.MergeResult{
		CombinedSessionID: ws.ID,
		TotalFiles:        len(files),
		SourceSessions:    sources,
		ArchiveURL:        ArchiveURL(ws.ID),
		Files:             files,
	}, nil
}

func (m *Merger) copySources(ctx context.Context, ws *Workspace, ids []string) ([]types.ProcessedFile, []string, error) {
	var files []types.ProcessedFile
	var sources []string
	used := make(map[string]bool)

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		src, err := m.store.Read(ctx, id)
		if err != nil {
			logging.LogWarning("Skipping session %s in merge: %v", id, err)
			continue
		}
		srcWs, err := m.store.Workspace(id)
		if err != nil {
			logging.LogWarning("Skipping session %s in merge: %v", id, err)
			continue
		}

		copied := 0
		for _, f := range src.Files {
			from, err := srcWs.ProcessedPath(f.ProcessedName)
			if err != nil {
				logging.LogWarning("Skipping %s from %s: %v", f.ProcessedName, id, err)
				continue
			}
			if _, err := os.Stat(from); err != nil {
				logging.LogWarning("Skipping missing file %s from %s", f.ProcessedName, id)
				continue
			}

			name := imageprocessor.UniqueName(f.ProcessedName, func(n string) bool { return used[n] })
			to, err := ws.ProcessedPath(name)
			if err != nil {
				continue
			}
			size, err := copyFile(from, to)
			if err != nil {
				return nil, nil, fmt.Errorf("cannot copy %s: %w", from, err)
			}
			used[name] = true
			copied++

			merged := f
			merged.ProcessedName = name
			merged.NewSize = size
			merged.SourceSession = id
			files = append(files, merged)
		}

		if copied > 0 {
			sources = append(sources, id)
		}
	}
	return files, sources, nil
}

// copyFile copies src to dst and carries over the modification time
func copyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dst)
		return 0, err
	}

	if info, err := in.Stat(); err == nil {
		os.Chtimes(dst, info.ModTime(), info.ModTime())
	}
	return n, nil
}

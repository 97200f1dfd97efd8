package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"photobatch/archive"
	"photobatch/imageprocessor"
	"photobatch/logging"
	"photobatch/session"
	"photobatch/signalhandler"
	"photobatch/types"
	"photobatch/utils"
)

var (
	// ErrNoValidFiles is returned when every file of a batch was rejected
	ErrNoValidFiles = errors.New("no valid files to process")
	// ErrStorage is returned when the workspace, archive or record cannot be written
	ErrStorage = errors.New("storage failure")
)

// DefaultCleanupTTL is how long a finished session is kept before it may be reaped
const DefaultCleanupTTL = 30 * time.Minute

// Processor runs batches through validation, metadata extraction, sorting,
// transformation, archiving and persistence
type Processor struct {
	validator   Validator
	extractor   Extractor
	transformer Transformer
	store       SessionWriter
	opts        Options
}

// NewProcessor wires a processor. Zero options fall back to defaults.
func NewProcessor(v Validator, e Extractor, t Transformer, store SessionWriter, opts Options) *Processor {
	if opts.Workers <= 0 {
		opts.Workers = signalhandler.GetOptimalProcs()
	}
	if opts.CleanupTTL <= 0 {
		opts.CleanupTTL = DefaultCleanupTTL
	}
	return &Processor{
		validator:   v,
		extractor:   e,
		transformer: t,
		store:       store,
		opts:        opts,
	}
}

// Process runs one batch. Per-file failures are reported in the result; only a batch with no
// surviving files or a storage failure returns an error, and then the workspace is removed.
// With ErrNoValidFiles the returned result still lists every failure.
//
// A started batch is not interrupted when ctx is cancelled: it runs until it completes or hits
// a storage failure, so a caller that went away can still find the session by polling.
func (p *Processor) Process(ctx context.Context, b Batch) (*types.BatchResult, error) {
	ctx = context.WithoutCancel(ctx)
	ws := b.Workspace
	cfg := b.Config
	trace := logging.NewTrace(ws.ID)

	result := &types.BatchResult{
		SessionID: ws.ID,
		Total:     len(b.Uploads) + len(b.Rejected),
		Files:     []types.ProcessedFile{},
		Failures:  append([]types.FileFailure{}, b.Rejected...),
	}
	for _, f := range b.Rejected {
		trace.Warning("upload rejected", map[string]interface{}{"file": f.Name, "reason": f.Reason})
	}

	trace.Step("batch started", map[string]interface{}{
		"files":   len(b.Uploads),
		"workers": p.opts.Workers,
		"config":  cfg,
	})

	// validation and metadata
	inspected := p.runStage("Validating", len(b.Uploads), func(i int) fileResult {
		return p.inspect(b.Uploads[i], i)
	})

	sortable := make([]imageprocessor.SortableFile, 0, len(b.Uploads))
	for i, r := range inspected {
		if !r.Success {
			result.Failures = append(result.Failures, failureOf(r))
			trace.Warning("file rejected", map[string]interface{}{"file": r.Name, "stage": r.Stage, "reason": errText(r.Err)})
			continue
		}
		sortable = append(sortable, imageprocessor.SortableFile{Upload: b.Uploads[i], Metadata: r.Metadata})
	}
	trace.Step("validation finished", map[string]interface{}{"accepted": len(sortable), "rejected": len(result.Failures)})

	if len(sortable) == 0 {
		return p.fail(ws, trace, result, ErrNoValidFiles)
	}

	imageprocessor.SortFiles(sortable, cfg.SortBy, cfg.SortOrder)
	names := assignNames(sortable, cfg.OutputFormat)
	trace.Step("files sorted", map[string]interface{}{"sort_by": cfg.SortBy, "sort_order": cfg.SortOrder})

	// transforms
	transformed := p.runStage("Processing", len(sortable), func(i int) fileResult {
		return p.transform(ws, sortable[i], names[i], cfg, i)
	})

	var entries []archive.Entry
	var totalOriginal, totalNew int64
	for i, r := range transformed {
		f := sortable[i]
		if !r.Success {
			result.Failures = append(result.Failures, failureOf(r))
			trace.Error("processing failed", map[string]interface{}{"file": r.Name, "error": errText(r.Err)})
			continue
		}

		processed := types.ProcessedFile{
			OriginalName:          f.Upload.OriginalName,
			ProcessedName:         names[i],
			OriginalSize:          f.Upload.Size,
			NewSize:               r.Transform.NewSize,
			OriginalSizeFormatted: utils.FormatFileSize(f.Upload.Size),
			NewSizeFormatted:      utils.FormatFileSize(r.Transform.NewSize),
			DimensionsBefore:      r.Transform.Before,
			DimensionsAfter:       r.Transform.After,
			DateTaken:             f.Metadata.ExifTimestamp,
			DownloadURL:           session.FileURL(ws.ID, names[i]),
		}
		result.Files = append(result.Files, processed)
		entries = append(entries, archive.Entry{Path: filepath.Join(ws.ProcessedDir, names[i]), Name: names[i]})
		totalOriginal += processed.OriginalSize
		totalNew += processed.NewSize

		trace.Log(logging.CategoryFile, "file processed", map[string]interface{}{
			"file":   names[i],
			"before": r.Transform.Before,
			"after":  r.Transform.After,
			"size":   r.Transform.NewSize,
		})
	}

	if len(result.Files) == 0 {
		return p.fail(ws, trace, result, ErrNoValidFiles)
	}

	archivePath, err := archive.Build(ws.Dir, entries)
	if err != nil {
		return p.fail(ws, trace, result, fmt.Errorf("%w: %w", ErrStorage, err))
	}
	trace.Step("archive built", map[string]interface{}{"entries": len(entries)})

	result.Processed = len(result.Files)
	result.Errors = len(result.Failures)
	result.ArchiveURL = session.ArchiveURL(ws.ID)
	result.Stats = types.SessionStats{
		TotalFiles:        result.Processed,
		TotalSize:         totalNew,
		TotalOriginalSize: totalOriginal,
	}

	cfgCopy := cfg
	sess := &types.Session{
		SessionID:   ws.ID,
		CreatedAt:   time.Now(),
		Type:        types.SessionNormal,
		Files:       result.Files,
		Stats:       result.Stats,
		Config:      &cfgCopy,
		ArchiveName: filepath.Base(archivePath),
	}
	if err := p.store.Write(ctx, sess); err != nil {
		return p.fail(ws, trace, result, fmt.Errorf("%w: %w", ErrStorage, err))
	}

	if !cfg.KeepOriginal {
		if err := os.RemoveAll(ws.UploadsDir); err != nil {
			trace.Warning("cannot remove staged uploads", map[string]interface{}{"error": err.Error()})
		}
	}

	if err := p.store.ScheduleCleanup(ctx, ws.ID, p.opts.CleanupTTL); err != nil {
		trace.Warning("cannot schedule cleanup", map[string]interface{}{"error": err.Error()})
	}
	if p.opts.Recorder != nil {
		if err := p.opts.Recorder.Record(ctx, types.SessionNormal, result); err != nil {
			trace.Warning("cannot record batch", map[string]interface{}{"error": err.Error()})
		}
	}

	traceErrors, traceWarnings := trace.Counts()
	trace.Step("batch finished", map[string]interface{}{
		"processed":      result.Processed,
		"errors":         result.Errors,
		"trace_errors":   traceErrors,
		"trace_warnings": traceWarnings,
		"elapsed_ms":     trace.Elapsed().Milliseconds(),
	})
	result.Trace = trace.Entries()
	return result, nil
}

// runStage runs fn for every index on the bounded worker pool and returns the results in input order
func (p *Processor) runStage(label string, total int, fn func(i int) fileResult) []fileResult {
	var wg sync.WaitGroup
	resultsChan := make(chan fileResult, 100)
	semaphore := make(chan struct{}, p.opts.Workers)

	tracker := NewProgressTracker(label, total, p.opts.Progress, resultsChan)

	for i := 0; i < total; i++ {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(idx int) {
			defer wg.Done()
			defer func() { <-semaphore }()
			resultsChan <- p.safeRun(fn, idx)
		}(i)
	}

	wg.Wait()
	close(resultsChan)
	return tracker.Wait()
}

// safeRun turns a panicking worker into a failed result
func (p *Processor) safeRun(fn func(i int) fileResult, idx int) (res fileResult) {
	defer func() {
		if r := recover(); r != nil {
			logging.LogError("Panic in worker for file %d: %v", idx, r)
			res = fileResult{Index: idx, Stage: types.StageProcessing, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	return fn(idx)
}

func (p *Processor) inspect(u types.UploadedFile, idx int) fileResult {
	res := fileResult{Index: idx, Name: u.OriginalName, Stage: types.StageValidation}

	v := p.validator.Validate(u.Path, u.OriginalName, u.Size)
	if !v.OK {
		res.Err = errors.New(v.Reason)
		return res
	}

	meta, err := p.extractor.Extract(u.Path)
	if err != nil {
		res.Err = err
		return res
	}
	if meta.Width == 0 || meta.Height == 0 {
		meta.Width, meta.Height = v.Width, v.Height
	}

	res.Success = true
	res.Metadata = meta
	return res
}

func (p *Processor) transform(ws *session.Workspace, f imageprocessor.SortableFile, name string, cfg types.ProcessingConfig, idx int) fileResult {
	res := fileResult{Index: idx, Name: f.Upload.OriginalName, Stage: types.StageProcessing}

	dst := filepath.Join(ws.ProcessedDir, name)
	tr, err := p.transformer.Transform(f.Upload.Path, dst, f.Metadata, cfg)
	if err != nil {
		os.Remove(dst)
		res.Err = err
		return res
	}

	res.Success = true
	res.Transform = tr
	return res
}

func (p *Processor) fail(ws *session.Workspace, trace *logging.Trace, result *types.BatchResult, err error) (*types.BatchResult, error) {
	trace.Error("batch failed", map[string]interface{}{"error": err.Error()})
	if rmErr := ws.Remove(); rmErr != nil {
		logging.LogWarning("Cannot remove workspace %s: %v", ws.Dir, rmErr)
	}

	result.Processed = 0
	result.Files = []types.ProcessedFile{}
	result.Errors = len(result.Failures)
	result.ArchiveURL = ""
	result.Trace = trace.Entries()
	return result, err
}

// assignNames names outputs by sorted position; repeated names get the lowest free suffix
func assignNames(files []imageprocessor.SortableFile, format types.OutputFormat) []string {
	names := make([]string, len(files))
	used := make(map[string]bool, len(files))
	for i, f := range files {
		name := imageprocessor.GenerateOutputName(f.Upload.OriginalName, i, format, f.Metadata.ExifTimestamp)
		name = imageprocessor.UniqueName(name, func(n string) bool { return used[n] })
		used[name] = true
		names[i] = name
	}
	return names
}

func failureOf(r fileResult) types.FileFailure {
	return types.FileFailure{Name: r.Name, Stage: r.Stage, Reason: errText(r.Err)}
}

func errText(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}

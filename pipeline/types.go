package pipeline

import (
	"context"
	"io"
	"sync"
	"time"

	"photobatch/imageprocessor"
	"photobatch/session"
	"photobatch/types"
)

// Validator accepts or rejects a staged upload
type Validator interface {
	Validate(path, claimedName string, claimedSize int64) imageprocessor.ValidationResult
}

// Extractor reads the metadata of a staged file
type Extractor interface {
	Extract(path string) (types.FileMetadata, error)
}

// Transformer writes the processed version of a file
type Transformer interface {
	Transform(src, dst string, meta types.FileMetadata, cfg types.ProcessingConfig) (imageprocessor.TransformResult, error)
}

// SessionWriter persists the finished session and schedules its cleanup
type SessionWriter interface {
	Write(ctx context.Context, sess *types.Session) error
	ScheduleCleanup(ctx context.Context, id string, after time.Duration) error
}

// BatchRecorder keeps a history of finished batches
type BatchRecorder interface {
	Record(ctx context.Context, sessionType types.SessionType, result *types.BatchResult) error
}

// Options tune a Processor
type Options struct {
	Workers    int
	CleanupTTL time.Duration
	Recorder   BatchRecorder // optional
	Progress   io.Writer     // optional live progress output
}

// Batch is one submission: staged uploads in a fresh workspace
type Batch struct {
	Workspace *session.Workspace
	Uploads   []types.UploadedFile
	Rejected  []types.FileFailure // failures that happened while staging
	Config    types.ProcessingConfig
}

// fileResult is the outcome of one file in one stage
type fileResult struct {
	Index     int
	Name      string
	Success   bool
	Stage     string
	Err       error
	Metadata  types.FileMetadata
	Transform imageprocessor.TransformResult
}

// ProgressTracker counts stage results as workers report them
type ProgressTracker struct {
	label      string
	processed  int
	errors     int
	totalFiles int
	results    []fileResult
	ticker     *time.Ticker
	done       chan bool
	finished   chan struct{}
	out        io.Writer
	mu         sync.Mutex
}

package types

import "time"

// SortKey selects the field a batch is ordered by
type SortKey string

const (
	SortByExifDate SortKey = "exif_date"
	SortByFileDate SortKey = "file_date"
	SortByFilename SortKey = "filename"
)

// SortOrder is the direction of a batch ordering
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// OutputFormat controls how processed files are named
type OutputFormat string

const (
	OutputOriginal OutputFormat = "original"
	OutputNumbered OutputFormat = "numbered"
	OutputDated    OutputFormat = "dated"
)

// SessionType distinguishes regular batches from merged exports
type SessionType string

const (
	SessionNormal   SessionType = "normal"
	SessionCombined SessionType = "combined"
)

// ProcessingConfig holds the per-batch processing options
type ProcessingConfig struct {
	MaxSize      int          `json:"max_size"`
	Quality      int          `json:"quality"`
	Progressive  bool         `json:"progressive"`
	PreserveExif bool         `json:"preserve_exif"`
	SortBy       SortKey      `json:"sort_by"`
	SortOrder    SortOrder    `json:"sort_order"`
	AutoRotate   bool         `json:"auto_rotate"`
	KeepOriginal bool         `json:"keep_original"`
	OutputFormat OutputFormat `json:"output_format"`
}

// FileMetadata describes a staged image before processing.
// Orientation is zero when the file carries no orientation tag.
type FileMetadata struct {
	Width         int        `json:"width"`
	Height        int        `json:"height"`
	FileTimestamp time.Time  `json:"file_timestamp"`
	ExifTimestamp *time.Time `json:"exif_timestamp,omitempty"`
	Orientation   int        `json:"orientation,omitempty"`
}

// CaptureTime returns the EXIF timestamp when known, the file timestamp otherwise
func (m FileMetadata) CaptureTime() time.Time {
	if m.ExifTimestamp != nil {
		return *m.ExifTimestamp
	}
	return m.FileTimestamp
}

// UploadedFile is a blob staged in a session workspace
type UploadedFile struct {
	OriginalName  string `json:"original_name"`
	SanitizedName string `json:"sanitized_name"`
	Size          int64  `json:"size"`
	Path          string `json:"-"`
}

// Dimensions is a width/height pair in pixels
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ProcessedFile is one output of a batch or merge
type ProcessedFile struct {
	OriginalName          string     `json:"original_name"`
	ProcessedName         string     `json:"processed_name"`
	OriginalSize          int64      `json:"original_size"`
	NewSize               int64      `json:"new_size"`
	OriginalSizeFormatted string     `json:"original_size_formatted,omitempty"`
	NewSizeFormatted      string     `json:"new_size_formatted,omitempty"`
	DimensionsBefore      Dimensions `json:"dimensions_before"`
	DimensionsAfter       Dimensions `json:"dimensions_after"`
	DateTaken             *time.Time `json:"date_taken"`
	DownloadURL           string     `json:"download_url"`
	SourceSession         string     `json:"source_session,omitempty"`
}

// SessionStats aggregates the files of a session
type SessionStats struct {
	TotalFiles          int   `json:"total_files"`
	TotalSize           int64 `json:"total_size"`
	TotalOriginalSize   int64 `json:"total_original_size,omitempty"`
	SourceSessionsCount int   `json:"source_sessions_count,omitempty"`
}

// Session is the persisted record of a completed batch or merge
type Session struct {
	SessionID      string            `json:"session_id"`
	CreatedAt      time.Time         `json:"created_at"`
	Type           SessionType       `json:"type"`
	SourceSessions []string          `json:"source_sessions,omitempty"`
	Files          []ProcessedFile   `json:"files"`
	Stats          SessionStats      `json:"stats"`
	Config         *ProcessingConfig `json:"config,omitempty"`
	ArchiveName    string            `json:"archive_name,omitempty"`
}

// Failure stages reported for skipped files
const (
	StageUpload     = "upload"
	StageValidation = "validation"
	StageProcessing = "processing"
)

// FileFailure records why a file was left out of a batch
type FileFailure struct {
	Name   string `json:"name"`
	Stage  string `json:"stage"`
	Reason string `json:"reason"`
}

// TraceEntry is one step of a batch trace
type TraceEntry struct {
	Timestamp string                 `json:"timestamp"`
	ElapsedMs float64                `json:"elapsed_ms"`
	Category  string                 `json:"category"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// BatchResult is returned to the caller of a submission
type BatchResult struct {
	SessionID  string          `json:"session_id"`
	Total      int             `json:"total"`
	Processed  int             `json:"processed"`
	Errors     int             `json:"errors"`
	Files      []ProcessedFile `json:"files"`
	ArchiveURL string          `json:"zip_download_url,omitempty"`
	Failures   []FileFailure   `json:"failures,omitempty"`
	Stats      SessionStats    `json:"stats"`
	Trace      []TraceEntry    `json:"detailed_logs,omitempty"`
}

// MergeResult is returned by a session merge
type MergeResult struct {
	CombinedSessionID string          `json:"combined_session_id"`
	TotalFiles        int             `json:"total_files"`
	SourceSessions    []string        `json:"source_sessions"`
	ArchiveURL        string          `json:"zip_download_url"`
	Files             []ProcessedFile `json:"files"`
}

// CleanupMarker schedules removal of a session by an external reaper
type CleanupMarker struct {
	SessionID string    `json:"session_id"`
	DeleteAt  time.Time `json:"delete_at"`
	CreatedAt time.Time `json:"created_at"`
}

// ManifestEntry describes a file the client intends to upload
type ManifestEntry struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Type string `json:"type"`
}

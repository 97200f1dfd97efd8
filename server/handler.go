package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"photobatch/capacity"
	"photobatch/config"
	"photobatch/database"
	"photobatch/pipeline"
	"photobatch/session"
	"photobatch/types"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const megabyte = 1024 * 1024

// BatchHistory records finished batches and exposes scheduled cleanups
type BatchHistory interface {
	Record(ctx context.Context, sessionType types.SessionType, result *types.BatchResult) error
	List(ctx context.Context) ([]types.CleanupMarker, error)
	Stats(ctx context.Context) (*database.ProcessingStats, error)
}

// Deps are the components the handlers serve
type Deps struct {
	Store         *session.Store
	Processor     *pipeline.Processor
	Merger        *session.Merger
	Planner       *capacity.Planner
	History       BatchHistory // optional
	ExifSupported bool
}

type Handler struct {
	deps Deps
	cfg  *config.Config
	log  *zap.Logger
}

func NewHandler(deps Deps, cfg *config.Config, log *zap.Logger) *Handler {
	return &Handler{deps: deps, cfg: cfg, log: log}
}

// Process stages the multipart upload and runs the batch
func (h *Handler) Process(c *gin.Context) {
	limits := h.cfg.Limits
	if limits.PostMaxSizeMB > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limits.PostMaxSizeMB*megabyte)
	}

	form, err := c.MultipartForm()
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid upload: "+err.Error())
		return
	}

	files := form.File["images[]"]
	if len(files) == 0 {
		files = form.File["images"]
	}
	if len(files) == 0 {
		respondError(c, http.StatusBadRequest, "no files uploaded")
		return
	}
	if limits.MaxFileUploads > 0 && len(files) > limits.MaxFileUploads {
		respondError(c, http.StatusBadRequest, fmt.Sprintf("too many files: %d > %d", len(files), limits.MaxFileUploads))
		return
	}

	values := make(map[string]string, len(form.Value))
	for k, v := range form.Value {
		if len(v) > 0 {
			values[k] = v[0]
		}
	}
	cfg := config.ParseProcessingConfig(values, h.cfg.Processing)

	// a client that disconnects mid-batch polls for the result later
	ctx := context.WithoutCancel(c.Request.Context())
	ws, err := h.deps.Store.Create(ctx, session.PrefixNormal, &cfg)
	if err != nil {
		h.log.Error("Cannot create workspace", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "cannot create session")
		return
	}

	batch := pipeline.Batch{Workspace: ws, Config: cfg}
	for _, fh := range files {
		if limits.UploadMaxFilesizeMB > 0 && fh.Size > limits.UploadMaxFilesizeMB*megabyte {
			batch.Rejected = append(batch.Rejected, types.FileFailure{
				Name:   fh.Filename,
				Stage:  types.StageUpload,
				Reason: fmt.Sprintf("upload exceeds %d MB", limits.UploadMaxFilesizeMB),
			})
			continue
		}

		src, err := fh.Open()
		if err != nil {
			batch.Rejected = append(batch.Rejected, types.FileFailure{Name: fh.Filename, Stage: types.StageUpload, Reason: err.Error()})
			continue
		}
		u, err := pipeline.StageUpload(ws, fh.Filename, src)
		src.Close()
		if errors.Is(err, pipeline.ErrStorage) {
			ws.Remove()
			h.log.Error("Cannot stage upload", zap.String("session", ws.ID), zap.Error(err))
			respondError(c, http.StatusInternalServerError, "cannot store uploads")
			return
		}
		if err != nil {
			batch.Rejected = append(batch.Rejected, types.FileFailure{Name: fh.Filename, Stage: types.StageUpload, Reason: err.Error()})
			continue
		}
		batch.Uploads = append(batch.Uploads, u)
	}

	result, err := h.deps.Processor.Process(ctx, batch)
	switch {
	case errors.Is(err, pipeline.ErrNoValidFiles):
		c.JSON(http.StatusUnprocessableEntity, batchResponse{Error: err.Error(), BatchResult: result})
	case err != nil:
		h.log.Error("Batch failed", zap.String("session", ws.ID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "batch failed: "+err.Error())
	default:
		c.JSON(http.StatusOK, batchResponse{Success: true, BatchResult: result})
	}
}

// Status reports whether a session has finished
func (h *Handler) Status(c *gin.Context) {
	id := c.Param("id")
	sess, err := h.deps.Store.Read(c.Request.Context(), id)
	switch {
	case err == nil:
		respondOK(c, http.StatusOK, gin.H{"completed": true, "session": sess})
	case errors.Is(err, session.ErrIncomplete):
		respondOK(c, http.StatusAccepted, gin.H{"completed": false, "message": "session is still being processed"})
	case errors.Is(err, session.ErrNotFound), errors.Is(err, session.ErrInvalidID):
		respondError(c, http.StatusNotFound, "session does not exist")
	default:
		h.log.Error("Cannot read session", zap.String("session", id), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "cannot read session")
	}
}

type capacityRequest struct {
	Files []types.ManifestEntry `json:"files"`
}

// Capacity runs the pre-flight planner on a manifest
func (h *Handler) Capacity(c *gin.Context) {
	var req capacityRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Files == nil {
		respondError(c, http.StatusBadRequest, "missing file list")
		return
	}
	c.JSON(http.StatusOK, capacityResponse{Success: true, Report: h.deps.Planner.Plan(req.Files)})
}

type mergeRequest struct {
	SessionIDs []string `json:"session_ids"`
}

// Merge combines finished sessions into one
func (h *Handler) Merge(c *gin.Context) {
	var req mergeRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.SessionIDs) == 0 {
		respondError(c, http.StatusBadRequest, "missing session ids")
		return
	}

	ctx := context.WithoutCancel(c.Request.Context())
	result, err := h.deps.Merger.Merge(ctx, req.SessionIDs)
	switch {
	case errors.Is(err, session.ErrInvalidID):
		respondError(c, http.StatusBadRequest, "no valid session ids")
		return
	case errors.Is(err, session.ErrNothingToMerge):
		respondError(c, http.StatusNotFound, err.Error())
		return
	case err != nil:
		h.log.Error("Merge failed", zap.Strings("sessions", req.SessionIDs), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "merge failed")
		return
	}

	if h.deps.History != nil {
		var size int64
		for _, f := range result.Files {
			size += f.NewSize
		}
		record := &types.BatchResult{
			SessionID: result.CombinedSessionID,
			Total:     result.TotalFiles,
			Processed: result.TotalFiles,
			Stats:     types.SessionStats{TotalFiles: result.TotalFiles, TotalSize: size},
		}
		if err := h.deps.History.Record(ctx, types.SessionCombined, record); err != nil {
			h.log.Warn("Cannot record merge", zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, mergeResponse{Success: true, MergeResult: result})
}

// DownloadArchive sends the zip of a session
func (h *Handler) DownloadArchive(c *gin.Context) {
	ws, err := h.deps.Store.Workspace(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusNotFound, "session does not exist")
		return
	}
	path, err := ws.ArchivePath()
	if err != nil || path == "" {
		respondError(c, http.StatusNotFound, "archive not found")
		return
	}
	c.FileAttachment(path, filepath.Base(path))
}

// DownloadFile sends one processed file of a session
func (h *Handler) DownloadFile(c *gin.Context) {
	ws, err := h.deps.Store.Workspace(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusNotFound, "session does not exist")
		return
	}
	path, err := ws.ProcessedPath(c.Param("file"))
	if err != nil {
		respondError(c, http.StatusNotFound, "file not found")
		return
	}
	if info, err := os.Stat(path); err != nil || !info.Mode().IsRegular() {
		respondError(c, http.StatusNotFound, "file not found")
		return
	}
	c.FileAttachment(path, filepath.Base(path))
}

// System reports the runtime capabilities and the sessions on disk
func (h *Handler) System(c *gin.Context) {
	ctx := c.Request.Context()

	sessions, err := h.deps.Store.List(ctx)
	if err != nil {
		h.log.Warn("Cannot list sessions", zap.Error(err))
	}

	body := gin.H{
		"exif_supported":   h.deps.ExifSupported,
		"storage_backend":  h.cfg.Storage.Backend,
		"storage_root":     h.deps.Store.Root(),
		"storage_writable": isWritable(h.deps.Store.Root()),
		"workers":          h.cfg.Processing.Workers,
		"sessions":         sessions,
		"limits":           h.deps.Planner.Limits(),
	}

	if h.deps.History != nil {
		if markers, err := h.deps.History.List(ctx); err == nil {
			body["scheduled_cleanups"] = markers
		}
		if stats, err := h.deps.History.Stats(ctx); err == nil {
			body["stats"] = stats
		}
	}

	respondOK(c, http.StatusOK, body)
}

// Health is a liveness probe
func (h *Handler) Health(c *gin.Context) {
	respondOK(c, http.StatusOK, gin.H{"status": "ok", "time": time.Now().Format(time.RFC3339)})
}

func isWritable(dir string) bool {
	f, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return false
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return true
}

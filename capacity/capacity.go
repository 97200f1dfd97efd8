package capacity

import (
	"fmt"
	"math"
	"strings"

	"photobatch/config"
	"photobatch/types"

	"github.com/dustin/go-humanize"
)

// Count bands
const (
	RecommendedBatchSize = 15
	MaxSafeBatchSize     = 75
	ExtremeBatchSize     = 300
)

// BandStatus classifies a file count
type BandStatus string

const (
	BandOptimal BandStatus = "optimal"
	BandGood    BandStatus = "good"
	BandWarning BandStatus = "warning"
	BandError   BandStatus = "error"
)

// Overall report status
const (
	StatusOK    = "ok"
	StatusError = "error"
)

const (
	secondsPerFileMin = 0.5
	secondsPerFileMax = 2.0
	memoryPerFileMin  = 10.0
	memoryPerFileMax  = 50.0
	inputVarsPerFile  = 5
	largeBatchMB      = 500.0
	hugeBatchMB       = 1000.0
	slowBatchMinutes  = 5.0
)

// Band is the classification of the file count
type Band struct {
	Status  BandStatus `json:"status"`
	Message string     `json:"message"`
}

// Summary holds the totals and estimates of a manifest
type Summary struct {
	FileCount         int     `json:"file_count"`
	TotalSizeBytes    int64   `json:"total_size_bytes"`
	TotalSizeMB       float64 `json:"total_size_mb"`
	TotalSize         string  `json:"total_size"`
	EstimatedTimeMin  float64 `json:"estimated_time_min"`
	EstimatedTimeMax  float64 `json:"estimated_time_max"`
	EstimatedTime     string  `json:"estimated_time"`
	EstimatedMemoryMB float64 `json:"estimated_memory_mb"`
}

// Check is the comparison of the manifest against the configured ceilings
type Check struct {
	OK     bool     `json:"ok"`
	Issues []string `json:"issues"`
}

// FileDetail is one manifest entry with its type verdict
type FileDetail struct {
	Name          string `json:"name"`
	Size          int64  `json:"size"`
	SizeFormatted string `json:"size_formatted"`
	Type          string `json:"type"`
	ValidType     bool   `json:"valid_type"`
}

// LimitsView exposes the ceilings the report was computed against
type LimitsView struct {
	MaxFileUploads      int     `json:"max_file_uploads"`
	PostMaxSizeMB       int64   `json:"post_max_size_mb"`
	UploadMaxFilesizeMB int64   `json:"upload_max_filesize_mb"`
	MaxInputVars        int     `json:"max_input_vars"`
	MaxExecutionTimeSec float64 `json:"max_execution_time_sec"`
	MemoryLimitMB       int64   `json:"memory_limit_mb"`
}

// Report is the outcome of a capacity check
type Report struct {
	ValidationStatus string       `json:"validation_status"`
	CanProcess       bool         `json:"can_process"`
	Summary          Summary      `json:"summary"`
	Limits           LimitsView   `json:"limits"`
	FileValidation   Band         `json:"file_validation"`
	CapacityCheck    Check        `json:"capacity_check"`
	Errors           []string     `json:"errors"`
	Warnings         []string     `json:"warnings"`
	Recommendations  []string     `json:"recommendations"`
	FileDetails      []FileDetail `json:"file_details"`
}

// Planner estimates whether a manifest can be processed. It holds no state besides its limits.
type Planner struct {
	limits config.Limits
}

// NewPlanner creates a planner for the given ceilings
func NewPlanner(limits config.Limits) *Planner {
	return &Planner{limits: limits}
}

// ClassifyCount places a file count in its band
func ClassifyCount(count int) Band {
	switch {
	case count <= RecommendedBatchSize:
		return Band{Status: BandOptimal, Message: "optimal number of files"}
	case count <= MaxSafeBatchSize:
		return Band{Status: BandGood, Message: "good number of files"}
	case count <= ExtremeBatchSize:
		return Band{Status: BandWarning, Message: "large number of files, processing may take a while"}
	default:
		return Band{Status: BandError, Message: fmt.Sprintf("too many files, the limit is %d", ExtremeBatchSize)}
	}
}

// IsAcceptedType accepts a JPEG file name whose claimed type is JPEG, blank, or a generic byte stream
func IsAcceptedType(name, mimeType string) bool {
	lower := strings.ToLower(name)
	if !strings.HasSuffix(lower, ".jpg") && !strings.HasSuffix(lower, ".jpeg") {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(mimeType)) {
	case "", "image/jpeg", "image/jpg", "application/octet-stream":
		return true
	default:
		return false
	}
}

// Plan builds the report for a manifest
func (p *Planner) Plan(entries []types.ManifestEntry) *Report {
	report := &Report{
		Limits:          p.Limits(),
		Errors:          []string{},
		Warnings:        []string{},
		Recommendations: []string{},
		FileDetails:     make([]FileDetail, 0, len(entries)),
	}

	var totalBytes int64
	var invalid []string
	for _, e := range entries {
		size := e.Size
		if size < 0 {
			size = 0
		}
		totalBytes += size

		valid := IsAcceptedType(e.Name, e.Type)
		if !valid {
			invalid = append(invalid, e.Name)
		}
		report.FileDetails = append(report.FileDetails, FileDetail{
			Name:          e.Name,
			Size:          size,
			SizeFormatted: humanize.IBytes(uint64(size)),
			Type:          e.Type,
			ValidType:     valid,
		})
	}

	count := len(entries)
	totalMB := float64(totalBytes) / (1024 * 1024)
	report.Summary = p.summarize(count, totalBytes, totalMB)
	report.FileValidation = ClassifyCount(count)
	report.CapacityCheck = p.checkLimits(count, totalMB)

	memLimit := float64(p.limits.MemoryLimitMB)
	mem := report.Summary.EstimatedMemoryMB

	// errors
	if count == 0 {
		report.Errors = append(report.Errors, "no files in manifest")
	}
	report.Errors = append(report.Errors, report.CapacityCheck.Issues...)
	if report.FileValidation.Status == BandError {
		report.Errors = append(report.Errors, report.FileValidation.Message)
	}
	if len(invalid) > 0 {
		report.Errors = append(report.Errors, "some files are not JPEG images: "+strings.Join(invalid, ", "))
	}
	if memLimit > 0 && mem > memLimit*0.9 {
		report.Errors = append(report.Errors, fmt.Sprintf("estimated memory use (%.0fMB) exceeds the limit (%dMB)", mem, p.limits.MemoryLimitMB))
	}

	// warnings
	if report.FileValidation.Status == BandWarning {
		report.Warnings = append(report.Warnings, report.FileValidation.Message)
	}
	if totalMB > largeBatchMB {
		report.Warnings = append(report.Warnings, fmt.Sprintf("large upload (%.2fMB), processing may take long", totalMB))
	}
	if report.Summary.EstimatedTimeMax > slowBatchMinutes {
		report.Warnings = append(report.Warnings, "estimated processing time: "+report.Summary.EstimatedTime)
	}
	if limit := p.limits.MaxExecutionTime.Minutes(); limit > 0 && report.Summary.EstimatedTimeMax > limit {
		report.Warnings = append(report.Warnings, fmt.Sprintf("estimated processing time may exceed the execution limit (%.0f min)", limit))
	}
	if memLimit > 0 && mem > memLimit*0.7 {
		report.Warnings = append(report.Warnings, "high memory use, batch processing may be needed")
	}

	// recommendations
	if count > MaxSafeBatchSize {
		report.Recommendations = append(report.Recommendations, "use progressive mode for better performance")
	}
	if count > RecommendedBatchSize && count <= MaxSafeBatchSize {
		report.Recommendations = append(report.Recommendations, "files can be sent all at once or in batches")
	}
	if totalMB > hugeBatchMB {
		report.Recommendations = append(report.Recommendations, "large files, consider processing in smaller batches")
	}

	report.ValidationStatus = StatusOK
	if len(report.Errors) > 0 {
		report.ValidationStatus = StatusError
	}
	report.CanProcess = report.ValidationStatus != StatusError
	return report
}

func (p *Planner) summarize(count int, totalBytes int64, totalMB float64) Summary {
	s := Summary{
		FileCount:        count,
		TotalSizeBytes:   totalBytes,
		TotalSizeMB:      round(totalMB, 2),
		TotalSize:        humanize.IBytes(uint64(totalBytes)),
		EstimatedTimeMin: round(float64(count)*secondsPerFileMin/60, 1),
		EstimatedTimeMax: round(float64(count)*secondsPerFileMax/60, 1),
	}

	if s.EstimatedTimeMin == s.EstimatedTimeMax {
		s.EstimatedTime = fmt.Sprintf("%.1f min", s.EstimatedTimeMin)
	} else {
		s.EstimatedTime = fmt.Sprintf("%.1f-%.1f min", s.EstimatedTimeMin, s.EstimatedTimeMax)
	}

	if count > 0 {
		perFile := math.Max(memoryPerFileMin, math.Min(memoryPerFileMax, 2*totalMB/float64(count)))
		s.EstimatedMemoryMB = round(float64(count)*perFile, 1)
	}
	return s
}

func (p *Planner) checkLimits(count int, totalMB float64) Check {
	issues := []string{}

	if count > p.limits.MaxFileUploads {
		issues = append(issues, fmt.Sprintf("max_file_uploads (%d) < number of files (%d)", p.limits.MaxFileUploads, count))
	}
	if totalMB > 0 && totalMB > float64(p.limits.PostMaxSizeMB) {
		issues = append(issues, fmt.Sprintf("post_max_size (%dM) < estimated size (%.2fM)", p.limits.PostMaxSizeMB, totalMB))
	}
	if needed := count * inputVarsPerFile; needed > p.limits.MaxInputVars {
		issues = append(issues, fmt.Sprintf("max_input_vars (%d) < needed variables (%d)", p.limits.MaxInputVars, needed))
	}

	return Check{OK: len(issues) == 0, Issues: issues}
}

// Limits returns the ceilings the planner checks against
func (p *Planner) Limits() LimitsView {
	return LimitsView{
		MaxFileUploads:      p.limits.MaxFileUploads,
		PostMaxSizeMB:       p.limits.PostMaxSizeMB,
		UploadMaxFilesizeMB: p.limits.UploadMaxFilesizeMB,
		MaxInputVars:        p.limits.MaxInputVars,
		MaxExecutionTimeSec: p.limits.MaxExecutionTime.Seconds(),
		MemoryLimitMB:       p.limits.MemoryLimitMB,
	}
}

func round(v float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}

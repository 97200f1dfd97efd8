package imageprocessor

import (
	"fmt"
	"image"
	_ "image/jpeg"
	"os"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultMaxFileSize is the per-file ceiling when none is configured (50 MiB)
const DefaultMaxFileSize int64 = 50 * 1024 * 1024

// Rejection reasons
const (
	ReasonBadExtension = "unsupported file extension"
	ReasonTooLarge     = "file too large"
	ReasonBadContent   = "content is not a JPEG image"
	ReasonUndecodable  = "file is not a valid image"
)

// ValidationResult is the outcome of validating one staged upload
type ValidationResult struct {
	OK     bool
	Reason string
	Width  int
	Height int
}

// UploadValidator accepts or rejects individual uploads
type UploadValidator struct {
	MaxFileSize int64
}

// NewUploadValidator creates a validator with the given size ceiling in bytes
func NewUploadValidator(maxFileSize int64) *UploadValidator {
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}
	return &UploadValidator{MaxFileSize: maxFileSize}
}

// Validate runs the checks in order: extension, size, sniffed content type, decodability.
// The claimed name and size come from the client; content checks read the staged bytes.
func (v *UploadValidator) Validate(path, claimedName string, claimedSize int64) ValidationResult {
	if !IsJPEGFile(claimedName) {
		return reject(ReasonBadExtension, claimedName)
	}

	size := claimedSize
	if info, err := os.Stat(path); err == nil && info.Size() > size {
		size = info.Size()
	}
	if size > v.MaxFileSize {
		return reject(ReasonTooLarge, fmt.Sprintf("%d bytes > %d bytes", size, v.MaxFileSize))
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return reject(ReasonBadContent, err.Error())
	}
	if !IsJPEGMime(mtype.String()) {
		return reject(ReasonBadContent, mtype.String())
	}

	f, err := os.Open(path)
	if err != nil {
		return reject(ReasonUndecodable, err.Error())
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return reject(ReasonUndecodable, err.Error())
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return reject(ReasonUndecodable, "zero dimensions")
	}

	return ValidationResult{OK: true, Width: cfg.Width, Height: cfg.Height}
}

func reject(reason, detail string) ValidationResult {
	if detail != "" {
		reason = fmt.Sprintf("%s: %s", reason, detail)
	}
	return ValidationResult{Reason: reason}
}

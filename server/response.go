package server

import (
	"photobatch/capacity"
	"photobatch/types"

	"github.com/gin-gonic/gin"
)

type batchResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	*types.BatchResult
}

type mergeResponse struct {
	Success bool `json:"success"`
	*types.MergeResult
}

type capacityResponse struct {
	Success bool `json:"success"`
	*capacity.Report
}

// respondOK writes the success envelope with extra top-level fields
func respondOK(c *gin.Context, status int, fields gin.H) {
	body := gin.H{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	c.JSON(status, body)
}

// respondError writes the failure envelope
func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "error": message})
}

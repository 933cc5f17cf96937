package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/KarlMeierMattern/stock-signals/services/scanner"
)

// ScanRunner runs one full scan pass.
type ScanRunner interface {
	Scan(ctx context.Context) ([]scanner.ScanResult, error)
}

// ScanController exposes the scan trigger to external schedulers
type ScanController struct {
	scanner ScanRunner
}

// NewScanController creates a new scan controller
func NewScanController(runner ScanRunner) *ScanController {
	return &ScanController{scanner: runner}
}

// RunScan triggers a full scan and returns the batch summary. Counts let the
// caller distinguish "no crossovers today" from "some symbols failed".
// GET|POST /api/v1/scan
func (sc *ScanController) RunScan(c *gin.Context) {
	results, err := sc.scanner.Scan(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("Scan failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, scanner.Summarize(results))
}

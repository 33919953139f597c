package ui

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"github.com/wsuduce/ghost-rank/adapters/dataset"
	"github.com/wsuduce/ghost-rank/app"
	"github.com/wsuduce/ghost-rank/domain/core"
	apperrors "github.com/wsuduce/ghost-rank/internal/errors"
)

// analyzeRequest carries one curve's L-function data.
type analyzeRequest struct {
	LPrime    float64 `json:"l_prime"`
	LValue    float64 `json:"l_value"`
	Conductor int     `json:"conductor" binding:"required"`
	Rank      int     `json:"rank"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "ghost-rank",
		"version": Version,
	})
}

func (s *Server) handleAnalyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "detail": err.Error()})
		return
	}

	analysis, err := s.calibration.AnalyzeCurve(req.LPrime, req.LValue, req.Conductor, req.Rank)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, newAnalysisResponse(analysis))
}

func (s *Server) handleCalibration(c *gin.Context) {
	report, err := s.calibration.Report()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// handleDetect accepts a multipart dataset upload (field "dataset") and
// runs a batch scan over it. Optional form values threshold and rank
// override the configured defaults. The run is archived whenever an
// archive is configured.
func (s *Server) handleDetect(c *gin.Context) {
	file, err := c.FormFile("dataset")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "dataset file is required"})
		return
	}

	threshold := s.cfg.Detector.Threshold
	if v := c.PostForm("threshold"); v != "" {
		threshold, err = strconv.ParseFloat(v, 64)
		if err != nil || threshold <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "threshold must be a positive number"})
			return
		}
	}
	rankFilter := s.cfg.Detector.RankFilter
	if v := c.PostForm("rank"); v != "" {
		rankFilter, err = strconv.Atoi(v)
		if err != nil || rankFilter < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "rank must be a non-negative integer"})
			return
		}
	}

	tmpDir, err := os.MkdirTemp("", "ghost-rank-upload")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to stage upload"})
		return
	}
	defer os.RemoveAll(tmpDir)

	uploadPath := filepath.Join(tmpDir, filepath.Base(file.Filename))
	if err := c.SaveUploadedFile(file, uploadPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to stage upload"})
		return
	}

	result, err := s.detection.Run(c.Request.Context(), app.DetectionRequest{
		Reader:     dataset.NewDataReader(uploadPath),
		Threshold:  threshold,
		RankFilter: rankFilter,
		Archive:    s.detection.ArchiveEnabled(),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	resp := gin.H{"stats": result.Stats, "ghosts": newGhostResponses(result.Ghosts)}
	if result.Run != nil {
		resp["run_id"] = result.Run.ID
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleListRuns(c *gin.Context) {
	limit := 20
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	runs, err := s.detection.ListRuns(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs, "count": len(runs)})
}

func (s *Server) handleGetRun(c *gin.Context) {
	id, err := core.ParseRunID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run id"})
		return
	}

	run, ghosts, err := s.detection.GetRun(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"run": run, "ghosts": newGhostResponses(ghosts)})
}

// handleReport serves the calibration report as HTML rendered from the
// markdown summary.
func (s *Server) handleReport(c *gin.Context) {
	md, err := s.calibration.ReportMarkdown()
	if err != nil {
		writeError(c, err)
		return
	}

	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags | mdhtml.CompletePage})
	c.Data(http.StatusOK, "text/html; charset=utf-8", markdown.Render(p.Parse(md), renderer))
}

// writeError maps application error codes to HTTP statuses.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrArchiveDisabled):
		status = http.StatusServiceUnavailable
	case errors.Is(err, core.ErrRunNotFound):
		status = http.StatusNotFound
	default:
		switch apperrors.GetCode(err) {
		case apperrors.CodeInvalidInput, apperrors.CodeValidationError:
			status = http.StatusBadRequest
		case apperrors.CodeNotImplemented:
			status = http.StatusUnprocessableEntity
		case apperrors.CodeNotFound:
			status = http.StatusNotFound
		case apperrors.CodeDatabaseError:
			status = http.StatusServiceUnavailable
		}
	}

	c.JSON(status, gin.H{"error": err.Error(), "code": apperrors.GetCode(err)})
}

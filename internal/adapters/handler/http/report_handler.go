package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/comitanigiacomo/kanso-report-engine/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/kanso-report-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-report-engine/internal/core/services"
)

const maxBatchSize = 500

type ReportService interface {
	Generate(ctx context.Context, in services.GenerateInput) (*domain.ReportRecord, error)
	RunBatch(ctx context.Context, inputs []services.BatchInput) []services.BatchResult
	Latest(ctx context.Context, userID domain.ID, reportType domain.ReportType) (*domain.ReportRecord, error)
}

type BatchQueue interface {
	Enqueue(inputs []services.BatchInput) (string, bool)
}

type ReportHandler struct {
	svc    ReportService
	queue  BatchQueue
	logger *zap.Logger
}

// NewReportHandler builds the report endpoints. queue may be nil, which
// disables background batches.
func NewReportHandler(svc ReportService, queue BatchQueue, logger *zap.Logger) *ReportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportHandler{
		svc:    svc,
		queue:  queue,
		logger: logger,
	}
}

type generateRequest struct {
	domain.Bundle
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type batchRequest struct {
	Bundles   []domain.Bundle `json:"bundles" binding:"required"`
	StartDate string          `json:"start_date"`
	EndDate   string          `json:"end_date"`
}

func (h *ReportHandler) RegisterRoutes(router *gin.RouterGroup) {
	reports := router.Group("/reports")
	{
		reports.POST("/generate", h.Generate)
		reports.POST("/batch", h.Batch)
		reports.GET("/:user_id/latest", h.Latest)
	}
}

func (h *ReportHandler) Generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := h.svc.Generate(c.Request.Context(), services.GenerateInput{
		Bundle:    req.Bundle,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	})
	if err != nil {
		h.handleGenerateError(c, rec, err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

func (h *ReportHandler) handleGenerateError(c *gin.Context, rec *domain.ReportRecord, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidBundle),
		errors.Is(err, domain.ErrInvalidPeriod),
		errors.Is(err, domain.ErrInvalidDate):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNoActiveHabits):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case rec != nil && rec.Failed():
		c.JSON(http.StatusBadGateway, rec)
	default:
		h.logger.Error("report request failed",
			zap.String("subject", subject(c)),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate report"})
	}
}

func (h *ReportHandler) Batch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Bundles) > maxBatchSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "too many bundles, max " + strconv.Itoa(maxBatchSize) + " allowed"})
		return
	}

	background, err := strconv.ParseBool(c.DefaultQuery("background", "false"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "background must be a boolean"})
		return
	}

	inputs := make([]services.BatchInput, len(req.Bundles))
	for i, b := range req.Bundles {
		inputs[i] = services.BatchInput{
			Source:    "request[" + strconv.Itoa(i) + "]",
			Bundle:    b,
			StartDate: req.StartDate,
			EndDate:   req.EndDate,
		}
	}

	if background {
		if h.queue == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "background processing is disabled"})
			return
		}
		jobID, ok := h.queue.Enqueue(inputs)
		if !ok {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "batch queue is full, retry later"})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"job_id": jobID, "queued": len(inputs)})
		return
	}

	results := h.svc.RunBatch(c.Request.Context(), inputs)
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (h *ReportHandler) Latest(c *gin.Context) {
	userID := domain.NewID(c.Param("user_id"))
	if userID.IsZero() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	reportType, ok := domain.ParseReportType(c.DefaultQuery("type", string(domain.ReportWeekly)))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type must be weekly or monthly"})
		return
	}

	rec, err := h.svc.Latest(c.Request.Context(), userID, reportType)
	if err != nil {
		if errors.Is(err, domain.ErrReportNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
			return
		}
		h.logger.Error("failed to load latest report", zap.String("user_id", userID.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, rec)
}

func subject(c *gin.Context) string {
	s, _ := middleware.GetSubject(c)
	return s
}

package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spenddesk/receipt-pipeline/internal/extraction"
	"github.com/spenddesk/receipt-pipeline/internal/models"
	"github.com/spenddesk/receipt-pipeline/internal/repository"
)

// ReceiptProcessor runs the extraction pipeline over one document.
type ReceiptProcessor interface {
	Process(ctx context.Context, data []byte, mimeType string) (*extraction.ExtractedReceipt, *extraction.RunMetadata, error)
}

// ReceiptStore persists and retrieves receipt records.
type ReceiptStore interface {
	Create(ctx context.Context, receipt *models.Receipt) error
	GetByID(ctx context.Context, id string) (*models.Receipt, error)
	List(ctx context.Context, needsReview *bool, limit, offset int) ([]*models.Receipt, error)
}

// Exporter renders receipts as a downloadable workbook.
type Exporter interface {
	Workbook(ctx context.Context, receipts []*models.Receipt) (*bytes.Buffer, error)
}

// Handlers contains all HTTP request handlers
type Handlers struct {
	processor       ReceiptProcessor
	store           ReceiptStore
	exporter        Exporter
	reviewThreshold float64
	logger          *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(processor ReceiptProcessor, store ReceiptStore, exporter Exporter, reviewThreshold float64, logger *zap.Logger) *Handlers {
	if reviewThreshold <= 0 {
		reviewThreshold = extraction.DefaultReviewThreshold
	}
	return &Handlers{
		processor:       processor,
		store:           store,
		exporter:        exporter,
		reviewThreshold: reviewThreshold,
		logger:          logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ProcessResponse is returned after a successful extraction run.
type ProcessResponse struct {
	Receipt     *models.Receipt         `json:"receipt"`
	Diagnostics *extraction.RunMetadata `json:"diagnostics"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: gin.H{
			"status":  "healthy",
			"service": "receipt-pipeline",
			"time":    time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// ProcessReceipt handles POST /api/receipts. The uploaded document is run
// through the pipeline and the resulting receipt is persisted.
func (h *Handlers) ProcessReceipt(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "missing file upload field 'file'"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "failed to open uploaded file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "failed to read uploaded file"})
		return
	}
	if len(data) == 0 {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "uploaded file is empty"})
		return
	}

	mimeType := detectMimeType(fileHeader.Filename, fileHeader.Header.Get("Content-Type"))

	rec, meta, err := h.processor.Process(c.Request.Context(), data, mimeType)
	if err != nil {
		h.logger.Error("Receipt processing failed",
			zap.String("filename", fileHeader.Filename),
			zap.String("mime_type", mimeType),
			zap.Error(err))
		status := http.StatusInternalServerError
		if errors.Is(err, extraction.ErrRasterization) || errors.Is(err, extraction.ErrRecognition) {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, Response{Success: false, Error: err.Error()})
		return
	}

	needsReview := extraction.NeedsReview(rec.Confidence, h.reviewThreshold)
	record := models.FromExtraction(uuid.New().String(), rec, meta, needsReview)

	if err := h.store.Create(c.Request.Context(), record); err != nil {
		h.logger.Error("Failed to persist receipt", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to store receipt"})
		return
	}

	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    ProcessResponse{Receipt: record, Diagnostics: meta},
	})
}

// GetReceipt handles GET /api/receipts/:id
func (h *Handlers) GetReceipt(c *gin.Context) {
	id := c.Param("id")

	receipt, err := h.store.GetByID(c.Request.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "receipt not found"})
		return
	}
	if err != nil {
		h.logger.Error("Failed to get receipt", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to get receipt"})
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: receipt})
}

// ListReceipts handles GET /api/receipts. Optional query parameters:
// needs_review=true|false, limit and offset.
func (h *Handlers) ListReceipts(c *gin.Context) {
	var needsReview *bool
	if v := c.Query("needs_review"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid needs_review parameter"})
			return
		}
		needsReview = &parsed
	}

	limit := 100
	if v := c.Query("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid limit parameter"})
			return
		}
		limit = parsed
	}

	offset := 0
	if v := c.Query("offset"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid offset parameter"})
			return
		}
		offset = parsed
	}

	receipts, err := h.store.List(c.Request.Context(), needsReview, limit, offset)
	if err != nil {
		h.logger.Error("Failed to list receipts", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to list receipts"})
		return
	}
	if receipts == nil {
		receipts = []*models.Receipt{}
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: receipts})
}

// ExportReceipts handles GET /api/receipts/export and streams an XLSX file.
func (h *Handlers) ExportReceipts(c *gin.Context) {
	receipts, err := h.store.List(c.Request.Context(), nil, 10000, 0)
	if err != nil {
		h.logger.Error("Failed to list receipts for export", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to list receipts"})
		return
	}

	buf, err := h.exporter.Workbook(c.Request.Context(), receipts)
	if err != nil {
		h.logger.Error("Failed to export receipts", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to export receipts"})
		return
	}

	filename := fmt.Sprintf("receipts-%s.xlsx", time.Now().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		buf.Bytes())
}

// detectMimeType resolves the document type from the upload, preferring the
// declared Content-Type and falling back to the filename extension.
func detectMimeType(filename, declared string) string {
	if declared != "" && declared != "application/octet-stream" {
		if parsed, _, err := mime.ParseMediaType(declared); err == nil {
			return parsed
		}
	}
	if byExt := mime.TypeByExtension(filepath.Ext(filename)); byExt != "" {
		if parsed, _, err := mime.ParseMediaType(byExt); err == nil {
			return parsed
		}
	}
	return "application/octet-stream"
}

package ocr

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spenddesk/receipt-pipeline/internal/extraction"
)

// MIME types the extractor understands. Anything that is not a PDF is handed
// to the recognizer as-is and treated as a raster image.
const mimePDF = "application/pdf"

// DefaultMaxPDFPages bounds how many pages of a PDF are rasterized; receipts
// rarely have more than one.
const DefaultMaxPDFPages = 2

// Extractor is the always-run, offline OCR pass. It rasterizes PDFs, runs a
// pooled recognizer over every page, and parses a best-effort structured
// guess out of the recognized text.
type Extractor struct {
	pool     *Pool
	maxPages int
	logger   *zap.Logger
}

// NewExtractor builds a primary extractor on top of a recognizer pool.
func NewExtractor(pool *Pool, logger *zap.Logger) *Extractor {
	return &Extractor{pool: pool, maxPages: DefaultMaxPDFPages, logger: logger}
}

// Extract implements extraction.PrimaryExtractor.
func (e *Extractor) Extract(ctx context.Context, data []byte, mimeType string) (*extraction.PrimaryResult, error) {
	pages := [][]byte{data}
	if mimeType == mimePDF {
		rasterized, err := RasterizePDF(data, e.maxPages)
		if err != nil {
			return nil, err
		}
		pages = rasterized
		e.logger.Debug("pdf rasterized", zap.Int("pages", len(pages)))
	}

	rec, err := e.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer e.pool.Release(rec)

	var texts []string
	var confSum float64
	for n, page := range pages {
		res, err := rec.Recognize(ctx, page)
		if err != nil {
			e.logger.Error("recognition failed", zap.Int("page", n), zap.Error(err))
			return nil, err
		}
		texts = append(texts, res.Text)
		confSum += res.Confidence
	}

	rawText := strings.Join(texts, "\n")
	result := extraction.GuessFields(extraction.NormalizeText(rawText))
	result.RawText = rawText
	result.Confidence = confSum / float64(len(pages))

	e.logger.Debug("primary extraction complete",
		zap.Float64("confidence", result.Confidence),
		zap.String("vendor", result.Vendor),
		zap.Int("line_items", len(result.LineItems)))

	return result, nil
}

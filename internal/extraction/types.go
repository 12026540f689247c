package extraction

import (
	"context"
	"time"
)

// ProcessingMethod records which stages contributed to the final result.
type ProcessingMethod string

const (
	MethodOCROnly    ProcessingMethod = "ocr-only"
	MethodAIEnhanced ProcessingMethod = "ai-enhanced"
)

// UnknownVendor is the sentinel used when no vendor could be determined.
const UnknownVendor = "Unknown Vendor"

// DefaultCurrency is assumed when no currency marker is found in the text.
const DefaultCurrency = "USD"

// DefaultCategory is used when the classifier has no better answer.
const DefaultCategory = "Other"

// LineItem is a single itemized entry on a receipt. IDs are generated fresh
// for every pipeline run and never carried over between extraction sources.
type LineItem struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	TotalPrice  float64 `json:"total_price"`
	Category    string  `json:"category"`
}

// ExtractedReceipt is the canonical output of the pipeline. It is constructed
// fresh per run and immutable once returned by the merge step.
type ExtractedReceipt struct {
	Vendor           string           `json:"vendor"`
	Date             string           `json:"date"` // ISO YYYY-MM-DD
	TotalAmount      float64          `json:"total_amount"`
	Subtotal         float64          `json:"subtotal"`
	Tax              float64          `json:"tax"`
	Currency         string           `json:"currency"`
	LineItems        []LineItem       `json:"line_items"`
	Category         string           `json:"category"`
	Confidence       float64          `json:"confidence"` // 0-100
	ProcessingMethod ProcessingMethod `json:"processing_method"`
	RawText          string           `json:"raw_text"`
}

// PrimaryResult is the output of the always-run OCR pass: the recognized text,
// the recognizer's own legibility confidence, and a best-effort structured
// guess parsed out of the text.
type PrimaryResult struct {
	RawText     string
	Confidence  float64 // 0-100, character/word-level legibility
	Vendor      string
	Date        string
	TotalAmount float64
	Subtotal    float64
	Tax         float64
	Currency    string
	LineItems   []LineItem
}

// ParsedItem is a line item as returned by the structured AI extractor.
type ParsedItem struct {
	Description string  `json:"desc"`
	Price       float64 `json:"price"`
	Quantity    float64 `json:"quantity"`
}

// ParsedReceipt is a validated, normalized AI extraction result.
type ParsedReceipt struct {
	Vendor     string       `json:"vendor"`
	Date       string       `json:"date"`
	Total      float64      `json:"total"`
	Subtotal   float64      `json:"subtotal"`
	Tax        float64      `json:"tax"`
	Items      []ParsedItem `json:"items"`
	Confidence float64      `json:"confidence"`
}

// RunMetadata is diagnostic information emitted alongside every result.
type RunMetadata struct {
	Provider      string        `json:"provider"`
	Duration      time.Duration `json:"duration"`
	EstimatedCost float64       `json:"estimated_cost"`
	Escalated     bool          `json:"escalated"`
	CacheHit      bool          `json:"cache_hit"`
}

// PrimaryExtractor runs the cheap, offline OCR pass over an input document.
// PDF inputs are rasterized first; rasterization failure is fatal.
type PrimaryExtractor interface {
	Extract(ctx context.Context, data []byte, mimeType string) (*PrimaryResult, error)
}

// StructuredExtractor is the higher-cost AI-based extraction step. Every
// failure (network, timeout, schema violation) surfaces as an error wrapping
// ErrAIExtraction and must be treated as non-fatal by the caller.
type StructuredExtractor interface {
	ExtractStructured(ctx context.Context, cleanedText string, hint *PrimaryResult) (*ParsedReceipt, error)
}

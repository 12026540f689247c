package models

import (
	"time"

	"github.com/spenddesk/receipt-pipeline/internal/extraction"
)

// Receipt is a persisted extraction result plus run diagnostics.
type Receipt struct {
	ID               string                `json:"id"`
	Vendor           string                `json:"vendor"`
	Date             string                `json:"date"`
	TotalAmount      float64               `json:"total_amount"`
	Subtotal         float64               `json:"subtotal"`
	Tax              float64               `json:"tax"`
	Currency         string                `json:"currency"`
	Category         string                `json:"category"`
	Confidence       float64               `json:"confidence"`
	ProcessingMethod string                `json:"processing_method"`
	LineItems        []extraction.LineItem `json:"line_items"`
	RawText          string                `json:"raw_text,omitempty"`
	Provider         string                `json:"provider"`
	DurationMS       int64                 `json:"duration_ms"`
	EstimatedCost    float64               `json:"estimated_cost"`
	Escalated        bool                  `json:"escalated"`
	NeedsReview      bool                  `json:"needs_review"`
	CreatedAt        time.Time             `json:"created_at"`
}

// FromExtraction builds a persistable record from a pipeline result.
func FromExtraction(id string, rec *extraction.ExtractedReceipt, meta *extraction.RunMetadata, needsReview bool) *Receipt {
	return &Receipt{
		ID:               id,
		Vendor:           rec.Vendor,
		Date:             rec.Date,
		TotalAmount:      rec.TotalAmount,
		Subtotal:         rec.Subtotal,
		Tax:              rec.Tax,
		Currency:         rec.Currency,
		Category:         rec.Category,
		Confidence:       rec.Confidence,
		ProcessingMethod: string(rec.ProcessingMethod),
		LineItems:        rec.LineItems,
		RawText:          rec.RawText,
		Provider:         meta.Provider,
		DurationMS:       meta.Duration.Milliseconds(),
		EstimatedCost:    meta.EstimatedCost,
		Escalated:        meta.Escalated,
		NeedsReview:      needsReview,
		CreatedAt:        time.Now(),
	}
}

package extraction

import (
	"time"

	"github.com/google/uuid"
)

// Completeness penalties and confidence weighting for merged results.
const (
	penaltyUnknownVendor = 20.0
	penaltyZeroTotal     = 30.0
	penaltyNoLineItems   = 25.0
	completenessFloor    = 30.0
	aiBoostFactor        = 1.2
	aiBoostCap           = 95.0
)

// MergeInput is the tagged input to the merge step. Escalated distinguishes
// "AI was never consulted" from "AI was consulted and failed": the former
// passes the primary confidence through unmodified, the latter recomputes it
// from completeness without the AI boost.
type MergeInput struct {
	Primary   *PrimaryResult
	AI        *ParsedReceipt // nil when the AI stage was skipped or failed
	Escalated bool
}

// Merge reconciles the primary extraction with an optional AI extraction into
// one canonical receipt. Every field is decided independently, so a partially
// useful AI result still contributes the fields that validated well.
func Merge(in MergeInput) *ExtractedReceipt {
	p := in.Primary
	ai := in.AI
	today := time.Now().Format("2006-01-02")

	rec := &ExtractedReceipt{
		Vendor:           p.Vendor,
		Date:             p.Date,
		TotalAmount:      SanitizeAmount(p.TotalAmount),
		Subtotal:         SanitizeAmount(p.Subtotal),
		Tax:              SanitizeAmount(p.Tax),
		Currency:         p.Currency,
		LineItems:        p.LineItems,
		ProcessingMethod: MethodOCROnly,
		RawText:          p.RawText,
	}
	if rec.Vendor == "" {
		rec.Vendor = UnknownVendor
	}
	if rec.Date == "" {
		rec.Date = today
	}
	if rec.Currency == "" {
		rec.Currency = DefaultCurrency
	}

	if ai != nil {
		rec.ProcessingMethod = MethodAIEnhanced

		if ai.Vendor != "" && ai.Vendor != UnknownVendor && len(ai.Vendor) > 2 {
			rec.Vendor = ai.Vendor
		}
		// An AI date equal to today usually means the model defaulted because
		// it could not parse one; keep the primary date in that case.
		if ai.Date != "" && ai.Date != today {
			rec.Date = ai.Date
		}
		if ai.Total > 0 {
			rec.TotalAmount = SanitizeAmount(ai.Total)
		}
		if ai.Subtotal > 0 {
			rec.Subtotal = SanitizeAmount(ai.Subtotal)
		}
		if ai.Tax > 0 {
			rec.Tax = SanitizeAmount(ai.Tax)
		}
		// Line items are replaced wholesale, never merged item-by-item. Each
		// replacement gets a fresh id; ids never survive across sources.
		if len(ai.Items) > 0 {
			items := make([]LineItem, 0, len(ai.Items))
			for _, it := range ai.Items {
				qty := it.Quantity
				if qty < 1 {
					qty = 1
				}
				price := SanitizeAmount(it.Price)
				items = append(items, LineItem{
					ID:          uuid.New().String(),
					Description: it.Description,
					Quantity:    qty,
					UnitPrice:   SanitizeAmount(price / qty),
					TotalPrice:  price,
					Category:    ClassifyDescription(it.Description),
				})
			}
			rec.LineItems = items
		}
	}

	// Category is always recomputed from the final vendor and items rather
	// than carried from either source.
	rec.Category = ClassifyReceipt(rec.Vendor, rec.LineItems)
	rec.Confidence = mergedConfidence(p.Confidence, rec, ai, in.Escalated)

	return rec
}

// mergedConfidence combines the recognizer's legibility confidence with a
// completeness score for the final record. The AI boost applies only when the
// AI stage actually ran and succeeded.
func mergedConfidence(ocrConfidence float64, rec *ExtractedReceipt, ai *ParsedReceipt, escalated bool) float64 {
	if !escalated {
		return clampConfidence(ocrConfidence)
	}

	completeness := 100.0
	if rec.Vendor == UnknownVendor {
		completeness -= penaltyUnknownVendor
	}
	if rec.TotalAmount == 0 {
		completeness -= penaltyZeroTotal
	}
	if len(rec.LineItems) == 0 {
		completeness -= penaltyNoLineItems
	}
	if completeness < completenessFloor {
		completeness = completenessFloor
	}

	conf := clampConfidence(ocrConfidence)*0.5 + completeness*0.5
	if ai != nil {
		conf *= aiBoostFactor
		if conf > aiBoostCap {
			conf = aiBoostCap
		}
	}
	return clampConfidence(conf)
}

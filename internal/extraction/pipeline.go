package extraction

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Rough pricing model for the AI stage, used for the cost diagnostics the
// monitoring tooling consumes. Tokens are approximated at 4 chars each.
const (
	aiCostPer1KTokens   = 0.0015
	aiCompletionAllowed = 500
)

// Options configures a Pipeline.
type Options struct {
	Provider          string        // recognizer provider name, for diagnostics
	AccuracyThreshold float64       // escalate to AI below this primary confidence
	AITimeout         time.Duration // per-call budget for the AI stage
	EnableCaching     bool          // memoize results by content hash
	CostThreshold     float64       // skip AI when the estimated call cost exceeds this (0 = no cap)
}

// Pipeline sequences the extraction stages: primary OCR, escalation decision,
// optional AI extraction, merge. The only fatal stages are rasterization and
// primary recognition; an AI failure degrades to an ocr-only result.
type Pipeline struct {
	primary PrimaryExtractor
	ai      StructuredExtractor
	opts    Options
	logger  *zap.Logger

	mu    sync.Mutex
	cache map[[32]byte]*ExtractedReceipt
}

// NewPipeline builds a pipeline. The AI extractor may be nil, in which case
// every run stays on the cheap path.
func NewPipeline(primary PrimaryExtractor, ai StructuredExtractor, opts Options, logger *zap.Logger) *Pipeline {
	if opts.Provider == "" {
		opts.Provider = "tesseract"
	}
	if opts.AccuracyThreshold <= 0 {
		opts.AccuracyThreshold = DefaultAccuracyThreshold
	}
	if opts.AITimeout <= 0 {
		opts.AITimeout = 2 * time.Minute
	}

	p := &Pipeline{
		primary: primary,
		ai:      ai,
		opts:    opts,
		logger:  logger,
	}
	if opts.EnableCaching {
		p.cache = make(map[[32]byte]*ExtractedReceipt)
	}
	return p
}

// Process runs the full pipeline over one document and returns the canonical
// receipt plus run diagnostics. Concurrent calls are independent.
func (p *Pipeline) Process(ctx context.Context, data []byte, mimeType string) (*ExtractedReceipt, *RunMetadata, error) {
	start := time.Now()
	meta := &RunMetadata{Provider: p.opts.Provider}

	key := sha256.Sum256(data)
	if rec := p.cached(key); rec != nil {
		meta.CacheHit = true
		meta.Duration = time.Since(start)
		return rec, meta, nil
	}

	primary, err := p.primary.Extract(ctx, data, mimeType)
	if err != nil {
		p.logger.Error("primary extraction failed",
			zap.String("mime_type", mimeType),
			zap.Error(err))
		meta.Duration = time.Since(start)
		return nil, meta, fmt.Errorf("primary extraction: %w", err)
	}

	cleaned := NormalizeText(primary.RawText)
	escalated := p.ai != nil && ShouldEscalate(primary.Confidence, p.opts.AccuracyThreshold)

	var ai *ParsedReceipt
	if escalated {
		cost := estimateAICost(len(cleaned))
		if p.opts.CostThreshold > 0 && cost > p.opts.CostThreshold {
			p.logger.Warn("ai escalation skipped, estimated cost over threshold",
				zap.Float64("estimated_cost", cost),
				zap.Float64("cost_threshold", p.opts.CostThreshold))
			escalated = false
		} else {
			meta.EstimatedCost = cost
			ai = p.runAIStage(ctx, cleaned, primary)
		}
	}
	meta.Escalated = escalated

	rec := Merge(MergeInput{Primary: primary, AI: ai, Escalated: escalated})
	meta.Duration = time.Since(start)

	p.store(key, rec)

	p.logger.Info("receipt processed",
		zap.String("vendor", rec.Vendor),
		zap.Float64("total", rec.TotalAmount),
		zap.Float64("confidence", rec.Confidence),
		zap.String("method", string(rec.ProcessingMethod)),
		zap.Bool("escalated", escalated),
		zap.Duration("duration", meta.Duration))

	return rec, meta, nil
}

// runAIStage invokes the structured extractor under its own timeout. Failures
// are logged and swallowed: the pipeline must always be able to complete on
// the primary result alone.
func (p *Pipeline) runAIStage(ctx context.Context, cleaned string, primary *PrimaryResult) *ParsedReceipt {
	aiCtx, cancel := context.WithTimeout(ctx, p.opts.AITimeout)
	defer cancel()

	parsed, err := p.ai.ExtractStructured(aiCtx, cleaned, primary)
	if err != nil {
		p.logger.Warn("ai extraction failed, falling back to primary result",
			zap.Float64("primary_confidence", primary.Confidence),
			zap.Error(err))
		return nil
	}
	return parsed
}

func (p *Pipeline) cached(key [32]byte) *ExtractedReceipt {
	if p.cache == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cache[key]
}

func (p *Pipeline) store(key [32]byte, rec *ExtractedReceipt) {
	if p.cache == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache[key] = rec
}

func estimateAICost(promptChars int) float64 {
	tokens := float64(promptChars)/4 + aiCompletionAllowed
	return tokens / 1000 * aiCostPer1KTokens
}

package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/spenddesk/receipt-pipeline/internal/extraction"
)

// ProvisionalConfidence is assigned to every accepted AI extraction. It
// represents extractor self-trust, not measured certainty.
const ProvisionalConfidence = 90.0

// completionClient is the slice of the OpenAI client the extractor needs;
// tests substitute a fake.
type completionClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Config configures the structured extractor.
type Config struct {
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
}

// Extractor calls a language model constrained to return the fixed receipt
// JSON schema, validates the response server-side, and normalizes accepted
// results. Every failure mode wraps extraction.ErrAIExtraction.
type Extractor struct {
	client      completionClient
	model       string
	temperature float32
	maxTokens   int
	logger      *zap.Logger
}

// NewExtractor creates a structured extractor backed by the OpenAI API.
func NewExtractor(cfg Config, logger *zap.Logger) *Extractor {
	return newExtractor(openai.NewClient(cfg.APIKey), cfg, logger)
}

func newExtractor(client completionClient, cfg Config, logger *zap.Logger) *Extractor {
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.1
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1000
	}
	return &Extractor{
		client:      client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		logger:      logger,
	}
}

// wireReceipt mirrors the response schema before normalization.
type wireReceipt struct {
	Vendor   string     `json:"vendor"`
	Date     string     `json:"date"`
	Total    float64    `json:"total"`
	Subtotal float64    `json:"subtotal"`
	Tax      float64    `json:"tax"`
	Items    []wireItem `json:"items"`
}

type wireItem struct {
	Desc     string  `json:"desc"`
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
}

// ExtractStructured implements extraction.StructuredExtractor.
func (e *Extractor) ExtractStructured(ctx context.Context, cleanedText string, hint *extraction.PrimaryResult) (*extraction.ParsedReceipt, error) {
	start := time.Now()

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.model,
		Temperature: e.temperature,
		MaxTokens:   e.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildUserPrompt(cleanedText, hint)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		e.logger.Warn("model call failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", extraction.ErrAIExtraction, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty response", extraction.ErrAIExtraction)
	}

	raw := []byte(resp.Choices[0].Message.Content)
	if err := validateResponse(raw); err != nil {
		e.logger.Warn("response rejected by schema validation",
			zap.Error(err),
			zap.Int("content_length", len(raw)))
		return nil, err
	}

	var wire wireReceipt
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", extraction.ErrSchemaValidation, err)
	}

	parsed := normalize(wire)

	e.logger.Info("structured extraction accepted",
		zap.String("vendor", parsed.Vendor),
		zap.Float64("total", parsed.Total),
		zap.Int("items", len(parsed.Items)),
		zap.Duration("duration", time.Since(start)))

	return parsed, nil
}

// normalize re-parses dates and rounds monetary fields on an accepted
// response. A date that matched the schema pattern but is not a real
// calendar date falls back to the processing date.
func normalize(w wireReceipt) *extraction.ParsedReceipt {
	date := w.Date
	if t, err := time.Parse("2006-01-02", date); err != nil {
		date = time.Now().Format("2006-01-02")
	} else {
		date = t.Format("2006-01-02")
	}

	items := make([]extraction.ParsedItem, 0, len(w.Items))
	for _, it := range w.Items {
		qty := it.Quantity
		if qty < 1 {
			qty = 1
		}
		items = append(items, extraction.ParsedItem{
			Description: it.Desc,
			Price:       extraction.SanitizeAmount(it.Price),
			Quantity:    qty,
		})
	}

	return &extraction.ParsedReceipt{
		Vendor:     w.Vendor,
		Date:       date,
		Total:      extraction.SanitizeAmount(w.Total),
		Subtotal:   extraction.SanitizeAmount(w.Subtotal),
		Tax:        extraction.SanitizeAmount(w.Tax),
		Items:      items,
		Confidence: ProvisionalConfidence,
	}
}

package ai

import (
	"context"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spenddesk/receipt-pipeline/internal/extraction"
)

// fakeCompletionClient replays a canned model response.
type fakeCompletionClient struct {
	content string
	err     error
	lastReq openai.ChatCompletionRequest
}

func (f *fakeCompletionClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: f.content}},
		},
	}, nil
}

func testExtractor(client completionClient) *Extractor {
	return newExtractor(client, Config{}, zap.NewNop())
}

func TestExtractStructured_Success(t *testing.T) {
	client := &fakeCompletionClient{content: `{
		"vendor": "Trader Joe's",
		"date": "2024-03-15",
		"total": 11.85,
		"subtotal": 10.97,
		"tax": 0.88,
		"items": [
			{"desc": "organic bananas", "price": 1.98, "quantity": 2},
			{"desc": "coffee beans", "price": 8.99}
		]
	}`}
	ex := testExtractor(client)

	parsed, err := ex.ExtractStructured(context.Background(), "cleaned text", &extraction.PrimaryResult{})
	require.NoError(t, err)

	assert.Equal(t, "Trader Joe's", parsed.Vendor)
	assert.Equal(t, "2024-03-15", parsed.Date)
	assert.Equal(t, 11.85, parsed.Total)
	assert.Equal(t, ProvisionalConfidence, parsed.Confidence)

	require.Len(t, parsed.Items, 2)
	assert.Equal(t, 2.0, parsed.Items[0].Quantity)
	assert.Equal(t, 1.0, parsed.Items[1].Quantity, "missing quantity defaults to 1")

	// The request must force JSON-object output.
	require.NotNil(t, client.lastReq.ResponseFormat)
	assert.Equal(t, openai.ChatCompletionResponseFormatTypeJSONObject, client.lastReq.ResponseFormat.Type)
}

func TestExtractStructured_NetworkError(t *testing.T) {
	client := &fakeCompletionClient{err: errors.New("connection refused")}
	ex := testExtractor(client)

	_, err := ex.ExtractStructured(context.Background(), "text", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, extraction.ErrAIExtraction)
	assert.NotErrorIs(t, err, extraction.ErrSchemaValidation)
}

func TestExtractStructured_SchemaRejection(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "here is your receipt: Trader Joe's, $11.85"},
		{"missing vendor", `{"date": "2024-03-15", "total": 11.85, "items": []}`},
		{"empty vendor", `{"vendor": "", "date": "2024-03-15", "total": 11.85, "items": []}`},
		{"bad date format", `{"vendor": "TJ Store", "date": "03/15/2024", "total": 11.85, "items": []}`},
		{"zero total", `{"vendor": "TJ Store", "date": "2024-03-15", "total": 0, "items": []}`},
		{"item missing price", `{"vendor": "TJ Store", "date": "2024-03-15", "total": 5, "items": [{"desc": "bagel"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := testExtractor(&fakeCompletionClient{content: tt.content})

			_, err := ex.ExtractStructured(context.Background(), "text", nil)
			require.Error(t, err)
			// A schema rejection is still an AI extraction failure: one
			// invalid field invalidates the entire response.
			assert.ErrorIs(t, err, extraction.ErrSchemaValidation)
			assert.ErrorIs(t, err, extraction.ErrAIExtraction)
		})
	}
}

func TestExtractStructured_ImpossibleDateFallsBackToToday(t *testing.T) {
	client := &fakeCompletionClient{content: `{
		"vendor": "TJ Store",
		"date": "2024-02-31",
		"total": 5.00,
		"items": []
	}`}
	ex := testExtractor(client)

	parsed, err := ex.ExtractStructured(context.Background(), "text", nil)
	require.NoError(t, err)
	assert.NotEqual(t, "2024-02-31", parsed.Date)
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}$`, parsed.Date)
}

func TestExtractStructured_SanitizesAmounts(t *testing.T) {
	client := &fakeCompletionClient{content: `{
		"vendor": "TJ Store",
		"date": "2024-03-15",
		"total": 11.859,
		"subtotal": -3,
		"tax": 0.881,
		"items": [{"desc": "thing", "price": -2.5, "quantity": 0}]
	}`}
	ex := testExtractor(client)

	parsed, err := ex.ExtractStructured(context.Background(), "text", nil)
	require.NoError(t, err)

	assert.Equal(t, 11.86, parsed.Total)
	assert.Equal(t, 0.0, parsed.Subtotal, "negative amounts coerce to zero")
	assert.Equal(t, 0.88, parsed.Tax)
	assert.Equal(t, 0.0, parsed.Items[0].Price)
	assert.Equal(t, 1.0, parsed.Items[0].Quantity)
}

func TestBuildUserPrompt_IncludesHintAndText(t *testing.T) {
	hint := &extraction.PrimaryResult{Vendor: "Trader Joes", Date: "2024-03-15", TotalAmount: 11.85}
	prompt := buildUserPrompt("RECEIPT TEXT HERE", hint)

	assert.Contains(t, prompt, "RECEIPT TEXT HERE")
	assert.Contains(t, prompt, "Trader Joes")
	assert.Contains(t, prompt, "2024-03-15")
}

func TestValidateResponse_AcceptsMinimalReceipt(t *testing.T) {
	err := validateResponse([]byte(`{"vendor": "A Store", "date": "2024-01-01", "total": 1.00, "items": []}`))
	assert.NoError(t, err)
}

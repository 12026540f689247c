package extraction

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge_PrimaryOnlyDefaults(t *testing.T) {
	rec := Merge(MergeInput{
		Primary: &PrimaryResult{Confidence: 85},
	})

	assert.Equal(t, UnknownVendor, rec.Vendor)
	assert.Equal(t, time.Now().Format("2006-01-02"), rec.Date)
	assert.Equal(t, DefaultCurrency, rec.Currency)
	assert.Equal(t, 0.0, rec.TotalAmount)
	assert.Equal(t, MethodOCROnly, rec.ProcessingMethod)
	assert.Equal(t, 85.0, rec.Confidence, "non-escalated runs pass primary confidence through")
}

func TestMerge_AIFieldOverrides(t *testing.T) {
	primary := &PrimaryResult{
		Vendor:      "TRADER JOE",
		Date:        "2024-03-15",
		TotalAmount: 10.00,
		Subtotal:    9.00,
		Tax:         1.00,
		Currency:    "USD",
		Confidence:  50,
	}

	tests := []struct {
		name   string
		ai     *ParsedReceipt
		verify func(t *testing.T, rec *ExtractedReceipt)
	}{
		{
			name: "ai vendor replaces primary",
			ai:   &ParsedReceipt{Vendor: "Trader Joe's #512", Date: "2024-03-15", Total: 11.85},
			verify: func(t *testing.T, rec *ExtractedReceipt) {
				assert.Equal(t, "Trader Joe's #512", rec.Vendor)
			},
		},
		{
			name: "too-short ai vendor ignored",
			ai:   &ParsedReceipt{Vendor: "TJ", Date: "2024-03-15", Total: 11.85},
			verify: func(t *testing.T, rec *ExtractedReceipt) {
				assert.Equal(t, "TRADER JOE", rec.Vendor)
			},
		},
		{
			name: "sentinel ai vendor ignored",
			ai:   &ParsedReceipt{Vendor: UnknownVendor, Date: "2024-03-15", Total: 11.85},
			verify: func(t *testing.T, rec *ExtractedReceipt) {
				assert.Equal(t, "TRADER JOE", rec.Vendor)
			},
		},
		{
			name: "ai date equal to today treated as model default",
			ai:   &ParsedReceipt{Vendor: "Trader Joe's", Date: time.Now().Format("2006-01-02"), Total: 11.85},
			verify: func(t *testing.T, rec *ExtractedReceipt) {
				assert.Equal(t, "2024-03-15", rec.Date)
			},
		},
		{
			name: "ai zero total keeps primary total",
			ai:   &ParsedReceipt{Vendor: "Trader Joe's", Date: "2024-03-16", Total: 0},
			verify: func(t *testing.T, rec *ExtractedReceipt) {
				assert.Equal(t, 10.00, rec.TotalAmount)
				assert.Equal(t, "2024-03-16", rec.Date)
			},
		},
		{
			name: "ai positive amounts override individually",
			ai:   &ParsedReceipt{Vendor: "Trader Joe's", Date: "2024-03-16", Total: 11.85, Tax: 0.88},
			verify: func(t *testing.T, rec *ExtractedReceipt) {
				assert.Equal(t, 11.85, rec.TotalAmount)
				assert.Equal(t, 0.88, rec.Tax)
				assert.Equal(t, 9.00, rec.Subtotal, "zero ai subtotal keeps primary")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Merge(MergeInput{Primary: primary, AI: tt.ai, Escalated: true})
			assert.Equal(t, MethodAIEnhanced, rec.ProcessingMethod)
			tt.verify(t, rec)
		})
	}
}

func TestMerge_LineItemsReplacedWholesale(t *testing.T) {
	primary := &PrimaryResult{
		Confidence: 50,
		LineItems: []LineItem{
			{ID: "primary-1", Description: "smudged item", TotalPrice: 1.00, Quantity: 1},
		},
	}
	ai := &ParsedReceipt{
		Vendor: "Cafe Luna",
		Date:   "2024-03-16",
		Total:  9.00,
		Items: []ParsedItem{
			{Description: "espresso", Price: 3.00, Quantity: 2},
			{Description: "croissant", Price: 3.00},
		},
	}

	rec := Merge(MergeInput{Primary: primary, AI: ai, Escalated: true})

	require.Len(t, rec.LineItems, 2)
	assert.Equal(t, "espresso", rec.LineItems[0].Description)
	assert.Equal(t, 2.0, rec.LineItems[0].Quantity)
	assert.Equal(t, 1.5, rec.LineItems[0].UnitPrice)
	assert.Equal(t, 3.00, rec.LineItems[0].TotalPrice)
	assert.Equal(t, 1.0, rec.LineItems[1].Quantity, "missing quantity defaults to 1")

	for _, it := range rec.LineItems {
		assert.NotEmpty(t, it.ID)
		assert.NotEqual(t, "primary-1", it.ID, "item ids never survive across sources")
	}
}

func TestMerge_EmptyAIItemsKeepPrimaryItems(t *testing.T) {
	primary := &PrimaryResult{
		Confidence: 50,
		LineItems:  []LineItem{{ID: "p1", Description: "bagel", TotalPrice: 2.50, Quantity: 1}},
	}
	ai := &ParsedReceipt{Vendor: "Bagel Shop", Date: "2024-03-16", Total: 2.50}

	rec := Merge(MergeInput{Primary: primary, AI: ai, Escalated: true})
	require.Len(t, rec.LineItems, 1)
	assert.Equal(t, "bagel", rec.LineItems[0].Description)
}

func TestMergedConfidence(t *testing.T) {
	complete := &ExtractedReceipt{
		Vendor:      "Cafe Luna",
		TotalAmount: 9.00,
		LineItems:   []LineItem{{Description: "espresso"}},
	}
	empty := &ExtractedReceipt{Vendor: UnknownVendor}

	t.Run("not escalated passes through", func(t *testing.T) {
		assert.Equal(t, 85.0, mergedConfidence(85, complete, nil, false))
	})

	t.Run("escalated ai failure has no boost", func(t *testing.T) {
		// 50*0.5 + 100*0.5 = 75, no boost applied
		assert.Equal(t, 75.0, mergedConfidence(50, complete, nil, true))
	})

	t.Run("escalated ai success gets boost capped at 95", func(t *testing.T) {
		ai := &ParsedReceipt{}
		// 50*0.5 + 100*0.5 = 75, *1.2 = 90
		assert.InDelta(t, 90.0, mergedConfidence(50, complete, ai, true), 1e-9)
		// 80*0.5 + 100*0.5 = 90, *1.2 = 108 -> capped
		assert.Equal(t, 95.0, mergedConfidence(80, complete, ai, true))
	})

	t.Run("completeness penalties apply with floor", func(t *testing.T) {
		// completeness: 100-20-30-25 = 25 -> floored at 30
		// 40*0.5 + 30*0.5 = 35
		assert.Equal(t, 35.0, mergedConfidence(40, empty, nil, true))
	})

	t.Run("result always within bounds", func(t *testing.T) {
		for _, c := range []float64{-50, 0, 42, 100, 500} {
			got := mergedConfidence(c, complete, &ParsedReceipt{}, true)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 100.0)
		}
	})
}

func TestMerge_MonetaryFieldsNeverNegative(t *testing.T) {
	primary := &PrimaryResult{TotalAmount: -5, Subtotal: -1, Tax: -0.5, Confidence: 90}
	rec := Merge(MergeInput{Primary: primary})

	assert.GreaterOrEqual(t, rec.TotalAmount, 0.0)
	assert.GreaterOrEqual(t, rec.Subtotal, 0.0)
	assert.GreaterOrEqual(t, rec.Tax, 0.0)
}

package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuessFields_FullReceipt(t *testing.T) {
	text := NormalizeText(`Trader Joes
2024-03-15
2 x organic bananas 1.98
coffee beans 8.99
Subtotal 10.97
Tax 0.88
Total 11.85
USD`)

	res := GuessFields(text)

	assert.Equal(t, "Trader Joes", res.Vendor)
	assert.Equal(t, "2024-03-15", res.Date)
	assert.Equal(t, "USD", res.Currency)
	assert.Equal(t, 11.85, res.TotalAmount)
	assert.Equal(t, 10.97, res.Subtotal)
	assert.Equal(t, 0.88, res.Tax)

	require.Len(t, res.LineItems, 2)
	assert.Equal(t, "organic bananas", res.LineItems[0].Description)
	assert.Equal(t, 2.0, res.LineItems[0].Quantity)
	assert.Equal(t, 1.98, res.LineItems[0].TotalPrice)
	assert.Equal(t, 0.99, res.LineItems[0].UnitPrice)
	assert.Equal(t, "coffee beans", res.LineItems[1].Description)
	assert.Equal(t, 1.0, res.LineItems[1].Quantity)
	assert.NotEqual(t, res.LineItems[0].ID, res.LineItems[1].ID)
}

func TestGuessFields_NoLabeledTotalUsesLargestAmount(t *testing.T) {
	res := GuessFields("corner shop snack 3.50 drink 2.25 amount due 5.75")
	assert.Equal(t, 5.75, res.TotalAmount)
}

func TestGuessFields_SlashDate(t *testing.T) {
	res := GuessFields("QuickMart 03/15/2024 Total 9.99")
	assert.Equal(t, "2024-03-15", res.Date)
}

func TestGuessFields_EmptyText(t *testing.T) {
	res := GuessFields("")

	assert.Equal(t, UnknownVendor, res.Vendor)
	assert.Equal(t, "", res.Date)
	assert.Equal(t, DefaultCurrency, res.Currency)
	assert.Equal(t, 0.0, res.TotalAmount)
	assert.Empty(t, res.LineItems)
}

func TestGuessVendor_AmountLabelIsNotAVendor(t *testing.T) {
	res := GuessFields("Total 12.00")
	assert.Equal(t, UnknownVendor, res.Vendor)
}

func TestGuessFields_SkipsAmountLabelItems(t *testing.T) {
	res := GuessFields("sandwich 6.50 total 6.50 change 3.50")

	for _, it := range res.LineItems {
		assert.NotEqual(t, "total", it.Description)
		assert.NotEqual(t, "change", it.Description)
	}
}

package ai

import (
	"fmt"
	"strings"

	"github.com/spenddesk/receipt-pipeline/internal/extraction"
)

const systemPrompt = "You are a receipt parser. Return only valid JSON."

// buildUserPrompt embeds the cleaned OCR text and the primary extractor's
// best-effort guess as a hint, and pins the exact JSON shape expected back.
func buildUserPrompt(cleanedText string, hint *extraction.PrimaryResult) string {
	var b strings.Builder

	b.WriteString("Extract the structured receipt data from the OCR text below.\n\n")
	b.WriteString("Return ONLY a JSON object with this exact shape:\n")
	b.WriteString(`{"vendor": "string", "date": "YYYY-MM-DD", "total": number, "subtotal": number, "tax": number, "items": [{"desc": "string", "price": number, "quantity": number}]}`)
	b.WriteString("\n\nRules:\n")
	b.WriteString("- vendor is the store or merchant name, never empty\n")
	b.WriteString("- date is the transaction date in YYYY-MM-DD\n")
	b.WriteString("- total is the final amount charged, a positive number\n")
	b.WriteString("- items may be empty if no line items are legible\n")
	b.WriteString("- do not invent values you cannot read\n")

	if hint != nil {
		b.WriteString("\nA low-confidence first pass guessed:\n")
		fmt.Fprintf(&b, "vendor=%q date=%q total=%.2f\n", hint.Vendor, hint.Date, hint.TotalAmount)
	}

	b.WriteString("\nOCR text:\n")
	b.WriteString(cleanedText)
	return b.String()
}

package extraction

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Best-effort structured guess parsed out of normalized OCR text. This is the
// cheap counterpart to the AI extractor: regex heuristics only, no network.

var (
	reAmount     = regexp.MustCompile(`\$?\d{1,3}(?:,\d{3})*\.\d{2}\b`)
	reTotal      = regexp.MustCompile(`(?i)\b(?:grand\s+)?total\b[\s:]*(\$?\d{1,3}(?:,\d{3})*\.\d{2})`)
	reSubtotal   = regexp.MustCompile(`(?i)\bsub\s?total\b[\s:]*(\$?\d{1,3}(?:,\d{3})*\.\d{2})`)
	reTax        = regexp.MustCompile(`(?i)\b(?:sales\s+)?tax\b[\s:]*(\$?\d{1,3}(?:,\d{3})*\.\d{2})`)
	reISODate    = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)
	reSlashDate  = regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{2,4}\b`)
	reCurrency   = regexp.MustCompile(`(?i)\b(usd|eur|gbp|cad|aud|jpy|inr)\b`)
	reVendorLead = regexp.MustCompile(`^[A-Za-z][A-Za-z&'. -]{2,59}`)
	reItemPair   = regexp.MustCompile(`(?i)\b(?:(\d{1,3})\s*x\s+)?([a-z][a-z&'. -]{2,40}?)\s+\$?(\d{1,4}\.\d{2})\b`)
)

// words that label amounts rather than describe purchased items
var amountLabels = map[string]bool{
	"total": true, "subtotal": true, "sub total": true, "tax": true,
	"sales tax": true, "grand total": true, "change": true, "cash": true,
	"credit": true, "debit": true, "visa": true, "mastercard": true,
	"amex": true, "balance": true, "balance due": true, "amount": true,
	"amount due": true, "tender": true, "tip": true, "due": true,
	"payment": true, "card": true, "auth": true,
}

// GuessFields parses a best-effort structured guess out of normalized receipt
// text. It never fails: undetermined fields get their documented defaults
// (sentinel vendor, zero amounts, empty item list, empty date).
func GuessFields(text string) *PrimaryResult {
	res := &PrimaryResult{
		Vendor:   guessVendor(text),
		Date:     guessDate(text),
		Currency: guessCurrency(text),
	}

	if m := reTotal.FindStringSubmatch(text); m != nil {
		res.TotalAmount = parseAmount(m[1])
	}
	if m := reSubtotal.FindStringSubmatch(text); m != nil {
		res.Subtotal = parseAmount(m[1])
	}
	if m := reTax.FindStringSubmatch(text); m != nil {
		res.Tax = parseAmount(m[1])
	}

	// No labeled total: fall back to the largest amount on the receipt.
	if res.TotalAmount == 0 {
		for _, a := range reAmount.FindAllString(text, -1) {
			if v := parseAmount(a); v > res.TotalAmount {
				res.TotalAmount = v
			}
		}
	}

	res.LineItems = guessLineItems(text)
	return res
}

func guessVendor(text string) string {
	m := reVendorLead.FindString(text)
	m = strings.TrimSpace(m)
	// A leading fragment that is itself an amount label is not a vendor.
	if m == "" || amountLabels[strings.ToLower(m)] {
		return UnknownVendor
	}
	return m
}

func guessDate(text string) string {
	if m := reISODate.FindString(text); m != "" {
		if t, err := time.Parse("2006-01-02", m); err == nil {
			return t.Format("2006-01-02")
		}
	}
	if m := reSlashDate.FindString(text); m != "" {
		for _, layout := range []string{"01/02/2006", "1/2/2006", "01/02/06", "1/2/06"} {
			if t, err := time.Parse(layout, m); err == nil {
				return t.Format("2006-01-02")
			}
		}
	}
	return ""
}

func guessCurrency(text string) string {
	if m := reCurrency.FindString(text); m != "" {
		return strings.ToUpper(m)
	}
	return DefaultCurrency
}

func guessLineItems(text string) []LineItem {
	const maxItems = 50

	var items []LineItem
	for _, m := range reItemPair.FindAllStringSubmatch(text, -1) {
		desc := strings.TrimSpace(m[2])
		if amountLabels[strings.ToLower(desc)] {
			continue
		}
		price := parseAmount(m[3])
		if price == 0 {
			continue
		}

		qty := 1.0
		if m[1] != "" {
			if q := parseAmount(m[1]); q >= 1 {
				qty = q
			}
		}

		items = append(items, LineItem{
			ID:          uuid.New().String(),
			Description: desc,
			Quantity:    qty,
			UnitPrice:   SanitizeAmount(price / qty),
			TotalPrice:  price,
			Category:    ClassifyDescription(desc),
		})
		if len(items) == maxItems {
			break
		}
	}
	return items
}

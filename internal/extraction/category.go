package extraction

import "strings"

// Keyword-driven expense classification. Categories mirror the taxonomy the
// dashboard groups spending by; anything unmatched falls through to "Other".
var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{"Groceries", []string{
		"grocery", "market", "supermarket", "walmart", "kroger", "safeway",
		"aldi", "costco", "trader joe", "whole foods", "produce", "deli",
	}},
	{"Dining", []string{
		"restaurant", "cafe", "coffee", "espresso", "pizza", "burger",
		"grill", "diner", "bakery", "bar ", "starbucks", "mcdonald", "sushi",
	}},
	{"Fuel", []string{
		"fuel", "gasoline", "gas station", "shell", "chevron", "exxon",
		"mobil", "bp ", "petrol", "diesel",
	}},
	{"Travel", []string{
		"hotel", "motel", "inn ", "airline", "airways", "airfare", "flight",
		"uber", "lyft", "taxi", "parking", "airport", "rental car", "train",
	}},
	{"Office Supplies", []string{
		"staples", "office depot", "office", "paper", "toner", "ink",
		"notebook", "stationery", "printer",
	}},
	{"Software", []string{
		"subscription", "saas", "software", "license", "adobe", "cloud",
		"hosting", "domain",
	}},
	{"Utilities", []string{
		"electric", "utility", "water bill", "internet", "broadband",
		"wireless", "telecom", "phone bill",
	}},
}

// ClassifyDescription classifies a single line item by its description.
func ClassifyDescription(desc string) string {
	return classify(desc)
}

// ClassifyReceipt classifies a whole receipt from its final vendor and line
// items. The vendor name is the strongest signal; item descriptions break
// ties when the vendor is unknown or generic.
func ClassifyReceipt(vendor string, items []LineItem) string {
	if vendor != UnknownVendor {
		if c := classify(vendor); c != DefaultCategory {
			return c
		}
	}

	// Majority vote over classified items.
	counts := make(map[string]int)
	for _, it := range items {
		if c := classify(it.Description); c != DefaultCategory {
			counts[c]++
		}
	}
	best, bestN := DefaultCategory, 0
	for c, n := range counts {
		if n > bestN {
			best, bestN = c, n
		}
	}
	return best
}

func classify(s string) string {
	s = strings.ToLower(s)
	for _, group := range categoryKeywords {
		for _, kw := range group.keywords {
			if strings.Contains(s, kw) {
				return group.category
			}
		}
	}
	return DefaultCategory
}

package extraction

import (
	"math"
	"strconv"
	"strings"
)

// SanitizeAmount coerces any amount to a non-negative finite number rounded
// to 2 decimal places. NaN, infinities and negatives all become 0.
func SanitizeAmount(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return math.Round(v*100) / 100
}

// parseAmount parses a monetary string ("$1,234.56", "47.82") into a
// sanitized float. Unparseable input coerces to 0.
func parseAmount(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return SanitizeAmount(v)
}

// clampConfidence bounds a confidence score to [0, 100].
func clampConfidence(c float64) float64 {
	if math.IsNaN(c) || c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}

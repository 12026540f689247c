package extraction

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "collapses whitespace runs",
			input:    "COSTCO   WHOLESALE\n\n  Total:\t$42.17",
			expected: "COSTCO WHOLESALE Total: $42.17",
		},
		{
			name:     "strips disallowed characters",
			input:    "Café* “Latte” §3.50 | x2",
			expected: "Caf Latte 3.50 x2",
		},
		{
			name:     "keeps receipt punctuation",
			input:    "SUB-TOTAL: $10.00 (2 items) 01/02/2024, aisle 3",
			expected: "SUB-TOTAL: $10.00 (2 items) 01/02/2024, aisle 3",
		},
		{
			name:     "trims leading and trailing space",
			input:    "   store name   ",
			expected: "store name",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
		{
			name:     "whitespace only",
			input:    " \n\t ",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeText(tt.input))
		})
	}
}

func TestNormalizeText_TruncatesLongInput(t *testing.T) {
	long := strings.Repeat("word ", 1000) // 5000 chars
	out := NormalizeText(long)

	assert.LessOrEqual(t, len(out), MaxNormalizedLength)
	assert.False(t, strings.HasSuffix(out, " "), "truncated output must stay trimmed")
}

func TestNormalizeText_Idempotent(t *testing.T) {
	inputs := []string{
		"COSTCO   WHOLESALE\n\nTotal: $42.17",
		"Café* “Latte” §3.50",
		strings.Repeat("receipt line $9.99 ", 300),
		"",
	}

	for _, in := range inputs {
		once := NormalizeText(in)
		twice := NormalizeText(once)
		assert.Equal(t, once, twice, "normalizing twice must equal normalizing once")
	}
}

package utils

import "testing"

func TestTruncateString(t *testing.T) {
	tests := []struct {
		input    string
		length   int
		expected string
	}{
		{"hello world", 5, "he..."},
		{"short", 10, "short"},
		{"exact", 5, "exact"},
		{"", 5, ""},
		{"abc", 2, "ab"},
		{"abc", 3, "abc"},
	}

	for _, tt := range tests {
		result := TruncateString(tt.input, tt.length)
		if result != tt.expected {
			t.Errorf("TruncateString(%q, %d) = %q; want %q", tt.input, tt.length, result, tt.expected)
		}
	}
}

func TestAddCommas(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"123", "123"},
		{"1234", "1,234"},
		{"123456", "123,456"},
		{"1234567", "1,234,567"},
		{"1234.56", "1,234.56"},
		{"-1234", "-1,234"},
		{"", ""},
	}

	for _, tt := range tests {
		result := AddCommas(tt.input)
		if result != tt.expected {
			t.Errorf("AddCommas(%q) = %q; want %q", tt.input, result, tt.expected)
		}
	}
}

func f(v float64) *float64 { return &v }

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		name     string
		value    *float64
		compact  bool
		expected string
	}{
		{"nil", nil, false, "--"},
		{"sub dollar", f(0.000123), false, "$0.000123"},
		{"single digit", f(1.2345), false, "$1.2345"},
		{"regular", f(123.456), false, "$123.46"},
		{"thousands", f(54321), false, "$54,321.00"},
		{"auto compact", f(2_500_000), false, "$2.5M"},
		{"forced compact", f(54321), true, "$54.32K"},
		{"billions", f(3_210_000_000), false, "$3.21B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatCurrency(tt.value, tt.compact); got != tt.expected {
				t.Errorf("FormatCurrency = %q; want %q", got, tt.expected)
			}
		})
	}
}

func TestFormatPercent(t *testing.T) {
	tests := []struct {
		value    *float64
		expected string
	}{
		{nil, "--"},
		{f(0), "+0.00%"},
		{f(5.678), "+5.68%"},
		{f(-3.2), "-3.20%"},
	}
	for _, tt := range tests {
		if got := FormatPercent(tt.value); got != tt.expected {
			t.Errorf("FormatPercent = %q; want %q", got, tt.expected)
		}
	}
}

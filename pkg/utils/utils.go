package utils

import (
	"fmt"
	"strings"
)

func TruncateString(str string, num int) string {
	if len(str) <= num {
		return str
	}
	if num <= 3 {
		return str[:num]
	}
	return str[0:num-3] + "..."
}

func AddCommas(s string) string {
	if len(s) == 0 {
		return s
	}
	parts := strings.Split(s, ".")
	integerPart := parts[0]
	sign := ""
	if strings.HasPrefix(integerPart, "-") {
		sign = "-"
		integerPart = integerPart[1:]
	}

	n := len(integerPart)
	if n <= 3 {
		return s
	}

	var result strings.Builder
	result.WriteString(sign)
	remainder := n % 3
	if remainder > 0 {
		result.WriteString(integerPart[:remainder])
		result.WriteString(",")
	}
	for i := remainder; i < n; i += 3 {
		if i > remainder {
			result.WriteString(",")
		}
		result.WriteString(integerPart[i : i+3])
	}

	if len(parts) > 1 {
		result.WriteString(".")
		result.WriteString(parts[1])
	}
	return result.String()
}

func FormatFloat(f float64, decimals int) string {
	return AddCommas(fmt.Sprintf("%.*f", decimals, f))
}

// FormatCurrency renders a nullable USD value. Small values keep extra
// precision; values at or above one million switch to compact notation
// (as does any value when compact is requested).
func FormatCurrency(value *float64, compact bool) string {
	if value == nil {
		return "--"
	}
	v := *value
	abs := v
	if abs < 0 {
		abs = -abs
	}
	if compact || abs >= 1_000_000 {
		return "$" + compactNumber(v)
	}
	digits := 2
	switch {
	case abs < 1:
		digits = 6
	case abs < 10:
		digits = 4
	}
	return "$" + FormatFloat(v, digits)
}

func compactNumber(v float64) string {
	abs := v
	sign := ""
	if abs < 0 {
		abs = -abs
		sign = "-"
	}
	switch {
	case abs >= 1e12:
		return sign + trimZeros(fmt.Sprintf("%.2f", abs/1e12)) + "T"
	case abs >= 1e9:
		return sign + trimZeros(fmt.Sprintf("%.2f", abs/1e9)) + "B"
	case abs >= 1e6:
		return sign + trimZeros(fmt.Sprintf("%.2f", abs/1e6)) + "M"
	case abs >= 1e3:
		return sign + trimZeros(fmt.Sprintf("%.2f", abs/1e3)) + "K"
	}
	return sign + trimZeros(fmt.Sprintf("%.2f", abs))
}

func trimZeros(s string) string {
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// FormatPercent renders a nullable percentage change with an explicit sign.
func FormatPercent(value *float64) string {
	if value == nil {
		return "--"
	}
	if *value >= 0 {
		return fmt.Sprintf("+%.2f%%", *value)
	}
	return fmt.Sprintf("%.2f%%", *value)
}

package cli

import (
	"math"
	"strconv"
	"strings"
)

// maxFractionDigits bounds formatFloat for values whose representation
// never grows, such as integers.
const maxFractionDigits = 12

// formatFloat returns the shortest rendering of val that is at least
// maxLength characters long, adding fraction digits one at a time. Trailing
// zeros are dropped and the integer part carries thousands separators.
// Non-finite values render as NaN, inf or -inf.
//
// Parameters:
//   - val: The number to format.
//   - maxLength: The minimum length to reach, separators included.
//
// Returns:
//   - string: The formatted number.
func formatFloat(val float64, maxLength int) string {
	switch {
	case math.IsNaN(val):
		return "NaN"
	case math.IsInf(val, 1):
		return "inf"
	case math.IsInf(val, -1):
		return "-inf"
	}
	var str string
	for digits := 0; digits <= maxFractionDigits; digits++ {
		str = formatFixed(val, digits)
		if len(str) >= maxLength {
			break
		}
	}
	return str
}

func formatFixed(val float64, digits int) string {
	s := strconv.FormatFloat(val, 'f', digits, 64)
	intPart, frac, hasFrac := strings.Cut(s, ".")
	if hasFrac {
		frac = strings.TrimRight(frac, "0")
	}
	if intPart == "-0" && frac == "" {
		intPart = "0"
	}
	out := formatNumberString(intPart)
	if frac != "" {
		out += "." + frac
	}
	return out
}

func formatFrequency(val float64) string {
	return formatFloat(val, 6)
}

// formatPercentage renders val (already scaled to percent) with an explicit
// sign.
func formatPercentage(val float64) string {
	str := formatFloat(val, 3) + "%"
	if !strings.HasPrefix(str, "-") {
		return "+" + str
	}
	return str
}

func formatCount(n int) string {
	return formatNumberString(strconv.Itoa(n))
}

// formatNumberString inserts thousand separators into a numeric string.
//
// Parameters:
//   - s: The numeric string to format.
//
// Returns:
//   - string: The formatted string with comma separators.
func formatNumberString(s string) string {
	if len(s) == 0 {
		return ""
	}
	prefix := ""
	if s[0] == '-' {
		prefix = "-"
		s = s[1:]
	}
	n := len(s)
	if n <= 3 {
		return prefix + s
	}

	numSeparators := (n - 1) / 3
	var builder strings.Builder
	builder.Grow(len(prefix) + n + numSeparators)
	builder.WriteString(prefix)

	firstGroupLen := n % 3
	if firstGroupLen == 0 {
		firstGroupLen = 3
	}
	builder.WriteString(s[:firstGroupLen])
	for i := firstGroupLen; i < n; i += 3 {
		builder.WriteByte(',')
		builder.WriteString(s[i : i+3])
	}
	return builder.String()
}

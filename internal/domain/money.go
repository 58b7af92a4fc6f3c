package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Money is stored as integer cents to keep two-decimal amounts exact
// without floating point. Parsing accepts both "." and "," as the
// decimal separator; fractional digits beyond two are truncated.

// ParseMoneyCents parses a decimal money string into cents.
// Negative amounts are rejected; lead values are always ≥ 0.
func ParseMoneyCents(raw string) (int64, error) {
	s := strings.TrimSpace(raw)

	// With both separators present the last one is the decimal mark
	// and the other groups thousands, as in "1.234,56" or "1,234.56".
	if strings.Contains(s, ".") && strings.Contains(s, ",") {
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	}

	s = strings.ReplaceAll(s, ",", ".")
	if s == "" {
		return 0, fmt.Errorf("empty money value")
	}

	intPart, fracPart, _ := strings.Cut(s, ".")
	if intPart == "" {
		intPart = "0"
	}
	if len(fracPart) > 2 {
		fracPart = fracPart[:2]
	}
	for len(fracPart) < 2 {
		fracPart += "0"
	}

	units, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid money value %q: %w", raw, err)
	}
	if units < 0 {
		return 0, fmt.Errorf("negative money value %q", raw)
	}

	cents, err := strconv.ParseInt(fracPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid money value %q: %w", raw, err)
	}

	return units*100 + cents, nil
}

// FormatMoneyCents renders cents with exactly two decimal places.
func FormatMoneyCents(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}

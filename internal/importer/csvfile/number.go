package csvfile

import (
	"strings"

	"github.com/shopspring/decimal"
)

// parseNumber reads a spreadsheet-formatted number and returns its canonical decimal text.
// When both separators appear the last one is the decimal mark ("1.234,56" and "1,234.56" are
// both 1234.56). A lone comma is a decimal mark ("12,5" is 12.5).
func parseNumber(s string) (string, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(s), " ", "")

	dot := strings.LastIndex(clean, ".")
	comma := strings.LastIndex(clean, ",")

	switch {
	case comma >= 0 && dot >= 0 && comma > dot:
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.ReplaceAll(clean, ",", ".")
	case comma >= 0 && dot >= 0:
		clean = strings.ReplaceAll(clean, ",", "")
	case comma >= 0:
		clean = strings.ReplaceAll(clean, ",", ".")
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return "", err
	}

	return d.String(), nil
}

package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatBRL renders a value the Brazilian way: "10,50".
func FormatBRL(v decimal.Decimal) string {
	return strings.Replace(v.StringFixed(2), ".", ",", 1)
}

// FormatHours renders minutes as "79h 36min".
func FormatHours(minutes int) string {
	return fmt.Sprintf("%dh %dmin", minutes/60, minutes%60)
}

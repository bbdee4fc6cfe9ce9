package utils

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// CentsToDecimal converts minor units into a two-decimal amount
func CentsToDecimal(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// FormatMoney formats minor units with a currency label (e.g., €12.50)
func FormatMoney(cents int64, currency string) string {
	amount := CentsToDecimal(cents)
	if amount.IsNegative() {
		return "-" + currency + amount.Neg().StringFixed(2)
	}
	return currency + amount.StringFixed(2)
}

// FormatOdds formats a multiplier rounded to two decimals (e.g., 3.00x)
func FormatOdds(odds float64) string {
	return fmt.Sprintf("%.2fx", math.Round(odds*100)/100)
}

// FormatShortNotation formats whole currency units using short notation (e.g., 50k instead of 50000)
func FormatShortNotation(cents int64) string {
	value := cents / 100
	absValue := value
	sign := ""
	if value < 0 {
		absValue = -value
		sign = "-"
	}

	switch {
	case absValue >= 1_000_000:
		return fmt.Sprintf("%s%.2fM", sign, float64(absValue)/1_000_000)
	case absValue >= 10_000:
		return fmt.Sprintf("%s%dk", sign, absValue/1_000)
	case absValue >= 1_000:
		return fmt.Sprintf("%s%.1fk", sign, float64(absValue)/1_000)
	default:
		return fmt.Sprintf("%s%d", sign, absValue)
	}
}

// Package cli provides the command-line interface for the calculator.
package cli

import (
	"fmt"
	"math"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var numberPrinter = message.NewPrinter(language.English)

// FormatUSD formats an amount in dollars with thousands separators.
func FormatUSD(amount float64) string {
	return signed(amount, "$", numberPrinter.Sprintf("%.2f", math.Abs(amount)))
}

// FormatKRW formats an amount in won, whole units only.
func FormatKRW(amount float64) string {
	rounded := math.Round(amount)
	return signed(rounded, "₩", numberPrinter.Sprintf("%.0f", math.Abs(rounded)))
}

func signed(amount float64, symbol, digits string) string {
	if amount < 0 {
		return "-" + symbol + digits
	}
	return symbol + digits
}

// FormatPercent formats a percentage with sign.
func FormatPercent(value float64) string {
	sign := ""
	if value > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.2f%%", sign, value)
}

// FormatPnL formats a dollar P&L with sign.
func FormatPnL(pnl float64) string {
	formatted := FormatUSD(pnl)
	if pnl > 0 {
		return "+" + formatted
	}
	return formatted
}

// FormatPrice formats a price with appropriate decimal places.
func FormatPrice(price float64) string {
	if price >= 10 {
		return numberPrinter.Sprintf("%.2f", price)
	}
	return fmt.Sprintf("%.4f", price)
}

// FormatFeeRate formats a fractional fee as a percentage.
func FormatFeeRate(rate float64) string {
	return fmt.Sprintf("%.6g%%", rate*100)
}

// FormatDateTime formats a timestamp in local time.
func FormatDateTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04:05")
}

// TruncateString truncates a string to maxLen characters with ellipsis.
func TruncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

package http

import (
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// formatPercent renders a probability the way the result panel shows it: 0.9033 -> "90.33%".
func formatPercent(probability float64) string {
	return printer.Sprintf("%.2f%%", probability*100)
}

func formatThreshold(threshold float64) string {
	return strconv.FormatFloat(threshold, 'f', 2, 64)
}

// formatAmount groups thousands: 2000000 -> "2,000,000.00".
func formatAmount(amount float64) string {
	return printer.Sprintf("%.2f", amount)
}

// formatInput is the shortest value that round-trips through an <input>.
func formatInput(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

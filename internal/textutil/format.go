// Package textutil provides display formatting and text encoding helpers.
package textutil

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var balancePrinter = message.NewPrinter(language.AmericanEnglish)

// FormatBalance renders a whole-dollar amount with thousands grouping,
// e.g. "$1,234,567".
func FormatBalance(v int64) string {
	return "$" + balancePrinter.Sprintf("%d", v)
}

// FormatDate renders t as MM-DD-YYYY.
func FormatDate(t time.Time) string {
	return t.Format("01-02-2006")
}

// FormatTimestamp renders t in the Vietnamese long form used for row
// details, e.g. "14:05:09 3/7/2024".
func FormatTimestamp(t time.Time) string {
	return t.Format("15:04:05 2/1/2006")
}

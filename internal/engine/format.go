package engine

import (
	"strconv"
	"strings"

	"github.com/tartampluch/go-sobriety/internal/config"
)

// Format renders a breakdown for display, e.g. "1 year, 2 months, 5 days".
//
// Only years, months and days are shown when any of them is set. Otherwise the
// hours and minutes are used. Seconds never appear; a breakdown with nothing
// else to show reads "Just started".
func Format(b Breakdown) string {
	var parts []string
	parts = appendUnit(parts, b.Years, config.UnitYear)
	parts = appendUnit(parts, b.Months, config.UnitMonth)
	parts = appendUnit(parts, b.Days, config.UnitDay)

	if len(parts) == 0 {
		parts = appendUnit(parts, b.Hours, config.UnitHour)
		parts = appendUnit(parts, b.Minutes, config.UnitMinute)
	}

	if len(parts) == 0 {
		return config.MsgJustStarted
	}
	return strings.Join(parts, config.FormatPartSeparator)
}

func appendUnit(parts []string, n int, unit string) []string {
	if n <= 0 {
		return parts
	}
	label := unit
	if n != 1 {
		label += config.PluralSuffix
	}
	return append(parts, strconv.Itoa(n)+" "+label)
}

package common

import (
	"fmt"
	"strings"
	"time"

	"mahjongbot/models"
)

// FormatAmount formats an amount with thousand separators
func FormatAmount(amount int64) string {
	if amount < 0 {
		return "-" + FormatAmount(-amount)
	}

	str := fmt.Sprintf("%d", amount)

	// Add commas for thousands
	n := len(str)
	if n <= 3 {
		return str
	}

	var result strings.Builder
	for i, digit := range str {
		if i > 0 && (n-i)%3 == 0 {
			result.WriteRune(',')
		}
		result.WriteRune(digit)
	}

	return result.String()
}

// FormatSigned formats an amount with an explicit sign, "+0" for zero
func FormatSigned(amount int64) string {
	if amount < 0 {
		return FormatAmount(amount)
	}
	return "+" + FormatAmount(amount)
}

// FormatShortDate formats a table date as month/day
func FormatShortDate(t time.Time) string {
	if t.IsZero() {
		return "未知"
	}
	return t.Format("01/02")
}

// FormatWind renders a wind with its suffix, e.g. 東風
func FormatWind(w models.Wind) string {
	return string(w) + "風"
}

// YesNo renders a boolean rule setting
func YesNo(b bool) string {
	if b {
		return "是"
	}
	return "否"
}

// Medal returns the leaderboard marker for a rank
func Medal(rank int) string {
	switch rank {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	default:
		return "📊"
	}
}

// Trend returns the marker for a net result
func Trend(net int64) string {
	switch {
	case net > 0:
		return "📈"
	case net < 0:
		return "📉"
	default:
		return "➖"
	}
}

package exam

import (
	"fmt"
	"strings"
)

// FormatClock renders seconds as mm:ss.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// FormatDuration renders seconds as e.g. "1 hr 5 min 30 sec". Zero renders "0 sec".
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	hours := seconds / 3600
	mins := (seconds % 3600) / 60
	secs := seconds % 60

	var parts []string
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%d hr", hours))
	}
	if mins > 0 {
		parts = append(parts, fmt.Sprintf("%d min", mins))
	}
	if secs > 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%d sec", secs))
	}
	return strings.Join(parts, " ")
}

// ChoiceLetter maps a zero-based choice index to A, B, C, ...
func ChoiceLetter(index int) string {
	return string(rune('A' + index))
}

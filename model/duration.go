package model

import (
	"fmt"
	"regexp"
	"strconv"
)

var isoDuration = regexp.MustCompile(`^P(?:(\d+)D)?T?(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// ParseISODuration converts an ISO 8601 duration token as returned by the
// YouTube API ("PT15M33S", "PT1H2M", "P1DT2H") into total seconds.
// Unparseable input yields 0, callers log and move on.
func ParseISODuration(s string) int {
	m := isoDuration.FindStringSubmatch(s)
	if m == nil {
		return 0
	}

	days, _ := strconv.Atoi(zeroEmpty(m[1]))
	hours, _ := strconv.Atoi(zeroEmpty(m[2]))
	minutes, _ := strconv.Atoi(zeroEmpty(m[3]))
	seconds, _ := strconv.Atoi(zeroEmpty(m[4]))

	return days*86400 + hours*3600 + minutes*60 + seconds
}

func zeroEmpty(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

// FormatClock renders seconds as H:MM:SS, or M:SS below an hour.
func FormatClock(seconds int) string {
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}

	return fmt.Sprintf("%d:%02d", minutes, secs)
}

// FormatHuman renders seconds as "2h 5min" or "17min", used for digest
// totals. Zero renders as "0min".
func FormatHuman(seconds int) string {
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dmin", hours, minutes)
	}

	return fmt.Sprintf("%dmin", minutes)
}

package timeutil

import (
	"strings"
	"time"
)

// OrDefault parses value and returns def on empty, invalid or negative input.
func OrDefault(value string, def time.Duration) time.Duration {
	if strings.TrimSpace(value) == "" {
		return def
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil || parsed < 0 {
		return def
	}
	return parsed
}

// Millis converts d to whole milliseconds. Positive durations below one
// millisecond report 1 so that a measured execution never shows as zero.
func Millis(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	if ms := d.Milliseconds(); ms > 0 {
		return ms
	}
	return 1
}

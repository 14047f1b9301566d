package models

import (
	"strings"
	"time"
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDate parses the ISO date forms stored on records.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// MonthKey truncates an ISO date to its YYYY-MM prefix.
func MonthKey(date string) string {
	date = strings.TrimSpace(date)
	if len(date) < 7 {
		return date
	}
	return date[:7]
}

// Timestamp formats t the way records store created/updated times.
func Timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

package parsing

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// DateKind classifies a free-text CV date
type DateKind int

// Date kinds
const (
	DateMissing DateKind = iota
	DateOngoing
	DateKnown
)

var ongoingWords = map[string]bool{
	"present":   true,
	"now":       true,
	"current":   true,
	"currently": true,
	"ongoing":   true,
	"to date":   true,
	"today":     true,
	"nay":       true, // "đến nay"
	"den nay":   true,
	"hien tai":  true,
	"hien nay":  true,
}

var monthLayouts = []string{
	"2006-01",
	"2006-01-02",
	"2006/01",
	"2006/01/02",
	"01/2006",
	"1/2006",
	"01-2006",
	"02/01/2006",
	"Jan 2006",
	"January 2006",
	"Jan. 2006",
	"2006",
}

// ParseCVDate parses a free-text date into the first day of its month in UTC.
// Empty and unparseable values are DateMissing; "present"-style values are DateOngoing.
// Year-only values resolve to January of that year.
func ParseCVDate(raw string) (time.Time, DateKind) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, DateMissing
	}
	if ongoingWords[FoldText(trimmed)] {
		return time.Time{}, DateOngoing
	}

	for _, layout := range monthLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return startOfMonth(t), DateKnown
		}
	}

	if t, err := dateparse.ParseIn(trimmed, time.UTC); err == nil {
		return startOfMonth(t), DateKnown
	}
	return time.Time{}, DateMissing
}

// MonthIndex returns a monotonically increasing month number for t
func MonthIndex(t time.Time) int {
	return t.Year()*12 + int(t.Month()) - 1
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

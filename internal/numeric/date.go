package numeric

import (
	"fmt"
	"strings"
	"time"
)

// dateLayouts are tried in order. ISO first; day-first variants before
// month-first because the supported exports are European.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
	"02/01/2006",
	"02-01-2006",
	"02.01.2006",
}

// ParseDate parses a statement date cell, tolerating ISO, slash and dash
// forms and ignoring any trailing time-of-day component.
func ParseDate(s string) (time.Time, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	// "2025-02-05 00:00:00" and "2025-02-05T00:00:00" both reduce to the
	// leading date part.
	if i := strings.IndexAny(trimmed, " T"); i > 0 {
		trimmed = trimmed[:i]
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

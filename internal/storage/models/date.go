package models

import (
	"fmt"
	"time"
)

// DateLayout is the canonical calendar date format. Dates carry no time zone.
const DateLayout = "2006-01-02"

// TimeLayout is the HH:MM time-of-day format.
const TimeLayout = "15:04"

// ParseDate parses a canonical YYYY-MM-DD date at midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

// FormatDate renders t as a canonical date, ignoring its clock and location.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ValidDate reports whether s is a canonical date.
func ValidDate(s string) bool {
	_, err := ParseDate(s)
	return err == nil
}

// ValidTime reports whether s is an HH:MM time of day.
func ValidTime(s string) bool {
	_, err := time.Parse(TimeLayout, s)
	return err == nil && len(s) == 5
}

package models

// TimeOffEvent is an executive's absence over an inclusive date range.
// It is not tied to any contact and is never locked.
type TimeOffEvent struct {
	ID        string          `json:"id"`
	Executive string          `json:"executive"`
	StartDate string          `json:"startDate"`
	EndDate   string          `json:"endDate"`
	Duration  TimeOffDuration `json:"duration"`
	Reason    TimeOffReason   `json:"reason"`
	Notes     string          `json:"notes"`
}

// Covers reports whether day falls within [StartDate, EndDate]. Dates are canonical
// YYYY-MM-DD strings, so lexicographic comparison is calendar order.
func (t TimeOffEvent) Covers(day string) bool {
	return t.StartDate <= day && day <= t.EndDate
}

// Overlaps reports whether the event intersects the inclusive range [from, to].
func (t TimeOffEvent) Overlaps(from, to string) bool {
	return t.StartDate <= to && t.EndDate >= from
}

package calendar

import (
	"sort"
	"strings"

	"github.com/rc-medicall/backend/internal/storage/models"
)

// EventKind distinguishes the two sources of calendar events.
type EventKind string

const (
	KindTimeOff EventKind = "timeoff"
	KindVisit   EventKind = "visit"
)

// Event is one entry of a projected calendar day.
type Event struct {
	Kind      EventKind `json:"kind"`
	ID        string    `json:"id"`
	Date      string    `json:"date"`
	Time      string    `json:"time,omitempty"`
	Executive string    `json:"executive"`
	Locked    bool      `json:"locked"`

	// Visit fields
	ContactID   string             `json:"contactId,omitempty"`
	ContactName string             `json:"contactName,omitempty"`
	Category    models.Category    `json:"category,omitempty"`
	Objective   string             `json:"objective,omitempty"`
	Note        string             `json:"note,omitempty"`
	Outcome     models.Outcome     `json:"outcome,omitempty"`
	Status      models.VisitStatus `json:"status,omitempty"`
	Priority    models.Priority    `json:"priority,omitempty"`

	// Absence fields
	StartDate string                 `json:"startDate,omitempty"`
	EndDate   string                 `json:"endDate,omitempty"`
	Reason    models.TimeOffReason   `json:"reason,omitempty"`
	Duration  models.TimeOffDuration `json:"duration,omitempty"`
	Notes     string                 `json:"notes,omitempty"`
}

// AllDay reports whether the event has no time of day.
func (e Event) AllDay() bool {
	return e.Time == ""
}

// ExecutiveFilter selects whose events are projected. The empty value, "ALL" and
// "TODOS" select everyone.
type ExecutiveFilter string

// All reports whether the filter selects every executive.
func (f ExecutiveFilter) All() bool {
	switch strings.ToUpper(strings.TrimSpace(string(f))) {
	case "", "ALL", "TODOS":
		return true
	}
	return false
}

// Match reports whether executive passes the filter.
func (f ExecutiveFilter) Match(executive string) bool {
	if f.All() {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(string(f)), executive)
}

// Project returns every event of the filtered executives dated within [from, to],
// one entry per (event, day). Absences spanning several days appear on each of them.
// The result is ordered by date, then by the day ordering of EventsForDay.
func Project(contacts []models.Contact, timeOff []models.TimeOffEvent, filter ExecutiveFilter, from, to string) []Event {
	if from > to {
		return []Event{}
	}

	var events []Event
	for i := range contacts {
		c := &contacts[i]
		if !filter.Match(c.Executive) {
			continue
		}
		for _, v := range c.Visits {
			if v.Date >= from && v.Date <= to {
				events = append(events, visitEvent(c, v))
			}
		}
	}

	for _, t := range timeOff {
		if !filter.Match(t.Executive) || !t.Overlaps(from, to) {
			continue
		}
		for _, day := range daysBetween(max(t.StartDate, from), min(t.EndDate, to)) {
			events = append(events, timeOffEvent(t, day))
		}
	}

	if events == nil {
		return []Event{}
	}
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Date != events[j].Date {
			return events[i].Date < events[j].Date
		}
		return eventLess(events[i], events[j])
	})
	return events
}

// EventsForDay returns the filtered events on day. A visit belongs to day when its
// date equals day; an absence when day lies within its inclusive range.
//
// Ordering: events without a time come first, then by time ascending. Ties are
// broken by kind (absences before visits), contact name, then ID.
func EventsForDay(contacts []models.Contact, timeOff []models.TimeOffEvent, filter ExecutiveFilter, day string) []Event {
	return Project(contacts, timeOff, filter, day, day)
}

func eventLess(a, b Event) bool {
	if a.AllDay() != b.AllDay() {
		return a.AllDay()
	}
	if a.Time != b.Time {
		return a.Time < b.Time
	}
	if a.Kind != b.Kind {
		return a.Kind == KindTimeOff
	}
	if a.ContactName != b.ContactName {
		return a.ContactName < b.ContactName
	}
	return a.ID < b.ID
}

func visitEvent(c *models.Contact, v models.Visit) Event {
	return Event{
		Kind:        KindVisit,
		ID:          v.ID,
		Date:        v.Date,
		Time:        v.Time,
		Executive:   c.Executive,
		Locked:      v.Locked(),
		ContactID:   c.ID,
		ContactName: c.Name,
		Category:    c.Category,
		Objective:   v.Objective,
		Note:        v.Note,
		Outcome:     v.Outcome,
		Status:      v.Status,
		Priority:    v.Priority,
	}
}

func timeOffEvent(t models.TimeOffEvent, day string) Event {
	return Event{
		Kind:      KindTimeOff,
		ID:        t.ID,
		Date:      day,
		Executive: t.Executive,
		StartDate: t.StartDate,
		EndDate:   t.EndDate,
		Reason:    t.Reason,
		Duration:  t.Duration,
		Notes:     t.Notes,
	}
}

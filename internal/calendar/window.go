package calendar

import (
	"fmt"
	"time"

	"github.com/rc-medicall/backend/internal/storage/models"
)

// ViewMode is a calendar period granularity.
type ViewMode string

const (
	ViewMonth ViewMode = "month"
	ViewWeek  ViewMode = "week"
	ViewDay   ViewMode = "day"
)

// Valid reports whether v is a known view.
func (v ViewMode) Valid() bool {
	switch v {
	case ViewMonth, ViewWeek, ViewDay:
		return true
	}
	return false
}

// MonthGrid returns the cells of the month containing anchor: one empty string per
// leading blank needed to align the 1st under its weekday column, then every date of
// the month in order.
func MonthGrid(anchor time.Time, weekStart time.Weekday) []string {
	first := time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	leading := weekdayOffset(first.Weekday(), weekStart)
	cells := make([]string, leading, leading+last.Day())
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		cells = append(cells, models.FormatDate(d))
	}
	return cells
}

// WeekDays returns the 7 dates of the week containing anchor, starting on the most
// recent weekStart on or before it.
func WeekDays(anchor time.Time, weekStart time.Weekday) []string {
	day := time.Date(anchor.Year(), anchor.Month(), anchor.Day(), 0, 0, 0, 0, time.UTC)
	start := day.AddDate(0, 0, -weekdayOffset(day.Weekday(), weekStart))

	days := make([]string, 7)
	for i := range days {
		days[i] = models.FormatDate(start.AddDate(0, 0, i))
	}
	return days
}

// DaySlots returns the half-hour slots from start to end inclusive (HH:MM).
func DaySlots(start, end string) []string {
	s, err1 := time.Parse(models.TimeLayout, start)
	e, err2 := time.Parse(models.TimeLayout, end)
	if err1 != nil || err2 != nil || e.Before(s) {
		return []string{}
	}

	var slots []string
	for t := s; !t.After(e); t = t.Add(30 * time.Minute) {
		slots = append(slots, t.Format(models.TimeLayout))
	}
	return slots
}

// Shift moves anchor by delta periods of the given view. Month shifts land on the
// 1st so that the 31st never overflows into the following month.
func Shift(view ViewMode, anchor time.Time, delta int) time.Time {
	switch view {
	case ViewMonth:
		first := time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, time.UTC)
		return first.AddDate(0, delta, 0)
	case ViewWeek:
		return anchor.AddDate(0, 0, 7*delta)
	case ViewDay:
		return anchor.AddDate(0, 0, delta)
	}
	return anchor
}

// daysBetween lists the canonical dates in [from, to]. Unparsable bounds yield nil.
func daysBetween(from, to string) []string {
	start, err := models.ParseDate(from)
	if err != nil {
		return nil
	}
	end, err := models.ParseDate(to)
	if err != nil {
		return nil
	}

	var days []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, models.FormatDate(d))
	}
	return days
}

func weekdayOffset(day, weekStart time.Weekday) int {
	return (int(day) - int(weekStart) + 7) % 7
}

// DayCell is one date of a week or month view with its ordered events.
type DayCell struct {
	Date   string  `json:"date"`
	Blank  bool    `json:"blank,omitempty"`
	Events []Event `json:"events"`
}

// SlotCell is one half-hour row of the day view.
type SlotCell struct {
	Time   string  `json:"time"`
	Events []Event `json:"events"`
}

// DayView is a single day split into an all-day lane and half-hour slots.
// Events timed outside the business window are listed only in Events.
type DayView struct {
	Date   string     `json:"date"`
	AllDay []Event    `json:"allDay"`
	Slots  []SlotCell `json:"slots"`
	Events []Event    `json:"events"`
	Prev   string     `json:"prev"`
	Next   string     `json:"next"`
}

// WeekView is 7 consecutive days.
type WeekView struct {
	Start string    `json:"start"`
	End   string    `json:"end"`
	Days  []DayCell `json:"days"`
	Prev  string    `json:"prev"`
	Next  string    `json:"next"`
}

// MonthView is the month grid, leading blanks included.
type MonthView struct {
	Month   string    `json:"month"`
	Leading int       `json:"leading"`
	Cells   []DayCell `json:"cells"`
	Prev    string    `json:"prev"`
	Next    string    `json:"next"`
}

// Day projects a single day.
func (e *Engine) Day(contacts []models.Contact, timeOff []models.TimeOffEvent, filter ExecutiveFilter, date time.Time) DayView {
	day := models.FormatDate(date)
	events := EventsForDay(contacts, timeOff, filter, day)

	view := DayView{
		Date:   day,
		AllDay: []Event{},
		Slots:  make([]SlotCell, len(e.slots)),
		Events: events,
		Prev:   models.FormatDate(Shift(ViewDay, date, -1)),
		Next:   models.FormatDate(Shift(ViewDay, date, 1)),
	}
	for i, s := range e.slots {
		view.Slots[i] = SlotCell{Time: s, Events: []Event{}}
	}

	for _, ev := range events {
		if ev.AllDay() {
			view.AllDay = append(view.AllDay, ev)
			continue
		}
		if i := e.slotIndex(ev.Time); i >= 0 {
			view.Slots[i].Events = append(view.Slots[i].Events, ev)
		}
	}
	return view
}

// Week projects the week containing date.
func (e *Engine) Week(contacts []models.Contact, timeOff []models.TimeOffEvent, filter ExecutiveFilter, date time.Time) WeekView {
	days := WeekDays(date, e.opts.WeekStart)
	byDay := groupByDate(Project(contacts, timeOff, filter, days[0], days[6]))

	view := WeekView{
		Start: days[0],
		End:   days[6],
		Days:  make([]DayCell, len(days)),
		Prev:  models.FormatDate(Shift(ViewWeek, date, -1)),
		Next:  models.FormatDate(Shift(ViewWeek, date, 1)),
	}
	for i, d := range days {
		view.Days[i] = DayCell{Date: d, Events: orEmpty(byDay[d])}
	}
	return view
}

// Month projects the month containing date.
func (e *Engine) Month(contacts []models.Contact, timeOff []models.TimeOffEvent, filter ExecutiveFilter, date time.Time) MonthView {
	grid := MonthGrid(date, e.opts.WeekStart)
	leading := 0
	for leading < len(grid) && grid[leading] == "" {
		leading++
	}
	byDay := groupByDate(Project(contacts, timeOff, filter, grid[leading], grid[len(grid)-1]))

	view := MonthView{
		Month:   fmt.Sprintf("%04d-%02d", date.Year(), int(date.Month())),
		Leading: leading,
		Cells:   make([]DayCell, len(grid)),
		Prev:    models.FormatDate(Shift(ViewMonth, date, -1)),
		Next:    models.FormatDate(Shift(ViewMonth, date, 1)),
	}
	for i, d := range grid {
		if d == "" {
			view.Cells[i] = DayCell{Blank: true, Events: []Event{}}
			continue
		}
		view.Cells[i] = DayCell{Date: d, Events: orEmpty(byDay[d])}
	}
	return view
}

// slotIndex returns the slot containing t (HH:MM), or -1 outside the window.
func (e *Engine) slotIndex(t string) int {
	idx := -1
	for i, s := range e.slots {
		if s > t {
			break
		}
		idx = i
	}
	if idx == len(e.slots)-1 && t != e.slots[idx] && !withinHalfHour(e.slots[idx], t) {
		return -1
	}
	return idx
}

func withinHalfHour(slot, t string) bool {
	s, err1 := time.Parse(models.TimeLayout, slot)
	v, err2 := time.Parse(models.TimeLayout, t)
	if err1 != nil || err2 != nil {
		return false
	}
	return v.Sub(s) < 30*time.Minute
}

func groupByDate(events []Event) map[string][]Event {
	byDay := make(map[string][]Event)
	for _, ev := range events {
		byDay[ev.Date] = append(byDay[ev.Date], ev)
	}
	return byDay
}

func orEmpty(events []Event) []Event {
	if events == nil {
		return []Event{}
	}
	return events
}

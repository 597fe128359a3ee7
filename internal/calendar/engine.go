// Package calendar is the executive scheduling engine: it projects contacts and
// absences into calendar views and applies the visit lifecycle rules.
//
// Every operation is pure. Inputs are never mutated; callers receive new values and
// are responsible for swapping them into their own state.
package calendar

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/rc-medicall/backend/internal/storage/models"
)

// Options configures an Engine.
type Options struct {
	// WeekStart is the first column of week and month views.
	WeekStart time.Weekday

	// DayStart and DayEnd bound the day view's half-hour slots (HH:MM, inclusive).
	DayStart string
	DayEnd   string

	// CitaSlots are the only times an appointment may be booked at.
	CitaSlots []string

	// Now and NewID are injectable for tests.
	Now   func() time.Time
	NewID func() string
}

// DefaultOptions returns the standard configuration: Monday weeks, 08:00-20:00 days
// and the 09:00/16:00 appointment slots.
func DefaultOptions() Options {
	return Options{
		WeekStart: time.Monday,
		DayStart:  "08:00",
		DayEnd:    "20:00",
		CitaSlots: []string{"09:00", "16:00"},
		Now:       time.Now,
		NewID:     uuid.NewString,
	}
}

// Engine applies scheduling rules to contact and absence collections.
type Engine struct {
	opts  Options
	slots []string
}

// NewEngine creates an engine. Zero-valued options fall back to DefaultOptions.
func NewEngine(opts Options) *Engine {
	def := DefaultOptions()
	if opts.DayStart == "" {
		opts.DayStart = def.DayStart
	}
	if opts.DayEnd == "" {
		opts.DayEnd = def.DayEnd
	}
	if len(opts.CitaSlots) == 0 {
		opts.CitaSlots = def.CitaSlots
	}
	if opts.Now == nil {
		opts.Now = def.Now
	}
	if opts.NewID == nil {
		opts.NewID = def.NewID
	}

	return &Engine{
		opts:  opts,
		slots: DaySlots(opts.DayStart, opts.DayEnd),
	}
}

// Options returns the engine configuration.
func (e *Engine) Options() Options {
	return e.opts
}

// Slots returns the half-hour slots of the business day.
func (e *Engine) Slots() []string {
	return append([]string(nil), e.slots...)
}

// Executives returns the sorted distinct executives owning at least one contact.
func Executives(contacts []models.Contact) []string {
	names := lo.Uniq(lo.FilterMap(contacts, func(c models.Contact, _ int) (string, bool) {
		return c.Executive, c.Executive != ""
	}))
	sort.Strings(names)
	return names
}

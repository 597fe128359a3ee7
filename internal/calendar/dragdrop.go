package calendar

import (
	"github.com/samber/lo"

	"github.com/rc-medicall/backend/internal/storage/models"
)

// EventRef addresses a calendar event for a drag gesture. ContactID is required
// for visits and ignored for absences.
type EventRef struct {
	Kind      EventKind `json:"kind"`
	ID        string    `json:"id"`
	ContactID string    `json:"contactId,omitempty"`
}

// Change is the outcome of a drop: the replacement contact or absence, or the
// identity of what was removed.
type Change struct {
	Contact        *models.Contact      `json:"contact,omitempty"`
	TimeOff        *models.TimeOffEvent `json:"timeOff,omitempty"`
	RemovedTimeOff string               `json:"removedTimeOff,omitempty"`
}

// BeginDrag resolves ref and reports whether it may be dragged at all. Appointments
// are refused here, before any gesture state exists.
func BeginDrag(contacts []models.Contact, timeOff []models.TimeOffEvent, ref EventRef) (Event, error) {
	ev, _, _, err := resolve(contacts, timeOff, ref)
	if err != nil {
		return Event{}, err
	}
	if ev.Locked {
		return ev, ErrLocked
	}
	return ev, nil
}

// Drop moves the referenced event to date. Visits keep their time; absences
// collapse to that single day.
func (e *Engine) Drop(contacts []models.Contact, timeOff []models.TimeOffEvent, ref EventRef, date string) (Change, error) {
	ev, contact, absence, err := resolve(contacts, timeOff, ref)
	if err != nil {
		return Change{}, err
	}
	if ev.Locked {
		return Change{}, ErrLocked
	}

	switch ev.Kind {
	case KindVisit:
		updated, err := e.MoveVisit(*contact, ev.ID, date)
		if err != nil {
			return Change{}, err
		}
		return Change{Contact: &updated}, nil
	case KindTimeOff:
		moved, err := e.MoveTimeOff(*absence, date)
		if err != nil {
			return Change{}, err
		}
		return Change{TimeOff: &moved}, nil
	}
	return Change{}, ErrNotFound
}

// Trash deletes the referenced event once the caller has confirmed. Appointments
// are rejected before confirmation is even considered.
func (e *Engine) Trash(contacts []models.Contact, timeOff []models.TimeOffEvent, ref EventRef, confirmed bool) (Change, error) {
	ev, contact, absence, err := resolve(contacts, timeOff, ref)
	if err != nil {
		return Change{}, err
	}
	if ev.Locked {
		return Change{}, ErrLocked
	}
	if !confirmed {
		return Change{}, ErrConfirmationRequired
	}

	switch ev.Kind {
	case KindVisit:
		updated, err := e.DeleteVisit(*contact, ev.ID)
		if err != nil {
			return Change{}, err
		}
		return Change{Contact: &updated}, nil
	case KindTimeOff:
		return Change{RemovedTimeOff: absence.ID}, nil
	}
	return Change{}, ErrNotFound
}

func resolve(contacts []models.Contact, timeOff []models.TimeOffEvent, ref EventRef) (Event, *models.Contact, *models.TimeOffEvent, error) {
	switch ref.Kind {
	case KindVisit:
		contact, ok := lo.Find(contacts, func(c models.Contact) bool { return c.ID == ref.ContactID })
		if !ok {
			return Event{}, nil, nil, ErrNotFound
		}
		idx := contact.FindVisit(ref.ID)
		if idx < 0 {
			return Event{}, nil, nil, ErrNotFound
		}
		return visitEvent(&contact, contact.Visits[idx]), &contact, nil, nil

	case KindTimeOff:
		t, ok := lo.Find(timeOff, func(t models.TimeOffEvent) bool { return t.ID == ref.ID })
		if !ok {
			return Event{}, nil, nil, ErrNotFound
		}
		return timeOffEvent(t, t.StartDate), nil, &t, nil
	}
	return Event{}, nil, nil, invalid("kind", "unknown event kind %q", ref.Kind)
}

// Package models contains the domain models for the application.
package models

import "strings"

// Contact is a doctor, hospital or administrative entry in the directory.
// A contact owns its visits: they are stored, sent and deleted together with it.
type Contact struct {
	ID                 string             `json:"id"`
	Category           Category           `json:"category"`
	Executive          string             `json:"executive"`
	Name               string             `json:"name"`
	Specialty          string             `json:"specialty,omitempty"`
	SubSpecialty       string             `json:"subSpecialty,omitempty"`
	Address            string             `json:"address"`
	Hospital           string             `json:"hospital,omitempty"`
	OfficeNumber       string             `json:"officeNumber,omitempty"`
	Floor              string             `json:"floor,omitempty"`
	Phone              string             `json:"phone,omitempty"`
	Email              string             `json:"email,omitempty"`
	Cedula             string             `json:"cedula,omitempty"`
	BirthDate          string             `json:"birthDate,omitempty"`
	Classification     Classification     `json:"classification,omitempty"`
	SocialStyle        SocialStyle        `json:"socialStyle,omitempty"`
	AttitudinalSegment AttitudinalSegment `json:"attitudinalSegment,omitempty"`
	ImportantNotes     string             `json:"importantNotes,omitempty"`
	IsInsuranceDoctor  bool               `json:"isInsuranceDoctor"`
	Schedule           []ScheduleSlot     `json:"schedule"`
	Visits             []Visit            `json:"visits"`
}

// ScheduleSlot is one weekday entry of a contact's office hours.
type ScheduleSlot struct {
	Day    string `json:"day"`
	Time   string `json:"time"`
	Active bool   `json:"active"`
}

// Weekdays lists the schedule day labels in display order.
var Weekdays = []string{"LUNES", "MARTES", "MIÉRCOLES", "JUEVES", "VIERNES", "SÁBADO", "DOMINGO"}

// InactiveSchedule returns a fresh 7-day schedule with every slot disabled.
func InactiveSchedule() []ScheduleSlot {
	slots := make([]ScheduleSlot, len(Weekdays))
	for i, day := range Weekdays {
		slots[i] = ScheduleSlot{Day: day}
	}
	return slots
}

// FindVisit returns the index of the visit with the given ID, or -1.
func (c *Contact) FindVisit(visitID string) int {
	for i := range c.Visits {
		if c.Visits[i].ID == visitID {
			return i
		}
	}
	return -1
}

// WithVisits returns a copy of the contact carrying the given visit slice.
// The receiver is left untouched.
func (c Contact) WithVisits(visits []Visit) Contact {
	c.Visits = visits
	return c
}

// Clone returns a deep copy of the contact so callers can edit it freely.
func (c Contact) Clone() Contact {
	if c.Schedule != nil {
		c.Schedule = append([]ScheduleSlot(nil), c.Schedule...)
	}
	if c.Visits != nil {
		visits := make([]Visit, len(c.Visits))
		for i, v := range c.Visits {
			visits[i] = v.Clone()
		}
		c.Visits = visits
	}
	return c
}

// Normalize upper-cases the free-text identity fields the way the directory forms do
// and fills in defaults for missing category, schedule and visit list.
func (c *Contact) Normalize() {
	c.Name = strings.ToUpper(strings.TrimSpace(c.Name))
	c.Executive = strings.ToUpper(strings.TrimSpace(c.Executive))
	if c.Executive == "" {
		c.Executive = UnassignedExecutive
	}
	c.Specialty = strings.ToUpper(strings.TrimSpace(c.Specialty))
	c.SubSpecialty = strings.ToUpper(strings.TrimSpace(c.SubSpecialty))
	c.Address = strings.ToUpper(strings.TrimSpace(c.Address))
	c.Hospital = strings.ToUpper(strings.TrimSpace(c.Hospital))
	c.Category = Category(strings.ToUpper(string(c.Category)))
	if c.Category == "" {
		c.Category = CategoryMedico
	}
	if len(c.Schedule) == 0 {
		c.Schedule = InactiveSchedule()
	}
	if c.Visits == nil {
		c.Visits = []Visit{}
	}
}

// UnassignedExecutive is the owner recorded for contacts nobody has claimed yet.
const UnassignedExecutive = "SIN ASIGNAR"

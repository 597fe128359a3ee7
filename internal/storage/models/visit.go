package models

// Visit is a single dated interaction with a contact, planned or completed.
type Visit struct {
	ID                 string       `json:"id"`
	Date               string       `json:"date"`
	Time               string       `json:"time,omitempty"`
	Note               string       `json:"note"`
	Objective          string       `json:"objective,omitempty"`
	FollowUp           string       `json:"followUp,omitempty"`
	Outcome            Outcome      `json:"outcome"`
	Status             VisitStatus  `json:"status"`
	Priority           Priority     `json:"priority,omitempty"`
	MaterialsDelivered string       `json:"materialsDelivered,omitempty"`
	InterestLevel      int          `json:"interestLevel,omitempty"`
	NextStepType       NextStepType `json:"nextStepType,omitempty"`
}

// Locked reports whether the visit is an appointment. Appointments cannot be
// moved, deleted or reported once created.
func (v Visit) Locked() bool {
	return v.Outcome == OutcomeCita
}

// Clone returns a copy of the visit. Visits hold no reference fields, so this is a
// plain value copy; it exists so call sites read the same as Contact.Clone.
func (v Visit) Clone() Visit {
	return v
}

// SortKey orders visits by date then time for display.
func (v Visit) SortKey() string {
	return v.Date + " " + v.Time
}

package calendar

import (
	"slices"
	"strings"

	"github.com/rc-medicall/backend/internal/storage/models"
)

// ActivityType is what the plan form creates.
type ActivityType string

const (
	ActivityVisita   ActivityType = "VISITA"
	ActivityCita     ActivityType = "CITA"
	ActivityAusencia ActivityType = "AUSENCIA"
)

// Default notes and objectives written on creation.
const (
	NotePlannedVisit    = "VISITA PLANEADA"
	NoteScheduledCita   = "CITA PROGRAMADA"
	ObjectiveCommitment = "COMPROMISO DE SEGUIMIENTO"
	NoteCommitment      = "COMPROMISO"
)

const (
	maxInterestLevel       = 5
	defaultAbsenceReason   = models.ReasonPermiso
	defaultAbsenceDuration = models.DurationFullDay
)

// PlanRequest is the plan form: a visit or appointment for a contact, or a
// single-day absence for an executive.
type PlanRequest struct {
	Type      ActivityType         `json:"type"`
	ContactID string               `json:"contactId,omitempty"`
	Executive string               `json:"executive,omitempty"`
	Date      string               `json:"date"`
	Time      string               `json:"time,omitempty"`
	Objective string               `json:"objective"`
	Priority  models.Priority      `json:"priority,omitempty"`
	Reason    models.TimeOffReason `json:"reason,omitempty"`
}

// PlanResult holds what Plan created. Exactly one of Visit or TimeOff is set;
// Contact is the updated owner when a visit was created.
type PlanResult struct {
	Contact *models.Contact      `json:"contact,omitempty"`
	Visit   *models.Visit        `json:"visit,omitempty"`
	TimeOff *models.TimeOffEvent `json:"timeOff,omitempty"`
}

// Plan validates req and creates the visit, appointment or absence it describes.
// contact may be nil for an absence.
func (e *Engine) Plan(contact *models.Contact, req PlanRequest) (PlanResult, error) {
	if !models.ValidDate(req.Date) {
		return PlanResult{}, invalid("date", "expected YYYY-MM-DD, got %q", req.Date)
	}
	objective := strings.ToUpper(strings.TrimSpace(req.Objective))

	switch req.Type {
	case ActivityAusencia:
		executive := strings.ToUpper(strings.TrimSpace(req.Executive))
		if executive == "" && contact != nil {
			executive = contact.Executive
		}
		if ExecutiveFilter(executive).All() {
			return PlanResult{}, invalid("executive", "an absence needs a specific executive")
		}
		reason := req.Reason
		if reason == "" {
			reason = defaultAbsenceReason
		}
		if !reason.Valid() {
			return PlanResult{}, invalid("reason", "unknown reason %q", reason)
		}
		t := models.TimeOffEvent{
			ID:        e.opts.NewID(),
			Executive: executive,
			StartDate: req.Date,
			EndDate:   req.Date,
			Duration:  defaultAbsenceDuration,
			Reason:    reason,
			Notes:     objective,
		}
		return PlanResult{TimeOff: &t}, nil

	case ActivityVisita, ActivityCita:
		if contact == nil {
			return PlanResult{}, invalid("contactId", "a contact must be selected")
		}
		if !req.Priority.Valid() {
			return PlanResult{}, invalid("priority", "unknown priority %q", req.Priority)
		}

		v := models.Visit{
			ID:        e.opts.NewID(),
			Date:      req.Date,
			Time:      req.Time,
			Objective: objective,
			Status:    models.VisitPlanned,
			Priority:  req.Priority,
		}
		if req.Type == ActivityCita {
			if !slices.Contains(e.opts.CitaSlots, req.Time) {
				return PlanResult{}, invalid("time", "appointments are booked at %s", strings.Join(e.opts.CitaSlots, " or "))
			}
			if v.Objective == "" {
				v.Objective = NoteScheduledCita
			}
			v.Outcome = models.OutcomeCita
			v.Note = NoteScheduledCita
		} else {
			if v.Objective == "" {
				return PlanResult{}, invalid("objective", "objective is required")
			}
			if !slices.Contains(e.slots, req.Time) {
				return PlanResult{}, invalid("time", "visits are booked on the half hour between %s and %s", e.opts.DayStart, e.opts.DayEnd)
			}
			v.Outcome = models.OutcomePlaneada
			v.Note = NotePlannedVisit
		}

		visits := append(cloneVisits(contact.Visits), v)
		updated := contact.Clone().WithVisits(visits)
		return PlanResult{Contact: &updated, Visit: &v}, nil
	}

	return PlanResult{}, invalid("type", "unknown activity %q", req.Type)
}

// ReportRequest is the reporting form for an existing visit.
type ReportRequest struct {
	Outcome            models.Outcome      `json:"outcome"`
	Note               string              `json:"note"`
	FollowUp           string              `json:"followUp,omitempty"`
	Completed          bool                `json:"completed"`
	Priority           models.Priority     `json:"priority,omitempty"`
	MaterialsDelivered string              `json:"materialsDelivered,omitempty"`
	InterestLevel      int                 `json:"interestLevel,omitempty"`
	NextStepType       models.NextStepType `json:"nextStepType,omitempty"`

	// CommitmentDate, when set, schedules a COMPROMISO follow-up visit.
	CommitmentDate string `json:"commitmentDate,omitempty"`
	CommitmentTime string `json:"commitmentTime,omitempty"`
}

// Report amends a visit's outcome and status. A visit reported as not completed
// returns to planned. Appointments are refused.
func (e *Engine) Report(contact models.Contact, visitID string, req ReportRequest) (models.Contact, error) {
	idx := contact.FindVisit(visitID)
	if idx < 0 {
		return contact, ErrNotFound
	}
	current := contact.Visits[idx]
	if current.Locked() {
		return contact, ErrLocked
	}

	if !req.Outcome.Reportable() {
		return contact, invalid("outcome", "%q cannot be assigned by a report", req.Outcome)
	}
	if !req.Priority.Valid() {
		return contact, invalid("priority", "unknown priority %q", req.Priority)
	}
	if !req.NextStepType.Valid() {
		return contact, invalid("nextStepType", "unknown next step %q", req.NextStepType)
	}
	if req.InterestLevel < 0 || req.InterestLevel > maxInterestLevel {
		return contact, invalid("interestLevel", "must be between 1 and %d", maxInterestLevel)
	}
	if req.CommitmentDate != "" {
		if !models.ValidDate(req.CommitmentDate) {
			return contact, invalid("commitmentDate", "expected YYYY-MM-DD, got %q", req.CommitmentDate)
		}
		if req.CommitmentDate < current.Date {
			return contact, invalid("commitmentDate", "must not be before the visit date %s", current.Date)
		}
		if req.CommitmentTime != "" && !models.ValidTime(req.CommitmentTime) {
			return contact, invalid("commitmentTime", "expected HH:MM, got %q", req.CommitmentTime)
		}
	}

	reported := current
	reported.Outcome = req.Outcome
	reported.Note = strings.TrimSpace(req.Note)
	reported.FollowUp = strings.TrimSpace(req.FollowUp)
	reported.Status = models.VisitPlanned
	if req.Completed {
		reported.Status = models.VisitCompleted
	}
	if req.Priority != "" {
		reported.Priority = req.Priority
	}
	reported.MaterialsDelivered = strings.TrimSpace(req.MaterialsDelivered)
	reported.InterestLevel = req.InterestLevel
	reported.NextStepType = req.NextStepType

	visits := cloneVisits(contact.Visits)
	visits[idx] = reported

	if req.CommitmentDate != "" {
		objective := strings.ToUpper(reported.FollowUp)
		if objective == "" {
			objective = ObjectiveCommitment
		}
		visits = append(visits, models.Visit{
			ID:        e.opts.NewID(),
			Date:      req.CommitmentDate,
			Time:      req.CommitmentTime,
			Note:      NoteCommitment,
			Objective: objective,
			Outcome:   models.OutcomeCompromiso,
			Status:    models.VisitPlanned,
			Priority:  reported.Priority,
		})
	}

	return contact.Clone().WithVisits(visits), nil
}

// DeleteVisit removes a visit from its contact. Appointments are refused.
func (e *Engine) DeleteVisit(contact models.Contact, visitID string) (models.Contact, error) {
	idx := contact.FindVisit(visitID)
	if idx < 0 {
		return contact, ErrNotFound
	}
	if contact.Visits[idx].Locked() {
		return contact, ErrLocked
	}

	visits := cloneVisits(contact.Visits)
	visits = slices.Delete(visits, idx, idx+1)
	return contact.Clone().WithVisits(visits), nil
}

// MoveVisit changes only the date of a visit. Appointments are refused.
func (e *Engine) MoveVisit(contact models.Contact, visitID, date string) (models.Contact, error) {
	if !models.ValidDate(date) {
		return contact, invalid("date", "expected YYYY-MM-DD, got %q", date)
	}
	idx := contact.FindVisit(visitID)
	if idx < 0 {
		return contact, ErrNotFound
	}
	if contact.Visits[idx].Locked() {
		return contact, ErrLocked
	}

	visits := cloneVisits(contact.Visits)
	visits[idx].Date = date
	return contact.Clone().WithVisits(visits), nil
}

// MoveTimeOff collapses an absence onto the single target day.
func (e *Engine) MoveTimeOff(t models.TimeOffEvent, date string) (models.TimeOffEvent, error) {
	if !models.ValidDate(date) {
		return t, invalid("date", "expected YYYY-MM-DD, got %q", date)
	}
	t.StartDate = date
	t.EndDate = date
	return t, nil
}

// RegisterTimeOff validates a new or edited absence and fills in its defaults.
// Overlaps with other absences or visits are allowed.
func (e *Engine) RegisterTimeOff(t models.TimeOffEvent) (models.TimeOffEvent, error) {
	t.Executive = strings.ToUpper(strings.TrimSpace(t.Executive))
	if ExecutiveFilter(t.Executive).All() {
		return t, invalid("executive", "an absence needs a specific executive")
	}
	if !models.ValidDate(t.StartDate) {
		return t, invalid("startDate", "expected YYYY-MM-DD, got %q", t.StartDate)
	}
	if t.EndDate == "" {
		t.EndDate = t.StartDate
	}
	if !models.ValidDate(t.EndDate) {
		return t, invalid("endDate", "expected YYYY-MM-DD, got %q", t.EndDate)
	}
	if t.EndDate < t.StartDate {
		return t, invalid("endDate", "must not be before startDate")
	}
	if t.Reason == "" {
		t.Reason = defaultAbsenceReason
	}
	if !t.Reason.Valid() {
		return t, invalid("reason", "unknown reason %q", t.Reason)
	}
	if t.Duration == "" {
		t.Duration = defaultAbsenceDuration
	}
	if !t.Duration.Valid() {
		return t, invalid("duration", "unknown duration %q", t.Duration)
	}
	if t.ID == "" {
		t.ID = e.opts.NewID()
	}
	return t, nil
}

func cloneVisits(visits []models.Visit) []models.Visit {
	out := make([]models.Visit, len(visits), len(visits)+1)
	copy(out, visits)
	return out
}

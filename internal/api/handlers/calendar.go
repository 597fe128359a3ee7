package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/rc-medicall/backend/internal/api/middleware"
	"github.com/rc-medicall/backend/internal/calendar"
	"github.com/rc-medicall/backend/internal/storage/models"
	"github.com/rc-medicall/backend/internal/syncer"
)

// DropRequest moves an event to another day.
type DropRequest struct {
	Event calendar.EventRef `json:"event"`
	Date  string            `json:"date"`
}

// TrashRequest deletes an event. Confirmed must be true for the delete to happen.
type TrashRequest struct {
	Event     calendar.EventRef `json:"event"`
	Confirmed bool              `json:"confirmed"`
}

// GetCalendarView renders the month, week or day view named in the path.
func GetCalendarView(svc *syncer.Service, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view := calendar.ViewMode(mux.Vars(r)["view"])
		filter := calendar.ExecutiveFilter(r.URL.Query().Get("exec"))

		date := svc.Engine().Options().Now()
		if s := r.URL.Query().Get("date"); s != "" {
			d, err := models.ParseDate(s)
			if err != nil {
				writeServiceError(w, logger, calendar.Invalid("date", "expected YYYY-MM-DD, got %q", s))
				return
			}
			date = d
		}
		date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

		result, err := svc.Calendar(view, filter, date)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		middleware.WriteJSON(w, http.StatusOK, result)
	}
}

// PlanEvent creates a visit, an appointment or an absence.
func PlanEvent(svc *syncer.Service, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req calendar.PlanRequest
		if !decodeBody(w, r, &req) {
			return
		}
		result, err := svc.Plan(r.Context(), req)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		middleware.WriteJSON(w, http.StatusCreated, result)
	}
}

// BeginDrag checks whether an event may be dragged. Appointments answer 423.
func BeginDrag(svc *syncer.Service, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ref calendar.EventRef
		if !decodeBody(w, r, &ref) {
			return
		}
		ev, err := svc.BeginDrag(ref)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		middleware.WriteJSON(w, http.StatusOK, ev)
	}
}

// DropEvent moves an event to the day it was dropped on.
func DropEvent(svc *syncer.Service, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DropRequest
		if !decodeBody(w, r, &req) {
			return
		}
		change, err := svc.Drop(r.Context(), req.Event, req.Date)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		middleware.WriteJSON(w, http.StatusOK, change)
	}
}

// TrashEvent deletes an event dropped on the trash target.
func TrashEvent(svc *syncer.Service, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TrashRequest
		if !decodeBody(w, r, &req) {
			return
		}
		change, err := svc.Trash(r.Context(), req.Event, req.Confirmed)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		middleware.WriteJSON(w, http.StatusOK, change)
	}
}

// ReportVisit records the outcome of a visit.
func ReportVisit(svc *syncer.Service, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req calendar.ReportRequest
		if !decodeBody(w, r, &req) {
			return
		}
		vars := mux.Vars(r)
		contact, err := svc.Report(r.Context(), vars["id"], vars["visitId"], req)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		middleware.WriteJSON(w, http.StatusOK, contact)
	}
}

// DeleteVisit removes one visit from its contact.
func DeleteVisit(svc *syncer.Service, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		contact, err := svc.DeleteVisit(r.Context(), vars["id"], vars["visitId"])
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		middleware.WriteJSON(w, http.StatusOK, contact)
	}
}

// ListExecutives returns the sorted distinct executives of the directory.
func ListExecutives(svc *syncer.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, svc.Executives())
	}
}

// SlotsResponse lists the times the plan form may offer.
type SlotsResponse struct {
	Visit []string `json:"visit"`
	Cita  []string `json:"cita"`
}

// ListSlots returns the bookable visit and appointment times.
func ListSlots(svc *syncer.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		engine := svc.Engine()
		middleware.WriteJSON(w, http.StatusOK, SlotsResponse{
			Visit: engine.Slots(),
			Cita:  engine.Options().CitaSlots,
		})
	}
}

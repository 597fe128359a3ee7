package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/rc-medicall/backend/internal/api/middleware"
	"github.com/rc-medicall/backend/internal/storage/models"
	"github.com/rc-medicall/backend/internal/syncer"
)

// GetTimeOff returns every absence.
func GetTimeOff(svc *syncer.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, svc.TimeOff())
	}
}

// SaveTimeOff registers or replaces an absence.
func SaveTimeOff(svc *syncer.Service, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var t models.TimeOffEvent
		if !decodeBody(w, r, &t) {
			return
		}
		saved, err := svc.SaveTimeOff(r.Context(), t)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		middleware.WriteJSON(w, http.StatusOK, saved)
	}
}

// RemoveTimeOff deletes an absence.
func RemoveTimeOff(svc *syncer.Service, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DeleteTimeOff(r.Context(), mux.Vars(r)["id"]); err != nil {
			writeServiceError(w, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// GetProcedures returns every procedure.
func GetProcedures(svc *syncer.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, svc.Procedures())
	}
}

// SaveProcedure creates a procedure, or replaces the one named in the path.
func SaveProcedure(svc *syncer.Service, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p models.Procedure
		if !decodeBody(w, r, &p) {
			return
		}
		status := http.StatusCreated
		if id, ok := mux.Vars(r)["id"]; ok {
			p.ID = id
			status = http.StatusOK
		}
		saved, err := svc.SaveProcedure(r.Context(), p)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		middleware.WriteJSON(w, status, saved)
	}
}

// RemoveProcedure deletes a procedure.
func RemoveProcedure(svc *syncer.Service, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DeleteProcedure(r.Context(), mux.Vars(r)["id"]); err != nil {
			writeServiceError(w, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

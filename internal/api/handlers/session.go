package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/rc-medicall/backend/internal/api/middleware"
	"github.com/rc-medicall/backend/internal/calendar"
	"github.com/rc-medicall/backend/internal/dashboard"
	"github.com/rc-medicall/backend/internal/storage/models"
	"github.com/rc-medicall/backend/internal/syncer"
)

// SidebarPreference is the collapsed state of the navigation sidebar.
type SidebarPreference struct {
	Collapsed bool `json:"collapsed"`
}

// GetSession returns the logged-in user, or 404 when nobody is.
func GetSession(svc *syncer.Service, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := svc.User(r.Context())
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		if u == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "No active session")
			return
		}
		middleware.WriteJSON(w, http.StatusOK, u)
	}
}

// Login stores the session user.
func Login(svc *syncer.Service, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var u models.User
		if !decodeBody(w, r, &u) {
			return
		}
		if err := svc.Login(r.Context(), u); err != nil {
			writeServiceError(w, logger, err)
			return
		}
		stored, err := svc.User(r.Context())
		if err != nil || stored == nil {
			stored = &u
		}
		middleware.WriteJSON(w, http.StatusOK, stored)
	}
}

// Logout forgets the session user. With ?purge=true every cached snapshot
// goes too.
func Logout(svc *syncer.Service, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logout := svc.Logout
		if purge, _ := strconv.ParseBool(r.URL.Query().Get("purge")); purge {
			logout = svc.PurgeCache
		}
		if err := logout(r.Context()); err != nil {
			writeServiceError(w, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// GetSidebar returns the sidebar preference.
func GetSidebar(svc *syncer.Service, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		collapsed, err := svc.SidebarCollapsed(r.Context())
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		middleware.WriteJSON(w, http.StatusOK, SidebarPreference{Collapsed: collapsed})
	}
}

// SetSidebar stores the sidebar preference.
func SetSidebar(svc *syncer.Service, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var pref SidebarPreference
		if !decodeBody(w, r, &pref) {
			return
		}
		if err := svc.SetSidebarCollapsed(r.Context(), pref.Collapsed); err != nil {
			writeServiceError(w, logger, err)
			return
		}
		middleware.WriteJSON(w, http.StatusOK, pref)
	}
}

// GetDashboard returns the month statistics for ?exec= and ?month=YYYY-MM.
func GetDashboard(svc *syncer.Service, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		month, err := dashboard.ParseMonth(q.Get("month"), svc.Engine().Options().Now())
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		stats := dashboard.Compute(svc.Contacts(), svc.Procedures(), calendar.ExecutiveFilter(q.Get("exec")), month)
		middleware.WriteJSON(w, http.StatusOK, stats)
	}
}

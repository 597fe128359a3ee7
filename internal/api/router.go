// Package api provides HTTP routing for the remote store and the scheduling
// service.
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/rc-medicall/backend/internal/api/handlers"
	"github.com/rc-medicall/backend/internal/api/middleware"
	"github.com/rc-medicall/backend/internal/storage"
	"github.com/rc-medicall/backend/internal/syncer"
	"github.com/rc-medicall/backend/internal/websocket"
)

// NewStoreRouter serves the remote store API over the SQLite repositories.
func NewStoreRouter(db *storage.DB, logger *zap.Logger) *mux.Router {
	contacts := storage.NewContactRepository(db)
	timeOff := storage.NewTimeOffRepository(db)
	procedures := storage.NewProcedureRepository(db)

	r := mux.NewRouter()
	r.Use(middleware.Logging(logger))
	r.Use(middleware.ErrorRecovery(logger))

	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.NoStore)

	api.HandleFunc("/health", handlers.HealthCheck(db)).Methods("GET")

	api.HandleFunc("/doctors", handlers.ListDoctors(contacts, logger)).Methods("GET")
	api.HandleFunc("/doctors", handlers.UpsertDoctor(contacts, logger)).Methods("POST")
	api.HandleFunc("/doctors/bulk", handlers.BulkUpsertDoctors(contacts, logger)).Methods("POST")
	api.HandleFunc("/doctors/clear/{category}", handlers.ClearDoctorCategory(contacts, logger)).Methods("DELETE")
	api.HandleFunc("/doctors/{id}", handlers.DeleteDoctor(contacts, logger)).Methods("DELETE")

	api.HandleFunc("/timeoff", handlers.ListTimeOff(timeOff, logger)).Methods("GET")
	api.HandleFunc("/timeoff", handlers.UpsertTimeOff(timeOff, logger)).Methods("POST")
	api.HandleFunc("/timeoff/{id}", handlers.DeleteTimeOff(timeOff, logger)).Methods("DELETE")

	api.HandleFunc("/procedures", handlers.ListProcedures(procedures, logger)).Methods("GET")
	api.HandleFunc("/procedures", handlers.UpsertProcedure(procedures, logger)).Methods("POST")
	api.HandleFunc("/procedures/{id}", handlers.DeleteProcedure(procedures, logger)).Methods("DELETE")

	return r
}

// NewRouter serves the scheduling API, the websocket and, when staticDir is set,
// the frontend files.
func NewRouter(
	svc *syncer.Service,
	scheduler *syncer.Scheduler,
	hub *websocket.Hub,
	staticDir string,
	logger *zap.Logger,
) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Logging(logger))
	r.Use(middleware.ErrorRecovery(logger))

	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.NoStore)

	// Health, status and sync
	api.HandleFunc("/health", handlers.HealthCheck(nil)).Methods("GET")
	api.HandleFunc("/status", handlers.Status(svc, scheduler, hub)).Methods("GET")
	api.HandleFunc("/ws", handlers.WebSocketUpgrade(hub, logger)).Methods("GET")
	api.HandleFunc("/sync", handlers.TriggerSync(scheduler, logger)).Methods("POST")
	api.HandleFunc("/executives", handlers.ListExecutives(svc)).Methods("GET")

	// Calendar
	api.HandleFunc("/calendar/slots", handlers.ListSlots(svc)).Methods("GET")
	api.HandleFunc("/calendar/events", handlers.PlanEvent(svc, logger)).Methods("POST")
	api.HandleFunc("/calendar/drag", handlers.BeginDrag(svc, logger)).Methods("POST")
	api.HandleFunc("/calendar/drop", handlers.DropEvent(svc, logger)).Methods("POST")
	api.HandleFunc("/calendar/trash", handlers.TrashEvent(svc, logger)).Methods("POST")
	api.HandleFunc("/calendar/{view:month|week|day}", handlers.GetCalendarView(svc, logger)).Methods("GET")

	// Contacts and their visits
	api.HandleFunc("/contacts", handlers.ListContacts(svc)).Methods("GET")
	api.HandleFunc("/contacts", handlers.CreateContact(svc, logger)).Methods("POST")
	api.HandleFunc("/contacts/category/{category}", handlers.ClearCategory(svc, logger)).Methods("DELETE")
	api.HandleFunc("/contacts/{id}", handlers.GetContact(svc, logger)).Methods("GET")
	api.HandleFunc("/contacts/{id}", handlers.UpdateContact(svc, logger)).Methods("PUT")
	api.HandleFunc("/contacts/{id}", handlers.DeleteContact(svc, logger)).Methods("DELETE")
	api.HandleFunc("/contacts/{id}/visits/{visitId}/report", handlers.ReportVisit(svc, logger)).Methods("POST")
	api.HandleFunc("/contacts/{id}/visits/{visitId}", handlers.DeleteVisit(svc, logger)).Methods("DELETE")

	// Time off and procedures
	api.HandleFunc("/timeoff", handlers.GetTimeOff(svc)).Methods("GET")
	api.HandleFunc("/timeoff", handlers.SaveTimeOff(svc, logger)).Methods("POST")
	api.HandleFunc("/timeoff/{id}", handlers.RemoveTimeOff(svc, logger)).Methods("DELETE")
	api.HandleFunc("/procedures", handlers.GetProcedures(svc)).Methods("GET")
	api.HandleFunc("/procedures", handlers.SaveProcedure(svc, logger)).Methods("POST")
	api.HandleFunc("/procedures/{id}", handlers.SaveProcedure(svc, logger)).Methods("PUT")
	api.HandleFunc("/procedures/{id}", handlers.RemoveProcedure(svc, logger)).Methods("DELETE")

	// Directory files and dashboard
	api.HandleFunc("/directory/import", handlers.ImportDirectory(svc, logger)).Methods("POST")
	api.HandleFunc("/directory/export.csv", handlers.ExportDirectoryCSV(svc, logger)).Methods("GET")
	api.HandleFunc("/directory/export.xlsx", handlers.ExportDirectoryXLSX(svc, logger)).Methods("GET")
	api.HandleFunc("/dashboard", handlers.GetDashboard(svc, logger)).Methods("GET")

	// Session and preferences
	api.HandleFunc("/session", handlers.GetSession(svc, logger)).Methods("GET")
	api.HandleFunc("/session", handlers.Login(svc, logger)).Methods("PUT")
	api.HandleFunc("/session", handlers.Logout(svc, logger)).Methods("DELETE")
	api.HandleFunc("/preferences/sidebar", handlers.GetSidebar(svc, logger)).Methods("GET")
	api.HandleFunc("/preferences/sidebar", handlers.SetSidebar(svc, logger)).Methods("PUT")

	if staticDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(staticDir)))
	}

	return r
}

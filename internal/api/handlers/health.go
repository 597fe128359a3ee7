package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/rc-medicall/backend/internal/api/middleware"
	"github.com/rc-medicall/backend/internal/storage/models"
	"github.com/rc-medicall/backend/internal/syncer"
	"github.com/rc-medicall/backend/internal/websocket"
)

// Pinger is anything whose connectivity can be probed, such as the SQLite handle.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status      string `json:"status"`
	DBConnected bool   `json:"db_connected"`
}

// HealthCheck returns a handler that pings the database. With a nil pinger the
// process being up is all that is reported.
func HealthCheck(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dbConnected := true
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			dbConnected = db.PingContext(ctx) == nil
		}

		status := "healthy"
		code := http.StatusOK
		if !dbConnected {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		middleware.WriteJSON(w, code, HealthResponse{Status: status, DBConnected: dbConnected})
	}
}

// StatusResponse represents the scheduling service status.
type StatusResponse struct {
	Sync          models.SyncStatus `json:"sync"`
	Contacts      int               `json:"contacts"`
	TimeOff       int               `json:"time_off"`
	Procedures    int               `json:"procedures"`
	Clients       int               `json:"clients"`
	ClientVisible bool              `json:"client_visible"`
	NextSyncAt    *time.Time        `json:"next_sync_at,omitempty"`
}

// Status returns a handler that provides sync and connection information.
func Status(svc *syncer.Service, scheduler *syncer.Scheduler, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := StatusResponse{
			Sync:       svc.Status(),
			Contacts:   len(svc.Contacts()),
			TimeOff:    len(svc.TimeOff()),
			Procedures: len(svc.Procedures()),
		}
		if hub != nil {
			resp.Clients = hub.ClientCount()
			resp.ClientVisible = hub.AnyVisible()
		}
		if scheduler != nil {
			resp.NextSyncAt = scheduler.NextRun()
		}
		middleware.WriteJSON(w, http.StatusOK, resp)
	}
}

// TriggerSync starts a resync in the background and answers 202.
func TriggerSync(scheduler *syncer.Scheduler, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if scheduler == nil {
			middleware.WriteError(w, http.StatusServiceUnavailable, middleware.ErrInternalError, "Sync scheduler not running")
			return
		}
		scheduler.TriggerSync()
		logger.Info("manual resync requested")
		middleware.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "sync_started"})
	}
}

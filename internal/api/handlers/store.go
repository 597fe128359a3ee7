package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/rc-medicall/backend/internal/api/middleware"
	"github.com/rc-medicall/backend/internal/storage"
	"github.com/rc-medicall/backend/internal/storage/models"
)

// maxStoreBody bounds remote store request bodies; bulk loads carry the whole
// directory.
const maxStoreBody = 100 << 20

// WriteResult is the acknowledgement every remote store write returns.
type WriteResult struct {
	Success bool `json:"success"`
	Count   *int `json:"count,omitempty"`
}

func ack(w http.ResponseWriter, count *int) {
	middleware.WriteJSON(w, http.StatusOK, WriteResult{Success: true, Count: count})
}

func decodeStoreBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxStoreBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
		return false
	}
	return true
}

func storeFailure(w http.ResponseWriter, logger *zap.Logger, msg string, err error) {
	logger.Error(msg, zap.Error(err))
	middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, err.Error())
}

// Deleting something already gone is a success.
func ignoreMissing(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	return err
}

// ListDoctors returns every contact ordered by name.
func ListDoctors(repo *storage.ContactRepository, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		contacts, err := repo.List(r.Context())
		if err != nil {
			storeFailure(w, logger, "listing contacts", err)
			return
		}
		middleware.WriteJSON(w, http.StatusOK, contacts)
	}
}

// UpsertDoctor writes one contact, replacing every field of an existing one.
func UpsertDoctor(repo *storage.ContactRepository, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var c models.Contact
		if !decodeStoreBody(w, r, &c) {
			return
		}
		if c.ID == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "id is required")
			return
		}
		if err := repo.Upsert(r.Context(), &c); err != nil {
			storeFailure(w, logger, "upserting contact", err)
			return
		}
		middleware.WriteJSON(w, http.StatusOK, struct {
			Success bool           `json:"success"`
			Data    models.Contact `json:"data"`
		}{true, c})
	}
}

// BulkUpsertDoctors writes a batch of contacts in one transaction.
func BulkUpsertDoctors(repo *storage.ContactRepository, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var batch []models.Contact
		if !decodeStoreBody(w, r, &batch) {
			return
		}
		if len(batch) == 0 {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "No data provided")
			return
		}
		for _, c := range batch {
			if c.ID == "" {
				middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "every contact needs an id")
				return
			}
		}
		n, err := repo.BulkUpsert(r.Context(), batch)
		if err != nil {
			storeFailure(w, logger, "bulk upserting contacts", err)
			return
		}
		ack(w, &n)
	}
}

// DeleteDoctor removes one contact with its visits.
func DeleteDoctor(repo *storage.ContactRepository, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := ignoreMissing(repo.Delete(r.Context(), mux.Vars(r)["id"])); err != nil {
			storeFailure(w, logger, "deleting contact", err)
			return
		}
		ack(w, nil)
	}
}

// ClearDoctorCategory removes every contact of the category in the path.
func ClearDoctorCategory(repo *storage.ContactRepository, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deleted, err := repo.DeleteByCategory(r.Context(), mux.Vars(r)["category"])
		if err != nil {
			storeFailure(w, logger, "clearing category", err)
			return
		}
		n := int(deleted)
		ack(w, &n)
	}
}

// ListTimeOff returns every absence, newest start first.
func ListTimeOff(repo *storage.TimeOffRepository, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		events, err := repo.List(r.Context())
		if err != nil {
			storeFailure(w, logger, "listing time off", err)
			return
		}
		middleware.WriteJSON(w, http.StatusOK, events)
	}
}

// UpsertTimeOff writes one absence.
func UpsertTimeOff(repo *storage.TimeOffRepository, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var t models.TimeOffEvent
		if !decodeStoreBody(w, r, &t) {
			return
		}
		if t.ID == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "id is required")
			return
		}
		if err := repo.Upsert(r.Context(), &t); err != nil {
			storeFailure(w, logger, "upserting time off", err)
			return
		}
		ack(w, nil)
	}
}

// DeleteTimeOff removes one absence.
func DeleteTimeOff(repo *storage.TimeOffRepository, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := ignoreMissing(repo.Delete(r.Context(), mux.Vars(r)["id"])); err != nil {
			storeFailure(w, logger, "deleting time off", err)
			return
		}
		ack(w, nil)
	}
}

// ListProcedures returns every procedure, newest first.
func ListProcedures(repo *storage.ProcedureRepository, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		procs, err := repo.List(r.Context())
		if err != nil {
			storeFailure(w, logger, "listing procedures", err)
			return
		}
		middleware.WriteJSON(w, http.StatusOK, procs)
	}
}

// UpsertProcedure writes one procedure.
func UpsertProcedure(repo *storage.ProcedureRepository, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p models.Procedure
		if !decodeStoreBody(w, r, &p) {
			return
		}
		if p.ID == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "id is required")
			return
		}
		if err := repo.Upsert(r.Context(), &p); err != nil {
			storeFailure(w, logger, "upserting procedure", err)
			return
		}
		ack(w, nil)
	}
}

// DeleteProcedure removes one procedure.
func DeleteProcedure(repo *storage.ProcedureRepository, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := ignoreMissing(repo.Delete(r.Context(), mux.Vars(r)["id"])); err != nil {
			storeFailure(w, logger, "deleting procedure", err)
			return
		}
		ack(w, nil)
	}
}

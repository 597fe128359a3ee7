package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/rc-medicall/backend/internal/api/middleware"
	"github.com/rc-medicall/backend/internal/directory"
	"github.com/rc-medicall/backend/internal/storage/models"
	"github.com/rc-medicall/backend/internal/syncer"
)

// directoryFilter reads the directory list query: exec, category and q.
func directoryFilter(r *http.Request) directory.Filter {
	q := r.URL.Query()
	return directory.Filter{
		Executive: q.Get("exec"),
		Category:  models.Category(q.Get("category")),
		Search:    q.Get("q"),
	}
}

// ListContacts returns the directory tab selected by the query.
func ListContacts(svc *syncer.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, directoryFilter(r).Apply(svc.Contacts()))
	}
}

// GetContact returns one contact with its visits.
func GetContact(svc *syncer.Service, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := svc.Contact(mux.Vars(r)["id"])
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		middleware.WriteJSON(w, http.StatusOK, c)
	}
}

// CreateContact adds a directory entry.
func CreateContact(svc *syncer.Service, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var c models.Contact
		if !decodeBody(w, r, &c) {
			return
		}
		created, err := svc.CreateContact(r.Context(), c)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		middleware.WriteJSON(w, http.StatusCreated, created)
	}
}

// UpdateContact replaces a contact's directory fields. Visits are kept.
func UpdateContact(svc *syncer.Service, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var c models.Contact
		if !decodeBody(w, r, &c) {
			return
		}
		updated, err := svc.UpdateContact(r.Context(), mux.Vars(r)["id"], c)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		middleware.WriteJSON(w, http.StatusOK, updated)
	}
}

// DeleteContact removes a contact and every visit it owns.
func DeleteContact(svc *syncer.Service, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DeleteContact(r.Context(), mux.Vars(r)["id"]); err != nil {
			writeServiceError(w, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ClearCategory removes every contact of a category.
func ClearCategory(svc *syncer.Service, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := svc.ClearCategory(r.Context(), models.Category(mux.Vars(r)["category"]))
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		middleware.WriteJSON(w, http.StatusOK, map[string]int{"count": n})
	}
}

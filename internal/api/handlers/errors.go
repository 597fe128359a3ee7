// Package handlers provides HTTP request handlers for the API endpoints.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/rc-medicall/backend/internal/api/middleware"
	"github.com/rc-medicall/backend/internal/calendar"
)

// maxServiceBody bounds JSON bodies on the scheduling API.
const maxServiceBody = 10 << 20

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxServiceBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
		return false
	}
	return true
}

// writeServiceError maps scheduling errors onto HTTP statuses. Anything it does not
// recognise is logged and reported as a 500.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var verr *calendar.ValidationError
	switch {
	case errors.As(err, &verr):
		middleware.WriteErrorWithDetails(w, http.StatusBadRequest, middleware.ErrValidation, verr.Message,
			map[string]string{"field": verr.Field})
	case errors.Is(err, calendar.ErrLocked):
		middleware.WriteError(w, http.StatusLocked, middleware.ErrLocked, err.Error())
	case errors.Is(err, calendar.ErrConfirmationRequired):
		middleware.WriteError(w, http.StatusConflict, middleware.ErrConfirmationRequired, err.Error())
	case errors.Is(err, calendar.ErrNotFound):
		middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, err.Error())
	default:
		logger.Error("request failed", zap.Error(err))
		middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "An unexpected error occurred")
	}
}

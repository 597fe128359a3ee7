package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/rc-medicall/backend/internal/api/middleware"
	"github.com/rc-medicall/backend/internal/directory"
	"github.com/rc-medicall/backend/internal/syncer"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ImportResponse reports how many rows were imported and how many were skipped.
type ImportResponse struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// ImportDirectory parses an uploaded CSV (or XLSX, by content type or
// ?format=xlsx) and upserts every row in one bulk write.
func ImportDirectory(svc *syncer.Service, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxServiceBody)

		parse := directory.ParseCSV
		if r.URL.Query().Get("format") == "xlsx" || strings.HasPrefix(r.Header.Get("Content-Type"), xlsxContentType) {
			parse = directory.ParseXLSX
		}

		parsed, err := parse(r.Body)
		if errors.Is(err, directory.ErrNoHeader) {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, err.Error())
			return
		}
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Could not read the uploaded file")
			return
		}

		n, err := svc.Import(r.Context(), parsed.Contacts)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		middleware.WriteJSON(w, http.StatusOK, ImportResponse{Imported: n, Skipped: parsed.Skipped})
	}
}

// ExportDirectoryCSV downloads the filtered directory as CSV.
func ExportDirectoryCSV(svc *syncer.Service, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if err := directory.WriteCSV(&buf, directoryFilter(r).Apply(svc.Contacts())); err != nil {
			writeServiceError(w, logger, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="directorio.csv"`)
		_, _ = w.Write(buf.Bytes())
	}
}

// ExportDirectoryXLSX downloads the filtered directory as a workbook.
func ExportDirectoryXLSX(svc *syncer.Service, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if err := directory.WriteXLSX(&buf, directoryFilter(r).Apply(svc.Contacts())); err != nil {
			writeServiceError(w, logger, err)
			return
		}
		w.Header().Set("Content-Type", xlsxContentType)
		w.Header().Set("Content-Disposition", `attachment; filename="directorio.xlsx"`)
		_, _ = w.Write(buf.Bytes())
	}
}

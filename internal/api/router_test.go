package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rc-medicall/backend/internal/api/middleware"
	"github.com/rc-medicall/backend/internal/calendar"
	"github.com/rc-medicall/backend/internal/directory"
	"github.com/rc-medicall/backend/internal/storage"
	"github.com/rc-medicall/backend/internal/storage/models"
	"github.com/rc-medicall/backend/internal/syncer"
	"github.com/rc-medicall/backend/internal/websocket"
)

var today = time.Date(2024, 6, 10, 9, 30, 0, 0, time.UTC)

type stack struct {
	store  http.Handler
	router http.Handler
	svc    *syncer.Service
	outbox *syncer.Outbox
}

func newStack(t *testing.T) *stack {
	t.Helper()
	logger := zap.NewNop()

	db, err := storage.Open(filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	storeRouter := NewStoreRouter(db, logger)
	storeSrv := httptest.NewServer(storeRouter)
	t.Cleanup(storeSrv.Close)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	outbox := syncer.NewOutbox(64, 1, time.Millisecond, time.Second, logger)
	outbox.Start(2)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		outbox.Stop(ctx)
	})

	engine := calendar.NewEngine(calendar.Options{Now: func() time.Time { return today }})
	projections, err := calendar.NewProjectionCache(16, logger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := websocket.NewHub(logger)
	go hub.Run(ctx)

	svc := syncer.NewService(
		syncer.NewClient(storeSrv.URL, 2*time.Second, 0, logger),
		syncer.NewCache(syncer.NewRedisStore(rdb), "v5"),
		outbox,
		engine,
		projections,
		directory.Seed,
		websocket.NewEventBroadcaster(hub, logger),
		time.Second,
		logger,
	)
	res := svc.Start(context.Background())
	require.Equal(t, models.SourceSeed, res.Source)

	scheduler := syncer.NewScheduler(svc, hub, time.Minute, time.Second, logger)

	return &stack{
		store:  storeRouter,
		router: NewRouter(svc, scheduler, hub, "", logger),
		svc:    svc,
		outbox: outbox,
	}
}

func (s *stack) drain(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.outbox.Wait(ctx))
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[middleware.ErrorResponse](t, rec).Error
}

func TestStoreRouter(t *testing.T) {
	s := newStack(t)
	s.drain(t)

	rec := do(t, s.store, http.MethodPost, "/api/doctors/bulk", []models.Contact{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No data provided", decode[middleware.ErrorResponse](t, rec).Message)

	rec = do(t, s.store, http.MethodPost, "/api/doctors", models.Contact{ID: "med-1", Name: "AAA PRIMERO", Category: models.CategoryMedico})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store, no-cache, must-revalidate, private", rec.Header().Get("Cache-Control"))

	rec = do(t, s.store, http.MethodGet, "/api/doctors", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	contacts := decode[[]models.Contact](t, rec)
	require.Len(t, contacts, 26, "seed pushed by bootstrap plus one")
	assert.Equal(t, "AAA PRIMERO", contacts[0].Name)

	rec = do(t, s.store, http.MethodDelete, "/api/doctors/clear/medico", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, *decode[storeAck](t, rec).Count)

	rec = do(t, s.store, http.MethodDelete, "/api/doctors/missing", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s.store, http.MethodPost, "/api/timeoff", models.TimeOffEvent{ID: "t1", Executive: "LUIS", StartDate: "2024-06-01", EndDate: "2024-06-02"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, s.store, http.MethodPost, "/api/timeoff", models.TimeOffEvent{ID: "t2", Executive: "LUIS", StartDate: "2024-07-01", EndDate: "2024-07-01"})
	require.Equal(t, http.StatusOK, rec.Code)
	timeOff := decode[[]models.TimeOffEvent](t, do(t, s.store, http.MethodGet, "/api/timeoff", nil))
	require.Len(t, timeOff, 2)
	assert.Equal(t, "t2", timeOff[0].ID)

	rec = do(t, s.store, http.MethodPost, "/api/procedures", models.Procedure{Date: "2024-06-01"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s.store, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

// storeAck mirrors the store write acknowledgement.
type storeAck struct {
	Success bool `json:"success"`
	Count   *int `json:"count"`
}

func TestExecutivesAndStatus(t *testing.T) {
	s := newStack(t)

	rec := do(t, s.router, http.MethodGet, "/api/executives", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"LUIS", "ORALIA", "TALINA"}, decode[[]string](t, rec))

	rec = do(t, s.router, http.MethodGet, "/api/calendar/slots", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	slots := decode[map[string][]string](t, rec)
	assert.Len(t, slots["visit"], 25)
	assert.Equal(t, []string{"09:00", "16:00"}, slots["cita"])

	rec = do(t, s.router, http.MethodGet, "/api/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	status := decode[map[string]any](t, rec)
	assert.Equal(t, float64(25), status["contacts"])
	assert.Equal(t, "online", status["sync"].(map[string]any)["connection"])
}

func createDoctor(t *testing.T, s *stack) models.Contact {
	t.Helper()
	rec := do(t, s.router, http.MethodPost, "/api/contacts", models.Contact{Name: "dr. delta", Executive: "luis"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	c := decode[models.Contact](t, rec)
	assert.Equal(t, "DR. DELTA", c.Name)
	assert.True(t, strings.HasPrefix(c.ID, "med-"))
	return c
}

func TestCitaIsLockedOverHTTP(t *testing.T) {
	s := newStack(t)
	doctor := createDoctor(t, s)

	rec := do(t, s.router, http.MethodPost, "/api/calendar/events", calendar.PlanRequest{
		Type: calendar.ActivityCita, ContactID: doctor.ID, Date: "2024-06-12", Time: "09:00",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	cita := decode[calendar.PlanResult](t, rec).Visit
	require.NotNil(t, cita)

	ref := calendar.EventRef{Kind: calendar.KindVisit, ID: cita.ID, ContactID: doctor.ID}

	rec = do(t, s.router, http.MethodPost, "/api/calendar/drag", ref)
	assert.Equal(t, http.StatusLocked, rec.Code)
	assert.Equal(t, middleware.ErrLocked, errorCode(t, rec))

	rec = do(t, s.router, http.MethodPost, "/api/calendar/drop", map[string]any{"event": ref, "date": "2024-06-13"})
	assert.Equal(t, http.StatusLocked, rec.Code)

	rec = do(t, s.router, http.MethodPost, "/api/calendar/trash", map[string]any{"event": ref, "confirmed": true})
	assert.Equal(t, http.StatusLocked, rec.Code)

	rec = do(t, s.router, http.MethodPost, "/api/contacts/"+doctor.ID+"/visits/"+cita.ID+"/report",
		calendar.ReportRequest{Outcome: models.OutcomeInteresado, Completed: true})
	assert.Equal(t, http.StatusLocked, rec.Code)

	rec = do(t, s.router, http.MethodDelete, "/api/contacts/"+doctor.ID+"/visits/"+cita.ID, nil)
	assert.Equal(t, http.StatusLocked, rec.Code)

	got := decode[models.Contact](t, do(t, s.router, http.MethodGet, "/api/contacts/"+doctor.ID, nil))
	require.Len(t, got.Visits, 1)
	assert.Equal(t, "2024-06-12", got.Visits[0].Date)
}

func TestVisitLifecycleOverHTTP(t *testing.T) {
	s := newStack(t)
	doctor := createDoctor(t, s)

	rec := do(t, s.router, http.MethodPost, "/api/calendar/events", calendar.PlanRequest{
		Type: calendar.ActivityVisita, ContactID: doctor.ID, Date: "2024-06-10", Time: "10:00",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, middleware.ErrValidation, errorCode(t, rec))

	rec = do(t, s.router, http.MethodPost, "/api/calendar/events", calendar.PlanRequest{
		Type: calendar.ActivityVisita, ContactID: "nobody", Date: "2024-06-10", Time: "10:00", Objective: "x",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s.router, http.MethodPost, "/api/calendar/events", calendar.PlanRequest{
		Type: calendar.ActivityVisita, ContactID: doctor.ID, Date: "2024-06-10", Time: "10:00", Objective: "presentar producto",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	visit := decode[calendar.PlanResult](t, rec).Visit
	assert.Equal(t, models.OutcomePlaneada, visit.Outcome)
	assert.Equal(t, "PRESENTAR PRODUCTO", visit.Objective)

	rec = do(t, s.router, http.MethodGet, "/api/calendar/day?exec=LUIS", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	day := decode[calendar.DayView](t, rec)
	assert.Equal(t, "2024-06-10", day.Date)
	require.Len(t, day.Events, 1)
	assert.Equal(t, visit.ID, day.Events[0].ID)

	rec = do(t, s.router, http.MethodGet, "/api/calendar/year", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, s.router, http.MethodGet, "/api/calendar/week?date=junio", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s.router, http.MethodPost, "/api/contacts/"+doctor.ID+"/visits/"+visit.ID+"/report", calendar.ReportRequest{
		Outcome: models.OutcomeInteresado, Note: "muy interesado", Completed: true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	reported := decode[models.Contact](t, rec)
	require.Len(t, reported.Visits, 1)
	assert.Equal(t, models.VisitCompleted, reported.Visits[0].Status)

	ref := calendar.EventRef{Kind: calendar.KindVisit, ID: visit.ID, ContactID: doctor.ID}
	rec = do(t, s.router, http.MethodPost, "/api/calendar/drop", map[string]any{"event": ref, "date": "2024-06-11"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s.router, http.MethodPost, "/api/calendar/trash", map[string]any{"event": ref})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, middleware.ErrConfirmationRequired, errorCode(t, rec))

	rec = do(t, s.router, http.MethodPost, "/api/calendar/trash", map[string]any{"event": ref, "confirmed": true})
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode[models.Contact](t, do(t, s.router, http.MethodGet, "/api/contacts/"+doctor.ID, nil))
	assert.Empty(t, got.Visits)

	s.drain(t)
	stored := decode[[]models.Contact](t, do(t, s.store, http.MethodGet, "/api/doctors", nil))
	for _, c := range stored {
		if c.ID == doctor.ID {
			assert.Empty(t, c.Visits)
			return
		}
	}
	t.Fatal("created contact never reached the store")
}

func TestAbsencePlanning(t *testing.T) {
	s := newStack(t)

	rec := do(t, s.router, http.MethodPost, "/api/calendar/events", calendar.PlanRequest{
		Type: calendar.ActivityAusencia, Executive: "oralia", Date: "2024-06-14", Objective: "curso",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	absence := decode[calendar.PlanResult](t, rec).TimeOff
	require.NotNil(t, absence)
	assert.Equal(t, models.ReasonPermiso, absence.Reason)
	assert.Equal(t, models.DurationFullDay, absence.Duration)

	timeOff := decode[[]models.TimeOffEvent](t, do(t, s.router, http.MethodGet, "/api/timeoff", nil))
	require.Len(t, timeOff, 1)

	rec = do(t, s.router, http.MethodDelete, "/api/timeoff/"+absence.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, s.router, http.MethodDelete, "/api/timeoff/"+absence.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDirectoryImportExport(t *testing.T) {
	s := newStack(t)

	csv := "NOMBRE,EJECUTIVO,CATEGORIA,DIRECCION\nDr. Épsilon,Luis,Médico,Av. Uno\n,Luis,MEDICO,sin nombre\n"
	rec := do(t, s.router, http.MethodPost, "/api/directory/import", csv)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, importCounts{Imported: 1, Skipped: 1}, decode[importCounts](t, rec))

	rec = do(t, s.router, http.MethodPost, "/api/directory/import", csv)
	require.Equal(t, http.StatusOK, rec.Code)
	listed := decode[[]models.Contact](t, do(t, s.router, http.MethodGet, "/api/contacts?q=epsilon", nil))
	assert.Len(t, listed, 1)

	rec = do(t, s.router, http.MethodPost, "/api/directory/import", "EJECUTIVO\nLUIS\n")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s.router, http.MethodGet, "/api/directory/export.csv?category=hospital&exec=talina", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "\ufeff\"ID\""))
	parsed, err := directory.ParseCSV(rec.Body)
	require.NoError(t, err)
	assert.Len(t, parsed.Contacts, 9)

	rec = do(t, s.router, http.MethodGet, "/api/directory/export.xlsx?category=hospital", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "spreadsheetml")
	book, err := directory.ParseXLSX(rec.Body)
	require.NoError(t, err)
	assert.Len(t, book.Contacts, 25)
}

type importCounts struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

func TestDashboardEndpoint(t *testing.T) {
	s := newStack(t)

	rec := do(t, s.router, http.MethodGet, "/api/dashboard?month=2024-13", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s.router, http.MethodGet, "/api/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[map[string]any](t, rec)
	assert.Equal(t, "2024-06", stats["month"])
	assert.Equal(t, float64(25), stats["totalContacts"])
}

func TestSessionAndPreferences(t *testing.T) {
	s := newStack(t)

	assert.Equal(t, http.StatusNotFound, do(t, s.router, http.MethodGet, "/api/session", nil).Code)

	rec := do(t, s.router, http.MethodPut, "/api/session", models.User{Name: "Ana", Role: "superuser"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s.router, http.MethodPut, "/api/session", models.User{Name: "Ana", Role: models.RoleAdmin})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Ana", decode[models.User](t, do(t, s.router, http.MethodGet, "/api/session", nil)).Name)

	rec = do(t, s.router, http.MethodPut, "/api/preferences/sidebar", map[string]bool{"collapsed": true})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]bool{"collapsed": true},
		decode[map[string]bool](t, do(t, s.router, http.MethodGet, "/api/preferences/sidebar", nil)))

	assert.Equal(t, http.StatusNoContent, do(t, s.router, http.MethodDelete, "/api/session", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, s.router, http.MethodGet, "/api/session", nil).Code)
	assert.Equal(t, map[string]bool{"collapsed": true},
		decode[map[string]bool](t, do(t, s.router, http.MethodGet, "/api/preferences/sidebar", nil)))

	assert.Equal(t, http.StatusNoContent, do(t, s.router, http.MethodDelete, "/api/session?purge=true", nil).Code)
	assert.Equal(t, map[string]bool{"collapsed": false},
		decode[map[string]bool](t, do(t, s.router, http.MethodGet, "/api/preferences/sidebar", nil)))
}

func TestProceduresEndpoint(t *testing.T) {
	s := newStack(t)
	doctor := createDoctor(t, s)

	rec := do(t, s.router, http.MethodPost, "/api/procedures", models.Procedure{
		Date: "2024-06-05", DoctorID: doctor.ID, ProcedureType: "ablación", Cost: 1000, Commission: 100,
		Status: models.ProcedurePerformed,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	p := decode[models.Procedure](t, rec)
	assert.Equal(t, "DR. DELTA", p.DoctorName)

	p.Cost = 1200
	rec = do(t, s.router, http.MethodPut, "/api/procedures/"+p.ID, p)
	require.Equal(t, http.StatusOK, rec.Code)

	stats := decode[map[string]any](t, do(t, s.router, http.MethodGet, "/api/dashboard?exec=LUIS&month=2024-06", nil))
	assert.Equal(t, float64(1200), stats["revenue"])

	assert.Equal(t, http.StatusNoContent, do(t, s.router, http.MethodDelete, "/api/procedures/"+p.ID, nil).Code)
	assert.Empty(t, decode[[]models.Procedure](t, do(t, s.router, http.MethodGet, "/api/procedures", nil)))
}

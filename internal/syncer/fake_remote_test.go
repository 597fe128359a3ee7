package syncer

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/rc-medicall/backend/internal/storage/models"
)

// fakeRemote is an in-memory stand-in for the remote store API.
type fakeRemote struct {
	mu         sync.Mutex
	contacts   map[string]models.Contact
	timeOff    map[string]models.TimeOffEvent
	procedures map[string]models.Procedure
	requests   []string
	bulkSizes  []int

	fail  bool
	delay time.Duration
}

func newFakeRemote(t *testing.T) (*fakeRemote, *httptest.Server) {
	t.Helper()
	f := &fakeRemote{
		contacts:   map[string]models.Contact{},
		timeOff:    map[string]models.TimeOffEvent{},
		procedures: map[string]models.Procedure{},
	}

	r := mux.NewRouter()
	r.HandleFunc("/api/doctors", f.listContacts).Methods(http.MethodGet)
	r.HandleFunc("/api/doctors", f.upsertContact).Methods(http.MethodPost)
	r.HandleFunc("/api/doctors/bulk", f.bulkContacts).Methods(http.MethodPost)
	r.HandleFunc("/api/doctors/clear/{category}", f.clearCategory).Methods(http.MethodDelete)
	r.HandleFunc("/api/doctors/{id}", f.deleteContact).Methods(http.MethodDelete)
	r.HandleFunc("/api/timeoff", f.listTimeOff).Methods(http.MethodGet)
	r.HandleFunc("/api/timeoff", f.upsertTimeOff).Methods(http.MethodPost)
	r.HandleFunc("/api/timeoff/{id}", f.deleteTimeOff).Methods(http.MethodDelete)
	r.HandleFunc("/api/procedures", f.listProcedures).Methods(http.MethodGet)
	r.HandleFunc("/api/procedures", f.upsertProcedure).Methods(http.MethodPost)
	r.HandleFunc("/api/procedures/{id}", f.deleteProcedure).Methods(http.MethodDelete)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, req.Method+" "+req.URL.Path)
		fail, delay := f.fail, f.delay
		f.mu.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-req.Context().Done():
				return
			}
		}
		if fail {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		r.ServeHTTP(w, req)
	}))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeRemote) setFail(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = fail
}

func (f *fakeRemote) setDelay(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delay = d
}

func (f *fakeRemote) seedContacts(contacts ...models.Contact) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range contacts {
		f.contacts[c.ID] = c
	}
}

func (f *fakeRemote) contact(id string) (models.Contact, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.contacts[id]
	return c, ok
}

func (f *fakeRemote) timeOffEntry(id string) (models.TimeOffEvent, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.timeOff[id]
	return t, ok
}

func (f *fakeRemote) received(request string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requests {
		if r == request {
			return true
		}
	}
	return false
}

func (f *fakeRemote) count(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if strings.HasPrefix(r, prefix) {
			n++
		}
	}
	return n
}

func (f *fakeRemote) bulks() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.bulkSizes...)
}

func (f *fakeRemote) listContacts(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	out := make([]models.Contact, 0, len(f.contacts))
	for _, c := range f.contacts {
		out = append(out, c)
	}
	f.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	writeJSON(w, out)
}

func (f *fakeRemote) upsertContact(w http.ResponseWriter, r *http.Request) {
	var c models.Contact
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.seedContacts(c)
	writeJSON(w, map[string]bool{"success": true})
}

func (f *fakeRemote) bulkContacts(w http.ResponseWriter, r *http.Request) {
	var batch []models.Contact
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil || len(batch) == 0 {
		http.Error(w, "No data provided", http.StatusBadRequest)
		return
	}
	f.seedContacts(batch...)
	f.mu.Lock()
	f.bulkSizes = append(f.bulkSizes, len(batch))
	f.mu.Unlock()
	writeJSON(w, map[string]any{"success": true, "count": len(batch)})
}

func (f *fakeRemote) clearCategory(w http.ResponseWriter, r *http.Request) {
	category := models.Category(strings.ToUpper(mux.Vars(r)["category"]))
	f.mu.Lock()
	for id, c := range f.contacts {
		if c.Category == category {
			delete(f.contacts, id)
		}
	}
	f.mu.Unlock()
	writeJSON(w, map[string]bool{"success": true})
}

func (f *fakeRemote) deleteContact(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	delete(f.contacts, mux.Vars(r)["id"])
	f.mu.Unlock()
	writeJSON(w, map[string]bool{"success": true})
}

func (f *fakeRemote) listTimeOff(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	out := make([]models.TimeOffEvent, 0, len(f.timeOff))
	for _, t := range f.timeOff {
		out = append(out, t)
	}
	f.mu.Unlock()
	writeJSON(w, out)
}

func (f *fakeRemote) upsertTimeOff(w http.ResponseWriter, r *http.Request) {
	var t models.TimeOffEvent
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	f.timeOff[t.ID] = t
	f.mu.Unlock()
	writeJSON(w, map[string]bool{"success": true})
}

func (f *fakeRemote) deleteTimeOff(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	delete(f.timeOff, mux.Vars(r)["id"])
	f.mu.Unlock()
	writeJSON(w, map[string]bool{"success": true})
}

func (f *fakeRemote) listProcedures(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	out := make([]models.Procedure, 0, len(f.procedures))
	for _, p := range f.procedures {
		out = append(out, p)
	}
	f.mu.Unlock()
	writeJSON(w, out)
}

func (f *fakeRemote) upsertProcedure(w http.ResponseWriter, r *http.Request) {
	var p models.Procedure
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	f.procedures[p.ID] = p
	f.mu.Unlock()
	writeJSON(w, map[string]bool{"success": true})
}

func (f *fakeRemote) deleteProcedure(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	delete(f.procedures, mux.Vars(r)["id"])
	f.mu.Unlock()
	writeJSON(w, map[string]bool{"success": true})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

package syncer

import (
	"sync"
	"time"

	"github.com/rc-medicall/backend/internal/storage/models"
)

// State holds the service's working copy of the collections.
//
// Collections are never edited in place: every change builds a new slice and swaps
// it in under the lock, so a slice handed out by a reader stays consistent for as
// long as the reader holds it. Callers must treat returned slices as read-only.
type State struct {
	mu         sync.RWMutex
	contacts   []models.Contact
	timeOff    []models.TimeOffEvent
	procedures []models.Procedure
	revision   uint64

	connection models.ConnectionStatus
	source     models.DataSource
	lastSyncAt *time.Time
	lastError  string
	deferred   bool
}

// NewState returns an empty state, offline with no data source.
func NewState() *State {
	return &State{
		contacts:   []models.Contact{},
		timeOff:    []models.TimeOffEvent{},
		procedures: []models.Procedure{},
		connection: models.ConnectionOffline,
		source:     models.SourceNone,
	}
}

// Contacts returns the current contact collection.
func (s *State) Contacts() []models.Contact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.contacts
}

// TimeOff returns the current absence collection.
func (s *State) TimeOff() []models.TimeOffEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.timeOff
}

// Procedures returns the current procedure collection.
func (s *State) Procedures() []models.Procedure {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.procedures
}

// View returns contacts and absences together with the revision they belong to.
func (s *State) View() ([]models.Contact, []models.TimeOffEvent, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.contacts, s.timeOff, s.revision
}

// Revision increases on every change to any collection.
func (s *State) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Snapshot copies the collection headers into a Snapshot for caching.
func (s *State) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &Snapshot{Contacts: s.contacts, TimeOff: s.timeOff, Procedures: s.procedures}
}

// Replace swaps in a whole snapshot, recording where it came from.
func (s *State) Replace(snap *Snapshot, source models.DataSource) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contacts = nonNil(snap.Contacts)
	s.timeOff = nonNil(snap.TimeOff)
	s.procedures = nonNil(snap.Procedures)
	s.source = source
	s.revision++
	return s.revision
}

// UpdateContacts runs fn against the current contacts under the write lock and
// swaps in its result. An error leaves the state untouched.
func (s *State) UpdateContacts(fn func([]models.Contact) ([]models.Contact, error)) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := fn(s.contacts)
	if err != nil {
		return s.revision, err
	}
	s.contacts = nonNil(next)
	s.revision++
	return s.revision, nil
}

// UpdateTimeOff is UpdateContacts for absences.
func (s *State) UpdateTimeOff(fn func([]models.TimeOffEvent) ([]models.TimeOffEvent, error)) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := fn(s.timeOff)
	if err != nil {
		return s.revision, err
	}
	s.timeOff = nonNil(next)
	s.revision++
	return s.revision, nil
}

// UpdateSchedule runs fn against contacts and absences together, for changes
// that must see both (drag and drop).
func (s *State) UpdateSchedule(fn func([]models.Contact, []models.TimeOffEvent) ([]models.Contact, []models.TimeOffEvent, error)) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	contacts, timeOff, err := fn(s.contacts, s.timeOff)
	if err != nil {
		return s.revision, err
	}
	s.contacts = nonNil(contacts)
	s.timeOff = nonNil(timeOff)
	s.revision++
	return s.revision, nil
}

// UpdateProcedures is UpdateContacts for procedures.
func (s *State) UpdateProcedures(fn func([]models.Procedure) ([]models.Procedure, error)) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := fn(s.procedures)
	if err != nil {
		return s.revision, err
	}
	s.procedures = nonNil(next)
	s.revision++
	return s.revision, nil
}

// SetConnection records the link status. A nil err clears the last error; a
// successful online transition also stamps the sync time.
func (s *State) SetConnection(status models.ConnectionStatus, err error, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connection = status
	switch {
	case err != nil:
		s.lastError = err.Error()
	case status == models.ConnectionOnline:
		s.lastError = ""
		t := at
		s.lastSyncAt = &t
	}
}

// SetDeferred records whether the last resync was postponed.
func (s *State) SetDeferred(deferred bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deferred = deferred
}

// Status returns the externally visible sync state without the outbox count.
func (s *State) Status() models.SyncStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := models.SyncStatus{
		Connection: s.connection,
		Source:     s.source,
		LastError:  s.lastError,
		Revision:   s.revision,
		Deferred:   s.deferred,
	}
	if s.lastSyncAt != nil {
		t := *s.lastSyncAt
		st.LastSyncAt = &t
	}
	return st
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

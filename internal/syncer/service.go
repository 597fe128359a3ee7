package syncer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/rc-medicall/backend/internal/calendar"
	"github.com/rc-medicall/backend/internal/storage/models"
)

// Entities named in outbox writes and change notifications.
const (
	EntityContact   = "contact"
	EntityTimeOff   = "timeoff"
	EntityProcedure = "procedure"
	EntityAll       = "all"
)

// Notifier receives the service's change notifications.
type Notifier interface {
	BroadcastSyncStatus(status models.SyncStatus)
	BroadcastCalendarChanged(revision uint64, entity, id string)
	BroadcastEventRejected(kind, id, reason string)
}

type nopNotifier struct{}

func (nopNotifier) BroadcastSyncStatus(models.SyncStatus)            {}
func (nopNotifier) BroadcastCalendarChanged(uint64, string, string) {}
func (nopNotifier) BroadcastEventRejected(string, string, string)   {}

// SeedFunc returns the built-in directory used when neither the remote store nor
// the cache has any contacts.
type SeedFunc func() ([]models.Contact, error)

// Service is the scheduling service's view of the data. Reads are served from
// memory; every mutation is applied locally first, snapshotted to the cache and
// handed to the outbox for delivery to the remote store.
type Service struct {
	client      *Client
	cache       *Cache
	state       *State
	outbox      *Outbox
	engine      *calendar.Engine
	projections *calendar.ProjectionCache
	seed        SeedFunc
	notifier    Notifier
	logger      *zap.Logger

	startupTimeout time.Duration

	syncMu    sync.Mutex
	persistMu sync.Mutex
}

// NewService wires the sync layer. notifier may be nil.
func NewService(
	client *Client,
	cache *Cache,
	outbox *Outbox,
	engine *calendar.Engine,
	projections *calendar.ProjectionCache,
	seed SeedFunc,
	notifier Notifier,
	startupTimeout time.Duration,
	logger *zap.Logger,
) *Service {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if startupTimeout <= 0 {
		startupTimeout = 8 * time.Second
	}
	return &Service{
		client:         client,
		cache:          cache,
		state:          NewState(),
		outbox:         outbox,
		engine:         engine,
		projections:    projections,
		seed:           seed,
		notifier:       notifier,
		logger:         logger.Named("sync"),
		startupTimeout: startupTimeout,
	}
}

// SetNotifier replaces the notifier. It must be called before Start.
func (s *Service) SetNotifier(n Notifier) {
	if n == nil {
		n = nopNotifier{}
	}
	s.notifier = n
}

// Engine returns the scheduling engine the service applies.
func (s *Service) Engine() *calendar.Engine {
	return s.engine
}

// Start performs the initial load. The remote store gets startupTimeout to answer;
// after that the cached snapshot is used, and failing that the seed directory. A
// failed fetch leaves the service offline but usable.
func (s *Service) Start(ctx context.Context) models.SyncResult {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()

	s.setConnection(models.ConnectionSyncing, nil)

	fetchCtx, cancel := context.WithTimeout(ctx, s.startupTimeout)
	snap, err := s.client.FetchAll(fetchCtx)
	cancel()
	if err == nil {
		return s.applyRemote(ctx, snap)
	}

	s.logger.Warn("remote store unavailable at startup, working offline", zap.Error(err))
	result := s.loadFallback(ctx)
	result.Error = err
	s.setConnection(models.ConnectionOffline, err)
	return result
}

// Resync refetches everything from the remote store. A failure only flips the
// connection status; the in-memory collections are never cleared. While writes
// are still queued the fetch is skipped and the status reports it as deferred.
func (s *Service) Resync(ctx context.Context) (models.SyncResult, error) {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()

	// A fetch racing undelivered writes would briefly roll them back on screen.
	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err := s.outbox.Wait(waitCtx)
	cancel()
	if err != nil {
		s.logger.Info("resync deferred, writes still pending", zap.Int("pending", s.outbox.Pending()))
		s.state.SetDeferred(true)
		st := s.Status()
		s.notifier.BroadcastSyncStatus(st)
		return models.SyncResult{Source: st.Source, Deferred: true}, nil
	}

	s.state.SetDeferred(false)
	s.setConnection(models.ConnectionSyncing, nil)
	snap, err := s.client.FetchAll(ctx)
	if err != nil {
		s.logger.Warn("resync failed", zap.Error(err))
		s.setConnection(models.ConnectionOffline, err)
		st := s.state.Status()
		return models.SyncResult{Source: st.Source, Error: err}, err
	}
	return s.applyRemote(ctx, snap), nil
}

// applyRemote installs a successful fetch. An empty remote directory is never
// allowed to wipe a populated local one: the local contacts (or the seed, when
// there are none) are pushed up in one bulk write instead.
func (s *Service) applyRemote(ctx context.Context, snap *Snapshot) models.SyncResult {
	now := time.Now()
	result := models.SyncResult{Source: models.SourceRemote, SyncedAt: now}

	if len(snap.Contacts) == 0 {
		contacts := s.state.Contacts()
		source := s.state.Status().Source
		if len(contacts) == 0 {
			seed, err := s.loadSeed()
			if err != nil {
				s.logger.Error("loading seed directory", zap.Error(err))
			}
			contacts = seed
			source = models.SourceSeed
		}
		if len(contacts) > 0 {
			result.Bootstrapped = true
			result.Source = source
			s.pushBulk(contacts)
			s.logger.Info("remote directory empty, bootstrapping it",
				zap.String("source", string(source)), zap.Int("contacts", len(contacts)))
		}
		snap = &Snapshot{Contacts: contacts, TimeOff: snap.TimeOff, Procedures: snap.Procedures}
		s.state.Replace(snap, source)
	} else {
		s.state.Replace(snap, models.SourceRemote)
	}

	s.persistAll(ctx)
	s.setConnection(models.ConnectionOnline, nil)

	current := s.state.Snapshot()
	result.Contacts = len(current.Contacts)
	result.TimeOff = len(current.TimeOff)
	result.Procedures = len(current.Procedures)

	s.notifier.BroadcastCalendarChanged(s.state.Revision(), EntityAll, "")
	s.logger.Info("sync completed",
		zap.String("source", string(result.Source)),
		zap.Int("contacts", result.Contacts),
		zap.Int("time_off", result.TimeOff),
		zap.Int("procedures", result.Procedures),
	)
	return result
}

func (s *Service) loadFallback(ctx context.Context) models.SyncResult {
	result := models.SyncResult{SyncedAt: time.Now()}

	snap, ok, err := s.cache.LoadSnapshot(ctx)
	if err != nil {
		s.logger.Warn("reading cached snapshot", zap.Error(err))
	}
	if ok {
		s.state.Replace(snap, models.SourceCache)
		result.Source = models.SourceCache
	} else {
		seed, err := s.loadSeed()
		if err != nil {
			s.logger.Error("loading seed directory", zap.Error(err))
		}
		s.state.Replace(&Snapshot{Contacts: seed}, models.SourceSeed)
		result.Source = models.SourceSeed
	}

	current := s.state.Snapshot()
	result.Contacts = len(current.Contacts)
	result.TimeOff = len(current.TimeOff)
	result.Procedures = len(current.Procedures)
	s.logger.Info("loaded offline data", zap.String("source", string(result.Source)), zap.Int("contacts", result.Contacts))
	return result
}

func (s *Service) loadSeed() ([]models.Contact, error) {
	if s.seed == nil {
		return []models.Contact{}, nil
	}
	return s.seed()
}

// Status returns the sync state including the number of undelivered writes.
func (s *Service) Status() models.SyncStatus {
	st := s.state.Status()
	st.Pending = s.outbox.Pending()
	return st
}

func (s *Service) setConnection(status models.ConnectionStatus, err error) {
	s.state.SetConnection(status, err, time.Now())
	s.notifier.BroadcastSyncStatus(s.Status())
}

// Stop drains the outbox.
func (s *Service) Stop(ctx context.Context) {
	s.outbox.Stop(ctx)
}

// --- reads ---

// Contacts returns every contact.
func (s *Service) Contacts() []models.Contact {
	return s.state.Contacts()
}

// Contact returns one contact by ID.
func (s *Service) Contact(id string) (models.Contact, error) {
	c, ok := lo.Find(s.state.Contacts(), func(c models.Contact) bool { return c.ID == id })
	if !ok {
		return models.Contact{}, calendar.ErrNotFound
	}
	return c, nil
}

// TimeOff returns every absence.
func (s *Service) TimeOff() []models.TimeOffEvent {
	return s.state.TimeOff()
}

// Procedures returns every procedure.
func (s *Service) Procedures() []models.Procedure {
	return s.state.Procedures()
}

// Executives returns the sorted distinct executives of the directory.
func (s *Service) Executives() []string {
	return calendar.Executives(s.state.Contacts())
}

// Calendar renders a month, week or day view anchored at date. Views are memoised
// per state revision.
func (s *Service) Calendar(view calendar.ViewMode, filter calendar.ExecutiveFilter, date time.Time) (any, error) {
	if !view.Valid() {
		return nil, calendar.Invalid("view", "unknown view %q", view)
	}
	contacts, timeOff, revision := s.state.View()
	opts := s.engine.Options()

	// Views are keyed by their first day so every date in a period shares one entry.
	switch view {
	case calendar.ViewMonth:
		date = time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, time.UTC)
	case calendar.ViewWeek:
		start, err := models.ParseDate(calendar.WeekDays(date, opts.WeekStart)[0])
		if err != nil {
			return nil, err
		}
		date = start
	}
	anchor := models.FormatDate(date)

	compute := func() any {
		switch view {
		case calendar.ViewMonth:
			return s.engine.Month(contacts, timeOff, filter, date)
		case calendar.ViewWeek:
			return s.engine.Week(contacts, timeOff, filter, date)
		default:
			return s.engine.Day(contacts, timeOff, filter, date)
		}
	}
	if s.projections == nil {
		return compute(), nil
	}
	return s.projections.GetOrCompute(calendar.NewKey(revision, view, filter, anchor), compute), nil
}

// --- contacts ---

// CreateContact adds a contact to the directory. A missing ID is minted from the
// category prefix.
func (s *Service) CreateContact(ctx context.Context, c models.Contact) (models.Contact, error) {
	c.Normalize()
	if err := validateContact(c); err != nil {
		return models.Contact{}, err
	}
	if c.ID == "" {
		c.ID = c.Category.IDPrefix() + "-" + uuid.NewString()
	}

	rev, err := s.state.UpdateContacts(func(contacts []models.Contact) ([]models.Contact, error) {
		if lo.ContainsBy(contacts, func(existing models.Contact) bool { return existing.ID == c.ID }) {
			return nil, calendar.Invalid("id", "contact %s already exists", c.ID)
		}
		return append(append(make([]models.Contact, 0, len(contacts)+1), contacts...), c), nil
	})
	if err != nil {
		return models.Contact{}, err
	}

	s.commitContact(ctx, rev, c)
	return c, nil
}

// UpdateContact replaces a contact's directory fields. Its visits are kept as
// stored; they only change through the calendar operations.
func (s *Service) UpdateContact(ctx context.Context, id string, c models.Contact) (models.Contact, error) {
	c.ID = id
	c.Normalize()
	if err := validateContact(c); err != nil {
		return models.Contact{}, err
	}

	var updated models.Contact
	rev, err := s.state.UpdateContacts(func(contacts []models.Contact) ([]models.Contact, error) {
		idx := indexOfContact(contacts, id)
		if idx < 0 {
			return nil, calendar.ErrNotFound
		}
		updated = c.WithVisits(contacts[idx].Clone().Visits)
		next := append([]models.Contact(nil), contacts...)
		next[idx] = updated
		return next, nil
	})
	if err != nil {
		return models.Contact{}, err
	}

	s.commitContact(ctx, rev, updated)
	return updated, nil
}

// DeleteContact removes a contact and every visit it owns, appointments included.
func (s *Service) DeleteContact(ctx context.Context, id string) error {
	rev, err := s.state.UpdateContacts(func(contacts []models.Contact) ([]models.Contact, error) {
		idx := indexOfContact(contacts, id)
		if idx < 0 {
			return nil, calendar.ErrNotFound
		}
		next := make([]models.Contact, 0, len(contacts)-1)
		next = append(next, contacts[:idx]...)
		return append(next, contacts[idx+1:]...), nil
	})
	if err != nil {
		return err
	}

	s.outbox.Enqueue(Write{
		Entity: EntityContact, Op: "delete", ID: id,
		Send: func(ctx context.Context) error { return s.client.DeleteContact(ctx, id) },
	})
	s.persistContacts(ctx)
	s.notifier.BroadcastCalendarChanged(rev, EntityContact, id)
	return nil
}

// ClearCategory removes every contact of a category and returns how many went.
func (s *Service) ClearCategory(ctx context.Context, category models.Category) (int, error) {
	category = models.Category(strings.ToUpper(strings.TrimSpace(string(category))))
	if !category.Valid() {
		return 0, calendar.Invalid("category", "unknown category %q", category)
	}

	var removed int
	rev, err := s.state.UpdateContacts(func(contacts []models.Contact) ([]models.Contact, error) {
		next := lo.Reject(contacts, func(c models.Contact, _ int) bool { return c.Category == category })
		removed = len(contacts) - len(next)
		return next, nil
	})
	if err != nil {
		return 0, err
	}

	s.outbox.Enqueue(Write{
		Entity: EntityContact, Op: "clear", ID: string(category),
		Send: func(ctx context.Context) error { return s.client.ClearCategory(ctx, category) },
	})
	s.persistContacts(ctx)
	s.notifier.BroadcastCalendarChanged(rev, EntityContact, "")
	return removed, nil
}

// Import upserts a batch of contacts by ID and pushes them in a single bulk
// write. Importing the same batch twice leaves the directory unchanged.
func (s *Service) Import(ctx context.Context, batch []models.Contact) (int, error) {
	if len(batch) == 0 {
		return 0, calendar.Invalid("contacts", "no data provided")
	}

	cleaned := make([]models.Contact, 0, len(batch))
	for i, c := range batch {
		c.Normalize()
		if c.ID == "" {
			return 0, calendar.Invalid("id", "row %d has no id", i+1)
		}
		if err := validateContact(c); err != nil {
			return 0, fmt.Errorf("row %d: %w", i+1, err)
		}
		cleaned = append(cleaned, c)
	}
	cleaned = lo.UniqBy(cleaned, func(c models.Contact) string { return c.ID })

	// Rows replace directory fields only; visits already on record stay, so an
	// export re-imported cannot drop appointments.
	merged := make([]models.Contact, 0, len(cleaned))
	rev, err := s.state.UpdateContacts(func(contacts []models.Contact) ([]models.Contact, error) {
		merged = merged[:0]
		next := append([]models.Contact(nil), contacts...)
		for _, c := range cleaned {
			if idx := indexOfContact(next, c.ID); idx >= 0 {
				c = c.WithVisits(next[idx].Clone().Visits)
				next[idx] = c
			} else {
				next = append(next, c)
			}
			merged = append(merged, c)
		}
		return next, nil
	})
	if err != nil {
		return 0, err
	}

	s.pushBulk(merged)
	s.persistContacts(ctx)
	s.notifier.BroadcastCalendarChanged(rev, EntityContact, "")
	s.logger.Info("contacts imported", zap.Int("count", len(cleaned)))
	return len(cleaned), nil
}

func validateContact(c models.Contact) error {
	if c.Name == "" {
		return calendar.Invalid("name", "name is required")
	}
	if !c.Category.Valid() {
		return calendar.Invalid("category", "unknown category %q", c.Category)
	}
	if !c.Classification.Valid() {
		return calendar.Invalid("classification", "unknown classification %q", c.Classification)
	}
	for _, v := range c.Visits {
		if !models.ValidDate(v.Date) {
			return calendar.Invalid("visits", "visit %s has an invalid date %q", v.ID, v.Date)
		}
	}
	return nil
}

func indexOfContact(contacts []models.Contact, id string) int {
	_, idx, ok := lo.FindIndexOf(contacts, func(c models.Contact) bool { return c.ID == id })
	if !ok {
		return -1
	}
	return idx
}

// --- calendar ---

// Plan creates a visit, appointment or absence.
func (s *Service) Plan(ctx context.Context, req calendar.PlanRequest) (calendar.PlanResult, error) {
	var result calendar.PlanResult
	rev, err := s.state.UpdateSchedule(func(contacts []models.Contact, timeOff []models.TimeOffEvent) ([]models.Contact, []models.TimeOffEvent, error) {
		var contact *models.Contact
		idx := -1
		if req.ContactID != "" {
			idx = indexOfContact(contacts, req.ContactID)
			if idx < 0 {
				return nil, nil, calendar.ErrNotFound
			}
			contact = &contacts[idx]
		}

		res, err := s.engine.Plan(contact, req)
		if err != nil {
			return nil, nil, err
		}
		result = res

		if res.TimeOff != nil {
			return contacts, prependTimeOff(timeOff, *res.TimeOff), nil
		}
		next := append([]models.Contact(nil), contacts...)
		next[idx] = *res.Contact
		return next, timeOff, nil
	})
	if err != nil {
		return calendar.PlanResult{}, err
	}

	if result.TimeOff != nil {
		s.commitTimeOff(ctx, rev, *result.TimeOff)
	} else {
		s.commitContact(ctx, rev, *result.Contact)
	}
	return result, nil
}

// Report records the outcome of a visit.
func (s *Service) Report(ctx context.Context, contactID, visitID string, req calendar.ReportRequest) (models.Contact, error) {
	return s.updateContact(ctx, contactID, visitID, func(c models.Contact) (models.Contact, error) {
		return s.engine.Report(c, visitID, req)
	})
}

// DeleteVisit removes one visit from its contact.
func (s *Service) DeleteVisit(ctx context.Context, contactID, visitID string) (models.Contact, error) {
	return s.updateContact(ctx, contactID, visitID, func(c models.Contact) (models.Contact, error) {
		return s.engine.DeleteVisit(c, visitID)
	})
}

func (s *Service) updateContact(ctx context.Context, contactID, visitID string, fn func(models.Contact) (models.Contact, error)) (models.Contact, error) {
	var updated models.Contact
	rev, err := s.state.UpdateContacts(func(contacts []models.Contact) ([]models.Contact, error) {
		idx := indexOfContact(contacts, contactID)
		if idx < 0 {
			return nil, calendar.ErrNotFound
		}
		c, err := fn(contacts[idx])
		if err != nil {
			return nil, err
		}
		updated = c
		next := append([]models.Contact(nil), contacts...)
		next[idx] = c
		return next, nil
	})
	if err != nil {
		s.rejectIfLocked(err, string(calendar.KindVisit), visitID)
		return models.Contact{}, err
	}

	s.commitContact(ctx, rev, updated)
	return updated, nil
}

// BeginDrag checks that an event may be picked up.
func (s *Service) BeginDrag(ref calendar.EventRef) (calendar.Event, error) {
	contacts, timeOff, _ := s.state.View()
	ev, err := calendar.BeginDrag(contacts, timeOff, ref)
	s.rejectIfLocked(err, string(ref.Kind), ref.ID)
	return ev, err
}

// Drop moves an event to another day.
func (s *Service) Drop(ctx context.Context, ref calendar.EventRef, date string) (calendar.Change, error) {
	return s.applyChange(ctx, ref, func(contacts []models.Contact, timeOff []models.TimeOffEvent) (calendar.Change, error) {
		return s.engine.Drop(contacts, timeOff, ref, date)
	})
}

// Trash deletes an event once confirmed.
func (s *Service) Trash(ctx context.Context, ref calendar.EventRef, confirmed bool) (calendar.Change, error) {
	return s.applyChange(ctx, ref, func(contacts []models.Contact, timeOff []models.TimeOffEvent) (calendar.Change, error) {
		return s.engine.Trash(contacts, timeOff, ref, confirmed)
	})
}

func (s *Service) applyChange(ctx context.Context, ref calendar.EventRef, fn func([]models.Contact, []models.TimeOffEvent) (calendar.Change, error)) (calendar.Change, error) {
	var change calendar.Change
	rev, err := s.state.UpdateSchedule(func(contacts []models.Contact, timeOff []models.TimeOffEvent) ([]models.Contact, []models.TimeOffEvent, error) {
		ch, err := fn(contacts, timeOff)
		if err != nil {
			return nil, nil, err
		}
		change = ch

		switch {
		case ch.Contact != nil:
			next := append([]models.Contact(nil), contacts...)
			next[indexOfContact(next, ch.Contact.ID)] = *ch.Contact
			return next, timeOff, nil
		case ch.TimeOff != nil:
			return contacts, replaceTimeOff(timeOff, *ch.TimeOff), nil
		case ch.RemovedTimeOff != "":
			return contacts, removeTimeOff(timeOff, ch.RemovedTimeOff), nil
		}
		return contacts, timeOff, nil
	})
	if err != nil {
		s.rejectIfLocked(err, string(ref.Kind), ref.ID)
		return calendar.Change{}, err
	}

	switch {
	case change.Contact != nil:
		s.commitContact(ctx, rev, *change.Contact)
	case change.TimeOff != nil:
		s.commitTimeOff(ctx, rev, *change.TimeOff)
	case change.RemovedTimeOff != "":
		s.commitTimeOffDelete(ctx, rev, change.RemovedTimeOff)
	}
	return change, nil
}

func (s *Service) rejectIfLocked(err error, kind, id string) {
	if errors.Is(err, calendar.ErrLocked) {
		s.notifier.BroadcastEventRejected(kind, id, calendar.ErrLocked.Error())
	}
}

// --- time-off ---

// SaveTimeOff registers a new absence or replaces an existing one with the same ID.
func (s *Service) SaveTimeOff(ctx context.Context, t models.TimeOffEvent) (models.TimeOffEvent, error) {
	t, err := s.engine.RegisterTimeOff(t)
	if err != nil {
		return models.TimeOffEvent{}, err
	}

	rev, err := s.state.UpdateTimeOff(func(timeOff []models.TimeOffEvent) ([]models.TimeOffEvent, error) {
		return replaceTimeOff(timeOff, t), nil
	})
	if err != nil {
		return models.TimeOffEvent{}, err
	}

	s.commitTimeOff(ctx, rev, t)
	return t, nil
}

// DeleteTimeOff removes an absence.
func (s *Service) DeleteTimeOff(ctx context.Context, id string) error {
	rev, err := s.state.UpdateTimeOff(func(timeOff []models.TimeOffEvent) ([]models.TimeOffEvent, error) {
		if !lo.ContainsBy(timeOff, func(t models.TimeOffEvent) bool { return t.ID == id }) {
			return nil, calendar.ErrNotFound
		}
		return removeTimeOff(timeOff, id), nil
	})
	if err != nil {
		return err
	}

	s.commitTimeOffDelete(ctx, rev, id)
	return nil
}

func prependTimeOff(timeOff []models.TimeOffEvent, t models.TimeOffEvent) []models.TimeOffEvent {
	next := make([]models.TimeOffEvent, 0, len(timeOff)+1)
	next = append(next, t)
	return append(next, timeOff...)
}

// replaceTimeOff swaps the entry with t's ID, or prepends t when it is new.
func replaceTimeOff(timeOff []models.TimeOffEvent, t models.TimeOffEvent) []models.TimeOffEvent {
	_, idx, ok := lo.FindIndexOf(timeOff, func(existing models.TimeOffEvent) bool { return existing.ID == t.ID })
	if !ok {
		return prependTimeOff(timeOff, t)
	}
	next := append([]models.TimeOffEvent(nil), timeOff...)
	next[idx] = t
	return next
}

func removeTimeOff(timeOff []models.TimeOffEvent, id string) []models.TimeOffEvent {
	return lo.Reject(timeOff, func(t models.TimeOffEvent, _ int) bool { return t.ID == id })
}

// --- procedures ---

// SaveProcedure creates or replaces a procedure. The doctor name is filled from
// the directory when the caller left it empty and the contact still exists.
func (s *Service) SaveProcedure(ctx context.Context, p models.Procedure) (models.Procedure, error) {
	p.Hospital = strings.ToUpper(strings.TrimSpace(p.Hospital))
	p.ProcedureType = strings.ToUpper(strings.TrimSpace(p.ProcedureType))
	if p.Status == "" {
		p.Status = models.ProcedureScheduled
	}
	if err := validateProcedure(p); err != nil {
		return models.Procedure{}, err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.DoctorName == "" && p.DoctorID != "" {
		if c, err := s.Contact(p.DoctorID); err == nil {
			p.DoctorName = c.Name
		}
	}

	rev, err := s.state.UpdateProcedures(func(procedures []models.Procedure) ([]models.Procedure, error) {
		_, idx, ok := lo.FindIndexOf(procedures, func(existing models.Procedure) bool { return existing.ID == p.ID })
		if !ok {
			next := make([]models.Procedure, 0, len(procedures)+1)
			next = append(next, p)
			return append(next, procedures...), nil
		}
		next := append([]models.Procedure(nil), procedures...)
		next[idx] = p
		return next, nil
	})
	if err != nil {
		return models.Procedure{}, err
	}

	s.outbox.Enqueue(Write{
		Entity: EntityProcedure, Op: "upsert", ID: p.ID,
		Send: func(ctx context.Context) error { return s.client.UpsertProcedure(ctx, p) },
	})
	s.persistProcedures(ctx)
	s.notifier.BroadcastCalendarChanged(rev, EntityProcedure, p.ID)
	return p, nil
}

// DeleteProcedure removes a procedure.
func (s *Service) DeleteProcedure(ctx context.Context, id string) error {
	rev, err := s.state.UpdateProcedures(func(procedures []models.Procedure) ([]models.Procedure, error) {
		if !lo.ContainsBy(procedures, func(p models.Procedure) bool { return p.ID == id }) {
			return nil, calendar.ErrNotFound
		}
		return lo.Reject(procedures, func(p models.Procedure, _ int) bool { return p.ID == id }), nil
	})
	if err != nil {
		return err
	}

	s.outbox.Enqueue(Write{
		Entity: EntityProcedure, Op: "delete", ID: id,
		Send: func(ctx context.Context) error { return s.client.DeleteProcedure(ctx, id) },
	})
	s.persistProcedures(ctx)
	s.notifier.BroadcastCalendarChanged(rev, EntityProcedure, id)
	return nil
}

func validateProcedure(p models.Procedure) error {
	if !models.ValidDate(p.Date) {
		return calendar.Invalid("date", "expected YYYY-MM-DD, got %q", p.Date)
	}
	if p.Time != "" && !models.ValidTime(p.Time) {
		return calendar.Invalid("time", "expected HH:MM, got %q", p.Time)
	}
	if p.ProcedureType == "" {
		return calendar.Invalid("procedureType", "procedure type is required")
	}
	if !p.PaymentType.Valid() {
		return calendar.Invalid("paymentType", "unknown payment type %q", p.PaymentType)
	}
	if !p.Status.Valid() {
		return calendar.Invalid("status", "unknown status %q", p.Status)
	}
	if p.Cost < 0 || p.Commission < 0 {
		return calendar.Invalid("cost", "amounts must not be negative")
	}
	return nil
}

// --- session and preferences ---

// User returns the logged-in user, or nil.
func (s *Service) User(ctx context.Context) (*models.User, error) {
	return s.cache.LoadUser(ctx)
}

// Login stores the session user.
func (s *Service) Login(ctx context.Context, u models.User) error {
	u.Name = strings.TrimSpace(u.Name)
	if u.Name == "" {
		return calendar.Invalid("name", "name is required")
	}
	switch u.Role {
	case models.RoleAdmin, models.RoleExecutive:
	default:
		return calendar.Invalid("role", "unknown role %q", u.Role)
	}
	return s.cache.SaveUser(ctx, u)
}

// Logout forgets the session user. Snapshots and the sidebar flag stay, so the
// next offline start still has the cached directory.
func (s *Service) Logout(ctx context.Context) error {
	return s.cache.ClearUser(ctx)
}

// PurgeCache wipes every cached key, session and snapshots alike. The in-memory
// collections stay until the next sync.
func (s *Service) PurgeCache(ctx context.Context) error {
	if err := s.cache.Clear(ctx); err != nil {
		return err
	}
	s.logger.Info("offline cache purged")
	return nil
}

// SidebarCollapsed returns the stored UI preference.
func (s *Service) SidebarCollapsed(ctx context.Context) (bool, error) {
	return s.cache.SidebarCollapsed(ctx)
}

// SetSidebarCollapsed stores the UI preference.
func (s *Service) SetSidebarCollapsed(ctx context.Context, collapsed bool) error {
	return s.cache.SetSidebarCollapsed(ctx, collapsed)
}

// --- propagation ---

func (s *Service) commitContact(ctx context.Context, rev uint64, c models.Contact) {
	s.outbox.Enqueue(Write{
		Entity: EntityContact, Op: "upsert", ID: c.ID,
		Send: func(ctx context.Context) error { return s.client.UpsertContact(ctx, c) },
	})
	s.persistContacts(ctx)
	s.notifier.BroadcastCalendarChanged(rev, EntityContact, c.ID)
}

func (s *Service) commitTimeOff(ctx context.Context, rev uint64, t models.TimeOffEvent) {
	s.outbox.Enqueue(Write{
		Entity: EntityTimeOff, Op: "upsert", ID: t.ID,
		Send: func(ctx context.Context) error { return s.client.UpsertTimeOff(ctx, t) },
	})
	s.persistTimeOff(ctx)
	s.notifier.BroadcastCalendarChanged(rev, EntityTimeOff, t.ID)
}

func (s *Service) commitTimeOffDelete(ctx context.Context, rev uint64, id string) {
	s.outbox.Enqueue(Write{
		Entity: EntityTimeOff, Op: "delete", ID: id,
		Send: func(ctx context.Context) error { return s.client.DeleteTimeOff(ctx, id) },
	})
	s.persistTimeOff(ctx)
	s.notifier.BroadcastCalendarChanged(rev, EntityTimeOff, id)
}

func (s *Service) pushBulk(contacts []models.Contact) {
	batch := append([]models.Contact(nil), contacts...)
	s.outbox.Enqueue(Write{
		Entity: EntityContact, Op: "bulk", ID: fmt.Sprintf("%d contacts", len(batch)),
		Send: func(ctx context.Context) error { return s.client.BulkUpsertContacts(ctx, batch) },
	})
}

// The persist helpers snapshot whatever the state holds when they run, under a
// mutex, so the last save always carries the newest collection.

func (s *Service) persistAll(ctx context.Context) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if err := s.cache.SaveSnapshot(ctx, s.state.Snapshot()); err != nil {
		s.logger.Warn("saving cache snapshot", zap.Error(err))
	}
}

func (s *Service) persistContacts(ctx context.Context) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if err := s.cache.SaveContacts(ctx, s.state.Contacts()); err != nil {
		s.logger.Warn("saving cached contacts", zap.Error(err))
	}
}

func (s *Service) persistTimeOff(ctx context.Context) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if err := s.cache.SaveTimeOff(ctx, s.state.TimeOff()); err != nil {
		s.logger.Warn("saving cached time-off", zap.Error(err))
	}
}

func (s *Service) persistProcedures(ctx context.Context) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if err := s.cache.SaveProcedures(ctx, s.state.Procedures()); err != nil {
		s.logger.Warn("saving cached procedures", zap.Error(err))
	}
}

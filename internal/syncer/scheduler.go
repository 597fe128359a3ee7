package syncer

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Visibility reports whether any client currently has the application in view.
// Background resyncs are skipped while nobody is looking.
type Visibility interface {
	AnyVisible() bool
}

// Scheduler runs the periodic resync.
type Scheduler struct {
	cron       *cron.Cron
	service    *Service
	visibility Visibility
	interval   time.Duration
	timeout    time.Duration
	logger     *zap.Logger

	entry   cron.EntryID
	entryMu sync.RWMutex
	running sync.Mutex
}

// NewScheduler creates a resync scheduler. A nil visibility gate always runs.
func NewScheduler(service *Service, visibility Visibility, interval, timeout time.Duration, logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Scheduler{
		cron:       cron.New(),
		service:    service,
		visibility: visibility,
		interval:   interval,
		timeout:    timeout,
		logger:     logger.Named("scheduler"),
	}
}

// Start registers the resync job and starts the cron loop.
func (s *Scheduler) Start() error {
	spec := "@every " + s.interval.String()
	id, err := s.cron.AddFunc(spec, s.tick)
	if err != nil {
		return err
	}

	s.entryMu.Lock()
	s.entry = id
	s.entryMu.Unlock()

	s.cron.Start()
	s.logger.Info("resync scheduler started", zap.Duration("interval", s.interval))
	return nil
}

// Stop waits for a running job to finish and stops the loop.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("resync scheduler stopped")
}

// TriggerSync runs a resync now, in the background, regardless of visibility.
func (s *Scheduler) TriggerSync() {
	go s.resync()
}

// NextRun returns when the periodic resync fires next, or nil before Start.
func (s *Scheduler) NextRun() *time.Time {
	s.entryMu.RLock()
	defer s.entryMu.RUnlock()

	if s.entry == 0 {
		return nil
	}
	next := s.cron.Entry(s.entry).Next
	if next.IsZero() {
		return nil
	}
	return &next
}

func (s *Scheduler) tick() {
	if s.visibility != nil && !s.visibility.AnyVisible() {
		s.logger.Debug("skipping resync, no visible client")
		return
	}
	s.resync()
}

// resync skips when another run is still in flight.
func (s *Scheduler) resync() {
	if !s.running.TryLock() {
		s.logger.Debug("resync already running")
		return
	}
	defer s.running.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if _, err := s.service.Resync(ctx); err != nil {
		s.logger.Warn("scheduled resync failed", zap.Error(err))
	}
}

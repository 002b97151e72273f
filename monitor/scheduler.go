package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/gilsentrycs/monitor-flights/pkg/logger"
)

// Status describes the scheduler for the status server
type Status struct {
	Cron       string    `json:"cron"`
	NextRun    time.Time `json:"next_run"`
	Runs       int       `json:"runs"`
	Running    bool      `json:"running"`
	LastRunID  string    `json:"last_run_id,omitempty"`
	LastRunAt  time.Time `json:"last_run_at,omitempty"`
	LastStatus string    `json:"last_status,omitempty"`
	LastError  string    `json:"last_error,omitempty"`
	Skipped    int       `json:"skipped"` // firings skipped because another instance held the scan lock
}

// Locker serializes scans across monitor instances that share a quota. Renew
// reports false once the lock has expired and been taken by someone else.
type Locker interface {
	TryAcquire(ctx context.Context) (bool, error)
	Renew(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// Scheduler runs unattended scans on a cron schedule. A firing that overlaps a
// scan still in progress is skipped.
type Scheduler struct {
	service *Service
	spec    string
	cron    *cron.Cron
	log     *logger.Logger
	lock    Locker
	renew   time.Duration

	mu       sync.Mutex
	status   Status
	entryID  cron.EntryID
	stopping bool
	scans    sync.WaitGroup
}

// NewScheduler creates a scheduler for a standard five-field cron spec
func NewScheduler(service *Service, spec string, log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Default()
	}
	return &Scheduler{
		service: service,
		spec:    spec,
		log:     log,
		cron: cron.New(
			cron.WithLogger(log),
			cron.WithChain(cron.Recover(log), cron.SkipIfStillRunning(log)),
		),
		status: Status{Cron: spec},
	}
}

// WithLock makes every scan take l first and renew it every renewEvery while
// the scan runs. Without it scans are only guarded within this process.
func (s *Scheduler) WithLock(l Locker, renewEvery time.Duration) *Scheduler {
	s.lock = l
	s.renew = renewEvery
	return s
}

// Run schedules scans and blocks until ctx is cancelled. A scan in progress is
// interrupted between searches and waited for. With runNow a scan also starts
// immediately.
func (s *Scheduler) Run(ctx context.Context, runNow bool) error {
	id, err := s.cron.AddFunc(s.spec, func() { s.RunOnce(ctx) })
	if err != nil {
		return fmt.Errorf("invalid monitor schedule %q: %w", s.spec, err)
	}
	s.mu.Lock()
	s.entryID = id
	s.mu.Unlock()

	s.cron.Start()
	s.log.Info("monitor scheduled", "cron", s.spec, "next_run", s.Status().NextRun)

	if runNow {
		s.Trigger(ctx)
	}

	<-ctx.Done()
	s.log.Info("stopping monitor")
	s.mu.Lock()
	s.stopping = true
	s.mu.Unlock()
	<-s.cron.Stop().Done()
	s.scans.Wait()
	s.log.Info("monitor stopped")
	return nil
}

// Trigger starts a scan in the background. It returns false when a scan is
// already running or the scheduler is shutting down. Run waits for triggered
// scans before it returns.
func (s *Scheduler) Trigger(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopping || s.status.Running {
		return false
	}
	s.scans.Add(1)
	go func() {
		defer s.scans.Done()
		s.RunOnce(ctx)
	}()
	return true
}

// RunOnce executes one scan unless another is already running.
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.mu.Lock()
	if s.status.Running {
		s.mu.Unlock()
		s.log.Info("scan already running, skipping")
		return
	}
	s.status.Running = true
	s.mu.Unlock()

	if s.lock != nil {
		ok, err := s.lock.TryAcquire(ctx)
		if err != nil || !ok {
			s.mu.Lock()
			s.status.Running = false
			s.status.Skipped++
			s.mu.Unlock()
			if err != nil {
				s.log.Error(err, "scan lock unavailable, skipping")
			} else {
				s.log.Info("another instance is scanning, skipping")
			}
			return
		}
		stopRenew := s.keepLock(ctx)
		defer func() {
			stopRenew()
			// ctx may already be cancelled on shutdown
			relCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.lock.Release(relCtx); err != nil {
				s.log.Error(err, "failed to release scan lock")
			}
		}()
	}

	res, err := s.service.Execute(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.Running = false
	s.status.Runs++
	s.status.LastError = ""
	if res != nil && res.Run != nil {
		s.status.LastRunID = res.Run.RunID
		s.status.LastRunAt = res.Run.FinishedAt
		s.status.LastStatus = res.Run.Status()
	}
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		s.status.LastStatus = "interrupted"
	default:
		s.status.LastError = err.Error()
		s.log.Error(err, "scheduled scan failed")
	}
}

// keepLock renews the scan lock until the returned func is called
func (s *Scheduler) keepLock(ctx context.Context) func() {
	if s.renew <= 0 {
		return func() {}
	}
	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		ticker := time.NewTicker(s.renew)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				ok, err := s.lock.Renew(ctx)
				switch {
				case err != nil:
					s.log.Error(err, "failed to renew scan lock")
				case !ok:
					s.log.Warn("scan lock expired and was taken by another instance")
				}
			}
		}
	}()
	return func() {
		close(done)
		<-stopped
	}
}

// Status returns a snapshot of the scheduler state
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.status
	if s.entryID != 0 {
		st.NextRun = s.cron.Entry(s.entryID).Next
	}
	return st
}

package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"agrimap/server/internal/metrics"
)

// JobType represents the kinds of scheduled maintenance
type JobType int

const (
	JobTypeRollover JobType = iota
	JobTypePrune
)

// String returns the string representation of a JobType
func (j JobType) String() string {
	switch j {
	case JobTypeRollover:
		return "rollover"
	case JobTypePrune:
		return "prune"
	default:
		return "unknown"
	}
}

// Notifier is told when time-windowed views go stale
type Notifier interface {
	Notify()
}

// CachePurger is implemented by notifiers that hold expiring entries
type CachePurger interface {
	PurgeExpired() int
}

// Pruner removes reports older than a cutoff
type Pruner interface {
	DeleteReportsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Scheduler runs day rollover and retention jobs
type Scheduler struct {
	notifier      Notifier
	pruner        Pruner
	logger        *logrus.Logger
	metrics       *metrics.Metrics
	location      *time.Location
	retentionDays int
	stopChan      chan struct{}
	stopOnce      sync.Once
	wg            sync.WaitGroup
	jobMutex      sync.Mutex // Ensures sequential job execution
	now           func() time.Time
}

// NewScheduler creates a new scheduler. A retention of zero days disables pruning.
func NewScheduler(notifier Notifier, pruner Pruner, location *time.Location, retentionDays int, logger *logrus.Logger, m *metrics.Metrics) *Scheduler {
	if logger == nil {
		logger = logrus.New()
	}
	if location == nil {
		location = time.UTC
	}

	return &Scheduler{
		notifier:      notifier,
		pruner:        pruner,
		logger:        logger,
		metrics:       m,
		location:      location,
		retentionDays: retentionDays,
		stopChan:      make(chan struct{}),
		now:           time.Now,
	}
}

// Start begins the scheduled tasks
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.runScheduler()
}

// Run starts the scheduler and blocks until ctx is done
func (s *Scheduler) Run(ctx context.Context) error {
	s.Start()
	<-ctx.Done()
	s.Stop()
	return nil
}

// runScheduler handles all scheduled tasks
func (s *Scheduler) runScheduler() {
	defer s.wg.Done()

	s.logger.Info("Running startup retention job")
	s.runPrune()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case t := <-ticker.C:
			s.executeScheduledJobs(t)
		}
	}
}

// executeScheduledJobs runs all jobs that are scheduled for the given time
func (s *Scheduler) executeScheduledJobs(t time.Time) {
	s.jobMutex.Lock()
	defer s.jobMutex.Unlock()

	local := t.In(s.location)
	s.logger.WithFields(logrus.Fields{
		"hour":   local.Hour(),
		"minute": local.Minute(),
	}).Debug("Checking scheduled jobs")

	if purger, ok := s.notifier.(CachePurger); ok {
		if n := purger.PurgeExpired(); n > 0 {
			s.logger.WithField("entries", n).Debug("Purged expired snapshots")
		}
	}

	// The "today" window starts over at local midnight
	if local.Hour() == 0 && local.Minute() == 0 {
		s.logger.WithField("job_type", JobTypeRollover.String()).Info("Day rolled over, refreshing snapshots")
		s.notifier.Notify()
	}

	if local.Minute() == 0 {
		s.runPrune()
	}
}

// runPrune deletes reports that fell out of the retention window
func (s *Scheduler) runPrune() {
	if s.retentionDays <= 0 || s.pruner == nil {
		return
	}

	cutoff := s.now().AddDate(0, 0, -s.retentionDays)
	fields := logrus.Fields{
		"job_type": JobTypePrune.String(),
		"cutoff":   cutoff.UTC().Format(time.RFC3339),
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	removed, err := s.pruner.DeleteReportsBefore(ctx, cutoff)
	if err != nil {
		s.logger.WithError(err).WithFields(fields).Error("Retention job failed")
		return
	}

	s.metrics.ReportsPruned(removed)
	if removed > 0 {
		s.logger.WithFields(fields).WithField("removed", removed).Info("Pruned expired reports")
		s.notifier.Notify()
	}
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
	s.wg.Wait()
}

package services

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/chunkwise/internal/core/ports/driving"
	"github.com/custodia-labs/chunkwise/internal/logger"
)

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

// DefaultPassInterval is how often the scheduler runs a pipeline pass.
const DefaultPassInterval = 5 * time.Minute

// PassResult records the outcome of one scheduled pipeline pass.
type PassResult struct {
	StartedAt time.Time
	EndedAt   time.Time
	Embedded  int
	Err       error
}

// Scheduler runs pipeline passes in the background so chunks whose
// embedding failed are retried and the index catches up.
type Scheduler struct {
	ingest   driving.IngestService
	opts     driving.IngestOptions
	interval time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
	last    *PassResult
}

// NewScheduler creates a scheduler. A non-positive interval uses DefaultPassInterval.
func NewScheduler(ingest driving.IngestService, opts driving.IngestOptions, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultPassInterval
	}
	return &Scheduler{
		ingest:   ingest,
		opts:     opts,
		interval: interval,
	}
}

// Start runs a pass every interval. It blocks until Stop is called or ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
			s.wg.Wait()
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-ticker.C:
			s.runPass(ctx)
		}
	}
}

// Stop shuts down the scheduler and waits for a running pass to finish.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// LastResult returns the most recent pass, or nil before the first one.
func (s *Scheduler) LastResult() *PassResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return nil
	}
	r := *s.last
	return &r
}

// runPass executes one pass; overlapping passes are skipped.
func (s *Scheduler) runPass(ctx context.Context) {
	s.mu.Lock()
	if s.last != nil && s.last.EndedAt.IsZero() {
		s.mu.Unlock()
		logger.Debug("scheduler: previous pass still running, skipping")
		return
	}
	result := &PassResult{StartedAt: time.Now()}
	s.last = result
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()

		report, err := s.ingest.Run(ctx, s.opts)

		s.mu.Lock()
		defer s.mu.Unlock()
		result.EndedAt = time.Now()
		result.Err = err
		if report != nil {
			result.Embedded = report.Embedded
		}
		if err != nil {
			logger.Warn("scheduler: pipeline pass failed: %v", err)
			return
		}
		logger.Debug("scheduler: pipeline pass embedded %d chunks", result.Embedded)
	}()
}

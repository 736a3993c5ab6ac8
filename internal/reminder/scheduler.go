package reminder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/revlohq/revlo/internal/logging"
)

// Scheduler runs the all-owner reminder sweep on a fixed interval.
type Scheduler struct {
	service    *Service
	interval   time.Duration
	stopCh     chan struct{}
	wg         sync.WaitGroup
	running    bool
	mu         sync.Mutex
	lastRun    time.Time
	lastResult *SweepResult
	logger     zerolog.Logger
}

// NewScheduler creates a new reminder scheduler. Interval must be
// positive; callers disable scheduling by not starting it.
func NewScheduler(service *Service, interval time.Duration) *Scheduler {
	return &Scheduler{
		service:  service,
		interval: interval,
		stopCh:   make(chan struct{}),
		logger:   logging.NewLogger("reminder-scheduler"),
	}
}

// Start begins the periodic sweep loop
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already running")
	}
	if s.interval <= 0 {
		s.mu.Unlock()
		return fmt.Errorf("scheduler interval must be positive")
	}
	s.running = true
	s.mu.Unlock()

	s.wg.Add(1)
	go s.run(ctx)

	s.logger.Info().Dur("interval", s.interval).Msg("Reminder scheduler started")
	return nil
}

// Stop stops the sweep loop and waits for an in-flight run to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.stopCh)
	s.wg.Wait()
	s.logger.Info().Msg("Reminder scheduler stopped")
}

// IsRunning returns whether the scheduler is running
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Scheduler) sweep(ctx context.Context) {
	result, err := s.service.SweepAll(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Scheduled reminder sweep failed")
		return
	}

	s.mu.Lock()
	s.lastRun = time.Now()
	s.lastResult = result
	s.mu.Unlock()
}

// RunNow triggers an immediate all-owner sweep
func (s *Scheduler) RunNow(ctx context.Context) (*SweepResult, error) {
	result, err := s.service.SweepAll(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.lastRun = time.Now()
	s.lastResult = result
	s.mu.Unlock()

	return result, nil
}

// SchedulerStatus represents the current status of the scheduler
type SchedulerStatus struct {
	Running    bool         `json:"running"`
	Interval   string       `json:"interval"`
	LastRun    *time.Time   `json:"last_run,omitempty"`
	LastResult *SweepResult `json:"last_result,omitempty"`
}

// GetStatus returns the current status of the scheduler
func (s *Scheduler) GetStatus() *SchedulerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := &SchedulerStatus{
		Running:  s.running,
		Interval: s.interval.String(),
	}
	if !s.lastRun.IsZero() {
		lastRun := s.lastRun
		status.LastRun = &lastRun
	}
	if s.lastResult != nil {
		status.LastResult = s.lastResult
	}
	return status
}

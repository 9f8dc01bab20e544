package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bobby-s-dev/weather-plus/internal/models"
	"github.com/bobby-s-dev/weather-plus/internal/services"
	"go.uber.org/zap"
)

type State int

const (
	StateIdle State = iota
	StateFetching
	StateDistributing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateDistributing:
		return "distributing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Updater is the fetch and distribute pair driven by the Scheduler.
type Updater interface {
	Fetch(ctx context.Context) (*models.Snapshot, error)
	Distribute(snapshot *models.Snapshot) *services.DistributionResult
}

type Status struct {
	Running   bool      `json:"running"`
	State     string    `json:"state"`
	Interval  string    `json:"interval"`
	LastRun   time.Time `json:"last_run"`
	NextRun   time.Time `json:"next_run"`
	Runs      int       `json:"runs"`
	LastError string    `json:"last_error,omitempty"`
}

// Scheduler runs update cycles one at a time. The next cycle is armed
// interval after the previous one completed.
type Scheduler struct {
	updater  Updater
	logger   *zap.Logger
	interval time.Duration

	mu      sync.Mutex
	running bool
	state   State
	lastRun time.Time
	nextRun time.Time
	runs    int
	lastErr string
	trigger chan struct{}
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewScheduler(updater Updater, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		updater:  updater,
		logger:   logger,
		interval: interval,
	}
}

// Start launches the loop; the first cycle runs immediately.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.running = true
	s.cancel = cancel
	s.done = make(chan struct{})
	s.trigger = make(chan struct{}, 1)
	s.nextRun = time.Now()
	done, trigger := s.done, s.trigger
	s.mu.Unlock()

	s.logger.Info("Scheduler started", zap.Duration("interval", s.interval))

	go s.run(ctx, trigger, done)
}

func (s *Scheduler) run(ctx context.Context, trigger <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		case <-trigger:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}

		s.runCycle(ctx)

		if ctx.Err() != nil {
			return
		}
		timer.Reset(s.interval)

		s.mu.Lock()
		s.nextRun = time.Now().Add(s.interval)
		s.mu.Unlock()
	}
}

func (s *Scheduler) runCycle(ctx context.Context) {
	start := time.Now()
	s.setState(StateFetching)

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Update cycle panicked", zap.Any("panic", r))
			s.finish(start, fmt.Sprintf("panic: %v", r))
		}
	}()

	snapshot, err := s.updater.Fetch(ctx)
	if err != nil {
		s.logger.Warn("Scheduled weather fetch failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		s.finish(start, err.Error())
		return
	}

	s.setState(StateDistributing)
	result := s.updater.Distribute(snapshot)

	s.logger.Info("Scheduled weather update completed",
		zap.Int("written", result.Written),
		zap.Int("failed", result.Failed),
		zap.Duration("duration", time.Since(start)))
	s.finish(start, "")
}

func (s *Scheduler) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Scheduler) finish(start time.Time, lastErr string) {
	s.mu.Lock()
	s.state = StateIdle
	s.lastRun = start
	s.runs++
	s.lastErr = lastErr
	s.mu.Unlock()
}

// Stop cancels the loop and waits for it to exit. An in-flight fetch
// sees the cancelled context.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cancel()
	done := s.done
	s.mu.Unlock()

	s.logger.Info("Stopping scheduler")
	<-done
}

// ForceRun queues an immediate cycle. It returns false when the scheduler is
// not running. Repeated calls before the cycle starts are coalesced.
func (s *Scheduler) ForceRun() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return false
	}

	s.logger.Info("Manually triggering weather update")
	select {
	case s.trigger <- struct{}{}:
	default:
	}
	return true
}

func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Status{
		Running:   s.running,
		State:     s.state.String(),
		Interval:  s.interval.String(),
		LastRun:   s.lastRun,
		NextRun:   s.nextRun,
		Runs:      s.runs,
		LastError: s.lastErr,
	}
}

package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	// HistoryPeriod keeps the sample spacing under ten minutes.
	HistoryPeriod = 9*time.Minute + 50*time.Second
	// FirstSampleDelay gives the first update cycle time to populate values.
	FirstSampleDelay = 10 * time.Second
)

type Sampler interface {
	Sample(ctx context.Context) (bool, error)
}

type HistoryStatus struct {
	Running    bool      `json:"running"`
	Period     string    `json:"period"`
	LastSample time.Time `json:"last_sample"`
	NextSample time.Time `json:"next_sample"`
	Samples    int       `json:"samples"`
	LastError  string    `json:"last_error,omitempty"`
}

// HistoryScheduler samples the current conditions on a fixed cron period,
// independent of the update loop.
type HistoryScheduler struct {
	sampler    Sampler
	logger     *zap.Logger
	period     time.Duration
	firstDelay time.Duration

	mu         sync.Mutex
	running    bool
	cron       *cron.Cron
	entry      cron.EntryID
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	lastSample time.Time
	samples    int
	lastErr    string
}

func NewHistoryScheduler(sampler Sampler, period, firstDelay time.Duration, logger *zap.Logger) *HistoryScheduler {
	return &HistoryScheduler{
		sampler:    sampler,
		logger:     logger,
		period:     period,
		firstDelay: firstDelay,
	}
}

func (h *HistoryScheduler) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	cronLog := newCronLogger(h.logger)
	c := cron.New(
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)
	h.entry = c.Schedule(cron.Every(h.period), cron.FuncJob(func() { h.sample(ctx) }))
	c.Start()

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()

		timer := time.NewTimer(h.firstDelay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
		case <-timer.C:
			h.sample(ctx)
		}
	}()

	h.cron = c
	h.cancel = cancel
	h.running = true

	h.logger.Info("History scheduler started",
		zap.Duration("period", h.period),
		zap.Duration("first_sample", h.firstDelay))
}

func (h *HistoryScheduler) sample(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("History sample panicked", zap.Any("panic", r))
		}
	}()

	ok, err := h.sampler.Sample(ctx)

	h.mu.Lock()
	defer h.mu.Unlock()

	if err != nil {
		h.lastErr = err.Error()
		h.logger.Warn("History sample failed", zap.Error(err))
		return
	}
	h.lastErr = ""
	if ok {
		h.samples++
		h.lastSample = time.Now()
	}
}

// Stop halts the schedule and waits for a running sample to finish.
func (h *HistoryScheduler) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.cancel()
	stopped := h.cron.Stop()
	h.mu.Unlock()

	<-stopped.Done()
	h.wg.Wait()

	h.logger.Info("History scheduler stopped")
}

func (h *HistoryScheduler) Status() HistoryStatus {
	h.mu.Lock()
	defer h.mu.Unlock()

	status := HistoryStatus{
		Running:    h.running,
		Period:     h.period.String(),
		LastSample: h.lastSample,
		Samples:    h.samples,
		LastError:  h.lastErr,
	}
	if h.running {
		status.NextSample = h.cron.Entry(h.entry).Next
	}
	return status
}

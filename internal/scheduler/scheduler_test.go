package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bobby-s-dev/weather-plus/internal/models"
	"github.com/bobby-s-dev/weather-plus/internal/services"
	"github.com/fortytw2/leaktest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeUpdater struct {
	mu          sync.Mutex
	err         error
	block       chan struct{}
	fetches     int
	distributes int
	fetched     chan struct{}
}

func newFakeUpdater() *fakeUpdater {
	return &fakeUpdater{fetched: make(chan struct{}, 100)}
}

func (u *fakeUpdater) Fetch(ctx context.Context) (*models.Snapshot, error) {
	u.mu.Lock()
	u.fetches++
	err, block := u.err, u.block
	u.mu.Unlock()

	u.fetched <- struct{}{}

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return &models.Snapshot{}, nil
}

func (u *fakeUpdater) Distribute(snapshot *models.Snapshot) *services.DistributionResult {
	u.mu.Lock()
	u.distributes++
	u.mu.Unlock()
	return &services.DistributionResult{Written: 1}
}

func (u *fakeUpdater) counts() (int, int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.fetches, u.distributes
}

func waitFetch(t *testing.T, u *fakeUpdater) {
	t.Helper()
	select {
	case <-u.fetched:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for fetch")
	}
}

// Tests that the first cycle runs immediately and Stop ends the loop.
func TestSchedulerRunsImmediately(t *testing.T) {
	defer leaktest.Check(t)()

	u := newFakeUpdater()
	s := NewScheduler(u, time.Hour, zap.NewNop())
	s.Start()
	waitFetch(t, u)
	s.Stop()

	fetches, distributes := u.counts()
	assert.Equal(t, 1, fetches)
	assert.Equal(t, 1, distributes)

	status := s.Status()
	assert.False(t, status.Running)
	assert.Equal(t, "idle", status.State)
	assert.Equal(t, 1, status.Runs)
}

// Tests that a failed fetch skips distribution and the loop re-arms.
func TestSchedulerRearmsAfterFailure(t *testing.T) {
	defer leaktest.Check(t)()

	u := newFakeUpdater()
	u.err = errors.New("upstream down")
	s := NewScheduler(u, 10*time.Millisecond, zap.NewNop())
	s.Start()
	waitFetch(t, u)
	waitFetch(t, u)
	waitFetch(t, u)
	s.Stop()

	fetches, distributes := u.counts()
	assert.GreaterOrEqual(t, fetches, 3)
	assert.Equal(t, 0, distributes)
	assert.Equal(t, "upstream down", s.Status().LastError)
}

// Tests that ForceRun queues a cycle without waiting for the interval.
func TestSchedulerForceRun(t *testing.T) {
	defer leaktest.Check(t)()

	u := newFakeUpdater()
	s := NewScheduler(u, time.Hour, zap.NewNop())
	assert.False(t, s.ForceRun())

	s.Start()
	waitFetch(t, u)
	require.True(t, s.ForceRun())
	waitFetch(t, u)
	s.Stop()

	fetches, _ := u.counts()
	assert.Equal(t, 2, fetches)
}

// Tests that the state is visible while a fetch is in flight and that Stop
// cancels the fetch.
func TestSchedulerStatusWhileFetching(t *testing.T) {
	defer leaktest.Check(t)()

	u := newFakeUpdater()
	u.block = make(chan struct{})
	s := NewScheduler(u, time.Hour, zap.NewNop())
	s.Start()
	waitFetch(t, u)

	status := s.Status()
	assert.True(t, status.Running)
	assert.Equal(t, "fetching", status.State)

	s.Stop()
	_, distributes := u.counts()
	assert.Equal(t, 0, distributes)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "distributing", StateDistributing.String())
	assert.Equal(t, "state(9)", State(9).String())
}

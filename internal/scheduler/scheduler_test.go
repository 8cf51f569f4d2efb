package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"sempgateway/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource []models.Device

func (s staticSource) GetAll() []models.Device { return s }

type recordingSink struct {
	mu    sync.Mutex
	calls [][]models.StatusSnapshot
	err   error
}

func (r *recordingSink) StoreSnapshots(ctx context.Context, snapshots []models.StatusSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, snapshots)
	return r.err
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func devices() staticSource {
	return staticSource{
		{ID: "a", Status: models.DeviceStatus{Status: models.StatusOn}},
		{ID: "b", Status: models.DeviceStatus{Status: models.StatusOff}, PlanningWindows: []models.Timeframe{{LatestEnd: 5}}},
	}
}

func TestPublishStatus(t *testing.T) {
	sink := &recordingSink{}
	s := NewScheduler(devices(), sink, zerolog.Nop())
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return at }

	require.NoError(t, s.PublishStatus(context.Background()))
	require.Len(t, sink.calls, 1)

	snaps := sink.calls[0]
	require.Len(t, snaps, 2)
	assert.Equal(t, "a", snaps[0].DeviceID)
	assert.Equal(t, models.PlanningIdle, snaps[0].PlanningState)
	assert.Equal(t, models.PlanningRequested, snaps[1].PlanningState)
	assert.Equal(t, at, snaps[1].TakenAt)
}

func TestPublishStatusSinkError(t *testing.T) {
	sink := &recordingSink{err: errors.New("down")}
	err := NewScheduler(devices(), sink, zerolog.Nop()).PublishStatus(context.Background())
	assert.EqualError(t, err, "down")
}

func TestAddJobReplacesAndRemoves(t *testing.T) {
	s := NewScheduler(devices(), &recordingSink{}, zerolog.Nop())

	require.NoError(t, s.AddJob("x", "@every 1h", func() {}))
	require.NoError(t, s.AddJob("x", "@every 2h", func() {}))
	assert.Equal(t, 1, s.JobCount())
	assert.Len(t, s.cron.Entries(), 1)

	assert.Error(t, s.AddJob("bad", "every tuesday-ish", func() {}))
	assert.Equal(t, 1, s.JobCount())

	s.RemoveJob("x")
	assert.Equal(t, 0, s.JobCount())
	assert.Empty(t, s.cron.Entries())
}

func TestStatusJobRuns(t *testing.T) {
	sink := &recordingSink{}
	s := NewScheduler(devices(), sink, zerolog.Nop())
	require.NoError(t, s.AddStatusJob("@every 1s"))

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool { return sink.count() > 0 }, 3*time.Second, 50*time.Millisecond)
}

// Package scheduler runs the periodic jobs of the gateway.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"sempgateway/internal/models"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// DeviceSource lists the registered devices.
type DeviceSource interface {
	GetAll() []models.Device
}

// SnapshotSink receives the periodic status snapshots.
type SnapshotSink interface {
	StoreSnapshots(ctx context.Context, snapshots []models.StatusSnapshot) error
}

// Scheduler manages time-based jobs
type Scheduler struct {
	cron   *cron.Cron
	source DeviceSource
	sink   SnapshotSink
	logger zerolog.Logger
	now    func() time.Time

	jobMap    map[string]cron.EntryID
	jobMapMux sync.RWMutex
}

// NewScheduler creates a scheduler. Overlapping runs of a job are skipped.
func NewScheduler(source DeviceSource, sink SnapshotSink, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger{logger}))),
		source: source,
		sink:   sink,
		logger: logger,
		now:    time.Now,
		jobMap: make(map[string]cron.EntryID),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info().Int("jobs", s.JobCount()).Msg("cron scheduler started")
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info().Msg("cron scheduler stopped")
}

// AddJob registers fn under name, replacing an earlier job of that name.
func (s *Scheduler) AddJob(name, spec string, fn func()) error {
	s.jobMapMux.Lock()
	defer s.jobMapMux.Unlock()

	if old, ok := s.jobMap[name]; ok {
		s.cron.Remove(old)
		delete(s.jobMap, name)
	}
	id, err := s.cron.AddFunc(spec, fn)
	if err != nil {
		return fmt.Errorf("scheduling %s with %q: %w", name, spec, err)
	}
	s.jobMap[name] = id
	s.logger.Debug().Str("job", name).Str("spec", spec).Msg("job scheduled")
	return nil
}

// RemoveJob drops a job by name.
func (s *Scheduler) RemoveJob(name string) {
	s.jobMapMux.Lock()
	defer s.jobMapMux.Unlock()

	if id, ok := s.jobMap[name]; ok {
		s.cron.Remove(id)
		delete(s.jobMap, name)
	}
}

// JobCount returns the number of scheduled jobs
func (s *Scheduler) JobCount() int {
	s.jobMapMux.RLock()
	defer s.jobMapMux.RUnlock()
	return len(s.jobMap)
}

// AddStatusJob publishes status snapshots on the given cron schedule.
func (s *Scheduler) AddStatusJob(spec string) error {
	return s.AddJob("status-snapshot", spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.PublishStatus(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("status snapshot failed")
		}
	})
}

// PublishStatus snapshots every device and hands the batch to the sink.
func (s *Scheduler) PublishStatus(ctx context.Context) error {
	devices := s.source.GetAll()
	at := s.now()
	snapshots := make([]models.StatusSnapshot, 0, len(devices))
	for i := range devices {
		snapshots = append(snapshots, devices[i].Snapshot(at))
	}
	if err := s.sink.StoreSnapshots(ctx, snapshots); err != nil {
		return err
	}
	s.logger.Debug().Int("devices", len(snapshots)).Msg("status snapshot stored")
	return nil
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	l zerolog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug().Fields(keysAndValues).Msg(msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error().Err(err).Fields(keysAndValues).Msg(msg)
}

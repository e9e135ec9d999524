package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/loomworks/loomledger/internal/config"
	"github.com/loomworks/loomledger/internal/repository"
	"github.com/loomworks/loomledger/internal/service/reporting"
)

// Scheduler manages scheduled tasks. Its only job today is the end-of-day
// production snapshot.
type Scheduler struct {
	cron      *cron.Cron
	reporter  *reporting.Service
	snapshots repository.SnapshotStore
	cfg       config.SnapshotConfig
	logger    *zap.Logger
}

// NewScheduler creates a new scheduler instance. The cron runs in the
// configured timezone so "55 23 * * *" means five to midnight mill-local time.
func NewScheduler(cfg config.SnapshotConfig, reporter *reporting.Service, snapshots repository.SnapshotStore, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, err
	}

	return &Scheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		reporter:  reporter,
		snapshots: snapshots,
		cfg:       cfg,
		logger:    logger,
	}, nil
}

// Start registers the snapshot job and starts the cron loop.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler",
		zap.String("schedule", s.cfg.CronSchedule),
		zap.String("timezone", s.cfg.Timezone))

	if _, err := s.cron.AddFunc(s.cfg.CronSchedule, s.takeDailySnapshot); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	s.cron.Stop()
}

func (s *Scheduler) takeDailySnapshot() {
	s.logger.Info("taking daily production snapshot")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	snapshot, err := s.reporter.BuildDailySnapshot(ctx, time.Now())
	if err != nil {
		s.logger.Error("failed to build daily snapshot", zap.Error(err))
		return
	}

	if err := s.snapshots.Insert(ctx, snapshot); err != nil {
		s.logger.Error("failed to store daily snapshot", zap.Error(err))
		return
	}

	s.logger.Info("daily snapshot stored",
		zap.Float64("meters", snapshot.Total.Meters),
		zap.Float64("earnings", snapshot.Total.Earnings))
}

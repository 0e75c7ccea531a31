package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"artgallery/internal/config"
	"artgallery/internal/ledger"
)

const (
	backfillBatch = 200
	jobTimeout    = 5 * time.Minute
)

// Maintenance is the periodic work the api process runs.
type Maintenance interface {
	ReconcileCounters(ctx context.Context) ([]ledger.Drift, error)
	BackfillThumbnails(ctx context.Context, limit int) (int, error)
}

type Scheduler struct {
	cron *cron.Cron
	jobs Maintenance
	cfg  config.JobsConfig
	log  zerolog.Logger
}

func NewScheduler(jobs Maintenance, cfg config.JobsConfig, log zerolog.Logger) *Scheduler {
	c := cron.New(cron.WithSeconds())
	return &Scheduler{
		cron: c,
		jobs: jobs,
		cfg:  cfg,
		log:  log,
	}
}

// Start registers the configured jobs. An empty schedule disables its job.
func (s *Scheduler) Start() error {
	if s.jobs == nil {
		return nil
	}

	if s.cfg.ReconcileCron != "" {
		if _, err := s.cron.AddFunc(s.cfg.ReconcileCron, s.reconcile); err != nil {
			return err
		}
	}
	if s.cfg.BackfillCron != "" {
		if _, err := s.cron.AddFunc(s.cfg.BackfillCron, s.backfill); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.log.Info().Int("jobs", len(s.cron.Entries())).Msg("scheduler started")
	return nil
}

func (s *Scheduler) Stop() context.CancelFunc {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	go func() {
		select {
		case <-s.cron.Stop().Done():
		case <-ctx.Done():
		}
		cancel()
	}()
	return cancel
}

func (s *Scheduler) reconcile() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	drifts, err := s.jobs.ReconcileCounters(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("reconcile style counters failed")
		return
	}
	s.log.Info().Int("drifts", len(drifts)).Msg("style counters reconciled")
}

func (s *Scheduler) backfill() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	queued, err := s.jobs.BackfillThumbnails(ctx, backfillBatch)
	if err != nil {
		s.log.Error().Err(err).Int("queued", queued).Msg("thumbnail backfill failed")
		return
	}
	if queued > 0 {
		s.log.Info().Int("queued", queued).Msg("thumbnail backfill queued")
	}
}

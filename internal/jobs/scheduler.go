package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"userportal/api/internal/service"
)

// Scheduler refreshes the cached dashboard snapshot in the background so
// admin reads stay cheap.
type Scheduler struct {
	cron  *cron.Cron
	stats *service.StatsService
	log   zerolog.Logger
}

func NewScheduler(stats *service.StatsService, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:  cron.New(cron.WithSeconds()),
		stats: stats,
		log:   log,
	}
}

func (s *Scheduler) Start() error {
	if s.stats == nil {
		return nil
	}

	if _, err := s.cron.AddFunc("0 */5 * * * *", s.snapshotStats); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop halts the cron loop and waits for a running job to finish, up to a
// short grace period.
func (s *Scheduler) Stop() {
	done := s.cron.Stop().Done()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("scheduler stop timed out")
	}
}

func (s *Scheduler) snapshotStats() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.stats.Snapshot(ctx); err != nil {
		s.log.Error().Err(err).Msg("stats snapshot failed")
	}
}

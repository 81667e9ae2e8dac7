package services

import (
	"github.com/ecopanier/backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// Scheduler runs the recurring maintenance jobs: the midnight reset of the
// daily reservation counters and the audit log cleanup.
type Scheduler struct {
	cron    *cron.Cron
	counter *ReservationCounter
	logs    *SystemLogService
}

func NewScheduler(counter *ReservationCounter, logs *SystemLogService) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		counter: counter,
		logs:    logs,
	}
}

func (s *Scheduler) Start() {
	if _, err := s.cron.AddFunc("0 0 * * *", func() {
		s.counter.Reset()
		logger.Info().Msg("daily reservation counters reset")
	}); err != nil {
		logger.Errorf("failed to schedule quota reset: %v", err)
	}

	if _, err := s.cron.AddFunc("30 3 * * *", s.logs.RunCleanup); err != nil {
		logger.Errorf("failed to schedule log cleanup: %v", err)
	}

	s.cron.Start()
	logger.Info().Msg("maintenance scheduler started")
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

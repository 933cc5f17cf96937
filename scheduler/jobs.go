package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog/log"

	"github.com/KarlMeierMattern/stock-signals/services/scanner"
)

// Scheduler manages the daily scan job
type Scheduler struct {
	cron    *gocron.Scheduler
	scanner *scanner.Scanner
	scanAt  string
}

// NewScheduler creates a new scheduler instance. scanAt is an "HH:MM" time
// of day in UTC.
func NewScheduler(smaScanner *scanner.Scanner, scanAt string) *Scheduler {
	return &Scheduler{
		cron:    gocron.NewScheduler(time.UTC),
		scanner: smaScanner,
		scanAt:  scanAt,
	}
}

// Start starts the scheduled scan job
func (s *Scheduler) Start() {
	log.Info().Str("at", s.scanAt).Msg("Starting scheduler")

	// One scan per day; non-overlapping runs keep the rate-limit budget
	// and the one-alert-per-crossover guarantee intact.
	s.cron.Every(1).Day().At(s.scanAt).Do(func() {
		s.runScan()
	})

	s.cron.StartAsync()
	log.Info().Msg("Scheduler started")
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Info().Msg("Scheduler stopped")
}

// runScan executes one scheduled scan pass
func (s *Scheduler) runScan() {
	log.Info().Msg("Running scheduled SMA scan")

	results, err := s.scanner.Scan(context.Background())
	if err != nil {
		log.Error().Err(err).Msg("Scheduled scan failed")
		return
	}

	summary := scanner.Summarize(results)
	log.Info().
		Int("processed", summary.Processed).
		Int("alerted", summary.Alerted).
		Int("errors", summary.Errors).
		Msg("Scheduled scan completed")
}

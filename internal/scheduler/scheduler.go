package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"OISentinel/internal/model"
	"OISentinel/internal/notifier"
	"OISentinel/internal/scanner"
)

// Runner executes one scan.
type Runner interface {
	Run(ctx context.Context) (*scanner.Report, error)
}

// Scheduler runs scans on demand or on a cron schedule and reports failures
// to the private chat.
type Scheduler struct {
	Cron     *cron.Cron
	Runner   Runner
	Reporter notifier.Sink
	Ctx      context.Context

	logger zerolog.Logger
}

// NewScheduler creates a new Scheduler. A scheduled run is skipped while the
// previous one is still in progress.
func NewScheduler(ctx context.Context, runner Runner, reporter notifier.Sink) *Scheduler {
	logger := log.With().Str("component", "scheduler").Logger()
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(&logger))),
		),
		Runner:   runner,
		Reporter: reporter,
		Ctx:      ctx,
		logger:   logger,
	}
}

// Register schedules the scan with a six-field cron expression.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.scanTask); err != nil {
		return fmt.Errorf("register scan task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.logger.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running scan to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.logger.Info().Msg("scheduler stopped")
}

// RunOnce executes one scan. On failure the error is reported privately and
// returned.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	report, err := s.Runner.Run(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("scan failed")
		s.trySend(ctx, model.Alert{
			Kind:     model.AlertFailure,
			Audience: model.AudiencePrivate,
			Text:     notifier.FormatFailure(err),
		})
		return err
	}
	s.logger.Debug().Str("run_id", report.RunID).Msg(notifier.FormatWatchlist(report.Watchlist))
	return nil
}

func (s *Scheduler) scanTask() {
	_ = s.RunOnce(s.Ctx)
}

func (s *Scheduler) trySend(ctx context.Context, a model.Alert) {
	if err := s.Reporter.Notify(ctx, a.Audience, a.Text); err != nil {
		s.logger.Error().Err(err).Str("kind", string(a.Kind)).Msg("send notification")
	}
}

package scanner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"OISentinel/internal/collector"
	"OISentinel/internal/history"
	"OISentinel/internal/model"
	"OISentinel/internal/notifier"
	"OISentinel/internal/strategy"
)

// DeliveryError reports alerts that could not be delivered. The watchlist
// was still saved when it is returned.
type DeliveryError struct {
	Failed int
	Err    error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%d alert(s) not delivered: %v", e.Failed, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// flusher is implemented by sinks that deliver asynchronously.
type flusher interface {
	Flush() error
}

// Report summarizes one run.
type Report struct {
	RunID     string
	Pages     int // pages that carried data rows
	Rows      int
	Alerts    map[model.AlertKind]int
	Watchlist model.Watchlist
	Duration  time.Duration
}

// Scanner walks the table page by page, classifies every row and keeps the
// watchlist for the next run.
type Scanner struct {
	Fetcher    collector.TableFetcher
	Store      history.Store
	Sink       notifier.Sink
	Classifier *strategy.Classifier
	Titles     collector.Titles
	MaxPages   int // 0 means no limit
}

// New creates a Scanner.
func New(fetcher collector.TableFetcher, store history.Store, sink notifier.Sink, classifier *strategy.Classifier, titles collector.Titles, maxPages int) *Scanner {
	return &Scanner{
		Fetcher:    fetcher,
		Store:      store,
		Sink:       sink,
		Classifier: classifier,
		Titles:     titles,
		MaxPages:   maxPages,
	}
}

// run holds the state of one invocation.
type run struct {
	prior   model.Watchlist
	current model.Watchlist
	report  *Report
	failed  []error
	logger  zerolog.Logger
	started time.Time
}

// Run executes one full pass. Any fetch, layout or parse error aborts the
// run before the watchlist is written; alerts already sent stand.
func (s *Scanner) Run(ctx context.Context) (*Report, error) {
	r := &run{
		current: model.Watchlist{},
		report:  &Report{RunID: uuid.NewString(), Alerts: map[model.AlertKind]int{}},
		started: time.Now(),
	}
	r.logger = log.With().Str("component", "scanner").Str("run_id", r.report.RunID).Logger()

	prior, err := s.Store.Load(ctx)
	if err != nil {
		r.logger.Warn().Err(err).Msg("history load failed, starting with an empty watchlist")
		prior = model.Watchlist{}
	}
	r.prior = prior
	r.logger.Info().Int("tracked", len(prior)).Str("source", s.Fetcher.Name()).Msg("run started")

	if err := s.scan(ctx, r); err != nil {
		// queued alerts still go out before the caller reports the failure
		s.flush(r)
		return r.report, err
	}

	if err := s.Store.Save(ctx, r.current); err != nil {
		s.flush(r)
		return r.report, err
	}
	r.report.Watchlist = r.current
	s.flush(r)
	r.report.Duration = time.Since(r.started)

	r.logger.Info().
		Int("pages", r.report.Pages).
		Int("rows", r.report.Rows).
		Int("tracked", len(r.current)).
		Dur("duration", r.report.Duration).
		Msg("run complete")

	if len(r.failed) > 0 {
		return r.report, &DeliveryError{Failed: len(r.failed), Err: errors.Join(r.failed...)}
	}
	return r.report, nil
}

// scan fetches pages until the first empty one. With MaxPages set, page
// MaxPages+1 is still fetched and must be empty.
func (s *Scanner) scan(ctx context.Context, r *run) error {
	for page := 1; ; page++ {
		snap, err := s.Fetcher.FetchPage(ctx, page)
		if err != nil {
			return err
		}
		if snap.Empty() {
			r.logger.Debug().Int("page", page).Msg("empty page, pagination done")
			return nil
		}
		if s.MaxPages > 0 && page > s.MaxPages {
			return &collector.FetchError{Page: page, Err: fmt.Errorf("no empty page within %d pages", s.MaxPages)}
		}
		if err := s.processPage(ctx, r, snap); err != nil {
			return fmt.Errorf("page %d: %w", page, err)
		}
		r.report.Pages++
	}
}

func (s *Scanner) flush(r *run) {
	f, ok := s.Sink.(flusher)
	if !ok {
		return
	}
	if err := f.Flush(); err != nil {
		r.failed = append(r.failed, err)
	}
}

// processPage resolves the layout of snap and classifies each data row.
// Later rows and pages overwrite earlier watchlist entries of the same asset.
func (s *Scanner) processPage(ctx context.Context, r *run, snap *model.TableSnapshot) error {
	cols, err := collector.ResolveColumns(snap.Header, s.Titles)
	if err != nil {
		return err
	}

	for _, row := range snap.Rows {
		rec, err := collector.BuildRecord(row, cols)
		if err != nil {
			return err
		}
		r.report.Rows++

		res := s.Classifier.Classify(rec, r.prior.Entry(rec.ShortName))
		for _, a := range res.Alerts {
			r.report.Alerts[a.Kind]++
			r.logger.Info().Str("asset", rec.ShortName).Str("long_name", rec.LongName).
				Str("kind", string(a.Kind)).Msg("alert raised")
			if err := s.Sink.Notify(ctx, a.Audience, a.Text); err != nil {
				r.logger.Error().Err(err).Str("asset", rec.ShortName).Msg("alert delivery failed")
				r.failed = append(r.failed, err)
			}
		}
		if res.Next != nil {
			r.current[res.Next.Asset] = res.Next.LastValue
		}
	}
	return nil
}

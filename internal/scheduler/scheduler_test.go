package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"OISentinel/internal/collector"
	"OISentinel/internal/model"
	"OISentinel/internal/notifier"
	"OISentinel/internal/scanner"
)

type stubRunner struct {
	report *scanner.Report
	err    error
	calls  int
}

func (s *stubRunner) Run(_ context.Context) (*scanner.Report, error) {
	s.calls++
	return s.report, s.err
}

type message struct {
	audience model.Audience
	text     string
}

// recorder returns a sink that records every message and fails with err.
func recorder(err error) (*[]message, notifier.SinkFunc) {
	var (
		mu   sync.Mutex
		msgs []message
	)
	return &msgs, func(_ context.Context, audience model.Audience, text string) error {
		mu.Lock()
		defer mu.Unlock()
		msgs = append(msgs, message{audience, text})
		return err
	}
}

func TestRunOnce_Success(t *testing.T) {
	runner := &stubRunner{report: &scanner.Report{RunID: "r1", Watchlist: model.Watchlist{"ARB": 0.3}}}
	msgs, sink := recorder(nil)
	s := NewScheduler(context.Background(), runner, sink)

	require.NoError(t, s.RunOnce(context.Background()))
	assert.Equal(t, 1, runner.calls)
	assert.Empty(t, *msgs)
}

func TestRunOnce_ReportsFailurePrivately(t *testing.T) {
	cause := &collector.ColumnNotFoundError{Column: "Open Interest Change % 4H"}
	runner := &stubRunner{report: &scanner.Report{}, err: cause}
	msgs, sink := recorder(nil)
	s := NewScheduler(context.Background(), runner, sink)

	err := s.RunOnce(context.Background())
	require.Error(t, err)
	var cnf *collector.ColumnNotFoundError
	assert.True(t, errors.As(err, &cnf))

	require.Len(t, *msgs, 1)
	assert.Equal(t, model.AudiencePrivate, (*msgs)[0].audience)
	assert.Equal(t, "Oops, script raised following error:\nno Open Interest Change % 4H column", (*msgs)[0].text)
}

func TestRunOnce_ReportFailureDoesNotMaskError(t *testing.T) {
	cause := errors.New("boom")
	runner := &stubRunner{report: &scanner.Report{}, err: cause}
	_, sink := recorder(errors.New("telegram down"))
	s := NewScheduler(context.Background(), runner, sink)

	assert.ErrorIs(t, s.RunOnce(context.Background()), cause)
}

func TestRegister(t *testing.T) {
	_, sink := recorder(nil)
	s := NewScheduler(context.Background(), &stubRunner{}, sink)
	assert.NoError(t, s.Register("0 */15 * * * *"))
	assert.Error(t, s.Register("every now and then"))
	assert.Len(t, s.Cron.Entries(), 1)
}

func TestScanTask(t *testing.T) {
	runner := &stubRunner{report: &scanner.Report{}}
	_, sink := recorder(nil)
	s := NewScheduler(context.Background(), runner, sink)
	s.scanTask()
	assert.Equal(t, 1, runner.calls)
}

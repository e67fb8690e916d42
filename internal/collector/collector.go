package collector

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"OISentinel/internal/model"
	"OISentinel/internal/parser"
)

// MockFetcher serves fixed pages for development and testing. Pages beyond
// the configured ones come back empty.
type MockFetcher struct {
	Pages []*model.TableSnapshot
	Err   map[int]error

	mu    sync.Mutex
	calls []int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchPage(_ context.Context, page int) (*model.TableSnapshot, error) {
	m.mu.Lock()
	m.calls = append(m.calls, page)
	m.mu.Unlock()

	if err, ok := m.Err[page]; ok {
		return nil, &FetchError{Page: page, Err: err}
	}
	if page >= 1 && page <= len(m.Pages) && m.Pages[page-1] != nil {
		snap := *m.Pages[page-1]
		snap.Page = page
		return &snap, nil
	}
	return &model.TableSnapshot{Page: page}, nil
}

// Calls returns the pages requested so far, in order.
func (m *MockFetcher) Calls() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.calls...)
}

// BuildRecord extracts and parses the asset identity and both change values
// from a data row using columns resolved for the same snapshot.
func BuildRecord(row model.Row, cols Columns) (model.AssetChangeRecord, error) {
	coin, err := cell(row, cols.Coin)
	if err != nil {
		return model.AssetChangeRecord{}, err
	}
	longName, shortName := coinNames(coin)
	if shortName == "" {
		return model.AssetChangeRecord{}, &parser.ParseError{Raw: coin.Text, Reason: "missing coin name"}
	}

	raw24h, err := cell(row, cols.Change24h)
	if err != nil {
		return model.AssetChangeRecord{}, err
	}
	raw4h, err := cell(row, cols.Change4h)
	if err != nil {
		return model.AssetChangeRecord{}, err
	}

	rec := model.AssetChangeRecord{
		ShortName: shortName,
		LongName:  longName,
		Raw24h:    strings.TrimSpace(raw24h.Text),
		Raw4h:     strings.TrimSpace(raw4h.Text),
	}
	if rec.Change24h, err = parser.ParseChange(rec.Raw24h); err != nil {
		return model.AssetChangeRecord{}, fmt.Errorf("%s 24h: %w", shortName, err)
	}
	if rec.Change4h, err = parser.ParseChange(rec.Raw4h); err != nil {
		return model.AssetChangeRecord{}, fmt.Errorf("%s 4h: %w", shortName, err)
	}
	return rec, nil
}

func cell(row model.Row, idx int) (model.Cell, error) {
	if idx < 0 || idx >= len(row.Cells) {
		return model.Cell{}, &parser.ParseError{
			Raw:    fmt.Sprintf("row with %d cells", len(row.Cells)),
			Reason: fmt.Sprintf("no cell at column %d", idx),
		}
	}
	return row.Cells[idx], nil
}

// coinNames returns the long and short coin names. The coin cell nests them
// as two spans; a single span or bare text is used as both.
func coinNames(c model.Cell) (long, short string) {
	switch {
	case len(c.Parts) >= 2:
		return c.Parts[0], c.Parts[1]
	case len(c.Parts) == 1:
		return c.Parts[0], c.Parts[0]
	default:
		name := strings.TrimSpace(c.Text)
		return name, name
	}
}

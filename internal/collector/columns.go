package collector

import (
	"fmt"
	"strings"

	"OISentinel/internal/model"
)

// CoinColumnText is the visible header text of the asset identity column.
const CoinColumnText = "Coin"

// ColumnNotFoundError means the upstream table layout changed.
type ColumnNotFoundError struct {
	Column string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("no %s column", e.Column)
}

// ResolveByTitle returns the zero-based position of the first header cell
// holding a labelled element whose title equals title exactly.
func ResolveByTitle(header []model.HeaderCell, title string) (int, error) {
	for i, h := range header {
		if h.HasLabel(title) {
			return i, nil
		}
	}
	return -1, &ColumnNotFoundError{Column: title}
}

// ResolveCoinColumn returns the position of the header cell reading "Coin".
func ResolveCoinColumn(header []model.HeaderCell) (int, error) {
	for i, h := range header {
		if strings.TrimSpace(h.VisibleText) == CoinColumnText {
			return i, nil
		}
	}
	return -1, &ColumnNotFoundError{Column: CoinColumnText}
}

// Titles names the metric columns looked up on every page.
type Titles struct {
	Change24h string
	Change4h  string
}

// DefaultTitles are the accessible labels used by coinalyze.
var DefaultTitles = Titles{
	Change24h: "Open Interest Change % 24H",
	Change4h:  "Open Interest Change % 4H",
}

// Columns holds the resolved positions for one table snapshot.
type Columns struct {
	Coin      int
	Change24h int
	Change4h  int
}

// ResolveColumns resolves every column a row needs against one header.
func ResolveColumns(header []model.HeaderCell, titles Titles) (Columns, error) {
	var cols Columns
	var err error
	if cols.Change24h, err = ResolveByTitle(header, titles.Change24h); err != nil {
		return Columns{}, err
	}
	if cols.Change4h, err = ResolveByTitle(header, titles.Change4h); err != nil {
		return Columns{}, err
	}
	if cols.Coin, err = ResolveCoinColumn(header); err != nil {
		return Columns{}, err
	}
	return cols, nil
}

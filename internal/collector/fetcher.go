package collector

import (
	"context"
	"fmt"

	"OISentinel/internal/model"
)

// TableFetcher fetches one page of the open interest table. Pages are 1-based.
type TableFetcher interface {
	FetchPage(ctx context.Context, page int) (*model.TableSnapshot, error)
	Name() string
}

// FetchError reports a transport or upstream failure while retrieving a page.
type FetchError struct {
	Page int
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch page %d: %v", e.Page, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

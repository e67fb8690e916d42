package history

import (
	"context"
	"fmt"
	"time"

	"OISentinel/internal/model"
)

// Store persists the watchlist between runs. Load returns an empty watchlist
// when nothing was written today; Save replaces the whole mapping.
type Store interface {
	Load(ctx context.Context) (model.Watchlist, error)
	Save(ctx context.Context, w model.Watchlist) error
	Close() error
}

// StoreError wraps a read or write failure of a backend.
type StoreError struct {
	Op  string // "load" or "save"
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("history %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Clock returns the current time; stores use it to evaluate expiry.
type Clock func() time.Time

// Expired reports whether a mapping last written at updatedAt belongs to an
// earlier calendar day than now, in now's location.
func Expired(updatedAt, now time.Time) bool {
	if updatedAt.IsZero() {
		return true
	}
	u := updatedAt.In(now.Location())
	uy, um, ud := u.Date()
	ny, nm, nd := now.Date()
	return time.Date(uy, um, ud, 0, 0, 0, 0, time.UTC).Before(time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC))
}

// snapshot is the persisted form shared by the blob-style backends.
type snapshot struct {
	Entries   model.Watchlist `json:"entries"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (s *snapshot) watchlist(now time.Time) model.Watchlist {
	if s == nil || Expired(s.UpdatedAt, now) || s.Entries == nil {
		return model.Watchlist{}
	}
	return s.Entries.Clone()
}

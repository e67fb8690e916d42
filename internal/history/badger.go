package history

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/timshannon/badgerhold/v4"

	"OISentinel/internal/model"
)

// BadgerStore keeps the watchlist as a single record in a Badger database.
type BadgerStore struct {
	store *badgerhold.Store
	Key   string
	Now   Clock
}

// NewBadgerStore opens the Badger database in dir.
func NewBadgerStore(dir, key string) (*BadgerStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create badger dir: %w", err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = dir
	options.ValueDir = dir
	options.Logger = nil

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	log.Info().Str("component", "history").Str("path", dir).Msg("badger store opened")
	return &BadgerStore{store: store, Key: key, Now: time.Now}, nil
}

func (b *BadgerStore) Load(_ context.Context) (model.Watchlist, error) {
	var snap snapshot
	err := b.store.Get(b.Key, &snap)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return model.Watchlist{}, nil
	}
	if err != nil {
		return nil, &StoreError{Op: "load", Err: err}
	}
	return snap.watchlist(b.Now()), nil
}

func (b *BadgerStore) Save(_ context.Context, w model.Watchlist) error {
	if w == nil {
		w = model.Watchlist{}
	}
	snap := snapshot{Entries: w.Clone(), UpdatedAt: b.Now()}
	if err := b.store.Upsert(b.Key, &snap); err != nil {
		return &StoreError{Op: "save", Err: err}
	}
	return nil
}

func (b *BadgerStore) Close() error {
	if b.store != nil {
		return b.store.Close()
	}
	return nil
}

package history

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"OISentinel/internal/model"
)

// FileStore keeps the watchlist in a JSON file.
type FileStore struct {
	Path string
	Now  Clock
}

// NewFileStore creates a FileStore writing to path.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path, Now: time.Now}
}

// Load reads the watchlist. A missing file is a cold start.
func (f *FileStore) Load(_ context.Context) (model.Watchlist, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.Watchlist{}, nil
		}
		return nil, &StoreError{Op: "load", Err: err}
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, &StoreError{Op: "load", Err: err}
	}
	return snap.watchlist(f.Now()), nil
}

// Save writes the watchlist through a temp file and rename so a reader never
// sees a partial mapping.
func (f *FileStore) Save(_ context.Context, w model.Watchlist) error {
	if w == nil {
		w = model.Watchlist{}
	}
	data, err := json.MarshalIndent(snapshot{Entries: w, UpdatedAt: f.Now()}, "", "  ")
	if err != nil {
		return &StoreError{Op: "save", Err: err}
	}
	if err := os.MkdirAll(filepath.Dir(f.Path), 0755); err != nil {
		return &StoreError{Op: "save", Err: err}
	}
	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return &StoreError{Op: "save", Err: err}
	}
	if err := os.Rename(tmp, f.Path); err != nil {
		return &StoreError{Op: "save", Err: err}
	}
	return nil
}

func (f *FileStore) Close() error { return nil }

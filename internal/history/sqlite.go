package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"OISentinel/internal/model"
)

// SQLiteStore keeps the watchlist in a SQLite database, one row per asset
// plus a single metadata row holding the write time.
type SQLiteStore struct {
	db  *sql.DB
	Now Clock
}

// NewSQLiteStore opens (or creates) the SQLite database and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db, Now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("component", "history").Str("path", dbPath).Msg("sqlite store opened")
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS watchlist (
			asset TEXT PRIMARY KEY,
			value REAL NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS watchlist_meta (
			id         INTEGER PRIMARY KEY CHECK (id = 1),
			updated_at INTEGER NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context) (model.Watchlist, error) {
	var updated int64
	err := s.db.QueryRowContext(ctx, `SELECT updated_at FROM watchlist_meta WHERE id = 1`).Scan(&updated)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Watchlist{}, nil
	}
	if err != nil {
		return nil, &StoreError{Op: "load", Err: err}
	}
	if Expired(time.Unix(updated, 0), s.Now()) {
		return model.Watchlist{}, nil
	}

	rows, err := s.db.QueryContext(ctx, `SELECT asset, value FROM watchlist`)
	if err != nil {
		return nil, &StoreError{Op: "load", Err: err}
	}
	defer rows.Close()

	w := model.Watchlist{}
	for rows.Next() {
		var asset string
		var value float64
		if err := rows.Scan(&asset, &value); err != nil {
			return nil, &StoreError{Op: "load", Err: err}
		}
		w[asset] = value
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: "load", Err: err}
	}
	return w, nil
}

// Save replaces all rows in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, w model.Watchlist) error {
	if err := s.save(ctx, w); err != nil {
		return &StoreError{Op: "save", Err: err}
	}
	return nil
}

func (s *SQLiteStore) save(ctx context.Context, w model.Watchlist) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM watchlist`); err != nil {
		return err
	}
	for asset, value := range w {
		if _, err := tx.ExecContext(ctx, `INSERT INTO watchlist (asset, value) VALUES (?, ?)`, asset, value); err != nil {
			return fmt.Errorf("insert %s: %w", asset, err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO watchlist_meta (id, updated_at) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET updated_at = excluded.updated_at`,
		s.Now().Unix()); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) Close() error {
	log.Info().Str("component", "history").Msg("closing sqlite store")
	return s.db.Close()
}

// Package postgres provides the pgx-backed implementation of the sync
// engine's storage operations.
//
// Schema assumptions:
//
//	CREATE TABLE comics (
//	    id                    INTEGER PRIMARY KEY,
//	    title                 TEXT NOT NULL DEFAULT '',
//	    image_kind            SMALLINT NOT NULL DEFAULT 0,
//	    publish_date          TIMESTAMPTZ,
//	    publish_date_accurate BOOLEAN NOT NULL DEFAULT FALSE
//	);
//
//	CREATE TABLE news (
//	    comic_id      INTEGER PRIMARY KEY REFERENCES comics (id),
//	    news          TEXT NOT NULL DEFAULT '',
//	    update_factor DOUBLE PRECISION NOT NULL DEFAULT 1.0,
//	    last_updated  DATE NOT NULL,
//	    is_locked     BOOLEAN NOT NULL DEFAULT FALSE
//	);
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lunarforge/comicsync/internal/updater"
)

// Config controls the Postgres connection pool.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// PoolIface is the slice of pgxpool.Pool the store needs. pgxmock satisfies
// it, which is how the store and both jobs are tested without a database.
type PoolIface interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// SyncStore implements updater.SyncStore on a Postgres pool.
type SyncStore struct {
	pool PoolIface
}

// New connects a SyncStore using the provided config and verifies the
// connection with a ping.
func New(ctx context.Context, cfg Config) (*SyncStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &SyncStore{pool: pool}, nil
}

// NewWithPool constructs a store from an existing pool (primarily for
// testing).
func NewWithPool(pool PoolIface) (*SyncStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &SyncStore{pool: pool}, nil
}

// Close releases the underlying pool resources.
func (s *SyncStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Begin opens a transaction scoped to one job iteration or batch.
func (s *SyncStore) Begin(ctx context.Context) (updater.SyncTx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &syncTx{tx: tx}, nil
}

type syncTx struct {
	tx pgx.Tx
}

func (t *syncTx) ComicExists(ctx context.Context, id updater.ComicID) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM comics WHERE id = $1)`, int(id),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query comic existence: %w", err)
	}
	return exists, nil
}

func (t *syncTx) ComicNeedsUpdate(ctx context.Context, id updater.ComicID) (updater.ComicNeeds, error) {
	var (
		title       string
		imageKind   int16
		publishDate *time.Time
	)
	err := t.tx.QueryRow(ctx,
		`SELECT title, image_kind, publish_date FROM comics WHERE id = $1`, int(id),
	).Scan(&title, &imageKind, &publishDate)
	if errors.Is(err, pgx.ErrNoRows) {
		// No row at all: the comic needs everything.
		return updater.ComicNeeds{Title: true, ImageKind: true}, nil
	}
	if err != nil {
		return updater.ComicNeeds{}, fmt.Errorf("query comic needs: %w", err)
	}
	return updater.ComicNeeds{
		Title:       title == "",
		ImageKind:   imageKind == 0,
		PublishDate: publishDate,
	}, nil
}

func (t *syncTx) UpsertComicTitleImageDate(
	ctx context.Context,
	id updater.ComicID,
	title string,
	kind updater.ImageKind,
	date time.Time,
) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO comics (id, title, image_kind, publish_date, publish_date_accurate)
		VALUES ($1, $2, $3, $4, FALSE)
		ON CONFLICT (id) DO UPDATE
		SET title = EXCLUDED.title,
		    image_kind = EXCLUDED.image_kind,
		    publish_date = EXCLUDED.publish_date`,
		int(id), title, int16(kind), date,
	)
	if err != nil {
		return fmt.Errorf("upsert comic: %w", err)
	}
	return nil
}

func (t *syncTx) UpdateComicImageDate(
	ctx context.Context,
	id updater.ComicID,
	kind updater.ImageKind,
	date time.Time,
) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE comics SET image_kind = $2, publish_date = $3 WHERE id = $1`,
		int(id), int16(kind), date,
	)
	if err != nil {
		return fmt.Errorf("update comic image kind: %w", err)
	}
	return nil
}

func (t *syncTx) UpdateComicPublishDate(
	ctx context.Context,
	id updater.ComicID,
	date time.Time,
	accurate bool,
) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE comics SET publish_date = $2, publish_date_accurate = $3 WHERE id = $1`,
		int(id), date, accurate,
	)
	if err != nil {
		return fmt.Errorf("update comic publish date: %w", err)
	}
	return nil
}

func (t *syncTx) GetNews(ctx context.Context, id updater.ComicID) (*updater.NewsRecord, error) {
	var (
		record  updater.NewsRecord
		comicID int
	)
	err := t.tx.QueryRow(ctx,
		`SELECT comic_id, news, update_factor, last_updated, is_locked
		 FROM news WHERE comic_id = $1`, int(id),
	).Scan(&comicID, &record.News, &record.UpdateFactor, &record.LastUpdated, &record.IsLocked)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query news: %w", err)
	}
	record.ComicID = updater.ComicID(comicID)
	return &record, nil
}

func (t *syncTx) InsertNews(
	ctx context.Context,
	id updater.ComicID,
	text string,
	factor float64,
	date time.Time,
) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO news (comic_id, news, update_factor, last_updated) VALUES ($1, $2, $3, $4)`,
		int(id), text, factor, date,
	)
	if err != nil {
		return fmt.Errorf("insert news: %w", err)
	}
	return nil
}

func (t *syncTx) UpdateNewsText(
	ctx context.Context,
	id updater.ComicID,
	text string,
	factor float64,
	date time.Time,
) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE news SET news = $2, update_factor = $3, last_updated = $4 WHERE comic_id = $1`,
		int(id), text, factor, date,
	)
	if err != nil {
		return fmt.Errorf("update news text: %w", err)
	}
	return nil
}

func (t *syncTx) UpdateNewsTimestamp(
	ctx context.Context,
	id updater.ComicID,
	factor float64,
	date time.Time,
) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE news SET update_factor = $2, last_updated = $3 WHERE comic_id = $1`,
		int(id), factor, date,
	)
	if err != nil {
		return fmt.Errorf("update news timestamp: %w", err)
	}
	return nil
}

func (t *syncTx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (t *syncTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("rollback transaction: %w", err)
	}
	return nil
}

package updater

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lunarforge/comicsync/internal/metrics"
)

// NewsUpdateJob drains the pending set on a fixed cadence and re-scrapes the
// news blurb for every comic whose record is due. The whole batch shares one
// transaction: a storage failure rolls everything back and leaves the ids
// pending, while a per-comic scrape failure only skips that comic.
type NewsUpdateJob struct {
	store     SyncStore
	scraper   *Scraper
	pending   *PendingSet
	clock     Clock
	publisher Publisher
	topic     string
	interval  time.Duration
	logger    *zap.Logger
}

// NewNewsUpdateJob wires a news update job with the given drain interval.
func NewNewsUpdateJob(
	store SyncStore,
	scraper *Scraper,
	pending *PendingSet,
	clock Clock,
	publisher Publisher,
	topic string,
	interval time.Duration,
	logger *zap.Logger,
) *NewsUpdateJob {
	return &NewsUpdateJob{
		store:     store,
		scraper:   scraper,
		pending:   pending,
		clock:     clock,
		publisher: publisher,
		topic:     topic,
		interval:  interval,
		logger:    logger,
	}
}

// Name identifies the job in supervisor logs.
func (j *NewsUpdateJob) Name() string { return "news-updater" }

// Step runs one full iteration: snapshot the pending ids, process them in one
// transaction, clear the processed ids, then sleep the fixed interval. On a
// storage error the snapshot stays pending for the next attempt.
func (j *NewsUpdateJob) Step(ctx context.Context) error {
	ids := j.pending.Snapshot()
	j.logger.Debug("pending news updates", zap.Int("count", len(ids)))

	if len(ids) > 0 {
		j.logger.Info("running background news update", zap.Int("count", len(ids)))
		if err := j.processBatch(ctx, ids); err != nil {
			return err
		}
		j.pending.Remove(ids...)
	}

	return sleepCtx(ctx, j.interval)
}

func (j *NewsUpdateJob) processBatch(ctx context.Context, ids []ComicID) error {
	today := DateOnly(j.clock.Now().UTC())

	tx, err := j.store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, id := range ids {
		if err := j.processComic(ctx, tx, id, today); err != nil {
			return err
		}
	}

	j.logger.Info("saving news changes")
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit news batch: %w", err)
	}
	return nil
}

// processComic handles one pending id inside the batch transaction. Only
// storage errors are returned; a scrape failure is logged and swallowed so
// the rest of the batch still commits.
func (j *NewsUpdateJob) processComic(ctx context.Context, tx SyncTx, id ComicID, today time.Time) error {
	exists, err := tx.ComicExists(ctx, id)
	if err != nil {
		return fmt.Errorf("check comic %d exists: %w", id, err)
	}
	if !exists {
		j.logger.Info("comic data does not exist yet, skipping news update",
			zap.Int("comic_id", int(id)))
		metrics.RecordNewsItem("skipped")
		return nil
	}

	record, err := tx.GetNews(ctx, id)
	if err != nil {
		return fmt.Errorf("load news for comic %d: %w", id, err)
	}
	if record != nil && !record.IsOutdated(today) {
		j.logger.Debug("news is not outdated", zap.Int("comic_id", int(id)))
		metrics.RecordNewsItem("fresh")
		return nil
	}

	j.logger.Info("fetching news", zap.Int("comic_id", int(id)))
	text, err := j.scraper.News(ctx, id)
	if err != nil {
		// Dropped without a retry; the comic's next page view re-schedules it.
		j.logger.Warn("news scrape failed", zap.Int("comic_id", int(id)), zap.Error(err))
		metrics.RecordNewsItem("failed")
		return nil
	}

	switch {
	case record == nil:
		j.logger.Info("creating news record", zap.Int("comic_id", int(id)))
		if err := tx.InsertNews(ctx, id, text, initialFactor, today); err != nil {
			return fmt.Errorf("insert news for comic %d: %w", id, err)
		}
		metrics.RecordNewsItem("created")
	case record.News == text:
		j.logger.Info("news text unchanged, increasing update factor",
			zap.Int("comic_id", int(id)),
			zap.Float64("update_factor", record.UpdateFactor+factorStep))
		if err := tx.UpdateNewsTimestamp(ctx, id, record.UpdateFactor+factorStep, today); err != nil {
			return fmt.Errorf("bump news factor for comic %d: %w", id, err)
		}
		metrics.RecordNewsItem("unchanged")
	default:
		j.logger.Info("news text changed, resetting update factor",
			zap.Int("comic_id", int(id)))
		if err := tx.UpdateNewsText(ctx, id, text, initialFactor, today); err != nil {
			return fmt.Errorf("update news for comic %d: %w", id, err)
		}
		metrics.RecordNewsItem("updated")
		j.publishUpdated(ctx, id)
	}
	return nil
}

func (j *NewsUpdateJob) publishUpdated(ctx context.Context, id ComicID) {
	if j.publisher == nil {
		return
	}
	payload := map[string]any{
		"event":     "news.updated",
		"event_id":  uuid.NewString(),
		"comic_id":  int(id),
		"timestamp": j.clock.Now().UTC().Format(time.RFC3339),
	}
	if _, err := j.publisher.Publish(ctx, j.topic, payload); err != nil {
		j.logger.Warn("publish news.updated event failed",
			zap.Int("comic_id", int(id)), zap.Error(err))
	}
}

package updater

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lunarforge/comicsync/internal/metrics"
)

// ComicUpdateJob detects a newly published comic on the front page and
// captures its metadata. It is the sole writer of comic titles and image
// kinds, and it is idempotent: repeated iterations against an unchanged front
// page settle into a read-only steady state.
type ComicUpdateJob struct {
	store     SyncStore
	scraper   *Scraper
	pending   *PendingSet
	clock     Clock
	publisher Publisher
	topic     string
	location  *time.Location
	logger    *zap.Logger
}

// NewComicUpdateJob wires a comic update job. The location sets the calendar
// the polling schedule follows; pass the site's local timezone.
func NewComicUpdateJob(
	store SyncStore,
	scraper *Scraper,
	pending *PendingSet,
	clock Clock,
	publisher Publisher,
	topic string,
	location *time.Location,
	logger *zap.Logger,
) *ComicUpdateJob {
	if location == nil {
		location = time.UTC
	}
	return &ComicUpdateJob{
		store:     store,
		scraper:   scraper,
		pending:   pending,
		clock:     clock,
		publisher: publisher,
		topic:     topic,
		location:  location,
		logger:    logger,
	}
}

// Name identifies the job in supervisor logs.
func (j *ComicUpdateJob) Name() string { return "comic-updater" }

// Step runs one full iteration: sync the comic currently on the front page,
// schedule a news refresh for it, then sleep until the next calendar slot.
// Any fetch, parse, or storage error aborts the iteration with nothing
// committed and surfaces to the supervisor.
func (j *ComicUpdateJob) Step(ctx context.Context) error {
	now := j.clock.Now().In(j.location)
	j.logger.Info("checking for the comic of the day",
		zap.String("day", now.Format("Monday, 02 January 2006")))

	id, err := j.syncLatestComic(ctx, now)
	if err != nil {
		metrics.RecordComicRun("error")
		return err
	}
	metrics.RecordComicRun("ok")

	j.pending.Schedule(id)
	j.publishSeen(ctx, id, now)

	delay := TimeUntilNextUpdate(now)
	j.logger.Info("waiting until next front page check",
		zap.Duration("delay", delay.Round(time.Second)))
	return sleepCtx(ctx, delay)
}

func (j *ComicUpdateJob) syncLatestComic(ctx context.Context, now time.Time) (ComicID, error) {
	fp, err := j.scraper.FrontPage(ctx)
	if err != nil {
		return 0, err
	}
	j.logger.Info("comic on front page",
		zap.Int("comic_id", int(fp.ComicID)),
		zap.Stringer("image_kind", fp.ImageKind))

	tx, err := j.store.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	needs, err := tx.ComicNeedsUpdate(ctx, fp.ComicID)
	if err != nil {
		return 0, fmt.Errorf("query comic needs: %w", err)
	}
	j.logger.Info("comic record needs",
		zap.Int("comic_id", int(fp.ComicID)),
		zap.Bool("title", needs.Title),
		zap.Bool("image_kind", needs.ImageKind))

	publishDate := now
	if needs.PublishDate != nil {
		publishDate = *needs.PublishDate
	}

	switch {
	case needs.Title:
		// The only path that ever sets a title. The archive fetch happens
		// inside the transaction so a failure leaves nothing half-written.
		title, err := j.scraper.ComicTitle(ctx, fp.ComicID)
		if err != nil {
			return 0, err
		}
		j.logger.Info("setting comic title and image kind",
			zap.Int("comic_id", int(fp.ComicID)),
			zap.String("title", title),
			zap.Stringer("image_kind", fp.ImageKind))
		if err := tx.UpsertComicTitleImageDate(ctx, fp.ComicID, title, fp.ImageKind, publishDate); err != nil {
			return 0, fmt.Errorf("upsert comic %d: %w", fp.ComicID, err)
		}
	case needs.ImageKind && fp.ImageKind != ImageUnknown:
		j.logger.Info("setting comic image kind",
			zap.Int("comic_id", int(fp.ComicID)),
			zap.Stringer("image_kind", fp.ImageKind))
		if err := tx.UpdateComicImageDate(ctx, fp.ComicID, fp.ImageKind, publishDate); err != nil {
			return 0, fmt.Errorf("update comic %d image kind: %w", fp.ComicID, err)
		}
	case needs.PublishDate == nil:
		// The scraper never vouches for a publish date; only editors mark
		// one accurate.
		if err := tx.UpdateComicPublishDate(ctx, fp.ComicID, now, false); err != nil {
			return 0, fmt.Errorf("update comic %d publish date: %w", fp.ComicID, err)
		}
	default:
		j.logger.Info("comic record already up to date", zap.Int("comic_id", int(fp.ComicID)))
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit comic update: %w", err)
	}
	return fp.ComicID, nil
}

func (j *ComicUpdateJob) publishSeen(ctx context.Context, id ComicID, now time.Time) {
	if j.publisher == nil {
		return
	}
	payload := map[string]any{
		"event":     "comic.seen",
		"event_id":  uuid.NewString(),
		"comic_id":  int(id),
		"timestamp": now.UTC().Format(time.RFC3339),
	}
	if _, err := j.publisher.Publish(ctx, j.topic, payload); err != nil {
		j.logger.Warn("publish comic.seen event failed",
			zap.Int("comic_id", int(id)), zap.Error(err))
	}
}

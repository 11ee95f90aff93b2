package updater

import (
	"context"
	"time"
)

// Clock abstracts time.Now so the calendar scheduler and the staleness model
// can be tested with fixed times.
type Clock interface {
	Now() time.Time
}

// Fetcher retrieves a page body by URL. Implementations return a *FetchError
// for transport failures, non-success statuses, and empty bodies.
type Fetcher interface {
	FetchPage(ctx context.Context, url string) ([]byte, error)
}

// Publisher emits engine events (comic seen, news updated) to an external
// topic. Publishing is best effort; failures never fail an iteration.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// SyncStore opens transactions against the companion database. Each job owns
// the transaction boundaries for its own writes.
type SyncStore interface {
	Begin(ctx context.Context) (SyncTx, error)
}

// SyncTx is one transaction's view of the comic and news tables. Every
// operation is fallible; a failed operation leaves the transaction for the
// caller to roll back.
type SyncTx interface {
	ComicExists(ctx context.Context, id ComicID) (bool, error)
	ComicNeedsUpdate(ctx context.Context, id ComicID) (ComicNeeds, error)
	UpsertComicTitleImageDate(ctx context.Context, id ComicID, title string, kind ImageKind, date time.Time) error
	UpdateComicImageDate(ctx context.Context, id ComicID, kind ImageKind, date time.Time) error
	UpdateComicPublishDate(ctx context.Context, id ComicID, date time.Time, accurate bool) error

	GetNews(ctx context.Context, id ComicID) (*NewsRecord, error)
	InsertNews(ctx context.Context, id ComicID, text string, factor float64, date time.Time) error
	UpdateNewsText(ctx context.Context, id ComicID, text string, factor float64, date time.Time) error
	UpdateNewsTimestamp(ctx context.Context, id ComicID, factor float64, date time.Time) error

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

package updater

import (
	"context"
	"sync"
	"time"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

type fakeFetcher struct {
	mu     sync.Mutex
	bodies map[string][]byte
	errs   map[string]error
	calls  []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		bodies: make(map[string][]byte),
		errs:   make(map[string]error),
	}
}

func (f *fakeFetcher) FetchPage(_ context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url)
	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	if body, ok := f.bodies[url]; ok {
		return body, nil
	}
	return nil, &FetchError{URL: url, StatusCode: 404}
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type comicRow struct {
	title       string
	imageKind   ImageKind
	publishDate *time.Time
	accurate    bool
}

// memStore is an in-memory SyncStore with real transaction semantics:
// writes stage in the transaction and only land on Commit.
type memStore struct {
	mu        sync.Mutex
	comics    map[ComicID]comicRow
	news      map[ComicID]NewsRecord
	beginErr  error
	commitErr error
	begins    int
	commits   int
	writes    int
}

func newMemStore() *memStore {
	return &memStore{
		comics: make(map[ComicID]comicRow),
		news:   make(map[ComicID]NewsRecord),
	}
}

func (s *memStore) Begin(context.Context) (SyncTx, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.beginErr != nil {
		return nil, s.beginErr
	}
	s.begins++
	tx := &memTx{
		store:  s,
		comics: make(map[ComicID]comicRow, len(s.comics)),
		news:   make(map[ComicID]NewsRecord, len(s.news)),
	}
	for id, row := range s.comics {
		tx.comics[id] = row
	}
	for id, rec := range s.news {
		tx.news[id] = rec
	}
	return tx, nil
}

func (s *memStore) comic(id ComicID) (comicRow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.comics[id]
	return row, ok
}

func (s *memStore) newsRecord(id ComicID) (NewsRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.news[id]
	return rec, ok
}

type memTx struct {
	store  *memStore
	comics map[ComicID]comicRow
	news   map[ComicID]NewsRecord
	writes int
}

func (t *memTx) ComicExists(_ context.Context, id ComicID) (bool, error) {
	_, ok := t.comics[id]
	return ok, nil
}

func (t *memTx) ComicNeedsUpdate(_ context.Context, id ComicID) (ComicNeeds, error) {
	row, ok := t.comics[id]
	if !ok {
		return ComicNeeds{Title: true, ImageKind: true}, nil
	}
	return ComicNeeds{
		Title:       row.title == "",
		ImageKind:   row.imageKind == ImageUnknown,
		PublishDate: row.publishDate,
	}, nil
}

func (t *memTx) UpsertComicTitleImageDate(_ context.Context, id ComicID, title string, kind ImageKind, date time.Time) error {
	row := t.comics[id]
	row.title = title
	row.imageKind = kind
	row.publishDate = &date
	row.accurate = false
	t.comics[id] = row
	t.writes++
	return nil
}

func (t *memTx) UpdateComicImageDate(_ context.Context, id ComicID, kind ImageKind, date time.Time) error {
	row := t.comics[id]
	row.imageKind = kind
	row.publishDate = &date
	t.comics[id] = row
	t.writes++
	return nil
}

func (t *memTx) UpdateComicPublishDate(_ context.Context, id ComicID, date time.Time, accurate bool) error {
	row := t.comics[id]
	row.publishDate = &date
	row.accurate = accurate
	t.comics[id] = row
	t.writes++
	return nil
}

func (t *memTx) GetNews(_ context.Context, id ComicID) (*NewsRecord, error) {
	rec, ok := t.news[id]
	if !ok {
		return nil, nil
	}
	out := rec
	return &out, nil
}

func (t *memTx) InsertNews(_ context.Context, id ComicID, text string, factor float64, date time.Time) error {
	t.news[id] = NewsRecord{
		ComicID:      id,
		News:         text,
		UpdateFactor: factor,
		LastUpdated:  date,
	}
	t.writes++
	return nil
}

func (t *memTx) UpdateNewsText(_ context.Context, id ComicID, text string, factor float64, date time.Time) error {
	rec := t.news[id]
	rec.ComicID = id
	rec.News = text
	rec.UpdateFactor = factor
	rec.LastUpdated = date
	t.news[id] = rec
	t.writes++
	return nil
}

func (t *memTx) UpdateNewsTimestamp(_ context.Context, id ComicID, factor float64, date time.Time) error {
	rec := t.news[id]
	rec.ComicID = id
	rec.UpdateFactor = factor
	rec.LastUpdated = date
	t.news[id] = rec
	t.writes++
	return nil
}

func (t *memTx) Commit(context.Context) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if t.store.commitErr != nil {
		return t.store.commitErr
	}
	t.store.comics = t.comics
	t.store.news = t.news
	t.store.commits++
	t.store.writes += t.writes
	return nil
}

func (t *memTx) Rollback(context.Context) error { return nil }

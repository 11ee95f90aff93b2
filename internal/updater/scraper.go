package updater

import (
	"context"
	"fmt"
	"time"

	"github.com/lunarforge/comicsync/internal/metrics"
)

// SiteConfig holds the three page locations the scrapers hit. ComicURLBase is
// the comic page URL up to and including the id query parameter; the comic id
// is appended verbatim.
type SiteConfig struct {
	FrontPageURL string
	ArchiveURL   string
	ComicURLBase string
}

// Scraper fetches the site's pages and turns them into typed results. It is
// stateless apart from its fetcher; every failure is an explicit *FetchError
// or *ParseError, never a partial result.
type Scraper struct {
	fetcher Fetcher
	site    SiteConfig
}

// NewScraper builds a Scraper over the given fetcher and site locations.
func NewScraper(fetcher Fetcher, site SiteConfig) *Scraper {
	return &Scraper{fetcher: fetcher, site: site}
}

// FrontPage fetches the front page and extracts the displayed comic.
func (s *Scraper) FrontPage(ctx context.Context) (FrontPage, error) {
	body, err := s.fetch(ctx, "front_page", s.site.FrontPageURL)
	if err != nil {
		return FrontPage{}, err
	}
	fp, err := ParseFrontPage(body)
	if err != nil {
		metrics.RecordScrapeFailure("front_page")
		return FrontPage{}, err
	}
	return fp, nil
}

// ComicTitle fetches the archive listing and extracts the title for a comic.
// Only called when storage reports the comic still needs a title.
func (s *Scraper) ComicTitle(ctx context.Context, id ComicID) (string, error) {
	body, err := s.fetch(ctx, "archive", s.site.ArchiveURL)
	if err != nil {
		return "", err
	}
	title, err := ParseArchiveTitle(body, id)
	if err != nil {
		metrics.RecordScrapeFailure("archive")
		return "", err
	}
	return title, nil
}

// News fetches a comic's page and extracts its cleaned news blurb.
func (s *Scraper) News(ctx context.Context, id ComicID) (string, error) {
	url := fmt.Sprintf("%s%d", s.site.ComicURLBase, id)
	body, err := s.fetch(ctx, "comic_page", url)
	if err != nil {
		return "", err
	}
	text, err := ParseNews(body)
	if err != nil {
		metrics.RecordScrapeFailure("comic_page")
		return "", err
	}
	return text, nil
}

func (s *Scraper) fetch(ctx context.Context, page, url string) ([]byte, error) {
	start := time.Now()
	body, err := s.fetcher.FetchPage(ctx, url)
	if err != nil {
		metrics.RecordScrapeFailure(page)
		return nil, err
	}
	metrics.ObserveScrape(page, time.Since(start))
	return body, nil
}

// Package resty implements the page fetcher over the resty HTTP client.
package resty

import (
	"bytes"
	"context"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/lunarforge/comicsync/internal/updater"
)

// Config controls the HTTP client behavior.
type Config struct {
	Timeout   time.Duration
	UserAgent string
}

// Fetcher retrieves raw page bodies. It implements updater.Fetcher and maps
// every failure mode onto *updater.FetchError.
type Fetcher struct {
	client *resty.Client
}

// New builds a Fetcher with the configured timeout and courtesy user agent.
func New(cfg Config) *Fetcher {
	client := resty.New()
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}
	if cfg.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.UserAgent)
	}
	return &Fetcher{client: client}
}

// FetchPage performs a GET and returns the body. A transport failure, a
// non-success status, or an empty body is an explicit *updater.FetchError.
func (f *Fetcher) FetchPage(ctx context.Context, url string) ([]byte, error) {
	resp, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, &updater.FetchError{URL: url, Err: err}
	}
	if !resp.IsSuccess() {
		return nil, &updater.FetchError{URL: url, StatusCode: resp.StatusCode()}
	}
	body := resp.Body()
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, &updater.FetchError{URL: url, StatusCode: resp.StatusCode(), Err: updater.ErrEmptyBody}
	}
	return body, nil
}

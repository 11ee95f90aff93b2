package updater

import (
	"errors"
	"fmt"
)

// ErrEmptyBody marks a fetch that succeeded at the HTTP level but returned no
// usable document.
var ErrEmptyBody = errors.New("empty response body")

// FetchError reports a failed page fetch: a transport error, a non-success
// status, or an empty body. The scrapers never work around one; the caller
// decides whether it aborts an iteration or just one batch item.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError reports that a fetched document did not have the expected
// structure. Page names the document kind (front page, archive, comic page).
type ParseError struct {
	Page   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %s", e.Page, e.Reason)
}

func parseErrorf(page, format string, args ...any) *ParseError {
	return &ParseError{Page: page, Reason: fmt.Sprintf(format, args...)}
}

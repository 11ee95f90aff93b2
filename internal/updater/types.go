// Package updater implements the background content-synchronization engine:
// the comic metadata updater, the news updater, the pending refresh set they
// communicate through, and the supervisor loop that keeps both alive.
package updater

import (
	"strings"
	"time"
)

// ComicID identifies a comic on the source site. IDs are small positive
// integers assigned by the site in publication order.
type ComicID int

// ImageKind is the file format of a comic's image, derived from the image
// file extension on the front page.
type ImageKind int

// Image kinds, in the order the companion database stores them.
const (
	ImageUnknown ImageKind = iota
	ImagePNG
	ImageGIF
	ImageJPEG
)

// ImageKindFromExtension maps a file extension (without the dot) to its
// ImageKind. Unrecognized extensions map to ImageUnknown.
func ImageKindFromExtension(ext string) ImageKind {
	switch strings.ToLower(ext) {
	case "png":
		return ImagePNG
	case "gif":
		return ImageGIF
	case "jpg", "jpeg":
		return ImageJPEG
	default:
		return ImageUnknown
	}
}

func (k ImageKind) String() string {
	switch k {
	case ImagePNG:
		return "png"
	case ImageGIF:
		return "gif"
	case ImageJPEG:
		return "jpeg"
	default:
		return "unknown"
	}
}

// FrontPage is the result of scraping the site front page: the comic currently
// on display and the format of its image.
type FrontPage struct {
	ComicID   ComicID
	ImageKind ImageKind
}

// ComicNeeds reports which pieces of a comic's metadata are still missing.
// A comic with no row at all needs both a title and an image kind.
type ComicNeeds struct {
	Title       bool
	ImageKind   bool
	PublishDate *time.Time
}

// NewsRecord is a comic's news blurb together with its re-scrape back-off
// state. IsLocked is an editorial pin set outside this engine; the updater
// only ever reads it.
type NewsRecord struct {
	ComicID      ComicID
	News         string
	UpdateFactor float64
	LastUpdated  time.Time
	IsLocked     bool
}

// DateOnly truncates t to midnight, preserving the location. News timestamps
// are stored with day granularity.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

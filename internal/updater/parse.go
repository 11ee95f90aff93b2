package updater

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	rawNewlines  = strings.NewReplacer("\r", "", "\n", "")
	htmlBreakTag = regexp.MustCompile(`(?i)<br\s*/?>`)
)

// ParseFrontPage extracts the displayed comic's id and image kind from the
// front page document. The comic image is the single <img> whose source path
// goes through the site's comics directory; its file name is "<id>.<ext>".
func ParseFrontPage(body []byte) (FrontPage, error) {
	const page = "front page"

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return FrontPage{}, parseErrorf(page, "invalid html: %v", err)
	}

	image := doc.Find(`img[src*="/comics/"]`).First()
	if image.Length() == 0 {
		return FrontPage{}, parseErrorf(page, "comic image element not found")
	}
	src, ok := image.Attr("src")
	if !ok || src == "" {
		return FrontPage{}, parseErrorf(page, "comic image element has no source")
	}

	slash := strings.LastIndex(src, "/")
	if slash < 0 {
		return FrontPage{}, parseErrorf(page, "no '/' in comic image source %q", src)
	}
	name, ext, found := strings.Cut(src[slash+1:], ".")
	if !found {
		return FrontPage{}, parseErrorf(page, "no '.' in comic image source %q", src)
	}

	id, err := strconv.Atoi(name)
	if err != nil || id <= 0 {
		return FrontPage{}, parseErrorf(page, "comic id %q in image source is not a valid id", name)
	}

	return FrontPage{
		ComicID:   ComicID(id),
		ImageKind: ImageKindFromExtension(ext),
	}, nil
}

// ParseArchiveTitle extracts a comic's title from the archive listing. The
// archive links every comic as "Comic <id>: <title>"; the title is whatever
// follows the first colon, trimmed.
func ParseArchiveTitle(body []byte, id ComicID) (string, error) {
	const page = "archive page"

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", parseErrorf(page, "invalid html: %v", err)
	}

	anchor := doc.Find(fmt.Sprintf(`a[href*="comic=%d"]`, id)).First()
	if anchor.Length() == 0 {
		return "", parseErrorf(page, "no archive link for comic %d", id)
	}
	_, title, found := strings.Cut(anchor.Text(), ":")
	if !found {
		return "", parseErrorf(page, "no ':' in archive link text for comic %d", id)
	}
	return strings.TrimSpace(title), nil
}

// ParseNews extracts and cleans the news blurb from a comic page. The blurb
// lives in one of two container ids depending on the page template. Leading
// boilerplate (an empty bold tag, bare line breaks) is stripped to a fixed
// point, raw newlines are deleted, and <br> markup becomes a textual newline.
func ParseNews(body []byte) (string, error) {
	const page = "comic page"

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", parseErrorf(page, "invalid html: %v", err)
	}

	container := doc.Find("#news, #newspost").First()
	if container.Length() == 0 {
		return "", parseErrorf(page, "news container element not found")
	}
	inner, err := container.Html()
	if err != nil {
		return "", parseErrorf(page, "news container unreadable: %v", err)
	}

	return cleanNewsMarkup(inner), nil
}

func cleanNewsMarkup(s string) string {
	for {
		trimmed := strings.TrimSpace(s)
		trimmed = strings.TrimPrefix(trimmed, "<b></b>")
		trimmed = strings.TrimPrefix(trimmed, "<br>")
		trimmed = strings.TrimPrefix(trimmed, "<br/>")
		if trimmed == s {
			break
		}
		s = trimmed
	}

	s = rawNewlines.Replace(s)
	s = htmlBreakTag.ReplaceAllString(s, "\n")
	return strings.TrimSpace(s)
}

// Package scraper extracts story links from the Hacker News listing page.
package scraper

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"unicode/utf8"

	"hackerfeed/internal/domain/entity"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// DefaultSelector matches the title anchor of every story row. The first
// alternative covers the historical markup, the second the current one where
// the anchor sits inside span.titleline. The trailing "More" link is matched
// by the first alternative and dropped by the extractor.
const DefaultSelector = "td.title > a[href], td.title > span.titleline > a[href]"

// LinkExtractor turns a listing page into an ordered list of stories.
type LinkExtractor struct {
	selector string
	logger   *slog.Logger
}

// NewLinkExtractor creates an extractor for the given CSS selector.
// An empty selector falls back to DefaultSelector.
func NewLinkExtractor(selector string, logger *slog.Logger) (*LinkExtractor, error) {
	if selector == "" {
		selector = DefaultSelector
	}
	if err := ValidateSelector(selector); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LinkExtractor{selector: selector, logger: logger}, nil
}

// ValidateSelector reports whether selector is a valid CSS selector group.
// goquery silently matches nothing on an invalid selector, so callers check first.
func ValidateSelector(selector string) error {
	if _, err := cascadia.ParseGroup(selector); err != nil {
		return fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	return nil
}

// ExtractLinks parses body and returns the story links in document order.
//
// Every href is resolved against baseURL. The last matched anchor is the
// pagination control and is discarded. When a URL repeats, the later title
// replaces the earlier one but the entry keeps its first position.
//
// Errors are always *entity.ParseError.
func (e *LinkExtractor) ExtractLinks(body []byte, baseURL string) ([]entity.StoryLink, error) {
	if !utf8.Valid(body) {
		return nil, &entity.ParseError{Kind: entity.KindEncoding, Err: errors.New("body is not valid UTF-8")}
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, &entity.ParseError{Kind: entity.KindMarkup, Err: fmt.Errorf("base url: %w", err)}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &entity.ParseError{Kind: entity.KindMarkup, Err: err}
	}

	anchors := doc.Find(e.selector)
	if anchors.Length() == 0 {
		return nil, &entity.ParseError{Kind: entity.KindEmpty, Err: fmt.Errorf("selector %q matched no elements", e.selector)}
	}
	anchors = anchors.Slice(0, anchors.Length()-1)

	var links []entity.StoryLink
	index := make(map[string]int)
	anchors.Each(func(i int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			e.logger.Debug("skipping anchor with unparsable href",
				slog.Int("index", i),
				slog.String("href", href),
				slog.Any("error", err))
			return
		}

		link := entity.StoryLink{
			URL:   base.ResolveReference(ref).String(),
			Title: strings.TrimSpace(a.Text()),
		}
		if pos, seen := index[link.URL]; seen {
			links[pos].Title = link.Title
			return
		}
		index[link.URL] = len(links)
		links = append(links, link)
	})

	if len(links) == 0 {
		return nil, &entity.ParseError{Kind: entity.KindEmpty, Err: errors.New("no stories left after dropping pagination link")}
	}
	return links, nil
}

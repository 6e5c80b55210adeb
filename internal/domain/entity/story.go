// Package entity defines the core domain types of the feed watcher: the stories
// scraped from the listing page, the history of URLs already surfaced, and the
// notification and archive records derived from new stories.
package entity

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"time"
)

// ArchiveDateLayout is the date prefix written in front of every archive line.
const ArchiveDateLayout = "2006-01-02"

// NotificationTitle is the fixed title of every story notification.
const NotificationTitle = "Hacker News:"

// StoryLink is a single story scraped from the listing page.
// URL is always absolute.
type StoryLink struct {
	URL   string
	Title string
}

// NotificationMessage is one formatted notification for an interesting story.
// BodyHTML uses the small markup subset understood by desktop notification daemons.
type NotificationMessage struct {
	Title    string
	BodyHTML string
	// URL is the story link, kept for transports that render links natively.
	URL string
	// StoryTitle is the unformatted story title.
	StoryTitle string
}

// NewNotificationMessage builds the notification for a story.
// The title and URL are HTML-escaped before being embedded in the body.
func NewNotificationMessage(link StoryLink) NotificationMessage {
	escapedURL := html.EscapeString(link.URL)
	body := fmt.Sprintf(`<b>%s</b><br/><br/><span><a href="%s" >%s</a></span>`,
		html.EscapeString(link.Title), escapedURL, escapedURL)

	return NotificationMessage{
		Title:      NotificationTitle,
		BodyHTML:   body,
		URL:        link.URL,
		StoryTitle: link.Title,
	}
}

// ArchiveEntry is one line of the monthly archive.
type ArchiveEntry struct {
	Date  time.Time
	Title string
	URL   string
}

// NewArchiveEntry creates the archive record for a story seen on the given date.
func NewArchiveEntry(date time.Time, link StoryLink) ArchiveEntry {
	return ArchiveEntry{Date: date, Title: link.Title, URL: link.URL}
}

// Line formats the entry as "<YYYY-MM-DD> <title> : <url>\n".
// Line breaks inside the title are folded into spaces so one story is always one line.
func (e ArchiveEntry) Line() string {
	title := strings.Join(strings.Fields(e.Title), " ")
	return fmt.Sprintf("%s %s : %s\n", e.Date.Format(ArchiveDateLayout), title, e.URL)
}

// History is the set of story URLs that have already been surfaced.
// It is only used for membership tests; iteration order carries no meaning.
type History map[string]struct{}

// NewHistory returns a history containing the given URLs.
func NewHistory(urls ...string) History {
	h := make(History, len(urls))
	for _, u := range urls {
		h[u] = struct{}{}
	}
	return h
}

// Contains reports whether url has been seen before.
func (h History) Contains(url string) bool {
	_, ok := h[url]
	return ok
}

// Add records url as seen.
func (h History) Add(url string) {
	h[url] = struct{}{}
}

// Len returns the number of URLs in the history.
func (h History) Len() int {
	return len(h)
}

// URLs returns the members sorted lexically.
func (h History) URLs() []string {
	urls := make([]string, 0, len(h))
	for u := range h {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls
}

// Clone returns an independent copy of the history.
func (h History) Clone() History {
	c := make(History, len(h))
	for u := range h {
		c[u] = struct{}{}
	}
	return c
}

// Diff returns the links whose URL is not in the history, keeping their order.
func (h History) Diff(links []StoryLink) []StoryLink {
	var fresh []StoryLink
	for _, l := range links {
		if !h.Contains(l.URL) {
			fresh = append(fresh, l)
		}
	}
	return fresh
}

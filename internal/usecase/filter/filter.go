// Package filter decides which new stories are worth a notification.
//
// A story is interesting when its title contains one of the configured
// keywords or its URL contains one of the configured domains.
package filter

import (
	"strings"
)

// asciiPunctuation is the set of characters replaced by spaces before keyword matching.
const asciiPunctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

var punctuationReplacer = newPunctuationReplacer()

func newPunctuationReplacer() *strings.Replacer {
	pairs := make([]string, 0, len(asciiPunctuation)*2)
	for _, r := range asciiPunctuation {
		pairs = append(pairs, string(r), " ")
	}
	return strings.NewReplacer(pairs...)
}

// Config holds the parsed keyword and domain lists.
// It is built once at startup and never mutated afterwards.
type Config struct {
	// Keywords are lower-cased and carry one leading space, so " go" matches
	// "go" and "gopher" at a word start but not "ago".
	Keywords []string
	// Domains are matched as plain substrings of the story URL.
	Domains []string
}

// NewConfig builds a Config from comma-separated keyword and domain lists.
// Entries are trimmed and empty entries are dropped.
func NewConfig(keywords, domains string) Config {
	cfg := Config{}
	for _, kw := range splitList(keywords) {
		cfg.Keywords = append(cfg.Keywords, " "+strings.ToLower(kw))
	}
	cfg.Domains = splitList(domains)
	return cfg
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// IsInteresting reports whether a story should be notified.
func IsInteresting(title, url string, cfg Config) bool {
	return matchTitle(title, cfg.Keywords) || matchURL(url, cfg.Domains)
}

func matchTitle(title string, keywords []string) bool {
	if len(keywords) == 0 {
		return false
	}
	normalized := " " + strings.ToLower(punctuationReplacer.Replace(title)) + " "
	for _, kw := range keywords {
		if strings.Contains(normalized, kw) {
			return true
		}
	}
	return false
}

func matchURL(url string, domains []string) bool {
	for _, d := range domains {
		if strings.Contains(url, d) {
			return true
		}
	}
	return false
}

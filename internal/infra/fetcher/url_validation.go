// Package fetcher downloads the listing page polled for new stories.
package fetcher

import (
	"errors"
	"fmt"
	"net/url"
)

// ErrInvalidURL is returned for listing and redirect URLs that cannot be fetched.
var ErrInvalidURL = errors.New("invalid URL")

// ErrTooManyRedirects is returned when a redirect chain exceeds MaxRedirects.
var ErrTooManyRedirects = errors.New("too many redirects")

// validateURL checks that urlStr is an absolute http or https URL with a host.
// It is applied to the configured listing URL and to every redirect target.
func validateURL(urlStr string) error {
	u, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("%w: parse error: %v", ErrInvalidURL, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme '%s' not allowed (only http/https)", ErrInvalidURL, u.Scheme)
	}

	if u.Hostname() == "" {
		return fmt.Errorf("%w: empty hostname", ErrInvalidURL)
	}

	return nil
}

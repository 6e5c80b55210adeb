package notifier

import (
	"errors"
	"net/url"
	"regexp"
)

var (
	// Discord: /api/webhooks/{id}/{token}. The id is kept so logs stay useful.
	discordTokenPattern = regexp.MustCompile(`(/api/webhooks/[0-9]+/)[A-Za-z0-9_\-]+`)
	// Slack: /services/{team}/{bot}/{secret}
	slackSecretPattern = regexp.MustCompile(`(/services/[A-Za-z0-9]+/[A-Za-z0-9]+/)[A-Za-z0-9]+`)
	// Credentials embedded in a URL
	userinfoPasswordPattern = regexp.MustCompile(`://([^:/@]+):([^@]+)@`)
)

// SanitizeURL masks webhook secrets and URL passwords in s.
func SanitizeURL(s string) string {
	s = discordTokenPattern.ReplaceAllString(s, "$1****")
	s = slackSecretPattern.ReplaceAllString(s, "$1****")
	s = userinfoPasswordPattern.ReplaceAllString(s, "://$1:****@")
	return s
}

// redactURLError masks the request URL carried by a *url.Error in place so
// that transport failures can be logged without leaking the webhook token.
// The error chain is preserved.
func redactURLError(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		uerr.URL = SanitizeURL(uerr.URL)
	}
	return err
}

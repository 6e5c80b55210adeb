package metrics

import (
	"time"
)

// RecordListingFetch records the duration of a successful listing fetch.
func RecordListingFetch(duration time.Duration) {
	ListingFetchDuration.Observe(duration.Seconds())
}

// RecordListingFetchFailure records a failed listing fetch by kind.
func RecordListingFetchFailure(kind string) {
	if kind == "" {
		kind = "unknown"
	}
	ListingFetchFailuresTotal.WithLabelValues(kind).Inc()
}

// RecordListingParseFailure records a listing page that could not be parsed.
func RecordListingParseFailure(kind string) {
	if kind == "" {
		kind = "unknown"
	}
	ListingParseFailuresTotal.WithLabelValues(kind).Inc()
}

// RecordStories records the story counts of one successful cycle.
func RecordStories(extracted, fresh, matched int) {
	StoriesExtractedTotal.Add(float64(extracted))
	StoriesNewTotal.Add(float64(fresh))
	StoriesMatchedTotal.Add(float64(matched))
}

// RecordArchiveWrite records the outcome of an archive append of the given size.
func RecordArchiveWrite(lines int, err error) {
	if err != nil {
		ArchiveWritesTotal.WithLabelValues("failure").Inc()
		return
	}
	ArchiveWritesTotal.WithLabelValues("success").Inc()
	ArchiveLinesTotal.Add(float64(lines))
}

// SetHistorySize updates the history size gauge.
func SetHistorySize(n int) {
	HistorySize.Set(float64(n))
}

// RecordStateSave records the outcome of a history save.
func RecordStateSave(err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	StateSavesTotal.WithLabelValues(result).Inc()
}

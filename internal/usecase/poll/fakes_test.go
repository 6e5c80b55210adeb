package poll

import (
	"context"
	"sync"
	"time"

	"hackerfeed/internal/domain/entity"
)

const testListingURL = "https://news.ycombinator.com/newest"

type fetchResponse struct {
	body []byte
	err  error
}

type fakeFetcher struct {
	mu        sync.Mutex
	responses []fetchResponse
	calls     int
	onFetch   func(ctx context.Context)
}

func (f *fakeFetcher) Fetch(ctx context.Context) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	var r fetchResponse
	if len(f.responses) > 0 {
		r = f.responses[0]
		if len(f.responses) > 1 {
			f.responses = f.responses[1:]
		}
	}
	hook := f.onFetch
	f.mu.Unlock()

	if hook != nil {
		hook(ctx)
	}
	if r.err == nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return r.body, r.err
}

func (f *fakeFetcher) URL() string { return testListingURL }

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeExtractor struct {
	links []entity.StoryLink
	err   error
	bases []string
}

func (e *fakeExtractor) ExtractLinks(body []byte, baseURL string) ([]entity.StoryLink, error) {
	e.bases = append(e.bases, baseURL)
	return e.links, e.err
}

type fakeStore struct {
	loaded  entity.History
	loadErr error
	saved   entity.History
	saveErr error
}

func (s *fakeStore) Load() (entity.History, error) {
	if s.loadErr != nil {
		return entity.NewHistory(), s.loadErr
	}
	return s.loaded.Clone(), nil
}

func (s *fakeStore) Save(h entity.History) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = h.Clone()
	return nil
}

type archiveCall struct {
	date    time.Time
	entries []entity.ArchiveEntry
}

type fakeArchiver struct {
	calls []archiveCall
	err   error
}

func (a *fakeArchiver) Append(date time.Time, entries []entity.ArchiveEntry) error {
	a.calls = append(a.calls, archiveCall{date: date, entries: entries})
	return a.err
}

type fakeDispatcher struct {
	batches [][]entity.NotificationMessage
	err     error
}

func (d *fakeDispatcher) Dispatch(ctx context.Context, msgs []entity.NotificationMessage) error {
	d.batches = append(d.batches, msgs)
	return d.err
}

type harness struct {
	fetcher    *fakeFetcher
	extractor  *fakeExtractor
	store      *fakeStore
	archive    *fakeArchiver
	dispatcher *fakeDispatcher
	svc        *Service
	now        time.Time
}

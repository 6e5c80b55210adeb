package poll_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"hackerfeed/internal/domain/entity"
	"hackerfeed/internal/infra/archive"
	"hackerfeed/internal/infra/fetcher"
	"hackerfeed/internal/infra/scraper"
	"hackerfeed/internal/infra/state"
	"hackerfeed/internal/usecase/filter"
	"hackerfeed/internal/usecase/poll"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

const listingPage = `<html><body><table>
<tr class="athing"><td class="title"><span class="titleline"><a href="https://example.com/rust">Why Rust is Great - HN style</a></span></td></tr>
<tr class="athing"><td class="title"><span class="titleline"><a href="item?id=7">Show HN: A garden planner</a></span></td></tr>
<tr><td class="title"><a href="newest?next=6" class="morelink">More</a></td></tr>
</table></body></html>`

type recordingDispatcher struct {
	mu      sync.Mutex
	batches [][]entity.NotificationMessage
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, msgs []entity.NotificationMessage) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.batches = append(d.batches, msgs)
	return nil
}

func newPipeline(t *testing.T, handler http.HandlerFunc) (*poll.Service, *recordingDispatcher, string, string) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	dir := t.TempDir()

	cfg := fetcher.DefaultConfig()
	cfg.URL = srv.URL + "/newest"
	f, err := fetcher.NewPageFetcher(cfg)
	require.NoError(t, err)

	extractor, err := scraper.NewLinkExtractor("", nil)
	require.NoError(t, err)

	dispatcher := &recordingDispatcher{}
	clock := func() time.Time { return time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC) }

	svc, err := poll.NewService(f, extractor,
		state.NewHistoryStore(filepath.Join(dir, "state")),
		archive.NewWriter(dir),
		dispatcher,
		poll.Config{
			Interval: 5 * time.Minute,
			Location: time.UTC,
			Filter:   filter.NewConfig("hn, rust", ""),
		},
		poll.WithClock(clock))
	require.NoError(t, err)
	return svc, dispatcher, dir, srv.URL
}

func TestPipeline_EndToEnd(t *testing.T) {
	svc, dispatcher, dir, base := newPipeline(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(listingPage))
	})
	svc.LoadHistory()

	result := svc.RunCycle(context.Background())

	require.Equal(t, poll.StateCompleted, result.State, "err: %v", result.Err)
	assert.Equal(t, 5*time.Minute, result.Delay)
	assert.Equal(t, 2, result.New)

	data, err := os.ReadFile(filepath.Join(dir, "archive-2024-03.txt"))
	require.NoError(t, err)
	assert.Equal(t,
		"2024-03-05 Why Rust is Great - HN style : https://example.com/rust\n"+
			"2024-03-05 Show HN: A garden planner : "+base+"/item?id=7\n",
		string(data))

	require.Len(t, dispatcher.batches, 1)
	require.Len(t, dispatcher.batches[0], 2, "both titles contain a keyword")

	require.NoError(t, svc.SaveHistory())
	store := state.NewHistoryStore(filepath.Join(dir, "state"))
	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, svc.History(), loaded)
}

func TestPipeline_FetchFailureLeavesStateUntouched(t *testing.T) {
	svc, dispatcher, dir, _ := newPipeline(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	result := svc.RunCycle(context.Background())

	assert.Equal(t, poll.StateFetchFailed, result.State)
	assert.Equal(t, poll.DefaultRetryBackoff, result.Delay)
	assert.Equal(t, entity.KindHTTPStatus, entity.FailureKindOf(result.Err))
	assert.Zero(t, svc.History().Len())
	assert.Empty(t, dispatcher.batches)
	_, err := os.Stat(filepath.Join(dir, "archive-2024-03.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestPipeline_CycleSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	svc, _, _, _ := newPipeline(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(listingPage))
	})
	svc.RunCycle(context.Background())

	var cycle sdktrace.ReadOnlySpan
	for _, s := range recorder.Ended() {
		if s.Name() == "poll.cycle" {
			cycle = s
		}
	}
	require.NotNil(t, cycle, "poll.cycle span recorded")

	attrs := map[string]string{}
	for _, kv := range cycle.Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "completed", attrs["cycle.state"])
	assert.Equal(t, "2", attrs["stories.new"])
}

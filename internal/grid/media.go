package grid

import (
	"context"
	"sync"
	"time"

	"github.com/zjrosen/gridley/internal/cachemanager"
	"github.com/zjrosen/gridley/internal/log"
	"github.com/zjrosen/gridley/internal/pubsub"
)

// DefaultMediaTTL is how long fetched media stays cached. Rapid
// materialize/dematerialize cycles during fast scroll hit the cache instead
// of re-fetching.
const DefaultMediaTTL = 10 * time.Minute

// MediaResult is the resolution of one asynchronous media fetch.
type MediaResult struct {
	RowID string
	Ref   string
	State MediaState // MediaLoaded or MediaFailed
	Data  []byte
}

// MediaFetcher retrieves the media behind a reference. It runs on its own
// goroutine and must honor context cancellation.
type MediaFetcher func(ctx context.Context, ref string) ([]byte, error)

// MediaLoader schedules fire-and-forget loads for media referenced by
// materialized rows. Each load is keyed by the row's stable identifier and
// cancelled, not awaited, when that row dematerializes before the fetch
// resolves, so a loaded-state callback can never land on a row element that
// no longer represents the data.
//
// Results are published on a broker; a fetch error degrades to MediaFailed
// (a deterministic placeholder state), never to a surfaced error.
type MediaLoader struct {
	mu       sync.Mutex
	fetch    MediaFetcher
	cache    cachemanager.CacheManager[string, []byte]
	ttl      time.Duration
	gen      uint64
	inflight map[string]inflightFetch
	results  *pubsub.Broker[MediaResult]
	closed   bool
}

// inflightFetch pairs a cancel func with the generation that registered it,
// so a completed fetch only removes its own registration and never a newer
// one for the same row.
type inflightFetch struct {
	cancel context.CancelFunc
	gen    uint64
}

// NewMediaLoader creates a loader. cache may be nil to disable caching;
// a non-positive ttl takes DefaultMediaTTL.
func NewMediaLoader(fetch MediaFetcher, cache cachemanager.CacheManager[string, []byte], ttl time.Duration) *MediaLoader {
	if ttl <= 0 {
		ttl = DefaultMediaTTL
	}
	return &MediaLoader{
		fetch:    fetch,
		cache:    cache,
		ttl:      ttl,
		inflight: make(map[string]inflightFetch),
		results:  pubsub.NewBroker[MediaResult](),
	}
}

// Subscribe returns a channel of media results. The subscription ends when
// ctx is cancelled.
func (l *MediaLoader) Subscribe(ctx context.Context) <-chan pubsub.Event[MediaResult] {
	return l.results.Subscribe(ctx)
}

// Begin schedules a load for the row. A cache hit resolves synchronously;
// otherwise the fetch runs on its own goroutine, independent of the
// virtualization pass that scheduled it. A newer Begin for the same row
// cancels the older fetch.
func (l *MediaLoader) Begin(rowID, ref string) {
	if l == nil || rowID == "" || ref == "" {
		return
	}

	if l.cache != nil {
		if data, ok := l.cache.GetWithRefresh(context.Background(), ref, l.ttl); ok {
			l.publish(MediaResult{RowID: rowID, Ref: ref, State: MediaLoaded, Data: data})
			return
		}
	}
	if l.fetch == nil {
		l.publish(MediaResult{RowID: rowID, Ref: ref, State: MediaFailed})
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		cancel()
		return
	}
	if prev, ok := l.inflight[rowID]; ok {
		prev.cancel()
	}
	l.gen++
	gen := l.gen
	l.inflight[rowID] = inflightFetch{cancel: cancel, gen: gen}
	l.mu.Unlock()

	go func() {
		data, err := l.fetch(ctx, ref)

		l.mu.Lock()
		if current, ok := l.inflight[rowID]; ok && current.gen == gen {
			delete(l.inflight, rowID)
		}
		l.mu.Unlock()

		if ctx.Err() != nil {
			return // row dematerialized mid-flight, result discarded
		}
		if err != nil {
			log.Debug(log.CatMedia, "media fetch failed", "ref", ref, "error", err.Error())
			l.publish(MediaResult{RowID: rowID, Ref: ref, State: MediaFailed})
			return
		}
		if l.cache != nil {
			l.cache.Set(context.Background(), ref, data, l.ttl)
		}
		l.publish(MediaResult{RowID: rowID, Ref: ref, State: MediaLoaded, Data: data})
	}()
}

// Cancel aborts the in-flight load for the row, if any.
func (l *MediaLoader) Cancel(rowID string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if f, ok := l.inflight[rowID]; ok {
		f.cancel()
		delete(l.inflight, rowID)
	}
}

// CancelAll aborts every in-flight load. Called on collection replacement and
// teardown.
func (l *MediaLoader) CancelAll() {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for rowID, f := range l.inflight {
		f.cancel()
		delete(l.inflight, rowID)
	}
}

// Close cancels everything and shuts the result broker down.
func (l *MediaLoader) Close() {
	if l == nil {
		return
	}
	l.CancelAll()
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	l.results.Close()
}

// InflightCount returns the number of fetches currently running.
func (l *MediaLoader) InflightCount() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.inflight)
}

func (l *MediaLoader) publish(result MediaResult) {
	l.results.Publish(pubsub.MediaResolvedEvent, result)
}

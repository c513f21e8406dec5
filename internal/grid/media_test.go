package grid

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/gridley/internal/cachemanager"
	"github.com/zjrosen/gridley/internal/pubsub"
)

func newMediaCache() cachemanager.CacheManager[string, []byte] {
	return cachemanager.NewInMemoryCacheManager[string, []byte]("media", time.Minute, time.Minute)
}

func awaitResult(t *testing.T, ch <-chan pubsub.Event[MediaResult]) MediaResult {
	t.Helper()
	select {
	case event := <-ch:
		require.Equal(t, pubsub.MediaResolvedEvent, event.Type)
		return event.Payload
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for media result")
		return MediaResult{}
	}
}

func TestMediaLoaderBegin(t *testing.T) {
	t.Run("successful fetch resolves loaded", func(t *testing.T) {
		fetch := func(ctx context.Context, ref string) ([]byte, error) {
			return []byte("thumb:" + ref), nil
		}
		l := NewMediaLoader(fetch, newMediaCache(), time.Minute)
		defer l.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		ch := l.Subscribe(ctx)

		l.Begin("row-1", "ref-1")
		res := awaitResult(t, ch)
		require.Equal(t, "row-1", res.RowID)
		require.Equal(t, MediaLoaded, res.State)
		require.Equal(t, []byte("thumb:ref-1"), res.Data)
	})

	t.Run("cache hit skips the fetcher", func(t *testing.T) {
		var calls atomic.Int64
		fetch := func(ctx context.Context, ref string) ([]byte, error) {
			calls.Add(1)
			return []byte("data"), nil
		}
		l := NewMediaLoader(fetch, newMediaCache(), time.Minute)
		defer l.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		ch := l.Subscribe(ctx)

		l.Begin("row-1", "ref-1")
		awaitResult(t, ch)
		require.Equal(t, int64(1), calls.Load())

		// Same ref for a different row: rapid materialize/dematerialize
		// cycles must hit the cache.
		l.Begin("row-2", "ref-1")
		res := awaitResult(t, ch)
		require.Equal(t, "row-2", res.RowID)
		require.Equal(t, MediaLoaded, res.State)
		require.Equal(t, int64(1), calls.Load())
	})

	t.Run("fetch error degrades to failed", func(t *testing.T) {
		fetch := func(ctx context.Context, ref string) ([]byte, error) {
			return nil, errors.New("404")
		}
		l := NewMediaLoader(fetch, newMediaCache(), time.Minute)
		defer l.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		ch := l.Subscribe(ctx)

		l.Begin("row-1", "ref-1")
		res := awaitResult(t, ch)
		require.Equal(t, MediaFailed, res.State)
		require.Nil(t, res.Data)
	})

	t.Run("nil fetcher resolves failed without cache", func(t *testing.T) {
		l := NewMediaLoader(nil, nil, time.Minute)
		defer l.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		ch := l.Subscribe(ctx)

		l.Begin("row-1", "ref-1")
		res := awaitResult(t, ch)
		require.Equal(t, MediaFailed, res.State)
	})

	t.Run("empty row id or ref is a no-op", func(t *testing.T) {
		l := NewMediaLoader(nil, nil, time.Minute)
		defer l.Close()
		l.Begin("", "ref")
		l.Begin("row", "")
		require.Equal(t, 0, l.InflightCount())
	})
}

func TestMediaLoaderCancel(t *testing.T) {
	t.Run("cancelled fetch publishes nothing", func(t *testing.T) {
		started := make(chan struct{})
		fetch := func(ctx context.Context, ref string) ([]byte, error) {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		}
		l := NewMediaLoader(fetch, nil, time.Minute)
		defer l.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		ch := l.Subscribe(ctx)

		l.Begin("row-1", "ref-1")
		<-started
		require.Equal(t, 1, l.InflightCount())

		l.Cancel("row-1")
		require.Equal(t, 0, l.InflightCount())

		select {
		case event := <-ch:
			t.Fatalf("expected no result after cancel, got %+v", event.Payload)
		case <-time.After(50 * time.Millisecond):
		}
	})

	t.Run("cancel all aborts every fetch", func(t *testing.T) {
		fetch := func(ctx context.Context, ref string) ([]byte, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		l := NewMediaLoader(fetch, nil, time.Minute)
		defer l.Close()

		l.Begin("row-1", "ref-1")
		l.Begin("row-2", "ref-2")
		require.Equal(t, 2, l.InflightCount())

		l.CancelAll()
		require.Equal(t, 0, l.InflightCount())
	})

	t.Run("newer begin supersedes the older fetch for the same row", func(t *testing.T) {
		release := make(chan struct{})
		fetch := func(ctx context.Context, ref string) ([]byte, error) {
			select {
			case <-release:
				return []byte(ref), nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		l := NewMediaLoader(fetch, nil, time.Minute)
		defer l.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		ch := l.Subscribe(ctx)

		l.Begin("row-1", "ref-old")
		l.Begin("row-1", "ref-new")
		require.Equal(t, 1, l.InflightCount())

		close(release)
		res := awaitResult(t, ch)
		require.Equal(t, "ref-new", res.Ref)
		require.Equal(t, MediaLoaded, res.State)
	})

	t.Run("begin after close is a no-op", func(t *testing.T) {
		l := NewMediaLoader(func(ctx context.Context, ref string) ([]byte, error) {
			return nil, nil
		}, nil, time.Minute)
		l.Close()
		l.Begin("row-1", "ref-1")
		require.Equal(t, 0, l.InflightCount())
	})

	t.Run("nil loader is safe", func(t *testing.T) {
		var l *MediaLoader
		l.Begin("row", "ref")
		l.Cancel("row")
		l.CancelAll()
		l.Close()
		require.Equal(t, 0, l.InflightCount())
	})
}

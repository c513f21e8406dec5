package grid

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/gridley/internal/pubsub"
)

func testConfig() Config {
	return Config{
		Enabled:             true,
		Buffer:              5,
		RowHeight:           30,
		ContainerHeight:     300,
		FastScrollThreshold: DefaultFastScrollThreshold,
		ThrottleInterval:    DefaultThrottleInterval,
	}
}

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := NewEngine(testConfig(), opts...)
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

func TestEngineScroll(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("canonical position materializes visible plus buffer", func(t *testing.T) {
		e := newTestEngine(t)
		e.Bind(newSliceSource(100000))

		decision, _ := e.Scroll(3000, base)
		require.Equal(t, DecisionImmediate, decision)

		vr := e.VisibleRange()
		require.Equal(t, 100, vr.Start)
		require.Equal(t, 110, vr.End)
		require.Equal(t, 95, vr.RenderedStart)
		require.Equal(t, 115, vr.RenderedEnd)
		require.Equal(t, 20, e.Window().Len())
		require.Equal(t, "row-0095", e.Window().Row(95).ID)
	})

	t.Run("coalesced scroll flushes at the deadline with the latest offset", func(t *testing.T) {
		e := newTestEngine(t)
		e.Bind(newSliceSource(100000))
		e.Scroll(3000, base)

		d1, deadline := e.Scroll(3001, base.Add(4*time.Millisecond))
		require.Equal(t, DecisionCoalesced, d1)
		require.False(t, deadline.IsZero())

		d2, _ := e.Scroll(3002, base.Add(6*time.Millisecond))
		require.Equal(t, DecisionCoalesced, d2)

		// Offset has not moved yet.
		require.Equal(t, 3000.0, e.ScrollOffset())

		require.False(t, e.FlushDue(base.Add(7*time.Millisecond)))
		require.True(t, e.FlushDue(base.Add(8*time.Millisecond)))
		require.Equal(t, 3002.0, e.ScrollOffset())
		require.False(t, e.FlushDue(base.Add(9*time.Millisecond)))
	})

	t.Run("fast scroll recomputes on every event", func(t *testing.T) {
		e := newTestEngine(t)
		e.Bind(newSliceSource(100000))
		e.Scroll(0, base)

		// 3000 pixels in 2ms: far past the threshold.
		decision, _ := e.Scroll(3000, base.Add(2*time.Millisecond))
		require.Equal(t, DecisionImmediate, decision)
		require.Equal(t, 100, e.VisibleRange().Start)
		require.Greater(t, e.Velocity(), DefaultFastScrollThreshold)
	})

	t.Run("offset is clamped at the extremes", func(t *testing.T) {
		e := newTestEngine(t)
		e.Bind(newSliceSource(1000))

		e.Scroll(-500, base)
		require.Equal(t, 0.0, e.ScrollOffset())
		require.Equal(t, 0, e.VisibleRange().Start)

		e.Scroll(1e9, base.Add(time.Second))
		require.Equal(t, 1000*30.0-300, e.ScrollOffset())
		require.Equal(t, 1000, e.VisibleRange().End)
	})

	t.Run("scroll updates are counted even when coalesced", func(t *testing.T) {
		e := newTestEngine(t)
		e.Bind(newSliceSource(1000))
		e.Scroll(0, base)
		e.Scroll(1, base.Add(2*time.Millisecond))
		e.Scroll(2, base.Add(4*time.Millisecond))

		stats := e.PerformanceStats()
		require.Equal(t, uint64(3), stats.ScrollUpdates)
	})
}

func TestEngineScrollToRow(t *testing.T) {
	e := newTestEngine(t)
	e.Bind(newSliceSource(100000))

	e.ScrollToRow(500)
	require.Equal(t, 500, e.VisibleRange().Start)
	require.Equal(t, 15000.0, e.ScrollOffset())

	t.Run("negative index clamps to the top", func(t *testing.T) {
		e.ScrollToRow(-5)
		require.Equal(t, 0, e.VisibleRange().Start)
	})

	t.Run("index past the end clamps to the last page", func(t *testing.T) {
		e.ScrollToRow(1 << 30)
		require.Equal(t, 100000, e.VisibleRange().End)
	})
}

func TestEngineBind(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("replacement drops stale rows wholesale", func(t *testing.T) {
		e := newTestEngine(t)
		e.Bind(newSliceSource(1000))
		e.Scroll(3000, base)
		require.Equal(t, "row-0100", e.Window().Row(100).ID)

		replacement := newSliceSource(1000)
		for i := range replacement.ids {
			replacement.ids[i] = "new-" + replacement.ids[i]
		}
		e.Bind(replacement)
		require.Equal(t, "new-row-0100", e.Window().Row(100).ID)
	})

	t.Run("shrinking collection clamps the offset", func(t *testing.T) {
		e := newTestEngine(t)
		e.Bind(newSliceSource(100000))
		e.Scroll(2_999_700, base)
		require.Equal(t, 100000, e.VisibleRange().End)

		// Filter shrinks the collection to 50 rows.
		e.Bind(newSliceSource(50))
		vr := e.VisibleRange()
		require.GreaterOrEqual(t, vr.Start, 0)
		require.LessOrEqual(t, vr.End, 50)
		require.Equal(t, vr.RenderedEnd-vr.RenderedStart, e.Window().Len())
	})

	t.Run("empty collection leaves an empty window", func(t *testing.T) {
		e := newTestEngine(t)
		e.Bind(newSliceSource(0))
		require.Equal(t, 0, e.Window().Len())
		require.True(t, Range{Start: e.VisibleRange().Start, End: e.VisibleRange().End}.IsEmpty())
	})

	t.Run("nil source unbinds", func(t *testing.T) {
		e := newTestEngine(t)
		e.Bind(newSliceSource(100))
		e.Bind(nil)
		require.Equal(t, 0, e.Window().Len())
	})
}

func TestEngineSelection(t *testing.T) {
	sel := NewSelectionSet()
	e := newTestEngine(t, WithSelection(sel))
	e.Bind(newSliceSource(100000))

	e.ScrollToRow(95)
	sel.Add(e.Window().Row(100).ID)
	e.SelectionChanged()
	require.True(t, e.Window().Row(100).Selected)

	// Scroll far away and back: the marker is restored from the set.
	e.ScrollToRow(5000)
	require.Nil(t, e.Window().Row(100))

	e.ScrollToRow(95)
	require.True(t, e.Window().Row(100).Selected)

	sel.Remove("row-0100")
	e.SelectionChanged()
	require.False(t, e.Window().Row(100).Selected)
}

func TestEngineMedia(t *testing.T) {
	fetch := func(ctx context.Context, ref string) ([]byte, error) {
		return []byte("img"), nil
	}
	loader := NewMediaLoader(fetch, nil, time.Minute)

	src := newSliceSource(1000)
	src.media[100] = "ref-100"

	e := newTestEngine(t, WithMediaLoader(loader))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := loader.Subscribe(ctx)

	e.Bind(src)
	e.ScrollToRow(95)
	require.Equal(t, MediaLoading, e.Window().Row(100).Media)

	res := awaitResult(t, ch)
	require.Equal(t, "row-0100", res.RowID)

	t.Run("resolution lands on the materialized row", func(t *testing.T) {
		require.True(t, e.ResolveMedia(res))
		require.Equal(t, MediaLoaded, e.Window().Row(100).Media)
	})

	t.Run("late resolution after dematerialization is discarded", func(t *testing.T) {
		e.ScrollToRow(500)
		require.False(t, e.ResolveMedia(res))
	})
}

func TestEngineConfigure(t *testing.T) {
	t.Run("invalid construction fails", func(t *testing.T) {
		_, err := NewEngine(Config{Enabled: true, ContainerHeight: 0})
		require.Error(t, err)

		_, err = NewEngine(Config{Enabled: true, ContainerHeight: 300, Buffer: -1})
		require.Error(t, err)
	})

	t.Run("rejected update keeps the previous configuration", func(t *testing.T) {
		e := newTestEngine(t)
		before := e.Config()

		bad := before
		bad.ContainerHeight = -1
		require.Error(t, e.Configure(bad))
		require.Equal(t, before, e.Config())
	})

	t.Run("resize recomputes the visible span", func(t *testing.T) {
		e := newTestEngine(t)
		e.Bind(newSliceSource(100000))
		e.ScrollToRow(100)
		require.Equal(t, 110, e.VisibleRange().End)

		require.NoError(t, e.Resize(600))
		require.Equal(t, 120, e.VisibleRange().End)

		require.Error(t, e.Resize(0))
	})

	t.Run("disabling tears the window down", func(t *testing.T) {
		e := newTestEngine(t)
		e.Bind(newSliceSource(1000))
		e.ScrollToRow(100)
		require.NotZero(t, e.Window().Len())

		e.SetEnabled(false)
		require.Zero(t, e.Window().Len())
		require.False(t, e.Enabled())

		decision, _ := e.Scroll(3000, time.Now())
		require.Equal(t, DecisionCoalesced, decision)
		require.Zero(t, e.Window().Len())

		e.SetEnabled(true)
		require.NotZero(t, e.Window().Len())
	})
}

func TestEngineRowHeightMeasurement(t *testing.T) {
	cfg := testConfig()
	cfg.RowHeight = 0 // auto-detect
	cfg.ContainerHeight = 30
	e, err := NewEngine(cfg)
	require.NoError(t, err)
	defer e.Close()

	src := newSliceSource(100)
	e.Bind(src)

	// Single-line rows measure one unit per row.
	require.Equal(t, 1.0, e.RowHeight())
	require.Equal(t, 30, e.VisibleRange().End)

	t.Run("invalidation re-measures on the next pass", func(t *testing.T) {
		e.InvalidateRowHeight()
		require.Equal(t, 1.0, e.RowHeight())
	})
}

func TestEngineRenderPassEvents(t *testing.T) {
	e := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := e.Subscribe(ctx)

	e.Bind(newSliceSource(100000))

	select {
	case event := <-ch:
		require.Equal(t, pubsub.RenderPassEvent, event.Type)
		require.Equal(t, TriggerBind, event.Payload.Trigger)
		require.Equal(t, 100000, event.Payload.TotalRows)
		require.Equal(t, event.Payload.Materialized, event.Payload.Added)
	case <-time.After(time.Second):
		t.Fatal("no render pass event after bind")
	}

	e.ScrollToRow(500)
	select {
	case event := <-ch:
		require.Equal(t, TriggerScrollTo, event.Payload.Trigger)
		require.Equal(t, 495, event.Payload.Rendered.Start)
	case <-time.After(time.Second):
		t.Fatal("no render pass event after scroll")
	}
}

func TestEngineIdempotentRecompute(t *testing.T) {
	e := newTestEngine(t)
	e.Bind(newSliceSource(100000))
	e.ScrollToRow(100)

	before := e.Window().Row(100)
	e.ScrollToRow(100)
	require.Same(t, before, e.Window().Row(100))
}

func TestEnginePerformanceStats(t *testing.T) {
	e := newTestEngine(t)
	e.Bind(newSliceSource(100000))
	e.ScrollToRow(100)

	stats := e.PerformanceStats()
	require.Equal(t, uint64(2), stats.RenderPasses) // bind + scroll-to
	require.Equal(t, 100000, stats.TotalRows)
	require.Equal(t, 20, stats.RenderedRows)
	require.GreaterOrEqual(t, stats.MaxRenderTime, stats.AverageRenderTime)
}

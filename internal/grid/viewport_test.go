package grid

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestGeometryRanges(t *testing.T) {
	t.Run("canonical mid-scroll position", func(t *testing.T) {
		g := Geometry{
			ScrollOffset:    3000,
			ContainerHeight: 300,
			RowHeight:       30,
			TotalRows:       100000,
			Buffer:          5,
		}
		visible, rendered := g.Ranges()
		require.Equal(t, Range{Start: 100, End: 110}, visible)
		require.Equal(t, Range{Start: 95, End: 115}, rendered)
	})

	t.Run("top of list clamps buffer to zero", func(t *testing.T) {
		g := Geometry{ContainerHeight: 300, RowHeight: 30, TotalRows: 1000, Buffer: 5}
		visible, rendered := g.Ranges()
		require.Equal(t, Range{Start: 0, End: 10}, visible)
		require.Equal(t, Range{Start: 0, End: 15}, rendered)
	})

	t.Run("bottom of list clamps buffer to total", func(t *testing.T) {
		g := Geometry{
			ScrollOffset:    29700, // 1000*30 - 300
			ContainerHeight: 300,
			RowHeight:       30,
			TotalRows:       1000,
			Buffer:          5,
		}
		visible, rendered := g.Ranges()
		require.Equal(t, Range{Start: 990, End: 1000}, visible)
		require.Equal(t, Range{Start: 985, End: 1000}, rendered)
	})

	t.Run("fractional offset widens visible by one row", func(t *testing.T) {
		g := Geometry{
			ScrollOffset:    3015,
			ContainerHeight: 300,
			RowHeight:       30,
			TotalRows:       100000,
			Buffer:          0,
		}
		visible, _ := g.Ranges()
		require.Equal(t, Range{Start: 100, End: 111}, visible)
	})

	t.Run("empty collection yields empty ranges", func(t *testing.T) {
		g := Geometry{ContainerHeight: 300, RowHeight: 30, Buffer: 5}
		visible, rendered := g.Ranges()
		require.True(t, visible.IsEmpty())
		require.True(t, rendered.IsEmpty())
	})

	t.Run("collection shorter than viewport", func(t *testing.T) {
		g := Geometry{ContainerHeight: 300, RowHeight: 30, TotalRows: 3, Buffer: 5}
		visible, rendered := g.Ranges()
		require.Equal(t, Range{Start: 0, End: 3}, visible)
		require.Equal(t, Range{Start: 0, End: 3}, rendered)
	})

	t.Run("stale offset past the end is clamped before range math", func(t *testing.T) {
		g := Geometry{
			ScrollOffset:    3_000_000,
			ContainerHeight: 300,
			RowHeight:       30,
			TotalRows:       50,
			Buffer:          5,
		}
		visible, rendered := g.Ranges()
		require.GreaterOrEqual(t, visible.Start, 0)
		require.LessOrEqual(t, rendered.End, 50)
		require.False(t, visible.IsEmpty())
	})

	t.Run("negative offset is clamped to zero", func(t *testing.T) {
		g := Geometry{
			ScrollOffset:    -500,
			ContainerHeight: 300,
			RowHeight:       30,
			TotalRows:       1000,
			Buffer:          5,
		}
		visible, rendered := g.Ranges()
		require.Equal(t, 0, visible.Start)
		require.Equal(t, 0, rendered.Start)
	})
}

func TestGeometryRangesProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		g := Geometry{
			ScrollOffset:    rapid.Float64Range(-1e6, 1e9).Draw(t, "offset"),
			ContainerHeight: rapid.Float64Range(1, 5000).Draw(t, "container"),
			RowHeight:       rapid.Float64Range(0.5, 200).Draw(t, "rowHeight"),
			TotalRows:       rapid.IntRange(0, 200000).Draw(t, "total"),
			Buffer:          rapid.IntRange(0, 50).Draw(t, "buffer"),
		}
		visible, rendered := g.Ranges()

		// Rendered always contains visible.
		require.LessOrEqual(t, rendered.Start, visible.Start)
		require.LessOrEqual(t, visible.End, rendered.End)

		// Both ranges stay inside the collection.
		require.GreaterOrEqual(t, rendered.Start, 0)
		require.LessOrEqual(t, rendered.End, g.TotalRows)

		// Materialized count is bounded by visible span plus both buffers.
		require.LessOrEqual(t, rendered.Len(), visible.Len()+2*g.Buffer)
	})
}

func TestGeometryRangesBoundedMaterialization(t *testing.T) {
	// The count of rendered rows must stay flat regardless of collection
	// size or scroll position.
	g := Geometry{
		ContainerHeight: 500,
		RowHeight:       32,
		TotalRows:       100000,
		Buffer:          10,
	}
	maxRendered := int(500/32) + 2 + 2*10 // visible span + partials + buffers

	rapid.Check(t, func(t *rapid.T) {
		g.ScrollOffset = rapid.Float64Range(0, g.MaxScrollOffset()).Draw(t, "offset")
		_, rendered := g.Ranges()
		require.LessOrEqual(t, rendered.Len(), maxRendered)
		require.Greater(t, rendered.Len(), 0)
	})
}

func TestGeometryClampOffset(t *testing.T) {
	g := Geometry{ContainerHeight: 300, RowHeight: 30, TotalRows: 100}

	require.Equal(t, 0.0, g.ClampOffset(-10))
	require.Equal(t, 1500.0, g.ClampOffset(1500))
	require.Equal(t, 2700.0, g.ClampOffset(99999)) // 100*30 - 300

	// Collection fits in the container: only offset zero is valid.
	small := Geometry{ContainerHeight: 300, RowHeight: 30, TotalRows: 5}
	require.Equal(t, 0.0, small.ClampOffset(50))
}

func TestHeightEstimator(t *testing.T) {
	t.Run("configured height pins the value", func(t *testing.T) {
		e := NewHeightEstimator(30, DefaultRowHeight)
		require.Equal(t, 30.0, e.RowHeight())
		e.Observe(17)
		require.Equal(t, 30.0, e.RowHeight())
		require.False(t, e.Measured())
	})

	t.Run("auto-detect uses fallback until first measurement", func(t *testing.T) {
		e := NewHeightEstimator(0, 1)
		require.Equal(t, 1.0, e.RowHeight())

		e.Observe(3)
		require.True(t, e.Measured())
		require.Equal(t, 3.0, e.RowHeight())

		// Only the first observation counts.
		e.Observe(7)
		require.Equal(t, 3.0, e.RowHeight())
	})

	t.Run("invalidate forces re-measurement", func(t *testing.T) {
		e := NewHeightEstimator(0, 1)
		e.Observe(3)
		e.Invalidate()
		require.False(t, e.Measured())
		require.Equal(t, 1.0, e.RowHeight())
		e.Observe(5)
		require.Equal(t, 5.0, e.RowHeight())
	})

	t.Run("non-positive observations are ignored", func(t *testing.T) {
		e := NewHeightEstimator(0, 1)
		e.Observe(0)
		e.Observe(-2)
		require.False(t, e.Measured())
	})

	t.Run("setting configured to zero re-enables detection", func(t *testing.T) {
		e := NewHeightEstimator(30, 1)
		e.SetConfigured(0)
		require.Equal(t, 1.0, e.RowHeight())
		e.Observe(2)
		require.Equal(t, 2.0, e.RowHeight())
	})
}

func TestRange(t *testing.T) {
	r := Range{Start: 95, End: 115}
	require.Equal(t, 20, r.Len())
	require.True(t, r.Contains(95))
	require.True(t, r.Contains(114))
	require.False(t, r.Contains(115))
	require.False(t, r.Contains(94))
	require.False(t, r.IsEmpty())
	require.True(t, Range{}.IsEmpty())
}

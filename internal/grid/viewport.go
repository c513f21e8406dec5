// Package grid implements the virtualized rendering engine behind the data
// grid. It keeps an arbitrarily large row collection scrollable inside a
// fixed-height viewport by materializing only the rows inside a small,
// continuously recomputed window (visible range plus buffer).
//
// The package is UI-framework free: offsets and heights are abstract pixel
// units, and the render target adapter (internal/ui/gridview) decides what a
// pixel means on its surface.
package grid

import "math"

// Range is a half-open row index interval [Start, End).
type Range struct {
	Start int
	End   int
}

// Len returns the number of rows in the range.
func (r Range) Len() int {
	return r.End - r.Start
}

// Contains reports whether the absolute row index falls inside the range.
func (r Range) Contains(index int) bool {
	return index >= r.Start && index < r.End
}

// IsEmpty reports whether the range covers no rows.
func (r Range) IsEmpty() bool {
	return r.End <= r.Start
}

// Geometry is the complete input to the viewport calculation. All fields are
// read-only for the duration of a computation; the engine owns mutation.
type Geometry struct {
	ScrollOffset    float64 // current scroll position in pixels
	ContainerHeight float64 // visible viewport height in pixels
	RowHeight       float64 // pixels per row (uniform across the collection)
	TotalRows       int     // size of the bound row collection
	Buffer          int     // extra rows materialized above and below
}

// MaxScrollOffset returns the largest valid scroll offset for the geometry.
// Zero when the collection fits entirely inside the container.
func (g Geometry) MaxScrollOffset() float64 {
	maxOffset := float64(g.TotalRows)*g.RowHeight - g.ContainerHeight
	if maxOffset < 0 {
		return 0
	}
	return maxOffset
}

// ClampOffset pulls an arbitrary offset into the valid range
// [0, MaxScrollOffset]. Callers must clamp before computing ranges: a filter
// that shrinks TotalRows can leave the previous offset far past the end, and
// range math on an unclamped offset would go out of bounds.
func (g Geometry) ClampOffset(offset float64) float64 {
	if offset < 0 {
		return 0
	}
	if maxOffset := g.MaxScrollOffset(); offset > maxOffset {
		return maxOffset
	}
	return offset
}

// Ranges computes the visible and rendered row ranges for the geometry.
// Pure function: no side effects, callable at any time.
//
//	visibleStart = floor(scrollOffset / rowHeight)
//	visibleEnd   = ceil((scrollOffset + containerHeight) / rowHeight)
//	rendered     = visible expanded by Buffer, clamped to [0, TotalRows)
//
// Guarantees: rendered.Start <= visible.Start <= visible.End <= rendered.End,
// and both ranges are empty ({0,0}) when TotalRows == 0. The scroll offset is
// clamped internally, so a stale offset can never produce a negative range.
func (g Geometry) Ranges() (visible, rendered Range) {
	if g.TotalRows <= 0 || g.RowHeight <= 0 || g.ContainerHeight <= 0 {
		return Range{}, Range{}
	}

	offset := g.ClampOffset(g.ScrollOffset)

	visible.Start = int(math.Floor(offset / g.RowHeight))
	visible.End = int(math.Ceil((offset + g.ContainerHeight) / g.RowHeight))

	// A short collection leaves the viewport partly empty; the visible range
	// still ends at the collection.
	if visible.End > g.TotalRows {
		visible.End = g.TotalRows
	}
	if visible.Start > visible.End {
		visible.Start = visible.End
	}

	rendered.Start = max(0, visible.Start-g.Buffer)
	rendered.End = min(g.TotalRows, visible.End+g.Buffer)

	return visible, rendered
}

// DefaultRowHeight is the fallback row height when nothing has been measured
// and the configuration does not pin a value. One abstract pixel unit per
// terminal line keeps the math exact on character-cell targets.
const DefaultRowHeight = 1.0

// HeightEstimator converts between pixel offsets and row indices by holding
// the one scalar the geometry needs: pixels per row.
//
// The estimator measures the first materialized row once and caches the
// result; re-measurement happens only on explicit invalidation. It
// deliberately does not model per-row variable height: rows with genuinely
// different heights (wrapped multi-line cells) are a documented limitation.
type HeightEstimator struct {
	configured float64 // fixed height from configuration, 0 = auto-detect
	fallback   float64 // used until a row has been measured
	measured   float64 // cached measurement, 0 = not yet measured
}

// NewHeightEstimator creates an estimator. A positive configured height pins
// the value and disables measurement; zero enables auto-detection with the
// fallback in effect until the first row renders.
func NewHeightEstimator(configured, fallback float64) *HeightEstimator {
	if fallback <= 0 {
		fallback = DefaultRowHeight
	}
	return &HeightEstimator{configured: configured, fallback: fallback}
}

// RowHeight returns the current estimate: the configured value when pinned,
// otherwise the cached measurement, otherwise the fallback.
func (e *HeightEstimator) RowHeight() float64 {
	if e.configured > 0 {
		return e.configured
	}
	if e.measured > 0 {
		return e.measured
	}
	return e.fallback
}

// Observe records the rendered height of one materialized row. Only the
// first observation after construction or invalidation is kept; repeated
// measurement during scroll is exactly the per-frame read this design avoids.
// Non-positive observations are ignored.
func (e *HeightEstimator) Observe(height float64) {
	if e.configured > 0 || e.measured > 0 || height <= 0 {
		return
	}
	e.measured = height
}

// Measured reports whether a row height has been observed.
func (e *HeightEstimator) Measured() bool {
	return e.measured > 0
}

// Invalidate drops the cached measurement so the next materialized row is
// re-measured. Called on configuration changes that can affect row geometry;
// geometry drift from external styling changes is not detected automatically.
func (e *HeightEstimator) Invalidate() {
	e.measured = 0
}

// SetConfigured updates the pinned height. Zero switches back to
// auto-detection and invalidates any previous measurement.
func (e *HeightEstimator) SetConfigured(height float64) {
	e.configured = height
	e.measured = 0
}

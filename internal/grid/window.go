package grid

// Source is the row collection accessor the engine consumes. The ordered
// sequence it exposes is the post sort/filter/pagination result, replaced
// wholesale by the upstream data layer and treated as read-only by the engine
// for the duration of a recomputation pass.
type Source interface {
	// Len returns the number of rows in the collection.
	Len() int

	// ID returns the stable identifier of the row at the index. The
	// identifier survives sort/filter/re-render; it is what selection and
	// media loading key on.
	ID(index int) string

	// Render produces the opaque visual content for the row at the index.
	// The engine places the result into the render target without
	// interpreting it.
	Render(index int) string

	// MediaRef returns an external media reference for the row ("" when the
	// row has none). Referenced media is loaded asynchronously after the row
	// materializes.
	MediaRef(index int) string
}

// MediaState tracks the visual state of a row's asynchronous media.
type MediaState int

const (
	MediaNone    MediaState = iota // row references no media
	MediaLoading                   // placeholder shown, fetch in flight
	MediaLoaded                    // fetch resolved
	MediaFailed                    // deterministic fallback placeholder
)

// MaterializedRow is one row currently present in the render target, tagged
// with its absolute index for event delegation and selection reconciliation.
type MaterializedRow struct {
	Index    int
	ID       string
	Content  string
	Selected bool
	Media    MediaState
	MediaRef string
}

// Window owns the set of materialized rows and the spacer geometry that
// preserves the illusion of a full-height list: a leading spacer of
// renderedStart*rowHeight pixels and a trailing spacer of
// (totalRows-renderedEnd)*rowHeight pixels surround the materialized block.
type Window struct {
	rows  map[int]*MaterializedRow
	prev  Range
	total int

	leadingSpacer  float64
	trailingSpacer float64
}

// NewWindow creates an empty window.
func NewWindow() *Window {
	return &Window{rows: make(map[int]*MaterializedRow)}
}

// WindowDelta reports what one Apply pass actually did. An unchanged range
// yields a zero delta: idempotence is the renderer's core contract, repeated
// recomputation with identical state must not re-materialize anything.
type WindowDelta struct {
	Added   []*MaterializedRow
	Removed []*MaterializedRow
}

// Apply materializes exactly the rows in rendered, reusing every row that was
// already present and untouched. Only the difference between the previous and
// new range is created or destroyed; content for surviving rows is not
// re-rendered.
//
// The returned delta lists newly materialized rows (media loading is the
// caller's concern) and dematerialized rows (whose in-flight media loads must
// be cancelled, not awaited).
func (w *Window) Apply(rendered Range, rowHeight float64, src Source) WindowDelta {
	var delta WindowDelta

	total := 0
	if src != nil {
		total = src.Len()
	}

	// Drop rows that left the range.
	for index, row := range w.rows {
		if !rendered.Contains(index) {
			delta.Removed = append(delta.Removed, row)
			delete(w.rows, index)
		}
	}

	// Materialize rows that entered it.
	for index := rendered.Start; index < rendered.End; index++ {
		if _, ok := w.rows[index]; ok {
			continue
		}
		if src == nil || index >= total {
			break
		}
		row := &MaterializedRow{
			Index:    index,
			ID:       src.ID(index),
			Content:  src.Render(index),
			MediaRef: src.MediaRef(index),
		}
		if row.MediaRef != "" {
			row.Media = MediaLoading
		}
		w.rows[index] = row
		delta.Added = append(delta.Added, row)
	}

	w.prev = rendered
	w.total = total
	w.leadingSpacer = float64(rendered.Start) * rowHeight
	w.trailingSpacer = float64(total-rendered.End) * rowHeight
	if w.trailingSpacer < 0 {
		w.trailingSpacer = 0
	}

	return delta
}

// Invalidate drops every materialized row, forcing the next Apply to rebuild
// the window from the source. Used when the row collection is replaced: old
// content must never survive into the new collection, even at the same
// indices.
func (w *Window) Invalidate() []*MaterializedRow {
	removed := make([]*MaterializedRow, 0, len(w.rows))
	for index, row := range w.rows {
		removed = append(removed, row)
		delete(w.rows, index)
	}
	w.prev = Range{}
	return removed
}

// Len returns the number of materialized rows. Always equals the rendered
// range length after an Apply against a sufficiently large source.
func (w *Window) Len() int {
	return len(w.rows)
}

// Bounds returns the rendered range the window currently covers.
func (w *Window) Bounds() Range {
	return w.prev
}

// Row returns the materialized row at the absolute index, nil when the index
// is outside the window.
func (w *Window) Row(index int) *MaterializedRow {
	return w.rows[index]
}

// ByID returns the materialized row carrying the stable identifier, nil when
// the row is not currently materialized.
func (w *Window) ByID(id string) *MaterializedRow {
	for _, row := range w.rows {
		if row.ID == id {
			return row
		}
	}
	return nil
}

// Each visits every materialized row in ascending index order.
func (w *Window) Each(fn func(*MaterializedRow)) {
	for index := w.prev.Start; index < w.prev.End; index++ {
		if row, ok := w.rows[index]; ok {
			fn(row)
		}
	}
}

// Rows returns the materialized rows in ascending index order.
func (w *Window) Rows() []*MaterializedRow {
	out := make([]*MaterializedRow, 0, len(w.rows))
	w.Each(func(row *MaterializedRow) { out = append(out, row) })
	return out
}

// LeadingSpacer returns the pixel height of the spacer above the
// materialized block.
func (w *Window) LeadingSpacer() float64 {
	return w.leadingSpacer
}

// TrailingSpacer returns the pixel height of the spacer below the
// materialized block.
func (w *Window) TrailingSpacer() float64 {
	return w.trailingSpacer
}

// SetMediaState records the resolution of an asynchronous media load for the
// row with the given identifier. The lookup is by stable ID, not index: if
// the row was dematerialized (or the collection replaced) while the fetch was
// in flight, the callback lands nowhere instead of repainting a row element
// that no longer represents that data. Returns false in that case.
func (w *Window) SetMediaState(id string, state MediaState) bool {
	row := w.ByID(id)
	if row == nil || row.Media == MediaNone {
		return false
	}
	row.Media = state
	return true
}

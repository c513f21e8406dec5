package grid

// SelectionSet holds the stable identifiers of selected rows. Membership is
// positional-index free: a row keeps its selection across sort, filter, and
// re-render, and across leaving and re-entering the rendered range.
//
// The set is owned by the selection subsystem; the engine only reads it
// during reconciliation and never derives membership from what happens to be
// materialized.
type SelectionSet struct {
	ids map[string]struct{}
	// anchor is the identifier where the last single selection happened,
	// used as the fixed end of a range selection.
	anchor string
}

// NewSelectionSet creates an empty selection.
func NewSelectionSet() *SelectionSet {
	return &SelectionSet{ids: make(map[string]struct{})}
}

// Has reports whether the identifier is selected.
func (s *SelectionSet) Has(id string) bool {
	if s == nil {
		return false
	}
	_, ok := s.ids[id]
	return ok
}

// Add selects the identifier and moves the range anchor to it.
func (s *SelectionSet) Add(id string) {
	if id == "" {
		return
	}
	s.ids[id] = struct{}{}
	s.anchor = id
}

// Remove deselects the identifier.
func (s *SelectionSet) Remove(id string) {
	delete(s.ids, id)
}

// Toggle flips the identifier's membership and returns the new state.
func (s *SelectionSet) Toggle(id string) bool {
	if s.Has(id) {
		s.Remove(id)
		return false
	}
	s.Add(id)
	return true
}

// Anchor returns the identifier the next range selection extends from.
func (s *SelectionSet) Anchor() string {
	return s.anchor
}

// Clear empties the selection and drops the anchor.
func (s *SelectionSet) Clear() {
	s.ids = make(map[string]struct{})
	s.anchor = ""
}

// Len returns the number of selected rows.
func (s *SelectionSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.ids)
}

// IDs returns the selected identifiers in unspecified order.
func (s *SelectionSet) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	return out
}

// Reconcile applies the selection to exactly the rows currently materialized
// in the window: a materialized row is marked selected iff its stable
// identifier is a member. Rows outside the window are untouched; their
// selection intent lives in the set, not in any visual state, so scrolling a
// selected row back into view re-applies the marker without any explicit
// re-selection call.
//
// Returns the number of materialized rows whose marker changed.
func Reconcile(sel *SelectionSet, win *Window) int {
	if win == nil {
		return 0
	}
	changed := 0
	win.Each(func(row *MaterializedRow) {
		want := sel.Has(row.ID)
		if row.Selected != want {
			row.Selected = want
			changed++
		}
	})
	return changed
}

// Package gridview renders a virtualized data grid: sticky header, row
// window, selection and cursor highlighting, media indicators, and a
// proportional scrollbar. Scroll state lives in the grid engine; this package
// is the render target adapter plus cursor bookkeeping.
package gridview

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/zjrosen/gridley/internal/data"
	"github.com/zjrosen/gridley/internal/grid"
)

const (
	// mediaColWidth is the media indicator cell plus its separator.
	mediaColWidth = 2
	// scrollbarColWidth is the scrollbar cell plus its separator.
	scrollbarColWidth = 2
)

// Model holds grid rendering state. The engine pointer is shared with the
// owning application model; cursor and layout state belong here.
type Model struct {
	engine    *grid.Engine
	selection *grid.SelectionSet

	columns     []Column
	visibleCols []Column
	widths      []int

	coll *data.Collection
	sort data.SortSpec

	cursor     int
	plainStart int // scroll anchor when virtualization is off

	width      int
	height     int
	dataHeight int

	focused      bool
	showHeader   bool
	zonePrefix   string
	emptyMessage string
}

// New creates a grid view over the given engine and selection set.
func New(engine *grid.Engine, selection *grid.SelectionSet, columns []Column, zonePrefix string) Model {
	return Model{
		engine:       engine,
		selection:    selection,
		columns:      columns,
		showHeader:   true,
		focused:      true,
		zonePrefix:   zonePrefix,
		emptyMessage: "No rows",
	}
}

// SetColumns replaces the column layout and rebinds.
func (m Model) SetColumns(columns []Column) Model {
	m.columns = columns
	m.layout()
	m.rebind()
	return m
}

// SetCollection installs a new row collection. The cursor is clamped into the
// new bounds; selection survives by ID, not position.
func (m Model) SetCollection(coll *data.Collection, sort data.SortSpec) Model {
	m.coll = coll
	m.sort = sort
	if m.cursor >= coll.Len() {
		m.cursor = coll.Len() - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.plainStart = m.clampPlainStart(m.plainStart)
	m.rebind()
	m.ensureCursorVisible()
	return m
}

// SetSize sets the available dimensions and recomputes the column layout.
func (m Model) SetSize(width, height int) Model {
	m.width = width
	m.height = height
	m.dataHeight = height
	if m.showHeader {
		m.dataHeight--
	}
	if m.dataHeight < 0 {
		m.dataHeight = 0
	}
	m.layout()
	if m.dataHeight > 0 {
		_ = m.engine.Resize(float64(m.dataHeight))
	}
	m.rebind()
	return m
}

// SetFocused sets whether the cursor row is highlighted.
func (m Model) SetFocused(focused bool) Model {
	m.focused = focused
	return m
}

// layout recomputes visible columns and their widths for the current size.
func (m *Model) layout() {
	cellArea := m.width - mediaColWidth - scrollbarColWidth
	if cellArea < 1 || len(m.columns) == 0 {
		m.visibleCols = nil
		m.widths = nil
		return
	}
	m.visibleCols = filterVisibleColumns(m.columns, m.width)
	m.widths = calculateColumnWidths(m.visibleCols, cellArea)
}

// rebind replaces the engine's bound source with the current collection and
// layout. Content depends on both, so either change forces a rebind.
func (m *Model) rebind() {
	if m.coll == nil || len(m.widths) == 0 {
		return
	}
	m.engine.Bind(&rowSource{coll: m.coll, cols: m.visibleCols, widths: m.widths})
}

// Cursor returns the absolute index of the cursor row.
func (m Model) Cursor() int {
	return m.cursor
}

// CursorRow returns the row under the cursor.
func (m Model) CursorRow() (data.Row, bool) {
	if m.coll == nil || m.cursor < 0 || m.cursor >= m.coll.Len() {
		return data.Row{}, false
	}
	return m.coll.At(m.cursor), true
}

// MoveCursor moves the cursor by delta rows, clamped, and scrolls to keep it
// visible. Keyboard navigation bypasses the scroll throttle: the jump is
// explicit, not a stream of positions.
func (m Model) MoveCursor(delta int) Model {
	if m.coll == nil || m.coll.Len() == 0 {
		return m
	}
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor >= m.coll.Len() {
		m.cursor = m.coll.Len() - 1
	}
	m.ensureCursorVisible()
	return m
}

// PageSize returns the number of data rows one page spans.
func (m Model) PageSize() int {
	return m.dataHeight
}

// CursorToStart moves the cursor to the first row.
func (m Model) CursorToStart() Model {
	if m.coll == nil || m.coll.Len() == 0 {
		return m
	}
	m.cursor = 0
	m.ensureCursorVisible()
	return m
}

// CursorToEnd moves the cursor to the last row.
func (m Model) CursorToEnd() Model {
	if m.coll == nil || m.coll.Len() == 0 {
		return m
	}
	m.cursor = m.coll.Len() - 1
	m.ensureCursorVisible()
	return m
}

// ensureCursorVisible scrolls the viewport so the cursor row is on screen.
func (m *Model) ensureCursorVisible() {
	if m.dataHeight <= 0 {
		return
	}

	if !m.engine.Enabled() {
		if m.cursor < m.plainStart {
			m.plainStart = m.cursor
		}
		if m.cursor >= m.plainStart+m.dataHeight {
			m.plainStart = m.cursor - m.dataHeight + 1
		}
		m.plainStart = m.clampPlainStart(m.plainStart)
		return
	}

	vr := m.engine.VisibleRange()
	if m.cursor < vr.Start {
		m.engine.ScrollToRow(m.cursor)
		return
	}
	if vr.End > vr.Start && m.cursor >= vr.End {
		m.engine.ScrollToRow(m.cursor - m.dataHeight + 1)
	}
}

func (m Model) clampPlainStart(start int) int {
	if start < 0 {
		return 0
	}
	maxStart := m.coll.Len() - m.dataHeight
	if maxStart < 0 {
		maxStart = 0
	}
	if start > maxStart {
		return maxStart
	}
	return start
}

// Scroll feeds a wheel delta (in rows) through the engine's gated scroll
// path. The returned decision and deadline follow the engine's contract:
// immediate decisions are already applied, coalesced ones want a FlushDue
// call at the deadline.
func (m Model) Scroll(deltaRows int, now time.Time) (Model, grid.Decision, time.Time) {
	if !m.engine.Enabled() {
		m.plainStart = m.clampPlainStart(m.plainStart + deltaRows)
		return m, grid.DecisionImmediate, time.Time{}
	}
	offset := m.engine.ScrollOffset() + float64(deltaRows)*m.engine.RowHeight()
	decision, deadline := m.engine.Scroll(offset, now)
	return m, decision, deadline
}

// FlushDue runs a pending coalesced scroll whose throttle window has closed.
func (m Model) FlushDue(now time.Time) bool {
	return m.engine.FlushDue(now)
}

// ToggleSelect toggles selection of the cursor row and reconciles markers.
func (m Model) ToggleSelect() Model {
	row, ok := m.CursorRow()
	if !ok || m.selection == nil {
		return m
	}
	m.selection.Toggle(row.ID)
	m.engine.SelectionChanged()
	return m
}

// ClearSelection deselects everything.
func (m Model) ClearSelection() Model {
	if m.selection == nil {
		return m
	}
	m.selection.Clear()
	m.engine.SelectionChanged()
	return m
}

// Sort returns the sort spec the header indicator shows.
func (m Model) Sort() data.SortSpec {
	return m.sort
}

// ZoneID returns the bubblezone identifier for a row.
func (m Model) ZoneID(rowID string) string {
	return m.zonePrefix + rowID
}

// VisibleRowIDs returns the IDs of rows currently on screen, for mouse hit
// testing against their zones.
func (m Model) VisibleRowIDs() []string {
	start, end := m.visibleBounds()
	ids := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		ids = append(ids, m.coll.At(i).ID)
	}
	return ids
}

// SelectByID moves the cursor to the row with the given identity, if present.
func (m Model) SelectByID(id string) Model {
	if m.coll == nil {
		return m
	}
	if idx := m.coll.IndexOf(id); idx >= 0 {
		m.cursor = idx
		m.ensureCursorVisible()
	}
	return m
}

// visibleBounds returns the on-screen row index range.
func (m Model) visibleBounds() (int, int) {
	if m.coll == nil || m.coll.Len() == 0 || m.dataHeight <= 0 {
		return 0, 0
	}
	if m.engine.Enabled() {
		vr := m.engine.VisibleRange()
		end := vr.End
		if end > m.coll.Len() {
			end = m.coll.Len()
		}
		return vr.Start, end
	}
	end := m.plainStart + m.dataHeight
	if end > m.coll.Len() {
		end = m.coll.Len()
	}
	return m.plainStart, end
}

// View renders the grid: sticky header, visible rows with media indicators
// and highlights, and the scrollbar column.
func (m Model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}

	var lines []string
	cellArea := m.width - mediaColWidth - scrollbarColWidth

	if m.showHeader {
		header := renderHeaderLine(m.visibleCols, m.widths, m.sort)
		lines = append(lines, strings.Repeat(" ", mediaColWidth)+header)
	}

	if m.coll == nil || m.coll.Len() == 0 {
		lines = append(lines, renderEmptyState(m.emptyMessage, m.width, m.dataHeight))
		return strings.Join(lines, "\n")
	}

	start, end := m.visibleBounds()
	scrollbar := renderScrollbar(m.dataHeight, m.coll.Len(), m.dataHeight, start)

	rowLines := make([]string, 0, m.dataHeight)
	for idx := start; idx < end; idx++ {
		rowLines = append(rowLines, m.renderVisibleRow(idx, cellArea))
	}
	for i := len(rowLines); i < m.dataHeight; i++ {
		rowLines = append(rowLines, strings.Repeat(" ", m.width-scrollbarColWidth))
	}

	for i, line := range rowLines {
		sb := " "
		if i < len(scrollbar) && scrollbar[i] != "" {
			sb = scrollbar[i]
		}
		rowLines[i] = line + " " + sb
	}

	lines = append(lines, rowLines...)
	return strings.Join(lines, "\n")
}

// renderVisibleRow builds one on-screen row line: media glyph, cached or
// freshly rendered content, selection and cursor overlays, zone mark.
func (m Model) renderVisibleRow(idx, cellArea int) string {
	row := m.coll.At(idx)

	content := ""
	media := grid.MediaNone
	selected := false

	if mr := m.engine.Window().Row(idx); mr != nil {
		content = mr.Content
		media = mr.Media
		selected = mr.Selected
	} else {
		content = renderRowLine(row, m.visibleCols, m.widths)
		if m.selection != nil {
			selected = m.selection.Has(row.ID)
		}
	}

	line := mediaGlyph(media) + " " + content

	fullWidth := cellArea + mediaColWidth
	switch {
	case m.focused && idx == m.cursor:
		line = applyCursor(line, fullWidth)
	case selected:
		line = applySelected(line, fullWidth)
	default:
		if w := lipgloss.Width(line); w < fullWidth {
			line += strings.Repeat(" ", fullWidth-w)
		}
	}

	return zone.Mark(m.ZoneID(row.ID), line)
}

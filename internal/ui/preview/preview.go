// Package preview renders the focused row as a detail overlay: scalar cells
// as a wrapped field list, multi-line cells through the markdown renderer.
package preview

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/wordwrap"

	"github.com/zjrosen/gridley/internal/data"
	"github.com/zjrosen/gridley/internal/log"
	"github.com/zjrosen/gridley/internal/ui/panes"
	"github.com/zjrosen/gridley/internal/ui/styles"
)

// chrome is the width consumed by the pane border and padding on each side.
const chrome = 4

// Field is one labeled value in the detail view, in display order.
type Field struct {
	Label string
	Value string
}

// Model is the detail preview overlay. It is hidden until Show installs a
// row; the owning model composites View over the grid.
type Model struct {
	renderer *Renderer

	visible bool
	rowID   string
	fields  []Field

	width  int
	height int

	lines  []string
	offset int
}

// New creates a hidden preview.
func New() Model {
	return Model{}
}

// Visible reports whether the overlay should be composited.
func (m Model) Visible() bool {
	return m.visible
}

// RowID returns the identity of the previewed row, "" when hidden.
func (m Model) RowID() string {
	return m.rowID
}

// Show installs a row and renders its detail content. Order names the cell
// keys to display; labels maps keys to header text, falling back to the key.
func (m Model) Show(row data.Row, order []string, labels map[string]string) Model {
	m.visible = true
	m.rowID = row.ID
	m.offset = 0
	m.fields = buildFields(row, order, labels)
	m.render()
	return m
}

// Hide dismisses the overlay.
func (m Model) Hide() Model {
	m.visible = false
	m.rowID = ""
	m.fields = nil
	m.lines = nil
	m.offset = 0
	return m
}

// SetSize sets the overlay dimensions and re-renders visible content.
func (m Model) SetSize(width, height int) Model {
	if width == m.width && height == m.height {
		return m
	}
	m.width = width
	m.height = height
	m.renderer = nil
	if m.visible {
		m.render()
		m.offset = m.clampOffset(m.offset)
	}
	return m
}

// ScrollBy scrolls the detail content by delta lines, clamped.
func (m Model) ScrollBy(delta int) Model {
	m.offset = m.clampOffset(m.offset + delta)
	return m
}

func (m Model) bodyHeight() int {
	h := m.height - 2
	if h < 0 {
		return 0
	}
	return h
}

func (m Model) clampOffset(offset int) int {
	maxOffset := len(m.lines) - m.bodyHeight()
	if maxOffset < 0 {
		maxOffset = 0
	}
	if offset > maxOffset {
		offset = maxOffset
	}
	if offset < 0 {
		offset = 0
	}
	return offset
}

// View renders the bordered overlay pane.
func (m Model) View() string {
	if !m.visible || m.width <= 0 || m.height <= 0 {
		return ""
	}

	body := m.lines
	if m.offset < len(body) {
		body = body[m.offset:]
	} else {
		body = nil
	}
	if len(body) > m.bodyHeight() {
		body = body[:m.bodyHeight()]
	}

	scrollHint := ""
	if len(m.lines) > m.bodyHeight() {
		scrollHint = scrollPercent(m.offset, len(m.lines), m.bodyHeight())
	}

	return panes.BorderedPane(panes.BorderConfig{
		Content:     strings.Join(body, "\n"),
		Width:       m.width,
		Height:      m.height,
		TopLeft:     "Row " + m.rowID,
		BottomRight: scrollHint,
		Focused:     true,
		TitleColor:  styles.OverlayTitleColor,
		BorderColor: styles.OverlayBorderColor,
	})
}

// render builds the body lines for the current fields and width.
func (m *Model) render() {
	bodyWidth := m.width - chrome
	if bodyWidth < 1 || len(m.fields) == 0 {
		m.lines = nil
		return
	}

	labelWidth := 0
	for _, f := range m.fields {
		if !isBlockValue(f.Value) {
			if w := runewidth.StringWidth(f.Label); w > labelWidth {
				labelWidth = w
			}
		}
	}

	var lines []string
	var blocks []Field

	for _, f := range m.fields {
		if isBlockValue(f.Value) {
			blocks = append(blocks, f)
			continue
		}
		lines = append(lines, renderField(f, labelWidth, bodyWidth)...)
	}

	for _, f := range blocks {
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, styles.OverlayTitleStyle.Render(f.Label))
		lines = append(lines, m.renderBlock(f.Value, bodyWidth)...)
	}

	m.lines = lines
}

// renderBlock renders a multi-line value as markdown, falling back to wrapped
// plain text when the markdown renderer is unavailable.
func (m *Model) renderBlock(value string, width int) []string {
	if m.renderer == nil {
		r, err := NewRenderer(width)
		if err != nil {
			log.ErrorErr(log.CatUI, "preview markdown renderer init failed", err)
		} else {
			m.renderer = r
		}
	}

	if m.renderer != nil {
		out, err := m.renderer.Render(value)
		if err == nil {
			return splitTrimmed(out)
		}
		log.Warn(log.CatUI, "preview markdown render failed", "error", err)
	}

	return strings.Split(wordwrap.String(value, width), "\n")
}

// buildFields extracts display fields from the row in column order, appending
// any cells the column order does not cover and the media reference last.
func buildFields(row data.Row, order []string, labels map[string]string) []Field {
	seen := make(map[string]bool, len(order))
	var fields []Field

	add := func(key string) {
		if seen[key] {
			return
		}
		seen[key] = true
		value := row.Cell(key)
		if value == "" {
			return
		}
		label := labels[key]
		if label == "" {
			label = key
		}
		fields = append(fields, Field{Label: label, Value: value})
	}

	for _, key := range order {
		add(key)
	}
	for key := range row.Cells {
		if !seen[key] {
			add(key)
		}
	}
	// Deterministic order for the uncovered tail
	sortTail(fields, len(order))

	if row.MediaRef != "" {
		fields = append(fields, Field{Label: "media", Value: row.MediaRef})
	}
	return fields
}

// sortTail orders fields[from:] by label; the configured columns keep their
// configured order.
func sortTail(fields []Field, from int) {
	if from >= len(fields) {
		return
	}
	tail := fields[minInt(from, len(fields)):]
	for i := 1; i < len(tail); i++ {
		for j := i; j > 0 && tail[j].Label < tail[j-1].Label; j-- {
			tail[j], tail[j-1] = tail[j-1], tail[j]
		}
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// renderField renders one scalar field as "label  value" with wrapped
// continuation lines indented under the value column.
func renderField(f Field, labelWidth, bodyWidth int) []string {
	valueWidth := bodyWidth - labelWidth - 2
	if valueWidth < 8 {
		valueWidth = 8
	}

	label := runewidth.FillRight(f.Label, labelWidth)
	label = lipgloss.NewStyle().Foreground(styles.TextSecondaryColor).Render(label)

	wrapped := strings.Split(wordwrap.String(f.Value, valueWidth), "\n")
	indent := strings.Repeat(" ", labelWidth+2)

	lines := make([]string, 0, len(wrapped))
	for i, w := range wrapped {
		if i == 0 {
			lines = append(lines, label+"  "+w)
		} else {
			lines = append(lines, indent+w)
		}
	}
	return lines
}

// isBlockValue reports whether a value gets the markdown treatment.
func isBlockValue(v string) bool {
	return strings.Contains(v, "\n")
}

// splitTrimmed splits rendered output into lines, dropping leading and
// trailing blank lines the renderer emits.
func splitTrimmed(s string) []string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	return lines
}

// scrollPercent formats the scroll position indicator.
func scrollPercent(offset, total, visible int) string {
	maxOffset := total - visible
	if maxOffset <= 0 {
		return ""
	}
	pct := offset * 100 / maxOffset
	return styles.FormatCount(pct) + "%"
}
